// Package preview binds the source and result videos to short-lived media
// URLs served by the desktop asset handler.
package preview

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"video-enhancer/internal/logging"
)

// MediaPrefix is the URL path under which bound files are served.
const MediaPrefix = "/media/"

// The stdlib mime table has no video entries on hosts without mime.types.
var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
}

// ErrClosed is returned when binding after Close.
var ErrClosed = errors.New("preview controller closed")

// Slot names a preview surface.
type Slot string

const (
	SlotSource Slot = "source"
	SlotResult Slot = "result"
)

// Controller holds at most one live handle per slot.
type Controller struct {
	mu     sync.Mutex
	slots  map[Slot]string
	files  map[string]string
	closed bool

	newToken func() string
	logger   *slog.Logger
}

// NewController creates a controller with both slots empty.
func NewController(logger *slog.Logger) *Controller {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Controller{
		slots:    make(map[Slot]string),
		files:    make(map[string]string),
		newToken: uuid.NewString,
		logger:   logging.WithComponent(logger, "preview"),
	}
}

// ShowSource binds path to the source slot and returns its media URL.
func (c *Controller) ShowSource(path string) (string, error) {
	return c.bind(SlotSource, path)
}

// ShowResult binds path to the result slot and returns its media URL.
func (c *Controller) ShowResult(path string) (string, error) {
	return c.bind(SlotResult, path)
}

func (c *Controller) bind(slot Slot, path string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return "", ErrClosed
	}
	c.releaseLocked(slot)

	token := c.newToken()
	c.slots[slot] = token
	c.files[token] = path
	c.logger.Debug("preview bound", "slot", string(slot), "path", logging.SanitizePath(path))
	return MediaPrefix + token, nil
}

// URL returns the media URL currently bound to slot.
func (c *Controller) URL(slot Slot) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	token, ok := c.slots[slot]
	if !ok {
		return "", false
	}
	return MediaPrefix + token, true
}

// ClearSlot releases whatever is bound to slot.
func (c *Controller) ClearSlot(slot Slot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releaseLocked(slot)
}

// Clear releases both slots.
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releaseLocked(SlotSource)
	c.releaseLocked(SlotResult)
}

// Close releases every handle and refuses further binds.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releaseLocked(SlotSource)
	c.releaseLocked(SlotResult)
	c.closed = true
}

// Live returns the number of live handles.
func (c *Controller) Live() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.files)
}

// releaseLocked expects c.mu to be held.
func (c *Controller) releaseLocked(slot Slot) {
	token, ok := c.slots[slot]
	if !ok {
		return
	}
	delete(c.files, token)
	delete(c.slots, slot)
}

func (c *Controller) lookup(token string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	path, ok := c.files[token]
	return path, ok
}

// Routes registers the media routes on r.
func (c *Controller) Routes(r chi.Router) {
	r.Get(MediaPrefix+"{token}", c.serveMedia)
	r.Head(MediaPrefix+"{token}", c.serveMedia)
}

// Handler returns a router serving bound files with range support.
func (c *Controller) Handler() http.Handler {
	r := chi.NewRouter()
	c.Routes(r)
	return r
}

func (c *Controller) serveMedia(w http.ResponseWriter, r *http.Request) {
	path, ok := c.lookup(chi.URLParam(r, "token"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			http.NotFound(w, r)
			return
		}
		c.logger.Error("failed to open preview file", "error", err)
		http.Error(w, "failed to open file", http.StatusInternalServerError)
		return
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		http.Error(w, "failed to stat file", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Accept-Ranges", "bytes")
	if ct, ok := videoTypes[strings.ToLower(filepath.Ext(path))]; ok {
		w.Header().Set("Content-Type", ct)
	}
	http.ServeContent(w, r, filepath.Base(path), stat.ModTime(), file)
}
