// Package dialogs wraps the native open and save dialogs.
package dialogs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"video-enhancer/internal/domain"
	"video-enhancer/internal/logging"
)

// ErrNoRuntime is returned when a dialog is requested before the window exists.
var ErrNoRuntime = errors.New("runtime context is not initialized")

var videoFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "Video files",
		Pattern:     "*.mp4;*.avi;*.mov;*.mkv;*.webm",
	},
}

// Runtime is the native dialog surface.
type Runtime interface {
	OpenFile(ctx context.Context, opts wailsruntime.OpenDialogOptions) (string, error)
	SaveFile(ctx context.Context, opts wailsruntime.SaveDialogOptions) (string, error)
}

type wailsDialogs struct{}

func (wailsDialogs) OpenFile(ctx context.Context, opts wailsruntime.OpenDialogOptions) (string, error) {
	return wailsruntime.OpenFileDialog(ctx, opts)
}

func (wailsDialogs) SaveFile(ctx context.Context, opts wailsruntime.SaveDialogOptions) (string, error) {
	return wailsruntime.SaveFileDialog(ctx, opts)
}

// Adapter turns dialog results into explicit (path, ok) pairs. ok is false
// when the user cancelled. Paths are never checked for existence.
type Adapter struct {
	rt     Runtime
	logger *slog.Logger
}

// New returns an adapter backed by the Wails runtime.
func New(logger *slog.Logger) *Adapter {
	return NewWithRuntime(wailsDialogs{}, logger)
}

// NewWithRuntime returns an adapter backed by rt.
func NewWithRuntime(rt Runtime, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Adapter{rt: rt, logger: logging.WithComponent(logger, "dialogs")}
}

// PickInputVideo asks the user for a source video.
func (a *Adapter) PickInputVideo(ctx context.Context) (string, bool, error) {
	return a.open(ctx, wailsruntime.OpenDialogOptions{
		Title:   "Select video",
		Filters: videoFilter,
	})
}

// PickSaveLocation asks where the enhanced video should be saved.
func (a *Adapter) PickSaveLocation(ctx context.Context, suggestedName string, format domain.OutputFormat) (string, bool, error) {
	if ctx == nil {
		return "", false, ErrNoRuntime
	}
	ext := format.Extension()
	path, err := a.rt.SaveFile(ctx, wailsruntime.SaveDialogOptions{
		Title:           "Save enhanced video",
		DefaultFilename: suggestedName,
		Filters: []wailsruntime.FileFilter{
			{DisplayName: strings.ToUpper(ext) + " video", Pattern: "*." + ext},
		},
	})
	if err != nil {
		return "", false, fmt.Errorf("save dialog: %w", err)
	}
	return result(path)
}

// ResolveFullPath turns a bare file name into a full path. Absolute names
// are returned as-is; otherwise the open dialog is shown with the name pre-filled.
func (a *Adapter) ResolveFullPath(ctx context.Context, name string) (string, bool, error) {
	name = strings.TrimSpace(name)
	if name != "" && filepath.IsAbs(name) {
		return name, true, nil
	}
	return a.open(ctx, wailsruntime.OpenDialogOptions{
		Title:           "Locate video",
		DefaultFilename: name,
		Filters:         videoFilter,
	})
}

func (a *Adapter) open(ctx context.Context, opts wailsruntime.OpenDialogOptions) (string, bool, error) {
	if ctx == nil {
		return "", false, ErrNoRuntime
	}
	path, err := a.rt.OpenFile(ctx, opts)
	if err != nil {
		return "", false, fmt.Errorf("open dialog: %w", err)
	}
	return result(path)
}

func result(path string) (string, bool, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", false, nil
	}
	return path, true, nil
}

// SuggestedSaveName returns "<base>_enhanced.<ext>" for source, or
// "enhanced_video.<ext>" when there is no source.
func SuggestedSaveName(source string, format domain.OutputFormat) string {
	ext := format.Extension()
	if strings.TrimSpace(source) == "" {
		return "enhanced_video." + ext
	}
	base := filepath.Base(source)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return base + "_enhanced." + ext
}
