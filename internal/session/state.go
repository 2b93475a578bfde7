// Package session holds the per-window application state: the selected
// input, the chosen save location, the active settings and whether the
// enhance trigger is enabled.
package session

import (
	"sync"

	"video-enhancer/internal/domain"
)

// Snapshot is a copy of the state handed to the frontend.
type Snapshot struct {
	CurrentFile    string                     `json:"currentFile"`
	OutputPath     string                     `json:"outputPath"`
	Settings       domain.EnhancementSettings `json:"settings"`
	TriggerEnabled bool                       `json:"triggerEnabled"`
	SourceURL      string                     `json:"sourceUrl,omitempty"`
	ResultURL      string                     `json:"resultUrl,omitempty"`
}

// State is safe for concurrent use.
type State struct {
	mu             sync.RWMutex
	currentFile    string
	outputPath     string
	settings       domain.EnhancementSettings
	triggerEnabled bool
}

// New returns state with the given settings and the trigger enabled.
func New(settings domain.EnhancementSettings) *State {
	return &State{settings: settings.Normalize(), triggerEnabled: true}
}

func (s *State) CurrentFile() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentFile
}

// SetCurrentFile selects a new input. The previous save location no longer applies.
func (s *State) SetCurrentFile(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentFile = path
	s.outputPath = ""
}

func (s *State) OutputPath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.outputPath
}

func (s *State) SetOutputPath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outputPath = path
}

func (s *State) Settings() domain.EnhancementSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// SetSettings stores a normalized copy and returns it.
func (s *State) SetSettings(settings domain.EnhancementSettings) domain.EnhancementSettings {
	normalized := settings.Normalize()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = normalized
	return normalized
}

func (s *State) TriggerEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.triggerEnabled
}

// TryDisableTrigger disables the trigger, reporting false if it already was.
func (s *State) TryDisableTrigger() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.triggerEnabled {
		return false
	}
	s.triggerEnabled = false
	return true
}

func (s *State) EnableTrigger() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.triggerEnabled = true
}

// Snapshot copies the state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		CurrentFile:    s.currentFile,
		OutputPath:     s.outputPath,
		Settings:       s.settings,
		TriggerEnabled: s.triggerEnabled,
	}
}
