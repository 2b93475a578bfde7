package jobs

import (
	"errors"
	"fmt"
	"sync"

	"video-enhancer/internal/domain"
)

// ErrJobAlreadyRunning is returned when starting a second active job.
var ErrJobAlreadyRunning = errors.New("enhancement job already running")

// ErrNoRunningJob is returned when cancel is requested for idle state.
var ErrNoRunningJob = errors.New("no running job")

// Manager tracks the single allowed in-flight job and its transitions.
type Manager struct {
	mu      sync.RWMutex
	current domain.Job
}

// NewManager creates a manager in idle state.
func NewManager() *Manager {
	return &Manager{
		current: domain.Job{
			Status: domain.JobStatusIdle,
		},
	}
}

// Start creates a new job and moves it to validating state.
func (m *Manager) Start(jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if IsActive(m.current.Status) {
		return ErrJobAlreadyRunning
	}

	m.current = domain.Job{
		ID:     jobID,
		Status: domain.JobStatusValidating,
	}
	return nil
}

// Transition validates and applies state transitions for current job.
func (m *Manager) Transition(status domain.JobStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.ID == "" && status != domain.JobStatusIdle {
		return fmt.Errorf("cannot transition without an active job")
	}
	if status == m.current.Status {
		return nil
	}
	if !isValidTransition(m.current.Status, status) {
		return fmt.Errorf("invalid transition: %s -> %s", m.current.Status, status)
	}

	m.current.Status = status
	if status == domain.JobStatusSucceeded {
		m.current.Progress = 100
	}
	return nil
}

// SetProgress records the latest checkpoint percentage for the active job.
// Progress never moves backwards.
func (m *Manager) SetProgress(percent int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !IsActive(m.current.Status) {
		return
	}
	if percent > m.current.Progress {
		m.current.Progress = percent
	}
}

// Current returns a snapshot of the current job.
func (m *Manager) Current() domain.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// IsRunning reports whether the current state is an active stage.
func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return IsActive(m.current.Status)
}

// Cancel moves an active job to cancelled state.
func (m *Manager) Cancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !IsActive(m.current.Status) {
		return ErrNoRunningJob
	}
	m.current.Status = domain.JobStatusCancelled
	return nil
}

// IsActive checks if a status represents an in-flight job.
func IsActive(status domain.JobStatus) bool {
	switch status {
	case domain.JobStatusValidating, domain.JobStatusRunning, domain.JobStatusVerifying:
		return true
	default:
		return false
	}
}

// isValidTransition enforces the allowed job state machine edges.
func isValidTransition(from, to domain.JobStatus) bool {
	switch from {
	case domain.JobStatusIdle:
		return to == domain.JobStatusValidating
	case domain.JobStatusValidating:
		return to == domain.JobStatusRunning || to == domain.JobStatusFailed || to == domain.JobStatusCancelled
	case domain.JobStatusRunning:
		return to == domain.JobStatusVerifying || to == domain.JobStatusFailed || to == domain.JobStatusCancelled
	case domain.JobStatusVerifying:
		return to == domain.JobStatusSucceeded || to == domain.JobStatusFailed || to == domain.JobStatusCancelled
	case domain.JobStatusSucceeded, domain.JobStatusFailed, domain.JobStatusCancelled:
		return to == domain.JobStatusValidating || to == domain.JobStatusIdle
	default:
		return false
	}
}
