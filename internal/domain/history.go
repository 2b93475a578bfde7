package domain

import "time"

// DefaultLocationLabel is recorded when the user never picked a save location.
const DefaultLocationLabel = "Default location"

// HistoryEntry records one successfully completed enhancement job.
type HistoryEntry struct {
	ID           int64               `json:"id"`
	OriginalName string              `json:"originalName"`
	EnhancedPath string              `json:"enhancedPath"`
	OutputFile   string              `json:"outputFile,omitempty"`
	Timestamp    string              `json:"timestamp"`
	CreatedAt    time.Time           `json:"createdAt"`
	Settings     EnhancementSettings `json:"settings"`
}
