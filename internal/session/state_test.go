package session

import (
	"sync"
	"testing"

	"video-enhancer/internal/domain"
)

// TestNewNormalizesSettings verifies state always starts fully defined.
func TestNewNormalizesSettings(t *testing.T) {
	s := New(domain.EnhancementSettings{Sharpening: 500})
	got := s.Settings()
	if got.Sharpening != 100 || got.UpscalingFactor != domain.Upscale2x || got.OutputFormat != domain.OutputFormatMP4 {
		t.Fatalf("unexpected settings: %+v", got)
	}
	if !s.TriggerEnabled() {
		t.Fatal("expected trigger enabled at start")
	}
}

// TestSetCurrentFileClearsOutputPath verifies a new input drops the old save location.
func TestSetCurrentFileClearsOutputPath(t *testing.T) {
	s := New(domain.DefaultEnhancementSettings())
	s.SetCurrentFile("/v/a.mp4")
	s.SetOutputPath("/saves/a_enhanced.mp4")
	s.SetCurrentFile("/v/b.mp4")

	snap := s.Snapshot()
	if snap.CurrentFile != "/v/b.mp4" || snap.OutputPath != "" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

// TestTryDisableTriggerIsExclusive verifies only one caller wins the trigger.
func TestTryDisableTriggerIsExclusive(t *testing.T) {
	s := New(domain.DefaultEnhancementSettings())

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.TryDisableTrigger() {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
	s.EnableTrigger()
	if !s.TriggerEnabled() {
		t.Fatal("expected trigger re-enabled")
	}
}
