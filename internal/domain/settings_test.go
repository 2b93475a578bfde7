package domain

import "testing"

// TestDeriveModel verifies only 2x selects the 2x network.
func TestDeriveModel(t *testing.T) {
	cases := map[UpscalingFactor]UpscaleModel{
		Upscale2x: ModelRealESRGANx2Plus,
		Upscale4x: ModelRealESRGANx4Plus,
		"3x":      ModelRealESRGANx4Plus,
		"":        ModelRealESRGANx4Plus,
		"2X":      ModelRealESRGANx4Plus,
	}
	for factor, want := range cases {
		if got := DeriveModel(factor); got != want {
			t.Fatalf("DeriveModel(%q) = %s, want %s", factor, got, want)
		}
	}
}

// TestDeriveModelAcrossSettings checks the mapping ignores every other setting.
func TestDeriveModelAcrossSettings(t *testing.T) {
	for _, factor := range []UpscalingFactor{Upscale2x, Upscale4x} {
		for _, nr := range []NoiseReduction{NoiseReductionLow, NoiseReductionMedium, NoiseReductionHigh} {
			for _, format := range OutputFormats() {
				for _, sharpening := range []int{0, 50, 100} {
					s := EnhancementSettings{
						UpscalingFactor: factor,
						Sharpening:      sharpening,
						NoiseReduction:  nr,
						FrameRate:       30,
						OutputFormat:    format,
					}
					if err := s.Validate(); err != nil {
						t.Fatalf("Validate(%+v) = %v", s, err)
					}
					got := DeriveModel(s.UpscalingFactor)
					if (got == ModelRealESRGANx2Plus) != (factor == Upscale2x) {
						t.Fatalf("DeriveModel for %+v = %s", s, got)
					}
				}
			}
		}
	}
}

// TestDefaultEnhancementSettings checks startup values.
func TestDefaultEnhancementSettings(t *testing.T) {
	s := DefaultEnhancementSettings()
	want := EnhancementSettings{
		UpscalingFactor: Upscale2x,
		Sharpening:      50,
		NoiseReduction:  NoiseReductionLow,
		FrameRate:       30,
		OutputFormat:    OutputFormatMP4,
	}
	if s != want {
		t.Fatalf("defaults = %+v, want %+v", s, want)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

// TestNormalizeFillsAndClamps checks unknown values fall back to defaults.
func TestNormalizeFillsAndClamps(t *testing.T) {
	got := EnhancementSettings{
		UpscalingFactor: " 4X ",
		Sharpening:      -5,
		NoiseReduction:  "extreme",
		FrameRate:       0,
		OutputFormat:    "mkv",
	}.Normalize()

	want := EnhancementSettings{
		UpscalingFactor: Upscale4x,
		Sharpening:      0,
		NoiseReduction:  NoiseReductionLow,
		FrameRate:       30,
		OutputFormat:    OutputFormatMKV,
	}
	if got != want {
		t.Fatalf("Normalize = %+v, want %+v", got, want)
	}

	if s := (EnhancementSettings{Sharpening: 150}).Normalize(); s.Sharpening != 100 {
		t.Fatalf("sharpening = %d, want 100", s.Sharpening)
	}
}

// TestValidateRejectsOutOfRange checks validation messages per field.
func TestValidateRejectsOutOfRange(t *testing.T) {
	base := DefaultEnhancementSettings()
	mutations := []func(*EnhancementSettings){
		func(s *EnhancementSettings) { s.UpscalingFactor = "8x" },
		func(s *EnhancementSettings) { s.Sharpening = 101 },
		func(s *EnhancementSettings) { s.NoiseReduction = "none" },
		func(s *EnhancementSettings) { s.FrameRate = -1 },
		func(s *EnhancementSettings) { s.OutputFormat = "GIF" },
	}
	for i, mutate := range mutations {
		s := base
		mutate(&s)
		if err := s.Validate(); err == nil {
			t.Fatalf("mutation %d: expected validation error for %+v", i, s)
		}
	}
}

// TestOutputFormatExtension checks lower-case extensions.
func TestOutputFormatExtension(t *testing.T) {
	if got := OutputFormatWEBM.Extension(); got != "webm" {
		t.Fatalf("extension = %q, want webm", got)
	}
}
