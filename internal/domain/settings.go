package domain

import (
	"fmt"
	"strings"
)

// UpscalingFactor selects the resolution multiplier.
type UpscalingFactor string

const (
	Upscale2x UpscalingFactor = "2x"
	Upscale4x UpscalingFactor = "4x"
)

// NoiseReduction selects the denoise strength.
type NoiseReduction string

const (
	NoiseReductionLow    NoiseReduction = "low"
	NoiseReductionMedium NoiseReduction = "medium"
	NoiseReductionHigh   NoiseReduction = "high"
)

// OutputFormat is the container of the enhanced video.
type OutputFormat string

const (
	OutputFormatMP4  OutputFormat = "MP4"
	OutputFormatAVI  OutputFormat = "AVI"
	OutputFormatMOV  OutputFormat = "MOV"
	OutputFormatMKV  OutputFormat = "MKV"
	OutputFormatWEBM OutputFormat = "WEBM"
)

const (
	DefaultSharpening = 50
	DefaultFrameRate  = 30
)

// Extension returns the lower-case file extension without a dot.
func (f OutputFormat) Extension() string {
	return strings.ToLower(string(f))
}

// EnhancementSettings is the current enhancement configuration.
type EnhancementSettings struct {
	UpscalingFactor UpscalingFactor `json:"upscalingFactor"`
	Sharpening      int             `json:"sharpening"`
	NoiseReduction  NoiseReduction  `json:"noiseReduction"`
	FrameRate       int             `json:"frameRate"`
	OutputFormat    OutputFormat    `json:"outputFormat"`
}

// DefaultEnhancementSettings returns the startup configuration.
func DefaultEnhancementSettings() EnhancementSettings {
	return EnhancementSettings{
		UpscalingFactor: Upscale2x,
		Sharpening:      DefaultSharpening,
		NoiseReduction:  NoiseReductionLow,
		FrameRate:       DefaultFrameRate,
		OutputFormat:    OutputFormatMP4,
	}
}

// Normalize returns a fully defined copy: unknown enums fall back to defaults
// and sharpening is clamped to 0..100.
func (s EnhancementSettings) Normalize() EnhancementSettings {
	def := DefaultEnhancementSettings()

	switch UpscalingFactor(strings.ToLower(strings.TrimSpace(string(s.UpscalingFactor)))) {
	case Upscale2x:
		s.UpscalingFactor = Upscale2x
	case Upscale4x:
		s.UpscalingFactor = Upscale4x
	default:
		s.UpscalingFactor = def.UpscalingFactor
	}

	if s.Sharpening < 0 {
		s.Sharpening = 0
	}
	if s.Sharpening > 100 {
		s.Sharpening = 100
	}

	nr := NoiseReduction(strings.ToLower(strings.TrimSpace(string(s.NoiseReduction))))
	if !isKnownNoiseReduction(nr) {
		nr = def.NoiseReduction
	}
	s.NoiseReduction = nr

	if s.FrameRate <= 0 {
		s.FrameRate = def.FrameRate
	}

	format := OutputFormat(strings.ToUpper(strings.TrimSpace(string(s.OutputFormat))))
	if !isKnownOutputFormat(format) {
		format = def.OutputFormat
	}
	s.OutputFormat = format

	return s
}

// Validate reports the first field outside its allowed range.
func (s EnhancementSettings) Validate() error {
	if s.UpscalingFactor != Upscale2x && s.UpscalingFactor != Upscale4x {
		return fmt.Errorf("invalid upscaling factor: %q", s.UpscalingFactor)
	}
	if s.Sharpening < 0 || s.Sharpening > 100 {
		return fmt.Errorf("sharpening must be between 0 and 100, got %d", s.Sharpening)
	}
	if !isKnownNoiseReduction(s.NoiseReduction) {
		return fmt.Errorf("invalid noise reduction: %q", s.NoiseReduction)
	}
	if s.FrameRate <= 0 {
		return fmt.Errorf("frame rate must be positive, got %d", s.FrameRate)
	}
	if !isKnownOutputFormat(s.OutputFormat) {
		return fmt.Errorf("invalid output format: %q", s.OutputFormat)
	}
	return nil
}

// OutputFormats lists the selectable containers in display order.
func OutputFormats() []OutputFormat {
	return []OutputFormat{OutputFormatMP4, OutputFormatAVI, OutputFormatMOV, OutputFormatMKV, OutputFormatWEBM}
}

func isKnownNoiseReduction(nr NoiseReduction) bool {
	switch nr {
	case NoiseReductionLow, NoiseReductionMedium, NoiseReductionHigh:
		return true
	default:
		return false
	}
}

func isKnownOutputFormat(f OutputFormat) bool {
	for _, known := range OutputFormats() {
		if f == known {
			return true
		}
	}
	return false
}
