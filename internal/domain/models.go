package domain

// UpscaleModel is the Real-ESRGAN network name passed to the external script.
type UpscaleModel string

const (
	ModelRealESRGANx2Plus      UpscaleModel = "RealESRGAN_x2plus"
	ModelRealESRGANx4Plus      UpscaleModel = "RealESRGAN_x4plus"
	ModelRealESRGANx4PlusAnime UpscaleModel = "RealESRGAN_x4plus_anime_6B"
)

// DeriveModel maps an upscaling factor to the network used for it.
// Only "2x" selects the 2x model; every other value selects the 4x model.
func DeriveModel(factor UpscalingFactor) UpscaleModel {
	if factor == Upscale2x {
		return ModelRealESRGANx2Plus
	}
	return ModelRealESRGANx4Plus
}

// UpscaleModelOption describes one downloadable Real-ESRGAN weights file.
type UpscaleModelOption struct {
	ID          UpscaleModel `json:"id"`
	Name        string       `json:"name"`
	FileName    string       `json:"fileName"`
	URL         string       `json:"url"`
	SizeLabel   string       `json:"sizeLabel,omitempty"`
	Description string       `json:"description,omitempty"`
	Downloaded  bool         `json:"downloaded"`
	LocalPath   string       `json:"localPath,omitempty"`
}
