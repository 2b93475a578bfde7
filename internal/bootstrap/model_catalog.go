package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"video-enhancer/internal/config"
	"video-enhancer/internal/domain"
)

var upscaleModelCatalog = []domain.UpscaleModelOption{
	{
		ID:          domain.ModelRealESRGANx2Plus,
		Name:        "RealESRGAN x2plus",
		FileName:    "RealESRGAN_x2plus.pth",
		URL:         "https://github.com/xinntao/Real-ESRGAN/releases/download/v0.2.1/RealESRGAN_x2plus.pth",
		SizeLabel:   "~64 MB",
		Description: "General 2x upscaling. Used for the 2x setting.",
	},
	{
		ID:          domain.ModelRealESRGANx4Plus,
		Name:        "RealESRGAN x4plus",
		FileName:    "RealESRGAN_x4plus.pth",
		URL:         "https://github.com/xinntao/Real-ESRGAN/releases/download/v0.1.0/RealESRGAN_x4plus.pth",
		SizeLabel:   "~64 MB",
		Description: "General 4x upscaling. Used for the 4x setting.",
	},
	{
		ID:          domain.ModelRealESRGANx4PlusAnime,
		Name:        "RealESRGAN x4plus anime",
		FileName:    "RealESRGAN_x4plus_anime_6B.pth",
		URL:         "https://github.com/xinntao/Real-ESRGAN/releases/download/v0.2.2.4/RealESRGAN_x4plus_anime_6B.pth",
		SizeLabel:   "~18 MB",
		Description: "Smaller 4x model tuned for animation.",
	},
}

// GetUpscaleModels returns the Real-ESRGAN weights catalog with download state.
func (a *App) GetUpscaleModels() []domain.UpscaleModelOption {
	a.mu.Lock()
	root := a.Config.ProjectRoot
	a.mu.Unlock()

	models := make([]domain.UpscaleModelOption, len(upscaleModelCatalog))
	copy(models, upscaleModelCatalog)
	markDownloadedModels(models, config.WeightsDir(root))
	return models
}

// DownloadUpscaleModel downloads one weights file into the project's weights directory.
func (a *App) DownloadUpscaleModel(modelID string) (domain.UpscaleModelOption, error) {
	id := strings.TrimSpace(modelID)
	if id == "" {
		return domain.UpscaleModelOption{}, fmt.Errorf("model id is required")
	}

	a.mu.Lock()
	cfg := a.Config
	a.mu.Unlock()

	model, err := downloadWeights(cfg.ProjectRoot, domain.UpscaleModel(id))
	if err != nil {
		return domain.UpscaleModelOption{}, err
	}
	a.refreshDiagnostics(cfg)
	return model, nil
}

func getUpscaleModelByID(id domain.UpscaleModel) (domain.UpscaleModelOption, bool) {
	for _, model := range upscaleModelCatalog {
		if model.ID == id {
			return model, true
		}
	}
	return domain.UpscaleModelOption{}, false
}

// downloadWeights fetches one catalog entry into <root>/weights.
func downloadWeights(root string, id domain.UpscaleModel) (domain.UpscaleModelOption, error) {
	model, found := getUpscaleModelByID(id)
	if !found {
		return domain.UpscaleModelOption{}, fmt.Errorf("unknown model id: %s", id)
	}
	if strings.TrimSpace(root) == "" {
		return domain.UpscaleModelOption{}, fmt.Errorf("project root is not configured")
	}

	targetPath := filepath.Join(config.WeightsDir(root), model.FileName)
	if err := downloadURLToFile(targetPath, model.URL, modelDownloadTimeout); err != nil {
		return domain.UpscaleModelOption{}, fmt.Errorf("download model %s: %w", model.Name, err)
	}

	model.Downloaded = true
	model.LocalPath = targetPath
	return model, nil
}

func markDownloadedModels(models []domain.UpscaleModelOption, weightsDir string) {
	for i := range models {
		candidate := filepath.Join(weightsDir, models[i].FileName)
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		models[i].Downloaded = true
		models[i].LocalPath = candidate
	}
}
