// Command enhance runs one Real-ESRGAN enhancement from the terminal using
// the same settings, orchestration and history as the desktop app.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/manifoldco/promptui"
	"github.com/schollz/progressbar/v3"

	"video-enhancer/internal/config"
	"video-enhancer/internal/domain"
	"video-enhancer/internal/enhance"
	"video-enhancer/internal/history"
	"video-enhancer/internal/logging"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)
)

func main() {
	input := flag.String("i", "", "input video")
	outputDir := flag.String("o", "", "output directory (defaults to the configured results folder)")
	factor := flag.String("factor", "", "upscaling factor: 2x or 4x")
	flag.Parse()

	config.LoadDotEnv(".env", filepath.Join(config.UserDir(), ".env"))
	cfg, err := config.NewJSONStore(config.SettingsPath()).Load()
	if err != nil {
		fail("load settings: %v", err)
	}
	if cfg, err = config.ApplyEnv(cfg, os.Getenv); err != nil {
		fail("apply environment: %v", err)
	}
	logger := logging.NewLogger(cfg.LogLevel)

	fmt.Println(titleStyle.Render("Video Enhancer"))

	source := strings.TrimSpace(*input)
	if source == "" {
		if source, err = promptInput(); err != nil {
			fail("%v", err)
		}
	}

	settings := cfg.Settings
	switch {
	case *factor != "":
		settings.UpscalingFactor = domain.UpscalingFactor(*factor)
	case *input == "":
		if settings.UpscalingFactor, err = promptFactor(settings.UpscalingFactor); err != nil {
			fail("%v", err)
		}
	}
	settings = settings.Normalize()

	dir := cfg.OutputDir
	if strings.TrimSpace(*outputDir) != "" {
		dir = *outputDir
	}

	job := enhance.NewJob(source, dir, settings)
	printField("Input", source)
	printField("Model", string(job.Model))
	printField("Output", dir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bar := progressbar.NewOptions(100,
		progressbar.OptionSetDescription("Enhancing"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "▐",
			BarEnd:        "▌",
		}),
		progressbar.OptionSetWidth(50),
		progressbar.OptionSetRenderBlankState(true),
	)

	orchestrator := enhance.NewOrchestrator(enhance.Config{
		PythonPath:  cfg.PythonPath,
		ScriptPath:  cfg.ScriptPath,
		ProjectRoot: cfg.ProjectRoot,
		Logger:      logger,
	})
	result := orchestrator.Submit(ctx, job, enhance.Hooks{
		OnProgress: func(cp enhance.Checkpoint) {
			bar.Describe(cp.Name)
			_ = bar.Set(cp.Percent)
		},
	})
	_ = bar.Finish()
	fmt.Println()

	if !result.Success {
		if result.Cancelled {
			fmt.Println(errorStyle.Render("Enhancement cancelled"))
			os.Exit(130)
		}
		fail("%s: %s", result.ErrorKind, result.ErrorMessage)
	}

	if cfg.PersistHistory {
		if err := recordHistory(ctx, job, result, logger); err != nil {
			fmt.Println(errorStyle.Render(fmt.Sprintf("history not saved: %v", err)))
		}
	}

	fmt.Println(successStyle.Render("Enhancement complete"))
	printField("Saved to", result.OutputFile)
}

func promptInput() (string, error) {
	prompt := promptui.Prompt{
		Label: "Video file",
		Validate: func(value string) error {
			path := strings.TrimSpace(value)
			if path == "" {
				return errors.New("path cannot be empty")
			}
			info, err := os.Stat(path)
			if err != nil {
				return errors.New("file does not exist")
			}
			if info.IsDir() {
				return errors.New("path is a directory")
			}
			return nil
		},
	}
	value, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("read input path: %w", err)
	}
	return filepath.Abs(strings.TrimSpace(value))
}

func promptFactor(current domain.UpscalingFactor) (domain.UpscalingFactor, error) {
	items := []domain.UpscalingFactor{domain.Upscale2x, domain.Upscale4x}
	cursor := 0
	if current == domain.Upscale4x {
		cursor = 1
	}
	sel := promptui.Select{
		Label:     "Upscaling factor",
		Items:     items,
		CursorPos: cursor,
	}
	idx, _, err := sel.Run()
	if err != nil {
		return "", fmt.Errorf("select upscaling factor: %w", err)
	}
	return items[idx], nil
}

// recordHistory appends the run to the shared history database.
func recordHistory(ctx context.Context, job domain.EnhancementJob, result domain.JobResult, logger *slog.Logger) error {
	store, err := history.OpenSQLite(config.HistoryDBPath(), logger)
	if err != nil {
		return err
	}
	defer store.Close()

	ledger := history.NewLedger(store, logger)
	if err := ledger.Load(ctx); err != nil {
		return err
	}
	entry := ledger.NewEntry(job.SourcePath, "", result.OutputFile, job.Settings)
	if err := ledger.Record(ctx, entry); err != nil {
		return err
	}
	logger.Info("history entry saved", "id", entry.ID)
	return nil
}

func printField(label, value string) {
	fmt.Printf("%s %s\n", labelStyle.Render(label+":"), value)
}

func fail(format string, args ...any) {
	fmt.Println(errorStyle.Render(fmt.Sprintf(format, args...)))
	os.Exit(1)
}
