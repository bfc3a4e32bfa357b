package main

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/i474232898/cityweather/internal/cities"
	"github.com/i474232898/cityweather/internal/config"
	"github.com/i474232898/cityweather/internal/tui"
	"github.com/i474232898/cityweather/internal/weather/providers"
)

func newBrowseCmd() *cobra.Command {
	var variant string

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse cities interactively and open their weather",
		Example: `  cityweather browse
  cityweather browse --variant list`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cmd.Flags().Changed("variant") {
				if err := cfg.ApplyVariant(variant); err != nil {
					return err
				}
			}
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return errors.New("browse needs an interactive terminal; use serve for JSON output")
			}
			return runBrowse(cmd, cfg)
		},
	}
	cmd.Flags().StringVar(&variant, "variant", cities.VariantTable, "list preset: table or list (overrides LIST_VARIANT)")
	return cmd
}

func runBrowse(cmd *cobra.Command, cfg *config.AppConfig) error {
	// The terminal belongs to the UI, so logs go to LOG_FILE or nowhere.
	w, closeLog, err := config.OpenLogFile(cfg.LogFile)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = closeLog() }()
	log := config.NewLogger(cfg.LogLevel, w)

	app := tui.NewApp(tui.Config{
		Cities: cities.NewOpenDataSoftFetcher(
			newUpstreamClient(cfg, "cities", log), cfg.CitiesBaseURL, cfg.List.IncludeTimezone),
		Weather: providers.NewOpenWeatherProvider(
			newUpstreamClient(cfg, "openweather", log), cfg.WeatherBaseURL, cfg.OpenWeatherAPIKey),
		Options: cfg.List,
		Variant: cfg.Variant,
		Logger:  log,
	})

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	final, err := p.Run()
	// Quitting leaves the mounted view open; it is closed here on every exit path.
	if m, ok := final.(tui.App); ok {
		m.Close()
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
