package main

import (
	"net/http"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/i474232898/cityweather/internal/config"
	"github.com/i474232898/cityweather/internal/upstream"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "cityweather",
		Short:        "Browse cities and their current weather",
		Long:         "cityweather lists cities page by page from a public dataset and shows the current weather of a selected city.",
		SilenceUsage: true,
	}
	cmd.AddCommand(newServeCmd(), newBrowseCmd())
	return cmd
}

// newUpstreamClient builds the shared outbound client for one upstream API.
func newUpstreamClient(cfg *config.AppConfig, name string, logger zerolog.Logger) *upstream.Client {
	return upstream.NewClient(upstream.Config{
		Name:       name,
		HTTPClient: &http.Client{Timeout: cfg.HTTPTimeout},
		Delay:      cfg.FetchDelay,
		RateLimit:  cfg.UpstreamRateLimit,
		RateBurst:  cfg.UpstreamRateBurst,
		Logger:     logger,
	})
}
