package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/alejandrodnm/resetpoint/internal/adapters/httpapi"
	"github.com/alejandrodnm/resetpoint/internal/adapters/speech"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (POST /analyze, POST /speak, /health, /metrics)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, g)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			setupLogger(cfg.Log, os.Stdout)

			ctx := cmd.Context()
			svc, cleanup, err := buildService(ctx, cfg, true)
			if err != nil {
				slog.Error("failed to build analysis service", "err", err)
				return err
			}
			defer cleanup()

			voice := speech.NewClient(speech.Config{
				BaseURL:  cfg.Speech.BaseURL,
				APIKey:   cfg.Speech.APIKey,
				VoiceID:  cfg.Speech.VoiceID,
				Model:    cfg.Speech.Model,
				MaxChars: cfg.Speech.MaxChars,
				Timeout:  cfg.Speech.Timeout,
			})
			if !voice.Configured() {
				slog.Warn("speech disabled: missing api key or voice id")
			}

			server := httpapi.NewServer(httpapi.Config{
				Addr:           cfg.Server.Addr,
				AllowedOrigins: cfg.Server.AllowedOrigins,
				MaxUploadBytes: cfg.MaxUploadBytes(),
				ReadTimeout:    cfg.Server.ReadTimeout,
				WriteTimeout:   cfg.Server.WriteTimeout,
				IdleTimeout:    httpapi.DefaultConfig().IdleTimeout,
			}, svc, voice, httpapi.NewMetrics())

			slog.Info("resetpoint starting", "config", g.configPath, "addr", cfg.Server.Addr)
			if err := server.Run(ctx); err != nil {
				slog.Error("server exited with error", "err", err)
				return err
			}
			slog.Info("resetpoint stopped cleanly")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}
