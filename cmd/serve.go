package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docrag/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and WebSocket API",
	Long:  `Starts the docrag server with endpoints to index, search, ask questions, reset the index and browse history, plus a WebSocket chat endpoint.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.Server.Port = servePort
	}

	idx, err := openIndex(ctx, cfg, false)
	if err != nil {
		return err
	}
	engine, err := newEngine(ctx, cfg, idx)
	if err != nil {
		return err
	}
	hist, closeHist, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer closeHist()

	srv := server.New(server.Config{
		Port:       cfg.Server.Port,
		AllowAll:   cfg.Server.AllowAllOrigins,
		Collection: cfg.Collection,
		TopK:       cfg.Retrieval.TopK,
		EnableOCR:  cfg.OCR.Enabled,
		UseGPU:     cfg.OCR.UseGPU,
	}, idx, newOrchestrator(cfg, idx), engine, hist)

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown")
		}
	}()

	log.Info().Str("version", Version).Int("items", idx.Count()).Str("db", cfg.DBPath).Msg("starting docrag server")
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
