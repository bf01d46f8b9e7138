package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aluiziolira/go-scrape-listings/config"
	"github.com/aluiziolira/go-scrape-listings/render"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	dataDefault := config.DefaultConfig().OutputFile
	if value, ok := config.EnvString("GALLERY_DATA"); ok {
		dataDefault = value
	}
	intervalDefault := render.DefaultAutoInterval
	if value, ok, err := config.EnvDuration("GALLERY_INTERVAL"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid GALLERY_INTERVAL: %v\n", err)
		os.Exit(1)
	} else if ok {
		intervalDefault = value
	}

	dataFile := flag.String("data", dataDefault, "Artifact produced by the scraper")
	outFile := flag.String("out", "index.html", "Static gallery output path")
	serveAddr := flag.String("serve", "", "Serve the gallery on this address instead of writing a file (e.g. :8080)")
	interval := flag.Duration("interval", intervalDefault, "Carousel auto-advance interval")
	startSlide := flag.Int("start-slide", 0, "Slide each carousel opens on (negative counts from the end)")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	logger := newLogger(*verbose)
	slog.SetDefault(logger)

	opts := render.DefaultOptions()
	opts.AutoInterval = *interval
	opts.StartSlide = *startSlide
	r, err := render.New(opts)
	if err != nil {
		slog.Error("initialising renderer", slog.Any("error", err))
		os.Exit(1)
	}
	r.Metrics = render.NewMetrics()

	if *serveAddr != "" {
		if err := serve(*serveAddr, r, *dataFile); err != nil {
			slog.Error("gallery server failed", slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	if err := writeStatic(r, *dataFile, *outFile); err != nil {
		slog.Error("writing gallery", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("gallery written", slog.String("data", *dataFile), slog.String("out", *outFile))
}

func writeStatic(r *render.Renderer, dataFile, outFile string) error {
	var buf bytes.Buffer
	if err := r.RenderFile(&buf, dataFile); err != nil {
		return err
	}
	if dir := filepath.Dir(outFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if err := os.WriteFile(outFile, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outFile, err)
	}
	return nil
}

func serve(addr string, r *render.Renderer, dataFile string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:              addr,
		Handler:           render.NewHandler(r, dataFile),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	slog.Info("serving gallery", slog.String("addr", addr), slog.String("data", dataFile))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if isTerminal(os.Stdout) {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
