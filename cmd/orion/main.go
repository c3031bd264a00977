package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/lipgloss"

	"github.com/deivid22srk/Orion-Downloader/internal/common"
	"github.com/deivid22srk/Orion-Downloader/internal/config"
	"github.com/deivid22srk/Orion-Downloader/internal/engine"
	"github.com/deivid22srk/Orion-Downloader/internal/logger"
)

var (
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8aadf4")).Bold(true)
	speedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6da95"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ed8796")).Bold(true)
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "orion -url http://host/file -conn N [-out path] [-debug]\n")
		flag.PrintDefaults()
	}

	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logDir := filepath.Join(xdg.ConfigHome, "orion")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "could not create log directory: %v\n", err)
		os.Exit(1)
	}

	if err := logger.InitLogging(cfg.Debug, filepath.Join(logDir, "orion.log")); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to initialize logging: %v\n", err)
	}
	defer logger.Close()

	if cfg.URL == "" {
		fmt.Fprintln(os.Stderr, errStyle.Render("no URL given, pass -url http://host/file"))
		os.Exit(1)
	}

	outputPath := cfg.OutputPath
	if info, statErr := os.Stat(outputPath); statErr == nil && info.IsDir() {
		outputPath = filepath.Join(outputPath, filepath.Base(cfg.URL))
	}

	eng := engine.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Infof("received interrupt, cancelling download")
		fmt.Println()
		fmt.Println(errStyle.Render("cancelling..."))
		eng.Cancel()
		cancel()
	}()

	done := make(chan struct{})

	onProgress := func(p common.Progress) {
		printProgress(p)
	}

	if !eng.Start(cfg.URL, outputPath, cfg.Connections, onProgress) {
		fmt.Fprintln(os.Stderr, errStyle.Render("failed to start download, check the log for details"))
		os.Exit(1)
	}

	go func() {
		for eng.IsDownloading() {
			time.Sleep(200 * time.Millisecond)
		}

		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		<-done
	}

	fmt.Println()
	logger.Infof("orion exiting")
}

func printProgress(p common.Progress) {
	pct := 0.0
	if p.TotalBytes > 0 {
		pct = float64(p.DownloadedBytes) / float64(p.TotalBytes) * 100
	}

	fmt.Printf("\r%s %6.2f%%  %s/s  conns=%d",
		labelStyle.Render(p.Status.String()),
		pct,
		speedStyle.Render(humanBytes(p.SpeedBps)),
		p.ActiveConnections,
	)
}

func humanBytes(n int64) string {
	const unit = 1024

	if n < unit {
		return fmt.Sprintf("%dB", n)
	}

	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f%ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
