package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kpauljoseph/printdrain/internal/config"
	"github.com/kpauljoseph/printdrain/internal/printer"
	"github.com/kpauljoseph/printdrain/internal/watch"
	"github.com/kpauljoseph/printdrain/pkg/logger"
	"github.com/kpauljoseph/printdrain/pkg/version"
)

const logPrefix = "[autoprint] "

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", config.DefaultPath(), "path to settings file")
	settle := flag.Duration("settle", 0, "delay before printing a new file (default from settings, 8s)")
	verbose := flag.Bool("verbose", false, "enable verbose logging")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [<watch-dir>]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Print(version.GetDetailedVersionInfo())
		return 0
	}

	log := logger.New(logger.WithPrefix(logPrefix))

	if flag.NArg() > 1 {
		flag.Usage()
		return 1
	}
	cfg, err := config.LoadOrDefault(*configPath, flag.Arg(0))
	if err != nil {
		log.Error("Error loading settings: %v", err)
		return 1
	}

	if info, err := os.Stat(cfg.SourceDir); err != nil || !info.IsDir() {
		log.Error("Watch directory does not exist: %s", cfg.SourceDir)
		return 1
	}

	runLog, _, err := logger.NewRunLogger(cfg.LogDir, os.Stdout, logger.WithPrefix(logPrefix))
	if err != nil {
		log.Warn("Logging to console only: %v", err)
	} else {
		log = runLog
		defer log.Close()
	}
	log.SetVerbose(*verbose)
	log.Info("%s", version.GetVersionInfo())

	settleDelay := cfg.SettleDelay
	if *settle > 0 {
		settleDelay = *settle
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend := printer.NewAdapter(log,
		printer.WithInspector(printer.NewPDFCPUInspector()),
		printer.WithLPBinary(cfg.LPBinary),
		printer.WithOfficeBinary(cfg.OfficeBinary),
	)

	w := watch.New(cfg.SourceDir, backend, printer.NewProfiles(cfg), log,
		watch.WithSettleDelay(settleDelay),
		watch.WithQueueSize(cfg.QueueSize),
	)

	start := time.Now()
	if err := w.Run(ctx); err != nil {
		log.Error("%v", err)
		return 1
	}
	log.Info("Watched for %s", time.Since(start).Round(time.Second))
	return 0
}
