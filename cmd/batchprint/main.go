package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"

	"github.com/kpauljoseph/printdrain/internal/archive"
	"github.com/kpauljoseph/printdrain/internal/config"
	"github.com/kpauljoseph/printdrain/internal/ledger"
	"github.com/kpauljoseph/printdrain/internal/pipeline"
	"github.com/kpauljoseph/printdrain/internal/printer"
	"github.com/kpauljoseph/printdrain/pkg/logger"
	"github.com/kpauljoseph/printdrain/pkg/version"
)

const logPrefix = "[batchprint] "

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

// run executes one batch and returns the process exit code.
func run(args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("batchprint", flag.ContinueOnError)
	fs.SetOutput(stdout)
	configPath := fs.String("config", config.DefaultPath(), "path to settings file")
	dryRun := fs.Bool("dry-run", false, "log what would be printed and archived without doing it")
	verbose := fs.Bool("verbose", false, "enable verbose logging")
	debug := fs.Bool("debug", false, "enable debug mode with trace logging")
	showVersion := fs.Bool("version", false, "print version information and exit")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [flags] [<source-dir> <archive-dir>]\n", fs.Name())
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	if *showVersion {
		fmt.Fprint(stdout, version.GetDetailedVersionInfo())
		return 0
	}

	log := logger.New(logger.WithPrefix(logPrefix), logger.WithOutput(stdout))

	cfg, err := loadConfig(fs, *configPath)
	if err != nil {
		log.Error("Error loading settings: %v", err)
		return 1
	}

	if info, err := os.Stat(cfg.SourceDir); err != nil || !info.IsDir() {
		log.Error("Source directory does not exist: %s", cfg.SourceDir)
		return 1
	}

	runLog, logPath, err := logger.NewRunLogger(cfg.LogDir, stdout, logger.WithPrefix(logPrefix))
	if err != nil {
		log.Warn("Logging to console only: %v", err)
	} else {
		log = runLog
		defer log.Close()
	}
	log.SetVerbose(*verbose)
	if *debug {
		log.SetLevel(logger.LevelTrace)
	}

	log.Info("%s", version.GetVersionInfo())
	if logPath != "" {
		log.Info("Log file: %s", logPath)
	}
	if *dryRun {
		log.Warn("DRY RUN")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var backend printer.Backend
	if *dryRun {
		backend = printer.NewDryRunBackend(log)
	} else {
		backend = printer.NewAdapter(log,
			printer.WithInspector(printer.NewPDFCPUInspector()),
			printer.WithLPBinary(cfg.LPBinary),
			printer.WithOfficeBinary(cfg.OfficeBinary),
		)
	}

	archiver, err := archive.New(cfg.SourceDir, cfg.ArchiveDir, log)
	if err != nil {
		log.Error("Error preparing archive: %v", err)
		return 1
	}

	opts := []pipeline.Option{pipeline.WithDryRun(*dryRun)}
	if cfg.LedgerPath != "" && !*dryRun {
		l, err := ledger.Open(cfg.LedgerPath)
		if err != nil {
			log.Error("Error opening ledger: %v", err)
			return 1
		}
		defer l.Close()
		opts = append(opts, pipeline.WithLedger(l))
	}

	driver := pipeline.NewDriver(cfg, backend, archiver, log, opts...)
	report, err := driver.Run(ctx)
	pipeline.LogSummary(log, report)
	if err != nil {
		log.Error("%v", err)
		return 1
	}
	if !report.Succeeded() {
		return 1
	}
	return 0
}

// loadConfig picks direct-argument mode when two directories are given.
// An explicit -config still supplies the remaining settings there.
func loadConfig(fs *flag.FlagSet, path string) (*config.Config, error) {
	args := fs.Args()
	switch len(args) {
	case 0:
		return config.Load(path)
	case 2:
		if !flagSet(fs, "config") {
			return config.FromArgs(args[0], args[1])
		}
		cfg, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		return cfg.WithDirs(args[0], args[1])
	default:
		fs.Usage()
		return nil, errors.Newf("expected 0 or 2 arguments, got %d", len(args))
	}
}

func flagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}
