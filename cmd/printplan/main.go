package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kpauljoseph/printdrain/internal/classifier"
	"github.com/kpauljoseph/printdrain/internal/config"
	"github.com/kpauljoseph/printdrain/internal/printer"
	"github.com/kpauljoseph/printdrain/internal/scanner"
	"github.com/kpauljoseph/printdrain/pkg/logger"
	"github.com/kpauljoseph/printdrain/pkg/models"
)

func main() {
	configPath := flag.String("config", config.DefaultPath(), "path to settings file")
	verbose := flag.Bool("verbose", false, "enable verbose logging")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <dir|file>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	target, err := filepath.Abs(flag.Arg(0))
	if err != nil {
		fmt.Printf("Error resolving %s: %v\n", flag.Arg(0), err)
		os.Exit(1)
	}

	log := logger.New(logger.WithPrefix("[printplan] "), logger.WithOutput(os.Stderr))
	log.SetVerbose(*verbose)

	info, err := os.Stat(target)
	if err != nil {
		fmt.Printf("Error accessing %s: %v\n", target, err)
		os.Exit(1)
	}

	sourceDir := target
	if !info.IsDir() {
		sourceDir = filepath.Dir(target)
	}
	cfg, err := config.LoadOrDefault(*configPath, sourceDir)
	if err != nil {
		fmt.Printf("Error loading settings: %v\n", err)
		os.Exit(1)
	}

	plan := &planner{
		profiles:  printer.NewProfiles(cfg),
		inspector: printer.NewPDFCPUInspector(),
	}

	if !info.IsDir() {
		job, ok := classifier.ClassifyPath(target)
		if !ok {
			fmt.Printf("%s is not a printable job\n", target)
			os.Exit(1)
		}
		plan.describe(job)
		return
	}

	batches, err := scanner.New(log).FindBatches(context.Background(), target)
	if err != nil {
		fmt.Printf("Error scanning %s: %v\n", target, err)
		os.Exit(1)
	}

	fmt.Printf("Source:  %s\n", cfg.SourceDir)
	fmt.Printf("Archive: %s\n", cfg.ArchiveDir)
	fmt.Printf("%d job(s) in %d director(ies), in processing order\n", scanner.CountJobs(batches), len(batches))
	for _, b := range batches {
		fmt.Printf("\n%s\n", scanner.Describe(b))
		for _, job := range b.Jobs {
			plan.describe(job)
		}
	}
}

type planner struct {
	profiles  printer.Profiles
	inspector printer.Inspector
}

func (p *planner) describe(job models.JobDescriptor) {
	profile := p.profiles.For(job)
	fmt.Printf("  %s [%s, %s]\n", job.Name, job.Kind, job.Class)
	fmt.Printf("    printer: %s, paper %s, %s, orientation %s\n",
		profile.PrinterLabel(), profile.PaperSize, profile.ScalingLabel(), profile.Orientation)
	if profile.MaxPages > 0 {
		fmt.Printf("    pages: 1-%d\n", profile.MaxPages)
	}

	if job.Kind != models.KindPDF {
		return
	}
	info, err := p.inspector.Inspect(job.Path)
	if err != nil {
		fmt.Printf("    error getting page dimensions: %v\n", err)
		return
	}
	orientation := "portrait"
	if info.FirstPage.Landscape() {
		orientation = "landscape"
	}
	fmt.Printf("    %d page(s), first page %.3f x %.3f points (%s)\n",
		info.PageCount, info.FirstPage.Width, info.FirstPage.Height, orientation)
}
