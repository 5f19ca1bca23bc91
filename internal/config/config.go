// internal/config/config.go
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"github.com/kpauljoseph/printdrain/pkg/models"
	"github.com/kpauljoseph/printdrain/pkg/utils"
)

const (
	DefaultFileName = "config.ini"
	SettingsSection = "settings"
)

var (
	ErrMissing   = errors.New("settings file missing")
	ErrMalformed = errors.New("settings file malformed")
)

type FailurePolicy string

const (
	FailFast          FailurePolicy = "fail_fast"
	ContinueOnFailure FailurePolicy = "continue"
)

// Config is loaded once at startup and is read-only afterwards.
type Config struct {
	SourceDir  string
	ArchiveDir string

	DefaultPrinter     string
	MonthlyPrinter     string
	DefaultPaperSize   models.PaperSize
	MonthlyPaperSize   models.PaperSize
	DefaultZoom        int
	DefaultOrientation models.Orientation
	MonthlyOrientation models.Orientation
	MaxPages           int

	Delay             time.Duration
	CheckpointEnabled bool
	CheckpointTimeout time.Duration
	FailurePolicy     FailurePolicy

	LedgerPath   string
	SettleDelay  time.Duration
	QueueSize    int
	LogDir       string
	OfficeBinary string
	LPBinary     string
}

// settings mirrors the keys of the [settings] section.
type settings struct {
	SourceDir          string  `yaml:"source_dir" ini:"source_dir"`
	TargetDir          string  `yaml:"target_dir" ini:"target_dir"`
	DefaultPrinterName string  `yaml:"default_printer_name" ini:"default_printer_name"`
	MonthlyPrinterName string  `yaml:"monthly_printer_name" ini:"monthly_printer_name"`
	DefaultPaperSize   int     `yaml:"default_paper_size" ini:"default_paper_size"`
	MonthlyPaperSize   int     `yaml:"monthly_paper_size" ini:"monthly_paper_size"`
	DefaultPaperZoom   int     `yaml:"default_paper_zoom" ini:"default_paper_zoom"`
	DefaultOrientation string  `yaml:"default_orientation" ini:"default_orientation"`
	MonthlyOrientation string  `yaml:"monthly_orientation" ini:"monthly_orientation"`
	MaxPages           int     `yaml:"max_pages" ini:"max_pages"`
	DelaySeconds       float64 `yaml:"delay_seconds" ini:"delay_seconds"`
	EnableWaitPrompt   bool    `yaml:"enable_wait_prompt" ini:"enable_wait_prompt"`
	WaitPromptSleep    float64 `yaml:"wait_prompt_sleep" ini:"wait_prompt_sleep"`
	FailurePolicy      string  `yaml:"failure_policy" ini:"failure_policy"`
	LedgerPath         string  `yaml:"ledger_path" ini:"ledger_path"`
	SettleSeconds      float64 `yaml:"settle_seconds" ini:"settle_seconds"`
	QueueSize          int     `yaml:"queue_size" ini:"queue_size"`
	LogDir             string  `yaml:"log_dir" ini:"log_dir"`
	OfficeBinary       string  `yaml:"office_binary" ini:"office_binary"`
	LPBinary           string  `yaml:"lp_binary" ini:"lp_binary"`
}

func defaultSettings() settings {
	return settings{
		DefaultPaperSize:   int(models.PaperContinuous),
		MonthlyPaperSize:   int(models.PaperA4),
		DefaultPaperZoom:   75,
		DefaultOrientation: "auto",
		MonthlyOrientation: "auto",
		DelaySeconds:       5,
		EnableWaitPrompt:   true,
		WaitPromptSleep:    30,
		FailurePolicy:      string(FailFast),
		SettleSeconds:      8,
		QueueSize:          64,
		LogDir:             "logs",
		OfficeBinary:       "soffice",
		LPBinary:           "lp",
	}
}

// DefaultPath is the settings file beside the running executable.
func DefaultPath() string {
	return filepath.Join(utils.ExecutableDir(), DefaultFileName)
}

// FromArgs builds a configuration for direct-argument mode.
func FromArgs(sourceDir, archiveDir string) (*Config, error) {
	s := defaultSettings()
	s.SourceDir = absOrSelf(sourceDir)
	s.TargetDir = absOrSelf(archiveDir)
	return s.build(utils.ExecutableDir(), time.Now())
}

// LoadOrDefault loads path, falling back to defaults for sourceDir when the
// file does not exist. A non-empty sourceDir replaces source_dir.
func LoadOrDefault(path, sourceDir string) (*Config, error) {
	cfg, err := Load(path)
	switch {
	case err == nil:
	case errors.Is(err, ErrMissing) && sourceDir != "":
		return FromArgs(sourceDir, "")
	default:
		return nil, err
	}

	if sourceDir == "" {
		return cfg, nil
	}
	return cfg.WithDirs(sourceDir, cfg.ArchiveDir)
}

// WithDirs returns a validated copy of c with new source and archive
// directories. An empty archiveDir is derived from the source.
func (c *Config) WithDirs(sourceDir, archiveDir string) (*Config, error) {
	out := *c
	out.SourceDir = absOrSelf(sourceDir)
	out.ArchiveDir = absOrSelf(archiveDir)
	if out.ArchiveDir == "" {
		out.ArchiveDir = utils.DefaultArchiveDir(out.SourceDir, time.Now())
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

// Load reads a settings file. ".yaml" and ".yml" files are YAML with a
// top-level "settings" mapping; anything else is INI.
func Load(path string) (*Config, error) {
	return LoadAt(path, time.Now())
}

// LoadAt is Load with an explicit clock for the derived archive directory.
func LoadAt(path string, now time.Time) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Mark(errors.Wrapf(err, "settings file %s", path), ErrMissing)
		}
		return nil, errors.Wrapf(err, "reading settings file %s", path)
	}

	s := defaultSettings()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		doc := struct {
			Settings *settings `yaml:"settings"`
		}{Settings: &s}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "parsing %s", path), ErrMalformed)
		}
	default:
		file, err := ini.Load(data)
		if err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "parsing %s", path), ErrMalformed)
		}
		if !file.HasSection(SettingsSection) {
			return nil, errors.Mark(errors.Newf("%s has no [%s] section", path, SettingsSection), ErrMalformed)
		}
		if err := file.Section(SettingsSection).MapTo(&s); err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "parsing [%s] in %s", SettingsSection, path), ErrMalformed)
		}
	}

	return s.build(filepath.Dir(path), now)
}

func (s settings) build(baseDir string, now time.Time) (*Config, error) {
	if strings.TrimSpace(s.SourceDir) == "" {
		return nil, errors.Mark(errors.New("source_dir is required"), ErrMalformed)
	}

	defaultOrientation, err := models.ParseOrientation(strings.ToLower(s.DefaultOrientation))
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "default_orientation"), ErrMalformed)
	}
	monthlyOrientation, err := models.ParseOrientation(strings.ToLower(s.MonthlyOrientation))
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "monthly_orientation"), ErrMalformed)
	}

	cfg := &Config{
		SourceDir:          resolve(baseDir, s.SourceDir),
		ArchiveDir:         resolve(baseDir, s.TargetDir),
		DefaultPrinter:     s.DefaultPrinterName,
		MonthlyPrinter:     s.MonthlyPrinterName,
		DefaultPaperSize:   models.PaperSize(s.DefaultPaperSize),
		MonthlyPaperSize:   models.PaperSize(s.MonthlyPaperSize),
		DefaultZoom:        s.DefaultPaperZoom,
		DefaultOrientation: defaultOrientation,
		MonthlyOrientation: monthlyOrientation,
		MaxPages:           s.MaxPages,
		Delay:              seconds(s.DelaySeconds),
		CheckpointEnabled:  s.EnableWaitPrompt,
		CheckpointTimeout:  seconds(s.WaitPromptSleep),
		FailurePolicy:      FailurePolicy(strings.ToLower(s.FailurePolicy)),
		SettleDelay:        seconds(s.SettleSeconds),
		QueueSize:          s.QueueSize,
		LogDir:             resolve(baseDir, s.LogDir),
		OfficeBinary:       s.OfficeBinary,
		LPBinary:           s.LPBinary,
	}
	if s.LedgerPath != "" {
		cfg.LedgerPath = resolve(baseDir, s.LedgerPath)
	}
	if strings.TrimSpace(s.TargetDir) == "" {
		cfg.ArchiveDir = utils.DefaultArchiveDir(cfg.SourceDir, now)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges. Every failure is marked ErrMalformed.
func (c *Config) Validate() error {
	var problems []string

	if c.DefaultPaperSize <= 0 {
		problems = append(problems, "default_paper_size must be positive")
	}
	if c.MonthlyPaperSize <= 0 {
		problems = append(problems, "monthly_paper_size must be positive")
	}
	if c.DefaultZoom < 10 || c.DefaultZoom > 400 {
		problems = append(problems, "default_paper_zoom must be between 10 and 400")
	}
	if c.MaxPages < 0 {
		problems = append(problems, "max_pages must not be negative")
	}
	if c.Delay < 0 {
		problems = append(problems, "delay_seconds must not be negative")
	}
	if c.CheckpointEnabled && c.CheckpointTimeout <= 0 {
		problems = append(problems, "wait_prompt_sleep must be positive when enable_wait_prompt is set")
	}
	if c.SettleDelay < 0 {
		problems = append(problems, "settle_seconds must not be negative")
	}
	if c.QueueSize <= 0 {
		problems = append(problems, "queue_size must be positive")
	}
	switch c.FailurePolicy {
	case FailFast, ContinueOnFailure:
	default:
		problems = append(problems, "failure_policy must be fail_fast or continue")
	}
	if utils.IsWithin(c.SourceDir, c.ArchiveDir) {
		problems = append(problems, "target_dir must not be inside source_dir")
	}

	if len(problems) > 0 {
		return errors.Mark(errors.Newf("invalid settings: %s", strings.Join(problems, "; ")), ErrMalformed)
	}
	return nil
}

func resolve(baseDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

func absOrSelf(path string) string {
	if path == "" {
		return path
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
