package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/docmatch/constants"
)

const (
	defaultTimeout            = 120 * time.Second
	defaultSleepTime          = 2 * time.Second
	defaultConfidence         = 0.6
	defaultCSVDelimiter       = ";"
	defaultOCRPrompt          = "Please transcribe all visible text in this image."
	defaultVisionEndpoint     = "http://localhost:8080"
	defaultTextEndpoint       = "http://localhost:8081"
	defaultMatchFile          = "data/matchwith.csv"
	defaultExtractionTemplate = "Compare the following document text against the reference rows " +
		"and return ONLY JSON with fields confidence (0..1), row_number (1-based, or null), " +
		"date, description and rationale.\n\nDocument text:\n{text}\n\nReference rows:\n{match_data}"
)

// FoldersConfig holds the watched folder paths.
type FoldersConfig struct {
	Incoming  string `yaml:"incoming"`
	Extracted string `yaml:"extracted"`
	Processed string `yaml:"processed"`
	Matches   string `yaml:"matches"`
	Errors    string `yaml:"errors"`
	Output    string `yaml:"output"`
}

// LLMConfig holds the inference endpoints and call timeout.
type LLMConfig struct {
	VisionEndpoint string        `yaml:"vision_endpoint"`
	TextEndpoint   string        `yaml:"text_endpoint"`
	TimeoutSeconds int           `yaml:"timeout"`
	Timeout        time.Duration `yaml:"-"` // computed from TimeoutSeconds
}

// ProcessingConfig holds extension sets and pipeline tuning.
type ProcessingConfig struct {
	ImageExtensions     []string `yaml:"image_extensions"`
	PDFExtensions       []string `yaml:"pdf_extensions"`
	MatchFile           string   `yaml:"match_file"`
	SleepTimeSeconds    int      `yaml:"sleep_time"`
	CSVDelimiter        string   `yaml:"csv_delimiter"`
	ConfidenceThreshold float64  `yaml:"confidence_threshold"`

	SleepTime time.Duration `yaml:"-"` // computed from SleepTimeSeconds
}

// Config is the application configuration, constructed once at startup and
// passed by reference into the orchestrator and loop driver.
type Config struct {
	Folders    FoldersConfig    `yaml:"folders"`
	LLM        LLMConfig        `yaml:"llm"`
	Processing ProcessingConfig `yaml:"processing"`

	OCRPrompt        string `yaml:"ocr_prompt"`
	ExtractionPrompt string `yaml:"extraction_prompt"`
}

// Load reads the YAML config at path, applies env overrides and defaults.
// A missing file is not fatal; env + defaults still produce a usable config.
func Load(path string) (*Config, error) {
	var cfg Config

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	envOverride(&cfg.LLM.VisionEndpoint, "DOCMATCH_VISION_ENDPOINT")
	envOverride(&cfg.LLM.TextEndpoint, "DOCMATCH_TEXT_ENDPOINT")
	envOverride(&cfg.Processing.MatchFile, "DOCMATCH_MATCH_FILE")
	envOverride(&cfg.Folders.Incoming, "DOCMATCH_INCOMING_DIR")
	if v := os.Getenv("DOCMATCH_CONFIDENCE_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Processing.ConfidenceThreshold = f
		}
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	setIfEmpty(&c.Folders.Incoming, "data/incoming")
	setIfEmpty(&c.Folders.Extracted, "data/extracted")
	setIfEmpty(&c.Folders.Processed, "data/processed")
	setIfEmpty(&c.Folders.Matches, "data/matches")
	setIfEmpty(&c.Folders.Errors, "data/errors")
	setIfEmpty(&c.Folders.Output, "data/output")

	setIfEmpty(&c.LLM.VisionEndpoint, defaultVisionEndpoint)
	setIfEmpty(&c.LLM.TextEndpoint, defaultTextEndpoint)
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.Timeout = defaultTimeout
	} else {
		c.LLM.Timeout = time.Duration(c.LLM.TimeoutSeconds) * time.Second
	}

	if len(c.Processing.ImageExtensions) == 0 {
		c.Processing.ImageExtensions = constants.DefaultImageExtensions
	}
	if len(c.Processing.PDFExtensions) == 0 {
		c.Processing.PDFExtensions = constants.DefaultDocumentExtensions
	}
	setIfEmpty(&c.Processing.MatchFile, defaultMatchFile)
	setIfEmpty(&c.Processing.CSVDelimiter, defaultCSVDelimiter)
	if c.Processing.SleepTimeSeconds <= 0 {
		c.Processing.SleepTime = defaultSleepTime
	} else {
		c.Processing.SleepTime = time.Duration(c.Processing.SleepTimeSeconds) * time.Second
	}
	if c.Processing.ConfidenceThreshold <= 0 {
		c.Processing.ConfidenceThreshold = defaultConfidence
	}

	setIfEmpty(&c.OCRPrompt, defaultOCRPrompt)
	setIfEmpty(&c.ExtractionPrompt, defaultExtractionTemplate)
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Processing.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence_threshold must be in (0,1], got %v", c.Processing.ConfidenceThreshold)
	}
	if len(c.Processing.CSVDelimiter) != 1 {
		return fmt.Errorf("csv_delimiter must be a single character, got %q", c.Processing.CSVDelimiter)
	}
	// The two template placeholders are required for prompt substitution.
	for _, ph := range []string{"{text}", "{match_data}"} {
		if !strings.Contains(c.ExtractionPrompt, ph) {
			return fmt.Errorf("extraction_prompt is missing the %s placeholder", ph)
		}
	}
	return nil
}

// FolderPaths returns all configured folders in a stable order.
func (c *Config) FolderPaths() []string {
	return []string{
		c.Folders.Incoming,
		c.Folders.Extracted,
		c.Folders.Processed,
		c.Folders.Matches,
		c.Folders.Errors,
		c.Folders.Output,
	}
}

// MatchFilePath resolves the reference table path to an absolute path.
func (c *Config) MatchFilePath() string {
	abs, err := filepath.Abs(c.Processing.MatchFile)
	if err != nil {
		return c.Processing.MatchFile
	}
	return abs
}

func envOverride(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func setIfEmpty(target *string, def string) {
	if *target == "" {
		*target = def
	}
}
