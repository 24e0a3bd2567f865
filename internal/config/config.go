// Package config loads docanalyzer settings from defaults, an optional YAML
// file and the environment, in that order. Command-line flags are applied on
// top by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/thywilljoshua/docanalyzer/internal/analyze"
)

// Summary budgets outside this range are clamped.
const (
	MinSummaryBudget = 1200
	MaxSummaryBudget = 3000
)

type Config struct {
	// Restricted is set for hosted deployments that must not run OCR.
	Restricted bool `yaml:"restricted"`

	Server  Server  `yaml:"server"`
	Model   Model   `yaml:"model"`
	OCR     OCR     `yaml:"ocr"`
	Summary Summary `yaml:"summary"`
	Answer  Answer  `yaml:"answer"`
	Log     Log     `yaml:"log"`
}

type Server struct {
	Addr           string        `yaml:"addr"`
	DB             string        `yaml:"db"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
	SessionTTL     time.Duration `yaml:"session_ttl"`
}

type Model struct {
	APIKey     string        `yaml:"api_key"`
	Name       string        `yaml:"name"`
	AnswerName string        `yaml:"answer_name"`
	Timeout    time.Duration `yaml:"timeout"`
}

type OCR struct {
	TessdataPrefix string   `yaml:"tessdata_prefix"`
	Languages      []string `yaml:"languages"`
}

type Summary struct {
	Prompt   string   `yaml:"prompt"`
	Chars    int      `yaml:"chars"`
	Tokens   int      `yaml:"tokens"`
	MinChars int      `yaml:"min_chars"`
	Denylist []string `yaml:"denylist"`
	Fallback string   `yaml:"fallback"`
}

type Answer struct {
	Chars int `yaml:"chars"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() Config {
	d := analyze.DefaultOptions()
	return Config{
		Server: Server{
			Addr:           ":8080",
			DB:             ":memory:",
			MaxUploadBytes: 20 << 20,
			SessionTTL:     time.Hour,
		},
		Model: Model{
			Name:    "gemini-2.5-flash",
			Timeout: d.ModelTimeout,
		},
		OCR: OCR{Languages: []string{"eng"}},
		Summary: Summary{
			Prompt:   d.SummaryPrompt,
			Chars:    d.SummaryChars,
			Tokens:   d.SummaryTokens,
			MinChars: d.MinSummaryChars,
			Denylist: d.Denylist,
			Fallback: d.FallbackSummary,
		},
		Answer: Answer{Chars: d.AnswerChars},
		Log:    Log{Level: "info", Format: "text"},
	}
}

// Load returns the defaults overlaid with path (if not empty) and the
// environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("DOCANALYZER_RESTRICTED"); ok && v != "" {
		b, err := ParseBool(v)
		if err != nil {
			return fmt.Errorf("DOCANALYZER_RESTRICTED: %w", err)
		}
		c.Restricted = b
	}
	for _, k := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		if v, ok := lookup(k); ok && v != "" {
			c.Model.APIKey = v
		}
	}
	str := map[string]*string{
		"DOCANALYZER_MODEL":     &c.Model.Name,
		"DOCANALYZER_ADDR":      &c.Server.Addr,
		"DOCANALYZER_DB":        &c.Server.DB,
		"TESSDATA_PREFIX":       &c.OCR.TessdataPrefix,
		"DOCANALYZER_LOG_LEVEL": &c.Log.Level,
	}
	for k, dst := range str {
		if v, ok := lookup(k); ok && v != "" {
			*dst = v
		}
	}
	return nil
}

// ParseBool accepts the usual strconv forms plus yes/no and on/off.
func ParseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "no", "off", "false", "f":
		return false, nil
	case "1", "yes", "on", "true", "t":
		return true, nil
	}
	return strconv.ParseBool(v)
}

// Validate clamps the summary budget into range and rejects nonsense values.
func (c *Config) Validate() error {
	var errs []error
	if c.Summary.Chars < MinSummaryBudget {
		c.Summary.Chars = MinSummaryBudget
	}
	if c.Summary.Chars > MaxSummaryBudget {
		c.Summary.Chars = MaxSummaryBudget
	}
	if c.Summary.Tokens <= 0 {
		errs = append(errs, errors.New("summary.tokens must be positive"))
	}
	if c.Summary.MinChars < 0 {
		errs = append(errs, errors.New("summary.min_chars must not be negative"))
	}
	if c.Answer.Chars <= 0 {
		errs = append(errs, errors.New("answer.chars must be positive"))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("server.max_upload_bytes must be positive"))
	}
	if c.Model.Timeout < 0 {
		errs = append(errs, errors.New("model.timeout must not be negative"))
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q: want text or json", c.Log.Format))
	}
	return errors.Join(errs...)
}

// AnalyzeOptions maps the summary and answer settings onto analyze.Options.
func (c Config) AnalyzeOptions() analyze.Options {
	return analyze.Options{
		SummaryPrompt:   c.Summary.Prompt,
		SummaryChars:    c.Summary.Chars,
		SummaryTokens:   c.Summary.Tokens,
		MinSummaryChars: c.Summary.MinChars,
		Denylist:        c.Summary.Denylist,
		FallbackSummary: c.Summary.Fallback,
		AnswerChars:     c.Answer.Chars,
		ModelTimeout:    c.Model.Timeout,
	}
}
