package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/thywilljoshua/docanalyzer/internal/ai"
	"github.com/thywilljoshua/docanalyzer/internal/analyze"
	"github.com/thywilljoshua/docanalyzer/internal/config"
	"github.com/thywilljoshua/docanalyzer/internal/extract"
)

type globalFlags struct {
	config     string
	restricted bool
	model      string
	logLevel   string
}

type app struct {
	cfg      config.Config
	logger   *slog.Logger
	router   *extract.Router
	analyzer *analyze.Analyzer
}

// resolve loads the config, lets command-line flags override it and builds
// the extractor and analyzer every command shares.
func (g *globalFlags) resolve(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(g.config)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("restricted") {
		cfg.Restricted = g.restricted
	}
	if g.model != "" {
		cfg.Model.Name = g.model
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := cfg.Log.NewLogger(cmd.ErrOrStderr())
	slog.SetDefault(logger)

	gen, qa, err := models(cmd.Context(), cfg.Model, logger)
	if err != nil {
		return nil, err
	}
	router := extract.NewRouter(extract.RouterConfig{
		Restricted: cfg.Restricted,
		OCR:        ocrEngine(cfg.OCR),
		Logger:     logger,
	})
	return &app{
		cfg:      cfg,
		logger:   logger,
		router:   router,
		analyzer: analyze.New(gen, qa, cfg.AnalyzeOptions(), logger),
	}, nil
}

// models connects to Gemini once per process. Without an API key the
// analyzer still runs but always falls back.
func models(ctx context.Context, m config.Model, logger *slog.Logger) (ai.Generator, ai.Answerer, error) {
	if m.APIKey == "" {
		logger.Warn("no GEMINI_API_KEY or GOOGLE_API_KEY set; summaries will fall back and questions will go unanswered")
		return ai.Noop{}, ai.Noop{}, nil
	}
	g, err := ai.NewGemini(ctx, m.APIKey, m.Name, m.AnswerName)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("gemini client ready", "model", g.Model())
	return g, g, nil
}

// extractFile reads path and runs it through the router the same way an
// upload would be.
func (a *app) extractFile(ctx context.Context, path string) (extract.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return extract.Result{}, err
	}
	name := filepath.Base(path)
	return a.router.Extract(ctx, extract.Document{
		Data:        data,
		ContentType: extract.DetectContentType(name, data),
		Filename:    name,
	})
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
