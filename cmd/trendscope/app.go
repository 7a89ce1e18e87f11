package main

import (
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/briangreenhill/trendscope/internal/cache"
	"github.com/briangreenhill/trendscope/internal/config"
	"github.com/briangreenhill/trendscope/internal/github"
	"github.com/briangreenhill/trendscope/internal/llm"
	"github.com/briangreenhill/trendscope/internal/logging"
)

// app is the wiring shared by every command
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	trends *cache.TrendCache
	llm    *llm.Summarizer
}

func newApp(flags *rootFlags, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}

	logger, err := logging.New(logOut, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	ghOpts := []github.Option{
		github.WithBaseURL(cfg.GitHub.APIURL),
		github.WithTimeout(cfg.GitHub.Timeout),
	}
	if cfg.HasGitHubToken() {
		ghOpts = append(ghOpts, github.WithToken(cfg.GitHub.Token))
	}
	fetcher := &github.TrendingFetcher{
		Client:   github.New(ghOpts...),
		Topic:    cfg.Trends.Topic,
		MinStars: cfg.Trends.MinStars,
		Window:   cfg.Trends.Window(),
		PerPage:  cfg.Trends.PerPage,
	}

	summarizer := llm.NewSummarizer(cfg.LLM.BaseURL, cfg.LLM.Model,
		llm.WithTimeout(cfg.LLM.Timeout),
		llm.WithHTTPClient(&http.Client{}),
	)

	return &app{
		cfg:    cfg,
		logger: logger,
		trends: cache.New(fetcher, cfg.Trends.CacheTTL),
		llm:    summarizer,
	}, nil
}
