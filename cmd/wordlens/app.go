package main

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/japaniel/wordlens/pkg/config"
	"github.com/japaniel/wordlens/pkg/db"
	"github.com/japaniel/wordlens/pkg/logger"
	"github.com/japaniel/wordlens/pkg/page"
	"github.com/japaniel/wordlens/pkg/translate"
	"github.com/japaniel/wordlens/pkg/vocab"
)

// app is the state shared by all subcommands, built once the config is read.
type app struct {
	cfgFile  string
	logLevel string

	cfg   *config.Config
	conn  *sql.DB
	store *vocab.Store
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return err
	}

	conn, err := db.Open(cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database %s: %w", cfg.Database.Path, err)
	}
	logger.L().Debug("database ready", zap.String("path", cfg.Database.Path))

	a.cfg = cfg
	a.conn = conn
	a.store = vocab.NewStore(conn)
	return nil
}

func (a *app) close(cmd *cobra.Command, args []string) error {
	defer logger.Sync()
	if a.conn != nil {
		return a.conn.Close()
	}
	return nil
}

func (a *app) fetcher() *page.Fetcher {
	return page.NewFetcher(page.FetchOptions{
		Timeout:      a.cfg.Fetch.Timeout,
		MaxBodyBytes: a.cfg.Fetch.MaxBodyBytes,
		UserAgent:    a.cfg.Fetch.UserAgent,
	})
}

func (a *app) translator() translate.Translator {
	tc := a.cfg.Translate
	var p translate.Provider
	switch tc.Provider {
	case "openai":
		p = translate.NewOpenAI(tc.OpenAI.APIKey, tc.OpenAI.Model, tc.OpenAI.BaseURL)
	case "noop":
		p = translate.Noop{}
	default:
		p = translate.NewGoogle(tc.Endpoint, tc.Timeout)
	}
	return translate.NewClient(tc.Provider, p, translate.BreakerOptions{
		MaxFailures: tc.Breaker.MaxFailures,
		OpenTimeout: tc.Breaker.OpenTimeout,
	})
}
