package cmd

import (
	"context"
	"time"

	"github.com/brogergvhs/flamed/internal/config"
	"github.com/brogergvhs/flamed/internal/fetch"
	"github.com/brogergvhs/flamed/internal/providers/flamescans"
	"github.com/brogergvhs/flamed/internal/ui"
	"github.com/brogergvhs/flamed/internal/util"
)

// session is everything a command needs to talk to the site.
type session struct {
	cfg     *config.Config
	used    string
	log     *ui.Logger
	sched   *fetch.Scheduler
	src     *flamescans.Source
	printer *ui.Printer

	ctx    context.Context
	cancel context.CancelFunc
}

func loadOptions() config.Options {
	return config.Options{
		IgnoreConfig:        flagIgnoreConfig,
		Debug:               flagDebug,
		BaseURL:             flagBaseURL,
		UserAgent:           flagUserAgent,
		Cookie:              flagCookie,
		CookieFile:          flagCookieFile,
		RequestsPerSecond:   flagRPS,
		TimeoutSeconds:      flagTimeout,
		Attempts:            flagAttempts,
		CloudflareTransport: flagCloudflare,
		TraversalPath:       flagTraversal,
	}
}

func newSession(parent context.Context, opts config.Options) (*session, error) {
	cfg, used, err := config.LoadMerged(opts)
	if err != nil {
		return nil, err
	}

	logSvc := ui.NewLogger(cfg.Debug)
	logSvc.Debugf("config: %s\n", used)

	client, err := util.NewHTTPClient(util.HTTPClientOptions{
		SiteURL:     cfg.BaseURL,
		UserAgent:   util.PickUserAgent(cfg.UserAgent),
		Cookie:      cfg.Cookie,
		CookieFile:  cfg.CookieFile,
		Cloudflare:  cfg.CloudflareTransport,
		DebugLogger: logSvc.With("http"),
	})
	if err != nil {
		return nil, err
	}

	sched := fetch.New(client, fetch.Options{
		BaseURL:           cfg.BaseURL,
		UserAgent:         cfg.UserAgent,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Timeout:           time.Duration(cfg.TimeoutSeconds) * time.Second,
		Attempts:          cfg.Attempts,
		Logger:            logSvc.With("fetch"),
	})

	src := flamescans.New(sched, flamescans.Options{
		BaseURL:       cfg.BaseURL,
		TraversalPath: cfg.TraversalPath,
		Logger:        logSvc.With("flamescans"),
	})

	ctx, cancel := util.SetupInterruptHandler(parent)

	return &session{
		cfg:     cfg,
		used:    used,
		log:     logSvc,
		sched:   sched,
		src:     src,
		printer: ui.NewPrinter(flagJSON),
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

func (s *session) Close() {
	if n := s.sched.Retries(); n > 0 {
		s.log.Debugf("%d requests were retried\n", n)
	}
	s.cancel()
}

// fail adds a hint to blocked errors before they reach the user.
func (s *session) fail(err error) error {
	if fetch.IsBlocked(err) {
		s.log.Warnf("the site answered with a challenge page; run `flamed bypass` for the request to solve\n")
	}
	return err
}
