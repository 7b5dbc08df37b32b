package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"wikibot/internal/archive"
	"wikibot/internal/config"
	"wikibot/internal/logging"
	"wikibot/internal/mediawiki"
	"wikibot/internal/replica"
	"wikibot/internal/runstore"
	"wikibot/internal/taskgate"
	"wikibot/internal/taskrun"
)

// app holds everything a command needs. Build it with newApp and release
// it with close.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	client  *mediawiki.Client
	store   mediawiki.Store
	gate    *taskgate.Gate
	runs    *runstore.Store
	archive archive.Store

	closers []func() error
}

func newApp(ctx context.Context, login bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log, closeLog, err := logging.New(logging.Config{Dir: cfg.Log.Dir, Verbose: verbose})
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log, closers: []func() error{closeLog}}

	client, err := mediawiki.New(mediawiki.Options{
		APIURL:     cfg.Wiki.APIURL,
		UserAgent:  cfg.Wiki.UserAgent,
		Username:   cfg.Wiki.Username,
		Password:   cfg.Wiki.Password,
		WriteRPS:   cfg.Wiki.WriteRPS,
		MaxRetries: cfg.Wiki.MaxRetries,
		MaxLag:     cfg.Wiki.MaxLag,
		Logger:     log,
	})
	if err != nil {
		a.close()
		return nil, err
	}
	a.client = client
	a.closers = append(a.closers, client.Close)
	a.store = client
	if dryRun {
		a.store = &mediawiki.DryRun{Store: client, Log: log}
	}
	a.gate = &taskgate.Gate{Reader: client, Page: cfg.Tasks.StatusPage, Prefix: cfg.Tasks.StatusTemplate}

	if login && (!dryRun || cfg.Wiki.Username != "") {
		if err := client.Login(ctx); err != nil {
			a.close()
			return nil, fmt.Errorf("login: %w", err)
		}
	}

	runs, err := runstore.Open(cfg.RunStore.Path, cfg.RunStore.PGDSN)
	if err != nil {
		log.Warn("run store", zap.Error(err))
	}
	a.runs = runs
	a.closers = append(a.closers, runs.Close)

	arc, err := archive.Open(archive.Config{
		Dir: cfg.Artifacts.Dir,
		S3: archive.S3Config{
			Endpoint:  cfg.Artifacts.Endpoint,
			Region:    cfg.Artifacts.Region,
			AccessKey: cfg.Artifacts.AccessKey,
			SecretKey: cfg.Artifacts.SecretKey,
			Bucket:    cfg.Artifacts.Bucket,
			Prefix:    cfg.Artifacts.Prefix,
			UseSSL:    cfg.Artifacts.UseSSL,
		},
	})
	if err != nil {
		log.Warn("report archive disabled", zap.Error(err))
	} else {
		a.archive = arc
	}
	return a, nil
}

func (a *app) deps() taskrun.Deps {
	return taskrun.Deps{Gate: a.gate, Runs: a.runs, Logger: a.log}
}

func (a *app) run(ctx context.Context, t taskrun.Task) error {
	return taskrun.Run(ctx, a.deps(), t)
}

func (a *app) replicaConfig() replica.Config {
	rc := a.cfg.Replica
	return replica.Config{
		Host:     rc.Host,
		Port:     rc.Port,
		Database: rc.Database,
		User:     rc.User,
		Password: rc.Password,
		CnfPath:  rc.CnfPath,
		Timeout:  rc.Timeout,
	}
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}
