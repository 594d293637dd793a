package main

import (
	"github.com/use-agent/pastpapers/config"
	"github.com/use-agent/pastpapers/downloader"
	"github.com/use-agent/pastpapers/engine"
	"github.com/use-agent/pastpapers/filter"
	"github.com/use-agent/pastpapers/finder"
	"github.com/use-agent/pastpapers/scraper"
	"github.com/use-agent/pastpapers/store"
)

// newService wires the download pipeline. The browser is launched per
// run, not here.
func newService(cfg *config.Config) (*downloader.Service, error) {
	st, err := store.New(cfg.Download.OutputDir)
	if err != nil {
		return nil, err
	}

	flt := filter.New(cfg.Filter.ExtraKeywords, cfg.Filter.BlockThirdPartyHeavy)
	direct := engine.NewDirect(nil, cfg.Browser.UserAgent, cfg.Download.MaxBytes)
	launch := func() (downloader.Session, error) {
		sess, err := scraper.NewSession(cfg.Browser, cfg.Download, flt)
		if err != nil {
			return nil, err
		}
		return sess, nil
	}

	return downloader.NewService(launch, direct, finder.New(finder.DefaultStrategies()...), st, cfg.Download), nil
}
