package main

import (
	"os"

	"github.com/joseph-ayodele/bookmap/internal/common"
	"github.com/joseph-ayodele/bookmap/internal/export"
	"github.com/joseph-ayodele/bookmap/internal/jobclient"
)

// init resolves configuration and builds the shared services. Flags bound to
// the viper instance override the config file and environment.
func (a *app) init() error {
	cfg, err := common.LoadConfig(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	a.logger = newLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	a.logger.Debug("config.loaded",
		"server", cfg.Server.BaseURL,
		"poll_interval", cfg.Poll.Interval.String(),
		"config_file", a.v.ConfigFileUsed(),
	)

	client, err := jobclient.NewClient(jobclient.Config{
		BaseURL: cfg.Server.BaseURL,
		Timeout: cfg.Server.Timeout,
	}, a.logger)
	if err != nil {
		return err
	}
	a.client = client
	a.export = export.NewService(a.logger)
	return nil
}
