// Package cliutil holds the setup logic shared by the lsftp-server,
// lsftp-client and lsftp-tools command-line entry points: building an
// audit.Logger and a TLS config from a loaded configuration file, so
// each binary's main package stays a thin cobra wiring layer.
package cliutil

import (
	"context"

	"github.com/iyotee/LSFTP/audit"
	"github.com/iyotee/LSFTP/audit/sinks"
	"github.com/iyotee/LSFTP/config"
	"github.com/iyotee/LSFTP/log"
)

// BuildAuditLogger constructs an audit.Logger from an AuditConfig:
// console output always runs, plus an optional file journal, syslog
// forwarder, SIEM endpoint and Postgres sink per the fields that are set.
func BuildAuditLogger(cfg config.AuditConfig, logger log.Logger) (*audit.Logger, error) {
	acfg := audit.Config{Logger: logger}
	acfg.Sinks = append(acfg.Sinks, sinks.NewConsole(nil))

	if cfg.JournalPath != "" {
		j, err := sinks.NewJournal(cfg.JournalPath)
		if err != nil {
			return nil, err
		}
		acfg.Sinks = append(acfg.Sinks, j)
	}

	if cfg.SyslogAddr != "" {
		acfg.Sinks = append(acfg.Sinks, sinks.NewSyslog(cfg.SyslogAddr, "lsftp", "lsftp", nil))
	}

	if cfg.Postgres != nil {
		pg, err := sinks.NewPostgres(context.Background(), sinks.PostgresConfig{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			Database: cfg.Postgres.Database,
			SSLMode:  cfg.Postgres.SSLMode,
		})
		if err != nil {
			return nil, err
		}
		acfg.Sinks = append(acfg.Sinks, pg)
	}

	if cfg.SIEMEndpoint != "" {
		acfg.SIEM = sinks.NewSIEM(cfg.SIEMEndpoint, cfg.SIEMAPIKey)
	}

	return audit.New(acfg), nil
}
