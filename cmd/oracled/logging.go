package main

import (
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/oracle-dispatcher/config"
	webhookalert "github.com/tdex-network/oracle-dispatcher/internal/infrastructure/alert/webhook"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

const (
	logFileMaxSize = 100 // megabytes
	logFileMaxAge  = 7   // days
)

// configureLogger sets up the global logger and returns the alert hook, if an
// alert webhook is configured.
func configureLogger(cfg *config.Config) (*webhookalert.Hook, error) {
	log.SetLevel(cfg.LogLevel)

	var formatter log.Formatter = &log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	}
	if cfg.IsProduction() {
		formatter = &log.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: log.FieldMap{
				log.FieldKeyTime:  "timestamp",
				log.FieldKeyLevel: "level",
				log.FieldKeyMsg:   "message",
			},
		}
	}
	if len(cfg.LogFilter) > 0 {
		formatter = newModuleFilter(formatter, cfg.LogFilter)
	}
	log.SetFormatter(formatter)

	var out io.Writer = os.Stdout
	if cfg.LogFile != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename: cfg.LogFile,
			MaxSize:  logFileMaxSize,
			MaxAge:   logFileMaxAge,
			Compress: true,
		})
	}
	log.SetOutput(out)

	if cfg.AlertWebhook == "" {
		return nil, nil
	}
	hook, err := webhookalert.NewHook(webhookalert.Opts{
		Endpoint: cfg.AlertWebhook,
		Secret:   cfg.AlertWebhookSecret,
	})
	if err != nil {
		return nil, err
	}
	log.AddHook(hook)
	return hook, nil
}

// moduleFilter hides debug and info entries of the modules not listed.
// Warnings and errors are always shown. Hooks are not affected.
type moduleFilter struct {
	log.Formatter
	modules map[string]bool
}

func newModuleFilter(f log.Formatter, modules []string) *moduleFilter {
	m := make(map[string]bool, len(modules))
	for _, name := range modules {
		m[name] = true
	}
	return &moduleFilter{f, m}
}

func (f *moduleFilter) Format(entry *log.Entry) ([]byte, error) {
	if entry.Level <= log.WarnLevel {
		return f.Formatter.Format(entry)
	}
	if module, ok := entry.Data["module"].(string); ok && f.modules[module] {
		return f.Formatter.Format(entry)
	}
	return nil, nil
}
