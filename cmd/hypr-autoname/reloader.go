package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/config"
	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/engine"
	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/util"
)

// configReloader serializes reloads from the file watcher, SIGHUP and the
// control socket. lastGood holds the bytes of the config the engine runs.
type configReloader struct {
	path   string
	logger *util.Logger
	engine *engine.Engine

	mu       sync.Mutex
	lastGood []byte
}

func newConfigReloader(path string, logger *util.Logger, eng *engine.Engine, serialized []byte) *configReloader {
	return &configReloader{path: path, logger: logger, engine: eng, lastGood: append([]byte(nil), serialized...)}
}

// Reload swaps the file's config into the engine and relabels. A file that
// fails to parse leaves the running config untouched.
func (r *configReloader) Reload(ctx context.Context, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Infof("%s, reloading config", reason)
	cfg, raw, err := r.load()
	if err != nil {
		return err
	}
	if diff := config.Diff(r.engine.Config(), cfg); diff == "" {
		r.logger.Infof("config unchanged")
	} else {
		r.logger.Debugf("config changes (-old +new):\n%s", diff)
	}
	r.engine.Reload(cfg)
	r.lastGood = raw

	_, err = r.engine.Pass(engine.WithTrigger(ctx, "reload: "+reason))
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return nil
	default:
		return fmt.Errorf("pass after reload: %w", err)
	}
}

func (r *configReloader) load() (*config.Config, []byte, error) {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		return nil, nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := config.Parse(raw, filepath.Ext(r.path))
	if err != nil {
		if diff := config.DiffSerialized(r.lastGood, raw); diff != "" {
			r.logger.Warnf("config change rejected; diff vs last valid config:\n%s", diff)
		} else {
			r.logger.Warnf("config change rejected")
		}
		return nil, nil, err
	}
	if errs := cfg.Lint(); len(errs) > 0 {
		logLintErrors(r.logger, errs)
	}
	return cfg, raw, nil
}

func logLintErrors(logger *util.Logger, errs []config.LintError) {
	logger.Warnf("config has %d issue(s):", len(errs))
	for _, e := range errs {
		logger.Warnf(" - %s", e.Error())
	}
}
