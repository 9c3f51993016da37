package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/config"
	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/control"
	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/engine"
	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/instance"
	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/ipc"
	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/metrics"
	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/util"
)

type options struct {
	configPath string
	verbose    bool
	debug      bool
	logLevel   string
	dump       bool
	migrate    bool
	dryRun     bool
	dispatch   ipc.DispatchStrategy
	help       bool
}

func parseFlags(args []string, stderr io.Writer) (options, *pflag.FlagSet, error) {
	var (
		opts     options
		dispatch string
	)
	fs := pflag.NewFlagSet("hypr-autoname", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&opts.configPath, "config", "c", "", "path to config file (default $XDG_CONFIG_HOME/hyprland-autoname-workspaces/config.toml)")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "log every rename")
	fs.BoolVarP(&opts.debug, "debug", "d", false, "log rule matching and template expansion")
	fs.StringVar(&opts.logLevel, "log-level", "", "log level (trace|debug|info|warn|error); overrides -v/-d")
	fs.BoolVar(&opts.dump, "dump", false, "print the effective config as YAML and exit")
	fs.BoolVar(&opts.migrate, "migrate-config", false, "rewrite the config as TOML in the current layout and exit")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "log renames instead of dispatching them")
	fs.StringVar(&dispatch, "dispatch", string(ipc.DispatchStrategySocket), "dispatch strategy (socket|hyprctl)")
	fs.BoolVarP(&opts.help, "help", "h", false, "show help")

	if err := fs.Parse(args); err != nil {
		return opts, fs, err
	}
	opts.dispatch = ipc.DispatchStrategy(strings.ToLower(dispatch))
	switch opts.dispatch {
	case ipc.DispatchStrategySocket, ipc.DispatchStrategyHyprctl:
	default:
		return opts, fs, fmt.Errorf("unsupported dispatch strategy %q", dispatch)
	}
	if fs.NArg() > 0 {
		return opts, fs, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	return opts, fs, nil
}

func (o options) level() util.LogLevel {
	switch {
	case o.logLevel != "":
		return util.ParseLogLevel(o.logLevel)
	case o.debug:
		return util.LevelTrace
	case o.verbose:
		return util.LevelDebug
	default:
		return util.LevelInfo
	}
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	opts, fs, err := parseFlags(args, os.Stderr)
	if err != nil {
		return err
	}
	if opts.help {
		fmt.Fprintf(os.Stderr, "Usage: hypr-autoname [flags]\n\n%s", fs.FlagUsages())
		return nil
	}
	logger := util.NewLogger(opts.level())

	cfgPath := opts.configPath
	if cfgPath == "" {
		if cfgPath, err = config.DefaultPath(); err != nil {
			return err
		}
	}
	created, err := config.WriteDefault(cfgPath)
	if err != nil {
		return err
	}
	if created {
		logger.Infof("wrote default config to %s", cfgPath)
	}

	if opts.migrate {
		written, err := config.Migrate(cfgPath)
		if err != nil {
			return fmt.Errorf("migrate config: %w", err)
		}
		logger.Infof("migrated config written to %s", written)
		return nil
	}

	raw, err := os.ReadFile(cfgPath)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	cfg, err := config.Parse(raw, filepath.Ext(cfgPath))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.dump {
		out, err := config.DumpYAML(cfg)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(out)
		return err
	}
	if lintErrs := cfg.Lint(); len(lintErrs) > 0 {
		logLintErrors(logger, lintErrs)
	}

	lock, err := instance.Acquire(instance.DefaultPath())
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warnf("%v", err)
		}
	}()

	hypr, strategy, err := ipc.NewEngineClient(logger.Named("ipc"), opts.dispatch)
	if err != nil {
		return fmt.Errorf("configure dispatch strategy: %w", err)
	}
	logger.Infof("using %s dispatch strategy", strategy)
	eng := engine.New(hypr, logger.Named("engine"), cfg, opts.dryRun, metrics.NewCollector(true))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloader := newConfigReloader(cfgPath, logger.Named("config"), eng, raw)
	watcher, reloadRequests, err := startConfigWatcher(logger, cfgPath)
	if err != nil {
		return err
	}
	defer watcher.Close()

	ctrlSrv, err := control.NewServer(eng, logger.Named("control"), cfgPath, func(reason string) error {
		return reloader.Reload(ctx, reason)
	})
	if err != nil {
		return fmt.Errorf("start control server: %w", err)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigs)

	engineErr := make(chan error, 1)
	go func() {
		engineErr <- eng.Run(ctx)
	}()
	go func() {
		if err := ctrlSrv.Serve(ctx); err != nil {
			logger.Warnf("control server stopped: %v", err)
		}
	}()

	for {
		select {
		case err := <-engineErr:
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("engine exited: %w", err)
			}
			return nil
		case reason := <-reloadRequests:
			if err := reloader.Reload(ctx, reason); err != nil {
				logger.Errorf("reload failed: %v", err)
			}
		case sig := <-sigs:
			switch sig {
			case syscall.SIGHUP:
				if err := reloader.Reload(ctx, "received SIGHUP"); err != nil {
					logger.Errorf("reload failed: %v", err)
				}
			case os.Interrupt, syscall.SIGTERM:
				logger.Infof("received %s, clearing labels and shutting down", sig)
				cancel()
				<-engineErr
				if err := eng.Reset(); err != nil {
					logger.Warnf("%v", err)
				}
				return nil
			}
		}
	}
}
