package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/config"
	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/control/client"
	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/ui/tui"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(argv []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("autonamectl", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SetInterspersed(false)
	socket := fs.String("socket", "", "path to the daemon control socket")
	timeout := fs.Duration("timeout", 3*time.Second, "control request timeout")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s [flags] <command> [args]\n", fs.Name())
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Commands:")
		fmt.Fprintln(stderr, "  labels\t\t\tshow the labels last sent to Hyprland")
		fmt.Fprintln(stderr, "  preview\t\trender labels without renaming")
		fmt.Fprintln(stderr, "  status\t\tshow daemon counters")
		fmt.Fprintln(stderr, "  history\t\tshow recent renames")
		fmt.Fprintln(stderr, "  reload\t\ttrigger a live config reload")
		fmt.Fprintln(stderr, "  watch\t\t\tlive dashboard of labels and renames")
		fmt.Fprintln(stderr, "  check --config <path>\tvalidate a configuration file")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Flags:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(argv); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	args := fs.Args()
	if len(args) == 0 {
		fs.Usage()
		return fmt.Errorf("missing subcommand")
	}
	if args[0] == "check" {
		return runCheck(args[1:], stdout, stderr)
	}

	cli, err := client.New(*socket)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	if args[0] == "watch" {
		return runWatch(cli, stdout)
	}
	ctx := context.Background()
	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	switch args[0] {
	case "labels":
		labels, err := cli.Labels(ctx)
		if err != nil {
			return err
		}
		printLabels(stdout, labels)
		return nil
	case "preview":
		labels, err := cli.Preview(ctx)
		if err != nil {
			return err
		}
		printLabels(stdout, labels)
		return nil
	case "status":
		return runStatus(ctx, cli, stdout)
	case "history":
		return runHistory(ctx, cli, stdout)
	case "reload":
		if err := cli.Reload(ctx); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "Reload requested")
		return nil
	default:
		fs.Usage()
		return fmt.Errorf("unknown subcommand %q", args[0])
	}
}

func runCheck(args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("check", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.StringP("config", "c", "", "path to configuration file")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: autonamectl check --config <path>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if *configPath == "" {
		fs.Usage()
		return fmt.Errorf("check requires --config <path>")
	}

	lintErrs, err := config.LintFile(*configPath)
	if err != nil {
		return err
	}
	if len(lintErrs) == 0 {
		fmt.Fprintln(stdout, "Configuration OK")
		return nil
	}

	fmt.Fprintf(stderr, "Configuration has %d issue(s):\n", len(lintErrs))
	for _, lintErr := range lintErrs {
		fmt.Fprintf(stderr, "- %s\n", lintErr.Error())
	}
	return fmt.Errorf("configuration validation failed")
}

func printLabels(w io.Writer, labels map[int]string) {
	if len(labels) == 0 {
		fmt.Fprintln(w, "No workspaces")
		return
	}
	ids := make([]int, 0, len(labels))
	for id := range labels {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		fmt.Fprintf(w, "%d\t%q\n", id, labels[id])
	}
}

func runStatus(ctx context.Context, cli *client.Client, w io.Writer) error {
	status, err := cli.Status(ctx)
	if err != nil {
		return err
	}
	m := status.Metrics
	if status.ConfigPath != "" {
		fmt.Fprintf(w, "config:            %s\n", status.ConfigPath)
	}
	if status.DryRun {
		fmt.Fprintln(w, "mode:              dry-run")
	}
	fmt.Fprintf(w, "known workspaces:  %v\n", status.Known)
	fmt.Fprintf(w, "passes:            %d (%d skipped)\n", m.Totals.Passes, m.Totals.SkippedPasses)
	fmt.Fprintf(w, "renames:           %d (%d unchanged)\n", m.Totals.Renames, m.Totals.Suppressed)
	fmt.Fprintf(w, "dispatch errors:   %d\n", m.Totals.DispatchErrors)
	fmt.Fprintf(w, "placeholder loops: %d\n", m.Totals.PlaceholderLoops)
	fmt.Fprintf(w, "windows w/o icon:  %d\n", m.Totals.Unmatched)
	if !m.LastPass.At.IsZero() {
		fmt.Fprintf(w, "last pass:         %s (%s, %d windows)\n", m.LastPass.At.Format(time.RFC3339), m.LastPass.Duration, m.LastPass.Windows)
	}
	for _, r := range m.Rules {
		fmt.Fprintf(w, "  %-36s %-24q %d\n", r.Tier, r.Rule, r.Matched)
	}
	return nil
}

func runHistory(ctx context.Context, cli *client.Client, w io.Writer) error {
	history, err := cli.History(ctx)
	if err != nil {
		return err
	}
	if len(history.Renames) == 0 {
		fmt.Fprintln(w, "No renames yet")
		return nil
	}
	for _, r := range history.Renames {
		line := fmt.Sprintf("%s  %-8s workspace %d %q -> %q", r.Timestamp.Format(time.TimeOnly), r.Status, r.Workspace, r.Previous, r.Label)
		if r.Trigger != "" {
			line += "  [" + r.Trigger + "]"
		}
		if r.Error != "" {
			line += ": " + r.Error
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

func runWatch(cli *client.Client, w io.Writer) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := tui.New(cli, w).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
