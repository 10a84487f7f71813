package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jxwalker/mdcsync/internal/api"
	"github.com/jxwalker/mdcsync/internal/config"
	"github.com/jxwalker/mdcsync/internal/logging"
	"github.com/jxwalker/mdcsync/internal/state"
	"github.com/jxwalker/mdcsync/internal/system"
)

// Check represents a single diagnostic check
type Check struct {
	Name        string
	Run         func(ctx context.Context) CheckResult
	Critical    bool // If true, failure suggests mdcsync won't work
	Description string
}

// CheckResult represents the result of a diagnostic check
type CheckResult struct {
	Passed     bool
	Warning    bool // Passed but with warnings
	Message    string
	Suggestion string
}

func handleDoctor(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "Path to YAML config file")
	verbose := fs.Bool("verbose", false, "Show detailed output for each check")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *cfgPath == "" {
		*cfgPath = config.DefaultPath()
	}
	return runDoctor(ctx, os.Stdout, *cfgPath, *verbose)
}

func doctorChecks(cfgPath string) []Check {
	// Config loading failures are reported by the checks themselves.
	var cfg *config.Config
	var cfgErr error
	if cfgPath != "" {
		cfg, cfgErr = config.Load(cfgPath)
	}
	notLoaded := CheckResult{Passed: false, Message: "Config not loaded"}

	return []Check{
		{
			Name:        "Config file exists",
			Critical:    true,
			Description: "Configuration file must exist for mdcsync to work",
			Run: func(ctx context.Context) CheckResult {
				if cfgPath == "" {
					return CheckResult{
						Message:    "No config path specified",
						Suggestion: "Set MDCSYNC_CONFIG or use --config flag\nRun 'mdcsync config wizard' to create a configuration",
					}
				}
				if _, err := os.Stat(cfgPath); err != nil {
					return CheckResult{
						Message:    fmt.Sprintf("Config file not found: %s", cfgPath),
						Suggestion: "Run 'mdcsync config wizard --out " + cfgPath + "' to create a configuration",
					}
				}
				return CheckResult{Passed: true, Message: fmt.Sprintf("Found: %s", cfgPath)}
			},
		},
		{
			Name:        "Config is valid",
			Critical:    true,
			Description: "Configuration must parse and validate",
			Run: func(ctx context.Context) CheckResult {
				if cfgErr != nil {
					return CheckResult{
						Message:    "Config parsing failed",
						Suggestion: fmt.Sprintf("Fix config errors:\n%v\n\nRun 'mdcsync config validate' for details", cfgErr),
					}
				}
				if cfg == nil {
					return notLoaded
				}
				var warnings []string
				for _, e := range cfg.ValidateDetailed() {
					if e.Field == "server.password_env" {
						continue // own check below
					}
					warnings = append(warnings, e.Error())
				}
				if len(warnings) > 0 {
					return CheckResult{Passed: true, Warning: true, Message: "Valid with warnings", Suggestion: strings.Join(warnings, "\n")}
				}
				return CheckResult{Passed: true, Message: "Valid"}
			},
		},
		{
			Name:        "Data directory is writable",
			Critical:    true,
			Description: "The settings store and lock file live in general.data_root",
			Run: func(ctx context.Context) CheckResult {
				if cfg == nil {
					return notLoaded
				}
				dir := cfg.General.DataRoot
				if err := config.EnsureDir(dir, 0o755); err != nil {
					return CheckResult{
						Message:    fmt.Sprintf("Directory doesn't exist and can't be created: %s", dir),
						Suggestion: fmt.Sprintf("Create manually: mkdir -p %s", dir),
					}
				}
				probe := filepath.Join(dir, ".mdcsync-write-test")
				if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
					return CheckResult{
						Message:    fmt.Sprintf("Directory is not writable: %s", dir),
						Suggestion: fmt.Sprintf("Fix permissions: chmod u+w %s", dir),
					}
				}
				_ = os.Remove(probe)
				return CheckResult{Passed: true, Message: dir}
			},
		},
		{
			Name:        "Free disk space in data directory",
			Critical:    false,
			Description: "sqlite needs room for its journal",
			Run: func(ctx context.Context) CheckResult {
				if cfg == nil {
					return notLoaded
				}
				low, avail, err := system.IsLowSpace(cfg.General.DataRoot)
				if err != nil {
					return CheckResult{Passed: true, Warning: true, Message: err.Error()}
				}
				if low {
					return CheckResult{
						Passed:     true,
						Warning:    true,
						Message:    fmt.Sprintf("Only %s free", humanize.Bytes(avail)),
						Suggestion: "Free some space or move general.data_root",
					}
				}
				return CheckResult{Passed: true, Message: fmt.Sprintf("%s free", humanize.Bytes(avail))}
			},
		},
		{
			Name:        "Settings store opens",
			Critical:    false,
			Description: "Local sqlite cache of server settings",
			Run: func(ctx context.Context) CheckResult {
				if cfg == nil {
					return notLoaded
				}
				db, err := state.Open(cfg)
				if err != nil {
					return CheckResult{
						Message:    fmt.Sprintf("Cannot open %s: %v", cfg.StatePath(), err),
						Suggestion: "The store only caches server state; remove it and it will be rebuilt",
					}
				}
				defer func() { _ = db.Close() }()
				settings, err := db.ListSettings(ctx)
				if err != nil {
					return CheckResult{Message: fmt.Sprintf("Store unreadable: %v", err), Suggestion: "Run 'mdcsync store clear'"}
				}
				size := ""
				if fi, err := os.Stat(cfg.StatePath()); err == nil {
					size = ", " + humanize.Bytes(uint64(fi.Size()))
				}
				return CheckResult{Passed: true, Message: fmt.Sprintf("%d cached settings%s", len(settings), size)}
			},
		},
		{
			Name:        "App password environment variable",
			Critical:    true,
			Description: "Nextcloud app password for the MediaDC API",
			Run: func(ctx context.Context) CheckResult {
				if cfg == nil {
					return notLoaded
				}
				env := cfg.PasswordEnv()
				if os.Getenv(env) == "" {
					return CheckResult{
						Message:    fmt.Sprintf("%s not set", env),
						Suggestion: fmt.Sprintf("Create an app password under Settings > Security and export it:\n  export %s=...", env),
					}
				}
				return CheckResult{Passed: true, Message: fmt.Sprintf("%s is set", env)}
			},
		},
		{
			Name:        "Nextcloud host reachable",
			Critical:    true,
			Description: "DNS and TCP connectivity to server.url",
			Run: func(ctx context.Context) CheckResult {
				if cfg == nil {
					return notLoaded
				}
				if err := system.CheckServerReachable(ctx, cfg.Server.URL); err != nil {
					return CheckResult{Message: "Host check failed", Suggestion: err.Error()}
				}
				msg := "Reachable"
				if p := system.ProxyFor(cfg.Server.URL); p != "" {
					msg += " via proxy " + p
				}
				return CheckResult{Passed: true, Message: msg}
			},
		},
		{
			Name:        "MediaDC API reachable",
			Critical:    true,
			Description: "The server answers the settings endpoint",
			Run: func(ctx context.Context) CheckResult {
				if cfg == nil {
					return notLoaded
				}
				client, err := api.New(cfg, logging.Discard())
				if err != nil {
					return CheckResult{Message: err.Error()}
				}
				ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
				defer cancel()
				res, err := client.GetSetting(ctx, api.InstalledSettingName)
				if err != nil {
					return CheckResult{Message: fmt.Sprintf("%s unreachable", logging.SanitizeURL(client.GenerateURL("settings"))), Suggestion: err.Error()}
				}
				if !res.Success {
					return CheckResult{Passed: true, Warning: true, Message: "Server has no installed setting yet", Suggestion: "Open the MediaDC app once in the browser, then run 'mdcsync check'"}
				}
				v, err := res.Setting.DecodeInstalled()
				if err != nil {
					return CheckResult{Passed: true, Warning: true, Message: "Installed setting is malformed", Suggestion: "Run 'mdcsync check' to rebuild it"}
				}
				if !v.Status {
					return CheckResult{Passed: true, Warning: true, Message: "Reachable; Python dependencies not installed", Suggestion: "Run 'mdcsync install'"}
				}
				return CheckResult{Passed: true, Message: "Reachable; Python dependencies installed"}
			},
		},
		{
			Name:        "No stale lock file",
			Critical:    false,
			Description: "Mutating commands take a lock in data_root",
			Run: func(ctx context.Context) CheckResult {
				if cfg == nil {
					return notLoaded
				}
				fi, err := os.Stat(cfg.LockPath())
				if os.IsNotExist(err) {
					return CheckResult{Passed: true, Message: "No lock held"}
				}
				if err != nil {
					return CheckResult{Message: err.Error()}
				}
				return CheckResult{
					Passed:     true,
					Warning:    true,
					Message:    fmt.Sprintf("Lock file present since %s", humanize.Time(fi.ModTime())),
					Suggestion: fmt.Sprintf("If no other mdcsync is running: rm %s", cfg.LockPath()),
				}
			},
		},
	}
}

func runDoctor(ctx context.Context, w io.Writer, cfgPath string, verbose bool) error {
	fmt.Fprintln(w, "Running mdcsync diagnostics...")
	fmt.Fprintln(w)

	checks := doctorChecks(cfgPath)
	passedCount, failedCount, warningCount := 0, 0, 0
	for _, check := range checks {
		if verbose {
			fmt.Fprintf(w, "[ ] %s...\n", check.Name)
		}
		start := time.Now()
		result := check.Run(ctx)
		duration := time.Since(start)

		symbol := "✓"
		switch {
		case !result.Passed:
			symbol = "✗"
			failedCount++
		case result.Warning:
			symbol = "⚠"
			warningCount++
			passedCount++
		default:
			passedCount++
		}

		fmt.Fprintf(w, "%s %s", symbol, check.Name)
		if verbose {
			fmt.Fprintf(w, " (%.2fs)", duration.Seconds())
		}
		fmt.Fprintln(w)
		if result.Message != "" {
			fmt.Fprintf(w, "  %s\n", result.Message)
		}
		if result.Suggestion != "" {
			for _, line := range strings.Split(result.Suggestion, "\n") {
				fmt.Fprintf(w, "  → %s\n", line)
			}
		}
		if verbose || !result.Passed || result.Warning {
			fmt.Fprintln(w)
		}
	}

	fmt.Fprintf(w, "\nDiagnostic Summary:\n")
	fmt.Fprintf(w, "  Total checks: %d\n", len(checks))
	fmt.Fprintf(w, "  Passed:       %d\n", passedCount)
	fmt.Fprintf(w, "  Warnings:     %d\n", warningCount)
	fmt.Fprintf(w, "  Failed:       %d\n", failedCount)

	if failedCount > 0 {
		fmt.Fprintln(w, "\n⚠ Some critical checks failed. mdcsync may not work correctly.")
		return fmt.Errorf("%d checks failed", failedCount)
	}
	if warningCount > 0 {
		fmt.Fprintln(w, "\n⚠ Some checks have warnings. mdcsync will work but some features may be limited.")
	} else {
		fmt.Fprintln(w, "\n✓ All checks passed! mdcsync is ready to use.")
	}
	return nil
}
