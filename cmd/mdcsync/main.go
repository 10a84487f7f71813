package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jxwalker/mdcsync/internal/api"
	"github.com/jxwalker/mdcsync/internal/config"
	"github.com/jxwalker/mdcsync/internal/logging"
)

var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		usage()
		return errors.New("no command provided")
	}
	api.Version = version

	cmd := args[0]
	switch cmd {
	case "config":
		return handleConfig(ctx, args[1:])
	case "status":
		return handleStatus(ctx, args[1:])
	case "install", "install-list", "delete-list", "update-list", "check":
		return handleAction(ctx, cmd, args[1:])
	case "store":
		return handleStore(ctx, args[1:])
	case "doctor":
		return handleDoctor(ctx, args[1:])
	case "tui":
		return handleTUI(ctx, args[1:])
	case "version":
		fmt.Println(version)
		return nil
	case "completion":
		return handleCompletion(ctx, args[1:])
	case "help", "-h", "--help":
		usage()
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func usage() {
	fmt.Println(strings.TrimSpace(`mdcsync - keep MediaDC's Python dependencies configured

Usage:
  mdcsync <command> [flags]

Commands:
  config validate      Validate a YAML config file
  config print         Print the loaded config as JSON
  config wizard        Interactive TUI to generate a YAML config
  status               Show installed state and package lists (table or JSON)
  install              Install all Python dependencies
  install-list NAME    Install one dependency list (required|optional|boost)
  delete-list NAME     Delete the non-global packages of a list
  update-list NAME     Update the non-global packages of a list
  check                Re-check installed dependencies
  store list|clear     Inspect or clear the local settings store
  doctor               Diagnose configuration and connectivity
  tui                  Open the interactive terminal dashboard
  version              Print version
  help                 Show this help
  completion           Generate shell completion scripts (bash|zsh|fish)

Flags:
  --config PATH     Path to YAML config file (or MDCSYNC_CONFIG env var; default: ~/.config/mdcsync/config.yml)
  --log-level L     Log level: debug|info|warn|error (per command)
  --json            JSON output (per command)
`))
}

// commonFlags are registered on every subcommand that loads a config.
type commonFlags struct {
	cfgPath  string
	logLevel string
	jsonOut  bool
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	cf := &commonFlags{}
	fs.StringVar(&cf.cfgPath, "config", "", "Path to YAML config file")
	fs.StringVar(&cf.logLevel, "log-level", "", "log level (defaults to logging.level)")
	fs.BoolVar(&cf.jsonOut, "json", false, "json output")
	return cf
}

// path resolves --config, then MDCSYNC_CONFIG, then the default location.
func (cf *commonFlags) path() string {
	if cf.cfgPath != "" {
		return cf.cfgPath
	}
	return config.DefaultPath()
}

func (cf *commonFlags) load() (*config.Config, error) {
	p := cf.path()
	if p == "" {
		return nil, errors.New("--config is required or set MDCSYNC_CONFIG")
	}
	if _, err := os.Stat(p); err != nil {
		return nil, fmt.Errorf("config file not found: %s", p)
	}
	return config.Load(p)
}

func (cf *commonFlags) logger(c *config.Config) *logging.Logger {
	level := cf.logLevel
	jsonLogs := false
	if c != nil {
		if level == "" {
			level = c.Logging.Level
		}
		jsonLogs = strings.EqualFold(c.Logging.Format, "json")
	}
	if level == "" {
		level = "info"
	}
	return logging.New(level, jsonLogs)
}

func handleConfig(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("config subcommand required: validate | print | wizard")
	}
	sub := args[0]
	switch sub {
	case "validate":
		return configOp(args[1:], func(c *config.Config, log *logging.Logger) error {
			if err := c.ValidateWithFriendlyErrors(); err != nil {
				return err
			}
			log.Infof("config: valid")
			return nil
		})
	case "print":
		return configOp(args[1:], func(c *config.Config, log *logging.Logger) error {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(c)
		})
	case "wizard":
		return handleConfigWizard(ctx, args[1:])
	default:
		return fmt.Errorf("unknown config subcommand: %s", sub)
	}
}

func configOp(args []string, fn func(*config.Config, *logging.Logger) error) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	cf := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	c, err := cf.load()
	if err != nil {
		return err
	}
	return fn(c, cf.logger(c))
}
