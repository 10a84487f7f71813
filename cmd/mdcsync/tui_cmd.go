package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jxwalker/mdcsync/internal/config"
	"github.com/jxwalker/mdcsync/internal/configure"
	"github.com/jxwalker/mdcsync/internal/logging"
	"github.com/jxwalker/mdcsync/internal/notify"
	ui "github.com/jxwalker/mdcsync/internal/tui"
)

func handleTUI(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tui", flag.ContinueOnError)
	cf := addCommonFlags(fs)
	logFile := fs.String("log-file", "", "write logs to this file (the dashboard owns the terminal)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path := cf.path()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		// First run: create the config with the wizard.
		b, werr := runWizard(ctx, defaultConfig())
		if werr != nil {
			return werr
		}
		if err := writeConfig(path, b); err != nil {
			return err
		}
		fmt.Printf("wrote config to %s\n", path)
	}
	c, err := config.Load(path)
	if err != nil {
		return err
	}

	var out io.Writer = io.Discard
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		out = f
	}
	level := cf.logLevel
	if level == "" {
		level = c.Logging.Level
	}
	log := logging.NewWriter(out, level, c.Logging.Format == "json")

	s, err := openSession(c, log, true)
	if err != nil {
		return err
	}
	defer s.Close()

	router := configure.NewRouteHolder(configure.RouteCollector)
	toasts := ui.NewToastBox()
	conf := s.configurator(s.notifier(toasts, notify.Log(log)), router)
	m := ui.New(ctx, c, conf, router, toasts, s.db, version)
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
