package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"gopkg.in/yaml.v3"

	"github.com/jxwalker/mdcsync/internal/config"
	cw "github.com/jxwalker/mdcsync/internal/tui/configwizard"
)

func handleConfigWizard(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("config wizard", flag.ContinueOnError)
	out := fs.String("out", "", "write YAML to this path instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	b, err := runWizard(ctx, defaultConfig())
	if err != nil {
		return err
	}
	if *out == "" {
		fmt.Print(string(b))
		return nil
	}
	if err := writeConfig(*out, b); err != nil {
		return err
	}
	fmt.Printf("wrote config to %s\n", *out)
	return nil
}

func defaultConfig() *config.Config {
	return &config.Config{
		Version: 1,
		General: config.General{DataRoot: "~/.local/share/mdcsync"},
		Server:  config.Server{PasswordEnv: "MDCSYNC_APP_PASSWORD"},
		Network: config.Network{TimeoutSeconds: 900},
	}
}

// runWizard runs the config wizard and returns the resulting YAML.
func runWizard(ctx context.Context, defaults *config.Config) ([]byte, error) {
	p := tea.NewProgram(cw.New(defaults), tea.WithContext(ctx))
	m, err := p.Run()
	if err != nil {
		return nil, err
	}
	w, ok := m.(*cw.Wizard)
	if !ok {
		return nil, errors.New("unexpected model type from wizard")
	}
	cfg := w.Config()
	if cfg == nil {
		return nil, errors.New("config wizard was cancelled")
	}
	return yaml.Marshal(cfg)
}

func writeConfig(path string, b []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}
