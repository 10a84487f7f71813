package configwizard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jxwalker/mdcsync/internal/config"
)

type field struct {
	label string
	ph    string
	value func(*config.Config) string
}

var fields = []field{
	{"general.data_root", "~/.local/share/mdcsync", func(c *config.Config) string { return c.General.DataRoot }},
	{"server.url", "https://cloud.example.com", func(c *config.Config) string { return c.Server.URL }},
	{"server.user", "admin", func(c *config.Config) string { return c.Server.User }},
	{"server.password_env", "MDCSYNC_APP_PASSWORD", func(c *config.Config) string { return c.PasswordEnv() }},
	{"server.pretty_urls (true|false)", "false", func(c *config.Config) string { return strconv.FormatBool(c.Server.PrettyURLs) }},
	{"network.timeout_seconds", "900", func(c *config.Config) string {
		if c.Network.TimeoutSeconds > 0 {
			return strconv.Itoa(c.Network.TimeoutSeconds)
		}
		return ""
	}},
}

type Wizard struct {
	inputs []textinput.Model
	focus  int
	done   bool
	out    *config.Config
}

func New(defaults *config.Config) *Wizard {
	if defaults == nil {
		defaults = &config.Config{Version: 1}
	}
	w := &Wizard{}
	for _, f := range fields {
		ti := textinput.New()
		ti.Prompt = "> "
		ti.Placeholder = f.ph
		ti.SetValue(f.value(defaults))
		ti.CharLimit = 256
		w.inputs = append(w.inputs, ti)
	}
	// the password is never stored, only the variable naming it
	w.inputs[0].Focus()
	return w
}

func (w *Wizard) Init() tea.Cmd { return nil }

func (w *Wizard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.KeyMsg:
		switch m.String() {
		case "ctrl+c", "esc":
			w.done = true
			return w, tea.Quit
		case "tab", "shift+tab", "enter", "up", "down":
			if m.String() == "enter" && w.focus == len(w.inputs)-1 {
				w.done = true
				w.out = w.buildConfig()
				return w, tea.Quit
			}
			if m.String() == "up" || m.String() == "shift+tab" {
				w.focus--
				if w.focus < 0 {
					w.focus = 0
				}
			} else {
				w.focus++
				if w.focus >= len(w.inputs) {
					w.focus = len(w.inputs) - 1
				}
			}
			for j := range w.inputs {
				if j == w.focus {
					w.inputs[j].Focus()
				} else {
					w.inputs[j].Blur()
				}
			}
			return w, nil
		}
	}
	cmds := make([]tea.Cmd, len(w.inputs))
	for i := range w.inputs {
		w.inputs[i], cmds[i] = w.inputs[i].Update(msg)
	}
	return w, tea.Batch(cmds...)
}

func (w *Wizard) View() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render("mdcsync config wizard") + "\n")
	b.WriteString("Fill in fields. Tab/Shift-Tab to navigate, Enter on the last field to submit. Esc to quit.\n\n")
	for i, input := range w.inputs {
		marker := " "
		if i == w.focus {
			marker = ">"
		}
		b.WriteString(fmt.Sprintf("%s %-34s %s\n", marker, fields[i].label+":", input.View()))
	}
	if w.done && w.out != nil {
		b.WriteString("\nDone. Saving...\n")
	}
	return b.String()
}

func (w *Wizard) buildConfig() *config.Config {
	get := func(i int) string { return strings.TrimSpace(w.inputs[i].Value()) }
	orDefault := func(i int) string {
		if v := get(i); v != "" {
			return v
		}
		return fields[i].ph
	}
	o := &config.Config{Version: 1}
	o.General.DataRoot = orDefault(0)
	o.Server.URL = strings.TrimRight(get(1), "/")
	o.Server.User = get(2)
	o.Server.PasswordEnv = orDefault(3)
	o.Server.PrettyURLs = parseBool(get(4))
	if n, err := strconv.Atoi(get(5)); err == nil && n >= 0 {
		o.Network.TimeoutSeconds = n
	}
	o.Logging.Level = "info"
	o.Logging.Format = "human"
	return o
}

func parseBool(s string) bool {
	return strings.EqualFold(s, "true") || s == "1" || strings.EqualFold(s, "y") || strings.EqualFold(s, "yes")
}

// Config returns the built config, or nil if the wizard was cancelled.
func (w *Wizard) Config() *config.Config { return w.out }
