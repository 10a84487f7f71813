package tui

import (
	"context"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jxwalker/mdcsync/internal/api"
	"github.com/jxwalker/mdcsync/internal/config"
	"github.com/jxwalker/mdcsync/internal/configure"
)

// Configurator is the part of *configure.Configurator the TUI drives.
type Configurator interface {
	Start(ctx context.Context) error
	Snapshot() configure.State
	Install(ctx context.Context) error
	InstallDepsList(ctx context.Context, listName string) error
	DeleteDepsList(ctx context.Context, listName string) error
	UpdateDepsList(ctx context.Context, listName string) error
	Check(ctx context.Context) error
	FinishConfiguration()
}

// SettingsLister feeds the collector view; state.DB and state.Memory implement it.
type SettingsLister interface {
	ListSettings(ctx context.Context) ([]api.Setting, error)
}

type tickMsg time.Time

type startedMsg struct{ err error }

type actionDoneMsg struct {
	action string
	err    error
}

type settingsMsg struct {
	settings []api.Setting
	err      error
}

// Model is the bubbletea program for mdcsync. The router is shared with
// the Configurator, which pushes routes from command goroutines.
type Model struct {
	cfg     *config.Config
	conf    Configurator
	router  *configure.RouteHolder
	toasts  *ToastBox
	lister  SettingsLister
	version string
	ctx     context.Context

	th       Theme
	w, h     int
	snap     configure.State
	settings []api.Setting
	selected int
	started  bool
	startErr error

	showHelp    bool
	showToasts  bool
	confirmDel  string
	filterOn    bool
	filterInput textinput.Model
	spin        spinner.Model
}

// New builds the TUI. router must be the Navigator given to conf.
func New(ctx context.Context, cfg *config.Config, conf Configurator, router *configure.RouteHolder, toasts *ToastBox, lister SettingsLister, version string) *Model {
	fi := textinput.New()
	fi.Placeholder = "Filter packages..."
	fi.CharLimit = 64
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	if ctx == nil {
		ctx = context.Background()
	}
	if toasts == nil {
		toasts = NewToastBox()
	}
	return &Model{
		cfg:         cfg,
		conf:        conf,
		router:      router,
		toasts:      toasts,
		lister:      lister,
		version:     version,
		ctx:         ctx,
		th:          defaultTheme(),
		filterInput: fi,
		spin:        sp,
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.startCmd(), m.tickCmd(), m.spin.Tick)
}

func (m *Model) refreshInterval() time.Duration {
	hz := 1
	if m.cfg != nil && m.cfg.UI.RefreshHz > 0 {
		hz = m.cfg.UI.RefreshHz
	}
	if hz > 10 {
		hz = 10
	}
	return time.Second / time.Duration(hz)
}

func (m *Model) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshInterval(), func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) startCmd() tea.Cmd {
	return func() tea.Msg {
		return startedMsg{err: m.conf.Start(m.ctx)}
	}
}

func (m *Model) loadSettingsCmd() tea.Cmd {
	if m.lister == nil {
		return nil
	}
	return func() tea.Msg {
		s, err := m.lister.ListSettings(m.ctx)
		return settingsMsg{settings: s, err: err}
	}
}

func (m *Model) actionCmd(name string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{action: name, err: fn(m.ctx)}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.w, m.h = msg.Width, msg.Height
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tickMsg:
		m.refresh()
		return m, m.tickCmd()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case startedMsg:
		m.started = true
		m.startErr = msg.err
		m.refresh()
		return m, m.loadSettingsCmd()
	case actionDoneMsg:
		// the Configurator already raised a toast for the outcome
		m.refresh()
		return m, m.loadSettingsCmd()
	case settingsMsg:
		if msg.err == nil {
			m.settings = msg.settings
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) refresh() {
	m.snap = m.conf.Snapshot()
	if n := len(m.listNames()); m.selected >= n {
		m.selected = n - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m *Model) route() string {
	if m.router == nil {
		return configure.RouteConfiguration
	}
	if r := m.router.CurrentRoute(); r != "" {
		return r
	}
	return configure.RouteCollector
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.filterOn {
		return m.updateFilter(msg)
	}
	if m.confirmDel != "" {
		return m.updateConfirm(msg)
	}

	s := msg.String()
	switch s {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "?":
		m.showHelp = true
		return m, nil
	case "H":
		m.showToasts = !m.showToasts
		return m, nil
	case "R":
		return m, m.startCmd()
	}
	if m.route() == configure.RouteCollector {
		return m.handleCollectorKey(s)
	}
	return m.handleConfigurationKey(s)
}

func (m *Model) handleCollectorKey(s string) (tea.Model, tea.Cmd) {
	switch s {
	case "c":
		m.router.Push(configure.RouteConfiguration)
	}
	return m, nil
}

func (m *Model) handleConfigurationKey(s string) (tea.Model, tea.Cmd) {
	names := m.listNames()
	current := ""
	if m.selected >= 0 && m.selected < len(names) {
		current = names[m.selected]
	}
	// busy flags only gate key bindings
	switch s {
	case "j", "down":
		if m.selected < len(names)-1 {
			m.selected++
		}
	case "k", "up":
		if m.selected > 0 {
			m.selected--
		}
	case "/":
		m.filterOn = true
		m.filterInput.Focus()
	case "i":
		if !m.snap.Installing {
			m.snap.Installing = true
			return m, m.actionCmd(configure.ActionInstall, m.conf.Install)
		}
	case "c":
		if !m.snap.Checking {
			m.snap.Checking = true
			return m, m.actionCmd(configure.ActionCheck, m.conf.Check)
		}
	case "I":
		if current != "" && !m.snap.Updating {
			m.snap.Updating = true
			return m, m.actionCmd(configure.ActionInstallList, func(ctx context.Context) error {
				return m.conf.InstallDepsList(ctx, current)
			})
		}
	case "u":
		if m.hasInstalled(current) && !m.snap.Updating {
			m.snap.Updating = true
			return m, m.actionCmd(configure.ActionUpdateList, func(ctx context.Context) error {
				return m.conf.UpdateDepsList(ctx, current)
			})
		}
	case "D":
		if m.hasInstalled(current) && !m.snap.Updating {
			m.confirmDel = current
		}
	case "f":
		if m.snap.Installed {
			m.conf.FinishConfiguration()
			m.refresh()
		}
	}
	return m, nil
}

func (m *Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	list := m.confirmDel
	m.confirmDel = ""
	switch msg.String() {
	case "y", "Y":
		m.snap.Updating = true
		return m, m.actionCmd(configure.ActionDeleteList, func(ctx context.Context) error {
			return m.conf.DeleteDepsList(ctx, list)
		})
	}
	return m, nil
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "ctrl+j":
		m.filterOn = false
		m.filterInput.Blur()
		return m, nil
	case "esc":
		m.filterOn = false
		m.filterInput.SetValue("")
		m.filterInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	return m, cmd
}

// listNames returns the dependency tiers first, then any other list the
// server reported, sorted.
func (m *Model) listNames() []string {
	names := []string{"required", "optional", "boost"}
	seen := map[string]bool{"required": true, "optional": true, "boost": true}
	var extra []string
	for name := range m.snap.InstalledList {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

func (m *Model) hasInstalled(list string) bool {
	_, ok := m.snap.InstalledList[list]
	return ok
}
