package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/jxwalker/mdcsync/internal/api"
	"github.com/jxwalker/mdcsync/internal/configure"
)

// Theme holds the lipgloss styles used across views.
type Theme struct {
	border      lipgloss.Style
	title       lipgloss.Style
	label       lipgloss.Style
	row         lipgloss.Style
	rowSelected lipgloss.Style
	head        lipgloss.Style
	footer      lipgloss.Style
	ok          lipgloss.Style
	warn        lipgloss.Style
	bad         lipgloss.Style
}

func defaultTheme() Theme {
	b := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	return Theme{
		border:      b.BorderForeground(lipgloss.Color("63")),
		title:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81")),
		label:       lipgloss.NewStyle().Faint(true),
		row:         lipgloss.NewStyle(),
		rowSelected: lipgloss.NewStyle().Bold(true),
		head:        lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true),
		footer:      lipgloss.NewStyle().Faint(true),
		ok:          lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		warn:        lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		bad:         lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
}

func (m *Model) View() string {
	header := m.renderHeader()
	var body string
	switch {
	case m.showHelp:
		body = m.renderHelp()
	case m.showToasts:
		body = m.renderToastDrawer()
	case !m.started:
		// Loading stays set after a navigation; the destination view
		// replaces the spinner once startup has returned.
		body = m.spin.View() + " Loading settings..."
	case m.route() == configure.RouteCollector:
		body = m.renderCollector()
	default:
		body = m.renderConfiguration()
	}
	footer := m.renderFooter()
	return lipgloss.JoinVertical(lipgloss.Left, header, m.th.border.Render(body), footer)
}

func (m *Model) renderHeader() string {
	title := m.th.title.Render("mdcsync " + m.version)
	status := m.th.bad.Render("not installed")
	if m.snap.Installed {
		status = m.th.ok.Render("installed")
	}
	server := ""
	if m.cfg != nil {
		server = m.th.label.Render(m.cfg.Server.URL)
	}
	return fmt.Sprintf("%s  %s  %s  [%s]", title, status, server, m.route())
}

func (m *Model) renderFooter() string {
	var sb strings.Builder
	sb.WriteString(m.renderToasts())
	if m.confirmDel != "" {
		sb.WriteString(m.th.warn.Render(fmt.Sprintf("Delete installed %s packages? (y/N)", m.confirmDel)))
		return sb.String()
	}
	if m.filterOn {
		sb.WriteString(m.filterInput.View())
		return sb.String()
	}
	var busy []string
	if m.snap.Installing {
		busy = append(busy, "installing")
	}
	if m.snap.Checking {
		busy = append(busy, "checking")
	}
	if m.snap.Updating {
		busy = append(busy, "updating")
	}
	if len(busy) > 0 {
		sb.WriteString(m.spin.View() + " " + strings.Join(busy, ", ") + "  ")
	}
	if m.route() == configure.RouteCollector {
		sb.WriteString(m.th.footer.Render("c configuration • R reload • H toasts • ? help • q quit"))
	} else {
		sb.WriteString(m.th.footer.Render("i install • c check • I/u/D list install/update/delete • f finish • / filter • ? help • q quit"))
	}
	return sb.String()
}

func (m *Model) renderConfiguration() string {
	var sb strings.Builder
	if m.startErr != nil {
		sb.WriteString(m.th.bad.Render(m.startErr.Error()) + "\n\n")
	}
	if !m.snap.Installed {
		sb.WriteString(m.th.warn.Render("Python dependencies are not installed. Press i to install.") + "\n\n")
	}

	query := strings.TrimSpace(m.filterInput.Value())
	for i, name := range m.listNames() {
		installed := packageNames(m.snap.InstalledList[name])
		missing := m.notInstalled(name)
		line := fmt.Sprintf("%-10s %s %s", name,
			m.th.ok.Render(fmt.Sprintf("%d installed", len(installed))),
			m.th.bad.Render(fmt.Sprintf("%d missing", len(missing))))
		if i == m.selected {
			sb.WriteString(m.th.rowSelected.Render("> "+line) + "\n")
			sb.WriteString(m.renderPackages(name, filterNames(installed, query), filterNames(missing, query)))
			continue
		}
		sb.WriteString(m.th.row.Render("  "+line) + "\n")
	}

	if len(m.snap.AvailableAlgorithms) > 0 {
		sb.WriteString("\n" + m.th.label.Render("Algorithms: ") + strings.Join(m.snap.AvailableAlgorithms, ", ") + "\n")
	}
	if len(m.snap.VideoRequired) > 0 {
		sb.WriteString(m.th.label.Render("Video requires: ") + strings.Join(m.snap.VideoRequired, ", ") + "\n")
	}
	for _, e := range m.snap.Errors {
		sb.WriteString(m.th.bad.Render("error: "+e) + "\n")
	}
	for _, w := range m.snap.Warnings {
		sb.WriteString(m.th.warn.Render("warning: "+w) + "\n")
	}
	return sb.String()
}

func (m *Model) renderPackages(list string, installed, missing []string) string {
	var sb strings.Builder
	set := m.snap.InstalledList[list]
	for _, p := range installed {
		loc := set[p].Location
		if loc == api.LocationGlobal {
			sb.WriteString("    " + m.th.ok.Render("✓ ") + p + m.th.label.Render(" (global)") + "\n")
			continue
		}
		sb.WriteString("    " + m.th.ok.Render("✓ ") + p + "\n")
	}
	for _, p := range missing {
		sb.WriteString("    " + m.th.bad.Render("✗ ") + p + "\n")
	}
	return sb.String()
}

func (m *Model) notInstalled(list string) []string {
	switch list {
	case "required":
		return m.snap.NotInstalledList.Required
	case "optional":
		return m.snap.NotInstalledList.Optional
	case "boost":
		return m.snap.NotInstalledList.Boost
	}
	return nil
}

func (m *Model) renderCollector() string {
	var sb strings.Builder
	sb.WriteString(m.th.head.Render("Settings") + "\n")
	if len(m.settings) == 0 {
		sb.WriteString(m.th.label.Render("(no settings stored)") + "\n")
	}
	for _, s := range m.settings {
		if s.Name == api.InstalledSettingName {
			continue
		}
		label := s.DisplayName
		if label == "" {
			label = s.Name
		}
		sb.WriteString(fmt.Sprintf("%-32s %s\n", label, m.th.label.Render(truncate(string(s.Value), 60))))
	}
	sb.WriteString("\n" + m.th.label.Render(fmt.Sprintf("%s settings synced", humanize.Comma(int64(len(m.settings))))) + "\n")
	return sb.String()
}

func (m *Model) renderHelp() string {
	var sb strings.Builder
	sb.WriteString(m.th.head.Render("Configuration") + "\n")
	sb.WriteString("Nav: j/k select dependency list\n")
	sb.WriteString("Install: i install all • I install selected list\n")
	sb.WriteString("Lists: u update selected list • D delete selected list (asks first)\n")
	sb.WriteString("Check: c re-check installed packages\n")
	sb.WriteString("Finish: f go to the collector once installed\n")
	sb.WriteString("Filter: / to enter; Enter to apply; Esc to clear\n")
	sb.WriteString("\n")
	sb.WriteString(m.th.head.Render("Collector") + "\n")
	sb.WriteString("c open configuration\n")
	sb.WriteString("\n")
	sb.WriteString("Reload: R • Toasts: H toggle drawer • Quit: q\n")
	return sb.String()
}

func packageNames(set api.PackageSet) []string {
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func filterNames(names []string, query string) []string {
	if query == "" {
		return names
	}
	var out []string
	for _, n := range names {
		if fuzzy.MatchFold(query, n) {
			out = append(out, n)
		}
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
