package tui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jxwalker/mdcsync/internal/api"
	"github.com/jxwalker/mdcsync/internal/configure"
	"github.com/jxwalker/mdcsync/internal/notify"
)

type fakeConf struct {
	mu       sync.Mutex
	st       configure.State
	calls    []string
	finished int
}

func (f *fakeConf) record(s string) error {
	f.mu.Lock()
	f.calls = append(f.calls, s)
	f.mu.Unlock()
	return nil
}

func (f *fakeConf) Start(context.Context) error {
	return f.record("start")
}

func (f *fakeConf) Snapshot() configure.State {
	return f.st
}

func (f *fakeConf) Install(context.Context) error {
	return f.record("install")
}

func (f *fakeConf) Check(context.Context) error {
	return f.record("check")
}

func (f *fakeConf) FinishConfiguration() {
	f.finished++
}

func (f *fakeConf) InstallDepsList(_ context.Context, l string) error {
	return f.record("install-list " + l)
}

func (f *fakeConf) DeleteDepsList(_ context.Context, l string) error {
	return f.record("delete-list " + l)
}

func (f *fakeConf) UpdateDepsList(_ context.Context, l string) error {
	return f.record("update-list " + l)
}

func keyRune(r rune) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}} }

func newTestModel(st configure.State) (*Model, *fakeConf) {
	fc := &fakeConf{st: st}
	m := New(context.Background(), nil, fc, configure.NewRouteHolder(configure.RouteConfiguration), nil, nil, "test")
	m.started = true
	m.refresh()
	return m, fc
}

func installedState() configure.State {
	return configure.State{
		Installed: true,
		InstalledList: api.InstalledList{
			"required": {
				"numpy":  {Package: "numpy", Location: "/apps/mediadc/python"},
				"pillow": {Package: "pillow", Location: api.LocationGlobal},
			},
		},
	}
}

func TestUpdateFilterEsc(t *testing.T) {
	m := &Model{filterOn: true, filterInput: textinput.New()}
	m.updateFilter(tea.KeyMsg{Type: tea.KeyEsc})
	if m.filterOn {
		t.Fatalf("filterOn should be false after esc")
	}
}

func TestQuestionShowsHelp(t *testing.T) {
	m, _ := newTestModel(configure.State{})
	m.Update(keyRune('?'))
	if !m.showHelp {
		t.Fatalf("showHelp should be true after '?' key")
	}
	m.Update(keyRune('x'))
	if m.showHelp {
		t.Fatalf("any key should close help")
	}
}

func TestInstallKeyRunsInstallOnce(t *testing.T) {
	m, fc := newTestModel(configure.State{})
	_, cmd := m.Update(keyRune('i'))
	if cmd == nil {
		t.Fatalf("expected install command")
	}
	// busy until the next snapshot
	if _, again := m.Update(keyRune('i')); again != nil {
		t.Fatalf("second press while installing should be ignored")
	}
	msg := cmd()
	if done, ok := msg.(actionDoneMsg); !ok || done.action != configure.ActionInstall {
		t.Fatalf("unexpected msg %#v", msg)
	}
	if len(fc.calls) != 1 || fc.calls[0] != "install" {
		t.Fatalf("calls: %v", fc.calls)
	}
}

func TestListKeysUseSelectedList(t *testing.T) {
	m, fc := newTestModel(installedState())
	if m.listNames()[m.selected] != "required" {
		t.Fatalf("expected required selected first")
	}

	_, cmd := m.Update(keyRune('u'))
	if cmd == nil {
		t.Fatalf("expected update command")
	}
	cmd()
	m.refresh()

	// delete asks first
	if _, cmd := m.Update(keyRune('D')); cmd != nil || m.confirmDel != "required" {
		t.Fatalf("delete should wait for confirmation")
	}
	_, cmd = m.Update(keyRune('y'))
	if cmd == nil {
		t.Fatalf("expected delete command after confirm")
	}
	cmd()

	want := []string{"update-list required", "delete-list required"}
	if strings.Join(fc.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("calls %v want %v", fc.calls, want)
	}
}

func TestListKeysIgnoreListsWithoutPackages(t *testing.T) {
	m, _ := newTestModel(installedState())
	m.Update(keyRune('j')) // optional: nothing installed
	if _, cmd := m.Update(keyRune('u')); cmd != nil {
		t.Fatalf("update should be ignored for a list with nothing installed")
	}
	if _, cmd := m.Update(keyRune('I')); cmd == nil {
		t.Fatalf("install list should still be offered")
	}
}

func TestFinishNavigatesOnlyWhenInstalled(t *testing.T) {
	m, fc := newTestModel(configure.State{})
	m.Update(keyRune('f'))
	if fc.finished != 0 {
		t.Fatalf("finish should be ignored until installed")
	}
	fc.st = installedState()
	m.refresh()
	m.Update(keyRune('f'))
	if fc.finished != 1 {
		t.Fatalf("finish not called")
	}
}

func TestCollectorKeyOpensConfiguration(t *testing.T) {
	m, _ := newTestModel(installedState())
	m.router.Push(configure.RouteCollector)
	m.Update(keyRune('c'))
	if m.route() != configure.RouteConfiguration {
		t.Fatalf("route = %s", m.route())
	}
}

func TestFilterNarrowsPackages(t *testing.T) {
	got := filterNames([]string{"numpy", "pillow", "scipy"}, "PY")
	if strings.Join(got, ",") != "numpy,scipy" {
		t.Fatalf("got %v", got)
	}
}

func TestToastBoxActiveExpires(t *testing.T) {
	now := time.Now()
	b := NewToastBox()
	b.now = func() time.Time { return now }
	b.Notify(notify.Toast{Kind: notify.Success, Message: "old", When: now.Add(-time.Minute)})
	b.Notify(notify.Toast{Kind: notify.Error, Message: "new"})
	if len(b.All()) != 2 {
		t.Fatalf("all: %v", b.All())
	}
	active := b.Active()
	if len(active) != 1 || active[0].Message != "new" {
		t.Fatalf("active: %v", active)
	}
}

func TestViewRendersInstalledPackages(t *testing.T) {
	m, _ := newTestModel(installedState())
	out := m.View()
	for _, want := range []string{"installed", "numpy", "pillow", "(global)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q:\n%s", want, out)
		}
	}
}
