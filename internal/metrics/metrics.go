package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/jxwalker/mdcsync/internal/config"
)

type actionKey struct{ action, outcome string }

// Manager accumulates action counters and writes them in the Prometheus
// textfile format. A nil *Manager is valid and records nothing.
type Manager struct {
	path string
	mu   sync.Mutex
	// counters
	actions     map[actionKey]int64
	lastSeconds map[string]float64
	installed   int
}

func New(cfg *config.Config) *Manager {
	if cfg == nil || !cfg.Metrics.PrometheusTextfile.Enabled || cfg.Metrics.PrometheusTextfile.Path == "" {
		return nil
	}
	p := cfg.Metrics.PrometheusTextfile.Path
	_ = os.MkdirAll(filepath.Dir(p), 0o755)
	return NewAt(p)
}

// NewAt writes to an explicit path.
func NewAt(path string) *Manager {
	return &Manager{path: path, actions: map[actionKey]int64{}, lastSeconds: map[string]float64{}, installed: -1}
}

// ObserveAction counts one finished action and records its duration.
func (m *Manager) ObserveAction(action, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.actions[actionKey{action, outcome}]++
	m.lastSeconds[action] = d.Seconds()
	m.mu.Unlock()
}

// SetInstalled records the last known installed status.
func (m *Manager) SetInstalled(v bool) {
	if m == nil {
		return
	}
	m.mu.Lock()
	if v {
		m.installed = 1
	} else {
		m.installed = 0
	}
	m.mu.Unlock()
}

func (m *Manager) Write() error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	f, err := os.CreateTemp(filepath.Dir(m.path), ".metrics.tmp.*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	keys := make([]actionKey, 0, len(m.actions))
	for k := range m.actions {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].action != keys[j].action {
			return keys[i].action < keys[j].action
		}
		return keys[i].outcome < keys[j].outcome
	})
	fmt.Fprintf(f, "# HELP mdcsync_actions_total Dependency actions by outcome.\n")
	fmt.Fprintf(f, "# TYPE mdcsync_actions_total counter\n")
	for _, k := range keys {
		fmt.Fprintf(f, "mdcsync_actions_total{action=%q,outcome=%q} %d\n", k.action, k.outcome, m.actions[k])
	}

	names := make([]string, 0, len(m.lastSeconds))
	for a := range m.lastSeconds {
		names = append(names, a)
	}
	sort.Strings(names)
	fmt.Fprintf(f, "# HELP mdcsync_last_action_seconds Duration of the last run of each action in seconds.\n")
	fmt.Fprintf(f, "# TYPE mdcsync_last_action_seconds gauge\n")
	for _, a := range names {
		fmt.Fprintf(f, "mdcsync_last_action_seconds{action=%q} %.6f\n", a, m.lastSeconds[a])
	}

	if m.installed >= 0 {
		fmt.Fprintf(f, "# HELP mdcsync_installed Whether all required Python dependencies are installed.\n")
		fmt.Fprintf(f, "# TYPE mdcsync_installed gauge\n")
		fmt.Fprintf(f, "mdcsync_installed %d\n", m.installed)
	}

	fmt.Fprintf(f, "# HELP mdcsync_metrics_timestamp_seconds UNIX timestamp when this file was written.\n")
	fmt.Fprintf(f, "# TYPE mdcsync_metrics_timestamp_seconds gauge\n")
	fmt.Fprintf(f, "mdcsync_metrics_timestamp_seconds %d\n", time.Now().Unix())

	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), m.path)
}
