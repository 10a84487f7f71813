package state

import (
	"context"
	"sort"
	"sync"

	"github.com/jxwalker/mdcsync/internal/api"
)

// Memory is an in-process settings store used when persistence is not wanted.
type Memory struct {
	mu       sync.RWMutex
	settings map[string]api.Setting
}

func NewMemory() *Memory {
	return &Memory{settings: map[string]api.Setting{}}
}

func (m *Memory) SetSetting(_ context.Context, s api.Setting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[s.Name] = cloneSetting(s)
	return nil
}

func (m *Memory) SetSettings(ctx context.Context, settings []api.Setting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range settings {
		m.settings[s.Name] = cloneSetting(s)
	}
	return nil
}

func (m *Memory) Setting(_ context.Context, name string) (api.Setting, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.settings[name]
	if !ok {
		return api.Setting{}, false, nil
	}
	return cloneSetting(s), true, nil
}

func (m *Memory) ListSettings(_ context.Context) ([]api.Setting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]api.Setting, 0, len(m.settings))
	for _, s := range m.settings {
		out = append(out, cloneSetting(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func cloneSetting(s api.Setting) api.Setting {
	if s.Value != nil {
		s.Value = append([]byte(nil), s.Value...)
	}
	return s
}
