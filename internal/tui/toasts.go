package tui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jxwalker/mdcsync/internal/notify"
)

const (
	toastTTL     = 4 * time.Second
	toastHistory = 50
)

// ToastBox collects toasts raised by the Configurator from command
// goroutines. Recent ones are shown in the footer; H opens the full drawer.
type ToastBox struct {
	mu     sync.Mutex
	toasts []notify.Toast
	now    func() time.Time
}

func NewToastBox() *ToastBox { return &ToastBox{now: time.Now} }

func (b *ToastBox) Notify(t notify.Toast) {
	if t.When.IsZero() {
		t.When = b.now()
	}
	b.mu.Lock()
	b.toasts = append(b.toasts, t)
	if len(b.toasts) > toastHistory {
		b.toasts = b.toasts[len(b.toasts)-toastHistory:]
	}
	b.mu.Unlock()
}

// All returns every remembered toast, oldest first.
func (b *ToastBox) All() []notify.Toast {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]notify.Toast(nil), b.toasts...)
}

// Active returns toasts younger than the display TTL.
func (b *ToastBox) Active() []notify.Toast {
	now := b.now()
	var out []notify.Toast
	for _, t := range b.All() {
		if now.Sub(t.When) < toastTTL {
			out = append(out, t)
		}
	}
	return out
}

func (m *Model) toastStyle(k notify.Kind) func(...string) string {
	switch k {
	case notify.Success:
		return m.th.ok.Render
	case notify.Warning:
		return m.th.warn.Render
	default:
		return m.th.bad.Render
	}
}

func (m *Model) renderToasts() string {
	active := m.toasts.Active()
	if len(active) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, t := range active {
		sb.WriteString(m.toastStyle(t.Kind)(t.Message) + "\n")
	}
	return sb.String()
}

func (m *Model) renderToastDrawer() string {
	all := m.toasts.All()
	if len(all) == 0 {
		return m.th.label.Render("(no recent notifications)")
	}
	var sb strings.Builder
	for i := len(all) - 1; i >= 0; i-- { // newest first
		t := all[i]
		sb.WriteString(fmt.Sprintf("%s  %s\n", m.toastStyle(t.Kind)(t.Message), m.th.label.Render(humanize.Time(t.When))))
	}
	return sb.String()
}
