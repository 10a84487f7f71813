// Package notify delivers the success/warning/error toasts raised by
// dependency actions to the terminal, the TUI and the desktop.
package notify

import (
	"sync"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/jxwalker/mdcsync/internal/logging"
)

// Kind is the severity of a toast.
type Kind int

const (
	Success Kind = iota
	Warning
	Error
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Warning:
		return "warning"
	default:
		return "error"
	}
}

// Toast is one user-visible notification.
type Toast struct {
	Kind    Kind
	Message string
	When    time.Time
}

// Notifier shows toasts. Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(t Toast)
}

// Func adapts a function to Notifier.
type Func func(t Toast)

func (f Func) Notify(t Toast) { f(t) }

// Multi fans a toast out to several notifiers; nil entries are skipped.
func Multi(ns ...Notifier) Notifier {
	var out multi
	for _, n := range ns {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

type multi []Notifier

func (m multi) Notify(t Toast) {
	for _, n := range m {
		n.Notify(t)
	}
}

// Log writes toasts to the logger: success at info, warning at warn, error at error.
func Log(l *logging.Logger) Notifier {
	return Func(func(t Toast) {
		switch t.Kind {
		case Success:
			l.Infof("%s", t.Message)
		case Warning:
			l.Warnf("%s", t.Message)
		default:
			l.Errorf("%s", t.Message)
		}
	})
}

// Desktop raises OS notifications through beeep. Failures are logged at debug.
func Desktop(title string, l *logging.Logger) Notifier {
	return Func(func(t Toast) {
		var err error
		if t.Kind == Error {
			err = beeep.Alert(title, t.Message, "")
		} else {
			err = beeep.Notify(title, t.Message, "")
		}
		if err != nil {
			l.Debugf("desktop notification: %v", err)
		}
	})
}

// Recorder keeps every toast it receives, newest last.
type Recorder struct {
	mu     sync.Mutex
	toasts []Toast
}

func (r *Recorder) Notify(t Toast) {
	r.mu.Lock()
	r.toasts = append(r.toasts, t)
	r.mu.Unlock()
}

// Toasts returns a copy of everything recorded so far.
func (r *Recorder) Toasts() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Toast(nil), r.toasts...)
}

// Last returns the most recent toast.
func (r *Recorder) Last() (Toast, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.toasts) == 0 {
		return Toast{}, false
	}
	return r.toasts[len(r.toasts)-1], true
}
