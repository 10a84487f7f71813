package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents log severity.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func ParseLevel(s string) Level {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "debug":
		return Debug
	case "warn":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

type Logger struct {
	min    Level
	json   bool
	mu     *sync.Mutex
	out    io.Writer
	fields map[string]string
}

func New(level string, jsonOut bool) *Logger {
	out := io.Writer(os.Stderr)
	if jsonOut {
		out = os.Stdout
	}
	return NewWriter(out, level, jsonOut)
}

// NewWriter logs to out; the TUI uses it to keep the terminal clean.
func NewWriter(out io.Writer, level string, jsonOut bool) *Logger {
	return &Logger{min: ParseLevel(level), json: jsonOut, out: out, mu: &sync.Mutex{}}
}

// Discard returns a logger that drops everything.
func Discard() *Logger { return NewWriter(io.Discard, "error", false) }

// With returns a child logger carrying an extra key/value on every line.
func (l *Logger) With(key, value string) *Logger {
	if l == nil {
		return nil
	}
	f := make(map[string]string, len(l.fields)+1)
	for k, v := range l.fields {
		f[k] = v
	}
	f[key] = value
	return &Logger{min: l.min, json: l.json, out: l.out, mu: l.mu, fields: f}
}

func (l *Logger) Enabled(v Level) bool { return l != nil && v >= l.min }

func (l *Logger) Debugf(format string, a ...any) { l.log(Debug, fmt.Sprintf(format, a...)) }
func (l *Logger) Infof(format string, a ...any)  { l.log(Info, fmt.Sprintf(format, a...)) }
func (l *Logger) Warnf(format string, a ...any)  { l.log(Warn, fmt.Sprintf(format, a...)) }
func (l *Logger) Errorf(format string, a ...any) { l.log(Error, fmt.Sprintf(format, a...)) }

func (l *Logger) log(level Level, msg string) {
	if !l.Enabled(level) {
		return
	}
	lvl := levelString(level)
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.json {
		payload := map[string]any{
			"ts":    time.Now().Format(time.RFC3339Nano),
			"level": lvl,
			"msg":   msg,
		}
		for k, v := range l.fields {
			payload[k] = v
		}
		_ = json.NewEncoder(l.out).Encode(payload)
		return
	}
	if len(l.fields) == 0 {
		fmt.Fprintf(l.out, "%s\t%s\n", strings.ToUpper(lvl), msg)
		return
	}
	keys := make([]string, 0, len(l.fields))
	for k := range l.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(" ")
		sb.WriteString(k)
		sb.WriteString("=")
		sb.WriteString(l.fields[k])
	}
	fmt.Fprintf(l.out, "%s\t%s\t%s\n", strings.ToUpper(lvl), msg, strings.TrimSpace(sb.String()))
}

func levelString(l Level) string {
	switch l {
	case Debug:
		return "debug"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "info"
	}
}
