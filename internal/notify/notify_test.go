package notify

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jxwalker/mdcsync/internal/logging"
)

func TestMultiSkipsNilAndFansOut(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	n := Multi(a, nil, b)
	n.Notify(Toast{Kind: Warning, Message: "careful"})
	for _, r := range []*Recorder{a, b} {
		got, ok := r.Last()
		if !ok || got.Kind != Warning || got.Message != "careful" {
			t.Fatalf("unexpected toast: %+v ok=%v", got, ok)
		}
	}
}

func TestLogLevels(t *testing.T) {
	var buf bytes.Buffer
	n := Log(logging.NewWriter(&buf, "debug", false))
	n.Notify(Toast{Kind: Success, Message: "done"})
	n.Notify(Toast{Kind: Error, Message: "failed"})
	out := buf.String()
	if !strings.Contains(out, "INFO\tdone") || !strings.Contains(out, "ERROR\tfailed") {
		t.Fatalf("unexpected log output: %q", out)
	}
}

func TestKindString(t *testing.T) {
	if Success.String() != "success" || Warning.String() != "warning" || Error.String() != "error" {
		t.Fatalf("unexpected kind names")
	}
}
