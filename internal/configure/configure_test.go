package configure

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"github.com/jxwalker/mdcsync/internal/api"
	"github.com/jxwalker/mdcsync/internal/notify"
	"github.com/jxwalker/mdcsync/internal/state"
	"github.com/jxwalker/mdcsync/internal/testutil"
)

type harness struct {
	ms      *testutil.MockServer
	c       *Configurator
	store   *state.Memory
	toasts  *notify.Recorder
	nav     *RouteHolder
	loading []bool
}

func newHarness(t *testing.T, route string) *harness {
	t.Helper()
	ms := testutil.NewMockServer(t)
	client, err := api.New(ms.Config(t), nil)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	h := &harness{ms: ms, store: state.NewMemory(), toasts: &notify.Recorder{}, nav: NewRouteHolder(route)}
	h.c = New(Options{
		API:       client,
		Store:     h.store,
		Notifier:  h.toasts,
		Navigator: h.nav,
		OnLoading: func(v bool) { h.loading = append(h.loading, v) },
	})
	ms.AddJSON("PUT settings/name/installed", map[string]any{"success": true})
	return h
}

func installedValue(status bool) map[string]any {
	return map[string]any{
		"status": status,
		"installed_list": map[string]any{
			"required": map[string]any{
				"numpy":  map[string]string{"package": "numpy", "location": "global"},
				"pillow": map[string]string{"package": "pillow", "location": "local"},
			},
			"boost": map[string]any{
				"scipy": map[string]string{"package": "scipy", "location": "local"},
			},
		},
		"not_installed_list":   map[string]any{"required": []string{}, "optional": []string{"pywavelets"}, "boost": []string{}},
		"available_algorithms": []string{"average", "dhash"},
		"video_required":       []string{"ffmpeg"},
	}
}

func (h *harness) serveStartup(status bool) {
	h.ms.AddJSON("GET settings", map[string]any{
		"success":  true,
		"settings": []map[string]any{{"id": 1, "name": "hashing_algorithm", "value": `"dhash"`}},
	})
	h.ms.AddJSON("GET settings/name/installed", map[string]any{
		"success": true,
		"setting": map[string]any{"id": 9, "name": "installed", "value": testutil.InstalledSettingJSON(installedValue(status))},
	})
}

func pythonResponse(success, installed bool) map[string]any {
	return map[string]any{
		"success":   success,
		"installed": installed,
		"installed_list": map[string]any{
			"required": map[string]any{
				"numpy": map[string]string{"package": "numpy", "location": "global"},
			},
		},
		"required":             []string{},
		"optional":             []string{"pywavelets"},
		"boost":                []string{"scipy"},
		"available_algorithms": []string{"dhash"},
		"video_required":       []string{"ffmpeg"},
		"errors":               []string{},
		"warnings":             []string{"pip outdated"},
	}
}

func TestStartRedirectsWhenNotInstalled(t *testing.T) {
	h := newHarness(t, RouteCollector)
	h.serveStartup(false)

	if err := h.c.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if h.nav.Pushes() != 1 || h.nav.CurrentRoute() != RouteConfiguration {
		t.Fatalf("expected exactly one push to configuration, got %d -> %s", h.nav.Pushes(), h.nav.CurrentRoute())
	}
	s := h.c.Snapshot()
	if s.Installed || !s.Loading {
		t.Fatalf("unexpected state: %+v", s)
	}
	if got := s.InstalledList["required"]["pillow"].Location; got != "local" {
		t.Fatalf("installed list not mirrored: %+v", s.InstalledList)
	}
	if !reflect.DeepEqual([]string(s.NotInstalledList.Optional), []string{"pywavelets"}) {
		t.Fatalf("not installed list: %+v", s.NotInstalledList)
	}
	if _, ok, _ := h.store.Setting(context.Background(), "hashing_algorithm"); !ok {
		t.Fatalf("general settings not dispatched into store")
	}
	if _, ok, _ := h.store.Setting(context.Background(), "installed"); !ok {
		t.Fatalf("installed setting not dispatched into store")
	}
}

func TestStartOnConfigurationRouteDoesNotNavigate(t *testing.T) {
	h := newHarness(t, RouteConfiguration)
	h.serveStartup(false)

	if err := h.c.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if h.nav.Pushes() != 0 {
		t.Fatalf("unexpected navigation")
	}
	if h.c.Snapshot().Loading {
		t.Fatalf("loading should be cleared")
	}
}

func TestStartInstalledClearsLoading(t *testing.T) {
	h := newHarness(t, RouteCollector)
	h.serveStartup(true)

	if err := h.c.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if h.nav.Pushes() != 0 {
		t.Fatalf("no navigation expected when installed")
	}
	if !reflect.DeepEqual(h.loading, []bool{true, false}) {
		t.Fatalf("loading transitions: %v", h.loading)
	}
	if !h.c.Snapshot().Installed || !h.c.Loaded() {
		t.Fatalf("expected installed state")
	}
}

func TestStartMalformedSettingIsUserError(t *testing.T) {
	h := newHarness(t, RouteCollector)
	h.ms.AddJSON("GET settings", map[string]any{"success": true, "settings": []any{}})
	h.ms.AddJSON("GET settings/name/installed", map[string]any{
		"success": true,
		"setting": map[string]any{"name": "installed", "value": "{broken"},
	})

	err := h.c.Start(context.Background())
	if err == nil {
		t.Fatalf("expected error for malformed value")
	}
	last, _ := h.toasts.Last()
	if last.Kind != notify.Error || last.Message != MsgMalformedSetting {
		t.Fatalf("unexpected toast: %+v", last)
	}
	if h.nav.Pushes() != 0 || h.c.Snapshot().Loading {
		t.Fatalf("malformed value must not navigate or leave loading on")
	}
}

func TestStartFetchFailure(t *testing.T) {
	h := newHarness(t, RouteCollector)
	h.ms.AddJSON("GET settings", map[string]any{"success": true})
	// installed setting missing -> 404

	if err := h.c.Start(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	last, _ := h.toasts.Last()
	if last.Message != MsgLoadFailed {
		t.Fatalf("unexpected toast: %+v", last)
	}
}

func TestStartAppliesInstalledWhenSettingsFail(t *testing.T) {
	h := newHarness(t, RouteCollector)
	h.ms.AddResponse("GET settings", testutil.MockResponse{StatusCode: http.StatusInternalServerError, Body: "boom"})
	h.ms.AddJSON("GET settings/name/installed", map[string]any{
		"success": true,
		"setting": map[string]any{"id": 9, "name": "installed", "value": testutil.InstalledSettingJSON(installedValue(false))},
	})
	ctx := context.Background()

	if err := h.c.Start(ctx); err == nil {
		t.Fatalf("expected the settings error to be reported")
	}
	if h.nav.Pushes() != 1 || h.nav.CurrentRoute() != RouteConfiguration {
		t.Fatalf("expected one push to configuration, got %d (%s)", h.nav.Pushes(), h.nav.CurrentRoute())
	}
	if !h.c.Loaded() {
		t.Fatalf("installed setting should be loaded")
	}
	if _, ok, _ := h.store.Setting(ctx, "installed"); !ok {
		t.Fatalf("installed setting not stored")
	}
	if _, ok, _ := h.store.Setting(ctx, "hashing_algorithm"); ok {
		t.Fatalf("no general settings expected")
	}
	toasts := h.toasts.Toasts()
	if len(toasts) != 1 || toasts[0].Message != MsgLoadFailed {
		t.Fatalf("toasts %+v", toasts)
	}
}

func TestInstallToasts(t *testing.T) {
	cases := []struct {
		name      string
		success   bool
		installed bool
		kind      notify.Kind
		msg       string
	}{
		{"success", true, true, notify.Success, MsgInstallSuccess},
		{"partial", false, true, notify.Warning, MsgInstallPartial},
		{"failed", false, false, notify.Error, MsgInstallFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, RouteConfiguration)
			h.ms.AddJSON("GET python/install", pythonResponse(tc.success, tc.installed))

			if err := h.c.Install(context.Background()); err != nil {
				t.Fatalf("install: %v", err)
			}
			last, _ := h.toasts.Last()
			if last.Kind != tc.kind || last.Message != tc.msg {
				t.Fatalf("got %+v", last)
			}
			if h.c.Snapshot().Installing {
				t.Fatalf("installing flag left set")
			}
			if h.nav.Pushes() != 0 {
				t.Fatalf("install must not navigate")
			}
		})
	}
}

func TestActionRequestFailureClearsBusyFlag(t *testing.T) {
	h := newHarness(t, RouteConfiguration)
	h.ms.AddResponse("GET python/check", testutil.MockResponse{StatusCode: http.StatusBadGateway, Body: "down"})

	if err := h.c.Check(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if h.c.Snapshot().Checking {
		t.Fatalf("checking flag left set")
	}
	last, _ := h.toasts.Last()
	if last.Kind != notify.Error || last.Message != MsgCheckFailed {
		t.Fatalf("unexpected toast %+v", last)
	}
}

func TestPersistFailureClearsBusyFlag(t *testing.T) {
	h := newHarness(t, RouteConfiguration)
	h.ms.AddJSON("POST python/install", pythonResponse(true, true))
	h.ms.AddResponse("PUT settings/name/installed", testutil.MockResponse{StatusCode: http.StatusInternalServerError})

	if err := h.c.InstallDepsList(context.Background(), "boost"); err == nil {
		t.Fatalf("expected persist error")
	}
	if h.c.Snapshot().Updating {
		t.Fatalf("updating flag left set")
	}
	last, _ := h.toasts.Last()
	if last.Message != MsgListInstallFailed {
		t.Fatalf("unexpected toast %+v", last)
	}
}

func TestInstallDepsListSendsListName(t *testing.T) {
	h := newHarness(t, RouteConfiguration)
	h.ms.AddJSON("POST python/install", pythonResponse(true, true))

	if err := h.c.InstallDepsList(context.Background(), "optional"); err != nil {
		t.Fatalf("install list: %v", err)
	}
	reqs := h.ms.RequestsTo("POST python/install")
	if len(reqs) != 1 || reqs[0].Body != `{"listName":"optional"}` {
		t.Fatalf("unexpected request %+v", reqs)
	}
	last, _ := h.toasts.Last()
	if last.Kind != notify.Success || last.Message != MsgListInstallSuccess {
		t.Fatalf("toast %+v", last)
	}
	if s := h.c.Snapshot(); !s.Installed || s.Updating {
		t.Fatalf("state %+v", s)
	}
}

func TestDeleteAndUpdateExcludeGlobalPackages(t *testing.T) {
	for _, op := range []struct {
		key string
		run func(*Configurator, context.Context, string) error
		msg string
	}{
		{"POST python/delete", (*Configurator).DeleteDepsList, MsgListDeleteSuccess},
		{"POST python/update", (*Configurator).UpdateDepsList, MsgUpdateSuccess},
	} {
		t.Run(op.key, func(t *testing.T) {
			h := newHarness(t, RouteConfiguration)
			h.serveStartup(true)
			h.ms.AddJSON(op.key, pythonResponse(true, true))
			ctx := context.Background()
			if err := h.c.Start(ctx); err != nil {
				t.Fatal(err)
			}

			if err := op.run(h.c, ctx, "required"); err != nil {
				t.Fatalf("run: %v", err)
			}
			reqs := h.ms.RequestsTo(op.key)
			if len(reqs) != 1 {
				t.Fatalf("expected one request")
			}
			var body struct {
				PackagesList []string `json:"packagesList"`
			}
			if err := json.Unmarshal([]byte(reqs[0].Body), &body); err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(body.PackagesList, []string{"pillow"}) {
				t.Fatalf("packagesList = %v", body.PackagesList)
			}
			last, _ := h.toasts.Last()
			if last.Message != op.msg {
				t.Fatalf("toast %+v", last)
			}
		})
	}
}

func TestDeleteUnknownListFailsWithoutRequest(t *testing.T) {
	h := newHarness(t, RouteConfiguration)
	err := h.c.DeleteDepsList(context.Background(), "nope")
	if !errors.Is(err, ErrUnknownList) {
		t.Fatalf("expected ErrUnknownList, got %v", err)
	}
	if len(h.ms.Requests()) != 0 {
		t.Fatalf("no request expected")
	}
	if h.c.Snapshot().Updating {
		t.Fatalf("updating flag set")
	}
}

func TestCheckPersistsAndMirrorsResponse(t *testing.T) {
	h := newHarness(t, RouteConfiguration)
	h.ms.AddJSON("GET python/check", pythonResponse(false, false))
	ctx := context.Background()

	if err := h.c.Check(ctx); err != nil {
		t.Fatalf("check: %v", err)
	}
	last, _ := h.toasts.Last()
	if last.Kind != notify.Error || last.Message != MsgCheckNotInstalled {
		t.Fatalf("toast %+v", last)
	}
	s := h.c.Snapshot()
	if s.Installed || !reflect.DeepEqual(s.Warnings, []string{"pip outdated"}) {
		t.Fatalf("state %+v", s)
	}
	if !reflect.DeepEqual([]string(s.NotInstalledList.Boost), []string{"scipy"}) {
		t.Fatalf("not installed %+v", s.NotInstalledList)
	}

	stored, ok, _ := h.store.Setting(ctx, "installed")
	if !ok {
		t.Fatalf("setting not stored")
	}
	v, err := stored.DecodeInstalled()
	if err != nil {
		t.Fatal(err)
	}
	if v.Status || !reflect.DeepEqual([]string(v.NotInstalledList.Optional), []string{"pywavelets"}) {
		t.Fatalf("stored value %+v", v)
	}

	puts := h.ms.RequestsTo("PUT settings/name/installed")
	if len(puts) != 1 {
		t.Fatalf("expected persistence PUT, got %d", len(puts))
	}
}

func TestCheckKeepsUnknownInstalledKeys(t *testing.T) {
	h := newHarness(t, RouteConfiguration)
	v := installedValue(true)
	v["python_binary"] = "/usr/bin/python3"
	h.ms.AddJSON("GET settings", map[string]any{"success": true, "settings": []any{}})
	h.ms.AddJSON("GET settings/name/installed", map[string]any{
		"success": true,
		"setting": map[string]any{"id": 9, "name": "installed", "value": testutil.InstalledSettingJSON(v)},
	})
	h.ms.AddJSON("GET python/check", pythonResponse(true, true))
	ctx := context.Background()
	if err := h.c.Start(ctx); err != nil {
		t.Fatal(err)
	}

	if err := h.c.Check(ctx); err != nil {
		t.Fatalf("check: %v", err)
	}
	puts := h.ms.RequestsTo("PUT settings/name/installed")
	if len(puts) != 1 || !strings.Contains(puts[0].Body, `"python_binary":"/usr/bin/python3"`) {
		t.Fatalf("unknown key not written back: %+v", puts)
	}
}

func TestApplyPythonResponseIdempotent(t *testing.T) {
	h := newHarness(t, RouteConfiguration)
	var resp api.PythonResponse
	b, _ := json.Marshal(pythonResponse(true, true))
	if err := json.Unmarshal(b, &resp); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	h.c.ApplyPythonResponse(ctx, resp)
	first := h.c.Snapshot()
	firstSetting, _ := h.c.InstalledSetting()
	h.c.ApplyPythonResponse(ctx, resp)
	if !reflect.DeepEqual(first, h.c.Snapshot()) {
		t.Fatalf("second application changed state")
	}
	second, _ := h.c.InstalledSetting()
	if string(firstSetting.Value) != string(second.Value) {
		t.Fatalf("setting value changed: %s vs %s", firstSetting.Value, second.Value)
	}
}

func TestFinishConfiguration(t *testing.T) {
	h := newHarness(t, RouteConfiguration)
	h.c.FinishConfiguration()
	if h.nav.CurrentRoute() != RouteCollector || !h.c.Snapshot().Loading {
		t.Fatalf("expected collector route with loading set")
	}
}

type historyRecorder struct{ rows []state.ActionRow }

func (r *historyRecorder) RecordAction(_ context.Context, row state.ActionRow) error {
	r.rows = append(r.rows, row)
	return nil
}

func TestHistoryRecordsOutcome(t *testing.T) {
	h := newHarness(t, RouteConfiguration)
	rec := &historyRecorder{}
	h.c.history = rec
	h.ms.AddJSON("POST python/install", pythonResponse(false, false))

	_ = h.c.InstallDepsList(context.Background(), "optional")
	if len(rec.rows) != 1 {
		t.Fatalf("expected one history row")
	}
	row := rec.rows[0]
	if row.Action != ActionInstallList || row.Target != "optional" || row.Outcome != "error" || row.Message != MsgListInstallFailed {
		t.Fatalf("unexpected row %+v", row)
	}
}
