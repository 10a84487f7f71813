// Package configure keeps a local copy of the MediaDC "installed" setting
// in sync with the server and runs the Python dependency actions that
// change it.
//
// Startup contract: the general settings and the installed setting are
// fetched concurrently and joined. The store receives the general
// settings first, then the raw installed setting; the navigation decision
// is made last, from the installed status alone. A general-settings
// failure is reported but the installed setting is still applied.
package configure

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jxwalker/mdcsync/internal/api"
	friendlyerrors "github.com/jxwalker/mdcsync/internal/errors"
	"github.com/jxwalker/mdcsync/internal/logging"
	"github.com/jxwalker/mdcsync/internal/notify"
	"github.com/jxwalker/mdcsync/internal/state"
)

// Route names understood by Navigator.
const (
	RouteConfiguration = "configuration"
	RouteCollector     = "collector"
)

// API is the subset of the MediaDC client used here; *api.Client implements it.
type API interface {
	GetSettings(ctx context.Context) (api.SettingsResponse, error)
	GetSetting(ctx context.Context, name string) (api.SettingResponse, error)
	PutSetting(ctx context.Context, s api.Setting) error
	PythonInstall(ctx context.Context) (api.PythonResponse, error)
	PythonInstallList(ctx context.Context, listName string) (api.PythonResponse, error)
	PythonDelete(ctx context.Context, packages []string) (api.PythonResponse, error)
	PythonUpdate(ctx context.Context, packages []string) (api.PythonResponse, error)
	PythonCheck(ctx context.Context) (api.PythonResponse, error)
}

// Store is the shared settings repository; state.DB and state.Memory implement it.
type Store interface {
	SetSettings(ctx context.Context, settings []api.Setting) error
	SetSetting(ctx context.Context, s api.Setting) error
	Setting(ctx context.Context, name string) (api.Setting, bool, error)
}

// Navigator switches between the configuration and collector views.
type Navigator interface {
	CurrentRoute() string
	Push(route string)
}

// Metrics receives action outcomes; *metrics.Manager implements it.
type Metrics interface {
	ObserveAction(action, outcome string, d time.Duration)
	SetInstalled(v bool)
}

// History records finished actions; *state.DB implements it.
type History interface {
	RecordAction(ctx context.Context, row state.ActionRow) error
}

// Options wires a Configurator. API and Store are required.
type Options struct {
	API       API
	Store     Store
	Notifier  notify.Notifier
	Navigator Navigator
	Log       *logging.Logger
	Metrics   Metrics
	History   History
	// OnLoading is called whenever the loading indicator changes.
	OnLoading func(loading bool)
}

// State is the local mirror of the installed setting plus UI flags.
type State struct {
	Loading             bool
	Installed           bool
	InstalledList       api.InstalledList
	NotInstalledList    api.NotInstalledList
	AvailableAlgorithms []string
	VideoRequired       []string
	Errors              []string
	Warnings            []string
	Installing          bool
	Checking            bool
	Updating            bool
}

// Configurator is safe for concurrent use. Busy flags are advisory: they
// are reported in State but do not block overlapping calls.
type Configurator struct {
	api     API
	store   Store
	notify  notify.Notifier
	nav     Navigator
	log     *logging.Logger
	metrics Metrics
	history History
	onLoad  func(bool)

	mu      sync.Mutex
	st      State
	setting api.Setting // installed setting metadata; value lives in val
	val     api.InstalledValue
	loaded  bool
}

func New(opts Options) *Configurator {
	c := &Configurator{
		api:     opts.API,
		store:   opts.Store,
		notify:  opts.Notifier,
		nav:     opts.Navigator,
		log:     opts.Log,
		metrics: opts.Metrics,
		history: opts.History,
		onLoad:  opts.OnLoading,
		setting: api.Setting{Name: api.InstalledSettingName},
	}
	if c.notify == nil {
		c.notify = notify.Log(c.log)
	}
	if c.nav == nil {
		c.nav = &RouteHolder{}
	}
	return c
}

// Snapshot returns a deep copy of the current state.
func (c *Configurator) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.st
	s.InstalledList = cloneInstalledList(c.st.InstalledList)
	s.NotInstalledList = cloneNotInstalled(c.st.NotInstalledList)
	s.AvailableAlgorithms = cloneStrings(c.st.AvailableAlgorithms)
	s.VideoRequired = cloneStrings(c.st.VideoRequired)
	s.Errors = cloneStrings(c.st.Errors)
	s.Warnings = cloneStrings(c.st.Warnings)
	return s
}

// Loaded reports whether the installed setting has been fetched.
func (c *Configurator) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// InstalledSetting returns the installed setting with its value encoded
// as an object, the form PutSetting sends back to the server.
func (c *Configurator) InstalledSetting() (api.Setting, error) {
	c.mu.Lock()
	s, v := c.setting, c.val
	c.mu.Unlock()
	return s.WithInstalled(v)
}

// Start loads the general settings and the installed setting, then
// navigates to the configuration view when dependencies are missing.
func (c *Configurator) Start(ctx context.Context) error {
	c.setLoading(true)

	// A failed general-settings fetch does not block the installed setting.
	var settings api.SettingsResponse
	var installed api.SettingResponse
	var settingsErr error
	var g errgroup.Group
	g.Go(func() error {
		r, err := c.api.GetSettings(ctx)
		if err != nil {
			settingsErr = fmt.Errorf("get settings: %w", err)
			return nil
		}
		settings = r
		return nil
	})
	g.Go(func() error {
		r, err := c.api.GetSetting(ctx, api.InstalledSettingName)
		if err != nil {
			return fmt.Errorf("get installed setting: %w", err)
		}
		installed = r
		return nil
	})
	installedErr := g.Wait()

	if settingsErr != nil {
		c.log.Warnf("startup: %v", settingsErr)
		c.toast(notify.Error, MsgLoadFailed)
	} else if err := c.store.SetSettings(ctx, settings.Settings); err != nil {
		c.log.Debugf("store settings: %v", err)
	}
	if installedErr != nil {
		c.log.Debugf("startup: %v", installedErr)
		if settingsErr == nil {
			c.toast(notify.Error, MsgLoadFailed)
		}
		return installedErr
	}

	if !installed.Success {
		c.log.Warnf("server did not return the %q setting", api.InstalledSettingName)
		c.setLoading(false)
		return settingsErr
	}
	if err := c.store.SetSetting(ctx, installed.Setting); err != nil {
		c.log.Debugf("store installed setting: %v", err)
	}
	val, err := installed.Setting.DecodeInstalled()
	if err != nil {
		ferr := friendlyerrors.MalformedSettingError(installed.Setting.Name, err)
		c.log.Debugf("%v", ferr)
		c.toast(notify.Error, MsgMalformedSetting)
		c.setLoading(false)
		return ferr
	}

	c.mu.Lock()
	c.setting = installed.Setting
	c.setting.Value = nil
	c.val = val
	c.loaded = true
	c.st.Installed = val.Status
	c.st.InstalledList = cloneInstalledList(val.InstalledList)
	c.st.NotInstalledList = GroupNotInstalled(val.NotInstalledList.Required, val.NotInstalledList.Optional, val.NotInstalledList.Boost)
	c.st.AvailableAlgorithms = cloneStrings(val.AvailableAlgorithms)
	c.st.VideoRequired = cloneStrings(val.VideoRequired)
	c.mu.Unlock()
	if c.metrics != nil {
		c.metrics.SetInstalled(val.Status)
	}

	if !val.Status && c.nav.CurrentRoute() != RouteConfiguration {
		c.nav.Push(RouteConfiguration)
	} else {
		c.setLoading(false)
	}
	return settingsErr
}

// ApplyPythonResponse overwrites the local mirror and the installed
// setting value with resp, then pushes the setting into the store.
// Applying the same response twice yields the same state.
func (c *Configurator) ApplyPythonResponse(ctx context.Context, resp api.PythonResponse) {
	grouped := GroupNotInstalled(resp.Required, resp.Optional, resp.Boost)

	c.mu.Lock()
	c.val.Status = resp.Installed
	c.val.InstalledList = cloneInstalledList(resp.InstalledList)
	c.val.NotInstalledList = grouped
	c.val.AvailableAlgorithms = cloneStrings(resp.AvailableAlgorithms)
	c.val.VideoRequired = cloneStrings(resp.VideoRequired)

	c.st.Installed = resp.Installed
	c.st.InstalledList = cloneInstalledList(resp.InstalledList)
	c.st.NotInstalledList = cloneNotInstalled(grouped)
	c.st.AvailableAlgorithms = cloneStrings(resp.AvailableAlgorithms)
	c.st.VideoRequired = cloneStrings(resp.VideoRequired)
	c.st.Errors = cloneStrings(resp.Errors)
	c.st.Warnings = cloneStrings(resp.Warnings)
	s, v := c.setting, c.val
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.SetInstalled(resp.Installed)
	}
	setting, err := s.WithInstalled(v)
	if err != nil {
		c.log.Debugf("encode installed setting: %v", err)
		return
	}
	if err := c.store.SetSetting(ctx, setting); err != nil {
		c.log.Debugf("store installed setting: %v", err)
	}
}

// FinishConfiguration leaves the configuration view for the collector.
func (c *Configurator) FinishConfiguration() {
	c.setLoading(true)
	c.nav.Push(RouteCollector)
}

func (c *Configurator) setLoading(v bool) {
	c.mu.Lock()
	c.st.Loading = v
	c.mu.Unlock()
	if c.onLoad != nil {
		c.onLoad(v)
	}
}

func (c *Configurator) toast(kind notify.Kind, msg string) {
	c.notify.Notify(notify.Toast{Kind: kind, Message: msg, When: time.Now()})
}

// RouteHolder is a Navigator that only remembers the current route.
type RouteHolder struct {
	mu     sync.Mutex
	route  string
	pushes int
}

// NewRouteHolder starts at route.
func NewRouteHolder(route string) *RouteHolder { return &RouteHolder{route: route} }

func (r *RouteHolder) CurrentRoute() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.route
}

func (r *RouteHolder) Push(route string) {
	r.mu.Lock()
	r.route = route
	r.pushes++
	r.mu.Unlock()
}

// Pushes counts navigations so far.
func (r *RouteHolder) Pushes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pushes
}
