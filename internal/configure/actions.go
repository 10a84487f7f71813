package configure

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jxwalker/mdcsync/internal/api"
	"github.com/jxwalker/mdcsync/internal/notify"
	"github.com/jxwalker/mdcsync/internal/state"
)

// Action names used in history and metrics.
const (
	ActionInstall     = "install"
	ActionInstallList = "install-list"
	ActionDeleteList  = "delete-list"
	ActionUpdateList  = "update-list"
	ActionCheck       = "check"
)

// ErrUnknownList is returned when a list name is not in the installed list.
var ErrUnknownList = errors.New("unknown package list")

type busyFlag int

const (
	busyInstalling busyFlag = iota
	busyChecking
	busyUpdating
)

type action struct {
	name    string
	target  string
	flag    busyFlag
	call    func(ctx context.Context) (api.PythonResponse, error)
	outcome func(r api.PythonResponse) (notify.Kind, string)
	failMsg string
}

// Install installs all dependency lists.
func (c *Configurator) Install(ctx context.Context) error {
	return c.run(ctx, action{
		name: ActionInstall,
		flag: busyInstalling,
		call: c.api.PythonInstall,
		outcome: func(r api.PythonResponse) (notify.Kind, string) {
			switch {
			case r.Success:
				return notify.Success, MsgInstallSuccess
			case r.Installed:
				return notify.Warning, MsgInstallPartial
			default:
				return notify.Error, MsgInstallFailed
			}
		},
		failMsg: MsgInstallFailed,
	})
}

// InstallDepsList installs the named dependency list (required, optional, boost).
func (c *Configurator) InstallDepsList(ctx context.Context, listName string) error {
	return c.run(ctx, action{
		name:   ActionInstallList,
		target: listName,
		flag:   busyUpdating,
		call: func(ctx context.Context) (api.PythonResponse, error) {
			return c.api.PythonInstallList(ctx, listName)
		},
		outcome: successOr(MsgListInstallSuccess, MsgListInstallFailed),
		failMsg: MsgListInstallFailed,
	})
}

// DeleteDepsList removes every non-global package of the named list.
func (c *Configurator) DeleteDepsList(ctx context.Context, listName string) error {
	return c.runForList(ctx, listName, action{
		name:    ActionDeleteList,
		target:  listName,
		flag:    busyUpdating,
		outcome: successOr(MsgListDeleteSuccess, MsgListDeleteFailed),
		failMsg: MsgDeleteRequestFail,
	}, c.api.PythonDelete)
}

// UpdateDepsList upgrades every non-global package of the named list.
func (c *Configurator) UpdateDepsList(ctx context.Context, listName string) error {
	return c.runForList(ctx, listName, action{
		name:    ActionUpdateList,
		target:  listName,
		flag:    busyUpdating,
		outcome: successOr(MsgUpdateSuccess, MsgUpdateFailed),
		failMsg: MsgUpdateRequestFail,
	}, c.api.PythonUpdate)
}

// Check asks the server to re-evaluate the installed state.
func (c *Configurator) Check(ctx context.Context) error {
	return c.run(ctx, action{
		name: ActionCheck,
		flag: busyChecking,
		call: c.api.PythonCheck,
		outcome: func(r api.PythonResponse) (notify.Kind, string) {
			if r.Installed {
				return notify.Success, MsgCheckInstalled
			}
			return notify.Error, MsgCheckNotInstalled
		},
		failMsg: MsgCheckFailed,
	})
}

func successOr(ok, fail string) func(api.PythonResponse) (notify.Kind, string) {
	return func(r api.PythonResponse) (notify.Kind, string) {
		if r.Success {
			return notify.Success, ok
		}
		return notify.Error, fail
	}
}

func (c *Configurator) runForList(ctx context.Context, listName string, a action, call func(context.Context, []string) (api.PythonResponse, error)) error {
	c.mu.Lock()
	packages, ok := PackagesForList(c.st.InstalledList, listName)
	c.mu.Unlock()
	if !ok {
		err := fmt.Errorf("%w: %q", ErrUnknownList, listName)
		c.toast(notify.Error, MsgUnknownList+": "+listName)
		c.finish(ctx, a, notify.Error, err.Error(), time.Now())
		return err
	}
	a.call = func(ctx context.Context) (api.PythonResponse, error) {
		return call(ctx, packages)
	}
	return c.run(ctx, a)
}

func (c *Configurator) run(ctx context.Context, a action) error {
	start := time.Now()
	c.setBusy(a.flag, true)

	resp, err := a.call(ctx)
	if err != nil {
		return c.fail(ctx, a, err, start)
	}
	c.ApplyPythonResponse(ctx, resp)

	setting, err := c.InstalledSetting()
	if err == nil {
		err = c.api.PutSetting(ctx, setting)
	}
	if err != nil {
		return c.fail(ctx, a, fmt.Errorf("persist installed setting: %w", err), start)
	}

	c.setBusy(a.flag, false)
	kind, msg := a.outcome(resp)
	c.toast(kind, msg)
	c.finish(ctx, a, kind, msg, start)
	return nil
}

func (c *Configurator) fail(ctx context.Context, a action, err error, start time.Time) error {
	c.log.Debugf("%s: %v", a.name, err)
	c.setBusy(a.flag, false)
	c.toast(notify.Error, a.failMsg)
	c.finish(ctx, a, notify.Error, err.Error(), start)
	return err
}

func (c *Configurator) finish(ctx context.Context, a action, kind notify.Kind, msg string, start time.Time) {
	if c.metrics != nil {
		c.metrics.ObserveAction(a.name, kind.String(), time.Since(start))
	}
	if c.history != nil {
		row := state.ActionRow{Action: a.name, Target: a.target, Outcome: kind.String(), Message: msg}
		if err := c.history.RecordAction(ctx, row); err != nil {
			c.log.Debugf("record action: %v", err)
		}
	}
}

func (c *Configurator) setBusy(f busyFlag, v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch f {
	case busyInstalling:
		c.st.Installing = v
	case busyChecking:
		c.st.Checking = v
	case busyUpdating:
		c.st.Updating = v
	}
}
