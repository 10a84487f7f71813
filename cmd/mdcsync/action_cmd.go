package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jxwalker/mdcsync/internal/configure"
	"github.com/jxwalker/mdcsync/internal/notify"
)

// handleAction runs one dependency action: install, install-list,
// delete-list, update-list or check.
func handleAction(ctx context.Context, name string, args []string) error {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	cf := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	var list string
	switch name {
	case configure.ActionInstallList, configure.ActionDeleteList, configure.ActionUpdateList:
		if fs.NArg() != 1 {
			return fmt.Errorf("usage: mdcsync %s [flags] LIST", name)
		}
		list = fs.Arg(0)
	default:
		if fs.NArg() != 0 {
			return fmt.Errorf("usage: mdcsync %s [flags]", name)
		}
	}

	c, err := cf.load()
	if err != nil {
		return err
	}
	log := cf.logger(c)
	s, err := openSession(c, log, true)
	if err != nil {
		return err
	}
	defer s.Close()

	rec := &notify.Recorder{}
	conf := s.configurator(s.notifier(rec, notify.Log(log)), nil)
	if err := conf.Start(ctx); err != nil {
		return err
	}

	start := time.Now()
	switch name {
	case configure.ActionInstall:
		err = conf.Install(ctx)
	case configure.ActionInstallList:
		err = conf.InstallDepsList(ctx, list)
	case configure.ActionDeleteList:
		err = conf.DeleteDepsList(ctx, list)
	case configure.ActionUpdateList:
		err = conf.UpdateDepsList(ctx, list)
	case configure.ActionCheck:
		err = conf.Check(ctx)
	}
	if err != nil {
		return err
	}

	last, _ := rec.Last()
	if cf.jsonOut {
		st := conf.Snapshot()
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"action":       name,
			"list":         list,
			"outcome":      last.Kind.String(),
			"message":      last.Message,
			"installed":    st.Installed,
			"errors":       st.Errors,
			"warnings":     st.Warnings,
			"duration_sec": time.Since(start).Seconds(),
		})
	}
	st := conf.Snapshot()
	for _, w := range st.Warnings {
		log.Warnf("server: %s", w)
	}
	for _, e := range st.Errors {
		log.Errorf("server: %s", e)
	}
	if last.Kind == notify.Error {
		return fmt.Errorf("%s: %s", name, last.Message)
	}
	return nil
}
