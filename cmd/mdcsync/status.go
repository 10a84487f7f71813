package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jxwalker/mdcsync/internal/api"
	"github.com/jxwalker/mdcsync/internal/configure"
	friendlyerrors "github.com/jxwalker/mdcsync/internal/errors"
	"github.com/jxwalker/mdcsync/internal/state"
)

type statusReport struct {
	Installed           bool                 `json:"installed"`
	InstalledList       api.InstalledList    `json:"installed_list"`
	NotInstalledList    api.NotInstalledList `json:"not_installed_list"`
	AvailableAlgorithms []string             `json:"available_algorithms"`
	VideoRequired       []string             `json:"video_required"`
	Source              string               `json:"source"` // server | store
	History             []state.ActionRow    `json:"history,omitempty"`
}

func handleStatus(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	cf := addCommonFlags(fs)
	offline := fs.Bool("offline", false, "read the installed state from the local store instead of the server")
	history := fs.Int("history", 0, "also show the last N dependency actions")
	if err := fs.Parse(args); err != nil {
		return err
	}
	c, err := cf.load()
	if err != nil {
		return err
	}
	log := cf.logger(c)
	s, err := openSession(c, log, false)
	if err != nil {
		return err
	}
	defer s.Close()

	var rep statusReport
	if *offline {
		rep, err = statusFromStore(ctx, s.db)
	} else {
		rep, err = statusFromServer(ctx, s)
	}
	if err != nil {
		return err
	}
	if *history > 0 {
		if rep.History, err = s.db.ListActions(ctx, *history); err != nil {
			return friendlyerrors.DatabaseError(err)
		}
	}

	if cf.jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	printStatus(os.Stdout, rep)
	return nil
}

func statusFromServer(ctx context.Context, s *session) (statusReport, error) {
	conf := s.configurator(s.notifier(), nil)
	if err := conf.Start(ctx); err != nil {
		return statusReport{}, err
	}
	st := conf.Snapshot()
	return statusReport{
		Installed:           st.Installed,
		InstalledList:       st.InstalledList,
		NotInstalledList:    st.NotInstalledList,
		AvailableAlgorithms: st.AvailableAlgorithms,
		VideoRequired:       st.VideoRequired,
		Source:              "server",
	}, nil
}

func statusFromStore(ctx context.Context, db *state.DB) (statusReport, error) {
	setting, ok, err := db.Setting(ctx, api.InstalledSettingName)
	if err != nil {
		return statusReport{}, friendlyerrors.DatabaseError(err)
	}
	if !ok {
		return statusReport{}, friendlyerrors.NewFriendlyError(
			"No installed state in the local store",
			"Run 'mdcsync status' once without --offline to sync it",
		)
	}
	v, err := setting.DecodeInstalled()
	if err != nil {
		return statusReport{}, friendlyerrors.MalformedSettingError(setting.Name, err)
	}
	return statusReport{
		Installed:           v.Status,
		InstalledList:       v.InstalledList,
		NotInstalledList:    configure.GroupNotInstalled(v.NotInstalledList.Required, v.NotInstalledList.Optional, v.NotInstalledList.Boost),
		AvailableAlgorithms: v.AvailableAlgorithms,
		VideoRequired:       v.VideoRequired,
		Source:              "store",
	}, nil
}

func printStatus(out io.Writer, rep statusReport) {
	label := "not installed"
	if rep.Installed {
		label = "installed"
	}
	fmt.Fprintf(out, "Python dependencies: %s (from %s)\n\n", label, rep.Source)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LIST\tPACKAGE\tSTATE\tLOCATION")
	lists := make([]string, 0, len(rep.InstalledList))
	for name := range rep.InstalledList {
		lists = append(lists, name)
	}
	sort.Strings(lists)
	for _, list := range lists {
		set := rep.InstalledList[list]
		names := make([]string, 0, len(set))
		for name := range set {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(tw, "%s\t%s\tinstalled\t%s\n", list, name, set[name].Location)
		}
	}
	missing := map[string]api.StringList{
		"required": rep.NotInstalledList.Required,
		"optional": rep.NotInstalledList.Optional,
		"boost":    rep.NotInstalledList.Boost,
	}
	for _, list := range []string{"required", "optional", "boost"} {
		for _, name := range missing[list] {
			fmt.Fprintf(tw, "%s\t%s\tmissing\t-\n", list, name)
		}
	}
	_ = tw.Flush()

	if len(rep.AvailableAlgorithms) > 0 {
		fmt.Fprintf(out, "\nAlgorithms: %s\n", strings.Join(rep.AvailableAlgorithms, ", "))
	}
	if len(rep.VideoRequired) > 0 {
		fmt.Fprintf(out, "Video requires: %s\n", strings.Join(rep.VideoRequired, ", "))
	}
	if len(rep.History) > 0 {
		fmt.Fprintln(out, "\nRecent actions:")
		for _, r := range rep.History {
			target := ""
			if r.Target != "" {
				target = " " + r.Target
			}
			fmt.Fprintf(out, "  %-8s %s%s: %s (%s)\n", r.Outcome, r.Action, target, r.Message, humanize.Time(time.Unix(r.CreatedAt, 0)))
		}
	}
}
