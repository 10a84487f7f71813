package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	friendlyerrors "github.com/jxwalker/mdcsync/internal/errors"
)

func handleStore(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("store subcommand required: list | clear")
	}
	sub := args[0]
	fs := flag.NewFlagSet("store "+sub, flag.ContinueOnError)
	cf := addCommonFlags(fs)
	history := fs.Bool("history", false, "clear: also clear the action history")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	c, err := cf.load()
	if err != nil {
		return err
	}
	log := cf.logger(c)

	switch sub {
	case "list":
		s, err := openSession(c, log, false)
		if err != nil {
			return err
		}
		defer s.Close()
		settings, err := s.db.ListSettings(ctx)
		if err != nil {
			return friendlyerrors.DatabaseError(err)
		}
		if cf.jsonOut {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(settings)
		}
		for _, st := range settings {
			fmt.Printf("%d\t%s\t%s\n", st.ID, st.Name, truncateValue(string(st.Value), 80))
		}
		return nil
	case "clear":
		s, err := openSession(c, log, true)
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.db.ClearSettings(ctx); err != nil {
			return friendlyerrors.DatabaseError(err)
		}
		if *history {
			if err := s.db.ClearActions(ctx); err != nil {
				return friendlyerrors.DatabaseError(err)
			}
		}
		fmt.Println("store: cleared")
		return nil
	default:
		return fmt.Errorf("unknown store subcommand: %s", sub)
	}
}

func truncateValue(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
