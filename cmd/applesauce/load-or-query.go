package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mailru/easyjson"
	"github.com/urfave/cli/v3"

	applesauce "github.com/hzrd149/applesauce-go"
)

// this is the default command when no subcommand is given, we will just try
// everything: events get loaded, filters get queried
var loadOrQuery = &cli.Command{
	Hidden: true,
	Name:   "load-or-query",
	Action: func(ctx context.Context, c *cli.Command) error {
		hasError := false
		for line := range stdinLinesOrFirstArgument(c) {
			evt := applesauce.Event{}
			if easyjson.Unmarshal([]byte(line), &evt) == nil && evt.ID != applesauce.ZeroID {
				if err := doLoad(line, evt); err != nil {
					fmt.Fprintln(os.Stderr, err)
					hasError = true
				}
				continue
			}

			filter := applesauce.Filter{}
			if easyjson.Unmarshal([]byte(line), &filter) == nil && len(filter.String()) > 2 {
				doQuery(filter)
				continue
			}

			fmt.Fprintf(os.Stderr, "couldn't parse input '%s'\n", line)
			hasError = true
		}

		if hasError {
			os.Exit(123)
		}
		return nil
	},
}

func doLoad(line string, evt applesauce.Event) error {
	added, err := store.Add(evt)
	if err != nil {
		return fmt.Errorf("failed to add event '%s': %s", line, err)
	}
	if added {
		fmt.Fprintf(os.Stderr, "added %s\n", evt.ID)
	} else {
		fmt.Fprintf(os.Stderr, "skipped %s\n", evt.ID)
	}
	return nil
}

func doQuery(filter applesauce.Filter) {
	for evt := range store.QueryEvents(filter) {
		fmt.Println(evt)
	}
}
