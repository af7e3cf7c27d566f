package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mailru/easyjson"
	"github.com/urfave/cli/v3"

	applesauce "github.com/hzrd149/applesauce-go"
)

var load = &cli.Command{
	Name:        "load",
	ArgsUsage:   "[<event-json>]",
	Usage:       "adds events to the store",
	Description: "takes either an event as an argument or reads a stream of events from stdin and adds them to the store.\nduplicates and superseded replaceable versions are skipped, not errors.",
	Action: func(ctx context.Context, c *cli.Command) error {
		hasError := false
		stored, skipped := 0, 0
		for line := range stdinLinesOrFirstArgument(c) {
			var evt applesauce.Event
			if err := easyjson.Unmarshal([]byte(line), &evt); err != nil {
				fmt.Fprintf(os.Stderr, "invalid event '%s': %s\n", line, err)
				hasError = true
				continue
			}

			added, err := store.Add(evt)
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to add event '%s': %s\n", line, err)
				hasError = true
				continue
			}
			if added {
				stored++
			} else {
				skipped++
			}
		}

		fmt.Fprintf(os.Stderr, "%d stored, %d skipped\n", stored, skipped)
		if hasError {
			os.Exit(123)
		}
		return nil
	},
}

// loadFile adds every event in a jsonl file to the store, counting skipped
// duplicates and superseded versions separately.
func loadFile(path string) (stored, skipped int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	i := 0
	for line := range readLines(f) {
		i++
		var evt applesauce.Event
		if err := easyjson.Unmarshal([]byte(line), &evt); err != nil {
			log.Warn().Int("line", i).Err(err).Msg("invalid event")
			continue
		}

		added, err := store.Add(evt)
		if err != nil {
			log.Warn().Int("line", i).Stringer("id", evt.ID).Err(err).Msg("rejected event")
			continue
		}
		if added {
			stored++
		} else {
			skipped++
		}
	}
	return stored, skipped, nil
}
