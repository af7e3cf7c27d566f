package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mailru/easyjson"
	"github.com/urfave/cli/v3"

	applesauce "github.com/hzrd149/applesauce-go"
)

var query = &cli.Command{
	Name:        "query",
	ArgsUsage:   "[<filter-json>]",
	Usage:       "queries the store for events, takes a filter as argument",
	Description: "applies the filter to the store, printing the matching events as jsonl, newest first.\ntakes either a filter as an argument or reads a stream of filters from stdin.",
	Action: func(ctx context.Context, c *cli.Command) error {
		hasError := false
		for line := range stdinLinesOrFirstArgument(c) {
			filter := applesauce.Filter{}
			if err := easyjson.Unmarshal([]byte(line), &filter); err != nil {
				fmt.Fprintf(os.Stderr, "invalid filter '%s': %s\n", line, err)
				hasError = true
				continue
			}

			doQuery(filter)
		}

		if hasError {
			os.Exit(123)
		}
		return nil
	},
}
