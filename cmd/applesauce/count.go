package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mailru/easyjson"
	"github.com/urfave/cli/v3"

	applesauce "github.com/hzrd149/applesauce-go"
)

var count = &cli.Command{
	Name:        "count",
	ArgsUsage:   "[<filter-json>]",
	Usage:       "counts all events that match a given filter",
	Description: "applies the filter to the store, counting the results",
	Action: func(ctx context.Context, c *cli.Command) error {
		hasError := false
		for line := range stdinLinesOrFirstArgument(c) {
			filter := applesauce.Filter{}
			if err := easyjson.Unmarshal([]byte(line), &filter); err != nil {
				fmt.Fprintf(os.Stderr, "invalid filter '%s': %s\n", line, err)
				hasError = true
				continue
			}

			fmt.Println(store.CountEvents(filter))
		}

		if hasError {
			os.Exit(123)
		}
		return nil
	},
}
