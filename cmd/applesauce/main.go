package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/hzrd149/applesauce-go/eventstore"
)

var store *eventstore.EventStore

var log zerolog.Logger

var app = &cli.Command{
	Name:      "applesauce",
	Usage:     "an in-memory nostr event store with live queries",
	UsageText: "applesauce -f events.jsonl <load|query|count|watch|gen> ...",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "file",
			Aliases: []string{"f"},
			Usage:   "jsonl file of events to load before running the command",
		},
		&cli.BoolFlag{
			Name:  "verify",
			Usage: "check the id and signature of every event added",
		},
		&cli.BoolFlag{
			Name:  "keep-old",
			Usage: "retain superseded versions of replaceable events",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "print debug logs",
		},
	},
	Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
		level := zerolog.WarnLevel
		if c.Bool("verbose") {
			level = zerolog.DebugLevel
		}
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

		store = eventstore.New()
		store.Log = &log
		store.KeepOldVersions = c.Bool("keep-old")
		if c.Bool("verify") {
			store.VerifyEvent = eventstore.FullVerification
		}

		if path := c.String("file"); path != "" {
			stored, skipped, err := loadFile(path)
			if err != nil {
				return ctx, fmt.Errorf("failed to load '%s': %w", path, err)
			}
			log.Info().Int("stored", stored).Int("skipped", skipped).Str("file", path).
				Msg("loaded events")
		}

		return ctx, nil
	},
	Commands: []*cli.Command{
		loadOrQuery,
		load,
		query,
		count,
		watch,
		gen,
	},
	DefaultCommand: "load-or-query",
}

func main() {
	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
