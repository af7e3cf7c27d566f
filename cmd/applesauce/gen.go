package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	applesauce "github.com/hzrd149/applesauce-go"
	"github.com/hzrd149/applesauce-go/helpers"
)

var gen = &cli.Command{
	Name:        "gen",
	ArgsUsage:   "[<content>]",
	Usage:       "generates a signed event, for piping into load or a jsonl file",
	Description: "creates and signs an event with the given content.\nwithout --sec a fresh key is generated and printed to stderr so follow-up events can reuse it.",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "sec",
			Usage: "hex private key to sign with",
		},
		&cli.IntFlag{
			Name:    "kind",
			Aliases: []string{"k"},
			Usage:   "event kind",
			Value:   1,
		},
		&cli.StringFlag{
			Name:  "name",
			Usage: "produce a kind 0 profile with this name instead of a note",
		},
		&cli.StringSliceFlag{
			Name:    "tag",
			Aliases: []string{"t"},
			Usage:   "tag as comma-separated values, can be given multiple times",
		},
	},
	Action: func(ctx context.Context, c *cli.Command) error {
		var sk [32]byte
		if sec := c.String("sec"); sec != "" {
			b, err := hex.DecodeString(sec)
			if err != nil || len(b) != 32 {
				return fmt.Errorf("--sec must be a 32-byte hex string")
			}
			copy(sk[:], b)
		} else {
			sk = applesauce.GeneratePrivateKey()
			fmt.Fprintf(os.Stderr, "sec: %x\n", sk)
		}

		evt := applesauce.Event{
			Kind:      applesauce.Kind(c.Int("kind")),
			CreatedAt: applesauce.Now(),
			Content:   strings.Join(c.Args().Slice(), " "),
		}

		if name := c.String("name"); name != "" {
			content, err := helpers.Profile{Name: name}.Content()
			if err != nil {
				return err
			}
			evt.Kind = applesauce.KindProfileMetadata
			evt.Content = content
		}

		for _, raw := range c.StringSlice("tag") {
			evt.Tags = append(evt.Tags, applesauce.Tag(strings.Split(raw, ",")))
		}

		signer := applesauce.NewKeySigner(sk)
		if err := signer.SignEvent(ctx, &evt); err != nil {
			return err
		}

		fmt.Println(evt)
		return nil
	},
}
