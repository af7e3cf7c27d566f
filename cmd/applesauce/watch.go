package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/mailru/easyjson"
	"github.com/urfave/cli/v3"

	applesauce "github.com/hzrd149/applesauce-go"
	"github.com/hzrd149/applesauce-go/models"
)

var watch = &cli.Command{
	Name:        "watch",
	ArgsUsage:   "[<filter-json>]",
	Usage:       "renders a live timeline of the events matching a filter",
	Description: "subscribes a timeline model to the filter and re-renders whenever it changes.\nnew events are picked up from the --file jsonl file as it grows, like tail -f.",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:    "rows",
			Aliases: []string{"n"},
			Usage:   "how many events to show",
			Value:   20,
		},
		&cli.DurationFlag{
			Name:  "poll",
			Usage: "how often to re-read the file",
			Value: 500 * time.Millisecond,
		},
	},
	Action: func(ctx context.Context, c *cli.Command) error {
		filter := applesauce.Filter{}
		if arg := c.Args().First(); arg != "" {
			if err := easyjson.Unmarshal([]byte(arg), &filter); err != nil {
				return fmt.Errorf("invalid filter '%s': %w", arg, err)
			}
		}

		ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
		defer cancel()

		reg := models.NewRegistry(store)
		reg.Log = &log
		defer reg.Close()

		sub := models.Subscribe(reg, models.Timeline(filter))
		defer sub.Close()

		rows := int(c.Int("rows"))
		var mu sync.Mutex
		var timeline []applesauce.Event

		render := func() {
			mu.Lock()
			tl := timeline
			mu.Unlock()

			var b strings.Builder
			b.WriteString("\033[2J\033[H")
			fmt.Fprintf(&b, "%d events\n\n", len(tl))
			for i, evt := range tl {
				if i == rows {
					break
				}
				fmt.Fprintf(&b, "%s  %6d  %s  %s\n",
					evt.CreatedAt.Time().Format("2006-01-02 15:04:05"),
					evt.Kind.Num(),
					evt.PubKey.Hex()[:8],
					oneLine(evt.Content, 80))
			}
			os.Stdout.WriteString(b.String())
		}

		debounced := debounce.New(250 * time.Millisecond)
		go func() {
			for tl := range sub.Values() {
				mu.Lock()
				timeline = tl
				mu.Unlock()
				debounced(render)
			}
		}()

		if path := c.String("file"); path != "" {
			go pollFile(ctx, path, c.Duration("poll"))
		}

		<-ctx.Done()
		return nil
	},
}

func pollFile(ctx context.Context, path string, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	// starting from zero replays what Before already loaded; the store
	// skips all of it as duplicates
	var offset int64
	for {
		offset = drainFile(path, offset)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// drainFile adds the complete lines appended since the last call and returns
// the new offset. A partial trailing line stays unread until its newline
// arrives.
func drainFile(path string, offset int64) int64 {
	f, err := os.Open(path)
	if err != nil {
		return offset
	}
	defer f.Close()

	if fi, err := f.Stat(); err == nil && fi.Size() < offset {
		offset = 0 // truncated, start over
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return offset
	}

	r := bufio.NewReaderSize(f, 1024*1024)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return offset
		}
		offset += int64(len(line))

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var evt applesauce.Event
		if err := easyjson.Unmarshal([]byte(line), &evt); err != nil {
			log.Warn().Err(err).Msg("invalid event in watched file")
			continue
		}
		if _, err := store.Add(evt); err != nil {
			log.Debug().Stringer("id", evt.ID).Err(err).Msg("rejected event")
		}
	}
}

func oneLine(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
