package main

import (
	"bufio"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
)

// stdinLinesOrFirstArgument yields the command's first argument when one is
// given, otherwise every non-empty line read from stdin.
func stdinLinesOrFirstArgument(c *cli.Command) chan string {
	if target := c.Args().First(); target != "" {
		single := make(chan string, 1)
		single <- target
		close(single)
		return single
	}

	return readLines(os.Stdin)
}

func readLines(f *os.File) chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 16*1024*1024), 256*1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			lines <- line
		}
	}()
	return lines
}
