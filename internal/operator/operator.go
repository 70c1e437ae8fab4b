package operator

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
)

// Kind is what the operator asked for.
type Kind int

const (
	Drive Kind = iota // set tray velocity
	Reset             // put both bodies home, same as an out-of-band reset
	Quit              // end the run with a final flush
)

// Command is one operator instruction.
type Command struct {
	Kind  Kind
	Speed float64 // tray speed in px/s, Drive only
	Name  string
}

// #region config
// Config holds the manual drive speeds.
type Config struct {
	LeftSpeed  float64
	RightSpeed float64
}

// DefaultConfig returns the manual speeds: a fast push left and 1.5 m/s right.
func DefaultConfig() Config {
	return Config{LeftSpeed: -1500, RightSpeed: 300}
}
// #endregion config

// #region parse
// ParseCommand reads one line of operator input. Matching is case-insensitive and
// single-letter shortcuts are accepted.
func ParseCommand(line string, config Config) (Command, error) {
	name := strings.ToLower(strings.TrimSpace(line))
	switch name {
	case "left", "l":
		return Command{Kind: Drive, Speed: config.LeftSpeed, Name: "left"}, nil
	case "right":
		return Command{Kind: Drive, Speed: config.RightSpeed, Name: "right"}, nil
	case "stop", "s":
		return Command{Kind: Drive, Speed: 0, Name: "stop"}, nil
	case "reset", "r":
		return Command{Kind: Reset, Name: "reset"}, nil
	case "quit", "q", "esc", "exit":
		return Command{Kind: Quit, Name: "quit"}, nil
	default:
		return Command{}, fmt.Errorf("unknown command %q", line)
	}
}
// #endregion parse

// #region read
// ReadCommands parses lines from r and sends them on out until r is exhausted or
// ctx is cancelled. Blank lines are skipped; unknown commands are logged and skipped.
// out is not closed.
func ReadCommands(ctx context.Context, r io.Reader, config Config, out chan<- Command) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		cmd, err := ParseCommand(line, config)
		if err != nil {
			log.Printf("[INFO] operator: %v", err)
			continue
		}
		select {
		case out <- cmd:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read operator input: %w", err)
	}
	return nil
}
// #endregion read
