package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownCommand = errors.New("unknown cart command")

// Command is a quantity control attached to a grid cell.
type Command int

const (
	CommandAdd Command = iota + 1
	CommandIncrease
	CommandDecrease
)

var commandDeltas = map[Command]int{
	CommandAdd:      1,
	CommandIncrease: 1,
	CommandDecrease: -1,
}

var commandNames = map[string]Command{
	"add":      CommandAdd,
	"inc":      CommandIncrease,
	"increase": CommandIncrease,
	"+":        CommandIncrease,
	"dec":      CommandDecrease,
	"decrease": CommandDecrease,
	"-":        CommandDecrease,
}

func (c Command) String() string {
	switch c {
	case CommandAdd:
		return "add"
	case CommandIncrease:
		return "inc"
	case CommandDecrease:
		return "dec"
	}
	return fmt.Sprintf("command(%d)", int(c))
}

// Delta reports the quantity change the command stands for.
func (c Command) Delta() (int, bool) {
	d, ok := commandDeltas[c]
	return d, ok
}

func ParseCommand(s string) (Command, error) {
	if cmd, ok := commandNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return cmd, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCommand, s)
}

// Dispatch runs the command against article.
func (c *Coordinator) Dispatch(ctx context.Context, cmd Command, article string) (Outcome, error) {
	delta, ok := cmd.Delta()
	if !ok {
		return OutcomeRejected, fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
	}
	return c.RequestQuantityChange(ctx, article, delta)
}
