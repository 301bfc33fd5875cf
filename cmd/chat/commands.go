package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ejamakovic/chat-app-FE/internal/client"
)

var errUsage = errors.New("usage")

type command struct {
	name string
	arg  string
}

// parseCommand splits an input line. Lines not starting with a slash are
// messages for the active thread.
func parseCommand(line string) (command, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return command{name: "send", arg: line}, nil
	}

	name, arg, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "global", "users", "quit", "help":
		return command{name: name}, nil
	case "open", "request", "accept", "decline", "dismiss":
		if arg == "" {
			return command{}, fmt.Errorf("%w: /%s <arg>", errUsage, name)
		}
		return command{name: name, arg: arg}, nil
	default:
		return command{}, fmt.Errorf("unknown command /%s", name)
	}
}

// readCommands feeds stdin lines to the client until /quit, EOF or ctx is
// done.
func readCommands(ctx context.Context, c *client.Client, term *terminal, in io.Reader) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			cmd, err := parseCommand(line)
			if err != nil {
				term.Errorf("%v", err)
				continue
			}
			quit, err := execute(ctx, c, term, cmd)
			if err != nil {
				term.Errorf("%v", err)
			}
			if quit {
				return nil
			}
		}
	}
}

func execute(ctx context.Context, c *client.Client, term *terminal, cmd command) (quit bool, err error) {
	switch cmd.name {
	case "send":
		if cmd.arg == "" {
			return false, nil
		}
		return false, c.Send(ctx, cmd.arg)
	case "global":
		return false, c.OpenGlobal(ctx)
	case "open":
		return false, c.OpenPrivate(ctx, cmd.arg)
	case "request":
		return false, c.RequestChat(ctx, cmd.arg)
	case "accept":
		return false, c.Accept(ctx, cmd.arg)
	case "decline":
		return false, c.Decline(ctx, cmd.arg)
	case "dismiss":
		id, err := strconv.ParseUint(cmd.arg, 10, 64)
		if err != nil {
			return false, fmt.Errorf("invalid notification id %q", cmd.arg)
		}
		return false, c.Dismiss(ctx, id)
	case "users":
		state, err := c.State(ctx)
		if err != nil {
			return false, err
		}
		term.Users(state)
		return false, nil
	case "help":
		term.Help()
		return false, nil
	case "quit":
		return true, nil
	}
	return false, fmt.Errorf("unhandled command %q", cmd.name)
}
