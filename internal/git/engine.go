package git

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Command defines the interface for all ref-mutating commands.
type Command interface {
	Execute(ctx context.Context, session *Session, args []string) (string, error)
	Help() string
}

// CommandFactory allows creating new instances of commands
type CommandFactory func() Command

var registry = make(map[string]CommandFactory)

// RegisterCommand registers a command factory
func RegisterCommand(name string, factory CommandFactory) {
	registry[name] = factory
}

// Dispatch runs a registered command. args[0] is the command name, as typed.
func Dispatch(ctx context.Context, session *Session, cmdName string, args []string) (string, error) {
	factory, ok := registry[cmdName]
	if !ok {
		return "", fmt.Errorf("'%s': %w", cmdName, ErrUnknownCommand)
	}
	if session == nil || session.GetRepo() == nil {
		return "", ErrNotRepository
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return factory().Execute(ctx, session, args)
}

// Run dispatches argv, where argv[0] is the command name.
func Run(ctx context.Context, session *Session, argv ...string) (string, error) {
	if len(argv) == 0 {
		return "", fmt.Errorf("empty command: %w", ErrUnknownCommand)
	}
	return Dispatch(ctx, session, argv[0], argv)
}

// GetSupportedCommands returns all registered commands, sorted.
func GetSupportedCommands() []string {
	cmds := make([]string, 0, len(registry))
	for k := range registry {
		cmds = append(cmds, k)
	}
	sort.Strings(cmds)
	return cmds
}

// GetCommandHelp returns the help string for a command
func GetCommandHelp(name string) (string, error) {
	factory, ok := registry[name]
	if !ok {
		return "", fmt.Errorf("'%s': %w", name, ErrUnknownCommand)
	}
	return factory().Help(), nil
}

// ParseCommand splits a typed command line into the command name and argv.
// A leading "git" is dropped; argv[0] is always the command name.
func ParseCommand(input string) (string, []string) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return "", nil
	}
	if parts[0] == "git" {
		parts = parts[1:]
		if len(parts) == 0 {
			return "", nil
		}
	}
	return parts[0], parts
}
