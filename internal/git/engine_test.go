package git

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoCommand struct{}

func (echoCommand) Execute(_ context.Context, _ *Session, args []string) (string, error) {
	return args[len(args)-1], nil
}

func (echoCommand) Help() string { return "usage: echo <word>" }

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input        string
		expectedName string
		expectedArgs []string
	}{
		{"git checkout main", "checkout", []string{"checkout", "main"}},
		{"branch -f topic HEAD~1", "branch", []string{"branch", "-f", "topic", "HEAD~1"}},
		{"git   reset   abc123", "reset", []string{"reset", "abc123"}},
		{"git", "", nil},
		{"", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			name, args := ParseCommand(tt.input)
			assert.Equal(t, tt.expectedName, name)
			assert.Equal(t, tt.expectedArgs, args)
		})
	}
}

func TestDispatch(t *testing.T) {
	RegisterCommand("echo-test", func() Command { return echoCommand{} })
	t.Cleanup(func() { delete(registry, "echo-test") })

	s, err := OpenMemory()
	require.NoError(t, err)

	out, err := Run(context.Background(), s, "echo-test", "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)

	_, err = Run(context.Background(), s, "nope")
	assert.True(t, errors.Is(err, ErrUnknownCommand))

	_, err = Dispatch(context.Background(), nil, "echo-test", []string{"echo-test"})
	assert.ErrorIs(t, err, ErrNotRepository)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Run(ctx, s, "echo-test", "x")
	assert.ErrorIs(t, err, context.Canceled)

	help, err := GetCommandHelp("echo-test")
	require.NoError(t, err)
	assert.Contains(t, help, "usage")
	assert.Contains(t, GetSupportedCommands(), "echo-test")
}
