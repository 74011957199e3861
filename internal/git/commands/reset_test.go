package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurobon/gitgraph/internal/gittest"
)

func TestResetCommand_Hard(t *testing.T) {
	r := gittest.New(t)
	c1 := r.Commit("a.txt", "a", "first")
	c2 := r.Commit("a.txt", "b", "second")

	out, err := run(t, r, "reset", "--hard", c1.String())
	require.NoError(t, err)
	assert.Contains(t, out, "HEAD is now at "+c1.String()[:7])
	assert.Equal(t, c1, r.Ref("refs/heads/master"))
	assert.Equal(t, c2, r.Ref("ORIG_HEAD"))

	w, err := r.Git.Worktree()
	require.NoError(t, err)
	f, err := w.Filesystem.Open("a.txt")
	require.NoError(t, err)
	defer f.Close()
	buf := make([]byte, 8)
	n, _ := f.Read(buf)
	assert.Equal(t, "a", string(buf[:n]))
}

func TestResetCommand_ParseArgs(t *testing.T) {
	c := &ResetCommand{}
	opts, err := c.parseArgs([]string{"reset", "--soft", "HEAD~1"})
	require.NoError(t, err)
	assert.Equal(t, "HEAD~1", opts.Target)

	opts, err = c.parseArgs([]string{"reset", "--help"})
	require.NoError(t, err)
	assert.Nil(t, opts)

	_, err = c.parseArgs([]string{"reset", "--bogus"})
	assert.Error(t, err)
}
