package commands

import (
	"context"
	"testing"

	"github.com/kurobon/gitgraph/internal/git"
	"github.com/kurobon/gitgraph/internal/gittest"
)

func run(t *testing.T, r *gittest.Repo, argv ...string) (string, error) {
	t.Helper()
	return git.Run(context.Background(), r.Session, argv...)
}
