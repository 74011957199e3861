package git

import "errors"

var (
	ErrNotRepository  = errors.New("not a git repository")
	ErrUnknownCommand = errors.New("unknown command")
	ErrNonFastForward = errors.New("non-fast-forward update rejected")
	ErrDetachedHead   = errors.New("HEAD is detached")
	ErrRefNotFound    = errors.New("ref not found")
)
