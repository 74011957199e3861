package git

import (
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Object transfer between two repositories opened in the same process. Push and
// fetch use it for local remotes.

// CopyCommitRecursive copies a commit and everything it references (parents, trees,
// blobs) from src to dst, stopping at objects dst already has.
func CopyCommitRecursive(src, dst *gogit.Repository, hash plumbing.Hash) error {
	if HasObject(dst, hash) {
		return nil
	}

	obj, err := src.Storer.EncodedObject(plumbing.CommitObject, hash)
	if err != nil {
		return err
	}
	if _, err := dst.Storer.SetEncodedObject(obj); err != nil {
		return err
	}

	commit, err := object.DecodeCommit(src.Storer, obj)
	if err != nil {
		return err
	}
	for _, p := range commit.ParentHashes {
		if err := CopyCommitRecursive(src, dst, p); err != nil {
			return err
		}
	}
	return CopyTreeRecursive(src, dst, commit.TreeHash)
}

// CopyTreeRecursive copies a tree with its blobs and subtrees from src to dst.
func CopyTreeRecursive(src, dst *gogit.Repository, hash plumbing.Hash) error {
	if HasObject(dst, hash) {
		return nil
	}

	obj, err := src.Storer.EncodedObject(plumbing.TreeObject, hash)
	if err != nil {
		return err
	}
	if _, err := dst.Storer.SetEncodedObject(obj); err != nil {
		return err
	}

	tree, err := object.DecodeTree(src.Storer, obj)
	if err != nil {
		return err
	}
	for _, entry := range tree.Entries {
		switch {
		case entry.Mode == filemode.Submodule:
			continue
		case entry.Mode.IsFile():
			if err := CopyBlob(src, dst, entry.Hash); err != nil {
				return err
			}
		default:
			if err := CopyTreeRecursive(src, dst, entry.Hash); err != nil {
				return err
			}
		}
	}
	return nil
}

// CopyBlob copies a blob object from src to dst.
func CopyBlob(src, dst *gogit.Repository, hash plumbing.Hash) error {
	if HasObject(dst, hash) {
		return nil
	}
	obj, err := src.Storer.EncodedObject(plumbing.BlobObject, hash)
	if err != nil {
		return err
	}
	_, err = dst.Storer.SetEncodedObject(obj)
	return err
}

// HasObject checks if a repository has a specific object.
func HasObject(repo *gogit.Repository, hash plumbing.Hash) bool {
	return repo.Storer.HasEncodedObject(hash) == nil
}

// IsFastForward reports whether oldHash is reachable from newHash.
func IsFastForward(repo *gogit.Repository, oldHash, newHash plumbing.Hash) (bool, error) {
	if oldHash == newHash {
		return true, nil
	}
	cNew, err := repo.CommitObject(newHash)
	if err != nil {
		return false, err
	}
	cOld, err := repo.CommitObject(oldHash)
	if err != nil {
		return false, err
	}
	return cOld.IsAncestor(cNew)
}
