package server

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher calls back after changes to a repository's HEAD, refs or config settle.
type Watcher struct {
	gitDir   string
	debounce time.Duration
	poll     time.Duration
	logger   *zap.Logger
	watcher  *fsnotify.Watcher
}

// NewWatcher watches gitDir and every directory under gitDir/refs. fsnotify is
// not recursive, so ref directories created later are added as they appear.
func NewWatcher(gitDir string, debounce, poll time.Duration, logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		gitDir:   gitDir,
		debounce: debounce,
		poll:     poll,
		logger:   logger,
		watcher:  fw,
	}
	if err := fw.Add(gitDir); err != nil {
		fw.Close()
		return nil, err
	}
	if err := w.addTree(filepath.Join(gitDir, "refs")); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return w.watcher.Add(path)
		}
		return nil
	})
}

// Run delivers debounced change notifications to onChange until ctx is done.
// With a positive poll interval onChange also fires on every tick.
func (w *Watcher) Run(ctx context.Context, onChange func()) {
	defer w.watcher.Close()

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(w.debounce, onChange)
	}
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	var tick <-chan time.Time
	if w.poll > 0 {
		ticker := time.NewTicker(w.poll)
		defer ticker.Stop()
		tick = ticker.C
	}

	w.logger.Info("watching repository", zap.String("gitDir", w.gitDir))
	for {
		select {
		case <-ctx.Done():
			return

		case <-tick:
			onChange()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) && w.isRefDir(event.Name) {
				if err := w.addTree(event.Name); err != nil {
					w.logger.Warn("watch new ref directory", zap.String("path", event.Name), zap.Error(err))
				}
			}
			if shouldIgnoreEvent(w.gitDir, event) {
				continue
			}
			w.logger.Debug("change detected", zap.String("path", event.Name), zap.String("op", event.Op.String()))
			trigger()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) isRefDir(path string) bool {
	rel, err := filepath.Rel(w.gitDir, path)
	if err != nil || !strings.HasPrefix(rel, "refs") {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// shouldIgnoreEvent filters events that cannot change the commit graph: lock
// files, reflogs, the index and attribute-only changes.
func shouldIgnoreEvent(gitDir string, event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return true
	}
	base := filepath.Base(event.Name)
	if strings.HasSuffix(base, ".lock") {
		return true
	}
	rel, err := filepath.Rel(gitDir, event.Name)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	switch {
	case strings.HasPrefix(rel, "logs/"), rel == "logs":
		return true
	case rel == "index", rel == "FETCH_HEAD", rel == "COMMIT_EDITMSG":
		return true
	case strings.HasPrefix(rel, "objects/"):
		return true
	}
	return false
}
