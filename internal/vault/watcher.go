package vault

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/ledger/internal/pathguard"
	"github.com/starford/ledger/internal/storage"
)

// DefaultDebounce is how long the watcher waits for the file tree to settle
// before rescanning.
const DefaultDebounce = 200 * time.Millisecond

// RescanFunc is called after a watcher-driven rescan of the followed root.
type RescanFunc func(Snapshot)

// Watcher keeps a Vault's file set in step with the disk by running a full
// Rescan after bursts of structural changes.
type Watcher struct {
	vault    *Vault
	logger   *slog.Logger
	onRescan RescanFunc
	debounce time.Duration
	roots    chan string
}

// NewWatcher creates a watcher for v. cb may be nil.
func NewWatcher(v *Vault, logger *slog.Logger, cb RescanFunc) *Watcher {
	return &Watcher{
		vault:    v,
		logger:   logger,
		onRescan: cb,
		debounce: DefaultDebounce,
		roots:    make(chan string, 1),
	}
}

// Follow switches the watched tree to root. Only the latest request is
// kept if Run has not picked up the previous one yet.
func (w *Watcher) Follow(root string) {
	for {
		select {
		case w.roots <- root:
			return
		default:
			select {
			case <-w.roots:
			default:
			}
		}
	}
}

// Run processes file system events until ctx is cancelled.
//
// New directories created at runtime are automatically added to the watch
// list. Writes to existing files do not change the file set and are ignored.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	var root string

	// timer is used to debounce rescans.
	var timer *time.Timer
	var timerCh <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(w.debounce)
			timerCh = timer.C
		} else {
			timer.Reset(w.debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			w.logger.Info("watcher: stopped")
			return nil

		case next := <-w.roots:
			for _, p := range fw.WatchList() {
				_ = fw.Remove(p)
			}
			root = next
			if err := addDirsRecursive(fw, root); err != nil {
				w.logger.Warn("watcher: watch root failed",
					slog.String("root", root),
					slog.String("error", err.Error()))
				continue
			}
			w.logger.Info("watcher: started", slog.String("root", root))

		case <-timerCh:
			w.rescan(root)

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}

			// --- Handle new directories: add to watcher ---
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(fw, ev.Name); addErr != nil {
						w.logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					} else {
						w.logger.Debug("watcher: watching new dir", slog.String("path", ev.Name))
					}
				}
			}
			schedule()

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func (w *Watcher) rescan(root string) {
	snap, err := w.vault.Snapshot()
	if err != nil || snap.RootPath != root {
		return
	}
	snap, err = w.vault.Rescan()
	if err != nil {
		w.logger.Warn("watcher: rescan failed", slog.String("root", root), slog.String("error", err.Error()))
		return
	}
	w.logger.Debug("watcher: rescanned", slog.String("root", root), slog.Int("files", len(snap.FilePaths)))
	if w.onRescan != nil {
		w.onRescan(snap)
	}
}

// relevant reports whether ev can change the set of markdown files.
func relevant(ev fsnotify.Event) bool {
	if strings.HasPrefix(filepath.Base(ev.Name), storage.TempPrefix) {
		return false
	}
	if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
		return false
	}
	if pathguard.IsMarkdown(ev.Name) {
		return true
	}
	// Directories and removed paths carry no extension we can trust.
	info, err := os.Stat(ev.Name)
	return err != nil || info.IsDir()
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
