// Package inbox uploads files dropped into a watched directory.
package inbox

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Thiagofreitashalogen/halokm-sub000/entities"
)

const (
	DefaultPattern  = "**/*.{pdf,docx,md,txt,html}"
	defaultDebounce = 500 * time.Millisecond
	defaultUser     = "inbox"
)

type Uploader interface {
	Upload(ctx context.Context, filename string, r io.Reader, user string) (*entities.Document, bool, error)
}

type Config struct {
	Dir      string
	Patterns []string
	// Debounce is how long a file must stay quiet before it is uploaded,
	// so half-written files are not picked up.
	Debounce time.Duration
	// User is recorded as the uploader.
	User string
	// ScanExisting uploads matching files already present at start.
	// Re-uploads are harmless: documents are deduplicated by hash.
	ScanExisting bool
}

type Watcher struct {
	cfg Config
	up  Uploader
	log *zap.Logger
}

func New(cfg Config, up Uploader, log *zap.Logger) (*Watcher, error) {
	if strings.TrimSpace(cfg.Dir) == "" {
		return nil, fmt.Errorf("inbox dir is required")
	}
	if len(cfg.Patterns) == 0 {
		cfg.Patterns = []string{DefaultPattern}
	}
	for _, p := range cfg.Patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid inbox pattern %q", p)
		}
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}
	if cfg.User == "" {
		cfg.User = defaultUser
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{cfg: cfg, up: up, log: log.Named("inbox")}, nil
}

// Match reports whether a path relative to the inbox should be uploaded.
// Hidden files and office lock files never match.
func (w *Watcher) Match(rel string) bool {
	rel = filepath.ToSlash(rel)
	base := filepath.Base(rel)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~$") {
		return false
	}
	for _, p := range w.cfg.Patterns {
		if ok, _ := doublestar.Match(strings.ToLower(p), strings.ToLower(rel)); ok {
			return true
		}
	}
	return false
}

// Run watches until ctx is cancelled. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.cfg.Dir, 0o755); err != nil {
		return err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := w.addTree(fw, w.cfg.Dir); err != nil {
		return err
	}
	w.log.Info("watching inbox", zap.String("dir", w.cfg.Dir), zap.Strings("patterns", w.cfg.Patterns))
	if w.cfg.ScanExisting {
		w.scan(ctx)
	}

	pending := map[string]time.Time{}
	tick := time.NewTicker(w.cfg.Debounce / 2)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handle(fw, ev, pending)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))
		case now := <-tick.C:
			for path, last := range pending {
				if now.Sub(last) < w.cfg.Debounce {
					continue
				}
				delete(pending, path)
				w.upload(ctx, path)
			}
		}
	}
}

func (w *Watcher) handle(fw *fsnotify.Watcher, ev fsnotify.Event, pending map[string]time.Time) {
	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		delete(pending, ev.Name)
		return
	}
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}
	info, err := os.Stat(ev.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		if ev.Has(fsnotify.Create) {
			// the tree may already hold files written before the watch existed
			if err := w.addTree(fw, ev.Name); err != nil {
				w.log.Warn("watch new dir", zap.String("dir", ev.Name), zap.Error(err))
			}
			w.queueTree(ev.Name, pending)
		}
		return
	}
	if w.Match(w.rel(ev.Name)) {
		pending[ev.Name] = time.Now()
	}
}

func (w *Watcher) rel(path string) string {
	r, err := filepath.Rel(w.cfg.Dir, path)
	if err != nil {
		return path
	}
	return r
}

func (w *Watcher) addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
}

// queueTree picks up files that landed in a new directory before its
// watch existed.
func (w *Watcher) queueTree(root string, pending map[string]time.Time) {
	now := time.Now()
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() && w.Match(w.rel(path)) {
			pending[path] = now
		}
		return nil
	})
}

func (w *Watcher) scan(ctx context.Context) {
	matches, err := doublestar.Glob(os.DirFS(w.cfg.Dir), "**", doublestar.WithFilesOnly())
	if err != nil {
		w.log.Warn("scan inbox", zap.Error(err))
		return
	}
	for _, m := range matches {
		if ctx.Err() != nil {
			return
		}
		if w.Match(m) {
			w.upload(ctx, filepath.Join(w.cfg.Dir, filepath.FromSlash(m)))
		}
	}
}

func (w *Watcher) upload(ctx context.Context, path string) {
	f, err := os.Open(path)
	if err != nil {
		// gone again before the debounce ran out
		w.log.Debug("open inbox file", zap.String("path", path), zap.Error(err))
		return
	}
	defer f.Close()
	d, existing, err := w.up.Upload(ctx, filepath.Base(path), f, w.cfg.User)
	if err != nil {
		w.log.Warn("inbox upload failed", zap.String("path", path), zap.Error(err))
		return
	}
	w.log.Info("inbox upload", zap.String("path", w.rel(path)), zap.Uint("document_id", d.ID),
		zap.Bool("existing", existing), zap.String("status", d.Status))
}
