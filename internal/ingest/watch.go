package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

type WatchConfig struct {
	Roots       []string      // directories to watch (recursive)
	InitialScan bool          // if true, walk roots and emit existing files
	SkipHidden  bool
	Debounce    time.Duration // coalesce rapid create/write bursts per path
	Logger      *slog.Logger
}

// Watch emits the path of every PDF/DOCX file created or written under the
// configured roots until ctx is done. Both channels are closed on return.
func Watch(ctx context.Context, cfg WatchConfig) (<-chan string, <-chan error, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Roots) == 0 {
		return nil, nil, errors.New("no roots provided")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("watch.create_failed", "error", err)
		return nil, nil, err
	}

	evCh := make(chan string, 256)
	errCh := make(chan error, 1)

	var initial []string
	addDir := func(root string) error {
		return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if cfg.SkipHidden && path != root && IsHidden(path) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return w.Add(path)
			}
			if cfg.InitialScan && Allowed(path) {
				initial = append(initial, path)
			}
			return nil
		})
	}
	for _, r := range cfg.Roots {
		if err := addDir(r); err != nil {
			logger.Error("watch.add_root_failed", "root", r, "error", err)
			_ = w.Close()
			return nil, nil, err
		}
	}

	go func() {
		var (
			mu      sync.Mutex
			pending = map[string]*time.Timer{}
			wg      sync.WaitGroup
		)
		defer close(errCh)
		defer close(evCh)
		defer wg.Wait()
		defer func() {
			mu.Lock()
			for p, t := range pending {
				if t.Stop() {
					wg.Done()
				}
				delete(pending, p)
			}
			mu.Unlock()
		}()
		defer func() {
			if err := w.Close(); err != nil {
				logger.Warn("watch.close_failed", "error", err)
			}
		}()

		emit := func(p string) {
			select {
			case evCh <- p:
			case <-ctx.Done():
			}
		}
		for _, p := range initial {
			emit(p)
		}

		schedule := func(p string) {
			if cfg.Debounce <= 0 {
				emit(p)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if t, ok := pending[p]; ok && t.Stop() {
				wg.Done()
			}
			wg.Add(1)
			pending[p] = time.AfterFunc(cfg.Debounce, func() {
				defer wg.Done()
				mu.Lock()
				delete(pending, p)
				mu.Unlock()
				emit(p)
			})
		}

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if cfg.SkipHidden && IsHidden(e.Name) {
					continue
				}
				if e.Has(fsnotify.Create) {
					// new directories are watched too; Add fails harmlessly for files
					_ = w.Add(e.Name)
				}
				if Allowed(e.Name) && (e.Has(fsnotify.Create) || e.Has(fsnotify.Write) || e.Has(fsnotify.Rename)) {
					schedule(e.Name)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("watch.error", "error", err)
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return evCh, errCh, nil
}
