// Package watcher observes an upload directory and ingests documents
// dropped into it while the server runs.
package watcher

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/arkanlabs/docchat/internal/core/ports/driving"
	"github.com/arkanlabs/docchat/internal/logger"
)

// settleDelay is how long the watcher waits after the last write event
// before ingesting, so half-copied files are not picked up.
const settleDelay = 500 * time.Millisecond

// Watcher ingests files that appear in a watched directory.
type Watcher struct {
	ingestor driving.IngestService
	dir      string

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// New creates a watcher over the given directory.
func New(ingestor driving.IngestService, dir string) *Watcher {
	return &Watcher{
		ingestor: ingestor,
		dir:      dir,
	}
}

// Start begins watching. Calling Start on a running watcher is a no-op.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(w.dir); err != nil {
		fsw.Close()
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.running = true

	w.wg.Add(1)
	go w.run(runCtx, fsw)

	logger.Info("watching %s for new documents", w.dir)
	return nil
}

// Stop terminates the watch loop and waits for it to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.cancel()
	w.mu.Unlock()

	w.wg.Wait()
	logger.Info("stopped watching %s", w.dir)
}

// run drains filesystem events, debouncing rapid write bursts per file.
func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher) {
	defer w.wg.Done()
	defer fsw.Close()

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(settleDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			pending[event.Name] = time.Now()

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("watch error: %v", err)

		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < settleDelay {
					continue
				}
				delete(pending, path)
				w.ingest(ctx, path)
			}
		}
	}
}

func (w *Watcher) ingest(ctx context.Context, path string) {
	res, err := w.ingestor.IngestFile(ctx, path, false)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		logger.Warn("ingest %s: %v", filepath.Base(path), err)
		return
	}
	logger.Info("auto-ingested %s: %s (%d fragment(s))", res.Filename, res.Status, res.Chunks)
}
