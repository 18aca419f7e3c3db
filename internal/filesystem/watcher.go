package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ConfigReconciler keeps the instance configuration file and its in-memory
// document converged. Operators may hand-edit the file on disk: a valid
// external edit is adopted into memory, while a corrupt one is undone by
// rewriting the file from the last known-good document.
//
// The reconciler owns a per-instance known-write flag. The daemon's own
// writes set it just before touching the disk; the next watcher
// notification clears it and is otherwise ignored, so the daemon never
// reacts to the echo of its own write.
type ConfigReconciler struct {
	fs   *Filesystem
	rel  string // sandbox-relative location of the config file
	path string // resolved absolute location

	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}

	mu       sync.Mutex
	doc      json.RawMessage
	ownWrite bool
}

// NewConfigReconciler creates a reconciler for the instance's config file
// at the given sandbox-relative location and attaches it to the
// filesystem, so writes through the manager mark the known-write flag.
// initial is the current in-memory document.
func NewConfigReconciler(fs *Filesystem, configPath string, initial json.RawMessage) (*ConfigReconciler, error) {
	abs := fs.Path(configPath)

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("create parent of %s: %w", configPath, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create config watcher: %w", err)
	}

	// The parent directory is watched instead of the file so atomic
	// replace-by-rename edits are still observed.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", configPath, err)
	}

	r := &ConfigReconciler{
		fs:      fs,
		rel:     configPath,
		path:    abs,
		watcher: watcher,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
		doc:     append(json.RawMessage(nil), initial...),
	}
	fs.rec = r
	return r, nil
}

// Start begins processing watcher notifications until the context is
// cancelled or Close is called.
func (r *ConfigReconciler) Start(ctx context.Context) {
	go r.eventLoop(ctx)
	r.fs.log.Debug("config reconciler started", zap.String("path", r.rel))
}

// Close stops the reconciler and releases the watcher.
func (r *ConfigReconciler) Close() error {
	close(r.stopCh)
	<-r.doneCh
	return r.watcher.Close()
}

// Document returns a copy of the current in-memory configuration.
func (r *ConfigReconciler) Document() json.RawMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append(json.RawMessage(nil), r.doc...)
}

// WriteConfig adopts data as the new in-memory document and writes it to
// disk. The write travels through the filesystem manager, which marks the
// known-write flag before touching the file.
func (r *ConfigReconciler) WriteConfig(data json.RawMessage) error {
	if !json.Valid(data) {
		return fmt.Errorf("write %s: %w", r.rel, ErrInvalidArgument)
	}

	r.mu.Lock()
	r.doc = append(r.doc[:0:0], data...)
	r.mu.Unlock()

	return r.fs.Write(r.rel, data)
}

// expectOwnWrite flags the next change notification as the echo of a
// daemon-driven write.
func (r *ConfigReconciler) expectOwnWrite() {
	r.mu.Lock()
	r.ownWrite = true
	r.mu.Unlock()
}

// eventLoop dispatches watcher notifications for the config file.
func (r *ConfigReconciler) eventLoop(ctx context.Context) {
	defer close(r.doneCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			return
		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if event.Name != r.path || event.Op == fsnotify.Chmod {
				continue
			}
			r.reconcile()
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.fs.log.Warn("config watcher error", zap.String("path", r.rel), zap.Error(err))
		}
	}
}

// reconcile processes one change notification for the config file.
//
// A pending daemon write consumes the notification and clears the flag.
// Otherwise the on-disk content is parsed: valid JSON becomes the new
// in-memory document; anything else (corrupt content, missing file) is
// undone by rewriting the file from memory. A failed undo leaves the
// daemon unable to self-heal and is reported at the highest severity the
// reconciler can emit without terminating the process.
func (r *ConfigReconciler) reconcile() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ownWrite {
		r.ownWrite = false
		r.fs.log.Debug("config change matches pending daemon write", zap.String("path", r.rel))
		return
	}

	data, err := os.ReadFile(r.path)
	if err == nil && json.Valid(data) {
		r.doc = append(r.doc[:0:0], data...)
		r.fs.log.Debug("adopted external config edit", zap.String("path", r.rel))
		return
	}

	r.fs.log.Warn("external config edit is not valid JSON, restoring last known-good state",
		zap.String("path", r.rel),
		zap.Error(err),
	)

	// The rewrite is itself a daemon write; its notification must not be
	// reconciled again.
	r.ownWrite = true
	if werr := os.WriteFile(r.path, r.doc, 0o644); werr != nil {
		r.fs.log.Error("failed to restore config file, daemon state is inconsistent and cannot self-heal",
			zap.String("path", r.rel),
			zap.Error(werr),
		)
	}
}
