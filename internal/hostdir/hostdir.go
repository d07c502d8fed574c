// Package hostdir mirrors a directory of the host filesystem into a virtual
// store and keeps it in sync.
package hostdir

import (
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/wippyai/typworld/errors"
	"github.com/wippyai/typworld/internal/logging"
)

// SourceExt marks files mirrored as source text. Everything else is
// attached as binary data.
const SourceExt = ".typ"

// DefaultThrottle is the minimum interval between change notifications.
const DefaultThrottle = 200 * time.Millisecond

// Target receives mirrored files.
type Target interface {
	Write(name, text string) error
	Attach(name string, data []byte) error
	Delete(name string) error
	List() []string
}

// Mirror copies files under root into a target.
type Mirror struct {
	target   Target
	log      *zap.Logger
	root     string
	throttle time.Duration
}

// Option configures a Mirror.
type Option func(*Mirror)

// WithThrottle sets the minimum interval between change notifications.
func WithThrottle(d time.Duration) Option {
	return func(m *Mirror) {
		if d > 0 {
			m.throttle = d
		}
	}
}

// New creates a mirror of root.
func New(root string, target Target, opts ...Option) *Mirror {
	m := &Mirror{
		root:     root,
		target:   target,
		throttle: DefaultThrottle,
		log:      logging.Named("hostdir"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load copies every non-hidden file under root and returns how many were
// mirrored.
func (m *Mirror) Load(ctx context.Context) (int, error) {
	return m.load(ctx, m.root)
}

func (m *Mirror) load(ctx context.Context, dir string) (int, error) {
	n := 0
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if p != dir && hidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if err := m.sync(p); err != nil {
			return err
		}
		n++
		return nil
	})
	if err != nil {
		return n, errors.New(errors.PhaseLoad, errors.KindInvalidData).
			Path(dir).
			Cause(err).
			Detail("mirror directory").
			Build()
	}
	m.log.Debug("directory mirrored", zap.String("root", dir), zap.Int("files", n))
	return n, nil
}

// name converts a host path under root into a virtual name.
func (m *Mirror) name(p string) (string, bool) {
	rel, err := filepath.Rel(m.root, p)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	for _, part := range strings.Split(rel, "/") {
		if hidden(part) {
			return "", false
		}
	}
	return rel, true
}

func (m *Mirror) sync(p string) error {
	name, ok := m.name(p)
	if !ok {
		return nil
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return err
	}
	if path.Ext(name) == SourceExt {
		return m.target.Write(name, string(data))
	}
	return m.target.Attach(name, data)
}

// remove deletes name and, if it was a directory, everything below it.
func (m *Mirror) remove(name string) error {
	prefix := name + "/"
	for _, stored := range m.target.List() {
		if strings.HasPrefix(stored, prefix) {
			if err := m.target.Delete(stored); err != nil {
				return err
			}
		}
	}
	return m.target.Delete(name)
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// Watch applies filesystem changes under root to the target until ctx is
// done. onChange is called after changes were applied, at most once per
// throttle interval; a burst ending inside an interval is reported when the
// interval ends.
func (m *Mirror) Watch(ctx context.Context, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(errors.PhaseLoad, errors.KindUnsupported, err, "create watcher")
	}
	defer w.Close()

	if err := m.addTree(w, m.root); err != nil {
		return err
	}

	limiter := rate.NewLimiter(rate.Every(m.throttle), 1)
	trailing := time.NewTimer(m.throttle)
	trailing.Stop()
	defer trailing.Stop()
	pending := false

	notify := func() {
		if limiter.Allow() {
			pending = false
			if onChange != nil {
				onChange()
			}
			return
		}
		if !pending {
			pending = true
			trailing.Reset(m.throttle)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if m.apply(w, ev) {
				notify()
			}

		case <-trailing.C:
			if pending {
				pending = false
				limiter.Allow()
				if onChange != nil {
					onChange()
				}
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			m.log.Warn("watch error", zap.Error(err))
		}
	}
}

func (m *Mirror) addTree(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != m.root && hidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.Add(p); err != nil {
			return errors.New(errors.PhaseLoad, errors.KindInvalidData).Path(p).Cause(err).Detail("watch directory").Build()
		}
		return nil
	})
}

// apply mirrors one event and reports whether the store changed.
func (m *Mirror) apply(w *fsnotify.Watcher, ev fsnotify.Event) bool {
	name, ok := m.name(ev.Name)
	if !ok {
		return false
	}
	log := m.log.With(zap.String("path", name), zap.String("op", ev.Op.String()))

	switch {
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		if err := m.remove(name); err != nil {
			log.Warn("remove failed", zap.Error(err))
			return false
		}
		log.Debug("removed")
		return true

	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		info, err := os.Stat(ev.Name)
		if err != nil {
			return false
		}
		if info.IsDir() {
			if err := m.addTree(w, ev.Name); err != nil {
				log.Warn("watch failed", zap.Error(err))
			}
			n, err := m.load(context.Background(), ev.Name)
			if err != nil {
				log.Warn("mirror failed", zap.Error(err))
			}
			return n > 0
		}
		if !info.Mode().IsRegular() {
			return false
		}
		if err := m.sync(ev.Name); err != nil {
			log.Warn("sync failed", zap.Error(err))
			return false
		}
		log.Debug("synced")
		return true
	}
	return false
}
