package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/brandoo/console/internal/apperr"
	"github.com/brandoo/console/internal/checksum"
)

const reloadDelay = 100 * time.Millisecond

// Watch reloads the state whenever another process rewrites or removes the
// session file, until ctx is cancelled. Writes made by this store are
// recognised by their checksum and ignored.
func (s *Store) Watch(ctx context.Context) error {
	path, err := s.fs.Abs(FileName)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("session: watcher: %w", err)
	}
	defer w.Close()

	// The directory is watched since atomic writes replace the file.
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("session: watch %s: %w", filepath.Dir(path), err)
	}
	s.logger.Info("session: watching", slog.String("path", path))

	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case <-timerC:
			timerC = nil
			s.reload()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != FileName {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDelay)
			} else {
				timer.Reset(reloadDelay)
			}
			timerC = timer.C

		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("session: watcher error", slog.String("error", werr.Error()))
		}
	}
}

// reload applies the on-disk session if it differs from the last one this
// store read or wrote.
func (s *Store) reload() {
	data, err := s.fs.Read(FileName)
	missing := errors.Is(err, apperr.ErrNotFound)
	if err != nil && !missing {
		s.logger.Warn("session: reload failed", slog.String("error", err.Error()))
		return
	}

	var st State
	sum := ""
	if !missing {
		sum = checksum.Sum(data)
		if err := yaml.Unmarshal(data, &st); err != nil {
			s.logger.Warn("session: reload decode failed", slog.String("error", err.Error()))
			return
		}
	}

	s.mu.Lock()
	if sum == s.sum {
		s.mu.Unlock()
		return
	}
	s.state, s.sum = st, sum
	fn := s.onChange
	s.mu.Unlock()

	s.logger.Info("session: reloaded from disk", slog.Bool("signed_in", st.Token != ""))
	if fn != nil {
		fn(st)
	}
}
