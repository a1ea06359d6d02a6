package solver

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"abt/internal/problem"
)

// Watch re-solves the problem file whenever it changes, invoking onOutcome
// after every run, until the context ends. Rapid editor saves are debounced.
func (s *Solver) Watch(ctx context.Context, path string, onOutcome func(*Outcome, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors replace files on save and
	// a file watch would be lost with the old inode.
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return err
	}
	target := filepath.Clean(path)

	s.logger.Info("watching problem file", zap.String("path", target))

	run := func() {
		def, err := problem.Load(target)
		if err != nil {
			onOutcome(nil, err)
			return
		}
		out, err := s.Solve(ctx, def)
		onOutcome(out, err)
	}
	run()

	// Trailing debounce: a burst of events resets the timer, and the re-solve
	// fires once after the burst settles, with the final file contents.
	const debounce = 500 * time.Millisecond
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			s.logger.Debug("problem file changed", zap.String("op", event.Op.String()))
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(debounce)
		case <-timer.C:
			run()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("watcher error", zap.Error(err))
		}
	}
}
