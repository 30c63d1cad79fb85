package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/docufield/passport-extract/constants"
)

// watchFiles watches root recursively and emits image paths once a quiet
// period has passed with no further writes, so half-written scans settle
// before they extract. Both channels close when ctx is done.
func watchFiles(ctx context.Context, root string, skipHidden bool, debounce time.Duration) (<-chan string, <-chan error, error) {
	if strings.TrimSpace(root) == "" {
		return nil, nil, errors.New("root path is required")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}

	addTree := func(dir string) error {
		return filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if path != root && skipHidden && isHidden(path) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return w.Add(path)
			}
			return nil
		})
	}
	if err := addTree(root); err != nil {
		_ = w.Close()
		return nil, nil, err
	}

	paths := make(chan string, 256)
	errs := make(chan error, 1)

	go func() {
		defer close(paths)
		defer close(errs)
		defer w.Close()

		// The timer lives in this select so the pending set stays on one
		// goroutine.
		var timer *time.Timer
		var settle <-chan time.Time
		pending := map[string]struct{}{}

		flush := func() {
			for p := range pending {
				select {
				case paths <- p:
				default:
				}
				delete(pending, p)
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-settle:
				settle = nil
				flush()
			case e := <-w.Events:
				if skipHidden && isHidden(e.Name) {
					continue
				}
				if e.Op&fsnotify.Create != 0 {
					// New directories join the watch. Files created inside
					// them before Add lands will not raise events; the next
					// batch run picks those up.
					if st, statErr := os.Stat(e.Name); statErr == nil && st.IsDir() {
						_ = addTree(e.Name)
						continue
					}
				}
				if !constants.IsImageExt(filepath.Ext(e.Name)) {
					continue
				}
				if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
					continue
				}
				pending[e.Name] = struct{}{}
				if debounce <= 0 {
					flush()
					continue
				}
				if timer == nil {
					timer = time.NewTimer(debounce)
				} else {
					if !timer.Stop() {
						select {
						case <-timer.C:
						default:
						}
					}
					timer.Reset(debounce)
				}
				settle = timer.C
			case werr := <-w.Errors:
				select {
				case errs <- werr:
				default:
				}
			}
		}
	}()

	return paths, errs, nil
}

// Watch keeps extracting as new scans land under root. One file at a time,
// in arrival order. Blocks until ctx is done.
func (b *Batch) Watch(ctx context.Context, root string, skipHidden bool, debounce time.Duration) error {
	paths, errs, err := watchFiles(ctx, root, skipHidden, debounce)
	if err != nil {
		return err
	}
	b.logger.Info("watching for new scans", "root", root, "debounce", debounce.String())

	for {
		select {
		case <-ctx.Done():
			return nil
		case werr, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			b.logger.Warn("watcher error", "error", werr)
		case path, ok := <-paths:
			if !ok {
				return nil
			}
			// Renames away from the tree report the old name.
			if _, statErr := os.Stat(path); statErr != nil {
				continue
			}
			r := b.processWithTimeout(ctx, path)
			switch {
			case r.Err != "":
				b.logger.Warn("watch extract failed", "path", path, "error", r.Err)
			case r.Success:
				b.logger.Info("watch extract done", "path", path, "job_id", r.JobID)
			default:
				b.logger.Info("watch extract found no mrz", "path", path, "job_id", r.JobID)
			}
		}
	}
}
