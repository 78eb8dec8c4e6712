package main

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

const rebuildOps = fsnotify.Create | fsnotify.Write | fsnotify.Rename

// watch calls rebuild whenever one of files changes, until ctx is done. The
// parent directories are watched so that files replaced by the linker or an
// editor are still tracked.
func watch(ctx context.Context, files []string, rebuild func() error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	tracked := make(map[string]bool, len(files))
	dirs := make(map[string]bool)
	for _, f := range files {
		f = filepath.Clean(f)
		tracked[f] = true
		dirs[filepath.Dir(f)] = true
	}
	for dir := range dirs {
		if err = w.Add(dir); err != nil {
			return err
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
			if ev.Op&rebuildOps == 0 || !tracked[filepath.Clean(ev.Name)] {
				continue
			}

			logrus.WithField("file", ev.Name).Infof("%s, rebuilding", ev.Op)
			if err := rebuild(); err != nil {
				logrus.WithError(err).Error("rebuild failed")
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logrus.WithError(err).Warn("watch error")
		}
	}
}
