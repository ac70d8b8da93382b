// SPDX-FileCopyrightText: 2020, 2021 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package tcpclconf

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// Watcher reloads a Config from its backing file whenever fsnotify reports a change, grounded
// on the teacher's own fsnotify.Watcher use for hot-reloading a Bundle exchange directory.
//
// A re-parse failure is logged and the previously loaded Config is kept; a half-written file is
// never applied.
type Watcher struct {
	filename string
	watcher  *fsnotify.Watcher

	current Config
	changes chan Config

	closeChan chan struct{}
}

// NewWatcher loads the Config at filename and starts watching its containing directory for
// changes. The returned Watcher must be closed with Close.
func NewWatcher(filename string) (w *Watcher, err error) {
	conf, err := Load(filename)
	if err != nil {
		return
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return
	}

	if err = fsw.Add(filepath.Dir(filename)); err != nil {
		_ = fsw.Close()
		return
	}

	w = &Watcher{
		filename: filename,
		watcher:  fsw,

		current: conf,
		changes: make(chan Config, 1),

		closeChan: make(chan struct{}),
	}

	go w.handle()

	return
}

// Current returns the most recently successfully loaded Config.
func (w *Watcher) Current() Config {
	return w.current
}

// Changes reports a new Config each time the backing file is successfully re-parsed.
func (w *Watcher) Changes() <-chan Config {
	return w.changes
}

// Close stops watching the configuration file.
func (w *Watcher) Close() error {
	close(w.closeChan)
	return w.watcher.Close()
}

func (w *Watcher) handle() {
	var reloadTimer *time.Timer

	for {
		select {
		case <-w.closeChan:
			return

		case e, ok := <-w.watcher.Events:
			if !ok {
				log.WithFields(logFields(w.filename)).Error("fsnotify's Event channel was closed")
				return
			}

			if filepath.Clean(e.Name) != filepath.Clean(w.filename) {
				continue
			}

			if e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			reloadTimer = time.AfterFunc(WatchInterval, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				log.WithFields(logFields(w.filename)).Error("fsnotify's Errors channel was closed")
				return
			}

			log.WithFields(logFields(w.filename)).WithError(err).Error("fsnotify errored")
		}
	}
}

func (w *Watcher) reload() {
	conf, err := Load(w.filename)
	if err != nil {
		log.WithFields(logFields(w.filename)).WithError(err).Warn(
			"Reloading configuration failed, keeping previous configuration")
		return
	}

	w.current = conf

	select {
	case w.changes <- conf:
	default:
		log.WithFields(logFields(w.filename)).Debug("Dropping configuration change, channel full")
	}
}
