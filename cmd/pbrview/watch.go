package main

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"pbr-renderer/renderer"
)

// configWatcher reloads a TOML config whenever it is written. Editors that
// save by rename replace the file, so the parent directory is watched.
type configWatcher struct {
	Updates chan renderer.Config

	watcher *fsnotify.Watcher
	path    string
	done    chan struct{}
}

func watchConfig(path string) (*configWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, err
	}
	cw := &configWatcher{
		Updates: make(chan renderer.Config, 1),
		watcher: w,
		path:    abs,
		done:    make(chan struct{}),
	}
	go cw.loop()
	return cw, nil
}

func (cw *configWatcher) loop() {
	defer close(cw.done)
	log := renderer.Logger()
	for {
		select {
		case ev, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != cw.path || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			cfg, err := renderer.LoadConfig(cw.path)
			if err != nil {
				log.Warn("config reload failed", "path", cw.path, "err", err)
				continue
			}
			// keep only the newest config
			select {
			case <-cw.Updates:
			default:
			}
			cw.Updates <- cfg
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			log.Warn("config watcher", "err", err)
		}
	}
}

func (cw *configWatcher) Close() error {
	err := cw.watcher.Close()
	<-cw.done
	return err
}
