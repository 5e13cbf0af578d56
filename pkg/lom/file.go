package lom

import (
	"fmt"
	"path/filepath"
	"sync"

	log "github.com/echocat/slf4g"
	"github.com/fsnotify/fsnotify"
)

// OpenFile loads the set of the given YAML file into a Memory graph and keeps
// it in sync with the file until Close is called. Every reload notifies all
// observers of the graph.
func OpenFile(fn string) (*File, error) {
	abs, err := filepath.Abs(fn)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve set file %q: %w", fn, err)
	}

	set, err := LoadSetFromFile(abs)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("cannot watch set file %q: %w", abs, err)
	}
	// Editors tend to replace files instead of writing them, so the directory
	// is watched.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("cannot watch set file %q: %w", abs, err)
	}

	result := &File{
		Memory:  NewMemoryFromSet(set),
		fn:      abs,
		watcher: watcher,
		done:    make(chan struct{}),
	}
	result.wg.Add(1)
	go result.watch()

	return result, nil
}

type File struct {
	*Memory

	fn      string
	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

func (this *File) Filename() string {
	return this.fn
}

// Reload reads the file again and replaces the graph content.
func (this *File) Reload() error {
	set, err := LoadSetFromFile(this.fn)
	if err != nil {
		return err
	}
	this.Memory.Load(set)
	return nil
}

func (this *File) watch() {
	defer this.wg.Done()
	for {
		select {
		case <-this.done:
			return
		case ev, ok := <-this.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != this.fn {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if err := this.Reload(); err != nil {
				log.With("file", this.fn).
					WithError(err).
					Warn("Cannot reload set file. Keeping the previous content.")
				continue
			}
			log.With("file", this.fn).
				Debug("Set file reloaded.")
		case err, ok := <-this.watcher.Errors:
			if !ok {
				return
			}
			log.With("file", this.fn).
				WithError(err).
				Warn("Set file watcher failed.")
		}
	}
}

func (this *File) Close() (rErr error) {
	this.once.Do(func() {
		close(this.done)
		rErr = this.watcher.Close()
		this.wg.Wait()
	})
	return rErr
}
