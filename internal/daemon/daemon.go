// Package daemon keeps the metrics store fresh without manual scans: it
// rescans on a fixed interval and whenever the conversation logs change.
package daemon

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
)

// debounceWindow coalesces the burst of write events an active session
// produces into a single rescan.
const debounceWindow = 2 * time.Second

type Daemon struct {
	projectsDir string
	interval    string
	run         func() error
}

// New builds a daemon that calls run on every trigger. interval is a
// duration expression like "5m".
func New(projectsDir, interval string, run func() error) *Daemon {
	return &Daemon{projectsDir: projectsDir, interval: interval, run: run}
}

// Run blocks until ctx is cancelled. It fires run once immediately, then on
// the configured interval, and additionally whenever a log file under the
// projects directory is written or created. A failing run is logged and the
// loop keeps going; only an unusable interval or watcher is fatal.
func (d *Daemon) Run(ctx context.Context) error {
	if _, err := time.ParseDuration(d.interval); err != nil {
		return fmt.Errorf("invalid scan interval %q: %w", d.interval, err)
	}

	trigger := make(chan struct{}, 1)
	request := func() {
		select {
		case trigger <- struct{}{}:
		default:
		}
	}

	c := cron.New()
	if _, err := c.AddFunc("@every "+d.interval, request); err != nil {
		return fmt.Errorf("schedule scan interval: %w", err)
	}
	c.Start()
	defer c.Stop()

	watcher, err := d.watchProjects(ctx, request)
	if err != nil {
		return err
	}
	if watcher != nil {
		defer watcher.Close()
	}

	log.Printf("[daemon] watching %s, rescanning every %s", d.projectsDir, d.interval)

	d.runOnce()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-trigger:
			d.runOnce()
		}
	}
}

func (d *Daemon) runOnce() {
	if err := d.run(); err != nil {
		log.Printf("[daemon] scan failed: %v", err)
	}
}

// watchProjects sets up a watcher on the projects directory and each of its
// project subdirectories. A missing projects directory is not fatal; the
// interval timer still drives rescans, which will pick the directory up
// once it exists.
func (d *Daemon) watchProjects(ctx context.Context, request func()) (*fsnotify.Watcher, error) {
	if _, err := os.Stat(d.projectsDir); err != nil {
		log.Printf("[daemon] projects directory unavailable, relying on interval only: %v", err)
		return nil, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if err := watcher.Add(d.projectsDir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch projects dir: %w", err)
	}
	entries, _ := os.ReadDir(d.projectsDir)
	for _, entry := range entries {
		if entry.IsDir() {
			_ = watcher.Add(filepath.Join(d.projectsDir, entry.Name()))
		}
	}

	go func() {
		var debounce *time.Timer
		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				// New project directories appear over time; watch them too.
				if event.Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						_ = watcher.Add(event.Name)
					}
				}
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(debounceWindow, request)

			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
				// Watcher errors are non-fatal; the interval still covers us.
			}
		}
	}()

	return watcher, nil
}
