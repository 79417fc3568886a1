package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"dataspine-go/infrastructure/logger"
)

// Watcher 监听 symbol 文件变化并重新加载。监听的是所在目录，
// 编辑器“写临时文件再 rename”的保存方式也能捕获。
type Watcher struct {
	path     string
	cooldown time.Duration
	log      *logger.Logger
	fsw      *fsnotify.Watcher
}

// NewWatcher starts watching the directory of path. Events arriving within
// cooldown of the last reload are coalesced.
func NewWatcher(path string, cooldown time.Duration, l *logger.Logger) (*Watcher, error) {
	if l == nil {
		l = logger.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}
	return &Watcher{path: abs, cooldown: cooldown, log: l, fsw: fsw}, nil
}

// Run blocks until ctx is done, calling onUpdate with every successfully
// reloaded symbol list. A file that fails to parse keeps the previous list.
func (w *Watcher) Run(ctx context.Context, onUpdate func([]string)) error {
	defer w.fsw.Close()

	var last time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if w.cooldown > 0 && time.Since(last) < w.cooldown {
				continue
			}
			symbols, err := LoadSymbols(w.path)
			if err != nil {
				w.log.Warn("symbol reload failed", zap.String("path", w.path), zap.Error(err))
				continue
			}
			last = time.Now()
			w.log.Info("symbols reloaded", zap.String("path", w.path), zap.Int("count", len(symbols)))
			if onUpdate != nil {
				onUpdate(symbols)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", zap.Error(err))
		}
	}
}
