package service

import (
	"context"
	"sync"
)

// ChangeListener 在文章集合发生变化后被调用（例如使缓存失效）
type ChangeListener interface {
	ArticlesChanged(ctx context.Context)
}

// Hooks 变更通知
type Hooks struct {
	mu        sync.RWMutex
	listeners []ChangeListener
}

func (h *Hooks) Subscribe(l ChangeListener) {
	h.mu.Lock()
	h.listeners = append(h.listeners, l)
	h.mu.Unlock()
}

func (h *Hooks) articlesChanged(ctx context.Context) {
	if h == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, l := range h.listeners {
		l.ArticlesChanged(ctx)
	}
}

// exec 有 Writer 时串行执行，否则直接执行
func exec(ctx context.Context, w *Writer, fn func(context.Context) error) error {
	if w == nil {
		return fn(ctx)
	}
	return w.Do(ctx, fn)
}
