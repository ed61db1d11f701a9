package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/techoh/pkg/logger"
)

type writeJob struct {
	ctx   context.Context
	fn    func(context.Context) error
	done  chan error
	enqAt time.Time
}

// Writer 进程内唯一的写入者：所有变更按提交顺序在同一个 goroutine 中执行，
// 进程内不会出现交错的读-改-写；跨进程由存储层的版本号兜底。
type Writer struct {
	mu        sync.RWMutex
	closed    bool
	ch        chan writeJob
	quit      chan struct{}
	exited    chan struct{}
	metricsCh chan time.Duration
}

func NewWriter(queueSize int) *Writer {
	if queueSize <= 0 {
		queueSize = 1024
	}
	return &Writer{
		ch:        make(chan writeJob, queueSize),
		quit:      make(chan struct{}),
		exited:    make(chan struct{}),
		metricsCh: make(chan time.Duration, 65536),
	}
}

// Start 启动写入 goroutine，返回停止函数；停止后排队中的任务返回 ErrWriterClosed
func (w *Writer) Start() func(context.Context) error {
	go w.loop()
	return func(ctx context.Context) error {
		w.mu.Lock()
		if w.closed {
			w.mu.Unlock()
			return nil
		}
		w.closed = true
		close(w.quit)
		w.mu.Unlock()

		select {
		case <-w.exited:
		case <-ctx.Done():
			return ctx.Err()
		}
		w.drain()
		return nil
	}
}

// loop 退出时清空队列，停止超时的情况下排队的 Do 也能返回
func (w *Writer) loop() {
	defer close(w.exited)
	defer w.drain()
	for {
		// quit 优先于排队任务
		select {
		case <-w.quit:
			return
		default:
		}
		select {
		case job := <-w.ch:
			w.run(job)
		case <-w.quit:
			return
		}
	}
}

func (w *Writer) drain() {
	for {
		select {
		case job := <-w.ch:
			job.done <- ErrWriterClosed
		default:
			return
		}
	}
}

func (w *Writer) run(job writeJob) {
	if err := job.ctx.Err(); err != nil {
		job.done <- err
		return
	}
	err := job.fn(job.ctx)
	job.done <- err
	select {
	case w.metricsCh <- time.Since(job.enqAt):
	default:
	}
}

// Do 排队执行 fn 并等待结果。ctx 取消后立即返回 ctx.Err()，尚未开始的任务不再执行
func (w *Writer) Do(ctx context.Context, fn func(context.Context) error) error {
	job := writeJob{ctx: ctx, fn: fn, done: make(chan error, 1), enqAt: time.Now()}

	w.mu.RLock()
	if w.closed {
		w.mu.RUnlock()
		return ErrWriterClosed
	}
	select {
	case w.ch <- job:
	case <-ctx.Done():
		w.mu.RUnlock()
		return ctx.Err()
	}
	if q := len(w.ch); q == cap(w.ch) {
		logger.Warn("writer queue full", zap.Int("queue", q))
	}
	w.mu.RUnlock()

	select {
	case err := <-job.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Metrics 返回排队到执行完成耗时的只读通道
func (w *Writer) Metrics() <-chan time.Duration { return w.metricsCh }

// QueueLen 返回当前队列长度（采样值）
func (w *Writer) QueueLen() int { return len(w.ch) }
