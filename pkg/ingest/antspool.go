package ingest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/japaniel/wordlens/pkg/logger"
)

// AntsPool runs jobs on an ants goroutine pool. Workers are spawned on
// demand up to the pool size and purged when idle, which suits scans whose
// URL lists vary a lot in length.
type AntsPool struct {
	pool *ants.Pool
	wg   sync.WaitGroup

	mu     sync.RWMutex
	ctx    context.Context
	closed bool
}

// NewAntsPool creates a pool running at most workers jobs at once.
func NewAntsPool(workers int) (*AntsPool, error) {
	if workers <= 0 {
		workers = 1
	}
	p, err := ants.NewPool(workers,
		ants.WithPanicHandler(func(v interface{}) {
			logger.L().Error("ingest job panicked", zap.Any("panic", v), zap.Stack("stack"))
		}),
		ants.WithNonblocking(false),
		ants.WithExpiryDuration(10*time.Second),
	)
	if err != nil {
		return nil, err
	}
	return &AntsPool{pool: p, ctx: context.Background()}, nil
}

// AntsPoolFactory is an Ingester.PoolFactory backed by ants. It falls back
// to the fixed WorkerPool if ants rejects the settings.
func AntsPoolFactory(workers, queue int) WorkerPoolInterface {
	p, err := NewAntsPool(workers)
	if err != nil {
		logger.L().Warn("ants pool unavailable, using fixed pool", zap.Error(err))
		return NewWorkerPool(workers, queue)
	}
	return p
}

// Start sets the context jobs run with.
func (p *AntsPool) Start(ctx context.Context) {
	p.mu.Lock()
	p.ctx = ctx
	p.mu.Unlock()
}

// Submit enqueues job, blocking while every worker is busy.
func (p *AntsPool) Submit(job Job) error {
	return p.SubmitCtx(context.Background(), job)
}

// SubmitCtx is Submit that refuses work once ctx is canceled. Jobs still
// queued when the run context ends run with the canceled context, so their
// own bookkeeping still happens.
func (p *AntsPool) SubmitCtx(ctx context.Context, job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	runCtx := p.ctx
	p.wg.Add(1)
	err := p.pool.Submit(func() {
		defer p.wg.Done()
		_ = job(runCtx)
	})
	if err != nil {
		p.wg.Done()
		if errors.Is(err, ants.ErrPoolClosed) {
			return ErrPoolClosed
		}
		return err
	}
	return nil
}

// Close stops accepting jobs, waits for the submitted ones and releases the
// pool.
func (p *AntsPool) Close() {
	p.mu.Lock()
	already := p.closed
	p.closed = true
	p.mu.Unlock()
	if already {
		return
	}
	p.wg.Wait()
	p.pool.Release()
}

// Running reports how many workers are busy.
func (p *AntsPool) Running() int { return p.pool.Running() }
