package mdprint

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one worker is available.
	MinPoolSize = 1

	// MaxPoolSize caps browser instances to limit memory (~200MB each).
	// Larger requests are clamped, not rejected.
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// ConverterPool manages a pool of Converter instances for parallel processing.
// Each converter has its own browser instance, enabling true parallelism.
// Converters are created lazily on first acquire to avoid startup delay.
type ConverterPool struct {
	size int
	opts []Option
	gate *semaphore.Weighted
	idle chan *Converter

	mu         sync.Mutex
	converters []*Converter
	closed     bool
}

// NewConverterPool creates a pool with capacity for n Converter instances,
// each built with opts. n is clamped to [MinPoolSize, MaxPoolSize].
// Converters are created when acquired, not at pool creation.
func NewConverterPool(n int, opts ...Option) *ConverterPool {
	n = clampPoolSize(n)
	return &ConverterPool{
		size:       n,
		opts:       opts,
		gate:       semaphore.NewWeighted(int64(n)),
		idle:       make(chan *Converter, n),
		converters: make([]*Converter, 0, n),
	}
}

// Acquire gets a converter from the pool, creating one if none is idle.
// Blocks while all converters are in use, until ctx is done.
func (p *ConverterPool) Acquire(ctx context.Context) (*Converter, error) {
	if err := p.gate.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.gate.Release(1)
		return nil, ErrPoolClosed
	}
	p.mu.Unlock()

	// Holding a gate slot guarantees fewer than size converters are busy,
	// so either one is idle or there is room to create one.
	select {
	case conv := <-p.idle:
		return conv, nil
	default:
	}

	conv, err := NewConverter(p.opts...)
	if err != nil {
		p.gate.Release(1)
		return nil, err
	}

	p.mu.Lock()
	p.converters = append(p.converters, conv)
	p.mu.Unlock()

	return conv, nil
}

// Release returns a converter to the pool.
func (p *ConverterPool) Release(conv *Converter) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()

	if !closed {
		p.idle <- conv
	}
	p.gate.Release(1)
}

// Close releases all browser resources.
// Returns an aggregated error if multiple converters fail to close.
func (p *ConverterPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	converters := p.converters
	p.mu.Unlock()

	var errs []error
	for _, conv := range converters {
		if err := conv.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Size returns the pool capacity.
func (p *ConverterPool) Size() int {
	return p.size
}

// ResolvePoolSize determines the pool size.
// Priority: explicit workers > GOMAXPROCS-based calculation. Either way the
// result lies in [MinPoolSize, MaxPoolSize].
// Exported for use by servers and CLIs.
func ResolvePoolSize(workers int) int {
	// Explicit value takes priority
	if workers > 0 {
		return clampPoolSize(workers)
	}

	// Auto-calculate based on GOMAXPROCS (adjusted by automaxprocs for containers)
	return clampPoolSize(runtime.GOMAXPROCS(0) / cpuDivisor)
}

func clampPoolSize(n int) int {
	return min(max(n, MinPoolSize), MaxPoolSize)
}
