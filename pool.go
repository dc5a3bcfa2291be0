package mdconv

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"go.uber.org/multierr"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one worker is available.
	MinPoolSize = 1

	// MaxPoolSize caps browser instances to limit memory (~200MB each).
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// ErrPoolClosed is returned by Acquire once the pool has been closed.
var ErrPoolClosed = errors.New("converter pool is closed")

// ConverterPool lends Converters to concurrent batch jobs. At most Size
// Converters exist at once; each is built on first demand and reused after
// Release. Converters lent out when the pool closes are closed on Release.
type ConverterPool struct {
	build func() (*Converter, error)
	lent  chan struct{} // one token per Converter in use
	done  chan struct{}

	mu     sync.Mutex
	idle   []*Converter
	closed bool
}

// NewConverterPool returns a pool of up to n Converters made by build.
func NewConverterPool(n int, build func() (*Converter, error)) *ConverterPool {
	n = max(n, MinPoolSize)
	return &ConverterPool{
		build: build,
		lent:  make(chan struct{}, n),
		done:  make(chan struct{}),
	}
}

// Acquire lends a Converter, waiting while all of them are in use.
// It fails with ErrPoolClosed after Close and with ctx.Err() when ctx ends
// first.
func (p *ConverterPool) Acquire(ctx context.Context) (*Converter, error) {
	select {
	case <-p.done:
		return nil, ErrPoolClosed
	default:
	}

	select {
	case p.lent <- struct{}{}:
	case <-p.done:
		return nil, ErrPoolClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		<-p.lent
		return nil, ErrPoolClosed
	}
	if n := len(p.idle); n > 0 {
		c := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.mu.Unlock()
		return c, nil
	}
	p.mu.Unlock()

	c, err := p.build()
	if err != nil {
		<-p.lent
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		<-p.lent
		return nil, multierr.Append(ErrPoolClosed, c.Close())
	}
	return c, nil
}

// Release hands c back. After Close, c is closed instead and its close
// error returned.
func (p *ConverterPool) Release(c *Converter) error {
	if c == nil {
		return nil
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return c.Close()
	}
	p.idle = append(p.idle, c)
	p.mu.Unlock()

	<-p.lent
	return nil
}

// Close shuts down the idle Converters and combines their close errors.
// Converters still in use are closed as they are released.
func (p *ConverterPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.done)
	idle := p.idle
	p.idle = nil
	p.mu.Unlock()

	var err error
	for _, c := range idle {
		err = multierr.Append(err, c.Close())
	}
	return err
}

// Size returns the pool capacity.
func (p *ConverterPool) Size() int {
	return cap(p.lent)
}

// ResolvePoolSize determines the pool size.
// Priority: explicit workers > GOMAXPROCS-based calculation.
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}

	// GOMAXPROCS is adjusted by automaxprocs for containers
	n := runtime.GOMAXPROCS(0) / cpuDivisor
	return max(MinPoolSize, min(MaxPoolSize, n))
}
