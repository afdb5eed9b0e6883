package main

import (
	"context"
	"fmt"

	"github.com/alnah/mdprint"
)

// Pool abstracts converter pool operations for testability.
type Pool interface {
	Acquire(ctx context.Context) (CLIConverter, error)
	Release(CLIConverter)
	Size() int
	Close() error
}

// poolAdapter exposes mdprint.ConverterPool through the Pool interface.
type poolAdapter struct {
	pool *mdprint.ConverterPool
}

// Compile-time check that poolAdapter implements Pool.
var _ Pool = (*poolAdapter)(nil)

// newConverterPool creates a pool of up to size converters, each with its
// own browser. Converters start lazily on first acquire.
func newConverterPool(size int, opts ...mdprint.Option) Pool {
	return &poolAdapter{pool: mdprint.NewConverterPool(size, opts...)}
}

func (a *poolAdapter) Acquire(ctx context.Context) (CLIConverter, error) {
	conv, err := a.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// Release panics if c did not come from this pool's Acquire.
func (a *poolAdapter) Release(c CLIConverter) {
	conv, ok := c.(*mdprint.Converter)
	if !ok {
		panic(fmt.Sprintf("poolAdapter.Release: unexpected type %T", c))
	}
	a.pool.Release(conv)
}

func (a *poolAdapter) Size() int {
	return a.pool.Size()
}

func (a *poolAdapter) Close() error {
	return a.pool.Close()
}
