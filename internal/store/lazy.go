package store

import (
	"context"
	"sync"

	"github.com/ghazalyy/RetailAnalyticsApp/internal/config"
	"github.com/ghazalyy/RetailAnalyticsApp/internal/types"
)

// Lazy is a Store that connects on first use. The process command hands it
// to the pipeline so that ingestion and validation run, and can fail, before
// MySQL is reached. A failed connect is returned from the load call that
// triggered it and is retried on the next call.
type Lazy struct {
	open func(ctx context.Context) (*Store, error)

	mu sync.Mutex
	st *Store
}

// NewLazy returns a Lazy that opens cfg with opts when first needed.
func NewLazy(cfg config.Database, opts ...Option) *Lazy {
	return newLazy(func(ctx context.Context) (*Store, error) {
		return Open(ctx, cfg, opts...)
	})
}

func newLazy(open func(ctx context.Context) (*Store, error)) *Lazy {
	return &Lazy{open: open}
}

// Store returns the connected store, connecting if needed.
func (l *Lazy) Store(ctx context.Context) (*Store, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.st != nil {
		return l.st, nil
	}
	st, err := l.open(ctx)
	if err != nil {
		return nil, err
	}
	l.st = st
	return st, nil
}

// Connected reports whether a connection has been made.
func (l *Lazy) Connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st != nil
}

func (l *Lazy) EnsureSchema(ctx context.Context) error {
	st, err := l.Store(ctx)
	if err != nil {
		return err
	}
	return st.EnsureSchema(ctx)
}

func (l *Lazy) LoadProducts(ctx context.Context, products []types.Product) (LoadStats, error) {
	st, err := l.Store(ctx)
	if err != nil {
		return LoadStats{Submitted: len(products)}, err
	}
	return st.LoadProducts(ctx, products)
}

func (l *Lazy) LoadSales(ctx context.Context, sales []types.Sale, policy ConflictPolicy) (LoadStats, error) {
	st, err := l.Store(ctx)
	if err != nil {
		return LoadStats{Submitted: len(sales)}, err
	}
	return st.LoadSales(ctx, sales, policy)
}

// Close closes the store if it was ever opened.
func (l *Lazy) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.st == nil {
		return nil
	}
	err := l.st.Close()
	l.st = nil
	return err
}
