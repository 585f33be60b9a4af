// Package paging implements the paged-resource pattern shared by every list
// screen: fetch page N, append, stop once the source is exhausted.
package paging

import (
	"context"
	"errors"
	"sync"
)

// UnknownTotal marks a page whose source does not report a total.
const UnknownTotal = -1

var (
	// ErrBusy is returned by Begin while a fetch is in flight.
	ErrBusy = errors.New("paging: fetch already in flight")
	// ErrExhausted is returned by Begin once the source reported its last page.
	ErrExhausted = errors.New("paging: no more pages")
)

// Page is one slice of a paged resource.
type Page[T any] struct {
	Items   []T
	Index   int
	HasMore bool
	Total   int
	// Explicit means the source stated HasMore itself. Without it a page
	// shorter than the requested size ends the resource.
	Explicit bool
}

// Source fetches pages by index.
type Source[T any] interface {
	FetchPage(ctx context.Context, index, size int) (Page[T], error)
}

// SourceFunc adapts a function to Source.
type SourceFunc[T any] func(ctx context.Context, index, size int) (Page[T], error)

// FetchPage calls f.
func (f SourceFunc[T]) FetchPage(ctx context.Context, index, size int) (Page[T], error) {
	return f(ctx, index, size)
}

// Ticket identifies a fetch started by Begin.
type Ticket struct {
	Index int
	gen   uint64
}

// Controller accumulates pages from a Source. At most one fetch is in flight;
// results of fetches started before a Reset are discarded.
type Controller[T any] struct {
	src  Source[T]
	size int

	mu      sync.Mutex
	items   []T
	next    int
	hasMore bool
	loading bool
	total   int
	gen     uint64
	err     error
}

// NewController creates a controller reading pages of the given size.
func NewController[T any](src Source[T], size int) *Controller[T] {
	if size <= 0 {
		size = 1
	}
	return &Controller[T]{
		src:     src,
		size:    size,
		hasMore: true,
		total:   UnknownTotal,
	}
}

// Begin reserves the next fetch. The caller must hand the ticket to Apply.
func (c *Controller[T]) Begin() (Ticket, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loading {
		return Ticket{}, ErrBusy
	}
	if !c.hasMore {
		return Ticket{}, ErrExhausted
	}
	c.loading = true
	c.err = nil
	return Ticket{Index: c.next, gen: c.gen}, nil
}

// Apply records the result of a fetch. It returns false when the ticket is
// stale and the result was dropped.
func (c *Controller[T]) Apply(t Ticket, page Page[T], err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t.gen != c.gen {
		return false
	}
	c.loading = false
	if err != nil {
		c.err = err
		return true
	}

	if page.Total >= 0 {
		c.total = page.Total
	}
	items := page.Items
	if c.total >= 0 && len(c.items)+len(items) > c.total {
		items = items[:max(0, c.total-len(c.items))]
	}
	c.items = append(c.items, items...)
	c.next = t.Index + 1

	switch {
	case len(page.Items) == 0:
		c.hasMore = false
	case page.Explicit:
		// Servers may cap the size below what was asked for.
		c.hasMore = page.HasMore
	default:
		c.hasMore = page.HasMore && len(page.Items) >= c.size
	}
	if c.total >= 0 && len(c.items) >= c.total {
		c.hasMore = false
	}
	return true
}

// Fetch loads the next page synchronously.
func (c *Controller[T]) Fetch(ctx context.Context) error {
	t, err := c.Begin()
	if err != nil {
		return err
	}
	page, err := c.src.FetchPage(ctx, t.Index, c.size)
	c.Apply(t, page, err)
	return err
}

// Load fetches the page reserved by t without touching controller state.
// Callers running the fetch on another goroutine pass the result to Apply.
func (c *Controller[T]) Load(ctx context.Context, t Ticket) (Page[T], error) {
	return c.src.FetchPage(ctx, t.Index, c.size)
}

// Reset discards accumulated items and any fetch in flight.
func (c *Controller[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	c.items = nil
	c.next = 0
	c.hasMore = true
	c.loading = false
	c.total = UnknownTotal
	c.err = nil
}

// Items returns a copy of the accumulated items.
func (c *Controller[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.items...)
}

// Len returns the number of accumulated items.
func (c *Controller[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// HasMore reports whether another page may exist.
func (c *Controller[T]) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasMore
}

// Loading reports whether a fetch is in flight.
func (c *Controller[T]) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Total returns the reported total or UnknownTotal.
func (c *Controller[T]) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// Err returns the error of the last fetch, nil after a success.
func (c *Controller[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// PageSize returns the configured page size.
func (c *Controller[T]) PageSize() int {
	return c.size
}

// Update replaces the first accumulated item matching pred.
func (c *Controller[T]) Update(pred func(T) bool, fn func(T) T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if pred(c.items[i]) {
			c.items[i] = fn(c.items[i])
			return true
		}
	}
	return false
}

// LocalSource pages over a fully loaded list held in memory.
type LocalSource[T any] struct {
	mu    sync.RWMutex
	items []T
}

// NewLocalSource creates a source over items.
func NewLocalSource[T any](items []T) *LocalSource[T] {
	s := &LocalSource[T]{}
	s.Set(items)
	return s
}

// Set replaces the backing list.
func (s *LocalSource[T]) Set(items []T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]T(nil), items...)
}

// Len returns the size of the backing list.
func (s *LocalSource[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// FetchPage returns items [index*size, (index+1)*size).
func (s *LocalSource[T]) FetchPage(ctx context.Context, index, size int) (Page[T], error) {
	if err := ctx.Err(); err != nil {
		return Page[T]{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	total := len(s.items)
	start := index * size
	if index < 0 || size <= 0 || start >= total {
		return Page[T]{Index: index, Total: total}, nil
	}
	end := min(start+size, total)

	return Page[T]{
		Items:    append([]T(nil), s.items[start:end]...),
		Index:    index,
		HasMore:  end < total,
		Total:    total,
		Explicit: true,
	}, nil
}
