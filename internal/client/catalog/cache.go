// Package catalog keeps the per-article cart quantities shown in the product
// grid, together with the display metadata of each product.
package catalog

import (
	"sync"

	"github.com/fzon/storefront/internal/client/models"
)

// Change describes one cache update. Reloaded is set when the whole cache was
// replaced by Load, in which case Article is empty.
type Change struct {
	Article  string
	Quantity int
	Reloaded bool
}

type Listener func(Change)

// Cache is goroutine-safe. Quantities are never negative.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]models.Product
	order   []string

	lmu       sync.Mutex
	listeners map[int]Listener
	nextID    int
}

func NewCache() *Cache {
	return &Cache{
		entries:   make(map[string]models.Product),
		listeners: make(map[int]Listener),
	}
}

// Load replaces the cache with products, keeping their order for display.
// Duplicate articles keep the last row.
func (c *Cache) Load(products []models.Product) {
	entries := make(map[string]models.Product, len(products))
	order := make([]string, 0, len(products))
	for _, p := range products {
		if _, dup := entries[p.Article]; !dup {
			order = append(order, p.Article)
		}
		p.Quantity = max(0, p.Quantity)
		entries[p.Article] = p
	}

	c.mu.Lock()
	c.entries = entries
	c.order = order
	c.mu.Unlock()

	c.notify(Change{Reloaded: true})
}

// ClearQuantities sets every quantity to zero and keeps the product rows. It
// is the anonymous view of the catalog.
func (c *Cache) ClearQuantities() {
	c.mu.Lock()
	for a, p := range c.entries {
		p.Quantity = 0
		c.entries[a] = p
	}
	c.mu.Unlock()

	c.notify(Change{Reloaded: true})
}

// Get returns the quantity for article and whether the article is known.
func (c *Cache) Get(article string) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.entries[article]
	return p.Quantity, ok
}

// Quantity is Get with absent articles treated as zero.
func (c *Cache) Quantity(article string) int {
	q, _ := c.Get(article)
	return q
}

// Product returns the full row for article.
func (c *Cache) Product(article string) (models.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.entries[article]
	return p, ok
}

// Set overwrites the quantity of article with an authoritative value. An
// article missing from the cache is added without metadata.
func (c *Cache) Set(article string, quantity int) {
	quantity = max(0, quantity)

	c.mu.Lock()
	p, ok := c.entries[article]
	if !ok {
		p = models.Product{Article: article}
		c.order = append(c.order, article)
	}
	p.Quantity = quantity
	c.entries[article] = p
	c.mu.Unlock()

	c.notify(Change{Article: article, Quantity: quantity})
}

// Products returns a copy of all rows in display order.
func (c *Cache) Products() []models.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.Product, 0, len(c.order))
	for _, a := range c.order {
		out = append(out, c.entries[a])
	}
	return out
}

func (c *Cache) Articles() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.order...)
}

// Sum adds up all cached quantities. The navigation badge never uses it; it
// only shows the server's total.
func (c *Cache) Sum() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, p := range c.entries {
		n += p.Quantity
	}
	return n
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Subscribe registers fn for every change and returns a function removing it.
func (c *Cache) Subscribe(fn Listener) func() {
	c.lmu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.lmu.Unlock()

	return func() {
		c.lmu.Lock()
		delete(c.listeners, id)
		c.lmu.Unlock()
	}
}

func (c *Cache) notify(ch Change) {
	c.lmu.Lock()
	defer c.lmu.Unlock()
	for _, l := range c.listeners {
		l(ch)
	}
}
