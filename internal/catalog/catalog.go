// Package catalog resolves product references against the product catalog.
// The catalog is read-only from this service's point of view.
package catalog

import (
	"context"
	"sync"

	"github.com/tair/field-service/pkg/apperr"
)

// Product is the subset of catalog data the allocation engine needs
type Product struct {
	ID         uint   `json:"id" yaml:"id"`
	SKU        string `json:"sku" yaml:"sku"`
	Name       string `json:"name" yaml:"name"`
	Category   string `json:"category,omitempty" yaml:"category"`
	Serialized bool   `json:"serialized" yaml:"serialized"`
	IsActive   bool   `json:"is_active" yaml:"is_active"`
}

// Catalog looks up products by ID
type Catalog interface {
	GetProduct(ctx context.Context, id uint) (*Product, error)
}

// StaticCatalog serves products from memory
type StaticCatalog struct {
	mu       sync.RWMutex
	products map[uint]Product
}

// NewStaticCatalog creates a catalog preloaded with products
func NewStaticCatalog(products ...Product) *StaticCatalog {
	c := &StaticCatalog{products: make(map[uint]Product, len(products))}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

// Put adds or replaces a product
func (c *StaticCatalog) Put(p Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[p.ID] = p
}

// GetProduct returns the product or a NotFound error
func (c *StaticCatalog) GetProduct(_ context.Context, id uint) (*Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[id]
	if !ok {
		return nil, apperr.NotFound("product", id)
	}
	return &p, nil
}
