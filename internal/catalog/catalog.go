package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Product is one read-only row of the store's product table.
type Product struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Slug    string `json:"slug"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

// ErrNotConfigured marks a catalog with no data source; callers degrade
// to an empty catalog instead of failing.
var ErrNotConfigured = errors.New("catalog source not configured")

// Source loads the full product snapshot.
type Source interface {
	Load(ctx context.Context) ([]Product, error)
}

// PostgresSource reads products from the store database.
type PostgresSource struct {
	pool *pgxpool.Pool
}

func NewPostgresSource(ctx context.Context, databaseURL string) (*PostgresSource, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &PostgresSource{pool: pool}, nil
}

func (s *PostgresSource) Load(ctx context.Context) ([]Product, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, post_title, post_name, post_content, product_page_url FROM productos`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var (
			id                        int64
			title, slug, content, url *string
		)
		if err := rows.Scan(&id, &title, &slug, &content, &url); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, Product{
			ID:      id,
			Title:   orEmpty(title),
			Slug:    orEmpty(slug),
			Content: orEmpty(content),
			URL:     orEmpty(url),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, nil
}

func (s *PostgresSource) Close() {
	s.pool.Close()
}

// Catalog holds the current product snapshot. Reload swaps it wholesale;
// readers always see a consistent slice.
type Catalog struct {
	mu       sync.RWMutex
	source   Source
	products []Product
}

// New builds a catalog over the given source. A nil source is a valid,
// permanently empty catalog.
func New(source Source) *Catalog {
	return &Catalog{source: source}
}

// Reload fetches a fresh snapshot and reports how many products it
// holds. Without a source it returns ErrNotConfigured and keeps the
// (empty) snapshot.
func (c *Catalog) Reload(ctx context.Context) (int, error) {
	if c.source == nil {
		return 0, ErrNotConfigured
	}
	products, err := c.source.Load(ctx)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	c.products = products
	c.mu.Unlock()
	return len(products), nil
}

// Products returns a copy of the current snapshot.
func (c *Catalog) Products() []Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// Len reports the snapshot size.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}

func orEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
