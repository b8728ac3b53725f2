// Package cms is the content facade: it fetches pages and collections from Notion, renders
// them, and caches the results.
package cms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yourorg/notioncms/internal/cache"
	"github.com/yourorg/notioncms/internal/content"
	"github.com/yourorg/notioncms/internal/notion"
	"github.com/yourorg/notioncms/internal/render"
)

const (
	// DefaultPageSize is used for collection queries that do not set one.
	DefaultPageSize = 100

	pageKeyPrefix       = "page:"
	collectionKeyPrefix = "db:"
	slugPropertyName    = "Slug"
)

// ErrDatabaseIDRequired is returned when a collection call has no database ID to query.
var ErrDatabaseIDRequired = errors.New("database id is required: pass one or configure a default")

// Store is the subset of the Notion API the facade reads from.
type Store interface {
	content.BlockLister
	RetrievePage(ctx context.Context, pageID string) (notion.Page, error)
	QueryDatabase(ctx context.Context, databaseID string, req notion.QueryDatabaseRequest) (notion.QueryDatabaseResponse, error)
}

// CacheConfig controls result caching.
type CacheConfig struct {
	TTL     time.Duration
	Enabled bool
}

// Config configures a Client.
type Config struct {
	DatabaseID string
	Cache      CacheConfig
}

// Client serves rendered pages and page listings.
type Client struct {
	store  Store
	cache  *cache.TTL
	logger *zap.Logger
	cfg    Config
}

// Option customizes a Client.
type Option func(*Client)

// WithLogger sets the logger used for cache and fetch diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCache replaces the cache built from Config. It has no effect when caching is disabled.
func WithCache(ttl *cache.TTL) Option {
	return func(c *Client) {
		if c.cfg.Cache.Enabled {
			c.cache = ttl
		}
	}
}

// New builds a Client reading from store.
func New(store Store, cfg Config, opts ...Option) *Client {
	c := &Client{store: store, cfg: cfg, logger: zap.NewNop()}
	if cfg.Cache.Enabled {
		ttl := cfg.Cache.TTL
		if ttl <= 0 {
			ttl = cache.DefaultTTL
		}
		c.cache = cache.New(ttl)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetPage returns the fully rendered page, from cache when a live entry exists.
func (c *Client) GetPage(ctx context.Context, pageID string) (*PageContent, error) {
	key := pageKey(pageID)
	if cached, ok := cache.Lookup[*PageContent](c.cache, key); ok {
		c.logger.Debug("page cache hit", zap.String("key", key))
		return cached, nil
	}

	page, err := c.store.RetrievePage(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("retrieve page %s: %w", pageID, err)
	}
	tree, err := content.FetchTree(ctx, c.store, pageID)
	if err != nil {
		return nil, fmt.Errorf("fetch blocks for page %s: %w", pageID, err)
	}

	result := &PageContent{
		ID:          page.ID,
		Title:       content.Title(page),
		Properties:  content.Properties(page),
		Content:     tree,
		HTML:        render.HTML(tree),
		Markdown:    render.Markdown(tree),
		LastEdited:  page.LastEditedTime,
		CreatedTime: page.CreatedTime,
	}
	c.remember(key, result)
	c.logger.Debug("page fetched", zap.String("page_id", page.ID), zap.Int("blocks", len(tree)))
	return result, nil
}

// GetDatabase returns one page of a collection. An empty databaseID falls back to the
// configured default.
func (c *Client) GetDatabase(ctx context.Context, databaseID string, opts QueryOptions) (*Collection, error) {
	id, err := c.databaseID(databaseID)
	if err != nil {
		return nil, err
	}

	key, err := collectionKey(id, opts)
	if err != nil {
		return nil, err
	}
	if cached, ok := cache.Lookup[*Collection](c.cache, key); ok {
		c.logger.Debug("collection cache hit", zap.String("key", key))
		return cached, nil
	}

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	resp, err := c.store.QueryDatabase(ctx, id, notion.QueryDatabaseRequest{
		Filter:      opts.Filter,
		Sorts:       opts.Sorts,
		StartCursor: opts.StartCursor,
		PageSize:    pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("query database %s: %w", id, err)
	}

	collection := &Collection{
		Pages:      make([]Page, 0, len(resp.Results)),
		HasMore:    resp.HasMore,
		NextCursor: resp.NextCursor,
	}
	for _, p := range resp.Results {
		collection.Pages = append(collection.Pages, summarize(p))
	}
	c.remember(key, collection)
	return collection, nil
}

// GetAllPages walks every page of a collection. It is unbounded; avoid it on very large databases.
func (c *Client) GetAllPages(ctx context.Context, databaseID string) ([]Page, error) {
	var (
		pages  []Page
		cursor string
	)
	for {
		collection, err := c.GetDatabase(ctx, databaseID, QueryOptions{PageSize: DefaultPageSize, StartCursor: cursor})
		if err != nil {
			return nil, err
		}
		pages = append(pages, collection.Pages...)
		if collection.NextCursor == "" {
			return pages, nil
		}
		cursor = collection.NextCursor
	}
}

// GetPageBySlug looks up the page whose Slug property equals slug. It returns nil, nil when
// nothing matches.
func (c *Client) GetPageBySlug(ctx context.Context, slug, databaseID string) (*PageContent, error) {
	id, err := c.databaseID(databaseID)
	if err != nil {
		return nil, err
	}

	resp, err := c.store.QueryDatabase(ctx, id, notion.QueryDatabaseRequest{
		Filter: map[string]any{
			"property":  slugPropertyName,
			"rich_text": map[string]any{"equals": slug},
		},
		PageSize: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("query slug %q: %w", slug, err)
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}
	return c.GetPage(ctx, resp.Results[0].ID)
}

// ClearCache drops every cached page and collection.
func (c *Client) ClearCache() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// InvalidatePage drops the cached rendering of one page.
func (c *Client) InvalidatePage(pageID string) {
	if c.cache != nil {
		c.cache.Delete(pageKey(pageID))
	}
}

// InvalidateCollections drops every cached collection listing.
func (c *Client) InvalidateCollections() {
	if c.cache == nil {
		return
	}
	for _, key := range c.cache.Keys() {
		if strings.HasPrefix(key, collectionKeyPrefix) {
			c.cache.Delete(key)
		}
	}
}

func (c *Client) databaseID(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if c.cfg.DatabaseID != "" {
		return c.cfg.DatabaseID, nil
	}
	return "", ErrDatabaseIDRequired
}

func (c *Client) remember(key string, value any) {
	if c.cache != nil {
		c.cache.Set(key, value)
	}
}

func pageKey(pageID string) string {
	return pageKeyPrefix + notion.CanonicalID(pageID)
}

func collectionKey(databaseID string, opts QueryOptions) (string, error) {
	encoded, err := json.Marshal(opts)
	if err != nil {
		return "", fmt.Errorf("encode query options: %w", err)
	}
	return collectionKeyPrefix + notion.CanonicalID(databaseID) + ":" + string(encoded), nil
}

func summarize(page notion.Page) Page {
	return Page{
		ID:         page.ID,
		Slug:       content.Slug(page),
		Title:      content.Title(page),
		Properties: content.Properties(page),
	}
}
