package notion

import (
	"context"
	"fmt"
	"net/url"
	"path"
)

// RetrievePage fetches a page by ID.
func (c *Client) RetrievePage(ctx context.Context, pageID string) (Page, error) {
	if pageID == "" {
		return Page{}, fmt.Errorf("pageID cannot be empty")
	}
	var page Page
	if err := c.do(ctx, httpMethodGet, path.Join("pages", pageID), nil, &page); err != nil {
		return Page{}, err
	}
	return page, nil
}

// QueryDatabase executes one page of a database query.
func (c *Client) QueryDatabase(
	ctx context.Context,
	databaseID string,
	req QueryDatabaseRequest,
) (QueryDatabaseResponse, error) {
	if databaseID == "" {
		return QueryDatabaseResponse{}, fmt.Errorf("databaseID cannot be empty")
	}
	var resp QueryDatabaseResponse
	endpoint := path.Join("databases", databaseID, "query")
	if err := c.do(ctx, httpMethodPost, endpoint, req, &resp); err != nil {
		return QueryDatabaseResponse{}, err
	}
	return resp, nil
}

// AppendBlockChildren appends blocks to the specified block or page.
func (c *Client) AppendBlockChildren(ctx context.Context, blockID string, blocks []Block) error {
	if blockID == "" {
		return fmt.Errorf("blockID cannot be empty")
	}
	if len(blocks) == 0 {
		return fmt.Errorf("no blocks supplied")
	}
	req := AppendBlockChildrenRequest{Children: blocks}
	return c.do(ctx, httpMethodPatch, path.Join("blocks", blockID, "children"), req, nil)
}

// RetrieveBlockChildren fetches one page of children blocks for a page/block.
func (c *Client) RetrieveBlockChildren(
	ctx context.Context,
	blockID string,
	startCursor string,
	pageSize int,
) (BlockChildrenResponse, error) {
	if blockID == "" {
		return BlockChildrenResponse{}, fmt.Errorf("blockID cannot be empty")
	}

	params := url.Values{}
	if startCursor != "" {
		params.Set("start_cursor", startCursor)
	}
	if pageSize > 0 {
		params.Set("page_size", fmt.Sprint(pageSize))
	}

	endpoint := path.Join("blocks", blockID, "children")
	if qs := params.Encode(); qs != "" {
		endpoint += "?" + qs
	}

	var resp BlockChildrenResponse
	if err := c.do(ctx, httpMethodGet, endpoint, nil, &resp); err != nil {
		return BlockChildrenResponse{}, err
	}
	return resp, nil
}

// RetrieveBotUser returns the bot user behind the configured integration token.
func (c *Client) RetrieveBotUser(ctx context.Context) (UserReference, error) {
	var user UserReference
	if err := c.do(ctx, httpMethodGet, "users/me", nil, &user); err != nil {
		return UserReference{}, err
	}
	return user, nil
}

const (
	httpMethodGet   = "GET"
	httpMethodPost  = "POST"
	httpMethodPatch = "PATCH"
)
