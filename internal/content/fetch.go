package content

import (
	"context"
	"fmt"

	"github.com/yourorg/notioncms/internal/notion"
)

// BlockPageSize is the page size requested for every block children listing.
const BlockPageSize = 100

// BlockLister is the subset of the Notion client used to walk block trees.
type BlockLister interface {
	RetrieveBlockChildren(
		ctx context.Context,
		blockID string,
		startCursor string,
		pageSize int,
	) (notion.BlockChildrenResponse, error)
}

// FetchAll retrieves every direct child block of containerID, following cursors in order.
func FetchAll(ctx context.Context, lister BlockLister, containerID string) ([]notion.Block, error) {
	var (
		cursor string
		blocks []notion.Block
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("list children of %s: %w", containerID, err)
		}

		resp, err := lister.RetrieveBlockChildren(ctx, containerID, cursor, BlockPageSize)
		if err != nil {
			return nil, fmt.Errorf("list children of %s: %w", containerID, err)
		}
		blocks = append(blocks, resp.Results...)

		if resp.NextCursor == "" {
			return blocks, nil
		}
		cursor = resp.NextCursor
	}
}

// BuildTree normalizes raw blocks, fetching descendants of every block that reports children.
// Subtrees are fetched one at a time in sibling order; the first failure aborts the build.
func BuildTree(ctx context.Context, lister BlockLister, raw []notion.Block) ([]Block, error) {
	out := make([]Block, 0, len(raw))
	for _, rb := range raw {
		block, err := buildBlock(ctx, lister, rb)
		if err != nil {
			return nil, err
		}
		out = append(out, block)
	}
	return out, nil
}

// FetchTree fetches and normalizes the complete block tree under containerID.
func FetchTree(ctx context.Context, lister BlockLister, containerID string) ([]Block, error) {
	raw, err := FetchAll(ctx, lister, containerID)
	if err != nil {
		return nil, err
	}
	return BuildTree(ctx, lister, raw)
}

func buildBlock(ctx context.Context, lister BlockLister, rb notion.Block) (Block, error) {
	data, err := rb.Data()
	if err != nil {
		return Block{}, err
	}

	block := Block{
		ID:       rb.ID,
		Type:     rb.Type,
		Content:  blockText(data),
		Metadata: BlockMetadata(data),
	}

	if rb.HasChildren {
		children, err := FetchTree(ctx, lister, rb.ID)
		if err != nil {
			return Block{}, err
		}
		block.Children = children
	}
	return block, nil
}

// blockText prefers rich_text, then the legacy text field, then a media caption.
func blockText(data notion.BlockData) string {
	switch {
	case data.RichText != nil:
		return RichText(data.RichText)
	case data.Text != nil:
		return RichText(data.Text)
	default:
		return RichText(data.Caption)
	}
}
