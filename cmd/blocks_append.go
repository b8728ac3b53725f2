package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/brittonhayes/notionmd"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yourorg/notioncms/internal/notion"
)

type blocksAppendOptions struct {
	markdownPath string
}

// blockAppender is the write side of the Notion client used for uploads.
type blockAppender interface {
	AppendBlockChildren(ctx context.Context, blockID string, blocks []notion.Block) error
}

func newBlocksAppendCmd(globals *globalOptions) *cobra.Command {
	opts := &blocksAppendOptions{}

	cmd := &cobra.Command{
		Use:   "append <block-or-page-id>",
		Short: "Convert a Markdown file to Notion blocks and append them to a page",
		Args:  cobra.ExactArgs(1),
		RunE:  opts.run(globals),
	}

	cmd.Flags().StringVar(&opts.markdownPath, "md", "", "Path to the Markdown file to append")

	return cmd
}

func (opts *blocksAppendOptions) run(globals *globalOptions) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if opts.markdownPath == "" {
			return errors.New("--md is required")
		}

		rt, err := buildRuntime(globals)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		count, err := opts.appendMarkdown(ctx, rt.client, args[0])
		if err != nil {
			return err
		}

		rt.logger.Debug("appended markdown blocks", zap.String("target", args[0]), zap.Int("count", count))
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Appended %d blocks\n", count); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		return nil
	}
}

func (opts *blocksAppendOptions) appendMarkdown(
	ctx context.Context,
	client blockAppender,
	targetID string,
) (int, error) {
	blocks, err := loadMarkdownBlocks(opts.markdownPath)
	if err != nil {
		return 0, err
	}
	if len(blocks) == 0 {
		return 0, errors.New("no blocks generated from markdown")
	}

	if err := client.AppendBlockChildren(ctx, targetID, blocks); err != nil {
		return 0, fmt.Errorf("append blocks: %w", err)
	}
	return len(blocks), nil
}

func loadMarkdownBlocks(path string) ([]notion.Block, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- reading user-supplied markdown by design
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}
	return markdownBlocks(string(data))
}

// markdownBlocks converts Markdown into blocks ready for upload. The converter emits
// request-shaped blocks keyed only by their type, so each one is checked for a usable type
// and payload before it reaches the API.
func markdownBlocks(markdown string) ([]notion.Block, error) {
	converted, err := notionmd.ConvertToJSON(markdown)
	if err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}

	blocks := make([]notion.Block, 0, len(converted))
	for i, raw := range converted {
		encoded, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("encode markdown block %d: %w", i, err)
		}
		var block notion.Block
		if err := json.Unmarshal(encoded, &block); err != nil {
			return nil, fmt.Errorf("decode markdown block %d: %w", i, err)
		}
		if block.Type == "" || len(block.Payload) == 0 {
			return nil, fmt.Errorf("markdown block %d has no block type: %s", i, encoded)
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}
