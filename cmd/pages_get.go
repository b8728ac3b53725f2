package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/yourorg/notioncms/internal/cms"
	"github.com/yourorg/notioncms/internal/expand"
	"github.com/yourorg/notioncms/internal/notion"
	"github.com/yourorg/notioncms/internal/render"
)

const (
	formatJSON     = "json"
	formatTable    = "table"
	formatHTML     = "html"
	formatMarkdown = "markdown"
)

type pagesGetOptions struct {
	format      string
	databaseID  string
	expandProps []string
	bySlug      bool
	sanitize    bool
}

// pageOutput is the JSON shape of a rendered page, optionally with resolved relations.
type pageOutput struct {
	*cms.PageContent
	Relations expand.Expanded `json:"relations,omitempty"`
}

func newPagesGetCmd(globals *globalOptions) *cobra.Command {
	opts := &pagesGetOptions{format: formatJSON}

	cmd := &cobra.Command{
		Use:   "get <page-id|slug>",
		Short: "Fetch a page with its full block tree and render it",
		Args:  cobra.ExactArgs(1),
		RunE:  opts.run(globals),
	}

	cmd.Flags().StringVar(&opts.format, "format", opts.format, "Output format: json|html|markdown")
	cmd.Flags().BoolVar(&opts.bySlug, "slug", false, "Treat the argument as a Slug and look it up in the database")
	cmd.Flags().StringVar(&opts.databaseID, "database-id", "", "Database to search with --slug (defaults to database_id)")
	cmd.Flags().StringSliceVar(&opts.expandProps, "expand", nil, "Relation property names to resolve to page titles")
	cmd.Flags().BoolVar(&opts.sanitize, "sanitize", false, "Run rendered HTML through the sanitizing policy")

	return cmd
}

func (opts *pagesGetOptions) run(globals *globalOptions) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := opts.validate(); err != nil {
			return err
		}

		rt, err := buildRuntime(globals)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		page, err := opts.fetchPage(ctx, rt.content(), args[0])
		if err != nil {
			return err
		}

		relations, err := opts.expandRelations(ctx, rt.client, page.ID)
		if err != nil {
			return err
		}

		return opts.renderPage(cmd.OutOrStdout(), page, relations)
	}
}

func (opts *pagesGetOptions) validate() error {
	switch opts.format {
	case formatJSON, formatHTML, formatMarkdown:
	default:
		return fmt.Errorf("unknown format %q (expected json, html or markdown)", opts.format)
	}
	if len(opts.expandProps) > 0 && opts.format != formatJSON {
		return errors.New("--expand requires --format json")
	}
	return nil
}

func (opts *pagesGetOptions) fetchPage(ctx context.Context, client *cms.Client, ref string) (*cms.PageContent, error) {
	if !opts.bySlug {
		page, err := client.GetPage(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("get page: %w", err)
		}
		return page, nil
	}

	page, err := client.GetPageBySlug(ctx, ref, opts.databaseID)
	if err != nil {
		return nil, fmt.Errorf("get page by slug: %w", err)
	}
	if page == nil {
		return nil, fmt.Errorf("no page with slug %q", ref)
	}
	return page, nil
}

func (opts *pagesGetOptions) expandRelations(
	ctx context.Context,
	client expand.PageFetcher,
	pageID string,
) (expand.Expanded, error) {
	if len(opts.expandProps) == 0 {
		return nil, nil
	}

	page, err := client.RetrievePage(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("retrieve page: %w", err)
	}
	for _, name := range opts.expandProps {
		if err := checkRelationProperty(page, name); err != nil {
			return nil, err
		}
	}

	expanded, err := expand.Relations(ctx, client, []notion.Page{page}, opts.expandProps)
	if err != nil {
		return nil, err
	}
	return expanded[0], nil
}

func checkRelationProperty(page notion.Page, name string) error {
	prop, ok := page.Properties[name]
	if !ok {
		return fmt.Errorf("unknown property %q", name)
	}
	if prop.Type != "relation" {
		return fmt.Errorf("property %q is not a relation", name)
	}
	return nil
}

func (opts *pagesGetOptions) renderPage(w io.Writer, page *cms.PageContent, relations expand.Expanded) error {
	html := page.HTML
	if opts.sanitize {
		html = render.Sanitize(html)
	}

	switch opts.format {
	case formatHTML:
		return writeText(w, html)
	case formatMarkdown:
		return writeText(w, page.Markdown)
	default:
		out := *page
		out.HTML = html
		if err := render.JSON(w, pageOutput{PageContent: &out, Relations: relations}); err != nil {
			return fmt.Errorf("render json: %w", err)
		}
		return nil
	}
}

func writeText(w io.Writer, text string) error {
	if _, err := fmt.Fprintln(w, text); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
