package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yourorg/notioncms/internal/cms"
	"github.com/yourorg/notioncms/internal/render"
)

//nolint:govet // fieldalignment: struct keeps related CLI options grouped logically.
type dbQueryOptions struct {
	format      string
	filterJSON  string
	filterFile  string
	sortsJSON   string
	sortsFile   string
	startCursor string
	pageSize    int
	fetchAll    bool
}

func newDBQueryCmd(globals *globalOptions) *cobra.Command {
	opts := &dbQueryOptions{format: formatTable}

	cmd := &cobra.Command{
		Use:   "query [database-id]",
		Short: "Query a database and list its pages with slugs and titles",
		Args:  cobra.MaximumNArgs(1),
		RunE:  opts.run(globals),
	}

	cmd.Flags().StringVar(&opts.format, "format", opts.format, "Output format: json|table")
	cmd.Flags().StringVar(&opts.filterJSON, "filter", "", "Inline JSON filter payload")
	cmd.Flags().StringVar(&opts.filterFile, "filter-file", "", "Path to JSON filter payload")
	cmd.Flags().StringVar(&opts.sortsJSON, "sorts", "", "Inline JSON sorts array")
	cmd.Flags().StringVar(&opts.sortsFile, "sorts-file", "", "Path to JSON sorts array")
	cmd.Flags().StringVar(&opts.startCursor, "start-cursor", "", "Pagination cursor to resume from")
	cmd.Flags().IntVar(&opts.pageSize, "page-size", 0, "Page size, 0 for the default (max 100)")
	cmd.Flags().BoolVar(&opts.fetchAll, "all", false, "Fetch all result pages (may issue multiple requests)")

	return cmd
}

func (opts *dbQueryOptions) run(globals *globalOptions) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if opts.format != formatJSON && opts.format != formatTable {
			return fmt.Errorf("unknown format %q (expected json or table)", opts.format)
		}

		query, err := opts.buildQuery()
		if err != nil {
			return err
		}

		rt, err := buildRuntime(globals)
		if err != nil {
			return err
		}

		var databaseID string
		if len(args) == 1 {
			databaseID = args[0]
		}

		collection, err := opts.execute(cmd.Context(), rt.content(), databaseID, query)
		if err != nil {
			return err
		}
		return opts.renderResults(cmd, collection)
	}
}

func (opts *dbQueryOptions) buildQuery() (cms.QueryOptions, error) {
	if opts.pageSize < 0 || opts.pageSize > cms.DefaultPageSize {
		return cms.QueryOptions{}, fmt.Errorf("--page-size must be between 0 (default) and %d", cms.DefaultPageSize)
	}
	query := cms.QueryOptions{PageSize: opts.pageSize, StartCursor: opts.startCursor}

	filter, err := loadJSONValue(opts.filterJSON, opts.filterFile)
	if err != nil {
		return cms.QueryOptions{}, fmt.Errorf("load filter: %w", err)
	}
	query.Filter = filter

	sorts, err := loadJSONValue(opts.sortsJSON, opts.sortsFile)
	if err != nil {
		return cms.QueryOptions{}, fmt.Errorf("load sorts: %w", err)
	}
	if sorts != nil {
		slice, ok := sorts.([]any)
		if !ok {
			return cms.QueryOptions{}, errors.New("sorts payload must be a JSON array")
		}
		query.Sorts = slice
	}
	return query, nil
}

// execute runs one query, or every page of it with --all.
func (opts *dbQueryOptions) execute(
	ctx context.Context,
	client *cms.Client,
	databaseID string,
	query cms.QueryOptions,
) (*cms.Collection, error) {
	first, err := client.GetDatabase(ctx, databaseID, query)
	if err != nil {
		return nil, fmt.Errorf("query database: %w", err)
	}
	if !opts.fetchAll {
		return first, nil
	}

	all := &cms.Collection{Pages: append([]cms.Page(nil), first.Pages...)}
	next := first.NextCursor
	for next != "" {
		query.StartCursor = next
		page, err := client.GetDatabase(ctx, databaseID, query)
		if err != nil {
			return nil, fmt.Errorf("query database: %w", err)
		}
		all.Pages = append(all.Pages, page.Pages...)
		next = page.NextCursor
	}
	return all, nil
}

func (opts *dbQueryOptions) renderResults(cmd *cobra.Command, collection *cms.Collection) error {
	if opts.format == formatJSON {
		if err := render.JSON(cmd.OutOrStdout(), collection); err != nil {
			return fmt.Errorf("render json: %w", err)
		}
		return nil
	}

	rows := make([][]string, 0, len(collection.Pages))
	for _, page := range collection.Pages {
		rows = append(rows, []string{page.ID, page.Slug, page.Title})
	}
	if err := render.Table(cmd.OutOrStdout(), []string{"ID", "SLUG", "TITLE"}, rows); err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	if collection.HasMore {
		if _, err := fmt.Fprintf(cmd.ErrOrStderr(), "More results: --start-cursor %s\n", collection.NextCursor); err != nil {
			return fmt.Errorf("write cursor hint: %w", err)
		}
	}
	return nil
}

func loadJSONValue(inline, file string) (any, error) {
	text, err := readJSONText(inline, file)
	if err != nil || text == "" {
		return nil, err
	}
	var payload any
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return payload, nil
}

func readJSONText(inline, file string) (string, error) {
	if file != "" {
		data, err := os.ReadFile(file) // #nosec G304 -- reading user-supplied filter payload is intentional
		if err != nil {
			return "", fmt.Errorf("read %s: %w", file, err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	return strings.TrimSpace(inline), nil
}
