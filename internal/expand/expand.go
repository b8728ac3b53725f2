// Package expand resolves relation properties to the titles of the pages they point at.
package expand

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/yourorg/notioncms/internal/content"
	"github.com/yourorg/notioncms/internal/notion"
)

const (
	defaultConcurrency = 3
	relationType       = "relation"
)

// PageFetcher represents the subset of the Notion client used for relation expansion.
type PageFetcher interface {
	RetrievePage(ctx context.Context, pageID string) (notion.Page, error)
}

// Relation is one resolved entry of a relation property.
type Relation struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Expanded maps relation property names to their resolved entries for one page.
type Expanded map[string][]Relation

// Relations resolves the named relation properties of every page. With no names, every relation
// property is resolved. The result is index-aligned with pages. Each related page is fetched once,
// at most three at a time.
func Relations(
	ctx context.Context,
	client PageFetcher,
	pages []notion.Page,
	names []string,
) ([]Expanded, error) {
	out := make([]Expanded, len(pages))
	if len(pages) == 0 {
		return out, nil
	}

	wanted := make(map[string]struct{}, len(names))
	for _, name := range names {
		wanted[name] = struct{}{}
	}

	ids := collectRelationIDs(pages, wanted)
	titles, err := fetchTitles(ctx, client, ids)
	if err != nil {
		return nil, err
	}

	for i, page := range pages {
		for name, prop := range page.Properties {
			if !selected(prop, name, wanted) {
				continue
			}
			if out[i] == nil {
				out[i] = make(Expanded)
			}
			rels := make([]Relation, 0, len(prop.Relation))
			for _, rel := range prop.Relation {
				rels = append(rels, Relation{ID: rel.ID, Title: titles[rel.ID]})
			}
			out[i][name] = rels
		}
	}
	return out, nil
}

func selected(prop notion.PropertyValue, name string, wanted map[string]struct{}) bool {
	if prop.Type != relationType {
		return false
	}
	if len(wanted) == 0 {
		return true
	}
	_, ok := wanted[name]
	return ok
}

func collectRelationIDs(pages []notion.Page, wanted map[string]struct{}) []string {
	unique := map[string]struct{}{}
	for _, page := range pages {
		for name, prop := range page.Properties {
			if !selected(prop, name, wanted) {
				continue
			}
			for _, rel := range prop.Relation {
				unique[rel.ID] = struct{}{}
			}
		}
	}

	ids := make([]string, 0, len(unique))
	for id := range unique {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func fetchTitles(ctx context.Context, client PageFetcher, ids []string) (map[string]string, error) {
	result := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var mu sync.Mutex
	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(defaultConcurrency)

	for _, id := range ids {
		relationID := id
		g.Go(func() error {
			page, err := client.RetrievePage(groupCtx, relationID)
			if err != nil {
				return fmt.Errorf("retrieve related page %s: %w", relationID, err)
			}

			mu.Lock()
			result[relationID] = content.Title(page)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("expand relations: %w", err)
	}
	return result, nil
}
