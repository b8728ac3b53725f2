package expand_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/yourorg/notioncms/internal/expand"
	"github.com/yourorg/notioncms/internal/notion"
)

type stubFetcher struct {
	pages    map[string]notion.Page
	requests []string
	mu       sync.Mutex
}

func (s *stubFetcher) RetrievePage(_ context.Context, id string) (notion.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, id)
	page, ok := s.pages[id]
	if !ok {
		return notion.Page{}, fmt.Errorf("missing page %s", id)
	}
	return page, nil
}

func titled(id, title string) notion.Page {
	return notion.Page{
		ID: id,
		Properties: map[string]notion.PropertyValue{
			"Name": {Type: "title", Title: []notion.RichText{{PlainText: title}}},
		},
	}
}

func relation(ids ...string) notion.PropertyValue {
	refs := make([]notion.RelationReference, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, notion.RelationReference{ID: id})
	}
	return notion.PropertyValue{Type: "relation", Relation: refs}
}

func TestRelationsResolvesTitlesOnce(t *testing.T) {
	client := &stubFetcher{
		pages: map[string]notion.Page{
			"rel-1": titled("rel-1", "Ada"),
			"rel-2": titled("rel-2", "Grace"),
		},
	}

	pages := []notion.Page{
		{ID: "page-1", Properties: map[string]notion.PropertyValue{"Assignee": relation("rel-1", "rel-2")}},
		{ID: "page-2", Properties: map[string]notion.PropertyValue{"Assignee": relation("rel-1")}},
		{ID: "page-3", Properties: map[string]notion.PropertyValue{"Name": {Type: "title"}}},
	}

	got, err := expand.Relations(context.Background(), client, pages, nil)
	if err != nil {
		t.Fatalf("Relations returned error: %v", err)
	}

	requests := append([]string(nil), client.requests...)
	sort.Strings(requests)
	if len(requests) != 2 || requests[0] != "rel-1" || requests[1] != "rel-2" {
		t.Fatalf("expected one fetch per related page, got %+v", client.requests)
	}

	first := got[0]["Assignee"]
	if len(first) != 2 || first[0].Title != "Ada" || first[1].Title != "Grace" {
		t.Fatalf("unexpected expansion for page-1: %#v", first)
	}
	second := got[1]["Assignee"]
	if len(second) != 1 || second[0].ID != "rel-1" || second[0].Title != "Ada" {
		t.Fatalf("unexpected expansion for page-2: %#v", second)
	}
	if got[2] != nil {
		t.Fatalf("expected no expansion for page without relations, got %#v", got[2])
	}
}

func TestRelationsHonoursNames(t *testing.T) {
	client := &stubFetcher{pages: map[string]notion.Page{"rel-1": titled("rel-1", "Ada")}}
	pages := []notion.Page{{
		ID: "page-1",
		Properties: map[string]notion.PropertyValue{
			"Assignee": relation("rel-1"),
			"Blocks":   relation("rel-9"),
		},
	}}

	got, err := expand.Relations(context.Background(), client, pages, []string{"Assignee"})
	if err != nil {
		t.Fatalf("Relations returned error: %v", err)
	}
	if _, ok := got[0]["Blocks"]; ok {
		t.Fatalf("unselected property was expanded: %#v", got[0])
	}
	if len(client.requests) != 1 {
		t.Fatalf("expected a single fetch, got %+v", client.requests)
	}
}

func TestRelationsPropagatesFetchError(t *testing.T) {
	client := &stubFetcher{pages: map[string]notion.Page{}}
	pages := []notion.Page{{ID: "page-1", Properties: map[string]notion.PropertyValue{"Assignee": relation("gone")}}}

	if _, err := expand.Relations(context.Background(), client, pages, nil); err == nil {
		t.Fatal("expected error for missing related page")
	}
}
