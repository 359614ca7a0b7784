package search

import (
	"context"
	"fmt"
	"strings"

	"portfolio/api/internal/store"
)

// SQLSearcher implements Searcher against the relational store as a fallback
// when Meilisearch is unavailable. Global text queries and per-field
// narrowing map onto the store's ILIKE queries.
type SQLSearcher struct {
	store store.Store
}

// NewSQLSearcher creates a store-backed searcher.
func NewSQLSearcher(st store.Store) *SQLSearcher {
	return &SQLSearcher{store: st}
}

// Healthy always returns true — if the store is down, the whole app is down.
func (s *SQLSearcher) Healthy() bool {
	return true
}

// Search runs a global query when Text is set, otherwise a per-field
// conditional query.
func (s *SQLSearcher) Search(q Query) ([]Record, int, error) {
	ctx := context.Background()

	var (
		items []store.CaseStudy
		err   error
	)
	if strings.TrimSpace(q.Text) != "" {
		items, err = s.store.SearchCaseStudies(ctx, q.Text)
	} else {
		items, err = s.store.FindCaseStudies(ctx, q.Title, q.ClientName, q.Industry)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("sql search: %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}

	results := make([]Record, 0, len(items))
	for _, item := range items {
		results = append(results, Record{
			ID:          item.ID,
			Title:       item.Title,
			ClientName:  item.ClientName,
			Industry:    item.Industry,
			ProjectType: item.ProjectType,
			Summary:     item.Summary,
		})
	}
	total := len(results)

	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(results) {
		return []Record{}, total, nil
	}
	results = results[offset:]
	if len(results) > limit {
		results = results[:limit]
	}
	return results, total, nil
}
