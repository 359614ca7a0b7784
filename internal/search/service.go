package search

import "log"

// Service is the facade that tries Meilisearch first and falls back to the
// SQL searcher.
type Service struct {
	meili    *Meili
	fallback Searcher
}

// NewService creates a search service. meili may be nil if Meilisearch is not
// configured.
func NewService(meili *Meili, fallback Searcher) *Service {
	return &Service{meili: meili, fallback: fallback}
}

// Search tries Meilisearch if healthy, otherwise falls back to SQL.
func (s *Service) Search(q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to sql: %v", err)
	}

	results, total, err := s.fallback.Search(q)
	if err != nil {
		log.Printf("search: sql fallback error: %v", err)
		return Response{Results: []Record{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// Index pushes a case study into the search index (fire-and-forget).
func (s *Service) Index(rec Record) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.Index(rec); err != nil {
			log.Printf("search: index case study %d: %v", rec.ID, err)
		}
	}()
}

// Delete removes a case study from the search index (fire-and-forget).
func (s *Service) Delete(id int64) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.Delete(id); err != nil {
			log.Printf("search: delete case study %d: %v", id, err)
		}
	}()
}

func nonNil(results []Record) []Record {
	if results == nil {
		return []Record{}
	}
	return results
}
