package store

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryStore is a map-backed Store used in tests and local development.
// Begin snapshots the current state; Commit swaps the snapshot back in and
// Rollback discards it, so callers observe real all-or-nothing semantics.
// Transactions are serialized by the store mutex (last commit wins), which is
// enough for the single-writer-per-document model the service enforces.
type MemoryStore struct {
	mu          sync.Mutex
	caseStudies map[int64]CaseStudy
	images      map[int64]Image
	nextCaseID  int64
	nextImageID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		caseStudies: make(map[int64]CaseStudy),
		images:      make(map[int64]Image),
		nextCaseID:  1,
		nextImageID: 1,
	}
}

func (s *MemoryStore) Begin(ctx context.Context) (Tx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &memTx{
		parent:      s,
		caseStudies: copyCaseStudies(s.caseStudies),
		images:      copyImages(s.images),
		nextCaseID:  s.nextCaseID,
		nextImageID: s.nextImageID,
	}, nil
}

func (s *MemoryStore) GetCaseStudy(ctx context.Context, id int64) (CaseStudy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.caseStudies[id]
	if !ok {
		return CaseStudy{}, ErrNotFound
	}
	return item, nil
}

func (s *MemoryStore) ListCaseStudies(ctx context.Context) ([]CaseStudy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]CaseStudy, 0, len(s.caseStudies))
	for _, item := range s.caseStudies {
		items = append(items, item)
	}
	return items, nil
}

func (s *MemoryStore) FindCaseStudies(ctx context.Context, title, clientName, industry string) ([]CaseStudy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]CaseStudy, 0)
	for _, item := range s.caseStudies {
		if containsFold(item.Title, title) && containsFold(item.ClientName, clientName) && containsFold(item.Industry, industry) {
			items = append(items, item)
		}
	}
	return items, nil
}

func (s *MemoryStore) SearchCaseStudies(ctx context.Context, text string) ([]CaseStudy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]CaseStudy, 0)
	for _, item := range s.caseStudies {
		haystacks := []string{item.Title, item.ClientName, item.Industry, item.ProjectType, item.Summary}
		for _, h := range haystacks {
			if strings.Contains(strings.ToLower(h), strings.ToLower(text)) {
				items = append(items, item)
				break
			}
		}
	}
	return items, nil
}

func (s *MemoryStore) GetImage(ctx context.Context, id int64) (Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	img, ok := s.images[id]
	if !ok {
		return Image{}, ErrNotFound
	}
	return img, nil
}

// ImageCount reports how many images currently exist; tests use it to check
// that operations leave no orphaned blobs behind.
func (s *MemoryStore) ImageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.images)
}

func containsFold(haystack, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func copyCaseStudies(src map[int64]CaseStudy) map[int64]CaseStudy {
	dst := make(map[int64]CaseStudy, len(src))
	for id, item := range src {
		dst[id] = item
	}
	return dst
}

func copyImages(src map[int64]Image) map[int64]Image {
	dst := make(map[int64]Image, len(src))
	for id, img := range src {
		data := make([]byte, len(img.Data))
		copy(data, img.Data)
		img.Data = data
		dst[id] = img
	}
	return dst
}

type memTx struct {
	parent      *MemoryStore
	caseStudies map[int64]CaseStudy
	images      map[int64]Image
	nextCaseID  int64
	nextImageID int64
	done        bool
}

func (t *memTx) GetCaseStudy(ctx context.Context, id int64) (CaseStudy, error) {
	item, ok := t.caseStudies[id]
	if !ok {
		return CaseStudy{}, ErrNotFound
	}
	return item, nil
}

func (t *memTx) InsertCaseStudy(ctx context.Context, item CaseStudy) (int64, error) {
	item.ID = t.nextCaseID
	t.nextCaseID++
	item.UpdatedAt = time.Now()
	t.caseStudies[item.ID] = item
	return item.ID, nil
}

func (t *memTx) UpdateCaseStudy(ctx context.Context, item CaseStudy) error {
	if _, ok := t.caseStudies[item.ID]; !ok {
		return ErrNotFound
	}
	item.UpdatedAt = time.Now()
	t.caseStudies[item.ID] = item
	return nil
}

func (t *memTx) DeleteCaseStudy(ctx context.Context, id int64) error {
	delete(t.caseStudies, id)
	return nil
}

func (t *memTx) InsertImage(ctx context.Context, img Image) (int64, error) {
	img.ID = t.nextImageID
	t.nextImageID++
	t.images[img.ID] = img
	return img.ID, nil
}

func (t *memTx) UpdateImage(ctx context.Context, img Image) error {
	if _, ok := t.images[img.ID]; !ok {
		return ErrNotFound
	}
	t.images[img.ID] = img
	return nil
}

func (t *memTx) DeleteImage(ctx context.Context, id int64) error {
	delete(t.images, id)
	return nil
}

func (t *memTx) Commit() error {
	if t.done {
		return nil
	}
	t.done = true
	t.parent.mu.Lock()
	defer t.parent.mu.Unlock()
	t.parent.caseStudies = t.caseStudies
	t.parent.images = t.images
	t.parent.nextCaseID = t.nextCaseID
	t.parent.nextImageID = t.nextImageID
	return nil
}

func (t *memTx) Rollback() error {
	t.done = true
	return nil
}
