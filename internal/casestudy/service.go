// Package casestudy implements the case-study service and the embedded-image
// lifecycle that comes with it: rich-text fields may carry inline images,
// which are persisted as separate blobs and referenced from the markup by
// numeric id. Create, update and delete keep the blob set and the referenced
// set in lock-step inside a single unit of work; the serve path rewrites ids
// into public links without touching storage.
package casestudy

import (
	"context"
	"log"
	"sync"

	"portfolio/api/internal/cache"
	"portfolio/api/internal/config"
	"portfolio/api/internal/imageref"
	"portfolio/api/internal/markup"
	"portfolio/api/internal/search"
	"portfolio/api/internal/store"
)

// Draft is the payload accepted for create and update.
type Draft struct {
	// ID is the target case study on update and ignored on create.
	ID          int64
	Title       string
	ClientName  string
	ClientLink  string
	Industry    string
	ProjectType string
	Summary     string

	// ClientLogo optionally carries a new logo as an inline data URI.
	ClientLogo string

	// Rich-text fields. nil means the field is not part of the payload:
	// the stored content is kept and its images stay in use.
	ProblemDescription  *string
	SolutionDescription *string
	Outcomes            *string
	ToolsUsed           *string
	ProjectLearnings    *string
}

func (d *Draft) richTextFields() []*string {
	return []*string{
		d.ProblemDescription,
		d.SolutionDescription,
		d.Outcomes,
		d.ToolsUsed,
		d.ProjectLearnings,
	}
}

type Service struct {
	cfg    config.Config
	store  store.Store
	search *search.Service
	cache  *cache.Cache

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// New creates the case-study service. searchSvc and readCache may be nil;
// search then runs against the store directly and reads skip caching.
func New(cfg config.Config, st store.Store, searchSvc *search.Service, readCache *cache.Cache) *Service {
	if searchSvc == nil {
		searchSvc = search.NewService(nil, search.NewSQLSearcher(st))
	}
	return &Service{
		cfg:    cfg,
		store:  st,
		search: searchSvc,
		cache:  readCache,
		locks:  make(map[int64]*sync.Mutex),
	}
}

// lock returns the mutex serializing mutations of one case study. Two
// concurrent updates to the same id must not interleave their scan and
// delete phases or orphaned blobs slip through.
func (s *Service) lock(id int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// Create persists a new case study together with every image embedded in its
// rich-text fields. All srcs must be inline data URIs: a bare id or a link at
// create time means the client echoed already-served content and the whole
// operation is rejected. Nothing is left behind on failure.
func (s *Service) Create(ctx context.Context, draft Draft) (store.CaseStudy, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return store.CaseStudy{}, err
	}

	item, err := s.createInTx(ctx, tx, draft)
	if err != nil {
		_ = tx.Rollback()
		return store.CaseStudy{}, err
	}
	if err := tx.Commit(); err != nil {
		return store.CaseStudy{}, err
	}

	s.index(item)
	return item, nil
}

func (s *Service) createInTx(ctx context.Context, tx store.Tx, draft Draft) (store.CaseStudy, error) {
	item := store.CaseStudy{
		Title:       draft.Title,
		ClientName:  draft.ClientName,
		ClientLink:  draft.ClientLink,
		Industry:    draft.Industry,
		ProjectType: draft.ProjectType,
		Summary:     draft.Summary,
	}

	if draft.ClientLogo != "" {
		mediaType, data, err := imageref.DecodeDataURI(draft.ClientLogo)
		if err != nil {
			return store.CaseStudy{}, err
		}
		id, err := tx.InsertImage(ctx, store.Image{Data: data, Type: store.ImageTypeFromMediaType(mediaType)})
		if err != nil {
			return store.CaseStudy{}, err
		}
		item.ClientLogoID = &id
	}

	storedFields := item.RichTextFields()
	for i, field := range draft.richTextFields() {
		if field == nil {
			continue
		}
		clean := markup.Sanitize(*field)
		rewritten, err := markup.RewriteImages(clean, func(src string) (string, error) {
			ref, err := imageref.Classify(src)
			if err != nil {
				return "", err
			}
			if ref.Kind != imageref.KindInline {
				return "", &imageref.DecodeError{Reason: "create accepts inline images only"}
			}
			id, err := tx.InsertImage(ctx, store.Image{Data: ref.Data, Type: store.ImageTypeFromMediaType(ref.MediaType)})
			if err != nil {
				return "", err
			}
			return imageref.IDString(id), nil
		})
		if err != nil {
			return store.CaseStudy{}, err
		}
		*storedFields[i] = rewritten
	}

	id, err := tx.InsertCaseStudy(ctx, item)
	if err != nil {
		return store.CaseStudy{}, err
	}
	item.ID = id
	return item, nil
}

// Update replaces the supplied fields of an existing case study and
// reconciles the image blobs: new inline images are inserted, link
// references are confirmed as still in use and canonicalized back to id
// form, and images that were referenced by the replaced field content but no
// longer are get deleted. Fields absent from the draft are untouched and
// never surrender their images. Returns store.ErrNotFound when the case
// study does not exist.
func (s *Service) Update(ctx context.Context, draft Draft) (store.CaseStudy, error) {
	l := s.lock(draft.ID)
	l.Lock()
	defer l.Unlock()

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return store.CaseStudy{}, err
	}

	item, err := s.updateInTx(ctx, tx, draft)
	if err != nil {
		_ = tx.Rollback()
		return store.CaseStudy{}, err
	}
	if err := tx.Commit(); err != nil {
		return store.CaseStudy{}, err
	}

	s.invalidate(ctx, item.ID)
	s.index(item)
	return item, nil
}

func (s *Service) updateInTx(ctx context.Context, tx store.Tx, draft Draft) (store.CaseStudy, error) {
	current, err := tx.GetCaseStudy(ctx, draft.ID)
	if err != nil {
		return store.CaseStudy{}, err
	}

	// Ids referenced by the stored content of exactly those fields the
	// draft replaces. Whatever is still in this set after rewriting the
	// new content is orphaned and gets deleted. Fields the draft omits
	// never contribute candidates.
	priorIDs := make(map[int64]struct{})
	currentFields := current.RichTextFields()
	draftFields := draft.richTextFields()
	for i, field := range draftFields {
		if field == nil {
			continue
		}
		ids, err := storedImageIDs(*currentFields[i])
		if err != nil {
			return store.CaseStudy{}, err
		}
		for _, id := range ids {
			priorIDs[id] = struct{}{}
		}
	}

	if draft.ClientLogo != "" {
		mediaType, data, err := imageref.DecodeDataURI(draft.ClientLogo)
		if err != nil {
			return store.CaseStudy{}, err
		}
		img := store.Image{Data: data, Type: store.ImageTypeFromMediaType(mediaType)}
		if current.ClientLogoID == nil {
			id, err := tx.InsertImage(ctx, img)
			if err != nil {
				return store.CaseStudy{}, err
			}
			current.ClientLogoID = &id
		} else {
			// The logo keeps its id; this is the one place an existing
			// blob's payload is overwritten rather than replaced.
			img.ID = *current.ClientLogoID
			if err := tx.UpdateImage(ctx, img); err != nil {
				return store.CaseStudy{}, err
			}
		}
	}

	item := current
	item.Title = draft.Title
	item.ClientName = draft.ClientName
	item.ClientLink = draft.ClientLink
	item.Industry = draft.Industry
	item.ProjectType = draft.ProjectType
	item.Summary = draft.Summary

	storedFields := item.RichTextFields()
	for i, field := range draftFields {
		if field == nil {
			continue
		}
		clean := markup.Sanitize(*field)
		rewritten, err := markup.RewriteImages(clean, func(src string) (string, error) {
			ref, err := imageref.Classify(src)
			if err != nil {
				return "", err
			}
			switch ref.Kind {
			case imageref.KindInline:
				id, err := tx.InsertImage(ctx, store.Image{Data: ref.Data, Type: store.ImageTypeFromMediaType(ref.MediaType)})
				if err != nil {
					return "", err
				}
				return imageref.IDString(id), nil
			case imageref.KindLink:
				// The image existed before and still does: not an orphan.
				delete(priorIDs, ref.ID)
				return imageref.IDString(ref.ID), nil
			default:
				// A bare id is kept verbatim but does not count as
				// confirmed reuse, so it cannot rescue its old image
				// from deletion. Clients are expected to send links for
				// retained images.
				return src, nil
			}
		})
		if err != nil {
			return store.CaseStudy{}, err
		}
		*storedFields[i] = rewritten
	}

	for id := range priorIDs {
		if err := tx.DeleteImage(ctx, id); err != nil {
			return store.CaseStudy{}, err
		}
	}

	if err := tx.UpdateCaseStudy(ctx, item); err != nil {
		return store.CaseStudy{}, err
	}
	return item, nil
}

// Delete removes a case study together with every image its fields
// reference and its logo. A failure deleting any of them leaves everything
// exactly as it was.
func (s *Service) Delete(ctx context.Context, id int64) error {
	l := s.lock(id)
	l.Lock()
	defer l.Unlock()

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}

	if err := s.deleteInTx(ctx, tx, id); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.releaseLock(id)
	s.invalidate(ctx, id)
	s.search.Delete(id)
	return nil
}

// releaseLock drops a deleted case study's mutex entry so the lock map does
// not grow with every document ever deleted.
func (s *Service) releaseLock(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, id)
}

func (s *Service) deleteInTx(ctx context.Context, tx store.Tx, id int64) error {
	current, err := tx.GetCaseStudy(ctx, id)
	if err != nil {
		return err
	}

	for _, field := range current.RichTextFields() {
		ids, err := storedImageIDs(*field)
		if err != nil {
			return err
		}
		for _, imageID := range ids {
			if err := tx.DeleteImage(ctx, imageID); err != nil {
				return err
			}
		}
	}

	if err := tx.DeleteCaseStudy(ctx, id); err != nil {
		return err
	}

	if current.ClientLogoID != nil {
		if err := tx.DeleteImage(ctx, *current.ClientLogoID); err != nil {
			return err
		}
	}
	return nil
}

// Get loads one case study with its rich-text fields rendered for serving:
// stored id references become links under the configured base URL. Storage
// is never mutated.
func (s *Service) Get(ctx context.Context, id int64) (store.CaseStudy, error) {
	if s.cache != nil {
		item, ok, err := s.cache.Get(ctx, id)
		if err != nil {
			log.Printf("casestudy: cache get %d: %v", id, err)
		} else if ok {
			return item, nil
		}
	}

	item, err := s.store.GetCaseStudy(ctx, id)
	if err != nil {
		return store.CaseStudy{}, err
	}
	s.render(&item)

	if s.cache != nil {
		if err := s.cache.Set(ctx, item); err != nil {
			log.Printf("casestudy: cache set %d: %v", id, err)
		}
	}
	return item, nil
}

// List returns every case study rendered for serving.
func (s *Service) List(ctx context.Context) ([]store.CaseStudy, error) {
	items, err := s.store.ListCaseStudies(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		s.render(&items[i])
	}
	return items, nil
}

// Find returns case studies matching the given field filters, rendered for
// serving.
func (s *Service) Find(ctx context.Context, title, clientName, industry string) ([]store.CaseStudy, error) {
	items, err := s.store.FindCaseStudies(ctx, title, clientName, industry)
	if err != nil {
		return nil, err
	}
	for i := range items {
		s.render(&items[i])
	}
	return items, nil
}

// Search runs a list-surface query through the search service.
func (s *Service) Search(q search.Query) search.Response {
	return s.search.Search(q)
}

// GetImage returns a stored image blob.
func (s *Service) GetImage(ctx context.Context, id int64) (store.Image, error) {
	return s.store.GetImage(ctx, id)
}

// render rewrites stored id references into public links. Srcs that do not
// classify as stored ids are left untouched: corrupt stored data must not
// break reads.
func (s *Service) render(item *store.CaseStudy) {
	for _, field := range item.RichTextFields() {
		if *field == "" {
			continue
		}
		rewritten, err := markup.RewriteImages(*field, func(src string) (string, error) {
			ref, err := imageref.Classify(src)
			if err != nil || ref.Kind != imageref.KindStoredID {
				return src, nil
			}
			return imageref.Link(s.cfg.APIBaseURL, ref.ID), nil
		})
		if err != nil {
			log.Printf("casestudy: render field for %d: %v", item.ID, err)
			continue
		}
		*field = rewritten
	}
}

// storedImageIDs scans stored field content, which holds references in
// canonical id form only. Anything else in a stored field is corrupt data
// and fails the operation.
func storedImageIDs(fragment string) ([]int64, error) {
	srcs, err := markup.ImageSources(fragment)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(srcs))
	for _, src := range srcs {
		ref, err := imageref.Classify(src)
		if err != nil {
			return nil, err
		}
		if ref.Kind != imageref.KindStoredID {
			return nil, &imageref.DecodeError{Reason: "stored reference not in id form"}
		}
		ids = append(ids, ref.ID)
	}
	return ids, nil
}

func (s *Service) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		log.Printf("casestudy: cache invalidate %d: %v", id, err)
	}
}

func (s *Service) index(item store.CaseStudy) {
	s.search.Index(search.Record{
		ID:          item.ID,
		Title:       item.Title,
		ClientName:  item.ClientName,
		Industry:    item.Industry,
		ProjectType: item.ProjectType,
		Summary:     item.Summary,
	})
}
