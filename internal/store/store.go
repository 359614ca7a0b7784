package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a case study or image does not exist.
var ErrNotFound = errors.New("not found")

// Tx is the unit of work for one synchronizer operation. Every image and
// case-study mutation of that operation goes through the same Tx, and either
// all of it commits or none of it does.
type Tx interface {
	GetCaseStudy(ctx context.Context, id int64) (CaseStudy, error)
	InsertCaseStudy(ctx context.Context, item CaseStudy) (int64, error)
	UpdateCaseStudy(ctx context.Context, item CaseStudy) error
	DeleteCaseStudy(ctx context.Context, id int64) error

	InsertImage(ctx context.Context, img Image) (int64, error)
	UpdateImage(ctx context.Context, img Image) error
	DeleteImage(ctx context.Context, id int64) error

	Commit() error
	Rollback() error
}

// Store is the persistence contract consumed by the case-study service.
type Store interface {
	Begin(ctx context.Context) (Tx, error)

	GetCaseStudy(ctx context.Context, id int64) (CaseStudy, error)
	ListCaseStudies(ctx context.Context) ([]CaseStudy, error)
	FindCaseStudies(ctx context.Context, title, clientName, industry string) ([]CaseStudy, error)
	SearchCaseStudies(ctx context.Context, text string) ([]CaseStudy, error)
	GetImage(ctx context.Context, id int64) (Image, error)
}
