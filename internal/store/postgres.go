package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

const caseStudyColumns = `case_study_id, title, client_name, client_link, client_logo_id,
	industry, project_type, summary,
	problem_description, solution_description, outcomes, tools_used, project_learnings,
	updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCaseStudy(row rowScanner) (CaseStudy, error) {
	var item CaseStudy
	var logoID sql.NullInt64
	err := row.Scan(
		&item.ID,
		&item.Title,
		&item.ClientName,
		&item.ClientLink,
		&logoID,
		&item.Industry,
		&item.ProjectType,
		&item.Summary,
		&item.ProblemDescription,
		&item.SolutionDescription,
		&item.Outcomes,
		&item.ToolsUsed,
		&item.ProjectLearnings,
		&item.UpdatedAt,
	)
	if err != nil {
		return CaseStudy{}, err
	}
	if logoID.Valid {
		item.ClientLogoID = &logoID.Int64
	}
	return item, nil
}

func logoIDValue(item CaseStudy) any {
	if item.ClientLogoID == nil {
		return nil
	}
	return *item.ClientLogoID
}

func (s *PostgresStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &pgTx{tx: tx}, nil
}

func (s *PostgresStore) GetCaseStudy(ctx context.Context, id int64) (CaseStudy, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+caseStudyColumns+` FROM case_studies WHERE case_study_id=$1`, id)
	item, err := scanCaseStudy(row)
	if errors.Is(err, sql.ErrNoRows) {
		return CaseStudy{}, ErrNotFound
	}
	if err != nil {
		return CaseStudy{}, fmt.Errorf("get case study: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) ListCaseStudies(ctx context.Context) ([]CaseStudy, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+caseStudyColumns+`
		FROM case_studies
		ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list case studies: %w", err)
	}
	return collectCaseStudies(rows)
}

func (s *PostgresStore) FindCaseStudies(ctx context.Context, title, clientName, industry string) ([]CaseStudy, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+caseStudyColumns+`
		FROM case_studies
		WHERE ($1='' OR title ILIKE '%' || $1 || '%')
		  AND ($2='' OR client_name ILIKE '%' || $2 || '%')
		  AND ($3='' OR industry ILIKE '%' || $3 || '%')
		ORDER BY updated_at DESC
	`, title, clientName, industry)
	if err != nil {
		return nil, fmt.Errorf("find case studies: %w", err)
	}
	return collectCaseStudies(rows)
}

func (s *PostgresStore) SearchCaseStudies(ctx context.Context, text string) ([]CaseStudy, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+caseStudyColumns+`
		FROM case_studies
		WHERE title ILIKE '%' || $1 || '%'
		   OR client_name ILIKE '%' || $1 || '%'
		   OR industry ILIKE '%' || $1 || '%'
		   OR project_type ILIKE '%' || $1 || '%'
		   OR summary ILIKE '%' || $1 || '%'
		ORDER BY updated_at DESC
	`, text)
	if err != nil {
		return nil, fmt.Errorf("search case studies: %w", err)
	}
	return collectCaseStudies(rows)
}

func collectCaseStudies(rows *sql.Rows) ([]CaseStudy, error) {
	defer rows.Close()

	items := make([]CaseStudy, 0)
	for rows.Next() {
		item, err := scanCaseStudy(rows)
		if err != nil {
			return nil, fmt.Errorf("scan case study: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate case studies: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetImage(ctx context.Context, id int64) (Image, error) {
	var img Image
	err := s.db.QueryRowContext(ctx, `SELECT image_id, data, image_type FROM images WHERE image_id=$1`, id).
		Scan(&img.ID, &img.Data, &img.Type)
	if errors.Is(err, sql.ErrNoRows) {
		return Image{}, ErrNotFound
	}
	if err != nil {
		return Image{}, fmt.Errorf("get image: %w", err)
	}
	return img, nil
}

// Ping verifies the database connection is alive
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type pgTx struct {
	tx *sql.Tx
}

// GetCaseStudy locks the row for the duration of the transaction so two
// concurrent updates to the same case study are serialized by the database.
func (t *pgTx) GetCaseStudy(ctx context.Context, id int64) (CaseStudy, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT `+caseStudyColumns+`
		FROM case_studies
		WHERE case_study_id=$1
		FOR UPDATE
	`, id)
	item, err := scanCaseStudy(row)
	if errors.Is(err, sql.ErrNoRows) {
		return CaseStudy{}, ErrNotFound
	}
	if err != nil {
		return CaseStudy{}, fmt.Errorf("get case study: %w", err)
	}
	return item, nil
}

func (t *pgTx) InsertCaseStudy(ctx context.Context, item CaseStudy) (int64, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO case_studies (title, client_name, client_link, client_logo_id,
			industry, project_type, summary,
			problem_description, solution_description, outcomes, tools_used, project_learnings)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING case_study_id
	`,
		item.Title, item.ClientName, item.ClientLink, logoIDValue(item),
		item.Industry, item.ProjectType, item.Summary,
		item.ProblemDescription, item.SolutionDescription, item.Outcomes, item.ToolsUsed, item.ProjectLearnings,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert case study: %w", err)
	}
	return id, nil
}

func (t *pgTx) UpdateCaseStudy(ctx context.Context, item CaseStudy) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE case_studies
		SET title=$2, client_name=$3, client_link=$4, client_logo_id=$5,
			industry=$6, project_type=$7, summary=$8,
			problem_description=$9, solution_description=$10, outcomes=$11,
			tools_used=$12, project_learnings=$13, updated_at=NOW()
		WHERE case_study_id=$1
	`,
		item.ID, item.Title, item.ClientName, item.ClientLink, logoIDValue(item),
		item.Industry, item.ProjectType, item.Summary,
		item.ProblemDescription, item.SolutionDescription, item.Outcomes, item.ToolsUsed, item.ProjectLearnings,
	)
	if err != nil {
		return fmt.Errorf("update case study: %w", err)
	}
	return nil
}

func (t *pgTx) DeleteCaseStudy(ctx context.Context, id int64) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM case_studies WHERE case_study_id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete case study: %w", err)
	}
	return nil
}

func (t *pgTx) InsertImage(ctx context.Context, img Image) (int64, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO images (data, image_type)
		VALUES ($1, $2)
		RETURNING image_id
	`, img.Data, img.Type).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert image: %w", err)
	}
	return id, nil
}

func (t *pgTx) UpdateImage(ctx context.Context, img Image) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE images SET data=$2, image_type=$3 WHERE image_id=$1
	`, img.ID, img.Data, img.Type)
	if err != nil {
		return fmt.Errorf("update image: %w", err)
	}
	return nil
}

func (t *pgTx) DeleteImage(ctx context.Context, id int64) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM images WHERE image_id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	return nil
}

func (t *pgTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (t *pgTx) Rollback() error {
	return t.tx.Rollback()
}
