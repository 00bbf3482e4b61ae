package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"vdt.ai/dashboard/common/id"
	"vdt.ai/dashboard/core/db"
	"vdt.ai/dashboard/internal/model"
)

const projectColumns = `id, organization_id, name, slug, description, created_by, created_at, updated_at`

type projectStore struct {
	conn db.DBTX
}

func newProjectStore(conn db.DBTX) ProjectStore {
	return &projectStore{conn: conn}
}

func (s *projectStore) List(ctx context.Context) ([]model.Project, error) {
	rows, err := s.conn.Query(ctx, `SELECT `+projectColumns+` FROM projects`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

func (s *projectStore) Create(ctx context.Context, project *model.Project) error {
	row := s.conn.QueryRow(ctx, `
		INSERT INTO projects (id, organization_id, name, slug, description, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+projectColumns,
		id.NewString(),
		project.OrganizationID,
		project.Name,
		project.Slug,
		project.Description,
		project.CreatedBy,
	)

	created, err := scanProject(row)
	if err != nil {
		return err
	}
	*project = *created
	return nil
}

func scanProject(row pgx.Row) (*model.Project, error) {
	var (
		p                    model.Project
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(
		&p.ID,
		&p.OrganizationID,
		&p.Name,
		&p.Slug,
		&p.Description,
		&p.CreatedBy,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	p.CreatedAt = &createdAt
	p.UpdatedAt = &updatedAt
	return &p, nil
}
