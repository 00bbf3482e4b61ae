package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"vdt.ai/dashboard/core/db"
	"vdt.ai/dashboard/internal/model"
)

const organizationColumns = `id, name, slug, created_at, updated_at`

type organizationStore struct {
	conn db.DBTX
}

func newOrganizationStore(conn db.DBTX) OrganizationStore {
	return &organizationStore{conn: conn}
}

func (s *organizationStore) GetBySlug(ctx context.Context, slug string) (*model.Organization, error) {
	row := s.conn.QueryRow(ctx, `SELECT `+organizationColumns+` FROM organizations WHERE slug = $1`, slug)
	org, err := scanOrganization(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return org, nil
}

// Create inserts org using the caller-supplied ID, which lets a transaction
// reference the organization before commit.
func (s *organizationStore) Create(ctx context.Context, org *model.Organization) error {
	row := s.conn.QueryRow(ctx, `
		INSERT INTO organizations (id, name, slug)
		VALUES ($1, $2, $3)
		RETURNING `+organizationColumns,
		org.ID, org.Name, org.Slug,
	)
	created, err := scanOrganization(row)
	if err != nil {
		return err
	}
	*org = *created
	return nil
}

func scanOrganization(row pgx.Row) (*model.Organization, error) {
	var org model.Organization
	if err := row.Scan(&org.ID, &org.Name, &org.Slug, &org.CreatedAt, &org.UpdatedAt); err != nil {
		return nil, err
	}
	return &org, nil
}
