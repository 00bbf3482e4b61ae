package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"vdt.ai/dashboard/core/db"
	"vdt.ai/dashboard/internal/model"
)

const userColumns = `id, email, name, role, workos_id, created_at, updated_at`

type userStore struct {
	conn db.DBTX
}

func newUserStore(conn db.DBTX) UserStore {
	return &userStore{conn: conn}
}

func (s *userStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, err := scanUser(s.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpsertByWorkOSID inserts the user or refreshes email and name of the row
// already linked to the same WorkOS identity. The stored ID wins on conflict.
func (s *userStore) UpsertByWorkOSID(ctx context.Context, user *model.User) error {
	role := model.UserRoleUser
	if user.Role != nil {
		role = *user.Role
	}

	row := s.conn.QueryRow(ctx, `
		INSERT INTO users (id, workos_id, email, name, role)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (workos_id) DO UPDATE
		SET email = EXCLUDED.email, name = EXCLUDED.name, updated_at = now()
		RETURNING `+userColumns,
		user.ID, user.WorkOSID, user.Email, user.Name, int32(role),
	)
	upserted, err := scanUser(row)
	if err != nil {
		return err
	}
	*user = *upserted
	return nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		u                    model.User
		role                 int32
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &role, &u.WorkOSID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	r := model.UserRole(role)
	if !r.Valid() {
		return nil, fmt.Errorf("user %s has unknown role %d", u.ID, role)
	}
	u.Role = &r
	u.CreatedAt = &createdAt
	u.UpdatedAt = &updatedAt
	return &u, nil
}
