package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"vdt.ai/dashboard/core/db"
	"vdt.ai/dashboard/internal/model"
)

const sessionColumns = `id, user_id, workos_session_id, created_at, expires_at`

type sessionStore struct {
	conn db.DBTX
}

func newSessionStore(conn db.DBTX) SessionStore {
	return &sessionStore{conn: conn}
}

func (s *sessionStore) GetByID(ctx context.Context, id string) (*model.Session, error) {
	session, err := scanSession(s.conn.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return session, nil
}

func (s *sessionStore) GetValid(ctx context.Context, id string) (*model.Session, error) {
	session, err := scanSession(s.conn.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1 AND expires_at > now()`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return session, nil
}

func (s *sessionStore) Create(ctx context.Context, session *model.Session) error {
	row := s.conn.QueryRow(ctx, `
		INSERT INTO sessions (id, user_id, workos_session_id, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING `+sessionColumns,
		session.ID, session.UserID, session.WorkOSSessionID, session.ExpiresAt,
	)
	created, err := scanSession(row)
	if err != nil {
		return err
	}
	*session = *created
	return nil
}

func (s *sessionStore) Delete(ctx context.Context, id string) error {
	_, err := s.conn.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

func (s *sessionStore) DeleteExpired(ctx context.Context) error {
	_, err := s.conn.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= now()`)
	return err
}

func scanSession(row pgx.Row) (*model.Session, error) {
	var session model.Session
	if err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.WorkOSSessionID,
		&session.CreatedAt,
		&session.ExpiresAt,
	); err != nil {
		return nil, err
	}
	return &session, nil
}
