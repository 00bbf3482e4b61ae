package store

import (
	"vdt.ai/dashboard/core/db"
)

// Stores is the PostgreSQL-backed Provider. Build it over the pool for
// standalone calls or over a transaction inside db.WithTx.
type Stores struct {
	conn db.DBTX
}

func NewStores(conn db.DBTX) *Stores {
	return &Stores{conn: conn}
}

func (s *Stores) Projects() ProjectStore {
	return newProjectStore(s.conn)
}

func (s *Stores) Organizations() OrganizationStore {
	return newOrganizationStore(s.conn)
}

func (s *Stores) Users() UserStore {
	return newUserStore(s.conn)
}

func (s *Stores) Sessions() SessionStore {
	return newSessionStore(s.conn)
}
