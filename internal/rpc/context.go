package rpc

import (
	"errors"
	"net/http"

	"vdt.ai/dashboard/internal/store"
)

var ErrNilStore = errors.New("rpc: storage handle is nil")

// Context is the per-call bundle handed to every procedure. It carries the
// storage handle and, for HTTP calls, the raw inbound request. Identity is not
// resolved here.
type Context struct {
	DB      store.Provider
	Request *http.Request
}

// ContextFactory builds a Context for one inbound call. A nil request is
// valid and denotes an in-process caller.
type ContextFactory func(r *http.Request) *Context

// NewContextFactory binds the storage handle once at startup. A nil handle is
// a configuration error; the process should not serve requests without one.
func NewContextFactory(db store.Provider) (ContextFactory, error) {
	if db == nil {
		return nil, ErrNilStore
	}
	return func(r *http.Request) *Context {
		return &Context{DB: db, Request: r}
	}, nil
}
