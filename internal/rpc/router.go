package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrDuplicateNamespace = errors.New("rpc: duplicate namespace")
	ErrInvalidName        = errors.New("rpc: invalid name")
)

// Router groups procedures by name.
type Router map[string]Procedure

// Namespace mounts a Router under a top-level name.
type Namespace struct {
	Name   string
	Router Router
}

func NS(name string, r Router) Namespace {
	return Namespace{Name: name, Router: r}
}

// Call describes the procedure being invoked, for interceptors.
type Call struct {
	Path      string
	Namespace string
	Procedure string
	Kind      Kind
}

// Invoker runs one resolved call.
type Invoker func(ctx context.Context, rc *Context, call Call, input json.RawMessage) (any, error)

// Interceptor wraps every call dispatched by an App.
type Interceptor func(next Invoker) Invoker

// App is the merged, addressable procedure surface. Paths are
// "namespace.procedure".
type App struct {
	procedures   map[string]Procedure
	interceptors []Interceptor
}

// Merge builds the path table once. Collisions and malformed names are
// configuration errors and must stop startup.
func Merge(namespaces ...Namespace) (*App, error) {
	app := &App{procedures: make(map[string]Procedure)}
	seen := make(map[string]struct{}, len(namespaces))

	for _, ns := range namespaces {
		if err := checkName(ns.Name); err != nil {
			return nil, fmt.Errorf("namespace %q: %w", ns.Name, err)
		}
		if _, dup := seen[ns.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateNamespace, ns.Name)
		}
		seen[ns.Name] = struct{}{}

		for name, proc := range ns.Router {
			if err := checkName(name); err != nil {
				return nil, fmt.Errorf("procedure %q in namespace %q: %w", name, ns.Name, err)
			}
			if proc.handler == nil {
				return nil, fmt.Errorf("procedure %s.%s has no handler", ns.Name, name)
			}
			app.procedures[ns.Name+"."+name] = proc
		}
	}

	return app, nil
}

func checkName(name string) error {
	if name == "" || strings.ContainsAny(name, "./ ") {
		return ErrInvalidName
	}
	return nil
}

// Use appends interceptors. The first one added is the outermost.
func (a *App) Use(interceptors ...Interceptor) {
	a.interceptors = append(a.interceptors, interceptors...)
}

func (a *App) Lookup(path string) (Procedure, bool) {
	proc, ok := a.procedures[path]
	return proc, ok
}

// Paths returns every registered path in sorted order.
func (a *App) Paths() []string {
	paths := make([]string, 0, len(a.procedures))
	for path := range a.procedures {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Call dispatches path with the given raw input. Unknown paths yield a
// NOT_FOUND *Error; everything else comes from the procedure unchanged.
func (a *App) Call(ctx context.Context, rc *Context, path string, input json.RawMessage) (any, error) {
	proc, ok := a.procedures[path]
	if !ok {
		return nil, NewError(CodeNotFound, fmt.Sprintf("no procedure on path %q", path))
	}

	namespace, name, _ := strings.Cut(path, ".")
	call := Call{Path: path, Namespace: namespace, Procedure: name, Kind: proc.kind}

	invoke := Invoker(func(ctx context.Context, rc *Context, _ Call, input json.RawMessage) (any, error) {
		return proc.invoke(ctx, rc, input)
	})
	for i := len(a.interceptors) - 1; i >= 0; i-- {
		invoke = a.interceptors[i](invoke)
	}

	return invoke(ctx, rc, call, input)
}
