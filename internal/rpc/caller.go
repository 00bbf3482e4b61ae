package rpc

import (
	"context"
	"encoding/json"
	"fmt"
)

// Caller invokes procedures in-process, bypassing any transport.
type Caller struct {
	app *App
	rc  *Context
}

func (a *App) NewCaller(rc *Context) *Caller {
	return &Caller{app: a, rc: rc}
}

// Call marshals input to JSON and dispatches path. A nil input sends no input.
func (c *Caller) Call(ctx context.Context, path string, input any) (any, error) {
	var raw json.RawMessage
	if input != nil {
		b, err := json.Marshal(input)
		if err != nil {
			return nil, fmt.Errorf("encoding input for %s: %w", path, err)
		}
		raw = b
	}
	return c.app.Call(ctx, c.rc, path, raw)
}

// CallAs is Call with the result asserted to O.
func CallAs[O any](ctx context.Context, c *Caller, path string, input any) (O, error) {
	var zero O
	out, err := c.Call(ctx, path, input)
	if err != nil {
		return zero, err
	}
	typed, ok := out.(O)
	if !ok {
		return zero, fmt.Errorf("procedure %s returned %T, not %T", path, out, zero)
	}
	return typed, nil
}
