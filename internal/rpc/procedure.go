package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

type Kind int

const (
	KindQuery Kind = iota
	KindMutation
)

func (k Kind) String() string {
	if k == KindMutation {
		return "mutation"
	}
	return "query"
}

// HandlerFunc is the untyped shape every procedure reduces to. Input is the
// raw JSON the caller sent, possibly empty.
type HandlerFunc func(ctx context.Context, rc *Context, input json.RawMessage) (any, error)

// Procedure is one independently invocable operation: a kind, an optional
// input type and a handler.
type Procedure struct {
	kind      Kind
	inputType reflect.Type
	handler   HandlerFunc
}

func (p Procedure) Kind() Kind {
	return p.kind
}

// InputType is nil for procedures that take no input.
func (p Procedure) InputType() reflect.Type {
	return p.inputType
}

func (p Procedure) invoke(ctx context.Context, rc *Context, input json.RawMessage) (any, error) {
	return p.handler(ctx, rc, input)
}

// Query declares a read-only procedure without input.
func Query[O any](fn func(ctx context.Context, rc *Context) (O, error)) Procedure {
	return Procedure{kind: KindQuery, handler: ignoreInput(fn)}
}

// Mutation declares a state-changing procedure without input.
func Mutation[O any](fn func(ctx context.Context, rc *Context) (O, error)) Procedure {
	return Procedure{kind: KindMutation, handler: ignoreInput(fn)}
}

// QueryInput declares a read-only procedure whose input is validated against I.
func QueryInput[I, O any](fn func(ctx context.Context, rc *Context, in I) (O, error)) Procedure {
	return Procedure{kind: KindQuery, inputType: reflect.TypeFor[I](), handler: Validated(fn)}
}

// MutationInput declares a state-changing procedure whose input is validated against I.
func MutationInput[I, O any](fn func(ctx context.Context, rc *Context, in I) (O, error)) Procedure {
	return Procedure{kind: KindMutation, inputType: reflect.TypeFor[I](), handler: Validated(fn)}
}

// Validated wraps fn so that raw input is decoded into I and checked against
// I's `validate` tags first. On failure it returns a BAD_REQUEST *Error and fn
// never runs.
func Validated[I, O any](fn func(ctx context.Context, rc *Context, in I) (O, error)) HandlerFunc {
	return func(ctx context.Context, rc *Context, raw json.RawMessage) (any, error) {
		var in I
		if err := decodeInput(raw, &in); err != nil {
			return nil, err
		}
		if err := validateInput(in); err != nil {
			return nil, err
		}

		out, err := fn(ctx, rc, in)
		if err != nil {
			return nil, err
		}
		return out, nil
	}
}

func ignoreInput[O any](fn func(ctx context.Context, rc *Context) (O, error)) HandlerFunc {
	return func(ctx context.Context, rc *Context, _ json.RawMessage) (any, error) {
		out, err := fn(ctx, rc)
		if err != nil {
			return nil, err
		}
		return out, nil
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their wire name so issues match what the caller sent.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})
	return v
}

func decodeInput(raw json.RawMessage, dst any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		trimmed = []byte("{}")
	}

	trimmed, err := dropInexactKeys(trimmed, reflect.TypeOf(dst).Elem())
	if err != nil {
		return invalidInput(Issue{Message: "malformed JSON input"})
	}

	if err := json.Unmarshal(trimmed, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return invalidInput(Issue{
				Path:    typeErr.Field,
				Message: fmt.Sprintf("expected %s, got %s", typeErr.Type.Kind(), typeErr.Value),
			})
		}
		return invalidInput(Issue{Message: "malformed JSON input"})
	}
	return nil
}

// dropInexactKeys removes object keys that do not spell a field's json name
// exactly. encoding/json would otherwise fill "name" from "NAME".
func dropInexactKeys(raw []byte, t reflect.Type) ([]byte, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct || raw[0] != '{' {
		return raw, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}

	names := jsonFieldNames(t)
	dropped := false
	for key := range obj {
		if _, ok := names[key]; !ok {
			delete(obj, key)
			dropped = true
		}
	}
	if !dropped {
		return raw, nil
	}
	return json.Marshal(obj)
}

var fieldNameCache sync.Map // reflect.Type -> map[string]struct{}

func jsonFieldNames(t reflect.Type) map[string]struct{} {
	if cached, ok := fieldNameCache.Load(t); ok {
		return cached.(map[string]struct{})
	}

	names := make(map[string]struct{})
	collectFieldNames(t, names)
	fieldNameCache.Store(t, names)
	return names
}

func collectFieldNames(t reflect.Type, names map[string]struct{}) {
	for i := range t.NumField() {
		f := t.Field(i)
		tag, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if tag == "-" {
			continue
		}

		if f.Anonymous && tag == "" {
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				collectFieldNames(ft, names)
				continue
			}
		}
		if !f.IsExported() {
			continue
		}

		if tag == "" {
			tag = f.Name
		}
		names[tag] = struct{}{}
	}
}

func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		// Non-struct inputs carry no validation tags.
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return invalidInput(Issue{Message: err.Error()})
	}

	issues := make([]Issue, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		issues = append(issues, Issue{Path: fieldPath(fe.Namespace()), Message: issueMessage(fe)})
	}
	return invalidInput(issues...)
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func issueMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "email":
		return "must be a valid email address"
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

func invalidInput(issues ...Issue) *Error {
	return &Error{Code: CodeBadRequest, Message: "invalid input", Issues: issues}
}
