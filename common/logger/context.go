package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// Handlers enrich the context once and every slog call below them picks the fields up.
type LogFields struct {
	Path           *string // Procedure path, e.g. "projects.create"
	OrganizationID *string
	ProjectID      *string
	UserID         *string
	SessionID      *string
	Component      string // e.g. "dashboard.rpc", "dashboard.seed"
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, new LogFields) LogFields {
	result := existing

	if new.Path != nil {
		result.Path = new.Path
	}
	if new.OrganizationID != nil {
		result.OrganizationID = new.OrganizationID
	}
	if new.ProjectID != nil {
		result.ProjectID = new.ProjectID
	}
	if new.UserID != nil {
		result.UserID = new.UserID
	}
	if new.SessionID != nil {
		result.SessionID = new.SessionID
	}
	if new.Component != "" {
		result.Component = new.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{ProjectID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}
