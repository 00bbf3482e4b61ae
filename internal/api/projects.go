package api

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"vdt.ai/dashboard/common/logger"
	"vdt.ai/dashboard/internal/metrics"
	"vdt.ai/dashboard/internal/model"
	"vdt.ai/dashboard/internal/queue"
	"vdt.ai/dashboard/internal/rpc"
)

type CreateProjectInput struct {
	OrganizationID string  `json:"organizationId" validate:"required"`
	Name           string  `json:"name" validate:"required"`
	Slug           string  `json:"slug" validate:"required"`
	Description    *string `json:"description,omitempty"`
}

// ActivityPublisher receives project activity after it is persisted.
type ActivityPublisher interface {
	Publish(ctx context.Context, event queue.ActivityEvent) error
}

type projectsRouter struct {
	activity ActivityPublisher
	metrics  metrics.Recorder
}

// ProjectsRouter builds the projects namespace. activity may be nil.
func ProjectsRouter(activity ActivityPublisher, recorder metrics.Recorder) rpc.Router {
	if recorder == nil {
		recorder = metrics.Nop
	}
	r := &projectsRouter{activity: activity, metrics: recorder}

	return rpc.Router{
		"list":   rpc.Query(r.list),
		"create": rpc.MutationInput(r.create),
	}
}

func (r *projectsRouter) list(ctx context.Context, rc *rpc.Context) ([]model.Project, error) {
	projects, err := rc.DB.Projects().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	if projects == nil {
		projects = []model.Project{}
	}
	return projects, nil
}

func (r *projectsRouter) create(ctx context.Context, rc *rpc.Context, in CreateProjectInput) (*model.Project, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{OrganizationID: logger.Ptr(in.OrganizationID)})

	project := &model.Project{
		OrganizationID: in.OrganizationID,
		Name:           in.Name,
		Slug:           in.Slug,
		Description:    in.Description,
	}
	if err := rc.DB.Projects().Create(ctx, project); err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{ProjectID: logger.Ptr(project.ID)})
	slog.InfoContext(ctx, "project created", "slug", project.Slug)

	r.publishCreated(ctx, project)
	return project, nil
}

func (r *projectsRouter) publishCreated(ctx context.Context, project *model.Project) {
	if r.activity == nil {
		return
	}

	event := queue.ActivityEvent{
		Type:           queue.EventProjectCreated,
		ProjectID:      project.ID,
		OrganizationID: project.OrganizationID,
		Slug:           project.Slug,
	}
	if project.CreatedBy != nil {
		event.ActorID = *project.CreatedBy
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		event.TraceID = logger.Ptr(sc.TraceID().String())
	}
	if project.CreatedAt != nil {
		event.OccurredAt = *project.CreatedAt
	}

	// The project is already persisted; a lost event is only logged.
	if err := r.activity.Publish(ctx, event); err != nil {
		r.metrics.RecordPublishFailure()
		slog.WarnContext(ctx, "failed to publish project activity", "error", err)
	}
}
