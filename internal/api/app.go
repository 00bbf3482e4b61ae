// Package api declares the dashboard's procedures and assembles them into the
// application router.
package api

import (
	"errors"

	"vdt.ai/dashboard/internal/metrics"
	"vdt.ai/dashboard/internal/rpc"
	"vdt.ai/dashboard/internal/service"
)

type Deps struct {
	Identity service.IdentityResolver
	// Activity is optional.
	Activity ActivityPublisher
	// Metrics defaults to metrics.Nop.
	Metrics metrics.Recorder
}

func NewAppRouter(deps Deps) (*rpc.App, error) {
	if deps.Identity == nil {
		return nil, errors.New("api: identity resolver is required")
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.Nop
	}

	app, err := rpc.Merge(
		rpc.NS("health", HealthRouter()),
		rpc.NS("auth", AuthRouter(deps.Identity)),
		rpc.NS("projects", ProjectsRouter(deps.Activity, deps.Metrics)),
	)
	if err != nil {
		return nil, err
	}

	app.Use(Observe(deps.Metrics))
	return app, nil
}
