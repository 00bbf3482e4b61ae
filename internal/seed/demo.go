package seed

import (
	"context"
	"fmt"
	"log/slog"

	"vdt.ai/dashboard/common/logger"
	"vdt.ai/dashboard/internal/model"
	"vdt.ai/dashboard/internal/service"
	"vdt.ai/dashboard/internal/store"
)

const DefaultDemoProjects = 2

type Demo struct {
	Organization *model.Organization `json:"organization"`
	Projects     []model.Project     `json:"projects"`
}

// InitDemo creates one organization and n projects under it in a single
// transaction. n <= 0 means DefaultDemoProjects.
func InitDemo(ctx context.Context, tx service.TxRunner, n int) (*Demo, error) {
	return defaultGenerator.InitDemo(ctx, tx, n)
}

func (g *Generator) InitDemo(ctx context.Context, tx service.TxRunner, n int) (*Demo, error) {
	if n <= 0 {
		n = DefaultDemoProjects
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "dashboard.seed"})

	var demo Demo
	err := tx.WithTx(ctx, func(stores store.Provider) error {
		fake := g.Organization()
		org, err := service.NewOrganizationService(stores.Organizations()).Create(ctx, fake.Name, &fake.Slug)
		if err != nil {
			return err
		}
		demo.Organization = org

		demo.Projects = make([]model.Project, 0, n)
		for range n {
			project := g.Project()
			project.OrganizationID = org.ID
			if err := stores.Projects().Create(ctx, &project); err != nil {
				return fmt.Errorf("creating demo project: %w", err)
			}
			demo.Projects = append(demo.Projects, project)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("init demo: %w", err)
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{OrganizationID: logger.Ptr(demo.Organization.ID)})
	slog.InfoContext(ctx, "demo data created", "organization_slug", demo.Organization.Slug, "projects", len(demo.Projects))
	return &demo, nil
}
