// Package seed generates plausible records for local development and tests.
package seed

import (
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"

	"vdt.ai/dashboard/common"
	"vdt.ai/dashboard/internal/model"
)

const slugWords = 5

// Generator produces fake records. A seeded Generator is deterministic apart
// from ids and timestamps.
type Generator struct {
	f   *gofakeit.Faker
	now func() time.Time
}

func NewGenerator(seed uint64) *Generator {
	return &Generator{f: gofakeit.New(seed), now: time.Now}
}

var defaultGenerator = &Generator{f: gofakeit.GlobalFaker, now: time.Now}

func FakeOrganization() model.Organization         { return defaultGenerator.Organization() }
func FakeOrganizationComplete() model.Organization { return defaultGenerator.OrganizationComplete() }
func FakeProject() model.Project                   { return defaultGenerator.Project() }
func FakeProjectComplete() model.Project           { return defaultGenerator.ProjectComplete() }
func FakeUser() model.User                         { return defaultGenerator.User() }
func FakeUserComplete() model.User                 { return defaultGenerator.UserComplete() }

// Organization returns an organization without id or timestamps.
func (g *Generator) Organization() model.Organization {
	return model.Organization{
		Name: g.f.Name(),
		Slug: g.slug("org"),
	}
}

func (g *Generator) OrganizationComplete() model.Organization {
	org := g.Organization()
	now := g.now()
	org.ID = uuid.NewString()
	org.CreatedAt = now
	org.UpdatedAt = now
	return org
}

// Project returns a project without id, organization or timestamps.
func (g *Generator) Project() model.Project {
	return model.Project{
		Name: g.f.Name(),
		Slug: g.slug("project"),
	}
}

func (g *Generator) ProjectComplete() model.Project {
	project := g.Project()
	now := g.now()
	project.ID = uuid.NewString()
	project.OrganizationID = uuid.NewString()
	project.CreatedAt = &now
	project.UpdatedAt = &now
	return project
}

// User returns a user with an external identity and email only.
func (g *Generator) User() model.User {
	workosID := "user_" + strings.ReplaceAll(g.words(slugWords), " ", "_")
	return model.User{
		Email:    g.f.Email(),
		WorkOSID: &workosID,
	}
}

func (g *Generator) UserComplete() model.User {
	user := g.User()
	now := g.now()
	user.ID = uuid.NewString()
	user.CreatedAt = &now
	user.UpdatedAt = &now
	return user
}

func (g *Generator) words(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = g.f.Word()
	}
	return strings.Join(words, " ")
}

func (g *Generator) slug(fallback string) string {
	slug, err := common.Slugify(g.words(slugWords), fallback)
	if err != nil {
		return fallback
	}
	return slug
}
