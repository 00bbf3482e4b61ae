package seed_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"vdt.ai/dashboard/common/id"
	"vdt.ai/dashboard/internal/seed"
	"vdt.ai/dashboard/internal/store"
	"vdt.ai/dashboard/internal/store/memstore"
)

type countingTxRunner struct {
	db    *memstore.Store
	calls int
}

func (c *countingTxRunner) WithTx(ctx context.Context, fn func(stores store.Provider) error) error {
	c.calls++
	return c.db.WithTx(ctx, fn)
}

type failingTxRunner struct {
	err error
}

func (f failingTxRunner) WithTx(context.Context, func(stores store.Provider) error) error {
	return f.err
}

var _ = Describe("InitDemo", func() {
	var (
		ctx context.Context
		db  *memstore.Store
		tx  *countingTxRunner
	)

	BeforeEach(func() {
		ctx = context.Background()
		db = memstore.New()
		tx = &countingTxRunner{db: db}
		Expect(id.Init(1)).To(Succeed())
	})

	It("creates one organization with two projects in one transaction", func() {
		demo, err := seed.InitDemo(ctx, tx, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(tx.calls).To(Equal(1))

		Expect(demo.Organization.ID).NotTo(BeEmpty())
		Expect(demo.Projects).To(HaveLen(seed.DefaultDemoProjects))
		for _, p := range demo.Projects {
			Expect(p.ID).NotTo(BeEmpty())
			Expect(p.OrganizationID).To(Equal(demo.Organization.ID))
		}

		org, err := db.Organizations().GetBySlug(ctx, demo.Organization.Slug)
		Expect(err).NotTo(HaveOccurred())
		Expect(org.ID).To(Equal(demo.Organization.ID))

		projects, err := db.Projects().List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(projects).To(ConsistOf(demo.Projects))
	})

	It("honours the requested project count", func() {
		demo, err := seed.NewGenerator(7).InitDemo(ctx, tx, 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(demo.Projects).To(HaveLen(5))
	})

	It("keeps organization slugs unique across runs", func() {
		gen := seed.NewGenerator(1)
		first, err := gen.InitDemo(ctx, tx, 1)
		Expect(err).NotTo(HaveOccurred())

		again := seed.NewGenerator(1)
		second, err := again.InitDemo(ctx, tx, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(second.Organization.Slug).To(Equal(first.Organization.Slug + "-1"))
	})

	It("returns transaction failures", func() {
		_, err := seed.InitDemo(ctx, failingTxRunner{err: errors.New("tx aborted")}, 2)
		Expect(err).To(MatchError(ContainSubstring("tx aborted")))
	})
})
