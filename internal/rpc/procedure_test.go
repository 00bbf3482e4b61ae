package rpc_test

import (
	"context"
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"vdt.ai/dashboard/internal/rpc"
	"vdt.ai/dashboard/internal/store/memstore"
)

type greetInput struct {
	Name  string  `json:"name" validate:"required"`
	Email string  `json:"email" validate:"required,email"`
	Note  *string `json:"note,omitempty" validate:"omitempty,max=5"`
}

var _ = Describe("Validated", func() {
	var (
		ctx    context.Context
		rc     *rpc.Context
		calls  int
		handle rpc.HandlerFunc
	)

	BeforeEach(func() {
		ctx = context.Background()
		rc = &rpc.Context{DB: memstore.New()}
		calls = 0
		handle = rpc.Validated(func(_ context.Context, _ *rpc.Context, in greetInput) (string, error) {
			calls++
			return "hello " + in.Name, nil
		})
	})

	It("runs the handler with decoded input", func() {
		out, err := handle(ctx, rc, json.RawMessage(`{"name":"Ada","email":"ada@example.com"}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("hello Ada"))
		Expect(calls).To(Equal(1))
	})

	It("reports every missing required field by wire name", func() {
		_, err := handle(ctx, rc, json.RawMessage(`{}`))
		Expect(rpc.IsValidation(err)).To(BeTrue())

		rpcErr, ok := rpc.AsError(err)
		Expect(ok).To(BeTrue())
		Expect(rpcErr.Issues).To(ConsistOf(
			rpc.Issue{Path: "name", Message: "is required"},
			rpc.Issue{Path: "email", Message: "is required"},
		))
		Expect(calls).To(BeZero())
	})

	It("treats absent input as an empty object", func() {
		_, err := handle(ctx, rc, nil)
		Expect(rpc.IsValidation(err)).To(BeTrue())
		Expect(calls).To(BeZero())
	})

	It("rejects wrongly typed fields before the handler runs", func() {
		_, err := handle(ctx, rc, json.RawMessage(`{"name":42,"email":"ada@example.com"}`))
		rpcErr, ok := rpc.AsError(err)
		Expect(ok).To(BeTrue())
		Expect(rpcErr.Code).To(Equal(rpc.CodeBadRequest))
		Expect(rpcErr.Issues).To(HaveLen(1))
		Expect(rpcErr.Issues[0].Path).To(Equal("name"))
		Expect(calls).To(BeZero())
	})

	It("does not match keys that differ only in case", func() {
		_, err := handle(ctx, rc, json.RawMessage(`{"NAME":"Ada","Email":"ada@example.com"}`))
		rpcErr, ok := rpc.AsError(err)
		Expect(ok).To(BeTrue())
		Expect(rpcErr.Issues).To(ConsistOf(
			rpc.Issue{Path: "name", Message: "is required"},
			rpc.Issue{Path: "email", Message: "is required"},
		))
		Expect(calls).To(BeZero())
	})

	It("ignores unknown keys next to exact ones", func() {
		out, err := handle(ctx, rc, json.RawMessage(`{"name":"Ada","email":"ada@example.com","NAME":"Eve","extra":true}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("hello Ada"))
	})

	It("rejects malformed JSON", func() {
		_, err := handle(ctx, rc, json.RawMessage(`{"name":`))
		Expect(rpc.IsValidation(err)).To(BeTrue())
		Expect(calls).To(BeZero())
	})

	It("checks optional fields only when present", func() {
		_, err := handle(ctx, rc, json.RawMessage(`{"name":"Ada","email":"ada@example.com","note":"too long"}`))
		rpcErr, ok := rpc.AsError(err)
		Expect(ok).To(BeTrue())
		Expect(rpcErr.Issues).To(ConsistOf(rpc.Issue{Path: "note", Message: "must be at most 5 characters"}))
	})

	It("returns handler errors unchanged", func() {
		boom := errors.New("storage down")
		failing := rpc.Validated(func(_ context.Context, _ *rpc.Context, _ greetInput) (string, error) {
			return "", boom
		})

		_, err := failing(ctx, rc, json.RawMessage(`{"name":"Ada","email":"ada@example.com"}`))
		Expect(err).To(BeIdenticalTo(boom))
		Expect(rpc.IsValidation(err)).To(BeFalse())
	})
})

var _ = Describe("NewContextFactory", func() {
	It("refuses a nil storage handle", func() {
		_, err := rpc.NewContextFactory(nil)
		Expect(err).To(MatchError(rpc.ErrNilStore))
	})

	It("hands the same storage handle to every context", func() {
		db := memstore.New()
		factory, err := rpc.NewContextFactory(db)
		Expect(err).NotTo(HaveOccurred())

		first := factory(nil)
		second := factory(nil)
		Expect(first.DB).To(BeIdenticalTo(db))
		Expect(second.DB).To(BeIdenticalTo(db))
		Expect(first).NotTo(BeIdenticalTo(second))
	})
})
