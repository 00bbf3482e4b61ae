package rpc_test

import (
	"context"
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"vdt.ai/dashboard/internal/rpc"
	"vdt.ai/dashboard/internal/store/memstore"
)

type echoInput struct {
	Value string `json:"value" validate:"required"`
}

func pingRouter() rpc.Router {
	return rpc.Router{
		"ping": rpc.Query(func(_ context.Context, _ *rpc.Context) (string, error) {
			return "pong", nil
		}),
		"echo": rpc.MutationInput(func(_ context.Context, _ *rpc.Context, in echoInput) (string, error) {
			return in.Value, nil
		}),
	}
}

var _ = Describe("Merge", func() {
	It("addresses procedures by namespace and name", func() {
		app, err := rpc.Merge(rpc.NS("a", pingRouter()), rpc.NS("b", pingRouter()))
		Expect(err).NotTo(HaveOccurred())
		Expect(app.Paths()).To(Equal([]string{"a.echo", "a.ping", "b.echo", "b.ping"}))

		proc, ok := app.Lookup("b.echo")
		Expect(ok).To(BeTrue())
		Expect(proc.Kind()).To(Equal(rpc.KindMutation))
		Expect(proc.InputType()).NotTo(BeNil())
	})

	It("fails on duplicate namespaces", func() {
		_, err := rpc.Merge(rpc.NS("a", pingRouter()), rpc.NS("a", pingRouter()))
		Expect(err).To(MatchError(rpc.ErrDuplicateNamespace))
	})

	It("rejects names that would make paths ambiguous", func() {
		_, err := rpc.Merge(rpc.NS("a.b", pingRouter()))
		Expect(err).To(MatchError(rpc.ErrInvalidName))

		_, err = rpc.Merge(rpc.NS("a", rpc.Router{"": rpc.Query(func(context.Context, *rpc.Context) (int, error) { return 0, nil })}))
		Expect(err).To(MatchError(rpc.ErrInvalidName))
	})
})

var _ = Describe("App.Call", func() {
	var (
		ctx context.Context
		app *rpc.App
		rc  *rpc.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		app, err = rpc.Merge(rpc.NS("sys", pingRouter()))
		Expect(err).NotTo(HaveOccurred())
		rc = &rpc.Context{DB: memstore.New()}
	})

	It("returns NOT_FOUND for unknown paths", func() {
		_, err := app.Call(ctx, rc, "sys.missing", nil)
		rpcErr, ok := rpc.AsError(err)
		Expect(ok).To(BeTrue())
		Expect(rpcErr.Code).To(Equal(rpc.CodeNotFound))
	})

	It("runs interceptors outermost first", func() {
		var order []string
		trace := func(name string) rpc.Interceptor {
			return func(next rpc.Invoker) rpc.Invoker {
				return func(ctx context.Context, rc *rpc.Context, call rpc.Call, input json.RawMessage) (any, error) {
					order = append(order, name+":"+call.Path)
					return next(ctx, rc, call, input)
				}
			}
		}
		app.Use(trace("outer"), trace("inner"))

		out, err := app.Call(ctx, rc, "sys.ping", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("pong"))
		Expect(order).To(Equal([]string{"outer:sys.ping", "inner:sys.ping"}))
	})

	It("dispatches typed calls through a Caller", func() {
		caller := app.NewCaller(rc)

		out, err := rpc.CallAs[string](ctx, caller, "sys.echo", echoInput{Value: "hi"})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("hi"))

		_, err = rpc.CallAs[int](ctx, caller, "sys.ping", nil)
		Expect(err).To(HaveOccurred())
	})

	It("publishes input schemas in the catalog", func() {
		catalog := app.Catalog()
		Expect(catalog).To(HaveLen(2))
		Expect(catalog[0].Path).To(Equal("sys.echo"))
		Expect(catalog[0].Kind).To(Equal("mutation"))
		Expect(catalog[0].Input).NotTo(BeNil())
		Expect(catalog[0].Input.Required).To(ContainElement("value"))
		Expect(catalog[1].Input).To(BeNil())
	})
})
