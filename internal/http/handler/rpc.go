package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"vdt.ai/dashboard/internal/rpc"
)

const maxInputBytes = 1 << 20

type ResultEnvelope struct {
	Result ResultData `json:"result"`
}

type ResultData struct {
	Data any `json:"data"`
}

type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code    rpc.Code    `json:"code"`
	Message string      `json:"message"`
	Path    string      `json:"path,omitempty"`
	Issues  []rpc.Issue `json:"issues,omitempty"`
}

type CatalogResponse struct {
	Procedures []rpc.ProcedureInfo `json:"procedures"`
}

// RPCHandler exposes an rpc.App over HTTP: queries on GET, mutations on POST.
type RPCHandler struct {
	app          *rpc.App
	newContext   rpc.ContextFactory
	exposeErrors bool
}

// NewRPCHandler builds the handler. exposeErrors controls whether storage
// error text reaches the client.
func NewRPCHandler(app *rpc.App, newContext rpc.ContextFactory, exposeErrors bool) *RPCHandler {
	return &RPCHandler{
		app:          app,
		newContext:   newContext,
		exposeErrors: exposeErrors,
	}
}

// Query handles GET /trpc/:path with input in the "input" query parameter.
func (h *RPCHandler) Query(c *gin.Context) {
	var raw json.RawMessage
	if input := c.Query("input"); input != "" {
		raw = json.RawMessage(input)
	}
	h.serve(c, rpc.KindQuery, raw)
}

// Mutation handles POST /trpc/:path with input as the JSON body.
func (h *RPCHandler) Mutation(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxInputBytes))
	if err != nil {
		h.writeError(c, c.Param("path"), rpc.NewError(rpc.CodeBadRequest, "could not read request body"))
		return
	}
	h.serve(c, rpc.KindMutation, body)
}

func (h *RPCHandler) Catalog(c *gin.Context) {
	c.JSON(http.StatusOK, CatalogResponse{Procedures: h.app.Catalog()})
}

func (h *RPCHandler) serve(c *gin.Context, kind rpc.Kind, raw json.RawMessage) {
	path := c.Param("path")

	proc, ok := h.app.Lookup(path)
	if !ok {
		h.writeError(c, path, rpc.NewError(rpc.CodeNotFound, fmt.Sprintf("no procedure on path %q", path)))
		return
	}
	if proc.Kind() != kind {
		h.writeError(c, path, rpc.NewError(rpc.CodeMethodNotSupported,
			fmt.Sprintf("%s is a %s and does not accept %s", path, proc.Kind(), c.Request.Method)))
		return
	}

	ctx := c.Request.Context()
	out, err := h.app.Call(ctx, h.newContext(c.Request), path, raw)
	if err != nil {
		h.writeError(c, path, err)
		return
	}

	c.JSON(http.StatusOK, ResultEnvelope{Result: ResultData{Data: out}})
}

func (h *RPCHandler) writeError(c *gin.Context, path string, err error) {
	var rpcErr *rpc.Error
	if !errors.As(err, &rpcErr) {
		_ = c.Error(err)
		message := "internal server error"
		if h.exposeErrors {
			message = err.Error()
		}
		rpcErr = &rpc.Error{Code: rpc.CodeInternal, Message: message}
	}

	c.JSON(rpcErr.Code.HTTPStatus(), ErrorEnvelope{Error: ErrorBody{
		Code:    rpcErr.Code,
		Message: rpcErr.Message,
		Path:    path,
		Issues:  rpcErr.Issues,
	}})
}
