package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"vdt.ai/dashboard/internal/http/handler"
	"vdt.ai/dashboard/internal/model"
	"vdt.ai/dashboard/internal/service"
)

var _ = Describe("AuthHandler", func() {
	var (
		router *gin.Engine
		svc    *mockAuthService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockAuthService{}
		h := handler.NewAuthHandler(svc, "http://localhost:3000", false)
		router.GET("/auth/url", h.GetAuthURL)
		router.POST("/auth/exchange", h.Exchange)
		router.GET("/auth/login", h.Login)
		router.GET("/auth/callback", h.Callback)
		router.POST("/auth/logout", h.Logout)
	})

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	Describe("GetAuthURL", func() {
		It("returns a URL and state", func() {
			var hinted bool
			svc.authURLFn = func(state string, opts ...service.AuthURLOption) (string, error) {
				hinted = len(opts) == 1
				return "https://auth.example.com/?state=" + state, nil
			}

			w := serve(httptest.NewRequest(http.MethodGet, "/auth/url?login_hint=ada@example.com", nil))
			Expect(w.Code).To(Equal(http.StatusOK))

			var resp handler.GetAuthURLResponse
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.State).NotTo(BeEmpty())
			Expect(resp.AuthorizationURL).To(HaveSuffix(resp.State))
			Expect(hinted).To(BeTrue())
		})

		It("returns 500 when the URL cannot be built", func() {
			svc.authURLFn = func(string, ...service.AuthURLOption) (string, error) {
				return "", errors.New("boom")
			}
			w := serve(httptest.NewRequest(http.MethodGet, "/auth/url", nil))
			Expect(w.Code).To(Equal(http.StatusInternalServerError))
		})
	})

	Describe("Exchange", func() {
		post := func(body string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodPost, "/auth/exchange", bytes.NewBufferString(body))
			req.Header.Set("Content-Type", "application/json")
			return serve(req)
		}

		It("returns the user and session", func() {
			svc.callbackFn = func(_ context.Context, code string) (*service.CallbackResult, error) {
				Expect(code).To(Equal("abc"))
				return &service.CallbackResult{
					User:    &model.User{ID: "u1", Email: "ada@example.com"},
					Session: &model.Session{ID: "s1", UserID: "u1"},
				}, nil
			}

			w := post(`{"code":"abc"}`)
			Expect(w.Code).To(Equal(http.StatusOK))

			var resp handler.ExchangeResponse
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.SessionID).To(Equal("s1"))
			Expect(resp.User.Email).To(Equal("ada@example.com"))
			Expect(resp.ExpiresIn).To(Equal(7 * 24 * 60 * 60))
		})

		It("rejects a missing code", func() {
			Expect(post(`{}`).Code).To(Equal(http.StatusBadRequest))
		})

		It("maps an invalid code to 400", func() {
			Expect(post(`{"code":"bad"}`).Code).To(Equal(http.StatusBadRequest))
		})

		It("maps other failures to 500", func() {
			svc.callbackFn = func(context.Context, string) (*service.CallbackResult, error) {
				return nil, errors.New("db down")
			}
			Expect(post(`{"code":"abc"}`).Code).To(Equal(http.StatusInternalServerError))
		})
	})

	Describe("Login and Callback", func() {
		It("sets a state cookie and redirects", func() {
			w := serve(httptest.NewRequest(http.MethodGet, "/auth/login", nil))
			Expect(w.Code).To(Equal(http.StatusTemporaryRedirect))
			Expect(w.Header().Get("Location")).To(HavePrefix("https://auth.example.com/authorize"))
			Expect(w.Header().Get("Set-Cookie")).To(ContainSubstring("dashboard_oauth_state="))
		})

		It("rejects a state mismatch", func() {
			req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc&state=other", nil)
			req.AddCookie(&http.Cookie{Name: "dashboard_oauth_state", Value: "expected"})

			w := serve(req)
			Expect(w.Code).To(Equal(http.StatusTemporaryRedirect))
			Expect(w.Header().Get("Location")).To(Equal("http://localhost:3000?auth_error=invalid_state"))
		})

		It("sets the session cookie on success", func() {
			svc.callbackFn = func(context.Context, string) (*service.CallbackResult, error) {
				return &service.CallbackResult{
					User:    &model.User{ID: "u1"},
					Session: &model.Session{ID: "s1"},
				}, nil
			}
			req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc&state=st", nil)
			req.AddCookie(&http.Cookie{Name: "dashboard_oauth_state", Value: "st"})

			w := serve(req)
			Expect(w.Header().Get("Location")).To(Equal("http://localhost:3000"))
			Expect(w.Header().Values("Set-Cookie")).To(ContainElement(ContainSubstring(service.SessionCookie + "=s1")))
		})

		It("forwards provider errors", func() {
			w := serve(httptest.NewRequest(http.MethodGet, "/auth/callback?error=access_denied", nil))
			Expect(w.Header().Get("Location")).To(Equal("http://localhost:3000?auth_error=access_denied"))
		})
	})

	Describe("Logout", func() {
		It("deletes the session named in the header", func() {
			req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
			req.Header.Set(service.SessionHeader, "s1")

			w := serve(req)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(svc.loggedOut).To(Equal([]string{"s1"}))
		})

		It("prefers the body over the cookie", func() {
			req := httptest.NewRequest(http.MethodPost, "/auth/logout", bytes.NewBufferString(`{"session_id":"s2"}`))
			req.Header.Set("Content-Type", "application/json")
			req.AddCookie(&http.Cookie{Name: service.SessionCookie, Value: "s3"})

			serve(req)
			Expect(svc.loggedOut).To(Equal([]string{"s2"}))
		})

		It("succeeds without a session", func() {
			w := serve(httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(svc.loggedOut).To(BeEmpty())
		})
	})
})
