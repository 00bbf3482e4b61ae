package service_test

import (
	"context"
	"errors"
	"net/url"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/workos/workos-go/v6/pkg/usermanagement"

	"vdt.ai/dashboard/common/id"
	"vdt.ai/dashboard/core/config"
	"vdt.ai/dashboard/internal/model"
	"vdt.ai/dashboard/internal/service"
	"vdt.ai/dashboard/internal/store"
)

var _ = Describe("AuthService", func() {
	var (
		svc      service.AuthService
		client   *mockWorkOSClient
		users    *mockUserStore
		sessions *mockSessionStore
		ctx      context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		client = &mockWorkOSClient{}
		users = &mockUserStore{}
		sessions = &mockSessionStore{}
		svc = service.NewAuthService(client, users, sessions, config.WorkOSConfig{
			APIKey:      "sk_test",
			ClientID:    "client_123",
			RedirectURI: "http://localhost:8080/auth/callback",
		})
		Expect(id.Init(1)).To(Succeed())
	})

	Describe("GetAuthorizationURL", func() {
		It("passes client, redirect, state and login hint", func() {
			client.authURLFn = func(opts usermanagement.GetAuthorizationURLOpts) (*url.URL, error) {
				Expect(opts.ClientID).To(Equal("client_123"))
				Expect(opts.RedirectURI).To(Equal("http://localhost:8080/auth/callback"))
				Expect(opts.State).To(Equal("state-1"))
				Expect(opts.LoginHint).To(Equal("ada@example.com"))
				return url.Parse("https://auth.example.com/authorize?state=state-1")
			}

			u, err := svc.GetAuthorizationURL("state-1", service.WithLoginHint("ada@example.com"))
			Expect(err).NotTo(HaveOccurred())
			Expect(u).To(Equal("https://auth.example.com/authorize?state=state-1"))
		})

		It("wraps client errors", func() {
			client.authURLFn = func(usermanagement.GetAuthorizationURLOpts) (*url.URL, error) {
				return nil, errors.New("bad redirect")
			}

			_, err := svc.GetAuthorizationURL("state-1")
			Expect(err).To(MatchError(ContainSubstring("generating authorization URL")))
		})
	})

	Describe("HandleCallback", func() {
		It("upserts the user and opens a session", func() {
			client.authenticateFn = func(_ context.Context, opts usermanagement.AuthenticateWithCodeOpts) (usermanagement.AuthenticateResponse, error) {
				Expect(opts.Code).To(Equal("code-1"))
				return usermanagement.AuthenticateResponse{
					User: usermanagement.User{ID: "user_01", Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace"},
				}, nil
			}
			users.upsertFn = func(_ context.Context, user *model.User) error {
				Expect(*user.WorkOSID).To(Equal("user_01"))
				Expect(*user.Name).To(Equal("Ada Lovelace"))
				return nil
			}

			result, err := svc.HandleCallback(ctx, "code-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.User.Email).To(Equal("ada@example.com"))
			Expect(result.Session.UserID).To(Equal(result.User.ID))
			Expect(result.Session.ID).NotTo(BeEmpty())
			Expect(sessions.createdCalls).To(Equal(1))
		})

		It("leaves the name empty when WorkOS has none", func() {
			client.authenticateFn = func(context.Context, usermanagement.AuthenticateWithCodeOpts) (usermanagement.AuthenticateResponse, error) {
				return usermanagement.AuthenticateResponse{User: usermanagement.User{ID: "user_02", Email: "x@example.com"}}, nil
			}

			result, err := svc.HandleCallback(ctx, "code-2")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.User.Name).To(BeNil())
		})

		It("returns ErrInvalidCode when the exchange fails", func() {
			client.authenticateFn = func(context.Context, usermanagement.AuthenticateWithCodeOpts) (usermanagement.AuthenticateResponse, error) {
				return usermanagement.AuthenticateResponse{}, errors.New("invalid_grant")
			}

			_, err := svc.HandleCallback(ctx, "bad")
			Expect(err).To(MatchError(service.ErrInvalidCode))
			Expect(sessions.createdCalls).To(BeZero())
		})

		It("does not open a session when the upsert fails", func() {
			users.upsertFn = func(context.Context, *model.User) error {
				return errors.New("unique violation")
			}

			_, err := svc.HandleCallback(ctx, "code-3")
			Expect(err).To(MatchError(ContainSubstring("upserting user")))
			Expect(sessions.createdCalls).To(BeZero())
		})
	})

	Describe("ValidateSession", func() {
		It("returns the session owner", func() {
			sessions.getValidFn = func(_ context.Context, id string) (*model.Session, error) {
				return &model.Session{ID: id, UserID: "u1"}, nil
			}
			users.getByIDFn = func(_ context.Context, id string) (*model.User, error) {
				return &model.User{ID: id, Email: "ada@example.com"}, nil
			}

			user, err := svc.ValidateSession(ctx, "s1")
			Expect(err).NotTo(HaveOccurred())
			Expect(user.ID).To(Equal("u1"))
		})

		It("maps a missing session to ErrSessionExpired", func() {
			_, err := svc.ValidateSession(ctx, "gone")
			Expect(err).To(MatchError(service.ErrSessionExpired))
		})

		It("maps a missing user to ErrUserNotFound", func() {
			sessions.getValidFn = func(_ context.Context, id string) (*model.Session, error) {
				return &model.Session{ID: id, UserID: "u404"}, nil
			}

			_, err := svc.ValidateSession(ctx, "s1")
			Expect(err).To(MatchError(service.ErrUserNotFound))
		})

		It("wraps other store errors", func() {
			sessions.getValidFn = func(context.Context, string) (*model.Session, error) {
				return nil, errors.New("timeout")
			}

			_, err := svc.ValidateSession(ctx, "s1")
			Expect(err).NotTo(MatchError(service.ErrSessionExpired))
			Expect(err).To(MatchError(ContainSubstring("getting session")))
		})
	})

	Describe("Logout", func() {
		It("deletes the session", func() {
			Expect(svc.Logout(ctx, "s1")).To(Succeed())
			Expect(sessions.deletedIDs).To(ConsistOf("s1"))
		})

		It("wraps delete failures", func() {
			sessions.deleteFn = func(context.Context, string) error { return store.ErrNotFound }
			Expect(svc.Logout(ctx, "s1")).To(MatchError(store.ErrNotFound))
		})
	})

	Describe("GetSessionByID", func() {
		It("returns expired sessions too", func() {
			sessions.getByIDFn = func(_ context.Context, id string) (*model.Session, error) {
				return &model.Session{ID: id, UserID: "u1", ExpiresAt: time.Now().Add(-time.Hour)}, nil
			}

			session, err := svc.GetSessionByID(ctx, "s1")
			Expect(err).NotTo(HaveOccurred())
			Expect(session.UserID).To(Equal("u1"))
		})

		It("keeps ErrNotFound in the chain", func() {
			_, err := svc.GetSessionByID(ctx, "missing")
			Expect(err).To(MatchError(store.ErrNotFound))
		})
	})

	Describe("session cleanup", func() {
		It("purges expired sessions through the store", func() {
			Expect(svc.PurgeExpiredSessions(ctx)).To(Succeed())
			Expect(sessions.purgeCalls.Load()).To(BeEquivalentTo(1))
		})

		It("wraps purge failures", func() {
			sessions.deleteExpiredFn = func(context.Context) error { return errors.New("db down") }
			Expect(svc.PurgeExpiredSessions(ctx)).To(MatchError(ContainSubstring("db down")))
		})

		It("runs on every tick until cancelled", func() {
			sessions.deleteExpiredFn = func(context.Context) error { return errors.New("transient") }
			runCtx, cancel := context.WithCancel(ctx)
			done := make(chan struct{})
			go func() {
				defer close(done)
				service.RunSessionCleanup(runCtx, svc, 5*time.Millisecond)
			}()

			Eventually(sessions.purgeCalls.Load).Should(BeNumerically(">=", 3))
			cancel()
			Eventually(done).Should(BeClosed())
		})
	})
})
