package auth_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/travelcrm/travel-crm/internal"
	"github.com/travelcrm/travel-crm/internal/auth"
	"github.com/travelcrm/travel-crm/internal/core/events"
	"github.com/travelcrm/travel-crm/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// stubResolver returns a fixed principal or error.
type stubResolver struct {
	user *auth.User
	err  error
}

func (s stubResolver) ResolveWithClaims(r *http.Request) (*auth.User, *auth.Claims, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	claims := &auth.Claims{Kind: auth.TokenKindAccess}
	claims.Subject = s.user.Email
	return s.user, claims, nil
}

func decodeError(rec *httptest.ResponseRecorder) internal.AppError {
	var body struct {
		Error internal.AppError `json:"error"`
	}
	Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
	return body.Error
}

var _ = Describe("Guard", func() {
	var (
		publisher *recordingPublisher
		called    bool
		seen      *auth.User
		handler   auth.GuardedHandler
	)

	BeforeEach(func() {
		publisher = &recordingPublisher{}
		called = false
		seen = nil
		handler = func(w http.ResponseWriter, r *http.Request, principal *auth.User) {
			called = true
			seen = principal
			w.WriteHeader(http.StatusOK)
		}
	})

	guardFor := func(res auth.PrincipalResolver) *auth.Guard {
		return auth.NewGuard(res, logger.Discard(), auth.WithGuardPublisher(publisher))
	}

	serve := func(h http.HandlerFunc) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", nil))
		return rec
	}

	operator := &auth.User{ID: 7, Email: "op@example.com", Role: auth.RoleOperator}
	supervisor := &auth.User{ID: 8, Email: "sup@example.com", Role: auth.RoleSupervisor}

	It("passes the resolved principal to the handler", func() {
		rec := serve(guardFor(stubResolver{user: supervisor}).Permission(auth.PermCreateUser, handler))

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(called).To(BeTrue())
		Expect(seen).To(Equal(supervisor))
	})

	It("reports 401 before checking permissions", func() {
		res := stubResolver{err: &auth.UnauthenticatedError{Reason: "missing_credentials"}}
		rec := serve(guardFor(res).Permission(auth.PermCreateUser, handler))

		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		Expect(rec.Header().Get("WWW-Authenticate")).To(Equal("Bearer"))
		Expect(decodeError(rec).Message).To(Equal("Could not validate credentials"))
		Expect(called).To(BeFalse())
		Expect(publisher.Types()).To(BeEmpty())
	})

	It("turns unexpected resolver errors into 401", func() {
		rec := serve(guardFor(stubResolver{err: errors.New("boom")}).Authenticated(handler))
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
	})

	It("denies a missing permission with 403 naming it", func() {
		rec := serve(guardFor(stubResolver{user: operator}).Permission(auth.PermCreateUser, handler))

		Expect(rec.Code).To(Equal(http.StatusForbidden))
		appErr := decodeError(rec)
		Expect(appErr.Code).To(Equal(internal.ErrCodePermissionDenied))
		Expect(appErr.Message).To(Equal("Permission denied. Required: create_user"))
		Expect(called).To(BeFalse())
		Expect(publisher.Types()).To(ConsistOf(events.EventTypeAccessDenied))
	})

	It("checks role membership", func() {
		g := guardFor(stubResolver{user: supervisor})

		rec := serve(g.Role([]auth.Role{auth.RoleAdmin}, handler))
		Expect(rec.Code).To(Equal(http.StatusForbidden))
		Expect(decodeError(rec).Message).To(Equal("Access denied. Required roles: admin"))

		rec = serve(g.Role([]auth.Role{auth.RoleAdmin, auth.RoleSupervisor}, handler))
		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("checks minimum role", func() {
		rec := serve(guardFor(stubResolver{user: operator}).Require(auth.RequireMinimumRole(auth.RoleSupervisor), handler))
		Expect(rec.Code).To(Equal(http.StatusForbidden))
		Expect(decodeError(rec).Message).To(Equal("Access denied. Required role: supervisor or higher"))

		rec = serve(guardFor(stubResolver{user: supervisor}).Require(auth.RequireMinimumRole(auth.RoleSupervisor), handler))
		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("exposes the actor and claims on the request context", func() {
		g := guardFor(stubResolver{user: supervisor})
		var actor internal.Actor
		var claims *auth.Claims
		rec := serve(g.Authenticated(func(w http.ResponseWriter, r *http.Request, _ *auth.User) {
			actor, _ = internal.ActorFromContext(r.Context())
			claims, _ = auth.ClaimsFromContext(r.Context())
		}))

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(actor.Email).To(Equal(supervisor.Email))
		Expect(claims.Subject).To(Equal(supervisor.Email))
	})

	It("lets callers replace the unauthenticated response", func() {
		g := guardFor(stubResolver{err: &auth.UnauthenticatedError{Reason: "missing_credentials"}}).
			With(auth.WithUnauthenticatedHandler(func(w http.ResponseWriter, r *http.Request, _ error) {
				http.Redirect(w, r, "/login", http.StatusFound)
			}))

		rec := serve(g.Authenticated(handler))
		Expect(rec.Code).To(Equal(http.StatusFound))
		Expect(rec.Header().Get("Location")).To(Equal("/login"))
	})

	It("authorizes outside routing", func() {
		g := guardFor(stubResolver{user: operator})
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		err := g.Authorize(req, operator, auth.RequirePermission(auth.PermViewLogs))
		Expect(err).To(MatchError(auth.ErrPermissionDenied))
		Expect(g.Authorize(req, operator, auth.RequirePermission(auth.PermCreateClient))).To(Succeed())
	})
})
