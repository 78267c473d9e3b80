package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"time"

	"github.com/travelcrm/travel-crm/internal/auth"
	"github.com/travelcrm/travel-crm/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Handler", func() {
	var (
		codec    *auth.TokenCodec
		users    *fakeUsers
		store    *fakeTokenStore
		handler  *auth.Handler
		guard    *auth.Guard
		operator *auth.User
	)

	BeforeEach(func() {
		var err error
		codec, err = auth.NewTokenCodec(testSecret)
		Expect(err).NotTo(HaveOccurred())

		users = newFakeUsers()
		store = newFakeTokenStore()
		hasher := fastHasher()
		digest, _ := hasher.Hash("secret1")
		operator = users.Add(&auth.User{Email: "op@example.com", PasswordHash: digest, Role: auth.RoleOperator})

		service := auth.NewService(users, hasher, codec, store, logger.Discard())
		handler = auth.NewHandler(service, logger.Discard())
		guard = auth.NewGuard(auth.NewResolver(codec, users, logger.Discard(), auth.WithBlacklist(store)), logger.Discard())
	})

	postLogin := func(username, password string) *httptest.ResponseRecorder {
		form := url.Values{"username": {username}, "password": {password}}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		handler.Login(rec, req)
		return rec
	}

	loginPair := func() map[string]string {
		rec := postLogin("op@example.com", "secret1")
		Expect(rec.Code).To(Equal(http.StatusOK))
		var pair map[string]string
		Expect(json.Unmarshal(rec.Body.Bytes(), &pair)).To(Succeed())
		return pair
	}

	It("logs in with form credentials", func() {
		pair := loginPair()
		Expect(pair).To(HaveKeyWithValue("token_type", "bearer"))
		Expect(pair["access_token"]).NotTo(BeEmpty())
		Expect(pair["refresh_token"]).NotTo(BeEmpty())
		Expect(pair).To(HaveLen(3))
	})

	It("answers bad credentials with a generic 401", func() {
		wrong := postLogin("op@example.com", "nope")
		unknown := postLogin("ghost@example.com", "secret1")

		Expect(wrong.Code).To(Equal(http.StatusUnauthorized))
		Expect(unknown.Code).To(Equal(http.StatusUnauthorized))
		Expect(wrong.Body.String()).To(Equal(unknown.Body.String()))
		Expect(decodeError(wrong).Message).To(Equal("Incorrect email or password"))
	})

	It("refreshes from a JSON body", func() {
		pair := loginPair()
		body, _ := json.Marshal(map[string]string{"refresh_token": pair["refresh_token"]})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", strings.NewReader(string(body)))
		rec := httptest.NewRecorder()
		handler.RefreshToken(rec, req)

		Expect(rec.Code).To(Equal(http.StatusOK))
		var next map[string]string
		Expect(json.Unmarshal(rec.Body.Bytes(), &next)).To(Succeed())
		Expect(next["refresh_token"]).NotTo(Equal(pair["refresh_token"]))
	})

	It("refreshes from the cookie", func() {
		pair := loginPair()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
		req.AddCookie(&http.Cookie{Name: auth.RefreshTokenCookie, Value: pair["refresh_token"]})
		rec := httptest.NewRecorder()
		handler.RefreshToken(rec, req)

		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("rejects a garbage refresh token with 401", func() {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", strings.NewReader(`{"refresh_token":"garbage"}`))
		rec := httptest.NewRecorder()
		handler.RefreshToken(rec, req)

		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
	})

	It("returns the current principal", func() {
		pair := loginPair()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+pair["access_token"])
		rec := httptest.NewRecorder()
		guard.Authenticated(handler.Me)(rec, req)

		Expect(rec.Code).To(Equal(http.StatusOK))
		var me map[string]interface{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &me)).To(Succeed())
		Expect(me).To(HaveKeyWithValue("email", "op@example.com"))
		Expect(me).To(HaveKeyWithValue("role", "operator"))
		Expect(me).To(HaveKeyWithValue("id", BeNumerically("==", operator.ID)))
	})

	It("revokes the access token on logout", func() {
		pair := loginPair()
		do := func(h http.HandlerFunc) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
			req.Header.Set("Authorization", "Bearer "+pair["access_token"])
			rec := httptest.NewRecorder()
			h(rec, req)
			return rec
		}

		Expect(do(guard.Authenticated(handler.Logout)).Code).To(Equal(http.StatusNoContent))
		Expect(do(guard.Authenticated(handler.Me)).Code).To(Equal(http.StatusUnauthorized))
	})

	It("lists the roles the principal may assign", func() {
		rec := httptest.NewRecorder()
		handler.AllowedRoles(rec, httptest.NewRequest(http.MethodGet, "/", nil), &auth.User{Role: auth.RoleSupervisor})

		var resp auth.AllowedRolesResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.Roles).To(ConsistOf(auth.RoleAccountant, auth.RoleOperator))

		rec = httptest.NewRecorder()
		handler.AllowedRoles(rec, httptest.NewRequest(http.MethodGet, "/", nil), &auth.User{Role: auth.RoleOperator})
		Expect(rec.Body.String()).To(MatchJSON(`{"roles":[]}`))
	})

	It("keeps expiry timestamps out of the token response", func() {
		pair, err := codec.IssuePair("op@example.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(pair.AccessExpiresAt).To(BeTemporally(">", time.Now()))
		b, _ := json.Marshal(pair)
		Expect(string(b)).NotTo(ContainSubstring("expires"))
	})
})
