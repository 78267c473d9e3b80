package user_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	"github.com/go-chi/chi"
	"github.com/travelcrm/travel-crm/internal/auth"
	"github.com/travelcrm/travel-crm/internal/user"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

var _ = Describe("User Handler", func() {
	var (
		mockRepo *MockRepository
		handler  *user.Handler
		admin    *auth.User
		operator *auth.User
	)

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		mockRepo = NewMockRepository()
		service := user.NewService(mockRepo, fastHasher(), nil, slogger)
		handler = user.NewHandler(service, slogger)

		admin = mockRepo.Add(&auth.User{Email: "admin@travelcrm.com", Role: auth.RoleAdmin})
		operator = mockRepo.Add(&auth.User{Email: "op@travelcrm.com", Role: auth.RoleOperator})
	})

	It("returns 201 with the created user and no password digest", func() {
		body := `{"email":"new@travelcrm.com","password":"secret123","role":"accountant"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
		w := httptest.NewRecorder()

		handler.Register(w, req, admin)

		Expect(w.Code).To(Equal(http.StatusCreated))
		Expect(w.Body.String()).NotTo(ContainSubstring("password"))

		var resp user.Response
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Email).To(Equal("new@travelcrm.com"))
		Expect(resp.Role).To(Equal(auth.RoleAccountant))
	})

	It("returns 409 for a duplicate email", func() {
		body := `{"email":"op@travelcrm.com","password":"secret123"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
		w := httptest.NewRecorder()

		handler.Register(w, req, admin)

		Expect(w.Code).To(Equal(http.StatusConflict))
	})

	It("returns 403 when the role cannot be assigned", func() {
		body := `{"email":"x@travelcrm.com","password":"secret123","role":"admin"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
		w := httptest.NewRecorder()

		handler.Register(w, req, operator)

		Expect(w.Code).To(Equal(http.StatusForbidden))
		Expect(w.Body.String()).To(ContainSubstring("You cannot assign the role: admin"))
	})

	It("returns 400 for malformed JSON", func() {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader("{"))
		w := httptest.NewRecorder()

		handler.Register(w, req, admin)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("deletes a user by path id", func() {
		req := withURLParam(httptest.NewRequest(http.MethodDelete, "/api/v1/users/2", nil), "id", "2")
		w := httptest.NewRecorder()

		handler.DeleteUser(w, req, admin)

		Expect(w.Code).To(Equal(http.StatusNoContent))
	})

	It("rejects a non-numeric id", func() {
		req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/users/abc", nil), "id", "abc")
		w := httptest.NewRecorder()

		handler.GetUser(w, req, admin)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("lists users", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users?limit=10", nil)
		w := httptest.NewRecorder()

		handler.ListUsers(w, req, admin)

		Expect(w.Code).To(Equal(http.StatusOK))
		var resp user.UsersResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Users).To(HaveLen(2))
		Expect(resp.Limit).To(Equal(10))
	})
})
