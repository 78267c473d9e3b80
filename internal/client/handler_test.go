package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi"
	"github.com/travelcrm/travel-crm/internal/auth"
	"github.com/travelcrm/travel-crm/internal/client"
	"github.com/travelcrm/travel-crm/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type stubService struct {
	client     *client.Client
	err        error
	lastFilter client.ListFilter
	lastID     int64
}

func (s *stubService) Create(ctx context.Context, actor *auth.User, dto client.CreateClientDTO) (*client.Client, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &client.Client{ID: 7, FirstName: dto.FirstName, LastName: dto.LastName, CreatedBy: actor.ID}, nil
}

func (s *stubService) Get(ctx context.Context, actor *auth.User, id int64) (*client.Client, error) {
	s.lastID = id
	return s.client, s.err
}

func (s *stubService) List(ctx context.Context, actor *auth.User, filter client.ListFilter) ([]*client.Client, error) {
	s.lastFilter = filter
	if s.err != nil {
		return nil, s.err
	}
	return []*client.Client{s.client}, nil
}

func (s *stubService) Update(ctx context.Context, actor *auth.User, id int64, dto client.UpdateClientDTO) (*client.Client, error) {
	s.lastID = id
	return s.client, s.err
}

func (s *stubService) Delete(ctx context.Context, actor *auth.User, id int64) error {
	s.lastID = id
	return s.err
}

var _ = Describe("Client Handler", func() {
	var (
		svc       *stubService
		router    *chi.Mux
		principal *auth.User
	)

	BeforeEach(func() {
		svc = &stubService{client: &client.Client{ID: 3, FirstName: "Anna", LastName: "Ivanova", Status: client.StatusActive}}
		principal = &auth.User{ID: 11, Email: "op@travelcrm.com", Role: auth.RoleOperator}
		h := client.NewHandler(svc, logger.Discard())

		bind := func(fn func(http.ResponseWriter, *http.Request, *auth.User)) http.HandlerFunc {
			return func(w http.ResponseWriter, r *http.Request) { fn(w, r, principal) }
		}
		router = chi.NewRouter()
		router.Post("/clients", bind(h.CreateClient))
		router.Get("/clients", bind(h.ListClients))
		router.Get("/clients/{id}", bind(h.GetClient))
		router.Put("/clients/{id}", bind(h.UpdateClient))
		router.Delete("/clients/{id}", bind(h.DeleteClient))
	})

	serve := func(method, target, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("creates a client on behalf of the principal", func() {
		w := serve(http.MethodPost, "/clients", `{"first_name":"Anna","last_name":"Ivanova"}`)

		Expect(w.Code).To(Equal(http.StatusCreated))
		var c client.Client
		Expect(json.NewDecoder(w.Body).Decode(&c)).To(Succeed())
		Expect(c.CreatedBy).To(Equal(int64(11)))
	})

	It("rejects a malformed body", func() {
		w := serve(http.MethodPost, "/clients", `{"first_name":`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("passes pagination and filters to the service", func() {
		w := serve(http.MethodGet, "/clients?status=vip&q=iva&limit=5&offset=10", "")

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(svc.lastFilter.Status).To(Equal("vip"))
		Expect(svc.lastFilter.Search).To(Equal("iva"))
		Expect(svc.lastFilter.Limit).To(Equal(5))
		Expect(svc.lastFilter.Offset).To(Equal(10))
	})

	It("rejects a non-numeric id", func() {
		Expect(serve(http.MethodGet, "/clients/abc", "").Code).To(Equal(http.StatusBadRequest))
	})

	It("maps a missing client to 404", func() {
		svc.err = client.ErrClientNotFound
		w := serve(http.MethodGet, "/clients/99", "")

		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(svc.lastID).To(Equal(int64(99)))
		Expect(w.Body.String()).To(ContainSubstring("CLIENT_NOT_FOUND"))
	})

	It("maps a permission error to 403", func() {
		svc.err = auth.Denied("Permission denied. Not the author of this client")
		Expect(serve(http.MethodPut, "/clients/3", `{"notes":"x"}`).Code).To(Equal(http.StatusForbidden))
	})

	It("hides unexpected errors behind a 500", func() {
		svc.err = errors.New("connection reset by peer")
		w := serve(http.MethodDelete, "/clients/3", "")

		Expect(w.Code).To(Equal(http.StatusInternalServerError))
		Expect(w.Body.String()).NotTo(ContainSubstring("connection reset"))
	})

	It("deletes with no content", func() {
		Expect(serve(http.MethodDelete, "/clients/3", "").Code).To(Equal(http.StatusNoContent))
	})
})
