package auth_test

import (
	"net/http"
	"net/http/httptest"

	"github.com/travelcrm/travel-crm/internal/auth"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Credential sources", func() {
	var req *http.Request

	BeforeEach(func() {
		req = httptest.NewRequest(http.MethodGet, "/", nil)
	})

	DescribeTable("HeaderSource",
		func(header, expected string, ok bool) {
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			token, found := auth.HeaderSource{}.Extract(req)
			Expect(found).To(Equal(ok))
			Expect(token).To(Equal(expected))
		},
		Entry("bearer token", "Bearer abc.def.ghi", "abc.def.ghi", true),
		Entry("case-insensitive scheme", "bearer abc", "abc", true),
		Entry("missing header", "", "", false),
		Entry("other scheme", "Basic dXNlcjpwYXNz", "", false),
		Entry("bare token without scheme", "abc.def.ghi", "", false),
		Entry("scheme with no token", "Bearer   ", "", false),
	)

	DescribeTable("CookieSource",
		func(value, expected string, ok bool) {
			req.AddCookie(&http.Cookie{Name: auth.AccessTokenCookie, Value: value})
			token, found := auth.CookieSource{}.Extract(req)
			Expect(found).To(Equal(ok))
			Expect(token).To(Equal(expected))
		},
		Entry("prefixed value", "Bearer abc", "abc", true),
		Entry("raw value", "abc", "abc", true),
		Entry("empty value", "", "", false),
	)

	It("prefers the header over the cookie", func() {
		req.Header.Set("Authorization", "Bearer from-header")
		req.AddCookie(&http.Cookie{Name: auth.AccessTokenCookie, Value: "Bearer from-cookie"})

		token, ok := auth.DefaultCredentialSource().Extract(req)
		Expect(ok).To(BeTrue())
		Expect(token).To(Equal("from-header"))
	})

	It("falls back to the cookie", func() {
		req.AddCookie(&http.Cookie{Name: auth.AccessTokenCookie, Value: "Bearer from-cookie"})

		token, ok := auth.DefaultCredentialSource().Extract(req)
		Expect(ok).To(BeTrue())
		Expect(token).To(Equal("from-cookie"))
	})

	It("reports nothing when neither is present", func() {
		_, ok := auth.DefaultCredentialSource().Extract(req)
		Expect(ok).To(BeFalse())
	})

	It("strips the port from the client address", func() {
		req.RemoteAddr = "203.0.113.7:52311"
		Expect(auth.ClientIP(req)).To(Equal("203.0.113.7"))
		req.RemoteAddr = "203.0.113.7"
		Expect(auth.ClientIP(req)).To(Equal("203.0.113.7"))
	})
})
