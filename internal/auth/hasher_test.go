package auth_test

import (
	"strings"

	"github.com/travelcrm/travel-crm/internal/auth"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

var _ = Describe("Argon2Hasher", func() {
	var hasher *auth.Argon2Hasher

	BeforeEach(func() {
		hasher = fastHasher()
	})

	It("verifies the password it hashed", func() {
		digest, err := hasher.Hash("s3cret!")
		Expect(err).NotTo(HaveOccurred())
		Expect(digest).To(HavePrefix("$argon2id$v=19$m=1024,t=1,p=1$"))
		Expect(digest).NotTo(ContainSubstring("s3cret!"))

		Expect(hasher.Verify("s3cret!", digest)).To(BeTrue())
		Expect(hasher.Verify("s3cret", digest)).To(BeFalse())
		Expect(hasher.NeedsRehash(digest)).To(BeFalse())
	})

	It("salts every digest", func() {
		a, _ := hasher.Hash("same")
		b, _ := hasher.Hash("same")
		Expect(a).NotTo(Equal(b))
	})

	It("verifies legacy bcrypt digests and asks for a rehash", func() {
		legacy, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.MinCost)
		Expect(err).NotTo(HaveOccurred())

		Expect(hasher.Verify("admin123", string(legacy))).To(BeTrue())
		Expect(hasher.Verify("admin124", string(legacy))).To(BeFalse())
		Expect(hasher.NeedsRehash(string(legacy))).To(BeTrue())
	})

	It("asks for a rehash when parameters change", func() {
		digest, _ := hasher.Hash("pw")
		stronger := auth.NewArgon2Hasher(auth.Argon2Params{Memory: 2048, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})

		Expect(stronger.Verify("pw", digest)).To(BeTrue())
		Expect(stronger.NeedsRehash(digest)).To(BeTrue())
	})

	It("treats malformed digests as non-matching", func() {
		digest, _ := hasher.Hash("pw")
		parts := strings.Split(digest, "$")

		for _, bad := range []string{
			"",
			"plaintext",
			"$argon2i$v=19$m=1024,t=1,p=1$c2FsdA$a2V5",
			"$argon2id$v=18$" + strings.Join(parts[3:], "$"),
			"$argon2id$v=19$m=1024,t=0,p=1$" + strings.Join(parts[4:], "$"),
			"$argon2id$v=19$m=1024,t=1,p=1$!!!$" + parts[5],
		} {
			Expect(hasher.Verify("pw", bad)).To(BeFalse(), bad)
			Expect(hasher.NeedsRehash(bad)).To(BeTrue(), bad)
		}
	})

	It("refuses digests that ask for far more work than configured", func() {
		digest, _ := hasher.Hash("pw")
		parts := strings.Split(digest, "$")
		tail := strings.Join(parts[4:], "$")

		for _, costly := range []string{
			"$argon2id$v=19$m=4294967295,t=1,p=1$" + tail,
			"$argon2id$v=19$m=4097,t=1,p=1$" + tail,
			"$argon2id$v=19$m=1024,t=4294967295,p=1$" + tail,
			"$argon2id$v=19$m=1024,t=5,p=1$" + tail,
			"$argon2id$v=19$m=1024,t=1,p=1$" + parts[4] + "$" + strings.Repeat("A", 200),
		} {
			Expect(hasher.Verify("pw", costly)).To(BeFalse(), costly)
			Expect(hasher.NeedsRehash(costly)).To(BeTrue(), costly)
		}
	})

	It("still verifies digests within the cost ceiling", func() {
		stronger := auth.NewArgon2Hasher(auth.Argon2Params{Memory: 4096, Iterations: 4, Parallelism: 1, SaltLength: 16, KeyLength: 32})
		digest, err := stronger.Hash("pw")
		Expect(err).NotTo(HaveOccurred())

		Expect(hasher.Verify("pw", digest)).To(BeTrue())
		Expect(hasher.NeedsRehash(digest)).To(BeTrue())
	})

	It("fills zero parameters with defaults", func() {
		h := auth.NewArgon2Hasher(auth.Argon2Params{Memory: 1024})
		digest, err := h.Hash("pw")
		Expect(err).NotTo(HaveOccurred())
		Expect(digest).To(ContainSubstring("m=1024,t=3,p=4"))
	})
})
