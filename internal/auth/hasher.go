package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/travelcrm/travel-crm/internal"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Hasher turns plaintext passwords into one-way digests and checks them.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
	NeedsRehash(digest string) bool
}

type Argon2Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 4,
		SaltLength:  16,
		KeyLength:   32,
	}
}

var errMalformedDigest = errors.New("malformed password digest")

// Argon2Hasher produces argon2id digests in the PHC string format and still
// verifies legacy bcrypt digests.
type Argon2Hasher struct {
	params Argon2Params
}

func NewArgon2Hasher(params Argon2Params) *Argon2Hasher {
	def := DefaultArgon2Params()
	if params.Memory == 0 {
		params.Memory = def.Memory
	}
	if params.Iterations == 0 {
		params.Iterations = def.Iterations
	}
	if params.Parallelism == 0 {
		params.Parallelism = def.Parallelism
	}
	if params.SaltLength == 0 {
		params.SaltLength = def.SaltLength
	}
	if params.KeyLength == 0 {
		params.KeyLength = def.KeyLength
	}
	return &Argon2Hasher{params: params}
}

func NewHasherFromConfig(cfg internal.Argon2Config) *Argon2Hasher {
	return NewArgon2Hasher(Argon2Params{
		Memory:      cfg.Memory,
		Iterations:  cfg.Iterations,
		Parallelism: cfg.Parallelism,
		SaltLength:  cfg.SaltLength,
		KeyLength:   cfg.KeyLength,
	})
}

func (h *Argon2Hasher) Hash(plaintext string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(plaintext), salt, h.params.Iterations, h.params.Memory, h.params.Parallelism, h.params.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory, h.params.Iterations, h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify never returns an error: a malformed digest simply does not match.
func (h *Argon2Hasher) Verify(plaintext, digest string) bool {
	if isBcrypt(digest) {
		return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
	}

	params, salt, key, err := h.decode(digest)
	if err != nil {
		return false
	}

	other := argon2.IDKey([]byte(plaintext), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)
	return subtle.ConstantTimeCompare(key, other) == 1
}

// NeedsRehash is true for bcrypt digests and argon2id digests made with other parameters.
func (h *Argon2Hasher) NeedsRehash(digest string) bool {
	if isBcrypt(digest) {
		return true
	}
	params, salt, _, err := h.decode(digest)
	if err != nil {
		return true
	}
	return params.Memory != h.params.Memory ||
		params.Iterations != h.params.Iterations ||
		params.Parallelism != h.params.Parallelism ||
		params.KeyLength != h.params.KeyLength ||
		uint32(len(salt)) != h.params.SaltLength
}

func isBcrypt(digest string) bool {
	return strings.HasPrefix(digest, "$2a$") || strings.HasPrefix(digest, "$2b$") || strings.HasPrefix(digest, "$2y$")
}

// costCeiling bounds the memory, iterations and key length a stored digest may
// ask for, as a multiple of this hasher's own parameters.
const costCeiling = 4

func (h *Argon2Hasher) decode(digest string) (Argon2Params, []byte, []byte, error) {
	var params Argon2Params

	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return params, nil, nil, errMalformedDigest
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return params, nil, nil, errMalformedDigest
	}

	var parallelism uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Iterations, &parallelism); err != nil {
		return params, nil, nil, errMalformedDigest
	}
	if params.Iterations == 0 || parallelism == 0 || parallelism > 255 {
		return params, nil, nil, errMalformedDigest
	}
	if uint64(params.Memory) > costCeiling*uint64(h.params.Memory) ||
		uint64(params.Iterations) > costCeiling*uint64(h.params.Iterations) {
		return params, nil, nil, errMalformedDigest
	}
	params.Parallelism = uint8(parallelism)

	salt, err := base64.RawStdEncoding.Strict().DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return params, nil, nil, errMalformedDigest
	}
	key, err := base64.RawStdEncoding.Strict().DecodeString(parts[5])
	if err != nil || len(key) == 0 || uint64(len(key)) > costCeiling*uint64(h.params.KeyLength) {
		return params, nil, nil, errMalformedDigest
	}
	params.SaltLength = uint32(len(salt))
	params.KeyLength = uint32(len(key))

	return params, salt, key, nil
}
