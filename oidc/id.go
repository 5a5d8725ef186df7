package oidc

import (
	"encoding/base64"
	"fmt"

	"github.com/hashicorp/go-uuid"
)

// idByteLen is the number of random bytes backing a generated id; 20 bytes
// gives 160 bits of entropy, which is plenty for a single-use correlation
// value.
const idByteLen = 20

// NewID generates a cryptographically random id with an optional prefix.
// The generated id is suitable for a request State or Nonce.
func NewID(optionalPrefix string) (string, error) {
	const op = "oidc.NewID"
	b, err := uuid.GenerateRandomBytes(idByteLen)
	if err != nil {
		return "", fmt.Errorf("%s: unable to generate id: %w", op, ErrIdGeneratorFailed)
	}
	id := base64.RawURLEncoding.EncodeToString(b)
	switch {
	case optionalPrefix != "":
		return fmt.Sprintf("%s_%s", optionalPrefix, id), nil
	default:
		return id, nil
	}
}
