package signing

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const AccessTokenPrefix = "ctr_"

// NewAccessToken joins a fixed prefix with two independent random parts:
// 128 bits from crypto/rand and a version 4 UUID.
func NewAccessToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate uuid: %w", err)
	}
	return AccessTokenPrefix + hex.EncodeToString(buf) + strings.ReplaceAll(id.String(), "-", ""), nil
}
