package conversation

import (
	"crypto/sha256"
	"encoding/hex"
)

// KeyFor derives the opaque conversation key for a caller. The user ID is
// preferred when present; otherwise the access token is used. Only the
// digest is ever stored, never the raw credential.
func KeyFor(userID, accessToken string) string {
	seed := userID
	if seed == "" {
		seed = accessToken
	}
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])
}
