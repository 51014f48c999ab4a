package app

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"perk-quiz-backend/internal/domain"
)

// Session tokens are stateless: `{email}_{unixSeconds}_{hash16}`. The hash
// fragment is a truncated digest of the (email, timestamp, quiz) triple and
// only makes tokens non-guessable; it carries no authority and is not
// re-validated on submission. Because `_` is the field separator, identities
// containing it are rejected at issuance (see NewSessionID callers).
const tokenSeparator = "_"

const hashFragmentLen = 16

// NewSessionID derives the opaque session token for a quiz start.
func NewSessionID(email, quizID string, issuedAt time.Time) string {
	ts := strconv.FormatInt(issuedAt.Unix(), 10)
	sum := sha256.Sum256([]byte(email + tokenSeparator + ts + tokenSeparator + quizID))
	fragment := hex.EncodeToString(sum[:])[:hashFragmentLen]
	return email + tokenSeparator + ts + tokenSeparator + fragment
}

// IdentityFromSessionID extracts the user identity from a session token by
// taking the prefix before the first separator.
func IdentityFromSessionID(sessionID string) (string, error) {
	parts := strings.SplitN(sessionID, tokenSeparator, 2)
	if len(parts) < 2 || parts[0] == "" {
		return "", domain.ErrInvalidSession
	}
	return parts[0], nil
}
