package social

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	// FriendCodeAlphabet omits 0, O, 1 and I so codes can be read aloud.
	FriendCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	FriendCodeLength   = 6

	maxFriendCodeInput    = 10
	maxFriendCodeAttempts = 10
)

// GenerateFriendCode returns a random code drawn from FriendCodeAlphabet.
func GenerateFriendCode() (string, error) {
	limit := big.NewInt(int64(len(FriendCodeAlphabet)))

	var b strings.Builder
	b.Grow(FriendCodeLength)
	for i := 0; i < FriendCodeLength; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate friend code: %w", err)
		}
		b.WriteByte(FriendCodeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// ValidFriendCode reports whether code could have been produced by GenerateFriendCode.
func ValidFriendCode(code string) bool {
	if len(code) != FriendCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(FriendCodeAlphabet, code[i]) < 0 {
			return false
		}
	}
	return true
}

// normalizeFriendCode trims and upper-cases user input. It reports false when
// the input length is outside the accepted range.
func normalizeFriendCode(raw string) (string, bool) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if len(code) < FriendCodeLength || len(code) > maxFriendCodeInput {
		return "", false
	}
	return code, true
}
