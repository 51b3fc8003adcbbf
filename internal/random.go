package internal

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
)

const resetTokenSize = 32

// NewOTP generates a numeric one-time code of the given length. The draw is
// a single uniform integer over [0, 10^digits), zero-padded, so every code
// from all-zeros to all-nines is equally likely.
func NewOTP(digits int) (string, error) {
	if digits < 6 || digits > 10 {
		return "", errors.New("invalid otp digits")
	}

	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%0*d", digits, n), nil
}

// NewResetToken generates the opaque reset authorization token: 32 bytes
// from crypto/rand, base64url without padding. Unguessable by construction;
// never derived from the email or the OTP.
func NewResetToken() (string, error) {
	var raw [resetTokenSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}
