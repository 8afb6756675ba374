package security

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// codeAlphabet drops characters that are easy to misread on a printed voucher.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateCode returns prefix followed by length random characters from an
// unambiguous upper-case alphabet, e.g. "GV-7KQ2M9XA".
func GenerateCode(prefix string, length int) (string, error) {
	if length <= 0 {
		return "", errors.New("code length must be positive")
	}
	var b strings.Builder
	b.Grow(len(prefix) + length)
	b.WriteString(prefix)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}
	return b.String(), nil
}
