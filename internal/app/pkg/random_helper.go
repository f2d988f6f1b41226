package pkg

import (
	"crypto/rand"
	"encoding/base32"
	"strings"
)

// codeEncoding is upper-case only so codes survive being read aloud or typed.
var codeEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// RandomCode returns prefix + "-" + n base32 characters drawn from crypto/rand.
// 5 bits per character, so n=24 carries 120 bits of entropy.
func RandomCode(prefix string, n int) (string, error) {
	raw := make([]byte, (n*5+7)/8)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	encoded := codeEncoding.EncodeToString(raw)[:n]
	if prefix == "" {
		return encoded, nil
	}
	return prefix + "-" + encoded, nil
}

// NormalizeCode upper-cases and trims a code typed by a client or cashier.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
