package service

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const (
	codePrefix     = "CW-"
	codeRandomLen  = 9
	base36Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// CodeGenerator produces opaque verification codes.
type CodeGenerator func(now time.Time) (string, error)

// NewVerificationCode returns "CW-<unix millis>-<9 base36 chars>".
func NewVerificationCode(now time.Time) (string, error) {
	var b strings.Builder
	b.WriteString(codePrefix)
	b.WriteString(strconv.FormatInt(now.UnixMilli(), 10))
	b.WriteByte('-')

	limit := big.NewInt(int64(len(base36Alphabet)))
	for range codeRandomLen {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b.WriteByte(base36Alphabet[n.Int64()])
	}
	return b.String(), nil
}
