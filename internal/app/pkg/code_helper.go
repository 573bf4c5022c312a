package pkg

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// codeAlphabet is the 36-symbol alphabet used for gift card codes.
const codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

const codeGroupLength = 6

// GiftCardCode returns a human-presentable code of the form
// GC-XXXXXX-XXXXXX. Uniqueness is the caller's responsibility; the issuing
// path checks for collisions and regenerates.
func GiftCardCode() (string, error) {
	first, err := randomGroup(codeGroupLength)
	if err != nil {
		return "", err
	}
	second, err := randomGroup(codeGroupLength)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("GC-%s-%s", first, second), nil
}

func randomGroup(n int) (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("random code group: %w", err)
		}
		b[i] = codeAlphabet[idx.Int64()]
	}
	return string(b), nil
}
