package utils

import (
	"crypto/rand"
	"math/big"
	"time"
)

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789" // omit easily confused chars

func GenerateCode(n int) (string, error) {
	if n <= 0 {
		n = 6
	}
	b := make([]byte, n)
	for i := 0; i < n; i++ {
		idxBig, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			return "", err
		}
		b[i] = codeAlphabet[idxBig.Int64()]
	}
	return string(b), nil
}

// ContactReference returns a reference like MSG-20261017-K7Q2XR for an inquiry
// received at t.
func ContactReference(t time.Time) (string, error) {
	code, err := GenerateCode(6)
	if err != nil {
		return "", err
	}
	return "MSG-" + t.UTC().Format("20060102") + "-" + code, nil
}
