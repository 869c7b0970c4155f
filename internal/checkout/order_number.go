package checkout

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
)

const (
	orderNumberPrefix   = "ORD-"
	orderNumberLength   = 8
	orderNumberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var orderNumberPattern = regexp.MustCompile(`^ORD-[A-Z0-9]{8}$`)

// NewOrderNumber returns "ORD-" followed by eight random uppercase
// alphanumerics.
func NewOrderNumber() (string, error) {
	max := big.NewInt(int64(len(orderNumberAlphabet)))
	buf := make([]byte, orderNumberLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		buf[i] = orderNumberAlphabet[n.Int64()]
	}
	return orderNumberPrefix + string(buf), nil
}

// IsOrderNumber reports whether value has the order number shape.
func IsOrderNumber(value string) bool {
	return orderNumberPattern.MatchString(value)
}
