package keygen

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const tokenCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// MinTokenLength is the shortest API token GenerateToken will produce.
const MinTokenLength = 24

// GenerateToken returns a random alphanumeric API token with the given
// prefix, e.g. "adm_" or "ops_".
func GenerateToken(prefix string, length int) (string, error) {
	if length < MinTokenLength {
		return "", fmt.Errorf("token length must be at least %d", MinTokenLength)
	}
	result := make([]byte, length)
	max := big.NewInt(int64(len(tokenCharset)))
	for i := range result {
		num, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		result[i] = tokenCharset[num.Int64()]
	}
	return prefix + string(result), nil
}
