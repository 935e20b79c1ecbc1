package utils

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

func HashString(input string) string {
	hash := sha256.Sum256([]byte(input))
	return fmt.Sprintf("%x", hash)
}

// CacheKey joins parts with "|" before hashing so ("ab","c") and ("a","bc") differ.
func CacheKey(parts ...string) string {
	return HashString(strings.Join(parts, "|"))[:32]
}

func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return strings.Repeat("*", len(secret))
	}
	return secret[:4] + strings.Repeat("*", len(secret)-8) + secret[len(secret)-4:]
}
