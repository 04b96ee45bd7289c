package util

import (
	"golang.org/x/text/unicode/norm"
)

// Normalize returns the NFKD form of s so visually identical input compares equal.
func Normalize(s string) string {
	return norm.NFKD.String(s)
}
