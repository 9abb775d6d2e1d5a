// Package id generates prefixed document identifiers.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// alphabet deliberately excludes uppercase letters and punctuation so
// ids stay readable in logs and URLs. 20 characters over 36 symbols
// gives over 100 bits of entropy.
const (
	alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	size     = 20
)

// Generate creates an id of the form prefix_random, e.g.
// "list_8x0q1m2p9k3j4h5g6f7d". The prefix names the document kind and
// makes ids self-describing in logs and key dumps.
//
// Returns an error only when the system cannot supply secure random
// bytes.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.Generate(alphabet, size)
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "_" + id, nil
}
