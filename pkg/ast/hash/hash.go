// Package hash computes structural fingerprints of decompiled code.
//
// Two statement sequences with the same shape, operators and literal values
// produce the same fingerprint, so identical function bodies can be grouped
// and repeated decompilations compared without walking both trees.
package hash

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/chazu/qvmtool/pkg/ast"
)

// Fingerprint is the SHA-256 of a statement sequence's serialization.
type Fingerprint [32]byte

// Sum computes the fingerprint of a statement sequence.
func Sum(nodes []ast.Node) Fingerprint {
	return sha256.Sum256(Serialize(nodes))
}

// String returns the fingerprint in hex.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// Short returns the first 12 hex digits, enough to tell bodies apart in
// listings.
func (f Fingerprint) Short() string {
	return hex.EncodeToString(f[:6])
}
