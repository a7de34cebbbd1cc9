package store

import (
	"crypto/sha256"
	"fmt"
)

// ComputeSignatureHash computes a deterministic hash of a declaration's
// semantic identity: name, kind, type and parameter (or field) types in
// order. Location changes do NOT affect the hash.
func ComputeSignatureHash(name, kind, typeExpr string, params []string) string {
	h := sha256.New()
	fmt.Fprintf(h, "name:%s\n", name)
	fmt.Fprintf(h, "kind:%s\n", kind)
	fmt.Fprintf(h, "type:%s\n", typeExpr)
	for i, p := range params {
		fmt.Fprintf(h, "param:%d:%s\n", i, p)
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
