// Package trace derives deterministic trace identifiers from job ids and
// propagates span context to specialists.
package trace

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// seed disambiguates this derivation from any other blake2b use elsewhere in
// the process; it has no security purpose, only namespacing.
var seed = []byte("careerforge/trace/v1")

// IDFor deterministically derives a trace identifier from a job id via a
// stable one-way function. The same job id always yields the same trace id,
// so a redelivered execution attaches to the same trace.
func IDFor(jobID string) string {
	h, err := blake2b.New(16, nil)
	if err != nil {
		// blake2b.New only errors on an invalid size or an oversized key;
		// size 16 with no key triggers neither. Fall back to a fixed-size
		// hash of the seed+id directly
		// rather than panicking the control plane over a trace concern.
		sum := blake2b.Sum256(append(append([]byte{}, seed...), jobID...))
		return hex.EncodeToString(sum[:16])
	}
	h.Write(seed)
	h.Write([]byte(jobID))
	return hex.EncodeToString(h.Sum(nil))
}
