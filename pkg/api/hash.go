package api

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Fingerprint returns a deterministic BLAKE3 hash of the fields in order.
// Field order is significant: the collaborator sees fields in this order.
func Fingerprint(section string, fields []Field) string {
	h := blake3.New()

	h.Write([]byte(section))
	h.Write([]byte{0})

	for _, f := range fields {
		h.Write([]byte(f.Name))
		h.Write([]byte{0})
		h.Write([]byte(f.Value))
		h.Write([]byte{0})
	}
	h.Write([]byte{0}) // end of fields

	sum := h.Sum(nil)
	return hex.EncodeToString(sum)
}
