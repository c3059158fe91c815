package broadcast

import (
	"crypto/sha256"
	"encoding/hex"
)

// groupKeySep joins the key fields. A unit separator cannot appear in
// user-entered titles or bodies, so distinct triples never collide by
// concatenation.
const groupKeySep = "\x1f"

// GroupKey derives the identity linking all deliverable records fanned out
// from one announcement. It is a pure function of (sender, title, body):
// the fan-out writer stamps it on new records and the aggregation and group
// operations recompute it to regroup existing ones. It is never stored as an
// independent lookup table.
func GroupKey(senderID, title, body string) string {
	h := sha256.New()
	h.Write([]byte(senderID))
	h.Write([]byte(groupKeySep))
	h.Write([]byte(title))
	h.Write([]byte(groupKeySep))
	h.Write([]byte(body))
	return hex.EncodeToString(h.Sum(nil))
}
