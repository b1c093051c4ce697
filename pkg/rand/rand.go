package rand

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// ID returns a fresh opaque identifier: 32 lowercase hex characters,
// no punctuation. Used for function ids and execution request ids.
func ID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}
