package intake

import (
	"encoding/hex"
	"fmt"
	"io"

	"lukechampine.com/blake3"
)

// contentHash returns the hex blake3-256 digest of r.
func contentHash(r io.Reader) (string, error) {
	h := blake3.New(32, nil)
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("calculating blake3 hash: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
