package utils

import (
  "crypto/sha256"
  "encoding/hex"
)

// Fingerprint returns the hex-encoded SHA-256 digest of text. It stamps each
// session with an intent hash and is echoed into every descendant version's
// metadata so lineage can be cross-checked against intent without re-reading
// the session row.
func Fingerprint(text string) string {
  sum := sha256.Sum256([]byte(text))
  return hex.EncodeToString(sum[:])
}
