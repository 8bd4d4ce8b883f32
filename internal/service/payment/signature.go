package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Sign computes the gateway checksum over data: the pairs are serialized as
// key=value, sorted by key, joined with '&', then HMAC-SHA256'd under the
// checksum key and hex-encoded. Both sides of the webhook contract use the
// same canonical form.
func Sign(checksumKey string, data map[string]string) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+data[k])
	}

	mac := hmac.New(sha256.New, []byte(checksumKey))
	mac.Write([]byte(strings.Join(pairs, "&")))

	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks signature against the canonical checksum of data in constant
// time. A mismatch must fail closed: the caller rejects the whole payload.
func Verify(checksumKey string, data map[string]string, signature string) bool {
	expected := Sign(checksumKey, data)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}
