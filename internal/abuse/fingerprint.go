package abuse

import (
	"fmt"
	"hash/fnv"
	"net/http"
)

// DeviceFingerprint derives a coarse device identifier from request headers.
// It is deliberately a non-cryptographic hash over a handful of headers:
// collisions group unrelated devices together and false negatives slip
// through, both of which the abuse counts tolerate. Strengthening the hash
// would change the grouping behavior the account-count checks rely on.
func DeviceFingerprint(r *http.Request) string {
	h := fnv.New32a()
	h.Write([]byte(r.UserAgent()))
	h.Write([]byte{0})
	h.Write([]byte(r.Header.Get("Accept-Language")))
	h.Write([]byte{0})
	h.Write([]byte(r.Header.Get("Accept-Encoding")))
	return fmt.Sprintf("%08x", h.Sum32())
}
