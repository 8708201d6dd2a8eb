package ids

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

func next() ulid.ULID {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
}

// NewBrokerID returns an id for a broker that was not given one explicitly.
// Ids sort by creation time.
func NewBrokerID() string {
	return "broker-" + strings.ToLower(next().String())
}

// NewInstanceID returns a time-sortable instance id prefixed with kind, for
// example "adapter-01j...".
func NewInstanceID(kind string) string {
	id := strings.ToLower(next().String())
	if kind == "" {
		return id
	}
	return kind + "-" + id
}
