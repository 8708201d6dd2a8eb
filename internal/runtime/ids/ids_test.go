package ids

import (
	"strings"
	"sync"
	"testing"

	"github.com/oklog/ulid/v2"
)

func TestNewBrokerIDIsPrefixedULID(t *testing.T) {
	id := NewBrokerID()
	if !strings.HasPrefix(id, "broker-") {
		t.Fatalf("expected broker- prefix, got %q", id)
	}
	if _, err := ulid.ParseStrict(strings.ToUpper(strings.TrimPrefix(id, "broker-"))); err != nil {
		t.Fatalf("expected valid ULID suffix, got %v", err)
	}
}

func TestNewInstanceIDSequentialOrdering(t *testing.T) {
	const total = 100
	ids := make([]string, total)
	for i := 0; i < total; i++ {
		ids[i] = NewInstanceID("adapter")
	}

	for i := 1; i < total; i++ {
		if ids[i-1] >= ids[i] {
			t.Fatalf("expected ids to be strictly increasing, %s >= %s", ids[i-1], ids[i])
		}
	}
}

func TestNewInstanceIDWithoutKind(t *testing.T) {
	id := NewInstanceID("")
	if len(id) != 26 {
		t.Fatalf("expected bare ULID length 26, got %d", len(id))
	}
}

func TestNewInstanceIDConcurrentUniqueness(t *testing.T) {
	const goroutines = 10
	const perGoroutine = 20

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[string]struct{})
	)

	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				id := NewInstanceID("d")
				mu.Lock()
				if _, dup := seen[id]; dup {
					t.Errorf("duplicate id %s", id)
				}
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != goroutines*perGoroutine {
		t.Fatalf("expected %d ids, got %d", goroutines*perGoroutine, len(seen))
	}
}
