package ulid

import (
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropy     io.Reader
	entropyOnce sync.Once

	mu        sync.RWMutex
	generator = DefaultGenerator
)

// DefaultEntropy returns a reader that generates monotonic ULID entropy.
// It is safe for concurrent use.
func DefaultEntropy() io.Reader {
	entropyOnce.Do(func() {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))

		entropy = &ulid.LockedMonotonicReader{
			MonotonicReader: ulid.Monotonic(rng, 0),
		}
	})
	return entropy
}

// GenerateID returns a new ULID string. Workshop sessions and rewrite
// invocations are identified this way in logs.
func GenerateID() string {
	mu.RLock()
	gen := generator
	mu.RUnlock()
	return gen()
}

// ValidID reports whether id parses as a ULID.
func ValidID(id string) bool {
	_, err := ulid.ParseStrict(id)
	return err == nil
}

func DefaultGenerator() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), DefaultEntropy()).String()
}

func MockGenerator(mockValue string) {
	mu.Lock()
	defer mu.Unlock()
	generator = func() string {
		return mockValue
	}
}

func ResetGenerator() {
	mu.Lock()
	defer mu.Unlock()
	generator = DefaultGenerator
}
