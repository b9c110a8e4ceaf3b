// Package gate serializes trading operations per identity. Within a
// process it uses one lazily-created mutex per identity; across
// processes it takes an exclusive flock on a lock file in the identity's
// data directory. The coordinator holds the lease across its whole
// read-validate-execute-commit critical section.
package gate

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
)

const lockFile = ".position.lock"

type Gate struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(dir string) *Gate {
	return &Gate{dir: dir, locks: make(map[string]*sync.Mutex)}
}

func (g *Gate) identityLock(identity string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	l, ok := g.locks[identity]
	if !ok {
		l = &sync.Mutex{}
		g.locks[identity] = l
	}
	return l
}

// Acquire blocks until the identity's gate is held, first in-process and
// then via the OS file lock. The returned lease must be released on
// every exit path.
func (g *Gate) Acquire(identity string) (*Lease, error) {
	if identity == "" {
		return nil, fmt.Errorf("acquire gate: identity is required")
	}

	l := g.identityLock(identity)
	l.Lock()

	dir := filepath.Join(g.dir, identity)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		l.Unlock()
		return nil, fmt.Errorf("acquire gate for %s: %w", identity, err)
	}

	fl := flock.New(filepath.Join(dir, lockFile))
	if err := fl.Lock(); err != nil {
		l.Unlock()
		return nil, fmt.Errorf("acquire file lock for %s: %w", identity, err)
	}

	return &Lease{mu: l, fl: fl}, nil
}

// Lease is one held gate. Release is safe to call more than once.
type Lease struct {
	mu *sync.Mutex
	fl *flock.Flock

	relOnce sync.Once
	relErr  error
}

func (l *Lease) Release() error {
	l.relOnce.Do(func() {
		l.relErr = l.fl.Unlock()
		l.mu.Unlock()
	})
	return l.relErr
}
