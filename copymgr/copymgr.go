// Package copymgr implements the COPY member cache and cycle check: it
// tracks which library members are already expanded on the current COPY
// stack and delegates the actual fetch to a LibraryProvider, never
// touching the filesystem itself.
package copymgr

import (
	"context"
	"errors"

	"github.com/asmtools/hlasm-ordasm/ident"
)

// ErrRecursiveCopy is returned by Enter when member already appears on
// the current COPY stack.
var ErrRecursiveCopy = errors.New("copymgr: recursive COPY")

// Provider is the narrow fetch interface copymgr needs; ordasm.LibraryProvider
// satisfies it structurally.
type Provider interface {
	GetLibrary(ctx context.Context, name ident.ID) (text string, url string, ok bool)
}

// Manager owns the member cache and the active-expansion stack.
type Manager struct {
	provider Provider
	stack    []ident.ID
	cache    map[ident.ID]string
}

// NewManager returns a Manager backed by provider (which may be nil, in
// which case every fetch fails).
func NewManager(provider Provider) *Manager {
	return &Manager{provider: provider, cache: make(map[ident.ID]string)}
}

// Enter pushes member onto the COPY stack and returns its text, fetching
// and caching it on first use. Returns ErrRecursiveCopy without mutating
// the stack if member is already being expanded.
func (m *Manager) Enter(ctx context.Context, member ident.ID) (string, error) {
	for _, active := range m.stack {
		if active == member {
			return "", ErrRecursiveCopy
		}
	}
	text, ok := m.cache[member]
	if !ok {
		if m.provider == nil {
			return "", errNotFound
		}
		fetched, _, found := m.provider.GetLibrary(ctx, member)
		if !found {
			return "", errNotFound
		}
		text = fetched
		m.cache[member] = text
	}
	m.stack = append(m.stack, member)
	return text, nil
}

// Exit pops the most recently entered member, marking its expansion complete.
func (m *Manager) Exit() {
	if len(m.stack) == 0 {
		return
	}
	m.stack = m.stack[:len(m.stack)-1]
}

// Depth reports how many COPY expansions are currently nested.
func (m *Manager) Depth() int { return len(m.stack) }

var errNotFound = errors.New("copymgr: library member not found")

// ErrNotFound is returned by Enter when the provider has no such member.
var ErrNotFound = errNotFound
