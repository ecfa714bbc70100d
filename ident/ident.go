// Package ident canonicalizes HLASM ordinary-symbol names into cheap,
// comparable tokens. Names are case-folded (ASCII upper-case) and interned
// so that equality between two IDs is an index comparison, never a string
// comparison.
package ident

import "errors"

// ErrNonASCII is returned when a name contains a byte outside the ASCII
// range. Ordinary HLASM symbols are ASCII-only; non-ASCII bytes are a
// parser-level concern this package refuses to canonicalize.
var ErrNonASCII = errors.New("ident: non-ASCII byte in symbol name")

// ErrBadLength is returned when a name is empty or longer than 63 bytes.
var ErrBadLength = errors.New("ident: symbol name length must be 1-63")

const maxLen = 63

// ID identifies an interned name. The zero value is Empty, the sentinel
// meaning "no label". Two IDs from the same Interner compare equal iff
// their underlying names were equal after case folding.
type ID struct {
	idx int // 0 means Empty; otherwise 1-based index into Interner.names
}

// Empty is the distinguished ID meaning "no label".
var Empty ID

// IsEmpty reports whether id is the sentinel "no label" value.
func (id ID) IsEmpty() bool { return id.idx == 0 }

// Interner canonicalizes symbol names to IDs. It is process-lifetime: no
// eviction, matching the assumption that a single analysis session never
// interns more than a modest number of distinct names. Each analyzer
// (workspace) owns its own Interner; they are never shared, since the
// language server analyzes multiple mutually isolated workspaces.
type Interner struct {
	names []string       // names[i-1] is the canonical text of ID{idx: i}
	index map[string]int // canonical text -> idx
}

// NewInterner returns a ready-to-use, empty Interner.
func NewInterner() *Interner {
	return &Interner{index: make(map[string]int)}
}

// Intern case-folds s and returns its ID, creating a new entry if this is
// the first time this canonical name has been seen.
func (in *Interner) Intern(s string) (ID, error) {
	if len(s) == 0 || len(s) > maxLen {
		return ID{}, ErrBadLength
	}
	folded := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 0x80 {
			return ID{}, ErrNonASCII
		}
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		folded[i] = c
	}
	key := string(folded)
	if idx, ok := in.index[key]; ok {
		return ID{idx: idx}, nil
	}
	in.names = append(in.names, key)
	idx := len(in.names)
	in.index[key] = idx
	return ID{idx: idx}, nil
}

// MustIntern is Intern but panics on error; useful for literal names known
// at compile time to be valid (directive mnemonics, synthesized symbols).
func (in *Interner) MustIntern(s string) ID {
	id, err := in.Intern(s)
	if err != nil {
		panic(err)
	}
	return id
}

// Lookup returns the ID already interned for s, without creating a new
// entry. ok is false if s (case-folded) has never been interned.
func (in *Interner) Lookup(s string) (ID, bool) {
	folded := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		folded[i] = c
	}
	idx, ok := in.index[string(folded)]
	if !ok {
		return ID{}, false
	}
	return ID{idx: idx}, true
}

// Text returns the canonical (case-folded) text of id, or "" for Empty.
func (in *Interner) Text(id ID) string {
	if id.IsEmpty() {
		return ""
	}
	return in.names[id.idx-1]
}
