// Package address models HLASM relocatable addresses and the "space"
// placeholders used when a location counter's extent is not yet known.
// An Address is a module over the integers: section/location-counter
// bases and spaces each carry a signed multiplicity, and two addresses
// subtract to Absolute, Relocatable, or Undefined depending on whether
// their relocatable components cancel.
package address

import "github.com/asmtools/hlasm-ordasm/ident"

// BaseKey identifies one (section, location-counter) pair that an
// Address can be based on. Sections and location counters are owned by
// the section registry; this package only holds opaque keys, never
// pointers, per the module's "own by id, not by pointer" discipline.
type BaseKey struct {
	Section ident.ID
	Counter ident.ID
}

// SpaceID identifies a Space by opaque id. The backing Space values are
// owned by the section registry that created them.
type SpaceID int

// Address is { bases: multiset<BaseKey, ±1>, spaces: multiset<SpaceID, ±1>, offset }.
type Address struct {
	Bases  map[BaseKey]int
	Spaces map[SpaceID]int
	Offset int32
}

// Zero returns an absolute address of value 0.
func Zero() Address {
	return Address{Offset: 0}
}

// FromBase returns the address at the start of the given base, offset 0.
func FromBase(b BaseKey) Address {
	return Address{Bases: map[BaseKey]int{b: 1}, Offset: 0}
}

func cloneInts(m map[BaseKey]int) map[BaseKey]int {
	if len(m) == 0 {
		return nil
	}
	out := make(map[BaseKey]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneSpaces(m map[SpaceID]int) map[SpaceID]int {
	if len(m) == 0 {
		return nil
	}
	out := make(map[SpaceID]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Clone returns a deep copy of a, safe to mutate independently.
func (a Address) Clone() Address {
	return Address{Bases: cloneInts(a.Bases), Spaces: cloneSpaces(a.Spaces), Offset: a.Offset}
}

func mergeInts(a, b map[BaseKey]int, sign int) map[BaseKey]int {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make(map[BaseKey]int, len(a)+len(b))
	for k, v := range a {
		out[k] += v
	}
	for k, v := range b {
		out[k] += sign * v
	}
	for k, v := range out {
		if v == 0 {
			delete(out, k)
		}
	}
	return out
}

func mergeSpaceInts(a, b map[SpaceID]int, sign int) map[SpaceID]int {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make(map[SpaceID]int, len(a)+len(b))
	for k, v := range a {
		out[k] += v
	}
	for k, v := range b {
		out[k] += sign * v
	}
	for k, v := range out {
		if v == 0 {
			delete(out, k)
		}
	}
	return out
}

// Add returns a + b.
func Add(a, b Address) Address {
	return Address{
		Bases:  mergeInts(a.Bases, b.Bases, 1),
		Spaces: mergeSpaceInts(a.Spaces, b.Spaces, 1),
		Offset: a.Offset + b.Offset,
	}
}

// Sub returns a - b.
func Sub(a, b Address) Address {
	return Address{
		Bases:  mergeInts(a.Bases, b.Bases, -1),
		Spaces: mergeSpaceInts(a.Spaces, b.Spaces, -1),
		Offset: a.Offset - b.Offset,
	}
}

// Negate returns -a.
func Negate(a Address) Address {
	return Sub(Address{}, a)
}

// IsAbsolute reports whether a has no residual relocatable components.
func (a Address) IsAbsolute() bool {
	return len(a.Bases) == 0 && len(a.Spaces) == 0
}

// IsSimplyRelocatable reports whether a has exactly one base with
// multiplicity +1 and no unresolved spaces — the form required for most
// relocatable-operand contexts (e.g. the value operand of EQU, USING's
// base expression).
func (a Address) IsSimplyRelocatable() bool {
	if len(a.Spaces) != 0 || len(a.Bases) != 1 {
		return false
	}
	for _, mult := range a.Bases {
		return mult == 1
	}
	return false
}

// SoleBase returns the single base of a simply-relocatable address.
// Callers must check IsSimplyRelocatable first.
func (a Address) SoleBase() BaseKey {
	for k := range a.Bases {
		return k
	}
	return BaseKey{}
}

// ScaleMul multiplies a by a constant factor; only legal when a is
// absolute (HLASM rejects multiplying a relocatable address by anything
// other than the identity). Callers should check IsAbsolute first; this
// simply scales Offset since Bases/Spaces are nil on an absolute value.
func ScaleMul(a Address, factor int32) Address {
	return Address{Offset: a.Offset * factor}
}

// Compare orders two addresses. It is only meaningful when Sub(a, b) is
// absolute; callers must check that first. Returns -1, 0, 1.
func Compare(diffOffset int32) int {
	switch {
	case diffOffset < 0:
		return -1
	case diffOffset > 0:
		return 1
	default:
		return 0
	}
}

// Alignment is a power-of-two byte boundary constraint, 1 meaning
// unaligned (byte-aligned).
type Alignment struct {
	Boundary int32 // power of two, >= 1
}

// AlignUp rounds n up to the next multiple of a.Boundary.
func (a Alignment) AlignUp(n int32) int32 {
	if a.Boundary <= 1 {
		return n
	}
	rem := n % a.Boundary
	if rem == 0 {
		return n
	}
	return n + (a.Boundary - rem)
}

// Space is a named placeholder for a not-yet-known byte length inside a
// location counter. Once Length is set it is immutable: all addresses
// that transitively depend on this space can be folded into a concrete
// offset.
type Space struct {
	ID     SpaceID
	Align  Alignment
	length *int32
}

// NewSpace creates an unresolved space with the given alignment.
func NewSpace(id SpaceID, align Alignment) *Space {
	return &Space{ID: id, Align: align}
}

// Resolved reports whether the space's length has been assigned.
func (s *Space) Resolved() bool { return s.length != nil }

// Length returns the assigned length; callers must check Resolved first.
func (s *Space) Length() int32 { return *s.length }

// Close assigns the space's final length. It is an invariant violation to
// call this more than once; the section registry that owns the space
// enforces that by only ever calling Close from its single "close space"
// code path.
func (s *Space) Close(length int32) {
	if s.length != nil {
		panic("address: space closed twice")
	}
	l := length
	s.length = &l
}
