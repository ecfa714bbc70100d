// Package section implements the per-section location-counter registry:
// CSECT/DSECT/RSECT/COM section switching, named location counters within
// a section, alignment, storage reservation, and ORG.
package section

import (
	"errors"

	"github.com/asmtools/hlasm-ordasm/address"
	"github.com/asmtools/hlasm-ordasm/ident"
)

// Kind is a section kind.
type Kind byte

const (
	EXECUTABLE Kind = iota
	READONLY
	COMMON
	DUMMY
	EXTERNAL
	WEAK_EXTERNAL
)

// IsPrivate reports whether a kind participates in the "at most one
// unnamed section per private kind" rule (EXECUTABLE/READONLY/COMMON/DUMMY).
func (k Kind) IsPrivate() bool {
	switch k {
	case EXECUTABLE, READONLY, COMMON, DUMMY:
		return true
	}
	return false
}

// ErrSectionKindConflict is returned by SetSection when a section of the
// requested name already exists under a different kind.
var ErrSectionKindConflict = errors.New("section: name already bound to a different section kind")

// ErrSectionNameConflict is returned when a symbol name already names a
// section across EXECUTABLE/READONLY/COMMON (data-model invariant (ii)).
var ErrSectionNameConflict = errors.New("section: name already names a section of a different control-section kind")

// LocationCounter is one named (or default/unnamed) location counter
// within a section.
type LocationCounter struct {
	Name          ident.ID
	reserved      int64 // current offset from start; Reserve only grows it, ORG may set it lower (highWaterMark keeps the maximum)
	highWaterMark int64 // highest reserved value ever observed, for ORG with no operands
	nextSpaceID   *int  // shared counter for SpaceID allocation across the owning section
	openSpace     *address.Space
	spaces        []*address.Space
}

func newLocationCounter(name ident.ID, spaceIDCounter *int) *LocationCounter {
	return &LocationCounter{Name: name, nextSpaceID: spaceIDCounter}
}

// CurrentOffset returns the counter's current offset from the start of
// its section, counting only closed (resolved) extent; an open space is
// not reflected here since its length is unknown.
func (lc *LocationCounter) CurrentOffset() int64 { return lc.reserved }

// HighWaterMark returns the highest offset this counter has ever reached,
// used by ORG with no operands ("restore the highest used location").
func (lc *LocationCounter) HighWaterMark() int64 { return lc.highWaterMark }

func (lc *LocationCounter) bump(n int64) {
	lc.reserved += n
	if lc.reserved > lc.highWaterMark {
		lc.highWaterMark = lc.reserved
	}
}

func (lc *LocationCounter) allocSpaceID() address.SpaceID {
	*lc.nextSpaceID++
	return address.SpaceID(*lc.nextSpaceID)
}

// HasUnresolvedSpaces reports whether any space in this counter is still
// open, used by Registry.FinishLayout to find the first counter with a
// gap it cannot yet quantify.
func (lc *LocationCounter) HasUnresolvedSpaces() bool {
	for _, sp := range lc.spaces {
		if !sp.Resolved() {
			return true
		}
	}
	return false
}

// Section is one CSECT/DSECT/RSECT/COM section.
type Section struct {
	Name     ident.ID
	Kind     Kind
	counters []*LocationCounter
	current  *LocationCounter
	spaceSeq int
}

// CounterDefined reports whether name already names a location counter
// in this section.
func (s *Section) CounterDefined(name ident.ID) bool {
	for _, c := range s.counters {
		if c.Name == name {
			return true
		}
	}
	return false
}

// LocationCounters returns the section's counters in source-declaration order.
func (s *Section) LocationCounters() []*LocationCounter { return s.counters }

// Current returns the currently-selected location counter.
func (s *Section) Current() *LocationCounter { return s.current }

func (s *Section) counter(name ident.ID) *LocationCounter {
	lc, _ := s.counterCreated(name)
	return lc
}

func (s *Section) counterCreated(name ident.ID) (*LocationCounter, bool) {
	for _, c := range s.counters {
		if c.Name == name {
			return c, false
		}
	}
	lc := newLocationCounter(name, &s.spaceSeq)
	s.counters = append(s.counters, lc)
	return lc, true
}

// Registry owns all sections for one analysis unit.
type Registry struct {
	sections     []*Section
	current      *Section
	firstControl *Section
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Sections returns all sections created so far, in creation order.
func (r *Registry) Sections() []*Section { return r.sections }

// Current returns the currently-selected section, or nil if none yet.
func (r *Registry) Current() *Section { return r.current }

// FirstControlSection returns the first EXECUTABLE/READONLY/COMMON
// section created, used by END's default entry point and by CXD.
func (r *Registry) FirstControlSection() *Section { return r.firstControl }

// SectionDefined reports whether a section of the given (name, kind)
// already exists.
func (r *Registry) SectionDefined(name ident.ID, kind Kind) bool {
	for _, s := range r.sections {
		if s.Name == name && s.Kind == kind {
			return true
		}
	}
	return false
}

func (r *Registry) findByName(name ident.ID) *Section {
	for _, s := range r.sections {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// SetSection switches to (creating if needed) a section of the given
// (name, kind). If a section of the same name exists under a different
// kind, returns ErrSectionKindConflict and does not change Current.
func (r *Registry) SetSection(name ident.ID, kind Kind) (*Section, bool, error) {
	for _, s := range r.sections {
		if s.Name == name && s.Kind == kind {
			r.current = s
			return s, false, nil
		}
	}
	if !name.IsEmpty() {
		if existing := r.findByName(name); existing != nil {
			return nil, false, ErrSectionKindConflict
		}
	}
	s := r.createSection(name, kind)
	r.current = s
	return s, true, nil
}

func (r *Registry) createSection(name ident.ID, kind Kind) *Section {
	s := &Section{Name: name, Kind: kind}
	s.current = s.counter(ident.Empty)
	r.sections = append(r.sections, s)
	if r.firstControl == nil && (kind == COMMON || kind == EXECUTABLE || kind == READONLY) {
		r.firstControl = s
	}
	return s
}

// BaseKey returns the address.BaseKey for (section, location-counter).
func BaseKey(sectionName, counterName ident.ID) address.BaseKey {
	return address.BaseKey{Section: sectionName, Counter: counterName}
}

// SetLocationCounter switches the current section's current counter to
// name, creating it (with a fresh section if none is current yet) if
// necessary. Returns true if this counter did not exist before the call.
func (r *Registry) SetLocationCounter(name ident.ID) (created bool) {
	if r.current == nil {
		r.current = r.createSection(ident.Empty, EXECUTABLE)
	}
	for _, s := range r.sections {
		if s.CounterDefined(name) {
			r.current = s
		}
	}
	lc, created := r.current.counterCreated(name)
	r.current.current = lc
	return created
}

// CounterDefinedAnywhere reports whether name names a location counter in
// any section (used by LOCTR's "already a non-counter symbol" check is
// performed by the caller against the symbol table; this only answers the
// location-counter-namespace half of that check).
func (r *Registry) CounterDefinedAnywhere(name ident.ID) bool {
	if r.current == nil {
		return false
	}
	for _, s := range r.sections {
		if s.CounterDefined(name) {
			return true
		}
	}
	return false
}

// CurrentAddress returns the current location of the current section's
// current counter: base(section, counter) + offset, with any still-open
// space folded in as a residual relocatable component.
func (r *Registry) CurrentAddress() address.Address {
	if r.current == nil {
		r.current = r.createSection(ident.Empty, EXECUTABLE)
	}
	lc := r.current.current
	a := address.FromBase(BaseKey(r.current.Name, lc.Name))
	a.Offset = int32(lc.reserved)
	if lc.openSpace != nil && !lc.openSpace.Resolved() {
		if a.Spaces == nil {
			a.Spaces = map[address.SpaceID]int{}
		}
		a.Spaces[lc.openSpace.ID]++
	}
	return a
}

// Align advances the current counter to the next multiple of boundary. If
// the counter has an open space ahead of it the gap becomes indeterminate
// until that space resolves, so Align degrades to Reserve(0, boundary)
// which opens a fresh space in that case.
func (r *Registry) Align(boundary int32) address.Address {
	return r.Reserve(0, address.Alignment{Boundary: boundary})
}

// Reserve appends length bytes (at the given alignment) to the current
// counter and returns the address at which the reservation begins. When
// the current offset cannot be computed (an earlier space in this counter
// is still open), the reservation itself becomes a new open space and the
// returned address carries that space as a residual component; callers
// (typically the dependency solver) are responsible for enrolling a
// resolver against it.
func (r *Registry) Reserve(length int64, align address.Alignment) address.Address {
	if r.current == nil {
		r.current = r.createSection(ident.Empty, EXECUTABLE)
	}
	lc := r.current.current
	if lc.openSpace != nil && !lc.openSpace.Resolved() {
		start := r.CurrentAddress()
		sp := address.NewSpace(lc.allocSpaceID(), align)
		lc.spaces = append(lc.spaces, sp)
		lc.openSpace = sp
		return start
	}
	aligned := align.AlignUp(int32(lc.reserved))
	start := address.FromBase(BaseKey(r.current.Name, lc.Name))
	start.Offset = aligned
	lc.bump(int64(aligned-int32(lc.reserved)) + length)
	return start
}

// ReserveSpace behaves like Reserve but always opens a new space for this
// reservation regardless of whether the counter is currently gap-free,
// used when the caller already knows the length is not computable yet
// (e.g. DS with an unresolved duplication factor).
func (r *Registry) ReserveSpace(align address.Alignment) (address.Address, *address.Space) {
	if r.current == nil {
		r.current = r.createSection(ident.Empty, EXECUTABLE)
	}
	lc := r.current.current
	start := r.CurrentAddress()
	sp := address.NewSpace(lc.allocSpaceID(), align)
	lc.spaces = append(lc.spaces, sp)
	lc.openSpace = sp
	return start, sp
}

// CloseSpace assigns length to sp and, if sp was the counter's open space,
// folds it into the counter's reserved extent and clears the open marker
// so subsequent Reserve calls compute offsets directly again.
func (lc *LocationCounter) CloseSpace(sp *address.Space, length int32) {
	sp.Close(length)
	if lc.openSpace == sp {
		lc.bump(int64(length))
		lc.openSpace = nil
	}
}

// ErrOrgUnderflow is returned by SetLocationCounterValue when the target
// is before the section's starting location.
var ErrOrgUnderflow = errors.New("section: ORG target precedes section start")

// SetLocationCounterValue implements ORG with an explicit target: jumps
// the current counter directly to target.Offset when target is simply
// relative to the current section (no unresolved components), enforcing
// that backward moves never precede offset 0 of the section.
func (r *Registry) SetLocationCounterValue(target address.Address, boundary int32, offset int32) error {
	lc := r.current.current
	aligned := address.Alignment{Boundary: boundary}.AlignUp(target.Offset) + offset
	if aligned < 0 {
		return ErrOrgUnderflow
	}
	lc.reserved = int64(aligned)
	if lc.reserved > lc.highWaterMark {
		lc.highWaterMark = lc.reserved
	}
	return nil
}

// SetAvailableLocationCounterValue implements ORG with no operands: it
// restores the highest location the current counter has ever reached,
// which is deliberately NOT the same as "the current value" (see the
// open-question note in the design notes).
func (r *Registry) SetAvailableLocationCounterValue() {
	if r.current == nil {
		r.current = r.createSection(ident.Empty, EXECUTABLE)
	}
	lc := r.current.current
	lc.reserved = lc.highWaterMark
}

// FinishLayout reports whether every location counter of every section is
// free of unresolved spaces, returning false at the first counter that
// still has one. It does not close spaces, compute section offsets or
// concatenate a section's counters.
func (r *Registry) FinishLayout() bool {
	for _, s := range r.sections {
		for _, lc := range s.counters {
			if lc.HasUnresolvedSpaces() {
				return false
			}
		}
	}
	return true
}
