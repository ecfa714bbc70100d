// Package depsolve implements the dependency solver and postponed-
// statement store: a DAG of unresolved expressions keyed by the symbols
// and spaces they wait on, resolved to a fixed point after every
// statement, with cycle detection over the "defines" graph.
package depsolve

import (
	"github.com/asmtools/hlasm-ordasm/address"
	"github.com/asmtools/hlasm-ordasm/diag"
	"github.com/asmtools/hlasm-ordasm/expr"
	"github.com/asmtools/hlasm-ordasm/ident"
	"github.com/asmtools/hlasm-ordasm/symtab"
)

// KeyKind distinguishes the two node kinds a dependency can target or
// wait on: an ordinary symbol, or a location-counter space.
type KeyKind byte

const (
	KeySymbol KeyKind = iota
	KeySpace
)

// DependencyKey identifies one node of the dependency graph.
type DependencyKey struct {
	Kind   KeyKind
	Symbol ident.ID
	Space  address.SpaceID
}

func symbolKey(name ident.ID) DependencyKey     { return DependencyKey{Kind: KeySymbol, Symbol: name} }
func spaceKey(id address.SpaceID) DependencyKey { return DependencyKey{Kind: KeySpace, Space: id} }

// SymbolKey builds the DependencyKey for an ordinary symbol, for callers
// (the directive dispatcher) constructing AddDefine targets directly.
func SymbolKey(name ident.ID) DependencyKey { return symbolKey(name) }

// SpaceKeyOf builds the DependencyKey for a location-counter space.
func SpaceKeyOf(id address.SpaceID) DependencyKey { return spaceKey(id) }

// DependencySet generalizes expr.DependencySet to also carry unresolved
// space references, used by resolvers that wait on layout (ORG targets,
// storage reservations) rather than purely on symbol values.
type DependencySet struct {
	Symbols map[ident.ID]bool
	Spaces  map[address.SpaceID]bool
}

// Empty reports whether the set has no unresolved leaves.
func (d DependencySet) Empty() bool { return len(d.Symbols) == 0 && len(d.Spaces) == 0 }

// FromExprDeps lifts an expr.DependencySet (symbols only) into a DependencySet.
func FromExprDeps(d expr.DependencySet) DependencySet {
	return DependencySet{Symbols: d.Symbols}
}

func (d DependencySet) keys() []DependencyKey {
	out := make([]DependencyKey, 0, len(d.Symbols)+len(d.Spaces))
	for s := range d.Symbols {
		out = append(out, symbolKey(s))
	}
	for s := range d.Spaces {
		out = append(out, spaceKey(s))
	}
	return out
}

// PostponedID identifies one postponed statement/lazy-define entry.
type PostponedID int

// SourcePos is a minimal source location used only to order diagnostics
// and to anchor the E033 cycle diagnostic.
type SourcePos struct {
	Line int
	Char int
}

// Resolver re-attempts to produce a value for a defining entry given the
// current state of the world. Returning resolved=false with a non-empty
// DependencySet means "still blocked"; the solver re-registers waiters
// for the returned set (which may differ from the previous attempt).
type Resolver interface {
	Try() (value symtab.SymbolValue, attrs symtab.SymbolAttributes, deps DependencySet, resolved bool)
}

// ResolverFunc adapts a plain function to the Resolver interface.
type ResolverFunc func() (symtab.SymbolValue, symtab.SymbolAttributes, DependencySet, bool)

// Try implements Resolver.
func (f ResolverFunc) Try() (symtab.SymbolValue, symtab.SymbolAttributes, DependencySet, bool) {
	return f()
}

type entry struct {
	id        PostponedID
	target    *DependencyKey
	resolver  Resolver
	onDefined func(symtab.SymbolValue, symtab.SymbolAttributes)
	onReady   func()
	waitingOn map[DependencyKey]bool
	pos       SourcePos
}

// Solver holds the full pending dependency graph.
type Solver struct {
	nextID       PostponedID
	entries      map[PostponedID]*entry
	waiters      map[DependencyKey]map[PostponedID]bool
	targetOwner  map[DependencyKey]PostponedID
	order        []PostponedID // insertion order, used to emit diagnostics in source order
	worklist     []DependencyKey
	names        func(ident.ID) string // name resolver for diagnostic text; injected by the owner
	sink         *diag.Sink
	cycleMembers map[DependencyKey]bool // keys already implicated in a reported E033, so Finalize doesn't also E034 them
}

// NewSolver returns an empty Solver. names resolves an interned ID back
// to display text for diagnostic messages (E033's "cyclic definition
// involving: A, B").
func NewSolver(sink *diag.Sink, names func(ident.ID) string) *Solver {
	return &Solver{
		entries:      make(map[PostponedID]*entry),
		waiters:      make(map[DependencyKey]map[PostponedID]bool),
		targetOwner:  make(map[DependencyKey]PostponedID),
		names:        names,
		sink:         sink,
		cycleMembers: make(map[DependencyKey]bool),
	}
}

func (s *Solver) register(e *entry) {
	s.nextID++
	e.id = s.nextID
	s.entries[e.id] = e
	s.order = append(s.order, e.id)
	if e.target != nil {
		s.targetOwner[*e.target] = e.id
	}
	for k := range e.waitingOn {
		if s.waiters[k] == nil {
			s.waiters[k] = make(map[PostponedID]bool)
		}
		s.waiters[k][e.id] = true
	}
}

func (s *Solver) unregisterWaiters(e *entry) {
	for k := range e.waitingOn {
		delete(s.waiters[k], e.id)
		if len(s.waiters[k]) == 0 {
			delete(s.waiters, k)
		}
	}
}

// hasPath reports whether there is a chain of defines-edges from `from`
// to `to` through already-registered entries (from == to counts as a path
// of length zero, so a direct self-dependency is also caught).
func (s *Solver) hasPath(from, to DependencyKey, visited map[DependencyKey]bool) bool {
	if from == to {
		return true
	}
	if visited[from] {
		return false
	}
	visited[from] = true
	ownerID, ok := s.targetOwner[from]
	if !ok {
		return false
	}
	e := s.entries[ownerID]
	for dep := range e.waitingOn {
		if s.hasPath(dep, to, visited) {
			return true
		}
	}
	return false
}

// AddDefine registers a defining entry (one that, once resolved, writes a
// value via onDefined). It tries the resolver immediately; if already
// resolved, onDefined is invoked synchronously and no entry is kept. If
// blocked, it checks whether the new edges close a cycle through already-
// pending entries; if so, reports E033 once and returns cycleOK=false
// without registering the entry (the target stays permanently unresolved,
// matching "cyclic definition" semantics). Otherwise registers waiters and
// returns true.
func (s *Solver) AddDefine(target DependencyKey, resolver Resolver, pos SourcePos, onDefined func(symtab.SymbolValue, symtab.SymbolAttributes)) (cycleOK bool) {
	value, attrs, deps, resolved := resolver.Try()
	if resolved {
		onDefined(value, attrs)
		return true
	}

	for _, dep := range deps.keys() {
		visited := make(map[DependencyKey]bool)
		if s.hasPath(dep, target, visited) {
			s.reportCycle(target, pos, visited)
			return false
		}
	}

	e := &entry{
		target:    &target,
		resolver:  resolver,
		onDefined: onDefined,
		waitingOn: depKeySet(deps),
		pos:       pos,
	}
	s.register(e)
	return true
}

func depKeySet(deps DependencySet) map[DependencyKey]bool {
	out := make(map[DependencyKey]bool)
	for _, k := range deps.keys() {
		out[k] = true
	}
	return out
}

// AddDiagnosticDependency registers a non-defining entry: one whose
// purpose is only to re-run onReady once every dependency in deps has
// resolved (used for statements whose validation, not value, depends on
// something still unresolved). If deps is already empty, onReady runs
// synchronously.
func (s *Solver) AddDiagnosticDependency(deps DependencySet, pos SourcePos, onReady func()) {
	if deps.Empty() {
		onReady()
		return
	}
	e := &entry{
		onReady:   onReady,
		waitingOn: depKeySet(deps),
		pos:       pos,
	}
	s.register(e)
}

// reportCycle emits E033 for target and records every key the winning
// hasPath walk touched (plus target itself) as a cycle member, so
// Finalize can skip re-flagging the cycle's other symbols with E034.
func (s *Solver) reportCycle(target DependencyKey, pos SourcePos, visited map[DependencyKey]bool) {
	names := []string{s.keyName(target)}
	for _, id := range s.order {
		if e, ok := s.entries[id]; ok && e.target != nil && e.target.Kind == KeySymbol && visited[*e.target] && *e.target != target {
			names = append(names, s.keyName(*e.target))
		}
	}
	d := diagForCycle(names, pos)
	s.sink.Add(d)
	s.cycleMembers[target] = true
	for k := range visited {
		s.cycleMembers[k] = true
	}
}

func (s *Solver) keyName(k DependencyKey) string {
	if k.Kind == KeySymbol {
		return s.names(k.Symbol)
	}
	return "space"
}

func diagForCycle(names []string, pos SourcePos) diag.Diagnostic {
	r := diag.TextRange{
		Start: diag.TextPosition{Line: pos.Line, Char: pos.Char},
		End:   diag.TextPosition{Line: pos.Line, Char: pos.Char},
	}
	return diag.Errors.CyclicDefinition(names, r)
}

// NotifySymbolDefined marks a symbol key ready for retry and drains the
// worklist to a fixed point.
func (s *Solver) NotifySymbolDefined(name ident.ID) {
	s.worklist = append(s.worklist, symbolKey(name))
	s.drain()
}

// NotifySpaceClosed marks a space key ready for retry and drains the
// worklist to a fixed point.
func (s *Solver) NotifySpaceClosed(id address.SpaceID) {
	s.worklist = append(s.worklist, spaceKey(id))
	s.drain()
}

func (s *Solver) drain() {
	for len(s.worklist) > 0 {
		key := s.worklist[0]
		s.worklist = s.worklist[1:]

		waiting := s.waiters[key]
		if len(waiting) == 0 {
			continue
		}
		ids := make([]PostponedID, 0, len(waiting))
		for id := range waiting {
			ids = append(ids, id)
		}
		for _, id := range ids {
			e, ok := s.entries[id]
			if !ok {
				continue
			}
			s.retryEntry(e)
		}
	}
}

func (s *Solver) retryEntry(e *entry) {
	if e.resolver != nil {
		value, attrs, deps, resolved := e.resolver.Try()
		if resolved {
			s.unregisterWaiters(e)
			delete(s.entries, e.id)
			if e.target != nil {
				delete(s.targetOwner, *e.target)
			}
			e.onDefined(value, attrs)
			if e.target != nil {
				s.worklist = append(s.worklist, *e.target)
			}
			return
		}
		// Still blocked: update the waiting set.
		s.unregisterWaiters(e)
		e.waitingOn = depKeySet(deps)
		for k := range e.waitingOn {
			if s.waiters[k] == nil {
				s.waiters[k] = make(map[PostponedID]bool)
			}
			s.waiters[k][e.id] = true
		}
		return
	}

	// Diagnostics-only entry: it has no resolver to re-query, so a key
	// firing just means that particular dependency resolved; once every
	// key it waited on has resolved, the statement is ready.
	for k := range e.waitingOn {
		if !s.keyCurrentlyPending(k) {
			delete(e.waitingOn, k)
		}
	}
	if len(e.waitingOn) == 0 {
		s.unregisterWaiters(e)
		delete(s.entries, e.id)
		e.onReady()
	}
}

// keyCurrentlyPending reports whether key still names an active defining
// entry; once that entry resolves it is removed from targetOwner, so
// "not present" means "resolved" from the caller's point of view. This is
// an approximation used only to drive diagnostics-only entries' bookkeeping.
func (s *Solver) keyCurrentlyPending(key DependencyKey) bool {
	_, ok := s.targetOwner[key]
	return ok
}

// Pending returns the source positions of the defining/diagnostic entries
// that remain unresolved, in source order, for Finalize and for the "pending set is empty or
// every member produced a diagnostic" testable property.
func (s *Solver) Pending() []SourcePos {
	out := make([]SourcePos, 0, len(s.entries))
	for _, id := range s.order {
		if e, ok := s.entries[id]; ok {
			out = append(out, e.pos)
		}
	}
	return out
}

// Finalize reports one diagnostic per remaining unresolved symbol-defining
// entry (an unresolved-reference diagnostic naming the symbol) in source
// order, then drops all remaining pending state. Entries that define a
// space and diagnostics-only entries are dropped without a diagnostic. Cycle diagnostics were
// already reported eagerly by AddDefine, so this skips entries whose
// target was already implicated in a reported E033 — otherwise a
// two-symbol cycle reports both E033 and a redundant E034 for the
// partner symbol still sitting in s.entries.
func (s *Solver) Finalize() {
	for _, id := range s.order {
		e, ok := s.entries[id]
		if !ok {
			continue
		}
		if e.target != nil && e.target.Kind == KeySymbol && !s.cycleMembers[*e.target] {
			r := diag.TextRange{
				Start: diag.TextPosition{Line: e.pos.Line, Char: e.pos.Char},
				End:   diag.TextPosition{Line: e.pos.Line, Char: e.pos.Char},
			}
			s.sink.Add(diag.Errors.UnresolvedDependency(s.names(e.target.Symbol), r))
		}
		delete(s.entries, id)
	}
	s.entries = make(map[PostponedID]*entry)
	s.waiters = make(map[DependencyKey]map[PostponedID]bool)
	s.targetOwner = make(map[DependencyKey]PostponedID)
	s.order = nil
}
