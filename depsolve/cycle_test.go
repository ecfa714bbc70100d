package depsolve_test

import (
	"testing"

	"github.com/asmtools/hlasm-ordasm/depsolve"
	"github.com/asmtools/hlasm-ordasm/diag"
	"github.com/asmtools/hlasm-ordasm/ident"
	"github.com/asmtools/hlasm-ordasm/symtab"
)

// blockedResolver always reports itself blocked on deps, as if its
// defining expression still references an unresolved symbol.
type blockedResolver struct {
	deps depsolve.DependencySet
}

func (b blockedResolver) Try() (symtab.SymbolValue, symtab.SymbolAttributes, depsolve.DependencySet, bool) {
	return nil, symtab.SymbolAttributes{}, b.deps, false
}

func depSet(ids ...ident.ID) depsolve.DependencySet {
	m := make(map[ident.ID]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return depsolve.DependencySet{Symbols: m}
}

// TestCycleReportsExactlyOneE033 reproduces "A EQU B+1 / B EQU A+1": A's
// define waits on B, then B's define would close a path back to A, which
// must report exactly one E033 and never register B's entry.
func TestCycleReportsExactlyOneE033(t *testing.T) {
	in := ident.NewInterner()
	a := in.MustIntern("A")
	b := in.MustIntern("B")
	sink := diag.NewSink()
	solver := depsolve.NewSolver(sink, func(id ident.ID) string { return in.Text(id) })

	okA := solver.AddDefine(depsolve.SymbolKey(a), blockedResolver{deps: depSet(b)}, depsolve.SourcePos{Line: 0}, func(symtab.SymbolValue, symtab.SymbolAttributes) {})
	if !okA {
		t.Fatalf("A's define should register as pending, not cycle, the first time")
	}

	okB := solver.AddDefine(depsolve.SymbolKey(b), blockedResolver{deps: depSet(a)}, depsolve.SourcePos{Line: 1}, func(symtab.SymbolValue, symtab.SymbolAttributes) {})
	if okB {
		t.Fatalf("B's define should be rejected as closing a cycle with A")
	}

	solver.Finalize()

	codes := map[string]int{}
	for _, d := range sink.All() {
		codes[d.Code]++
	}
	if codes["E033"] != 1 {
		t.Fatalf("expected exactly one E033, got %d (all codes: %v)", codes["E033"], codes)
	}
}

// TestNoFalseCycleOnIndependentDefines checks that two unrelated pending
// defines, neither depending on the other, never spuriously report E033.
func TestNoFalseCycleOnIndependentDefines(t *testing.T) {
	in := ident.NewInterner()
	x := in.MustIntern("X")
	y := in.MustIntern("Y")
	z := in.MustIntern("Z")
	sink := diag.NewSink()
	solver := depsolve.NewSolver(sink, func(id ident.ID) string { return in.Text(id) })

	solver.AddDefine(depsolve.SymbolKey(x), blockedResolver{deps: depSet(z)}, depsolve.SourcePos{}, func(symtab.SymbolValue, symtab.SymbolAttributes) {})
	solver.AddDefine(depsolve.SymbolKey(y), blockedResolver{deps: depSet(z)}, depsolve.SourcePos{}, func(symtab.SymbolValue, symtab.SymbolAttributes) {})

	for _, d := range sink.All() {
		if d.Code == "E033" {
			t.Fatalf("unexpected E033 for independent defines: %v", d)
		}
	}
}

// TestNotifySymbolDefinedResolvesWaiters checks the worklist fixed point:
// once the blocking symbol resolves, a waiting define is retried and
// completes.
func TestNotifySymbolDefinedResolvesWaiters(t *testing.T) {
	in := ident.NewInterner()
	dep := in.MustIntern("DEP")
	target := in.MustIntern("TARGET")
	sink := diag.NewSink()
	solver := depsolve.NewSolver(sink, func(id ident.ID) string { return in.Text(id) })

	tries := 0
	resolver := depsolve.ResolverFunc(func() (symtab.SymbolValue, symtab.SymbolAttributes, depsolve.DependencySet, bool) {
		tries++
		if tries < 2 {
			return nil, symtab.SymbolAttributes{}, depSet(dep), false
		}
		return symtab.Absolute{V: 5}, symtab.SymbolAttributes{}, depsolve.DependencySet{}, true
	})

	defined := false
	solver.AddDefine(depsolve.SymbolKey(target), resolver, depsolve.SourcePos{}, func(symtab.SymbolValue, symtab.SymbolAttributes) { defined = true })
	if defined {
		t.Fatalf("target should still be pending before dep resolves")
	}

	solver.NotifySymbolDefined(dep)
	if !defined {
		t.Fatalf("target should have resolved once its dependency notified")
	}
}

func TestFinalizeReportsUnresolved(t *testing.T) {
	in := ident.NewInterner()
	dangling := in.MustIntern("DANGLING")
	missing := in.MustIntern("NEVERDEFINED")
	sink := diag.NewSink()
	solver := depsolve.NewSolver(sink, func(id ident.ID) string { return in.Text(id) })

	solver.AddDefine(depsolve.SymbolKey(dangling), blockedResolver{deps: depSet(missing)}, depsolve.SourcePos{Line: 3}, func(symtab.SymbolValue, symtab.SymbolAttributes) {})
	solver.Finalize()

	if len(solver.Pending()) != 0 {
		t.Fatalf("Finalize should drain all pending entries")
	}
	found := false
	for _, d := range sink.All() {
		if d.Code == "E034" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected Finalize to emit E034 for the dangling define, got %v", sink.All())
	}
}
