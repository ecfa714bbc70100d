// Package expr evaluates HLASM arithmetic and relocatable expressions
// against a dependency-solver view: either a concrete value, or the set
// of symbols/spaces the expression still depends on.
package expr

import (
	"github.com/asmtools/hlasm-ordasm/address"
	"github.com/asmtools/hlasm-ordasm/ident"
	"github.com/asmtools/hlasm-ordasm/symtab"
)

// AttrKind identifies an attribute-reference operand (L'sym, T'sym, ...).
type AttrKind byte

const (
	AttrLength AttrKind = iota
	AttrType
	AttrScale
	AttrInteger
	AttrUsing
	AttrOpcode
)

// Expr is the closed expression AST. Every variant implements the
// unexported marker method so dispatch stays an exhaustive switch rather
// than open interface dispatch, per the project's operand-variant style.
type Expr interface {
	exprNode()
}

// IntLit is an integer literal (decimal, B-, X-, or C-string already
// converted to its numeric value upstream in the parser).
type IntLit struct{ V int32 }

func (IntLit) exprNode() {}

// SymbolRef references an ordinary symbol by name.
type SymbolRef struct{ Name ident.ID }

func (SymbolRef) exprNode() {}

// LocCounterRef is the `*` current-location-counter operand.
type LocCounterRef struct{}

func (LocCounterRef) exprNode() {}

// AttrRef is an attribute reference, e.g. L'SYM.
type AttrRef struct {
	Kind   AttrKind
	Target ident.ID
}

func (AttrRef) exprNode() {}

// LiteralRef references a `=...` literal via the synthetic symbol name the
// literal pool assigned it when the literal was first interned; its value
// resolves like any other symbol once the pool materializes it.
type LiteralRef struct{ Name ident.ID }

func (LiteralRef) exprNode() {}

// UnOp is a unary operator application.
type UnOp struct {
	Op Op
	X  Expr
}

func (UnOp) exprNode() {}

// BinOp is a binary operator application.
type BinOp struct {
	Op   Op
	X, Y Expr
}

func (BinOp) exprNode() {}

// Op enumerates the arithmetic, bit-logical, and shift operators.
type Op byte

const (
	OpNeg Op = iota // unary -
	OpPos           // unary +
	OpAdd
	OpSub
	OpMul
	OpDiv // truncating toward zero
	OpAnd
	OpOr
	OpXor
	OpNot // unary bitwise NOT
	OpShl
	OpShr
)

// Candidate is what a SolverView reports for a referenced symbol: either
// a defined value+attributes, "declared but undefined" (exists in the
// table with no value), or "unknown" (no entry at all).
type Candidate struct {
	State CandidateState
	Value symtab.SymbolValue
	Attrs symtab.SymbolAttributes
}

// CandidateState distinguishes the three answers GetSymbolCandidate can give.
type CandidateState byte

const (
	CandidateUnknown CandidateState = iota
	CandidateDeclaredUndefined
	CandidateDefined
)

// UsingView is the narrow interface expr needs from the USING tracker;
// using.Tracker satisfies it structurally, with no import cycle.
type UsingView interface {
	ResolveBase(reg int) (address.Address, bool)
}

// SolverView is the dependency-solver-facing interface expression
// evaluation runs against. Directives may wrap a base view with a
// narrower one (e.g. EQU's attribute operands force "unknown" to read as
// "declared undefined" to avoid triggering attribute lookahead), per the
// "dependency-solver redirect" design note.
type SolverView interface {
	GetSymbolCandidate(name ident.ID) Candidate
	GetLocCtr() address.Address
	GetUsingEvaluator() UsingView
}

// overrideUnknownView wraps a base SolverView so CandidateUnknown reads
// as CandidateDeclaredUndefined.
type overrideUnknownView struct {
	base SolverView
}

// OverrideUnknownAsDeclaredUndefined returns a view that answers
// "declared undefined" wherever base would answer "unknown", used by
// EQU's length/type operands.
func OverrideUnknownAsDeclaredUndefined(base SolverView) SolverView {
	return overrideUnknownView{base: base}
}

func (v overrideUnknownView) GetSymbolCandidate(name ident.ID) Candidate {
	c := v.base.GetSymbolCandidate(name)
	if c.State == CandidateUnknown {
		c.State = CandidateDeclaredUndefined
	}
	return c
}
func (v overrideUnknownView) GetLocCtr() address.Address   { return v.base.GetLocCtr() }
func (v overrideUnknownView) GetUsingEvaluator() UsingView { return v.base.GetUsingEvaluator() }

// Mode selects how Eval treats a dependency: CollectDependencies returns
// the unresolved leaf set without attempting arithmetic on them; Evaluate
// assumes there are none and computes a value (callers must have already
// confirmed DependencySet is empty).
type Mode byte

const (
	CollectDependencies Mode = iota
	Evaluate
)

// DependencySet is the set of unresolved leaves an expression still
// refers to: symbol names only. Attribute references (AttrRef) never add
// a dependency; they read the attribute defaults of an undefined symbol
// instead. Spaces are surfaced through the Relocatable address a symbol
// resolves to, not named here directly.
type DependencySet struct {
	Symbols map[ident.ID]bool
}

// Empty reports whether the set has no unresolved leaves.
func (d DependencySet) Empty() bool { return len(d.Symbols) == 0 }

func (d *DependencySet) add(name ident.ID) {
	if d.Symbols == nil {
		d.Symbols = map[ident.ID]bool{}
	}
	d.Symbols[name] = true
}

func mergeDeps(a, b DependencySet) DependencySet {
	out := DependencySet{}
	for k := range a.Symbols {
		out.add(k)
	}
	for k := range b.Symbols {
		out.add(k)
	}
	return out
}

// Result is the outcome of evaluating an Expr with no remaining
// dependencies: either a SymbolValue, or a recognized error (division by
// zero, attribute query against a symbol with no resolvable attribute).
type Result struct {
	Value symtab.SymbolValue
	// DivByZero is set when a Div operator's divisor evaluated to zero;
	// Value is Undefined in that case and the caller is responsible for
	// emitting a diagnostic.
	DivByZero bool
}

// Eval evaluates e against view in the given mode. In CollectDependencies
// mode it returns (zero Result, non-empty DependencySet) as soon as any
// leaf is unresolved, short-circuiting further arithmetic — matching the
// spec's "returns the set of unresolved leaves" contract. In Evaluate
// mode it assumes the caller already confirmed there are no dependencies
// and computes a concrete value (an unresolved leaf encountered anyway
// yields Undefined rather than panicking, as a defensive fallback).
func Eval(e Expr, view SolverView, mode Mode) (Result, DependencySet) {
	switch n := e.(type) {
	case IntLit:
		return Result{Value: symtab.Absolute{V: n.V}}, DependencySet{}

	case LocCounterRef:
		return Result{Value: symtab.Relocatable{A: view.GetLocCtr()}}, DependencySet{}

	case LiteralRef:
		// A literal's value is the address assigned once the literal
		// pool materializes it; until then it behaves like an unresolved
		// symbol keyed by the synthetic name the pool assigned it.
		return evalSymbolLike(n.Name, view, mode)

	case SymbolRef:
		return evalSymbolLike(n.Name, view, mode)

	case AttrRef:
		return evalAttr(n, view, mode)

	case UnOp:
		return evalUnOp(n, view, mode)

	case BinOp:
		return evalBinOp(n, view, mode)
	}
	return Result{Value: symtab.Undefined{}}, DependencySet{}
}

func evalSymbolLike(name ident.ID, view SolverView, mode Mode) (Result, DependencySet) {
	c := view.GetSymbolCandidate(name)
	switch c.State {
	case CandidateDefined:
		return Result{Value: c.Value}, DependencySet{}
	case CandidateDeclaredUndefined, CandidateUnknown:
		var deps DependencySet
		deps.add(name)
		return Result{Value: symtab.Undefined{}}, deps
	}
	return Result{Value: symtab.Undefined{}}, DependencySet{}
}

func evalAttr(n AttrRef, view SolverView, mode Mode) (Result, DependencySet) {
	c := view.GetSymbolCandidate(n.Target)
	switch n.Kind {
	case AttrType:
		t := byte('U')
		if c.State == CandidateDefined {
			t = c.Attrs.Type
		}
		return Result{Value: symtab.Absolute{V: int32(t)}}, DependencySet{}
	case AttrLength:
		if c.State != CandidateDefined {
			// L' of a not-yet-defined symbol defaults to 1 rather than
			// being treated as a dependency: HLASM resolves L' eagerly
			// against whatever attributes are known at the reference
			// point, never deferring it.
			return Result{Value: symtab.Absolute{V: 1}}, DependencySet{}
		}
		return Result{Value: symtab.Absolute{V: c.Attrs.Length}}, DependencySet{}
	case AttrScale:
		v := int32(0)
		if c.State == CandidateDefined {
			v = c.Attrs.Scale
		}
		return Result{Value: symtab.Absolute{V: v}}, DependencySet{}
	case AttrInteger:
		v := int32(0)
		if c.State == CandidateDefined {
			v = c.Attrs.Int
		}
		return Result{Value: symtab.Absolute{V: v}}, DependencySet{}
	case AttrUsing:
		active := 0
		if view.GetUsingEvaluator() != nil {
			// U' reports 1 if any active USING maps the label, else 0;
			// the actual mapping lookup is a symtab/using concern the
			// dispatcher resolves before constructing this AttrRef, so
			// here we just surface whatever the view precomputed via
			// the candidate's Int field as a 0/1 flag.
			if c.State == CandidateDefined {
				active = int(c.Attrs.Int)
			}
		}
		return Result{Value: symtab.Absolute{V: int32(active)}}, DependencySet{}
	case AttrOpcode:
		return Result{Value: symtab.Absolute{V: 0}}, DependencySet{}
	}
	return Result{Value: symtab.Undefined{}}, DependencySet{}
}

func evalUnOp(n UnOp, view SolverView, mode Mode) (Result, DependencySet) {
	xr, xd := Eval(n.X, view, mode)
	if mode == CollectDependencies && !xd.Empty() {
		return Result{}, xd
	}
	xv, xIsAbs := asAbsolute(xr.Value)
	switch n.Op {
	case OpNeg:
		if xIsAbs {
			return Result{Value: symtab.Absolute{V: -xv}}, DependencySet{}
		}
		if rel, ok := xr.Value.(symtab.Relocatable); ok {
			return Result{Value: symtab.Relocatable{A: address.Negate(rel.A)}}, DependencySet{}
		}
	case OpPos:
		return Result{Value: xr.Value}, DependencySet{}
	case OpNot:
		if xIsAbs {
			return Result{Value: symtab.Absolute{V: ^xv}}, DependencySet{}
		}
	}
	return Result{Value: symtab.Undefined{}}, DependencySet{}
}

func evalBinOp(n BinOp, view SolverView, mode Mode) (Result, DependencySet) {
	xr, xd := Eval(n.X, view, mode)
	if mode == CollectDependencies && !xd.Empty() {
		_, yd := Eval(n.Y, view, mode)
		return Result{}, mergeDeps(xd, yd)
	}
	yr, yd := Eval(n.Y, view, mode)
	if mode == CollectDependencies && !yd.Empty() {
		return Result{}, yd
	}

	// Relocatable arithmetic: +/- combine address components; everything
	// else requires both operands absolute.
	switch n.Op {
	case OpAdd:
		return combineAddresses(xr.Value, yr.Value, 1), DependencySet{}
	case OpSub:
		return combineAddresses(xr.Value, yr.Value, -1), DependencySet{}
	}

	xv, xok := asAbsolute(xr.Value)
	yv, yok := asAbsolute(yr.Value)
	if !xok || !yok {
		return Result{Value: symtab.Undefined{}}, DependencySet{}
	}
	switch n.Op {
	case OpMul:
		return Result{Value: symtab.Absolute{V: xv * yv}}, DependencySet{}
	case OpDiv:
		if yv == 0 {
			return Result{Value: symtab.Undefined{}, DivByZero: true}, DependencySet{}
		}
		return Result{Value: symtab.Absolute{V: xv / yv}}, DependencySet{} // Go / truncates toward zero
	case OpAnd:
		return Result{Value: symtab.Absolute{V: xv & yv}}, DependencySet{}
	case OpOr:
		return Result{Value: symtab.Absolute{V: xv | yv}}, DependencySet{}
	case OpXor:
		return Result{Value: symtab.Absolute{V: xv ^ yv}}, DependencySet{}
	case OpShl:
		return Result{Value: symtab.Absolute{V: xv << uint32(yv)}}, DependencySet{}
	case OpShr:
		return Result{Value: symtab.Absolute{V: int32(uint32(xv) >> uint32(yv))}}, DependencySet{}
	}
	return Result{Value: symtab.Undefined{}}, DependencySet{}
}

func asAbsolute(v symtab.SymbolValue) (int32, bool) {
	if a, ok := v.(symtab.Absolute); ok {
		return a.V, true
	}
	return 0, false
}

// combineAddresses implements +/- between two SymbolValues that may each
// be Absolute, Relocatable, or Undefined, folding to Absolute when the
// relocatable components cancel and to Undefined when either side is
// already undefined.
func combineAddresses(x, y symtab.SymbolValue, ySign int32) Result {
	xa, xIsAddr := toAddress(x)
	ya, yIsAddr := toAddress(y)
	if !xIsAddr || !yIsAddr {
		return Result{Value: symtab.Undefined{}}
	}
	var sum address.Address
	if ySign < 0 {
		sum = address.Sub(xa, ya)
	} else {
		sum = address.Add(xa, ya)
	}
	if sum.IsAbsolute() {
		return Result{Value: symtab.Absolute{V: sum.Offset}}
	}
	return Result{Value: symtab.Relocatable{A: sum}}
}

func toAddress(v symtab.SymbolValue) (address.Address, bool) {
	switch t := v.(type) {
	case symtab.Absolute:
		return address.Address{Offset: t.V}, true
	case symtab.Relocatable:
		return t.A, true
	}
	return address.Address{}, false
}
