package ordasm_test

import (
	"context"
	"testing"

	"github.com/asmtools/hlasm-ordasm/diag"
	"github.com/asmtools/hlasm-ordasm/expr"
	"github.com/asmtools/hlasm-ordasm/ident"
	"github.com/asmtools/hlasm-ordasm/ordasm"
	"github.com/asmtools/hlasm-ordasm/symtab"
)

// newProc returns a fresh Processor sharing in's interner, failing the
// test immediately on construction error.
func newProc(t *testing.T, in *ident.Interner) *ordasm.Processor {
	t.Helper()
	p, err := ordasm.NewProcessor(ordasm.Options{IDStorage: in})
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}
	return p
}

// TestScenarioOrgComplexBoundary reproduces `ORG *,complex(operand)`: the
// boundary operand isn't an expression at all, which is a format error
// (A115) rather than an out-of-range boundary (A116).
func TestScenarioOrgComplexBoundary(t *testing.T) {
	in := ident.NewInterner()
	p := newProc(t, in)

	stmt := ordasm.Statement{
		Op: "ORG",
		Operands: []ordasm.Operand{
			ordasm.ExprOperand{E: expr.LocCounterRef{}, Raw: "*"},
			ordasm.ComplexOperand{Keyword: "COMPLEX", Args: []ordasm.Operand{
				ordasm.NameOperand{Name: in.MustIntern("OPERAND"), Raw: "OPERAND"},
			}},
		},
	}
	p.Load([]ordasm.Statement{stmt})
	diags := p.Analyze()

	if len(diags) != 1 || diags[0].Code != "A115" {
		t.Fatalf("expected exactly one A115, got %+v", diags)
	}
}

// TestScenarioExtrnPartEmptyOperands reproduces `EXTRN PART(,)`: every
// empty sub-operand inside PART() is A129.
func TestScenarioExtrnPartEmptyOperands(t *testing.T) {
	in := ident.NewInterner()
	p := newProc(t, in)

	stmt := ordasm.Statement{
		Op: "EXTRN",
		Operands: []ordasm.Operand{
			ordasm.ComplexOperand{Keyword: "PART", Args: []ordasm.Operand{
				ordasm.EmptyOperand{}, ordasm.EmptyOperand{},
			}},
		},
	}
	p.Load([]ordasm.Statement{stmt})
	diags := p.Analyze()

	if len(diags) == 0 {
		t.Fatalf("expected at least one diagnostic, got none")
	}
	for _, d := range diags {
		if d.Code != "A129" {
			t.Fatalf("expected only A129 diagnostics, got %+v", diags)
		}
	}
}

// TestScenarioMnoteWarning reproduces `MNOTE 5,'test'`: a single MNOTE
// diagnostic at warning severity carrying the message verbatim.
func TestScenarioMnoteWarning(t *testing.T) {
	in := ident.NewInterner()
	p := newProc(t, in)

	stmt := ordasm.Statement{
		Op: "MNOTE",
		Operands: []ordasm.Operand{
			ordasm.ExprOperand{E: expr.IntLit{V: 5}, Raw: "5"},
			ordasm.StringOperand{Text: "test"},
		},
	}
	p.Load([]ordasm.Statement{stmt})
	diags := p.Analyze()

	if len(diags) != 1 {
		t.Fatalf("expected exactly one diagnostic, got %+v", diags)
	}
	d := diags[0]
	if d.Code != "MNOTE" || d.Message != "test" || d.Severity != diag.Warning {
		t.Fatalf("unexpected diagnostic: %+v", d)
	}
}

// TestScenarioMnoteError reproduces the `&L SETA 8` / `&M SETC 'test
// message'` / `MNOTE &L,'&M'` sequence: variable-symbol substitution is
// out of this package's scope, so the statement arrives with the
// substituted values already in place (level 8, text "test message"),
// and MNOTE reports it at error severity.
func TestScenarioMnoteError(t *testing.T) {
	in := ident.NewInterner()
	p := newProc(t, in)

	stmt := ordasm.Statement{
		Op: "MNOTE",
		Operands: []ordasm.Operand{
			ordasm.ExprOperand{E: expr.IntLit{V: 8}, Raw: "8"},
			ordasm.StringOperand{Text: "test message"},
		},
	}
	p.Load([]ordasm.Statement{stmt})
	diags := p.Analyze()

	if len(diags) != 1 {
		t.Fatalf("expected exactly one diagnostic, got %+v", diags)
	}
	d := diags[0]
	if d.Code != "MNOTE" || d.Message != "test message" || d.Severity != diag.Error {
		t.Fatalf("unexpected diagnostic: %+v", d)
	}
}

// fakeLibraryProvider serves two mutually-COPYing members, A and B, for
// the recursive-COPY scenario; GetLibrary's text is never re-lexed here
// since that belongs to the host, only the cycle check matters.
type fakeLibraryProvider struct{ in *ident.Interner }

func (f fakeLibraryProvider) ParseLibrary(ctx context.Context, name ident.ID, data ordasm.LibraryData) (bool, error) {
	return true, nil
}

func (f fakeLibraryProvider) GetLibrary(ctx context.Context, name ident.ID) (string, string, bool) {
	switch f.in.Text(name) {
	case "A":
		return " COPY B\n", "", true
	case "B":
		return " COPY A\n", "", true
	}
	return "", "", false
}

func (f fakeLibraryProvider) HasLibrary(name ident.ID) bool {
	t := f.in.Text(name)
	return t == "A" || t == "B"
}

// TestScenarioRecursiveCopy reproduces member A COPY B, B COPY A: the
// host enters A, feeds "COPY B", enters B, feeds "COPY A" which closes
// the cycle, and must see exactly one E062; nothing else re-enters A
// since the dispatcher refuses before the host can feed any more of A's
// body.
func TestScenarioRecursiveCopy(t *testing.T) {
	in := ident.NewInterner()
	p, err := ordasm.NewProcessor(ordasm.Options{IDStorage: in, LibraryProvider: fakeLibraryProvider{in: in}})
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}

	a := in.MustIntern("A")
	b := in.MustIntern("B")

	p.Load([]ordasm.Statement{
		{Op: "COPY", Operands: []ordasm.Operand{ordasm.NameOperand{Name: a, Raw: "A"}}},
		{Op: "COPY", Operands: []ordasm.Operand{ordasm.NameOperand{Name: b, Raw: "B"}}},
		{Op: "COPY", Operands: []ordasm.Operand{ordasm.NameOperand{Name: a, Raw: "A"}}},
	})
	diags := p.Analyze()

	found := 0
	for _, d := range diags {
		if d.Code == "E062" {
			found++
		}
	}
	if found != 1 {
		t.Fatalf("expected exactly one E062, got %d (all: %+v)", found, diags)
	}
}

// TestScenarioEquCycle reproduces "A EQU B+1 / B EQU A+1" end to end
// through the dispatcher: exactly one E033, and neither symbol ever
// resolves to a defined value.
func TestScenarioEquCycle(t *testing.T) {
	in := ident.NewInterner()
	p := newProc(t, in)

	a := in.MustIntern("A")
	b := in.MustIntern("B")

	p.Load([]ordasm.Statement{
		{Op: "EQU", HasLabel: true, Label: a, Operands: []ordasm.Operand{
			ordasm.ExprOperand{E: expr.BinOp{Op: expr.OpAdd, X: expr.SymbolRef{Name: b}, Y: expr.IntLit{V: 1}}},
		}},
		{Op: "EQU", HasLabel: true, Label: b, Operands: []ordasm.Operand{
			ordasm.ExprOperand{E: expr.BinOp{Op: expr.OpAdd, X: expr.SymbolRef{Name: a}, Y: expr.IntLit{V: 1}}},
		}},
	})
	diags := p.Analyze()

	found := 0
	for _, d := range diags {
		if d.Code == "E033" {
			found++
		}
	}
	if found != 1 {
		t.Fatalf("expected exactly one E033, got %d (all: %+v)", found, diags)
	}

	syms := p.Context()
	for _, name := range []ident.ID{a, b} {
		sym := syms.Lookup(name)
		if sym != nil && symtab.IsDefined(sym.Value) {
			t.Fatalf("symbol %q should remain undefined after a reported cycle", in.Text(name))
		}
	}
}

// TestScenarioEquSelfCancel reproduces "X CSECT / Y DS CL5 / Z EQU
// Y+5-Y": no diagnostics, Z settles to Absolute(5), and Y's length
// attribute is 5.
func TestScenarioEquSelfCancel(t *testing.T) {
	in := ident.NewInterner()
	p := newProc(t, in)

	x := in.MustIntern("X")
	y := in.MustIntern("Y")
	z := in.MustIntern("Z")

	p.Load([]ordasm.Statement{
		{Op: "CSECT", HasLabel: true, Label: x},
		{Op: "DS", HasLabel: true, Label: y, DataDefs: []ordasm.DataDef{
			{TypeLetter: 'C', HasLength: true, Length: expr.IntLit{V: 5}},
		}},
		{Op: "EQU", HasLabel: true, Label: z, Operands: []ordasm.Operand{
			ordasm.ExprOperand{E: expr.BinOp{
				Op: expr.OpSub,
				X:  expr.BinOp{Op: expr.OpAdd, X: expr.SymbolRef{Name: y}, Y: expr.IntLit{V: 5}},
				Y:  expr.SymbolRef{Name: y},
			}},
		}},
	})
	diags := p.Analyze()
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %+v", diags)
	}

	syms := p.Context()
	ySym := syms.Lookup(y)
	if ySym == nil || ySym.Attrs.Length != 5 {
		t.Fatalf("expected Y's length attribute to be 5, got %+v", ySym)
	}
	zSym := syms.Lookup(z)
	if zSym == nil {
		t.Fatalf("Z was never defined")
	}
	abs, ok := zSym.Value.(symtab.Absolute)
	if !ok || abs.V != 5 {
		t.Fatalf("expected Z = Absolute(5), got %+v", zSym.Value)
	}
}

// TestScenarioPopUsingMismatch reproduces "PUSH USING / A USING *,15 /
// POP USING / POP USING": the second POP USING has nothing left to pop
// and reports exactly one A165.
func TestScenarioPopUsingMismatch(t *testing.T) {
	in := ident.NewInterner()
	p := newProc(t, in)

	usingKw := ordasm.NameOperand{Raw: "USING"}

	p.Load([]ordasm.Statement{
		{Op: "PUSH", Operands: []ordasm.Operand{usingKw}},
		{Op: "USING", HasLabel: true, Label: in.MustIntern("A"), Operands: []ordasm.Operand{
			ordasm.ExprOperand{E: expr.LocCounterRef{}, Raw: "*"},
			ordasm.ExprOperand{E: expr.IntLit{V: 15}, Raw: "15"},
		}},
		{Op: "POP", Operands: []ordasm.Operand{usingKw}},
		{Op: "POP", Operands: []ordasm.Operand{usingKw}},
	})
	diags := p.Analyze()

	found := 0
	for _, d := range diags {
		if d.Code == "A165" {
			found++
		}
	}
	if found != 1 {
		t.Fatalf("expected exactly one A165, got %d (all: %+v)", found, diags)
	}
}
