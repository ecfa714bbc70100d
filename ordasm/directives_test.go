package ordasm_test

import (
	"testing"

	"github.com/asmtools/hlasm-ordasm/diag"
	"github.com/asmtools/hlasm-ordasm/expr"
	"github.com/asmtools/hlasm-ordasm/ident"
	"github.com/asmtools/hlasm-ordasm/ordasm"
)

func hasCode(diags []diag.Diagnostic, code string) bool {
	for _, d := range diags {
		if d.Code == code {
			return true
		}
	}
	return false
}

// TestOpsynRemoveUnknownLabel covers `LABEL OPSYN` with no prior
// rebinding registered under LABEL: E049.
func TestOpsynRemoveUnknownLabel(t *testing.T) {
	in := ident.NewInterner()
	p := newProc(t, in)

	p.Load([]ordasm.Statement{
		{Op: "OPSYN", HasLabel: true, Label: in.MustIntern("FOO")},
	})
	diags := p.Analyze()
	if !hasCode(diags, "E049") {
		t.Fatalf("expected E049, got %+v", diags)
	}
}

// TestOpsynTargetUnknown covers `LABEL OPSYN NOTAMNEMONIC`, where the
// target is neither a directive mnemonic nor an already-rebound OPSYN
// source: A246.
func TestOpsynTargetUnknown(t *testing.T) {
	in := ident.NewInterner()
	p := newProc(t, in)

	p.Load([]ordasm.Statement{
		{Op: "OPSYN", HasLabel: true, Label: in.MustIntern("FOO"), Operands: []ordasm.Operand{
			ordasm.NameOperand{Name: in.MustIntern("NOTAMNEMONIC"), Raw: "NOTAMNEMONIC"},
		}},
	})
	diags := p.Analyze()
	if !hasCode(diags, "A246") {
		t.Fatalf("expected A246, got %+v", diags)
	}
}

// TestOpsynRebindThenResolvesAsKnown covers rebinding an OPSYN source to
// a real directive, then using that source name as a later OPSYN's
// target: no diagnostic, since isKnownOperation also accepts existing
// OPSYN sources.
func TestOpsynRebindThenResolvesAsKnown(t *testing.T) {
	in := ident.NewInterner()
	p := newProc(t, in)

	p.Load([]ordasm.Statement{
		{Op: "OPSYN", HasLabel: true, Label: in.MustIntern("MYEQU"), Operands: []ordasm.Operand{
			ordasm.NameOperand{Name: in.MustIntern("EQU"), Raw: "EQU"},
		}},
		{Op: "OPSYN", HasLabel: true, Label: in.MustIntern("ALIAS2"), Operands: []ordasm.Operand{
			ordasm.NameOperand{Name: in.MustIntern("MYEQU"), Raw: "MYEQU"},
		}},
	})
	diags := p.Analyze()
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %+v", diags)
	}
}

// TestCsectDsectKindConflict covers declaring the same name as both
// CSECT and DSECT: a section-kind conflict surfaces as a duplicate
// symbol diagnostic (E031) against the name's first definition.
func TestCsectDsectKindConflict(t *testing.T) {
	in := ident.NewInterner()
	p := newProc(t, in)

	name := in.MustIntern("PART1")
	p.Load([]ordasm.Statement{
		{Op: "CSECT", HasLabel: true, Label: name},
		{Op: "DSECT", HasLabel: true, Label: name},
	})
	diags := p.Analyze()
	if !hasCode(diags, "E031") {
		t.Fatalf("expected E031 on section-kind conflict, got %+v", diags)
	}
}

// TestAliasMissingLabel covers a labelless ALIAS: A163.
func TestAliasMissingLabel(t *testing.T) {
	in := ident.NewInterner()
	p := newProc(t, in)

	p.Load([]ordasm.Statement{
		{Op: "ALIAS", Operands: []ordasm.Operand{ordasm.StringOperand{Text: "C'ALTNAME'"}}},
	})
	diags := p.Analyze()
	if !hasCode(diags, "A163") {
		t.Fatalf("expected A163, got %+v", diags)
	}
}

// TestTitleRedefinition covers two TITLE statements: the second is W016.
func TestTitleRedefinition(t *testing.T) {
	in := ident.NewInterner()
	p := newProc(t, in)

	p.Load([]ordasm.Statement{
		{Op: "TITLE", HasLabel: true, LabelRaw: "'first title'"},
		{Op: "TITLE", HasLabel: true, LabelRaw: "'second title'"},
	})
	diags := p.Analyze()
	if !hasCode(diags, "W016") {
		t.Fatalf("expected W016 on second TITLE, got %+v", diags)
	}
}

// TestDropMalformedOperand covers a DROP operand that isn't an
// expression at all: A141.
func TestDropMalformedOperand(t *testing.T) {
	in := ident.NewInterner()
	p := newProc(t, in)

	p.Load([]ordasm.Statement{
		{Op: "DROP", Operands: []ordasm.Operand{ordasm.StringOperand{Text: "notaregister"}}},
	})
	diags := p.Analyze()
	if !hasCode(diags, "A141") {
		t.Fatalf("expected A141, got %+v", diags)
	}
}

// TestDropRegisterValid covers a well-formed DROP 5 with nothing mapped
// to register 5 yet: no diagnostic, just a silent no-op drop.
func TestDropRegisterValid(t *testing.T) {
	in := ident.NewInterner()
	p := newProc(t, in)

	p.Load([]ordasm.Statement{
		{Op: "DROP", Operands: []ordasm.Operand{ordasm.ExprOperand{E: expr.IntLit{V: 5}, Raw: "5"}}},
	})
	diags := p.Analyze()
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %+v", diags)
	}
}
