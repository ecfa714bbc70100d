package languageServer

import (
	"encoding/json"
	"fmt"

	"github.com/asmtools/hlasm-ordasm/expr"
	"github.com/asmtools/hlasm-ordasm/ident"
	"github.com/asmtools/hlasm-ordasm/ordasm"
)

// WireExpr is the JSON shape of an already-parsed expression tree: the
// client's statement-field parser (out of this core's scope) builds the
// tree, this just deserializes it into expr.Expr nodes. Kind selects
// which fields apply, mirroring a tagged union over the wire.
type WireExpr struct {
	Kind string    `json:"kind"` // "int" | "symbol" | "loc" | "attr" | "literal" | "unop" | "binop"
	Int  int32     `json:"int,omitempty"`
	Name string    `json:"name,omitempty"`
	Attr string    `json:"attr,omitempty"` // "T","L","S","I" for attr kind
	Op   string    `json:"op,omitempty"`   // "+","-","*","/" for unop/binop
	A    *WireExpr `json:"a,omitempty"`
	B    *WireExpr `json:"b,omitempty"`
}

func attrKind(s string) expr.AttrKind {
	switch s {
	case "T":
		return expr.AttrType
	case "L":
		return expr.AttrLength
	case "S":
		return expr.AttrScale
	case "I":
		return expr.AttrInteger
	}
	return expr.AttrType
}

func binOp(s string) expr.Op {
	switch s {
	case "+":
		return expr.OpAdd
	case "-":
		return expr.OpSub
	case "*":
		return expr.OpMul
	case "/":
		return expr.OpDiv
	case "&":
		return expr.OpAnd
	case "|":
		return expr.OpOr
	case "^":
		return expr.OpXor
	case "<<":
		return expr.OpShl
	case ">>":
		return expr.OpShr
	}
	return expr.OpAdd
}

func unOp(s string) expr.Op {
	switch s {
	case "-":
		return expr.OpNeg
	case "+":
		return expr.OpPos
	case "~":
		return expr.OpNot
	}
	return expr.OpPos
}

func (w *WireExpr) toExpr(in *ident.Interner) (expr.Expr, error) {
	if w == nil {
		return nil, nil
	}
	switch w.Kind {
	case "int":
		return expr.IntLit{V: w.Int}, nil
	case "symbol":
		id, err := in.Intern(w.Name)
		if err != nil {
			return nil, err
		}
		return expr.SymbolRef{Name: id}, nil
	case "loc":
		return expr.LocCounterRef{}, nil
	case "attr":
		id, err := in.Intern(w.Name)
		if err != nil {
			return nil, err
		}
		return expr.AttrRef{Kind: attrKind(w.Attr), Target: id}, nil
	case "literal":
		id, err := in.Intern(w.Name)
		if err != nil {
			return nil, err
		}
		return expr.LiteralRef{Name: id}, nil
	case "unop":
		a, err := w.A.toExpr(in)
		if err != nil {
			return nil, err
		}
		return expr.UnOp{Op: unOp(w.Op), X: a}, nil
	case "binop":
		a, err := w.A.toExpr(in)
		if err != nil {
			return nil, err
		}
		b, err := w.B.toExpr(in)
		if err != nil {
			return nil, err
		}
		return expr.BinOp{Op: binOp(w.Op), X: a, Y: b}, nil
	default:
		return nil, fmt.Errorf("languageServer: unknown expression kind %q", w.Kind)
	}
}

// WireOperand mirrors ordasm.Operand as a tagged JSON union.
type WireOperand struct {
	Kind     string        `json:"kind"` // "expr" | "name" | "string" | "baseend" | "complex" | "empty"
	Expr     *WireExpr     `json:"expr,omitempty"`
	Raw      string        `json:"raw,omitempty"`
	Name     string        `json:"name,omitempty"`
	Text     string        `json:"text,omitempty"`
	Base     *WireExpr     `json:"base,omitempty"`
	End      *WireExpr     `json:"end,omitempty"`
	HasEnd   bool          `json:"hasEnd,omitempty"`
	Keyword  string        `json:"keyword,omitempty"`
	Args     []WireOperand `json:"args,omitempty"`
}

func (w WireOperand) toOperand(in *ident.Interner) (ordasm.Operand, error) {
	switch w.Kind {
	case "expr":
		e, err := w.Expr.toExpr(in)
		if err != nil {
			return nil, err
		}
		return ordasm.ExprOperand{E: e, Raw: w.Raw}, nil
	case "name":
		id, err := in.Intern(w.Name)
		if err != nil {
			return nil, err
		}
		return ordasm.NameOperand{Name: id, Raw: w.Raw}, nil
	case "string":
		return ordasm.StringOperand{Text: w.Text}, nil
	case "baseend":
		base, err := w.Base.toExpr(in)
		if err != nil {
			return nil, err
		}
		end, err := w.End.toExpr(in)
		if err != nil {
			return nil, err
		}
		return ordasm.BaseEndOperand{Base: base, End: end, HasEnd: w.HasEnd}, nil
	case "complex":
		args := make([]ordasm.Operand, 0, len(w.Args))
		for _, a := range w.Args {
			op, err := a.toOperand(in)
			if err != nil {
				return nil, err
			}
			args = append(args, op)
		}
		return ordasm.ComplexOperand{Keyword: w.Keyword, Args: args}, nil
	case "empty", "":
		return ordasm.EmptyOperand{}, nil
	default:
		return nil, fmt.Errorf("languageServer: unknown operand kind %q", w.Kind)
	}
}

// WireStatement mirrors ordasm.Statement as a wire-friendly shape.
type WireStatement struct {
	Line     int           `json:"line"`
	Char     int           `json:"char"`
	EndLine  int           `json:"endLine,omitempty"`
	EndChar  int           `json:"endChar,omitempty"`
	Label    string        `json:"label,omitempty"`
	Op       string        `json:"op"`
	Operands []WireOperand `json:"operands,omitempty"`
	Raw      string        `json:"raw,omitempty"`
}

func (w WireStatement) toStatement(in *ident.Interner) (ordasm.Statement, error) {
	stmt := ordasm.Statement{
		Pos:     ordasm.SourcePos{Line: w.Line, Char: w.Char},
		Range:   ordasm.SourcePos{Line: w.EndLine, Char: w.EndChar},
		Op:      w.Op,
		Raw:     w.Raw,
		LabelRaw: w.Label,
	}
	if w.Label != "" {
		id, err := in.Intern(w.Label)
		if err != nil {
			return ordasm.Statement{}, err
		}
		stmt.Label = id
		stmt.HasLabel = true
	}
	stmt.Operands = make([]ordasm.Operand, 0, len(w.Operands))
	for _, wo := range w.Operands {
		op, err := wo.toOperand(in)
		if err != nil {
			return ordasm.Statement{}, err
		}
		stmt.Operands = append(stmt.Operands, op)
	}
	return stmt, nil
}

// DecodeStatements parses a JSON array of WireStatement objects (the same
// shape ordasm/analyzeStatements carries) into a rebuilt-statement slice,
// for standalone debug tooling that bypasses the JSON-RPC transport.
func DecodeStatements(data []byte, in *ident.Interner) ([]ordasm.Statement, error) {
	var wireStmts []WireStatement
	if err := json.Unmarshal(data, &wireStmts); err != nil {
		return nil, err
	}
	out := make([]ordasm.Statement, 0, len(wireStmts))
	for _, ws := range wireStmts {
		stmt, err := ws.toStatement(in)
		if err != nil {
			return nil, err
		}
		out = append(out, stmt)
	}
	return out, nil
}
