package ordasm

import (
	"github.com/asmtools/hlasm-ordasm/depsolve"
	"github.com/asmtools/hlasm-ordasm/diag"
	"github.com/asmtools/hlasm-ordasm/expr"
	"github.com/asmtools/hlasm-ordasm/ident"
	"github.com/asmtools/hlasm-ordasm/symtab"
)

// dispatchEqu implements EQU (1-5 operands): operand 1 is the required
// value expression; operand 2 is an explicit length; operand 3 is the
// type, which sets T'. Operands 4 and 5 (program type, assembler type)
// are accepted but not read or stored.
// Length defaults to the value's leftmost-term length when that term is a
// defined non-absolute symbol, else 1. The value may have dependencies;
// if so the symbol is defined Undefined and enrolled with the solver,
// which reports E033 if the new edge closes a cycle.
func (p *Processor) dispatchEqu(stmt Statement) {
	name, ok := findLabelSymbol(p, stmt, "EQU")
	if !ok {
		return
	}
	if len(stmt.Operands) == 0 {
		p.sink.Add(diag.Errors.TooFewOperands("EQU", 1, 0, rangeOf(stmt.Pos)))
		return
	}
	if len(stmt.Operands) > 5 {
		p.sink.Add(diag.Errors.TooManyOperands("EQU", 5, len(stmt.Operands), rangeOf(stmt.Pos)))
		return
	}
	valueOp, ok := stmt.Operands[0].(ExprOperand)
	if !ok {
		p.sink.Add(diag.Errors.EquValue(rangeOf(stmt.Pos)))
		return
	}

	explicitLength, hasLength := p.equAttrOperand(stmt, 1)
	explicitType, hasType := p.equTypeOperand(stmt)

	view := p.currentView()
	pos := toDepsolvePos(stmt.Pos)

	resolver := depsolve.ResolverFunc(func() (symtab.SymbolValue, symtab.SymbolAttributes, depsolve.DependencySet, bool) {
		res, deps := expr.Eval(valueOp.E, view, expr.CollectDependencies)
		if !deps.Empty() {
			return nil, symtab.SymbolAttributes{}, depsolve.FromExprDeps(deps), false
		}
		res, _ = expr.Eval(valueOp.E, view, expr.Evaluate)
		attrs := p.equAttributes(valueOp.E, view, explicitLength, hasLength, explicitType, hasType)
		return res.Value, attrs, depsolve.DependencySet{}, true
	})

	cycleOK := p.solver.AddDefine(depsolve.SymbolKey(name), resolver, pos, func(v symtab.SymbolValue, attrs symtab.SymbolAttributes) {
		p.syms.Define(name, v, attrs, symtab.SourcePos{Line: stmt.Pos.Line, Char: stmt.Pos.Char})
		p.solver.NotifySymbolDefined(name)
	})
	if !cycleOK {
		p.syms.Define(name, symtab.Undefined{}, symtab.DefaultAttributes(), symtab.SourcePos{Line: stmt.Pos.Line, Char: stmt.Pos.Char})
	}
}

// equAttrOperand evaluates EQU's length operand (index 1) under the
// EQU attribute redirect view, reporting A133 on a malformed operand.
func (p *Processor) equAttrOperand(stmt Statement, idx int) (int32, bool) {
	if idx >= len(stmt.Operands) {
		return 0, false
	}
	if _, empty := stmt.Operands[idx].(EmptyOperand); empty {
		return 0, false
	}
	eo, ok := stmt.Operands[idx].(ExprOperand)
	if !ok {
		p.sink.Add(diag.Errors.EquLength(rangeOf(stmt.Pos)))
		return 0, false
	}
	view := p.equAttributeView()
	res, deps := expr.Eval(eo.E, view, expr.CollectDependencies)
	if !deps.Empty() {
		return 0, false
	}
	res, _ = expr.Eval(eo.E, view, expr.Evaluate)
	if abs, ok := res.Value.(symtab.Absolute); ok {
		return abs.V, true
	}
	p.sink.Add(diag.Errors.EquLength(rangeOf(stmt.Pos)))
	return 0, false
}

// equTypeOperand evaluates EQU's type operand (index 2), a single EBCDIC
// type letter given as a one-character string or small integer.
func (p *Processor) equTypeOperand(stmt Statement) (byte, bool) {
	if len(stmt.Operands) < 3 {
		return 0, false
	}
	switch o := stmt.Operands[2].(type) {
	case StringOperand:
		if len(o.Text) == 1 {
			return o.Text[0], true
		}
	case ExprOperand:
		view := p.equAttributeView()
		res, deps := expr.Eval(o.E, view, expr.CollectDependencies)
		if deps.Empty() {
			res, _ = expr.Eval(o.E, view, expr.Evaluate)
			if abs, ok := res.Value.(symtab.Absolute); ok {
				return byte(abs.V), true
			}
		}
	}
	p.sink.Add(diag.Errors.EquType(rangeOf(stmt.Pos)))
	return 0, false
}

// equAttributes derives the defined symbol's attributes: explicit length
// wins; otherwise, if the value's leftmost term is a defined non-absolute
// symbol, inherit that symbol's length; otherwise default to 1.
func (p *Processor) equAttributes(value expr.Expr, view expr.SolverView, explicitLength int32, hasLength bool, explicitType byte, hasType bool) symtab.SymbolAttributes {
	attrs := symtab.SymbolAttributes{Origin: symtab.OriginEQU, Type: 'U', Length: 1}
	if leftmost, ok := leftmostSymbol(value); ok {
		c := view.GetSymbolCandidate(leftmost)
		if c.State == expr.CandidateDefined {
			if _, isAbs := c.Value.(symtab.Absolute); !isAbs {
				attrs.Length = c.Attrs.Length
				attrs.Type = c.Attrs.Type
			}
		}
	}
	if hasLength {
		attrs.Length = explicitLength
	}
	if hasType {
		attrs.Type = explicitType
	}
	return attrs
}

// leftmostSymbol walks down the leftmost spine of an expression tree
// looking for a bare symbol reference, used by EQU's length-inheritance
// rule ("the value expression's leftmost term").
func leftmostSymbol(e expr.Expr) (ident.ID, bool) {
	for {
		switch n := e.(type) {
		case expr.SymbolRef:
			return n.Name, true
		case expr.UnOp:
			e = n.X
		case expr.BinOp:
			e = n.X
		default:
			return ident.Empty, false
		}
	}
}
