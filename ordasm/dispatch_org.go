package ordasm

import (
	"github.com/asmtools/hlasm-ordasm/diag"
	"github.com/asmtools/hlasm-ordasm/expr"
	"github.com/asmtools/hlasm-ordasm/section"
	"github.com/asmtools/hlasm-ordasm/symtab"
)

// dispatchOrg implements ORG: no operands restores the highest location
// ever reached in the current counter (IBM's "highest used", not the
// counter's current value). Otherwise operand 1 is the target
// relocatable address (must evaluate relocatable with no dependencies,
// else A245), operand 2 an optional boundary (power of two 2..4096,
// else A116), operand 3 an optional offset. Backward past the section's
// origin is E068.
func (p *Processor) dispatchOrg(stmt Statement) {
	if len(stmt.Operands) == 0 {
		p.sections.SetAvailableLocationCounterValue()
		return
	}
	if len(stmt.Operands) > 3 {
		p.sink.Add(diag.Errors.TooManyOperands("ORG", 3, len(stmt.Operands), rangeOf(stmt.Pos)))
		return
	}

	targetOp, ok := stmt.Operands[0].(ExprOperand)
	if !ok {
		p.sink.Add(diag.Errors.OrgExpression(rangeOf(stmt.Pos)))
		return
	}
	view := p.currentView()
	res, deps := expr.Eval(targetOp.E, view, expr.CollectDependencies)
	if !deps.Empty() {
		p.sink.Add(diag.Errors.OrgExpression(rangeOf(stmt.Pos)))
		return
	}
	res, _ = expr.Eval(targetOp.E, view, expr.Evaluate)
	rel, ok := res.Value.(symtab.Relocatable)
	if !ok {
		p.sink.Add(diag.Errors.OrgExpression(rangeOf(stmt.Pos)))
		return
	}

	boundary := int32(1)
	if len(stmt.Operands) > 1 {
		if _, empty := stmt.Operands[1].(EmptyOperand); !empty {
			if _, isExpr := stmt.Operands[1].(ExprOperand); !isExpr {
				p.sink.Add(diag.Errors.OrgOperandFormat(rangeOf(stmt.Pos)))
				return
			}
			b, ok := p.orgSmallAbs(stmt, 1)
			if !ok {
				p.sink.Add(diag.Errors.OrgOperandFormat(rangeOf(stmt.Pos)))
				return
			}
			if b < 2 || b > 4096 || (b&(b-1)) != 0 {
				p.sink.Add(diag.Errors.OrgBoundary(rangeOf(stmt.Pos)))
				return
			}
			boundary = b
		}
	}
	offset := int32(0)
	if len(stmt.Operands) > 2 {
		if _, empty := stmt.Operands[2].(EmptyOperand); !empty {
			o, ok := p.orgSmallAbs(stmt, 2)
			if !ok {
				p.sink.Add(diag.Errors.OrgOperandFormat(rangeOf(stmt.Pos)))
				return
			}
			offset = o
		}
	}

	if err := p.sections.SetLocationCounterValue(rel.A, boundary, offset); err != nil {
		if err == section.ErrOrgUnderflow {
			p.sink.Add(diag.Errors.OrgUnderflow(rangeOf(stmt.Pos)))
		} else {
			p.sink.Add(diag.Errors.OrgOperandFormat(rangeOf(stmt.Pos)))
		}
	}
}

func (p *Processor) orgSmallAbs(stmt Statement, idx int) (int32, bool) {
	eo, ok := stmt.Operands[idx].(ExprOperand)
	if !ok {
		return 0, false
	}
	view := p.currentView()
	_, deps := expr.Eval(eo.E, view, expr.CollectDependencies)
	if !deps.Empty() {
		return 0, false
	}
	res, _ := expr.Eval(eo.E, view, expr.Evaluate)
	if abs, ok := res.Value.(symtab.Absolute); ok {
		return abs.V, true
	}
	return 0, false
}
