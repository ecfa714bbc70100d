package diag

import (
	"strconv"
	"strings"
)

// AdjustRange trims leading/trailing space characters from text and shrinks r to
// match, so a diagnostic anchored on an operand never highlights the
// padding around it. Ported from the teacher's own AdjustRange helper.
func AdjustRange(r TextRange, text string) (TextRange, string) {
	for len(text) > 0 && text[0] == ' ' {
		text = text[1:]
		r.Start.Char++
	}
	for len(text) > 0 && text[len(text)-1] == ' ' {
		text = text[:len(text)-1]
		r.End.Char--
	}
	return r, text
}

const source = "HLASM"

// semanticError groups the E0xx/A0xx-A3xx factory methods produced by the
// directive dispatcher, following the teacher's one-factory-method-per-
// diagnostic pattern on a zero-size receiver type.
type semanticError struct{}

// Errors is the semanticError factory table.
var Errors semanticError

func mk(code string, sev Severity, kind Kind, r TextRange, msg string) Diagnostic {
	return Diagnostic{Code: code, Severity: sev, Message: msg, Range: r, Source: source, kind: kind}
}

// DuplicateSymbol is E031: a symbol was defined more than once.
func (semanticError) DuplicateSymbol(name string, r TextRange, firstDef TextRange) Diagnostic {
	d := mk("E031", Error, KindSemantic, r, "Symbol \""+name+"\" already defined")
	d.Related = []RelatedInfo{{Range: firstDef, Message: "first defined here"}}
	return d
}

// EndValueAbsolute is E032: END's entry-point operand must not be absolute.
func (semanticError) EndValueAbsolute(r TextRange) Diagnostic {
	return mk("E032", Error, KindSemantic, r, "END operand value must not be absolute")
}

// CyclicDefinition is E033: a cycle exists in the symbol "defines" graph.
func (semanticError) CyclicDefinition(members []string, r TextRange) Diagnostic {
	return mk("E033", Error, KindDependency, r, "Cyclic definition involving: "+strings.Join(members, ", "))
}

// UnknownMnemonicForOpsyn is E049: OPSYN removal named an unknown mnemonic.
func (semanticError) UnknownMnemonicForOpsyn(name string, r TextRange) Diagnostic {
	return mk("E049", Error, KindSemantic, r, "Unknown operation code \""+name+"\"")
}

// MissingMandatoryLabel is E053: a directive that requires a label had none.
func (semanticError) MissingMandatoryLabel(directive string, r TextRange) Diagnostic {
	return mk("E053", Error, KindSemantic, r, directive+" requires a label")
}

// InvalidCopyOperand is E058: COPY's operand was not a valid member name.
func (semanticError) InvalidCopyOperand(r TextRange) Diagnostic {
	return mk("E058", Error, KindSemantic, r, "Invalid COPY operand")
}

// RecursiveCopy is E062: a COPY member transitively copies itself.
func (semanticError) RecursiveCopy(member string, r TextRange) Diagnostic {
	return mk("E062", Error, KindExternal, r, "Recursive COPY of member \""+member+"\"")
}

// InvalidName is E065: a name did not meet HLASM identifier rules.
func (semanticError) InvalidName(name string, r TextRange) Diagnostic {
	r, name = AdjustRange(r, name)
	return mk("E065", Error, KindSemantic, r, "Invalid name: \""+name+"\"")
}

// OrgUnderflow is E068: ORG moved before the start of the current section.
func (semanticError) OrgUnderflow(r TextRange) Diagnostic {
	return mk("E068", Error, KindSemantic, r, "ORG operand is before the section's starting location")
}

// StartAfterCode is E073: START appeared after code was already emitted.
func (semanticError) StartAfterCode(r TextRange) Diagnostic {
	return mk("E073", Error, KindSemantic, r, "START must be the first statement in a section")
}

// TooFewOperands is A011.
func (semanticError) TooFewOperands(directive string, want, got int, r TextRange) Diagnostic {
	return mk("A011", Error, KindSemantic, r, directive+" requires at least "+strconv.Itoa(want)+" operand(s), got "+strconv.Itoa(got))
}

// TooManyOperands is A012.
func (semanticError) TooManyOperands(directive string, want, got int, r TextRange) Diagnostic {
	return mk("A012", Error, KindSemantic, r, directive+" accepts at most "+strconv.Itoa(want)+" operand(s), got "+strconv.Itoa(got))
}

// WrongOperandCount is A013: an exact operand count was required and not met.
func (semanticError) WrongOperandCount(directive string, want, got int, r TextRange) Diagnostic {
	return mk("A013", Error, KindSemantic, r, directive+" requires exactly "+strconv.Itoa(want)+" operand(s), got "+strconv.Itoa(got))
}

// EmptyOperandNotAllowed is A021.
func (semanticError) EmptyOperandNotAllowed(r TextRange) Diagnostic {
	return mk("A021", Error, KindSemantic, r, "Empty operand not allowed here")
}

// UsingFirstOperand is A104: USING's first operand was malformed.
func (semanticError) UsingFirstOperand(r TextRange) Diagnostic {
	return mk("A104", Error, KindSemantic, r, "Invalid USING base operand")
}

// OrgOperandFormat is A115.
func (semanticError) OrgOperandFormat(r TextRange) Diagnostic {
	return mk("A115", Error, KindSemantic, r, "Invalid ORG operand format")
}

// OrgBoundary is A116.
func (semanticError) OrgBoundary(r TextRange) Diagnostic {
	return mk("A116", Error, KindSemantic, r, "ORG boundary operand must be a power of two between 2 and 4096")
}

// MnoteSize is A117.
func (semanticError) MnoteSize(r TextRange) Diagnostic {
	return mk("A117", Error, KindSemantic, r, "MNOTE message too long")
}

// MnoteLevelFormat is A118.
func (semanticError) MnoteLevelFormat(r TextRange) Diagnostic {
	return mk("A118", Error, KindSemantic, r, "Invalid MNOTE severity operand")
}

// MnoteLevelRange is A119.
func (semanticError) MnoteLevelRange(r TextRange) Diagnostic {
	return mk("A119", Error, KindSemantic, r, "MNOTE severity must be 0-255 or *")
}

// ExtrnPartEmptyOperand is A129: PART(...) had an empty sub-operand.
func (semanticError) ExtrnPartEmptyOperand(r TextRange) Diagnostic {
	return mk("A129", Error, KindSemantic, r, "Empty operand not allowed in PART()")
}

// EquValue is A132.
func (semanticError) EquValue(r TextRange) Diagnostic {
	return mk("A132", Error, KindSemantic, r, "Invalid EQU value operand")
}

// EquLength is A133.
func (semanticError) EquLength(r TextRange) Diagnostic {
	return mk("A133", Error, KindSemantic, r, "Invalid EQU length operand")
}

// EquType is A134.
func (semanticError) EquType(r TextRange) Diagnostic {
	return mk("A134", Error, KindSemantic, r, "Invalid EQU type operand")
}

// DropOperandFormat is A141.
func (semanticError) DropOperandFormat(r TextRange) Diagnostic {
	return mk("A141", Error, KindSemantic, r, "Invalid DROP operand")
}

// AinsertOperandTooLong is A156.
func (semanticError) AinsertOperandTooLong(r TextRange) Diagnostic {
	return mk("A156", Error, KindSemantic, r, "AINSERT record must not exceed 80 characters")
}

// AinsertOperandFormat is A157.
func (semanticError) AinsertOperandFormat(r TextRange) Diagnostic {
	return mk("A157", Error, KindSemantic, r, "Invalid AINSERT operand")
}

// AliasLabelMissing is A163.
func (semanticError) AliasLabelMissing(r TextRange) Diagnostic {
	return mk("A163", Error, KindSemantic, r, "ALIAS requires a label")
}

// UsingMapping is A164.
func (semanticError) UsingMapping(r TextRange) Diagnostic {
	return mk("A164", Error, KindSemantic, r, "Invalid USING register mapping")
}

// PopUsingMismatch is A165.
func (semanticError) PopUsingMismatch(r TextRange) Diagnostic {
	return mk("A165", Error, KindSemantic, r, "POP USING has no matching PUSH USING")
}

// OrgExpression is A245.
func (semanticError) OrgExpression(r TextRange) Diagnostic {
	return mk("A245", Error, KindSemantic, r, "ORG target must be a relocatable expression")
}

// OpsynTargetUnknown is A246.
func (semanticError) OpsynTargetUnknown(name string, r TextRange) Diagnostic {
	return mk("A246", Error, KindSemantic, r, "Unknown target operation code \""+name+"\"")
}

// LabelExpected is A249.
func (semanticError) LabelExpected(r TextRange) Diagnostic {
	return mk("A249", Error, KindSemantic, r, "Label expected")
}

// LabelUnexpected is A251.
func (semanticError) LabelUnexpected(r TextRange) Diagnostic {
	return mk("A251", Error, KindSemantic, r, "Label not allowed here")
}

// StartMustBeAbsolute is A250.
func (semanticError) StartMustBeAbsolute(r TextRange) Diagnostic {
	return mk("A250", Error, KindSemantic, r, "START operand must be absolute")
}

// UnresolvedDependency is E034: a symbol's defining expression never
// became computable (no cycle was detected; something it depends on
// simply never got defined, e.g. a COPY member that failed to resolve).
func (semanticError) UnresolvedDependency(name string, r TextRange) Diagnostic {
	return mk("E034", Error, KindDependency, r, "Symbol \""+name+"\" could not be resolved")
}

// TitleRedefinition is W016.
func (semanticError) TitleRedefinition(r TextRange) Diagnostic {
	return mk("W016", Warning, KindSemantic, r, "TITLE already defined; redefining")
}
