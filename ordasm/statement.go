package ordasm

import (
	"github.com/asmtools/hlasm-ordasm/expr"
	"github.com/asmtools/hlasm-ordasm/ident"
)

// SourcePos is a zero-based line/character source position, matching the
// diag package's TextPosition shape.
type SourcePos struct {
	Line int
	Char int
}

// Operand is the closed tagged union of rebuilt-statement operand shapes.
// The source distinguishes roughly ten operand kinds (expression, string,
// complex KEYWORD(args), base-end pair, register list, ...); modeling them
// as a closed variant keeps every dispatcher switch exhaustive instead of
// reaching for open interface dispatch.
type Operand interface {
	operandNode()
}

// ExprOperand is an arithmetic/relocatable expression operand.
type ExprOperand struct {
	E   expr.Expr
	Raw string // source text, for diagnostics that need to AdjustRange
}

func (ExprOperand) operandNode() {}

// NameOperand is a bare name operand (section name, COPY member, OPSYN
// source/target, ALIAS external name).
type NameOperand struct {
	Name ident.ID
	Raw  string
}

func (NameOperand) operandNode() {}

// StringOperand is a quoted-string operand (MNOTE message, AINSERT
// record, EQU's one-character type).
type StringOperand struct {
	Text string
}

func (StringOperand) operandNode() {}

// BaseEndOperand is USING's first operand when written `(base,end)`.
type BaseEndOperand struct {
	Base expr.Expr
	End  expr.Expr
	HasEnd bool
}

func (BaseEndOperand) operandNode() {}

// ComplexOperand is a `KEYWORD(arg,arg,...)` operand, e.g. EXTRN's
// `PART(sym,sym)`.
type ComplexOperand struct {
	Keyword string
	Args    []Operand
}

func (ComplexOperand) operandNode() {}

// RegisterListOperand is USING/DROP's register-list tail.
type RegisterListOperand struct {
	Registers []expr.Expr
}

func (RegisterListOperand) operandNode() {}

// EmptyOperand marks a positionally-present but textually empty operand
// (e.g. EXTRN PART(,) or ORG with an omitted middle operand).
type EmptyOperand struct{}

func (EmptyOperand) operandNode() {}

// DataDef is one DC/DS operand's parsed data-definition shape: duplication
// factor, type letter, modifiers, and nominal value text. Parsing the
// modifier grammar itself happens upstream (it is lexical work); this
// struct is what the dispatcher receives already split out.
type DataDef struct {
	Dup        expr.Expr // nil means "1", not present
	HasDup     bool
	TypeLetter byte // EBCDIC-style type letter, already upper-cased, e.g. 'C','X','F','H','CL' programtype handled via Program
	Program    byte // program type for extended letters like 'CA'/'CE' etc; 0 if none
	Length     expr.Expr // explicit L(length) modifier, nil if absent
	HasLength  bool
	Scale      expr.Expr // S(scale) modifier
	HasScale   bool
	Nominal    string // raw nominal-value text, e.g. "'abc'" or "(1,2,3)"
	Raw        string // full operand text, for fingerprinting
}

// Statement is one rebuilt (already macro-substituted) assembler
// statement as the dispatcher receives it. Label/Op come pre-split; the
// dispatcher treats Statement as an immutable owned value, per the
// "rebuilt statements" design note, and copies whatever it needs into
// postponed storage when deferring.
type Statement struct {
	Pos      SourcePos
	Range    SourcePos // end of statement, for diagnostics spanning the whole line; zero when the producer does not supply it
	Label    ident.ID
	HasLabel bool
	LabelRaw string
	Op       string // directive mnemonic, already upper-cased
	Operands []Operand
	DataDefs []DataDef // populated instead of Operands for DC/DS
	Raw      string
}
