// Package symtab implements the ordinary-symbol table: symbol values,
// attributes, and the duplicate-definition / forward-reference rules
// described in the ordinary-assembly semantic processor's data model.
package symtab

import (
	"errors"

	"github.com/asmtools/hlasm-ordasm/address"
	"github.com/asmtools/hlasm-ordasm/ident"
)

// ErrDuplicateSymbol is returned by Define when name already has a
// non-Undefined value. Callers translate this into diagnostic E031.
var ErrDuplicateSymbol = errors.New("symtab: duplicate symbol definition")

// SymbolValue is the closed tagged union { Undefined, Absolute, Relocatable }.
// It is modeled as an interface with an unexported marker method so the
// dispatcher's switches over it stay exhaustive, matching the project's
// preference for closed operand-style variants over open interfaces.
type SymbolValue interface {
	symbolValue()
}

// Undefined is the SymbolValue of a symbol that has been declared (e.g.
// as a dependency target or EXTRN reference) but has no value yet.
type Undefined struct{}

func (Undefined) symbolValue() {}

// Absolute is a SymbolValue carrying a plain 32-bit integer.
type Absolute struct {
	V int32
}

func (Absolute) symbolValue() {}

// Relocatable is a SymbolValue carrying a relocatable address.
type Relocatable struct {
	A address.Address
}

func (Relocatable) symbolValue() {}

// IsDefined reports whether v is anything other than Undefined.
func IsDefined(v SymbolValue) bool {
	_, undef := v.(Undefined)
	return !undef
}

// Origin records which directive family produced a symbol, used only for
// diagnostics and attribute defaults.
type Origin byte

const (
	OriginUnknown Origin = iota
	OriginEQU
	OriginDAT   // DC/DS
	OriginASM   // ASM-generated (section name, literal, etc.)
	OriginMacro // macro-defined (out of scope for this core, but tracked)
	OriginORG
	OriginCCW
	OriginCNOP
)

// UndefLen/UndefScale/UndefInt are the sentinel "no value yet" markers for
// the corresponding SymbolAttributes fields.
const (
	UndefLen   = -1
	UndefScale = -1
	UndefInt   = -1
)

// SymbolAttributes is per-symbol metadata queried via T'/L'/S'/I'.
type SymbolAttributes struct {
	Origin Origin
	Type   byte // EBCDIC-letter-coded type, 'U' for unknown/undefined
	Length int32
	Scale  int32
	Int    int32
}

// DefaultAttributes returns the attributes an undefined symbol reports:
// T'=U, L'=1, S'=0, I'=0.
func DefaultAttributes() SymbolAttributes {
	return SymbolAttributes{Origin: OriginUnknown, Type: 'U', Length: 1, Scale: 0, Int: 0}
}

// SourcePos is a minimal line/column location, kept independent of the
// diag package to avoid a dependency cycle (diag imports symtab-adjacent
// types only by value where needed).
type SourcePos struct {
	Line int
	Char int
}

// Symbol is one entry of the ordinary symbol table.
type Symbol struct {
	Name    ident.ID
	Value   SymbolValue
	Attrs   SymbolAttributes
	DefSite SourcePos

	// macroMentioned marks a transient placeholder created when a symbol
	// is referenced as a macro-call label before any statement defines
	// it for real; a later real definition must not be flagged E031.
	macroMentioned bool
	// usingLabel marks a name that was registered by USING as a frame
	// label, kept in a namespace disjoint from ordinary symbols so a
	// U'label query never collides with an ordinary symbol of the same
	// spelling.
	usingLabel bool
	// referenced marks a forward reference recorded for diagnostics
	// (e.g. EXTRN mention) rather than a definition; referenced-only
	// entries never complete a dependency waiter.
	referenced bool
}

// Table is the ordinary symbol table, keyed by interned name.
type Table struct {
	symbols map[ident.ID]*Symbol
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{symbols: make(map[ident.ID]*Symbol)}
}

// Define creates or overwrites the entry for name. It is the caller's
// responsibility to have already checked CanDefine; Define itself only
// re-validates the invariant and returns ErrDuplicateSymbol if violated,
// so callers that skip the check still fail safely.
func (t *Table) Define(name ident.ID, value SymbolValue, attrs SymbolAttributes, site SourcePos) error {
	if existing, ok := t.symbols[name]; ok && !existing.macroMentioned && IsDefined(existing.Value) {
		return ErrDuplicateSymbol
	}
	t.symbols[name] = &Symbol{Name: name, Value: value, Attrs: attrs, DefSite: site}
	return nil
}

// CanDefine reports whether name may be (re)defined: either it has no
// entry, or its only entry is a macro-mention placeholder.
func (t *Table) CanDefine(name ident.ID) bool {
	existing, ok := t.symbols[name]
	return !ok || existing.macroMentioned
}

// Reference records name as having been mentioned (e.g. as an EXTRN
// operand or branch target) without defining it. If an entry already
// exists, it is left untouched; the reference is purely informational.
func (t *Table) Reference(name ident.ID, site SourcePos) *Symbol {
	if existing, ok := t.symbols[name]; ok {
		return existing
	}
	sym := &Symbol{Name: name, Value: Undefined{}, Attrs: DefaultAttributes(), DefSite: site, referenced: true}
	t.symbols[name] = sym
	return sym
}

// Lookup returns the symbol for name, or nil if no entry exists.
func (t *Table) Lookup(name ident.ID) *Symbol {
	return t.symbols[name]
}

// SetLength patches the Length attribute of an already-defined symbol.
// This is the only mutation permitted post-definition, used solely for
// the DC/DS self-referencing length-expression pattern.
func (t *Table) SetLength(name ident.ID, length int32) {
	if sym, ok := t.symbols[name]; ok {
		sym.Attrs.Length = length
	}
}

// SetScale patches the Scale attribute, mirroring SetLength.
func (t *Table) SetScale(name ident.ID, scale int32) {
	if sym, ok := t.symbols[name]; ok {
		sym.Attrs.Scale = scale
	}
}

// MarkMacroMentioned records that name was used as a macro-call label
// before being defined; a subsequent Define for the same name is not a
// duplicate.
func (t *Table) MarkMacroMentioned(name ident.ID) {
	if _, ok := t.symbols[name]; ok {
		return
	}
	t.symbols[name] = &Symbol{Name: name, Value: Undefined{}, Attrs: DefaultAttributes(), macroMentioned: true}
}

// RegisterUsingLabel records name as a USING frame label rather than an
// ordinary symbol, removing any forward-reference placeholder that
// accumulated for it.
func (t *Table) RegisterUsingLabel(name ident.ID) {
	t.symbols[name] = &Symbol{Name: name, usingLabel: true}
}

// IsUsingLabel reports whether name was registered via RegisterUsingLabel.
func (t *Table) IsUsingLabel(name ident.ID) bool {
	sym, ok := t.symbols[name]
	return ok && sym.usingLabel
}

// TypeOf returns T' for name, defaulting to 'U' when undefined or unknown.
func (t *Table) TypeOf(name ident.ID) byte {
	if sym, ok := t.symbols[name]; ok && IsDefined(sym.Value) {
		return sym.Attrs.Type
	}
	return 'U'
}

// LengthOf returns L' for name, defaulting to 1 when undefined.
func (t *Table) LengthOf(name ident.ID) int32 {
	if sym, ok := t.symbols[name]; ok {
		return sym.Attrs.Length
	}
	return 1
}

// ScaleOf returns S' for name, defaulting to 0 when undefined.
func (t *Table) ScaleOf(name ident.ID) int32 {
	if sym, ok := t.symbols[name]; ok {
		return sym.Attrs.Scale
	}
	return 0
}

// IntegerOf returns I' for name, defaulting to 0 when undefined.
func (t *Table) IntegerOf(name ident.ID) int32 {
	if sym, ok := t.symbols[name]; ok {
		return sym.Attrs.Int
	}
	return 0
}

// All returns every defined (non-placeholder) symbol, for end-of-input
// finalization passes and for editor-assist (symbol list, completion).
func (t *Table) All() []*Symbol {
	out := make([]*Symbol, 0, len(t.symbols))
	for _, sym := range t.symbols {
		if sym.usingLabel || sym.macroMentioned || !IsDefined(sym.Value) {
			continue
		}
		out = append(out, sym)
	}
	return out
}
