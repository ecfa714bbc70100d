package ordasm

import (
	"fmt"
	"sort"

	"github.com/asmtools/hlasm-ordasm/address"
	"github.com/asmtools/hlasm-ordasm/symtab"
)

// HoverInfo is the editor-assist payload for a symbol under the cursor:
// enough to render an LSP Hover without the host reaching back into the
// symbol table itself.
type HoverInfo struct {
	Name       string
	Defined    bool
	ValueText  string // e.g. "CSECT1+12" or "42" or "<undefined>"
	Type       byte   // T'
	Length     int32  // L'
	Scale      int32  // S'
	Integer    int32  // I'
	UsingLabel bool
}

// Hover looks up name (given in source spelling) and reports its current
// value and attributes; ok is false if name has never been mentioned.
func (p *Processor) Hover(name string) (HoverInfo, bool) {
	id, ok := p.interner.Lookup(name)
	if !ok {
		return HoverInfo{}, false
	}
	if p.syms.IsUsingLabel(id) {
		return HoverInfo{Name: name, UsingLabel: true}, true
	}
	sym := p.syms.Lookup(id)
	if sym == nil {
		return HoverInfo{}, false
	}
	info := HoverInfo{
		Name:    name,
		Defined: symtab.IsDefined(sym.Value),
		Type:    p.syms.TypeOf(id),
		Length:  p.syms.LengthOf(id),
		Scale:   p.syms.ScaleOf(id),
		Integer: p.syms.IntegerOf(id),
	}
	info.ValueText = p.formatValue(sym.Value)
	return info, true
}

// Text renders h as the single-line attribute summary an HLASM hover
// tooltip conventionally shows: value, then T'/L'/S'/I'.
func (h HoverInfo) Text() string {
	if h.UsingLabel {
		return fmt.Sprintf("%s  (USING label)", h.Name)
	}
	if !h.Defined {
		return fmt.Sprintf("%s  <undefined>  T'=U L'=%d S'=%d I'=%d", h.Name, h.Length, h.Scale, h.Integer)
	}
	return fmt.Sprintf("%s = %s  T'=%c L'=%d S'=%d I'=%d", h.Name, h.ValueText, h.Type, h.Length, h.Scale, h.Integer)
}

func (p *Processor) formatValue(v symtab.SymbolValue) string {
	switch val := v.(type) {
	case symtab.Absolute:
		return fmt.Sprintf("%d", val.V)
	case symtab.Relocatable:
		return p.formatAddress(val.A)
	default:
		return "<undefined>"
	}
}

// formatAddress renders a relocatable address as "SECTION[+SECTION...]+offset",
// naming each base by the section half of its key; bases are sorted by
// name so the rendering is deterministic across calls.
func (p *Processor) formatAddress(a address.Address) string {
	if len(a.Bases) == 0 {
		return fmt.Sprintf("%d", a.Offset)
	}
	type baseRef struct {
		name string
		mult int
	}
	refs := make([]baseRef, 0, len(a.Bases))
	for k, mult := range a.Bases {
		refs = append(refs, baseRef{name: p.interner.Text(k.Section), mult: mult})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].name < refs[j].name })

	out := ""
	for _, r := range refs {
		term := r.name
		if r.mult != 1 {
			term = fmt.Sprintf("%d*%s", r.mult, r.name)
		}
		if out == "" {
			out = term
		} else {
			out += "+" + term
		}
	}
	if a.Offset != 0 {
		out += fmt.Sprintf("+%d", a.Offset)
	}
	return out
}
