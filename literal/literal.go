// Package literal implements the HLASM literal pool: `=`-operands are
// accumulated and deduplicated by exact textual fingerprint within a pool
// cycle, then materialized into storage by LTORG or the implicit flush at
// END.
package literal

import (
	"github.com/asmtools/hlasm-ordasm/address"
	"github.com/asmtools/hlasm-ordasm/ident"
	"github.com/asmtools/hlasm-ordasm/section"
	"github.com/asmtools/hlasm-ordasm/symtab"
)

// Entry is one interned literal awaiting materialization.
type Entry struct {
	Name        ident.ID // synthetic symbol name assigned to this literal
	DataDef     string   // the literal's data-definition text, e.g. "CL4'abc'"
	Fingerprint string   // exact text used for dedup within a pool cycle
	Align       address.Alignment
	Length      int32
	LoctrAtEmit address.Address // location counter value when first referenced
	generation  int
}

// Pool is the append-only literal list for one analysis unit.
type Pool struct {
	entries    []*Entry
	byFP       map[string]*Entry
	generation int
	interner   *ident.Interner
	seq        int
}

// NewPool returns an empty Pool. interner is used to synthesize the
// `=...` symbol names assigned to each distinct literal.
func NewPool(interner *ident.Interner) *Pool {
	return &Pool{byFP: make(map[string]*Entry), interner: interner}
}

// Generation returns the current pool cycle counter: it increments every
// time GeneratePool runs, letting a literal reference record which pool
// cycle it was interned in (used to disambiguate "go to definition" for
// two textually-identical literals emitted across different LTORG
// cycles).
func (p *Pool) Generation() int { return p.generation }

// Intern records a literal's nominal-value text and data-definition,
// returning the synthetic symbol name assigned to it and whether this is
// a new entry (false if an identical literal is already pending in the
// current pool cycle).
func (p *Pool) Intern(dataDef, fingerprint string, align address.Alignment, length int32, loctrAtEmit address.Address) (ident.ID, bool) {
	key := fingerprintKey(p.generation, fingerprint)
	if e, ok := p.byFP[key]; ok {
		return e.Name, false
	}
	p.seq++
	name := p.interner.MustIntern(syntheticLiteralName(p.generation, p.seq))
	e := &Entry{
		Name:        name,
		DataDef:     dataDef,
		Fingerprint: fingerprint,
		Align:       align,
		Length:      length,
		LoctrAtEmit: loctrAtEmit,
		generation:  p.generation,
	}
	p.entries = append(p.entries, e)
	p.byFP[key] = e
	return name, true
}

// Pending returns the literals interned in the current pool cycle that
// have not yet been materialized.
func (p *Pool) Pending() []*Entry {
	out := make([]*Entry, 0, len(p.entries))
	for _, e := range p.entries {
		if e.generation == p.generation {
			out = append(out, e)
		}
	}
	return out
}

// GeneratePool materializes every pending literal into storage: aligned
// to doubleword, emitted in order of increasing alignment requirement and
// then insertion order, each becoming a defined symbol in syms at the
// address reserved for it in reg. It then advances the pool cycle and
// clears the pending set.
func (p *Pool) GeneratePool(reg *section.Registry, syms *symtab.Table) {
	pending := p.Pending()
	if len(pending) == 0 {
		return
	}
	ordered := make([]*Entry, len(pending))
	copy(ordered, pending)
	// Stable sort by increasing alignment requirement, ties broken by
	// insertion order (already true of `pending`'s slice order since it
	// walks p.entries in interning order).
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && ordered[j].Align.Boundary < ordered[j-1].Align.Boundary; j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}

	reg.Align(8)
	for _, e := range ordered {
		addr := reg.Reserve(int64(e.Length), e.Align)
		syms.Define(e.Name, symtab.Relocatable{A: addr}, symtab.SymbolAttributes{
			Origin: symtab.OriginDAT,
			Type:   dataTypeOf(e.DataDef),
			Length: e.Length,
		}, symtab.SourcePos{})
	}
	p.generation++
}

func dataTypeOf(dataDef string) byte {
	if len(dataDef) == 0 {
		return 'U'
	}
	c := dataDef[0]
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	return c
}

func fingerprintKey(generation int, fingerprint string) string {
	return itoa(generation) + ":" + fingerprint
}

func syntheticLiteralName(generation, seq int) string {
	return "=L" + itoa(generation) + "_" + itoa(seq)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
