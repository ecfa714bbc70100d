// Package using implements the USING/DROP/PUSH/POP base-register tracker:
// a stack of frames recording which base registers map to which
// relocatable addresses, consulted for implicit-addressing diagnostics
// and the U' attribute.
package using

import (
	"errors"

	"github.com/asmtools/hlasm-ordasm/address"
	"github.com/asmtools/hlasm-ordasm/ident"
)

// ErrPopMismatch is returned by PopUsing, PopPrint and PopAcontrol when
// there is no matching push on that sub-stack (maps to diagnostic A165
// for the USING sub-stack).
var ErrPopMismatch = errors.New("using: POP has no matching PUSH")

// Frame is one USING statement's registered base-register mapping.
type Frame struct {
	Label    ident.ID // empty if the USING statement had no label
	Base     address.Address
	End      *address.Address // nil if the USING had no end operand
	Registers map[int]address.Address
}

// Tracker holds the active USING frames plus the PUSH/POP sub-stacks for
// USING, PRINT, and ACONTROL state.
type Tracker struct {
	active []Frame

	pushedUsing    [][]Frame
	pushedPrint    []any
	pushedAcontrol []any
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker { return &Tracker{} }

// Add registers a new USING frame exactly as given in f.Registers
// (dispatchUsing maps every listed register to the frame's base address);
// range splitting across multiple registers is an instruction-encoder
// concern (out of scope) so this just records the frame for
// attribute/hover queries.
func (t *Tracker) Add(f Frame) {
	t.active = append(t.active, f)
}

// DropAll removes every active frame (DROP with no operands).
func (t *Tracker) DropAll() {
	t.active = nil
}

// DropRegisters removes the registers in regs from every active frame and
// drops each frame that is left with no registers. A frame that maps
// registers both inside and outside regs keeps its other mappings (HLASM
// allows partial drops of a multi-register USING). Frames saved by
// PushUsing are not modified.
func (t *Tracker) DropRegisters(regs []int) {
	set := make(map[int]bool, len(regs))
	for _, r := range regs {
		set[r] = true
	}
	kept := t.active[:0]
	for _, f := range t.active {
		left := make(map[int]address.Address, len(f.Registers))
		for r, a := range f.Registers {
			if !set[r] {
				left[r] = a
			}
		}
		f.Registers = left
		if len(f.Registers) > 0 {
			kept = append(kept, f)
		}
	}
	t.active = kept
}

// ResolveBase returns the address currently mapped by register reg, if any.
func (t *Tracker) ResolveBase(reg int) (address.Address, bool) {
	// Last-registered mapping for a register wins, matching HLASM's
	// "most recent active USING" rule.
	for i := len(t.active) - 1; i >= 0; i-- {
		if a, ok := t.active[i].Registers[reg]; ok {
			return a, true
		}
	}
	return address.Address{}, false
}

// IsLabelActive reports whether label names a currently-active USING frame.
func (t *Tracker) IsLabelActive(label ident.ID) bool {
	for _, f := range t.active {
		if f.Label == label {
			return true
		}
	}
	return false
}

// PushUsing saves a copy of the current USING frame stack; the active
// frames stay in effect until dropped or until the matching PopUsing.
func (t *Tracker) PushUsing() {
	saved := make([]Frame, len(t.active))
	copy(saved, t.active)
	t.pushedUsing = append(t.pushedUsing, saved)
}

// PopUsing restores the USING frame stack saved by the matching PushUsing.
func (t *Tracker) PopUsing() error {
	if len(t.pushedUsing) == 0 {
		return ErrPopMismatch
	}
	n := len(t.pushedUsing) - 1
	t.active = t.pushedUsing[n]
	t.pushedUsing = t.pushedUsing[:n]
	return nil
}

// PushPrint/PopPrint and PushAcontrol/PopAcontrol save and restore the
// PRINT and ACONTROL sub-stacks named by PUSH/POP's other sub-keys. Their
// payload is opaque to this package (print flags, acontrol flags) and
// simply threaded through by the directive dispatcher.
func (t *Tracker) PushPrint(state any) { t.pushedPrint = append(t.pushedPrint, state) }

func (t *Tracker) PopPrint() (any, error) {
	if len(t.pushedPrint) == 0 {
		return nil, ErrPopMismatch
	}
	n := len(t.pushedPrint) - 1
	v := t.pushedPrint[n]
	t.pushedPrint = t.pushedPrint[:n]
	return v, nil
}

func (t *Tracker) PushAcontrol(state any) { t.pushedAcontrol = append(t.pushedAcontrol, state) }

func (t *Tracker) PopAcontrol() (any, error) {
	if len(t.pushedAcontrol) == 0 {
		return nil, ErrPopMismatch
	}
	n := len(t.pushedAcontrol) - 1
	v := t.pushedAcontrol[n]
	t.pushedAcontrol = t.pushedAcontrol[:n]
	return v, nil
}
