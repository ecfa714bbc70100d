package address_test

import (
	"testing"

	"github.com/asmtools/hlasm-ordasm/address"
	"github.com/asmtools/hlasm-ordasm/ident"
)

func TestSubSameBaseIsAbsoluteDistance(t *testing.T) {
	in := ident.NewInterner()
	sect := in.MustIntern("CSECT1")
	loctr := ident.Empty
	base := address.FromBase(address.BaseKey{Section: sect, Counter: loctr})

	a := address.Add(base, address.Address{Offset: 10})
	b := address.Add(base, address.Address{Offset: 42})

	diff := address.Sub(b, a)
	if !diff.IsAbsolute() {
		t.Fatalf("expected absolute difference, got bases=%v spaces=%v", diff.Bases, diff.Spaces)
	}
	if diff.Offset != 32 {
		t.Fatalf("expected distance 32, got %d", diff.Offset)
	}
}

func TestSubDifferentBasesIsRelocatable(t *testing.T) {
	in := ident.NewInterner()
	keyA := address.BaseKey{Section: in.MustIntern("A")}
	keyB := address.BaseKey{Section: in.MustIntern("B")}
	secA := address.FromBase(keyA)
	secB := address.FromBase(keyB)

	diff := address.Sub(address.Add(secA, address.Address{Offset: 5}), secB)
	if diff.IsAbsolute() {
		t.Fatalf("expected non-absolute difference between distinct sections")
	}
	// A - B keeps both bases (+1 for A, -1 for B), so the result is
	// complex-relocatable rather than simply relocatable.
	if diff.IsSimplyRelocatable() {
		t.Fatalf("expected a complex-relocatable difference, got bases=%v", diff.Bases)
	}
	if len(diff.Bases) != 2 || diff.Bases[keyA] != 1 || diff.Bases[keyB] != -1 {
		t.Fatalf("expected bases A:+1 and B:-1, got bases=%v", diff.Bases)
	}
}

func TestAddThenSubCancelsToZero(t *testing.T) {
	in := ident.NewInterner()
	base := address.FromBase(address.BaseKey{Section: in.MustIntern("X")})

	sum := address.Add(base, address.Address{Offset: 7})
	back := address.Sub(sum, base)
	if !back.IsAbsolute() || back.Offset != 7 {
		t.Fatalf("expected absolute offset 7, got absolute=%v offset=%d", back.IsAbsolute(), back.Offset)
	}
}

func TestIsSimplyRelocatableRejectsMultipleBases(t *testing.T) {
	in := ident.NewInterner()
	a := address.FromBase(address.BaseKey{Section: in.MustIntern("A")})
	b := address.FromBase(address.BaseKey{Section: in.MustIntern("B")})

	combined := address.Add(a, b)
	if combined.IsSimplyRelocatable() {
		t.Fatalf("address with two distinct bases must not be simply relocatable")
	}
}

func TestAlignmentAlignUp(t *testing.T) {
	cases := []struct {
		boundary, in, want int32
	}{
		{1, 7, 7},
		{4, 0, 0},
		{4, 1, 4},
		{4, 4, 4},
		{8, 9, 16},
	}
	for _, c := range cases {
		a := address.Alignment{Boundary: c.boundary}
		if got := a.AlignUp(c.in); got != c.want {
			t.Errorf("AlignUp(boundary=%d, n=%d) = %d, want %d", c.boundary, c.in, got, c.want)
		}
	}
}

func TestSpaceCloseTwicePanics(t *testing.T) {
	sp := address.NewSpace(1, address.Alignment{Boundary: 4})
	sp.Close(16)
	if !sp.Resolved() || sp.Length() != 16 {
		t.Fatalf("expected resolved space of length 16")
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on double Close")
		}
	}()
	sp.Close(8)
}
