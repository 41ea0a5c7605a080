// SPDX-FileCopyrightText: 2022 Global Illumination, Inc.
// SPDX-License-Identifier: MIT

package tensors

import (
	"math/rand"
	"testing"
)

func TestArrayGet(t *testing.T) {
	var b ArrayBuilder[int]
	b.Add(10, 1)
	b.Add(5, 2)
	b.Add(1, 3)
	b.Add(100, 1)
	a := b.Build()

	if a.Len() != 116 {
		t.Fatalf("Len expected 116 got %d", a.Len())
	}
	for pos := ArrayPos(0); pos < a.Len(); pos++ {
		want := 1
		switch {
		case pos >= 10 && pos < 15:
			want = 2
		case pos == 15:
			want = 3
		}
		if got := a.Get(pos); got != want {
			t.Fatalf("Get(%d) expected %d got %d", pos, want, got)
		}
	}
}

func TestArrayBuilderCoalesces(t *testing.T) {
	var b ArrayBuilder[byte]
	b.Add(4, 7)
	b.Add(4, 7)
	b.Add(0, 9)
	b.Add(8, 7)
	a := b.Build()

	if len(a.Vals) != 1 || a.Len() != 16 {
		t.Errorf("expected one coalesced run of 16, got %d runs len %d", len(a.Vals), a.Len())
	}
}

func TestArrayScan(t *testing.T) {
	var b ArrayBuilder[int]
	b.Add(32, 5)
	b.Add(1, 6)
	b.Add(31, 5)
	a := b.Build()

	var runs []Run
	var vals []int
	a.Scan(func(run Run, val int) {
		runs = append(runs, run)
		vals = append(vals, val)
	})

	wantRuns := []Run{{0, 32}, {32, 1}, {33, 31}}
	wantVals := []int{5, 6, 5}
	if len(runs) != len(wantRuns) {
		t.Fatalf("expected %d runs got %d", len(wantRuns), len(runs))
	}
	for i := range runs {
		if runs[i] != wantRuns[i] || vals[i] != wantVals[i] {
			t.Errorf("run %d expected (%+v, %d) got (%+v, %d)", i, wantRuns[i], wantVals[i], runs[i], vals[i])
		}
	}
}

func TestArrayReverse(t *testing.T) {
	var b ArrayBuilder[int]
	b.Add(3, 1)
	b.Add(5, 2)
	b.Add(2, 3)
	a := b.Build()

	r := Reverse(a)
	if r.Len() != a.Len() {
		t.Fatalf("reversed length expected %d got %d", a.Len(), r.Len())
	}
	for pos := ArrayPos(0); pos < a.Len(); pos++ {
		if got, want := r.Get(pos), a.Get(a.Len()-1-pos); got != want {
			t.Errorf("Reverse Get(%d) expected %d got %d", pos, want, got)
		}
	}
}

func TestMergeArrays(t *testing.T) {
	var b1 ArrayBuilder[int]
	b1.Add(10, 1)
	b1.Add(10, 2)
	var b2 ArrayBuilder[int]
	b2.Add(5, 10)
	b2.Add(15, 20)
	a1, a2 := b1.Build(), b2.Build()

	m := MergeArrays(a1, a2, func(x, y int) int { return x + y })
	for pos := ArrayPos(0); pos < 20; pos++ {
		if got, want := m.Get(pos), a1.Get(pos)+a2.Get(pos); got != want {
			t.Errorf("merged Get(%d) expected %d got %d", pos, want, got)
		}
	}

	// Merging an array with itself through a projection is the identity.
	id := MergeArrays(a1, a1, func(x, _ int) int { return x })
	for pos := ArrayPos(0); pos < 20; pos++ {
		if id.Get(pos) != a1.Get(pos) {
			t.Errorf("identity merge differs at %d", pos)
		}
	}
	if len(id.Vals) != len(a1.Vals) {
		t.Errorf("identity merge should keep minimal runs, got %d want %d", len(id.Vals), len(a1.Vals))
	}
}

func TestDiffArrays(t *testing.T) {
	var b1 ArrayBuilder[int]
	b1.Add(16, 1)
	b1.Add(16, 2)
	var b2 ArrayBuilder[int]
	b2.Add(16, 1)
	b2.Add(8, 3)
	b2.Add(8, 2)
	a1, a2 := b1.Build(), b2.Build()

	var total ArrayPos
	DiffArrays(a1, a2, func(run Run, va, vb int) {
		if va == vb {
			t.Errorf("diff visited equal values at %+v", run)
		}
		for p := run.Pos; p < run.Pos+run.Len; p++ {
			if a1.Get(p) == a2.Get(p) {
				t.Errorf("diff covered equal position %d", p)
			}
		}
		total += run.Len
	})
	if total != 8 {
		t.Errorf("diff expected 8 positions got %d", total)
	}
}

func TestMapDenseArray(t *testing.T) {
	a := MakeArray(64, 1)
	m := MapDenseArray(a, func(pos ArrayPos, val int) int {
		return val + int(pos)/32
	})
	if len(m.Vals) != 2 {
		t.Errorf("expected 2 runs got %d", len(m.Vals))
	}
	if m.Get(0) != 1 || m.Get(31) != 1 || m.Get(32) != 2 || m.Get(63) != 2 {
		t.Error("MapDenseArray values wrong")
	}
}

func TestRangesArrayBuilder(t *testing.T) {
	b := NewRangesArrayBuilder[int](100, 0)
	b.AddRange(10, 60, 1)
	b.AddRange(40, 80, 2)
	b.AddRange(50, 55, 3)
	b.Add(0, 4)
	a := b.Build()

	expect := func(pos ArrayPos) int {
		switch {
		case pos == 0:
			return 4
		case pos >= 50 && pos < 55:
			return 3
		case pos >= 40 && pos < 80:
			return 2
		case pos >= 10 && pos < 60:
			return 1
		default:
			return 0
		}
	}
	if a.Len() != 100 {
		t.Fatalf("Len expected 100 got %d", a.Len())
	}
	for pos := ArrayPos(0); pos < 100; pos++ {
		if got, want := a.Get(pos), expect(pos); got != want {
			t.Fatalf("Get(%d) expected %d got %d", pos, want, got)
		}
	}

	// Adjacent runs must hold distinct values.
	var prev *int
	a.Scan(func(_ Run, val int) {
		if prev != nil && *prev == val {
			t.Error("adjacent runs hold equal values")
		}
		v := val
		prev = &v
	})
}

func TestRangesArrayBuilderRandomized(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for trial := 0; trial < 50; trial++ {
		const n = 512
		b := NewRangesArrayBuilder[int](n, 0)
		ref := make([]int, n)
		for i := 0; i < 40; i++ {
			lo := ArrayPos(r.Intn(n))
			hi := lo + 1 + ArrayPos(r.Intn(n-int(lo)))
			val := r.Intn(5)
			b.AddRange(lo, hi, val)
			for p := lo; p < hi; p++ {
				ref[p] = val
			}
		}
		a := b.Build()
		if a.Len() != n {
			t.Fatalf("Len expected %d got %d", n, a.Len())
		}
		for p := ArrayPos(0); p < n; p++ {
			if a.Get(p) != ref[p] {
				t.Fatalf("trial %d Get(%d) expected %d got %d", trial, p, ref[p], a.Get(p))
			}
		}
	}
}

func BenchmarkArrayGet(b *testing.B) {
	var builder ArrayBuilder[byte]
	for i := 0; i < 1024; i++ {
		builder.Add(32, byte(i&0xf))
	}
	a := builder.Build()
	b.ResetTimer()

	var acc byte
	for i := 0; i < b.N; i++ {
		acc += a.Get(ArrayPos(i) & (ChunkSize - 1))
	}
	_ = acc
}
