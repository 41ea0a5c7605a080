// SPDX-FileCopyrightText: 2022 Global Illumination, Inc.
// SPDX-License-Identifier: MIT

package sim

import "testing"

func intsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestStreamFanOut(t *testing.T) {
	var stream Stream[int]

	sub1 := stream.Subscribe()
	sub2 := stream.Subscribe()

	stream.Write(1)
	stream.Write(2)

	sub3 := stream.Subscribe()

	stream.Write(3)
	stream.Write(4)

	sub1.Close()

	sub4 := stream.Subscribe()

	stream.Write(5)

	sub2.Close()

	stream.Write(6)

	sub3.Close()
	sub4.Close()

	for i, sub := range []*StreamReader[int]{sub1, sub2, sub3, sub4} {
		if sub.Open() {
			t.Errorf("sub%d should be closed", i+1)
		}
	}

	tests := []struct {
		sub  *StreamReader[int]
		want []int
	}{
		{sub1, []int{1, 2, 3, 4}},
		{sub2, []int{1, 2, 3, 4, 5}},
		{sub3, []int{3, 4, 5, 6}},
		{sub4, []int{5, 6}},
	}
	for i, test := range tests {
		if got := test.sub.Read(); !intsEqual(got, test.want) {
			t.Errorf("sub%d expected %v got %v", i+1, test.want, got)
		}
		if got := test.sub.Read(); len(got) != 0 {
			t.Errorf("sub%d final read should be empty, got %v", i+1, got)
		}
	}
}

func TestQueueOrder(t *testing.T) {
	var q Queue[int]
	for i := 0; i < 5; i++ {
		q.Push(i)
	}
	if q.Pop() != 0 || q.Pop() != 1 {
		t.Fatal("queue is not FIFO")
	}
	q.Push(5)
	q.Push(6)

	clone := q.Clone()
	var got []int
	for !q.Empty() {
		got = append(got, q.Pop())
	}
	if !intsEqual(got, []int{2, 3, 4, 5, 6}) {
		t.Errorf("queue drained %v", got)
	}

	// The clone is unaffected by draining the original.
	var cloned []int
	for !clone.Empty() {
		cloned = append(cloned, clone.Pop())
	}
	if !intsEqual(cloned, []int{2, 3, 4, 5, 6}) {
		t.Errorf("clone drained %v", cloned)
	}
}

func TestLazy(t *testing.T) {
	var lazy Lazy[int]
	if lazy.Initialized() {
		t.Error("lazy should start uninitialized")
	}
	func() {
		defer func() {
			if recover() == nil {
				t.Error("reading an uninitialized lazy should panic")
			}
		}()
		lazy.Get()
	}()

	lazy.Set(7)
	if !lazy.Initialized() || *lazy.Get() != 7 {
		t.Error("lazy lost its value")
	}
	*lazy.Get() = 8
	if *lazy.Get() != 8 {
		t.Error("lazy value should be mutable in place")
	}
}

func TestUpdateList(t *testing.T) {
	var ul UpdateList[int]
	if ul.Time() != 0 || ul.TimeOf(0) != 0 {
		t.Error("empty update list should report time 0")
	}

	ul.Bump(0)
	ul.Bump(1)
	ul.Bump(0)
	ul.Bump(2)
	ul.Bump(0)
	ul.Bump(1)

	if ul.Size() != 3 || ul.Time() != 6 {
		t.Errorf("expected size 3 time 6 got %d %d", ul.Size(), ul.Time())
	}
	if ul.TimeOf(0) != 5 || ul.TimeOf(1) != 6 || ul.TimeOf(2) != 4 {
		t.Error("per-key times wrong")
	}

	want := []UpdateEntry[int]{{4, 2}, {5, 0}, {6, 1}}
	got := ul.Extract()
	if len(got) != len(want) {
		t.Fatalf("extract expected %v got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("extract entry %d expected %v got %v", i, want[i], got[i])
		}
	}

	var fromFive []int
	ul.Scan(5, func(_ uint64, key int) bool {
		fromFive = append(fromFive, key)
		return true
	})
	if !intsEqual(fromFive, []int{0, 1}) {
		t.Errorf("scan from 5 expected [0 1] got %v", fromFive)
	}

	count := 0
	ul.Scan(0, func(uint64, int) bool {
		count++
		return count < 2
	})
	if count != 2 {
		t.Errorf("early-exit scan expected 2 visits got %d", count)
	}
}
