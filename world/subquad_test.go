// SPDX-FileCopyrightText: 2022 Global Illumination, Inc.
// SPDX-License-Identifier: MIT

package world

import "testing"

func boolMask(rows ...[]int) []bool {
	var mask []bool
	for _, row := range rows {
		for _, v := range row {
			mask = append(mask, v != 0)
		}
	}
	return mask
}

func TestSubquad(t *testing.T) {
	mask := boolMask(
		[]int{0, 1, 0, 1},
		[]int{0, 1, 1, 1},
		[]int{1, 1, 1, 1},
		[]int{0, 1, 1, 0},
		[]int{1, 1, 1, 0},
	)

	quad := Subquad(mask, 4, 5)
	if want := (Quad{X0: 1, Y0: 1, X1: 3, Y1: 5}); quad != want {
		t.Errorf("Subquad expected %+v got %+v", want, quad)
	}
}

func TestSubquadEmpty(t *testing.T) {
	quad := Subquad(nil, 0, 0)
	if quad.Area() != 0 {
		t.Errorf("expected empty quad, got %+v", quad)
	}
}

func TestSubquadUnit(t *testing.T) {
	quad := Subquad([]bool{true}, 1, 1)
	if want := (Quad{X1: 1, Y1: 1}); quad != want {
		t.Errorf("expected %+v got %+v", want, quad)
	}
}

func TestSubquadWide(t *testing.T) {
	// A 40x5 mask is too wide for the row solver, so the transposed solver runs.
	const w, h = 40, 5
	mask := make([]bool, w*h)
	for y := 1; y < 4; y++ {
		for x := 3; x < 37; x++ {
			mask[x+w*y] = true
		}
	}

	quad := Subquad(mask, w, h)
	if want := (Quad{X0: 3, Y0: 1, X1: 37, Y1: 4}); quad != want {
		t.Errorf("expected %+v got %+v", want, quad)
	}
}

func TestSubbox(t *testing.T) {
	mask := boolMask(
		// Layer 0
		[]int{0, 1, 1},
		[]int{0, 1, 1},
		[]int{0, 1, 0},
		// Layer 1
		[]int{1, 1, 1},
		[]int{1, 1, 1},
		[]int{0, 0, 0},
		// Layer 2
		[]int{0, 1, 1},
		[]int{1, 1, 1},
		[]int{1, 0, 1},
	)

	box := Subbox(mask, 3, 3, 3)
	want := Box{V0: Vec3i{X: 1, Y: 0, Z: 0}, V1: Vec3i{X: 3, Y: 2, Z: 3}}
	if box != want {
		t.Errorf("Subbox expected %+v got %+v", want, box)
	}
}

func TestSubboxSecondCase(t *testing.T) {
	mask := boolMask(
		// Layer 0
		[]int{0, 0, 1},
		[]int{0, 1, 0},
		[]int{0, 1, 0},
		// Layer 1
		[]int{1, 1, 1},
		[]int{1, 1, 1},
		[]int{0, 0, 0},
		// Layer 2
		[]int{0, 0, 1},
		[]int{1, 1, 0},
		[]int{1, 0, 1},
	)

	box := Subbox(mask, 3, 3, 3)
	want := Box{V0: Vec3i{X: 0, Y: 0, Z: 1}, V1: Vec3i{X: 3, Y: 2, Z: 2}}
	if box != want {
		t.Errorf("Subbox expected %+v got %+v", want, box)
	}
}

func TestSubboxUnit(t *testing.T) {
	box := Subbox([]bool{true}, 1, 1, 1)
	want := Box{V1: Vec3i{X: 1, Y: 1, Z: 1}}
	if box != want {
		t.Errorf("expected %+v got %+v", want, box)
	}
}

func TestSubboxVolumeMatchesApprox(t *testing.T) {
	// A solid block should be found exactly by both solvers.
	const s = 8
	mask := make([]bool, s*s*s)
	for z := 2; z < 7; z++ {
		for y := 1; y < 5; y++ {
			for x := 0; x < 6; x++ {
				mask[x+s*(y+s*z)] = true
			}
		}
	}

	exact := Subbox(mask, s, s, s)
	approx := SubboxApprox(mask, s, s, s)
	want := Box{V0: Vec3i{X: 0, Y: 1, Z: 2}, V1: Vec3i{X: 6, Y: 5, Z: 7}}
	if exact != want {
		t.Errorf("Subbox expected %+v got %+v", want, exact)
	}
	if approx != want {
		t.Errorf("SubboxApprox expected %+v got %+v", want, approx)
	}
}
