// SPDX-FileCopyrightText: 2022 Global Illumination, Inc.
// SPDX-License-Identifier: MIT

package world

// Box is a half-open voxel-aligned bounding box [V0, V1).
type Box struct {
	V0 Vec3i `json:"v0"`
	V1 Vec3i `json:"v1"`
}

func BoxFrom(v0, v1 Vec3i) Box {
	return Box{V0: v0, V1: v1}
}

// CubeBox is the box [0, dim) on each axis.
func CubeBox(dim int) Box {
	return Box{V1: Vec3i{X: dim, Y: dim, Z: dim}}
}

// EmptyBox is the canonical empty box, the identity for UnionBox.
func EmptyBox() Box {
	const big = int(^uint(0) >> 1)
	return Box{
		V0: Vec3i{X: big, Y: big, Z: big},
		V1: Vec3i{X: -big - 1, Y: -big - 1, Z: -big - 1},
	}
}

func (b Box) Empty() bool {
	return b.V0.X >= b.V1.X || b.V0.Y >= b.V1.Y || b.V0.Z >= b.V1.Z
}

func (b Box) Size() Vec3i {
	if b.Empty() {
		return Vec3i{}
	}
	return b.V1.Sub(b.V0)
}

func (b Box) Volume() int {
	s := b.Size()
	return s.X * s.Y * s.Z
}

func (b Box) Contains(pos Vec3i) bool {
	return pos.X >= b.V0.X && pos.X < b.V1.X &&
		pos.Y >= b.V0.Y && pos.Y < b.V1.Y &&
		pos.Z >= b.V0.Z && pos.Z < b.V1.Z
}

// Shift translates the box by pos.
func (b Box) Shift(pos Vec3i) Box {
	return Box{V0: b.V0.Add(pos), V1: b.V1.Add(pos)}
}

func IntersectBox(a, b Box) Box {
	return Box{V0: a.V0.Max(b.V0), V1: a.V1.Min(b.V1)}
}

func UnionBox(a, b Box) Box {
	if a.Empty() {
		return b
	}
	if b.Empty() {
		return a
	}
	return Box{V0: a.V0.Min(b.V0), V1: a.V1.Max(b.V1)}
}
