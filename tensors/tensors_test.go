// SPDX-FileCopyrightText: 2022 Global Illumination, Inc.
// SPDX-License-Identifier: MIT

package tensors

import (
	"testing"

	"github.com/ill-inc/biomes-game-sub001/world"
)

func TestEncodePosRoundTrip(t *testing.T) {
	for y := 0; y < ChunkDim; y++ {
		for z := 0; z < ChunkDim; z++ {
			for x := 0; x < ChunkDim; x++ {
				pos := world.Vec3i{X: x, Y: y, Z: z}
				if got := DecodePos(EncodePos(pos)); got != pos {
					t.Fatalf("round trip of %+v gave %+v", pos, got)
				}
			}
		}
	}
	// x varies fastest, y slowest.
	if EncodePos(world.Vec3i{X: 1}) != 1 ||
		EncodePos(world.Vec3i{Z: 1}) != 32 ||
		EncodePos(world.Vec3i{Y: 1}) != 1024 {
		t.Error("EncodePos strides are wrong")
	}
}

func TestTensorGetSet(t *testing.T) {
	tensor := MakeTensor(world.Vec3i{X: 64, Y: 64, Z: 64}, 0)

	b := NewRangesArrayBuilder[int](ChunkSize, 0)
	b.Add(EncodePos(world.Vec3i{X: 3, Y: 4, Z: 5}), 7)
	tensor.SetChunk(world.Vec3i{X: 1, Y: 0, Z: 1}, ChunkOf(b.Build()))

	if got := tensor.Get(world.Vec3i{X: 35, Y: 4, Z: 37}); got != 7 {
		t.Errorf("Get expected 7 got %d", got)
	}
	if got := tensor.Get(world.Vec3i{X: 3, Y: 4, Z: 5}); got != 0 {
		t.Errorf("Get expected 0 got %d", got)
	}
}

func TestTensorSharedFill(t *testing.T) {
	tensor := MakeTensor(world.Vec3i{X: 96, Y: 32, Z: 32}, byte(9))
	if tensor.Chunks[0] != tensor.Chunks[1] || tensor.Chunks[1] != tensor.Chunks[2] {
		t.Error("fill chunks should share one handle")
	}
	tensor.SetChunk(world.Vec3i{X: 1, Y: 0, Z: 0}, MakeChunk(byte(1)))
	if tensor.Get(world.Vec3i{X: 0}) != 9 || tensor.Get(world.Vec3i{X: 32}) != 1 {
		t.Error("replacing a chunk handle leaked into its sharers")
	}
}

func TestTensorScanSparse(t *testing.T) {
	tensor := MakeTensor(world.Vec3i{X: 32, Y: 32, Z: 32}, 0)
	b := NewRangesArrayBuilder[int](ChunkSize, 0)
	b.Add(EncodePos(world.Vec3i{X: 1, Y: 2, Z: 3}), 5)
	b.Add(EncodePos(world.Vec3i{X: 31, Y: 31, Z: 31}), 6)
	tensor.SetChunk(world.Vec3i{}, ChunkOf(b.Build()))

	var count, sum int
	tensor.ScanSparse(func(pos world.Vec3i, val int) {
		count++
		sum += val
	})
	if count != 2 || sum != 11 {
		t.Errorf("sparse scan expected 2 hits summing 11, got %d %d", count, sum)
	}

	dense := 0
	tensor.ScanDense(func(world.Vec3i, int) {
		dense++
	})
	if dense != ChunkSize {
		t.Errorf("dense scan expected %d visits got %d", ChunkSize, dense)
	}
}

func TestTensorMapIdentityAndMerge(t *testing.T) {
	tensor := MakeTensor(world.Vec3i{X: 64, Y: 32, Z: 32}, 3)
	tensor.SetChunk(world.Vec3i{X: 1, Y: 0, Z: 0}, MakeChunk(4))

	mapped := Map(tensor, func(v int) int { return v })
	Diff(tensor, mapped, func(pos world.Vec3i, _, _ int) {
		t.Errorf("identity map differs at %+v", pos)
	})

	merged := Merge(tensor, tensor, func(a, _ int) int { return a })
	Diff(tensor, merged, func(pos world.Vec3i, _, _ int) {
		t.Errorf("projection merge differs at %+v", pos)
	})

	// Shared input chunks stay shared in the output.
	big := MakeTensor(world.Vec3i{X: 96, Y: 32, Z: 32}, 1)
	out := Map(big, func(v int) int { return v * 2 })
	if out.Chunks[0] != out.Chunks[1] || out.Chunks[1] != out.Chunks[2] {
		t.Error("map should preserve chunk sharing")
	}
}

func TestTensorDiff(t *testing.T) {
	a := MakeTensor(world.Vec3i{X: 32, Y: 32, Z: 32}, 0)
	b := MakeTensor(world.Vec3i{X: 32, Y: 32, Z: 32}, 0)

	rb := NewRangesArrayBuilder[int](ChunkSize, 0)
	rb.AddRange(100, 110, 9)
	b.SetChunk(world.Vec3i{}, ChunkOf(rb.Build()))

	count := 0
	Diff(a, b, func(pos world.Vec3i, va, vb int) {
		if va != 0 || vb != 9 {
			t.Errorf("diff values wrong at %+v: %d %d", pos, va, vb)
		}
		count++
	})
	if count != 10 {
		t.Errorf("diff expected 10 positions got %d", count)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	tensor := MakeTensor(world.Vec3i{X: 64, Y: 32, Z: 32}, uint32(0))
	b := NewRangesArrayBuilder[uint32](ChunkSize, 0)
	b.AddRange(0, 1000, 0xdeadbeef)
	b.Add(30000, 42)
	tensor.SetChunk(world.Vec3i{X: 1, Y: 0, Z: 0}, ChunkOf(b.Build()))

	blob, err := Marshal(tensor)
	if err != nil {
		t.Fatal(err)
	}

	got, err := Unmarshal[uint32](blob)
	if err != nil {
		t.Fatal(err)
	}
	if got.Shape != tensor.Shape {
		t.Fatalf("shape expected %+v got %+v", tensor.Shape, got.Shape)
	}
	Diff(tensor, got, func(pos world.Vec3i, _, _ uint32) {
		t.Errorf("round trip differs at %+v", pos)
	})

	if _, err := Unmarshal[uint32]([]byte("not zstd")); err == nil {
		t.Error("expected error on corrupt input")
	}
}
