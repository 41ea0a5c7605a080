// SPDX-FileCopyrightText: 2022 Global Illumination, Inc.
// SPDX-License-Identifier: MIT

package tensors

import (
	"github.com/ill-inc/biomes-game-sub001/world"
)

const (
	// ChunkDim is the width of a chunk along each axis.
	ChunkDim = 32
	// ChunkSize is the number of voxels in a chunk.
	ChunkSize = ChunkDim * ChunkDim * ChunkDim
)

// ChunkShape is the shape of a single-chunk tensor.
var ChunkShape = world.Vec3i{X: ChunkDim, Y: ChunkDim, Z: ChunkDim}

// EncodePos packs chunk-local coordinates so that x varies fastest, then z,
// then y. Keeping y outermost means a whole-array reverse flips the vertical
// scan direction, and pos % 1024 recovers the (x, z) column.
func EncodePos(pos world.Vec3i) ArrayPos {
	return ArrayPos(pos.X | pos.Z<<5 | pos.Y<<10)
}

// DecodePos unpacks a chunk-local position.
func DecodePos(i ArrayPos) world.Vec3i {
	return world.Vec3i{X: int(i) & 31, Y: int(i) >> 10 & 31, Z: int(i) >> 5 & 31}
}

// Chunk owns the RLE array of one 32^3 region. Chunk handles are shared
// between tensors that differ only elsewhere; a write replaces the handle
// rather than mutating it.
type Chunk[V comparable] struct {
	Array Array[V]
}

// MakeChunk returns a chunk holding a single run of fill.
func MakeChunk[V comparable](fill V) *Chunk[V] {
	return &Chunk[V]{Array: MakeArray(ChunkSize, fill)}
}

// ChunkOf wraps an array as a chunk, checking its length.
func ChunkOf[V comparable](a Array[V]) *Chunk[V] {
	if a.Len() != ChunkSize {
		panic("tensors: chunk array must have 32^3 positions")
	}
	return &Chunk[V]{Array: a}
}

// Tensor is a 3D grid of chunk handles. The shape is in voxels, a multiple
// of 32 along each axis; chunk slots are ordered x fastest and z slowest.
type Tensor[V comparable] struct {
	Shape  world.Vec3i
	Chunks []*Chunk[V]
}

// MakeTensor returns a tensor of the given shape filled with a value. All
// slots share one chunk handle until written.
func MakeTensor[V comparable](shape world.Vec3i, fill V) Tensor[V] {
	w, h, d := chunkDims(shape)
	fillChunk := MakeChunk(fill)
	chunks := make([]*Chunk[V], w*h*d)
	for i := range chunks {
		chunks[i] = fillChunk
	}
	return Tensor[V]{Shape: shape, Chunks: chunks}
}

func chunkDims(shape world.Vec3i) (w, h, d int) {
	if shape.X%ChunkDim != 0 || shape.Y%ChunkDim != 0 || shape.Z%ChunkDim != 0 {
		panic("tensors: tensor shape must be a multiple of the chunk dim")
	}
	return shape.X / ChunkDim, shape.Y / ChunkDim, shape.Z / ChunkDim
}

// ChunkDiv returns the tensor's shape in chunks.
func (t *Tensor[V]) ChunkDiv() world.Vec3i {
	w, h, d := chunkDims(t.Shape)
	return world.Vec3i{X: w, Y: h, Z: d}
}

func (t *Tensor[V]) chunkIndex(cpos world.Vec3i) int {
	w, h, d := chunkDims(t.Shape)
	if cpos.X < 0 || cpos.X >= w || cpos.Y < 0 || cpos.Y >= h || cpos.Z < 0 || cpos.Z >= d {
		panic("tensors: chunk position out of range")
	}
	return cpos.X + w*(cpos.Y+h*cpos.Z)
}

// Chunk returns the chunk handle covering the chunk-grid position.
func (t *Tensor[V]) Chunk(cpos world.Vec3i) *Chunk[V] {
	return t.Chunks[t.chunkIndex(cpos)]
}

// SetChunk replaces the chunk handle covering the chunk-grid position.
func (t *Tensor[V]) SetChunk(cpos world.Vec3i, c *Chunk[V]) {
	t.Chunks[t.chunkIndex(cpos)] = c
}

// Get returns the value at a tensor position.
func (t *Tensor[V]) Get(pos world.Vec3i) V {
	cpos := pos.FloorDiv(ChunkDim)
	local := pos.Sub(cpos.Mul(ChunkDim))
	return t.Chunk(cpos).Array.Get(EncodePos(local))
}

// ScanChunks calls fn once per chunk slot with its origin position.
func (t *Tensor[V]) ScanChunks(fn func(i int, origin world.Vec3i, c *Chunk[V])) {
	w, h, d := chunkDims(t.Shape)
	i := 0
	for cz := 0; cz < d; cz++ {
		for cy := 0; cy < h; cy++ {
			for cx := 0; cx < w; cx++ {
				fn(i, world.Vec3i{X: cx, Y: cy, Z: cz}.Mul(ChunkDim), t.Chunks[i])
				i++
			}
		}
	}
}

// ScanDense visits every position once.
func (t *Tensor[V]) ScanDense(fn func(pos world.Vec3i, val V)) {
	t.ScanChunks(func(_ int, origin world.Vec3i, c *Chunk[V]) {
		c.Array.Scan(func(run Run, val V) {
			for p := run.Pos; p < run.Pos+run.Len; p++ {
				fn(origin.Add(DecodePos(p)), val)
			}
		})
	})
}

// ScanSparse visits only positions holding a non-zero value.
func (t *Tensor[V]) ScanSparse(fn func(pos world.Vec3i, val V)) {
	var zero V
	t.Find(func(val V) bool { return val != zero }, fn)
}

// Find visits positions in runs whose value satisfies the predicate.
func (t *Tensor[V]) Find(pred func(V) bool, fn func(pos world.Vec3i, val V)) {
	t.ScanChunks(func(_ int, origin world.Vec3i, c *Chunk[V]) {
		c.Array.Scan(func(run Run, val V) {
			if !pred(val) {
				return
			}
			for p := run.Pos; p < run.Pos+run.Len; p++ {
				fn(origin.Add(DecodePos(p)), val)
			}
		})
	})
}

// Map rebuilds the tensor with f applied element-wise.
func Map[A, B comparable](t Tensor[A], f func(A) B) Tensor[B] {
	out := Tensor[B]{Shape: t.Shape, Chunks: make([]*Chunk[B], len(t.Chunks))}
	shared := make(map[*Chunk[A]]*Chunk[B], len(t.Chunks))
	for i, c := range t.Chunks {
		mapped, ok := shared[c]
		if !ok {
			mapped = &Chunk[B]{Array: MapArray(c.Array, f)}
			shared[c] = mapped
		}
		out.Chunks[i] = mapped
	}
	return out
}

// MapDense rebuilds the tensor with f applied per position.
func MapDense[A, B comparable](t Tensor[A], f func(pos world.Vec3i, val A) B) Tensor[B] {
	out := Tensor[B]{Shape: t.Shape, Chunks: make([]*Chunk[B], len(t.Chunks))}
	t.ScanChunks(func(i int, origin world.Vec3i, c *Chunk[A]) {
		var b ArrayBuilder[B]
		c.Array.Scan(func(run Run, val A) {
			for p := run.Pos; p < run.Pos+run.Len; p++ {
				b.Add(1, f(origin.Add(DecodePos(p)), val))
			}
		})
		out.Chunks[i] = ChunkOf(b.Build())
	})
	return out
}

// Merge combines two co-shaped tensors element-wise.
func Merge[A, B, C comparable](a Tensor[A], b Tensor[B], f func(A, B) C) Tensor[C] {
	if a.Shape != b.Shape {
		panic("tensors: merged tensors must have equal shapes")
	}
	out := Tensor[C]{Shape: a.Shape, Chunks: make([]*Chunk[C], len(a.Chunks))}
	type pair struct {
		a *Chunk[A]
		b *Chunk[B]
	}
	shared := make(map[pair]*Chunk[C], len(a.Chunks))
	for i := range a.Chunks {
		key := pair{a: a.Chunks[i], b: b.Chunks[i]}
		merged, ok := shared[key]
		if !ok {
			merged = &Chunk[C]{Array: MergeArrays(a.Chunks[i].Array, b.Chunks[i].Array, f)}
			shared[key] = merged
		}
		out.Chunks[i] = merged
	}
	return out
}

// Diff calls fn per position at which the two tensors disagree.
func Diff[V comparable](a, b Tensor[V], fn func(pos world.Vec3i, va, vb V)) {
	if a.Shape != b.Shape {
		panic("tensors: diffed tensors must have equal shapes")
	}
	a.ScanChunks(func(i int, origin world.Vec3i, c *Chunk[V]) {
		if c == b.Chunks[i] {
			return
		}
		DiffArrays(c.Array, b.Chunks[i].Array, func(run Run, va, vb V) {
			for p := run.Pos; p < run.Pos+run.Len; p++ {
				fn(origin.Add(DecodePos(p)), va, vb)
			}
		})
	})
}
