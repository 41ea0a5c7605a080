// SPDX-FileCopyrightText: 2022 Global Illumination, Inc.
// SPDX-License-Identifier: MIT

package sim

import (
	"unsafe"

	"github.com/ill-inc/biomes-game-sub001/tensors"
	"github.com/ill-inc/biomes-game-sub001/world"
)

// IsShardAligned reports whether each component of pos is a multiple of
// the chunk dim.
func IsShardAligned(pos world.Vec3i) bool {
	return pos.X%tensors.ChunkDim == 0 &&
		pos.Y%tensors.ChunkDim == 0 &&
		pos.Z%tensors.ChunkDim == 0
}

// ToShardPos rounds a world position down to its shard origin.
func ToShardPos(pos world.Vec3i) world.Vec3i {
	return pos.FloorDiv(tensors.ChunkDim).Mul(tensors.ChunkDim)
}

// ShardBox is the box covered by the shard at the given origin.
func ShardBox(pos world.Vec3i) world.Box {
	return world.CubeBox(tensors.ChunkDim).Shift(pos)
}

// WorldMap anchors a tensor to a shard-aligned box in world space, sharing
// chunk handles at shard granularity.
type WorldMap[V comparable] struct {
	AABB   world.Box
	Tensor tensors.Tensor[V]
}

// NewWorldMap wraps a tensor whose shape matches the box size.
func NewWorldMap[V comparable](aabb world.Box, tensor tensors.Tensor[V]) WorldMap[V] {
	if !IsShardAligned(aabb.V0) || !IsShardAligned(aabb.V1) {
		panic("sim: world map box is not shard aligned")
	}
	if tensor.Shape != aabb.Size() {
		panic("sim: world map tensor shape does not match its box")
	}
	return WorldMap[V]{AABB: aabb, Tensor: tensor}
}

func (m *WorldMap[V]) Contains(pos world.Vec3i) bool {
	return m.AABB.Contains(pos)
}

func (m *WorldMap[V]) WorldToTensor(pos world.Vec3i) world.Vec3i {
	return pos.Sub(m.AABB.V0)
}

func (m *WorldMap[V]) TensorToWorld(pos world.Vec3i) world.Vec3i {
	return pos.Add(m.AABB.V0)
}

// Get returns the value at a world position inside the map.
func (m *WorldMap[V]) Get(pos world.Vec3i) V {
	return m.Tensor.Get(m.WorldToTensor(pos))
}

// MaybeGet returns the value at a world position, or false outside the map.
func (m *WorldMap[V]) MaybeGet(pos world.Vec3i) (V, bool) {
	if !m.Contains(pos) {
		var zero V
		return zero, false
	}
	return m.Get(pos), true
}

// Chunk returns the chunk handle of the shard containing pos.
func (m *WorldMap[V]) Chunk(pos world.Vec3i) *tensors.Chunk[V] {
	return m.Tensor.Chunk(m.WorldToTensor(ToShardPos(pos)).FloorDiv(tensors.ChunkDim))
}

// SetChunk replaces the chunk handle of the shard at a shard-aligned pos.
func (m *WorldMap[V]) SetChunk(pos world.Vec3i, c *tensors.Chunk[V]) {
	if !IsShardAligned(pos) {
		panic("sim: chunk position is not shard aligned")
	}
	m.Tensor.SetChunk(m.WorldToTensor(pos).FloorDiv(tensors.ChunkDim), c)
}

// StorageSize estimates the resident bytes of the map, counting shared
// chunk handles once.
func (m *WorldMap[V]) StorageSize() int {
	var v V
	size := 0
	seen := make(map[*tensors.Chunk[V]]bool)
	for _, c := range m.Tensor.Chunks {
		if seen[c] {
			continue
		}
		seen[c] = true
		size += 4*len(c.Array.Dict.ToBuffer()) + len(c.Array.Vals)*int(unsafe.Sizeof(v))
	}
	return size
}

// SubWorldMap returns the map restricted to the intersection with box,
// sharing chunk handles with the source. The clipped box must stay shard
// aligned.
func SubWorldMap[V comparable](m WorldMap[V], box world.Box) WorldMap[V] {
	clipped := world.IntersectBox(m.AABB, box)
	if clipped.Empty() {
		panic("sim: sub world map does not intersect its source")
	}
	if !IsShardAligned(clipped.V0) || !IsShardAligned(clipped.V1) {
		panic("sim: sub world map box is not shard aligned")
	}

	shape := clipped.Size()
	out := tensors.Tensor[V]{
		Shape:  shape,
		Chunks: make([]*tensors.Chunk[V], 0, clipped.Volume()/tensors.ChunkSize),
	}
	for z := clipped.V0.Z; z < clipped.V1.Z; z += tensors.ChunkDim {
		for y := clipped.V0.Y; y < clipped.V1.Y; y += tensors.ChunkDim {
			for x := clipped.V0.X; x < clipped.V1.X; x += tensors.ChunkDim {
				out.Chunks = append(out.Chunks, m.Chunk(world.Vec3i{X: x, Y: y, Z: z}))
			}
		}
	}
	return WorldMap[V]{AABB: clipped, Tensor: out}
}

// WorldMapBuilder accumulates per-shard blocks keyed by origin and builds
// a dense map over the union box.
type WorldMapBuilder[V comparable] struct {
	aabb   world.Box
	chunks map[world.Vec3i]*tensors.Chunk[V]
}

func NewWorldMapBuilder[V comparable]() *WorldMapBuilder[V] {
	return &WorldMapBuilder[V]{
		aabb:   world.EmptyBox(),
		chunks: make(map[world.Vec3i]*tensors.Chunk[V]),
	}
}

// AssignBlock installs a single-chunk tensor at the shard origin.
func (b *WorldMapBuilder[V]) AssignBlock(pos world.Vec3i, t tensors.Tensor[V]) {
	if !IsShardAligned(pos) {
		panic("sim: assigned block is not shard aligned")
	}
	if t.Shape != tensors.ChunkShape {
		panic("sim: assigned block must be a single chunk")
	}
	b.chunks[pos] = t.Chunks[0]
	b.aabb = world.UnionBox(b.aabb, ShardBox(pos))
}

func (b *WorldMapBuilder[V]) AABB() world.Box {
	return b.aabb
}

// Build emits a dense map over the given box; unassigned shards hold the
// zero value.
func (b *WorldMapBuilder[V]) Build(aabb world.Box) WorldMap[V] {
	var zero V
	m := NewWorldMap(aabb, tensors.MakeTensor(aabb.Size(), zero))
	for pos, c := range b.chunks {
		if aabb.Contains(pos) {
			m.SetChunk(pos, c)
		}
	}
	return m
}
