// SPDX-FileCopyrightText: 2022 Global Illumination, Inc.
// SPDX-License-Identifier: MIT

package sim

import (
	"hash/maphash"
	"sort"

	"github.com/ill-inc/biomes-game-sub001/tensors"
	"github.com/ill-inc/biomes-game-sub001/world"
)

// ShardWriter batches voxel writes over a WorldMap. Pending writes overlay
// the map until Flush rebuilds each dirty chunk and installs it.
type ShardWriter[V comparable] struct {
	m       *WorldMap[V]
	pending map[world.Vec3i]map[tensors.ArrayPos]V
}

func NewShardWriter[V comparable](m *WorldMap[V]) *ShardWriter[V] {
	return &ShardWriter[V]{
		m:       m,
		pending: make(map[world.Vec3i]map[tensors.ArrayPos]V),
	}
}

func splitPos(pos world.Vec3i) (shard world.Vec3i, local tensors.ArrayPos) {
	shard = ToShardPos(pos)
	return shard, tensors.EncodePos(pos.Sub(shard))
}

// Get reads through the pending overlay.
func (w *ShardWriter[V]) Get(pos world.Vec3i) V {
	shard, local := splitPos(pos)
	if vals, ok := w.pending[shard]; ok {
		if val, ok := vals[local]; ok {
			return val
		}
	}
	return w.m.Get(pos)
}

// Set records a pending write.
func (w *ShardWriter[V]) Set(pos world.Vec3i, val V) {
	shard, local := splitPos(pos)
	vals, ok := w.pending[shard]
	if !ok {
		vals = make(map[tensors.ArrayPos]V)
		w.pending[shard] = vals
	}
	vals[local] = val
}

// Flush rebuilds every dirty chunk and installs it into the map, returning
// the flushed shard origins in deterministic order.
func (w *ShardWriter[V]) Flush() []world.Vec3i {
	flushed := make([]world.Vec3i, 0, len(w.pending))
	for shard := range w.pending {
		flushed = append(flushed, shard)
	}
	sort.Slice(flushed, func(i, j int) bool {
		a, b := flushed[i], flushed[j]
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})

	var zero V
	for _, shard := range flushed {
		b := tensors.NewRangesArrayBuilder(tensors.ChunkSize, zero)
		w.m.Chunk(shard).Array.Scan(func(run tensors.Run, val V) {
			b.AddRange(run.Pos, run.Pos+run.Len, val)
		})
		for local, val := range w.pending[shard] {
			b.Add(local, val)
		}
		w.m.SetChunk(shard, tensors.ChunkOf(b.Build()))
		delete(w.pending, shard)
	}
	return flushed
}

// ChecksumMap remembers a per-shard hash of the RLE encoding so writers
// can suppress signals for rewrites that do not change content.
type ChecksumMap[V comparable] struct {
	seed maphash.Seed
	sums map[world.Vec3i]uint64
}

func NewChecksumMap[V comparable]() *ChecksumMap[V] {
	return &ChecksumMap[V]{
		seed: maphash.MakeSeed(),
		sums: make(map[world.Vec3i]uint64),
	}
}

// Update records the chunk's checksum and reports whether it changed since
// the last observation. A chunk never seen before always counts as changed.
func (c *ChecksumMap[V]) Update(pos world.Vec3i, chunk *tensors.Chunk[V]) bool {
	var sum uint64
	chunk.Array.Scan(func(run tensors.Run, val V) {
		sum = sum*0x9e3779b97f4a7c15 + maphash.Comparable(c.seed, run)
		sum = sum*0x9e3779b97f4a7c15 + maphash.Comparable(c.seed, val)
	})

	old, seen := c.sums[pos]
	c.sums[pos] = sum
	return !seen || old != sum
}
