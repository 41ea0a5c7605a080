// SPDX-FileCopyrightText: 2022 Global Illumination, Inc.
// SPDX-License-Identifier: MIT

package sim

import (
	"log/slog"

	"github.com/ill-inc/biomes-game-sub001/tensors"
	"github.com/ill-inc/biomes-game-sub001/terrain"
	"github.com/ill-inc/biomes-game-sub001/world"
)

// TerrainMap layers the per-voxel attributes of a world region over one
// shared shard grid. The terrains layer is derived from seeds and diffs
// and re-materialised chunk-wise on every edit.
type TerrainMap struct {
	Seeds    WorldMap[terrain.ID]
	Diffs    WorldMap[terrain.MaybeID]
	Terrains WorldMap[terrain.ID]

	Dyes        WorldMap[uint8]
	Growths     WorldMap[uint8]
	Waters      WorldMap[uint8]
	Irradiances WorldMap[uint32]
	Occlusions  WorldMap[uint8]

	logger *slog.Logger
	stream Stream[world.Vec3i]
}

func (m *TerrainMap) AABB() world.Box {
	return m.Seeds.AABB
}

func (m *TerrainMap) Contains(pos world.Vec3i) bool {
	return m.Seeds.Contains(pos)
}

// Subscribe returns a reader of world positions whose terrain changed.
func (m *TerrainMap) Subscribe() *StreamReader[world.Vec3i] {
	return m.stream.Subscribe()
}

func (m *TerrainMap) GetSeed(pos world.Vec3i) terrain.ID {
	return m.Seeds.Get(pos)
}

func (m *TerrainMap) GetDiff(pos world.Vec3i) terrain.MaybeID {
	return m.Diffs.Get(pos)
}

// Get returns the effective terrain at pos, the diff overriding the seed.
func (m *TerrainMap) Get(pos world.Vec3i) terrain.ID {
	return m.Diffs.Get(pos).Or(m.Seeds.Get(pos))
}

// GetTerrain reads the materialised terrains layer.
func (m *TerrainMap) GetTerrain(pos world.Vec3i) terrain.ID {
	return m.Terrains.Get(pos)
}

func (m *TerrainMap) checkUpdate(pos world.Vec3i, shape world.Vec3i) {
	if shape != tensors.ChunkShape {
		panic("sim: updated block must be a single chunk")
	}
	if !IsShardAligned(pos) || !m.Contains(pos) {
		panic("sim: updated block position is invalid")
	}
}

// UpdateDiff installs a new diff chunk, re-derives the terrains chunk, and
// publishes the positions whose effective terrain changed.
func (m *TerrainMap) UpdateDiff(pos world.Vec3i, diff tensors.Tensor[terrain.MaybeID]) bool {
	m.checkUpdate(pos, diff.Shape)

	old := m.Terrains.Chunk(pos)
	m.Diffs.SetChunk(pos, diff.Chunks[0])
	m.Terrains.SetChunk(pos, tensors.ChunkOf(tensors.MergeArrays(
		m.Seeds.Chunk(pos).Array,
		diff.Chunks[0].Array,
		func(seed terrain.ID, diff terrain.MaybeID) terrain.ID {
			return diff.Or(seed)
		},
	)))

	changed := false
	tensors.DiffArrays(old.Array, m.Terrains.Chunk(pos).Array, func(run tensors.Run, _, _ terrain.ID) {
		changed = true
		for p := run.Pos; p < run.Pos+run.Len; p++ {
			m.stream.Write(pos.Add(tensors.DecodePos(p)))
		}
	})
	if changed {
		m.logger.Debug("terrain diff applied", "pos", pos)
	}
	return changed
}

func (m *TerrainMap) UpdateDye(pos world.Vec3i, dye tensors.Tensor[uint8]) {
	m.checkUpdate(pos, dye.Shape)
	m.Dyes.SetChunk(pos, dye.Chunks[0])
}

func (m *TerrainMap) UpdateGrowth(pos world.Vec3i, growth tensors.Tensor[uint8]) {
	m.checkUpdate(pos, growth.Shape)
	m.Growths.SetChunk(pos, growth.Chunks[0])
}

func (m *TerrainMap) UpdateWater(pos world.Vec3i, water tensors.Tensor[uint8]) {
	m.checkUpdate(pos, water.Shape)
	m.Waters.SetChunk(pos, water.Chunks[0])
}

func (m *TerrainMap) UpdateIrradiance(pos world.Vec3i, irradiance tensors.Tensor[uint32]) {
	m.checkUpdate(pos, irradiance.Shape)
	m.Irradiances.SetChunk(pos, irradiance.Chunks[0])
}

func (m *TerrainMap) UpdateOcclusion(pos world.Vec3i, occlusion tensors.Tensor[uint8]) {
	m.checkUpdate(pos, occlusion.Shape)
	m.Occlusions.SetChunk(pos, occlusion.Chunks[0])
}

// FindSeed visits every seed voxel holding the given id.
func (m *TerrainMap) FindSeed(id terrain.ID, fn func(pos world.Vec3i)) {
	m.Seeds.Tensor.Find(
		func(val terrain.ID) bool { return val == id },
		func(pos world.Vec3i, _ terrain.ID) {
			fn(m.Seeds.TensorToWorld(pos))
		})
}

// FindDiff visits every diff voxel overriding to the given id.
func (m *TerrainMap) FindDiff(id terrain.ID, fn func(pos world.Vec3i)) {
	m.Diffs.Tensor.Find(
		func(val terrain.MaybeID) bool { return val.OK && val.ID == id },
		func(pos world.Vec3i, _ terrain.MaybeID) {
			fn(m.Diffs.TensorToWorld(pos))
		})
}

// Find visits every voxel whose effective terrain is the given id.
func (m *TerrainMap) Find(id terrain.ID, fn func(pos world.Vec3i)) {
	m.FindSeed(id, func(pos world.Vec3i) {
		if !m.GetDiff(pos).OK {
			fn(pos)
		}
	})
	m.FindDiff(id, fn)
}

// StorageSize estimates the resident bytes across all layers.
func (m *TerrainMap) StorageSize() int {
	return m.Seeds.StorageSize() + m.Diffs.StorageSize() +
		m.Terrains.StorageSize() + m.Dyes.StorageSize() +
		m.Growths.StorageSize() + m.Waters.StorageSize() +
		m.Irradiances.StorageSize() + m.Occlusions.StorageSize()
}

// TerrainMapBuilder accumulates per-shard layer assignments keyed by shard
// origin and materialises the layered map.
type TerrainMapBuilder struct {
	seeded      map[world.Vec3i]bool
	seeds       *WorldMapBuilder[terrain.ID]
	diffs       *WorldMapBuilder[terrain.MaybeID]
	dyes        *WorldMapBuilder[uint8]
	growths     *WorldMapBuilder[uint8]
	waters      *WorldMapBuilder[uint8]
	irradiances *WorldMapBuilder[uint32]
	occlusions  *WorldMapBuilder[uint8]
}

func NewTerrainMapBuilder() *TerrainMapBuilder {
	return &TerrainMapBuilder{
		seeded:      make(map[world.Vec3i]bool),
		seeds:       NewWorldMapBuilder[terrain.ID](),
		diffs:       NewWorldMapBuilder[terrain.MaybeID](),
		dyes:        NewWorldMapBuilder[uint8](),
		growths:     NewWorldMapBuilder[uint8](),
		waters:      NewWorldMapBuilder[uint8](),
		irradiances: NewWorldMapBuilder[uint32](),
		occlusions:  NewWorldMapBuilder[uint8](),
	}
}

func (b *TerrainMapBuilder) AssignSeedBlock(pos world.Vec3i, seed tensors.Tensor[terrain.ID]) {
	b.seeds.AssignBlock(pos, seed)
	b.seeded[pos] = true
}

func (b *TerrainMapBuilder) AssignDiffBlock(pos world.Vec3i, diff tensors.Tensor[terrain.MaybeID]) {
	b.diffs.AssignBlock(pos, diff)
}

func (b *TerrainMapBuilder) AssignDyeBlock(pos world.Vec3i, dye tensors.Tensor[uint8]) {
	b.dyes.AssignBlock(pos, dye)
}

func (b *TerrainMapBuilder) AssignGrowthBlock(pos world.Vec3i, growth tensors.Tensor[uint8]) {
	b.growths.AssignBlock(pos, growth)
}

func (b *TerrainMapBuilder) AssignWaterBlock(pos world.Vec3i, water tensors.Tensor[uint8]) {
	b.waters.AssignBlock(pos, water)
}

func (b *TerrainMapBuilder) AssignIrradianceBlock(pos world.Vec3i, irradiance tensors.Tensor[uint32]) {
	b.irradiances.AssignBlock(pos, irradiance)
}

func (b *TerrainMapBuilder) AssignOcclusionBlock(pos world.Vec3i, occlusion tensors.Tensor[uint8]) {
	b.occlusions.AssignBlock(pos, occlusion)
}

// AABB returns the union box across every layer assigned so far.
func (b *TerrainMapBuilder) AABB() world.Box {
	aabb := b.seeds.AABB()
	aabb = world.UnionBox(aabb, b.diffs.AABB())
	aabb = world.UnionBox(aabb, b.dyes.AABB())
	aabb = world.UnionBox(aabb, b.growths.AABB())
	aabb = world.UnionBox(aabb, b.waters.AABB())
	aabb = world.UnionBox(aabb, b.irradiances.AABB())
	aabb = world.UnionBox(aabb, b.occlusions.AABB())
	return aabb
}

// ShardCount returns how many shards the union box spans.
func (b *TerrainMapBuilder) ShardCount() int {
	return b.AABB().Volume() / tensors.ChunkSize
}

// HoleCount returns how many shards of the union box lack a seed block.
func (b *TerrainMapBuilder) HoleCount() int {
	if shards := b.ShardCount(); shards > len(b.seeded) {
		return shards - len(b.seeded)
	}
	return 0
}

// Build materialises every layer over the union box and derives the
// terrains layer.
func (b *TerrainMapBuilder) Build(logger *slog.Logger) *TerrainMap {
	aabb := b.AABB()
	if aabb.Empty() {
		panic("sim: terrain map has no assigned blocks")
	}
	if logger == nil {
		logger = slog.Default()
	}

	seeds := b.seeds.Build(aabb)
	diffs := b.diffs.Build(aabb)
	terrains := NewWorldMap(aabb, tensors.Merge(seeds.Tensor, diffs.Tensor,
		func(seed terrain.ID, diff terrain.MaybeID) terrain.ID {
			return diff.Or(seed)
		}))

	return &TerrainMap{
		Seeds:       seeds,
		Diffs:       diffs,
		Terrains:    terrains,
		Dyes:        b.dyes.Build(aabb),
		Growths:     b.growths.Build(aabb),
		Waters:      b.waters.Build(aabb),
		Irradiances: b.irradiances.Build(aabb),
		Occlusions:  b.occlusions.Build(aabb),
		logger:      logger,
	}
}
