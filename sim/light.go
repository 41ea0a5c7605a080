// SPDX-FileCopyrightText: 2022 Global Illumination, Inc.
// SPDX-License-Identifier: MIT

package sim

import (
	"log/slog"
	"math/rand"
	"sort"

	"github.com/ill-inc/biomes-game-sub001/tensors"
	"github.com/ill-inc/biomes-game-sub001/terrain"
	"github.com/ill-inc/biomes-game-sub001/world"
)

const (
	// MaxOcclusion marks a voxel that receives no sky light.
	MaxOcclusion uint8 = 15
	// OcclusionStep is the attenuation per voxel of distance from the sky.
	OcclusionStep uint8 = 1
)

// Light holds per-channel (r, g, b, reserved) flood-fill levels in 0..15.
type Light = [4]uint8

type (
	SkyOcclusionMap = WorldMap[uint8]
	IrradianceMap   = WorldMap[Light]
)

var (
	unitX = world.Vec3i{X: 1}
	unitY = world.Vec3i{Y: 1}
	unitZ = world.Vec3i{Z: 1}
)

const layerSize = tensors.ChunkDim * tensors.ChunkDim

// layerBits tracks one bit per (x, z) cell of a chunk layer.
type layerBits [layerSize / 64]uint64

func (b *layerBits) set(i int)      { b[i>>6] |= 1 << uint(i&63) }
func (b *layerBits) get(i int) bool { return b[i>>6]&(1<<uint(i&63)) != 0 }

func (b *layerBits) full() bool {
	for _, w := range b {
		if w != ^uint64(0) {
			return false
		}
	}
	return true
}

// SkyOcclusionWriter installs occlusion chunks and signals shards whose
// content actually changed.
type SkyOcclusionWriter struct {
	logger    *slog.Logger
	m         *Lazy[SkyOcclusionMap]
	stream    *Stream[world.Vec3i]
	checksums *ChecksumMap[uint8]
}

func NewSkyOcclusionWriter(logger *slog.Logger, m *Lazy[SkyOcclusionMap], stream *Stream[world.Vec3i]) *SkyOcclusionWriter {
	return &SkyOcclusionWriter{
		logger:    logger,
		m:         m,
		stream:    stream,
		checksums: NewChecksumMap[uint8](),
	}
}

func (w *SkyOcclusionWriter) Update(pos world.Vec3i, c *tensors.Chunk[uint8]) {
	w.m.Get().SetChunk(pos, c)
	w.Signal(pos)
}

func (w *SkyOcclusionWriter) Signal(pos world.Vec3i) {
	if w.checksums.Update(pos, w.m.Get().Chunk(pos)) {
		w.logger.Debug("sky occlusion shard changed", "pos", pos)
		w.stream.Write(pos)
	}
}

// IrradianceWriter installs irradiance chunks and signals shards whose
// content actually changed.
type IrradianceWriter struct {
	logger    *slog.Logger
	m         *Lazy[IrradianceMap]
	stream    *Stream[world.Vec3i]
	checksums *ChecksumMap[Light]
}

func NewIrradianceWriter(logger *slog.Logger, m *Lazy[IrradianceMap], stream *Stream[world.Vec3i]) *IrradianceWriter {
	return &IrradianceWriter{
		logger:    logger,
		m:         m,
		stream:    stream,
		checksums: NewChecksumMap[Light](),
	}
}

func (w *IrradianceWriter) Update(pos world.Vec3i, c *tensors.Chunk[Light]) {
	w.m.Get().SetChunk(pos, c)
	w.Signal(pos)
}

func (w *IrradianceWriter) Signal(pos world.Vec3i) {
	if w.checksums.Update(pos, w.m.Get().Chunk(pos)) {
		w.logger.Debug("irradiance shard changed", "pos", pos)
		w.stream.Write(pos)
	}
}

func isEmptyShard(m *TerrainMap, pos world.Vec3i) bool {
	return !tensors.Any(m.Terrains.Chunk(pos).Array, terrain.Occlusive)
}

// initializeOcclusionColumn recomputes the occlusion chunks of one (x, z)
// column top-down and hands them to update. The vertical extent comes from
// aabb, which must cover the column.
func initializeOcclusionColumn(m *TerrainMap, aabb world.Box, column world.Vec2i, update func(pos world.Vec3i, c *tensors.Chunk[uint8])) {
	sx, sz := column.X, column.Z
	step := tensors.ChunkDim
	sy := aabb.V1.Y - step

	// Emit all of the leading non-occlusive shards.
	for ; sy >= aabb.V0.Y && isEmptyShard(m, world.Vec3i{X: sx, Y: sy, Z: sz}); sy -= step {
		update(world.Vec3i{X: sx, Y: sy, Z: sz}, tensors.MakeChunk(uint8(0)))
	}

	// Emit shards until every voxel column is occluded. The scan direction
	// is top-down, so each shard is processed with its runs reversed.
	var prev layerBits
	for ; sy >= aabb.V0.Y && !prev.full(); sy -= step {
		src := tensors.Reverse(m.Terrains.Chunk(world.Vec3i{X: sx, Y: sy, Z: sz}).Array)
		dst := tensors.MapDenseArray(src, func(p tensors.ArrayPos, id terrain.ID) uint8 {
			i := int(p) % layerSize
			if terrain.Occlusive(id) {
				prev.set(i)
			}
			if prev.get(i) {
				return MaxOcclusion
			}
			return 0
		})
		update(world.Vec3i{X: sx, Y: sy, Z: sz}, tensors.ChunkOf(tensors.Reverse(dst)))
	}

	// Emit the trailing fully-occluded shards.
	for ; sy >= aabb.V0.Y; sy -= step {
		update(world.Vec3i{X: sx, Y: sy, Z: sz}, tensors.MakeChunk(MaxOcclusion))
	}
}

// scheduleOcclusionColumn seeds the queue with occluded voxels of the
// column that border an at least partly lit neighbor and so might relax.
func scheduleOcclusionColumn(m *TerrainMap, occlusions *SkyOcclusionMap, column world.Vec2i, queue *Queue[world.Vec3i]) {
	sx, sz := column.X, column.Z
	aabb := occlusions.AABB
	step := tensors.ChunkDim
	sy := aabb.V1.Y - step

	// Skip over all fully non-occlusive shards.
	for ; sy >= aabb.V0.Y && isEmptyShard(m, world.Vec3i{X: sx, Y: sy, Z: sz}); sy -= step {
	}

	getDefault := func(pos world.Vec3i) uint8 {
		if val, ok := occlusions.MaybeGet(pos); ok {
			return val
		}
		if val, ok := m.Occlusions.MaybeGet(pos); ok {
			return val
		}
		return MaxOcclusion
	}
	lit := func(pos world.Vec3i) bool {
		return getDefault(pos) < MaxOcclusion-OcclusionStep
	}

	for ; sy >= aabb.V0.Y; sy -= step {
		origin := world.Vec3i{X: sx, Y: sy, Z: sz}
		occlusions.Chunk(origin).Array.Scan(func(run tensors.Run, so uint8) {
			if so != MaxOcclusion {
				return
			}
			for i := run.Pos; i < run.Pos+run.Len; i++ {
				pos := origin.Add(tensors.DecodePos(i))
				if i == run.Pos && lit(pos.Sub(unitX)) {
					queue.Push(pos)
					continue
				}
				if i == run.Pos+run.Len-1 && lit(pos.Add(unitX)) {
					queue.Push(pos)
					continue
				}
				if lit(pos.Sub(unitZ)) || lit(pos.Add(unitZ)) {
					queue.Push(pos)
				}
			}
		})
	}
}

// processOcclusionQueue relaxes queued voxels against the minimum of their
// neighbors until the queue drains. Voxels outside the map count as fully
// occluded.
func processOcclusionQueue(m *TerrainMap, occlusions *SkyOcclusionMap, queue *Queue[world.Vec3i], signal func(pos world.Vec3i)) {
	writer := NewShardWriter(occlusions)

	getDefault := func(pos world.Vec3i) uint8 {
		if !occlusions.Contains(pos) {
			return MaxOcclusion
		}
		return writer.Get(pos)
	}
	pushIf := func(cond bool, pos world.Vec3i) {
		if cond {
			queue.Push(pos)
		}
	}

	for !queue.Empty() {
		pos := queue.Pop()
		if !occlusions.Contains(pos) {
			continue
		}
		if terrain.Occlusive(m.GetTerrain(pos)) {
			continue
		}

		xNeg := getDefault(pos.Sub(unitX))
		xPos := getDefault(pos.Add(unitX))
		yNeg := getDefault(pos.Sub(unitY))
		yPos := getDefault(pos.Add(unitY))
		zNeg := getDefault(pos.Sub(unitZ))
		zPos := getDefault(pos.Add(unitZ))
		dMin := min(xNeg, xPos, yNeg, yPos, zNeg, zPos)

		oldVal := writer.Get(pos)
		newVal := min(MaxOcclusion, dMin+OcclusionStep)
		if oldVal > newVal {
			writer.Set(pos, newVal)
		} else {
			continue
		}

		// Recurse on each neighbor that might require an update.
		pushIf(xNeg > newVal+OcclusionStep, pos.Sub(unitX))
		pushIf(xPos > newVal+OcclusionStep, pos.Add(unitX))
		pushIf(yNeg > newVal+OcclusionStep, pos.Sub(unitY))
		pushIf(yPos > newVal+OcclusionStep, pos.Add(unitY))
		pushIf(zNeg > newVal+OcclusionStep, pos.Sub(unitZ))
		pushIf(zPos > newVal+OcclusionStep, pos.Add(unitZ))
	}

	for _, pos := range writer.Flush() {
		if signal != nil {
			signal(pos)
		}
	}
}

// processIrradianceQueue runs the per-channel flood-fill. Each channel
// drains its own copy of the seed queue. Decreasing updates write zero
// first so a dark wave precedes any re-lighting, and the popped position
// re-queues itself while a bright neighbor remains; dropping either rule
// leaves stale light behind.
func processIrradianceQueue(m *TerrainMap, irradiance *IrradianceMap, queue *Queue[world.Vec3i], signal func(pos world.Vec3i)) {
	writer := NewShardWriter(irradiance)

	for channel := 0; channel < 3; channel++ {
		channelQueue := queue.Clone()

		getDefault := func(pos world.Vec3i) uint8 {
			if !irradiance.Contains(pos) {
				return 0
			}
			return writer.Get(pos)[channel]
		}
		pushIf := func(cond bool, pos world.Vec3i) {
			if cond {
				channelQueue.Push(pos)
			}
		}

		for !channelQueue.Empty() {
			pos := channelQueue.Pop()
			if !irradiance.Contains(pos) {
				continue
			}

			xNeg := getDefault(pos.Sub(unitX))
			xPos := getDefault(pos.Add(unitX))
			yNeg := getDefault(pos.Sub(unitY))
			yPos := getDefault(pos.Add(unitY))
			zNeg := getDefault(pos.Sub(unitZ))
			zPos := getDefault(pos.Add(unitZ))
			dMax := max(xNeg, xPos, yNeg, yPos, zNeg, zPos)

			var newVal uint8
			if id := m.Get(pos); terrain.IsEmissive(id) || terrain.Occlusive(id) {
				colour := terrain.Emissiveness(id, m.Dyes.Get(pos), m.Growths.Get(pos))
				newVal = colour.Channels()[channel]
			} else if dMax > 0 {
				newVal = dMax - 1
			}

			oldVal := writer.Get(pos)
			oldChannel := oldVal[channel]
			if oldChannel > newVal {
				val := oldVal
				val[channel] = 0
				writer.Set(pos, val)
			} else if oldChannel < newVal {
				val := oldVal
				val[channel] = newVal
				writer.Set(pos, val)
			} else {
				continue
			}

			// Recurse on neighbors the new value can still brighten and on
			// neighbors that this voxel was supporting.
			reaches := func(n uint8) bool {
				return int(n) < int(newVal)-1 || int(n) == int(oldChannel)-1
			}
			pushIf(reaches(xNeg), pos.Sub(unitX))
			pushIf(reaches(xPos), pos.Add(unitX))
			pushIf(reaches(yNeg), pos.Sub(unitY))
			pushIf(reaches(yPos), pos.Add(unitY))
			pushIf(reaches(zNeg), pos.Sub(unitZ))
			pushIf(reaches(zPos), pos.Add(unitZ))
			if oldChannel > newVal {
				pushIf(dMax > 1, pos)
			}
		}
	}

	for _, pos := range writer.Flush() {
		if signal != nil {
			signal(pos)
		}
	}
}

// skyRadius is the cube of voxels whose occlusion can depend on a change.
func skyRadius(change world.Vec3i) world.Box {
	r := int(MaxOcclusion)
	radius := world.Vec3i{X: r, Y: r, Z: r}
	return world.BoxFrom(change.Sub(radius), change.Add(radius).Add(world.Vec3i{X: 1, Y: 1, Z: 1}))
}

// LightSimulation owns the sky-occlusion and irradiance maps and keeps
// them consistent with the terrain as edits stream in.
type LightSimulation struct {
	logger *slog.Logger

	terrain          *TerrainMap
	occlusionMap     *Lazy[SkyOcclusionMap]
	occlusionWriter  *SkyOcclusionWriter
	irradianceMap    *Lazy[IrradianceMap]
	irradianceWriter *IrradianceWriter

	subscription *StreamReader[world.Vec3i]
	columns      *columnScanner
}

func NewLightSimulation(
	logger *slog.Logger,
	terrainMap *TerrainMap,
	occlusionMap *Lazy[SkyOcclusionMap],
	occlusionWriter *SkyOcclusionWriter,
	irradianceMap *Lazy[IrradianceMap],
	irradianceWriter *IrradianceWriter,
) *LightSimulation {
	if logger == nil {
		logger = slog.Default()
	}
	return &LightSimulation{
		logger:           logger,
		terrain:          terrainMap,
		occlusionMap:     occlusionMap,
		occlusionWriter:  occlusionWriter,
		irradianceMap:    irradianceMap,
		irradianceWriter: irradianceWriter,
		subscription:     terrainMap.Subscribe(),
	}
}

// Init materialises both output maps over the terrain box and floods the
// initial light from every emissive voxel.
func (s *LightSimulation) Init() {
	aabb := s.terrain.AABB()
	shape := aabb.Size()

	s.logger.Info("initializing sky-occlusion map", "shape", shape)
	s.occlusionMap.Set(NewWorldMap(aabb, tensors.MakeTensor(shape, uint8(0))))
	dims := s.occlusionMap.Get().Tensor.ChunkDiv()
	s.columns = newColumnScanner(world.Vec2i{X: dims.X, Z: dims.Z})

	s.logger.Info("initializing irradiance map", "shape", shape)
	s.irradianceMap.Set(NewWorldMap(aabb, tensors.MakeTensor(shape, Light{})))

	// Identify all locations with light sources.
	var queue Queue[world.Vec3i]
	s.terrain.Seeds.Tensor.Find(terrain.IsEmissive,
		func(pos world.Vec3i, _ terrain.ID) {
			queue.Push(s.terrain.Seeds.TensorToWorld(pos))
		})
	s.terrain.Diffs.Tensor.Find(
		func(diff terrain.MaybeID) bool { return diff.OK && terrain.IsEmissive(diff.ID) },
		func(pos world.Vec3i, _ terrain.MaybeID) {
			queue.Push(s.terrain.Diffs.TensorToWorld(pos))
		})
	processIrradianceQueue(s.terrain, s.irradianceMap.Get(), &queue, s.irradianceWriter.Signal)
}

// Tick drains the terrain subscription, refreshes the occlusion of every
// affected column, and re-floods irradiance around the changes.
func (s *LightSimulation) Tick() {
	changes := s.subscription.Read()
	aabb := s.terrain.AABB()

	// Accumulate the distinct set of columns impacted by the changes.
	columns := make(map[world.Vec2i]bool)
	for _, pos := range changes {
		box := world.IntersectBox(aabb, skyRadius(pos))
		if box.Empty() {
			continue
		}
		from := ToShardPos(box.V0)
		for z := from.Z; z < box.V1.Z; z += tensors.ChunkDim {
			for x := from.X; x < box.V1.X; x += tensors.ChunkDim {
				columns[world.Vec2i{X: x, Z: z}] = true
			}
		}
	}

	// Opportunistically refresh the next column of the background scan.
	if rand.Intn(2) == 0 {
		next := s.columns.Next()
		columns[world.Vec2i{
			X: aabb.V0.X + tensors.ChunkDim*next.X,
			Z: aabb.V0.Z + tensors.ChunkDim*next.Z,
		}] = true
	}

	sorted := make([]world.Vec2i, 0, len(columns))
	for column := range columns {
		sorted = append(sorted, column)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Z != sorted[j].Z {
			return sorted[i].Z < sorted[j].Z
		}
		return sorted[i].X < sorted[j].X
	})

	occlusions := s.occlusionMap.Get()
	var queue Queue[world.Vec3i]
	for _, column := range sorted {
		initializeOcclusionColumn(s.terrain, aabb, column, s.occlusionWriter.Update)
		scheduleOcclusionColumn(s.terrain, occlusions, column, &queue)
	}
	processOcclusionQueue(s.terrain, occlusions, &queue, s.occlusionWriter.Signal)

	irradianceQueue := MakeQueue(changes)
	processIrradianceQueue(s.terrain, s.irradianceMap.Get(), &irradianceQueue, s.irradianceWriter.Signal)
}

// UpdateOcclusion recomputes the sky occlusion of one chunk column against
// the map's own occlusions layer and returns it as a fresh column map.
func UpdateOcclusion(m *TerrainMap, column world.Vec2i) SkyOcclusionMap {
	aabb := m.AABB()
	columnBox := world.BoxFrom(
		world.Vec3i{X: column.X, Y: aabb.V0.Y, Z: column.Z},
		world.Vec3i{X: column.X + tensors.ChunkDim, Y: aabb.V1.Y, Z: column.Z + tensors.ChunkDim},
	)

	pad := world.Vec3i{X: tensors.ChunkDim, Z: tensors.ChunkDim}
	relevant := SubWorldMap(m.Occlusions, world.BoxFrom(columnBox.V0.Sub(pad), columnBox.V1.Add(pad)))

	initializeOcclusionColumn(m, relevant.AABB, column, relevant.SetChunk)

	var queue Queue[world.Vec3i]
	scheduleOcclusionColumn(m, &relevant, column, &queue)
	processOcclusionQueue(m, &relevant, &queue, nil)

	return SubWorldMap(relevant, columnBox)
}
