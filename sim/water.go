// SPDX-FileCopyrightText: 2022 Global Illumination, Inc.
// SPDX-License-Identifier: MIT

package sim

import (
	"github.com/ill-inc/biomes-game-sub001/tensors"
	"github.com/ill-inc/biomes-game-sub001/terrain"
	"github.com/ill-inc/biomes-game-sub001/world"
)

// MaxWater marks a saturated (source) water voxel.
const MaxWater uint8 = 15

// waterMask is a 3x3x3 super-chunk of water chunk handles around one
// shard, addressed by chunk-local positions in [-32, 64).
type waterMask struct {
	chunks [27]*tensors.Chunk[uint8]
}

func buildWaterMask(waters *WorldMap[uint8], chunkPos world.Vec3i) waterMask {
	var mask waterMask
	for cz := -1; cz <= 1; cz++ {
		for cy := -1; cy <= 1; cy++ {
			for cx := -1; cx <= 1; cx++ {
				pos := chunkPos.Add(world.Vec3i{X: cx, Y: cy, Z: cz}.Mul(tensors.ChunkDim))
				if waters.Contains(pos) {
					mask.chunks[(cx+1)+3*((cy+1)+3*(cz+1))] = waters.Chunk(pos)
				}
			}
		}
	}
	return mask
}

// Get returns the water level at a position relative to the central chunk.
// Positions outside the map read as dry.
func (m *waterMask) Get(pos world.Vec3i) uint8 {
	c := pos.Add(tensors.ChunkShape).FloorDiv(tensors.ChunkDim)
	chunk := m.chunks[c.X+3*(c.Y+3*c.Z)]
	if chunk == nil {
		return 0
	}
	local := pos.Sub(c.Sub(world.Vec3i{X: 1, Y: 1, Z: 1}).Mul(tensors.ChunkDim))
	return chunk.Array.Get(tensors.EncodePos(local))
}

// UpdateWater runs one relaxation pass over the shard at chunkPos and
// returns the resulting water chunk. Gravity is expressed by the vertical
// asymmetry: only the block above contributes at full strength, and a
// falling horizontal neighbor does not also spread sideways.
func UpdateWater(m *TerrainMap, chunkPos world.Vec3i) WorldMap[uint8] {
	if !IsShardAligned(chunkPos) || !m.Contains(chunkPos) {
		panic("sim: water update position is invalid")
	}

	mask := buildWaterMask(&m.Waters, chunkPos)

	// Map the shard's terrain to a mask of positions water can occupy.
	flowShard := tensors.MergeArrays(
		m.Seeds.Chunk(chunkPos).Array,
		m.Diffs.Chunk(chunkPos).Array,
		func(seed terrain.ID, diff terrain.MaybeID) bool {
			return terrain.Flowable(diff.Or(seed))
		})

	// A voxel is falling when the space below it can still absorb water.
	isFalling := func(pos world.Vec3i) bool {
		below := pos.Sub(unitY)
		worldPos := chunkPos.Add(below)
		if !m.Contains(worldPos) {
			return false
		}
		return terrain.Flowable(m.GetTerrain(worldPos)) && mask.Get(below) != MaxWater
	}

	var out tensors.ArrayBuilder[uint8]
	flowShard.Scan(func(run tensors.Run, flowable bool) {
		if !flowable {
			out.Add(run.Len, 0)
			return
		}
		for i := run.Pos; i < run.Pos+run.Len; i++ {
			pos := tensors.DecodePos(i)
			val := mask.Get(pos)
			if val >= MaxWater {
				out.Add(1, MaxWater)
				continue
			}

			xNeg := mask.Get(pos.Sub(unitX))
			xPos := mask.Get(pos.Add(unitX))
			yPos := mask.Get(pos.Add(unitY))
			zNeg := mask.Get(pos.Sub(unitZ))
			zPos := mask.Get(pos.Add(unitZ))

			if val == 0 && xNeg == 0 && xPos == 0 && yPos == 0 && zNeg == 0 && zPos == 0 {
				out.Add(1, 0)
				continue
			}

			// Falling neighbors do not spread sideways.
			if xNeg > 0 && isFalling(pos.Sub(unitX)) {
				xNeg = 0
			}
			if xPos > 0 && isFalling(pos.Add(unitX)) {
				xPos = 0
			}
			if zNeg > 0 && isFalling(pos.Sub(unitZ)) {
				zNeg = 0
			}
			if zPos > 0 && isFalling(pos.Add(unitZ)) {
				zPos = 0
			}

			dMax := max(xNeg, xPos, zNeg, zPos)
			if yPos >= dMax {
				// A saturated column above keeps this voxel near full.
				out.Add(1, min(MaxWater-1, yPos))
			} else {
				out.Add(1, dMax-1)
			}
		}
	})

	result := tensors.MakeTensor(tensors.ChunkShape, uint8(0))
	result.SetChunk(world.Vec3i{}, tensors.ChunkOf(out.Build()))
	return NewWorldMap(ShardBox(chunkPos), result)
}
