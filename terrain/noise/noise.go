// SPDX-FileCopyrightText: 2022 Global Illumination, Inc.
// SPDX-License-Identifier: MIT

// Package noise provides a perlin-backed terrain.Source for tests and
// preview tooling. It is not a world generator: it only supplies seed
// chunks on demand.
package noise

import (
	"github.com/aquilax/go-perlin"

	"github.com/ill-inc/biomes-game-sub001/tensors"
	"github.com/ill-inc/biomes-game-sub001/terrain"
	"github.com/ill-inc/biomes-game-sub001/world"
)

const (
	frequency     = 0.013
	reliefScale   = 24
	defaultGround = terrain.ID(1)
)

// Generator derives a solid heightfield of one block id from layered
// perlin noise.
type Generator struct {
	landHi *perlin.Perlin // smaller/higher frequency details
	landLo *perlin.Perlin // larger/lower frequency details

	floor  int
	ground terrain.ID
}

// New creates a Generator whose surface oscillates around the floor height.
func New(seed int64, floor int) *Generator {
	return &Generator{
		landHi: perlin.NewPerlin(1.5, 2.0, 4, seed),
		landLo: perlin.NewPerlin(2.5, 3.0, 4, seed+1),
		floor:  floor,
		ground: defaultGround,
	}
}

func (g *Generator) height(x, z int) int {
	fx, fz := float64(x), float64(z)
	h := g.landHi.Noise2D(fx*frequency, fz*frequency)
	h += 0.4 * g.landLo.Noise2D(fx*frequency*0.17, fz*frequency*0.17)
	return g.floor + int(h*reliefScale)
}

// GenerateChunk implements terrain.Source.
func (g *Generator) GenerateChunk(origin world.Vec3i) tensors.Tensor[terrain.ID] {
	b := tensors.NewRangesArrayBuilder(tensors.ChunkSize, terrain.ID(0))
	for z := 0; z < tensors.ChunkDim; z++ {
		for x := 0; x < tensors.ChunkDim; x++ {
			h := g.height(origin.X+x, origin.Z+z)
			for y := 0; y < tensors.ChunkDim; y++ {
				if origin.Y+y < h {
					b.Add(tensors.EncodePos(world.Vec3i{X: x, Y: y, Z: z}), g.ground)
				}
			}
		}
	}

	out := tensors.MakeTensor(tensors.ChunkShape, terrain.ID(0))
	out.SetChunk(world.Vec3i{}, tensors.ChunkOf(b.Build()))
	return out
}
