// SPDX-FileCopyrightText: 2022 Global Illumination, Inc.
// SPDX-License-Identifier: MIT

package sim

import (
	"github.com/chewxy/math32"

	"github.com/ill-inc/biomes-game-sub001/tensors"
	"github.com/ill-inc/biomes-game-sub001/terrain"
	"github.com/ill-inc/biomes-game-sub001/world"
)

const (
	convWindow = 96
	convDim    = 64
	convSize   = convDim * convDim * convDim

	convXStride = 1
	convYStride = convDim
	convZStride = convDim * convDim
)

type convBits [convSize / 64]uint64

func (b *convBits) setTo(i int, v bool) {
	if v {
		b[i>>6] |= 1 << uint(i&63)
	} else {
		b[i>>6] &^= 1 << uint(i&63)
	}
}
func (b *convBits) get(i int) bool { return b[i>>6]&(1<<uint(i&63)) != 0 }

func (b *convBits) reset() { *b = convBits{} }

func convIndex(pos world.Vec3i) int {
	return pos.X + convDim*(pos.Y+convDim*pos.Z)
}

var (
	convOuter = world.CubeBox(convDim)
	convInner = world.BoxFrom(
		world.Vec3i{X: 1, Y: 1, Z: 1},
		world.Vec3i{X: convDim - 1, Y: convDim - 1, Z: convDim - 1},
	)
)

// blendColour averages the neighbor colours weighted by intensity and
// decays the maximum neighbor intensity by one.
func blendColour(colours *[6]terrain.Colour) terrain.Colour {
	var rgb [3]float32
	var mx, total float32
	for _, c := range colours {
		rgb[0] += c.RGB[0] * c.Intensity
		rgb[1] += c.RGB[1] * c.Intensity
		rgb[2] += c.RGB[2] * c.Intensity
		mx = math32.Max(mx, c.Intensity)
		total += c.Intensity
	}
	if total != 0 {
		rgb[0] /= total
		rgb[1] /= total
		rgb[2] /= total
	} else {
		rgb = [3]float32{}
	}
	var intensity float32
	if mx != 0 {
		intensity = mx - 1
	}
	return terrain.Colour{RGB: rgb, Intensity: intensity}
}

// IrradianceConvolver computes packed RGB irradiance for one shard with a
// dense convolution over a 96^3 window. The scratch buffers are owned by
// the convolver and reused across calls.
type IrradianceConvolver struct {
	out       [convSize]terrain.Colour
	occlusive convBits
	emissive  convBits
	update1   convBits
	update2   convBits
}

func NewIrradianceConvolver() *IrradianceConvolver {
	return &IrradianceConvolver{}
}

func (c *IrradianceConvolver) setNeighbors(update *convBits, i int) {
	update.setTo(i+convXStride, !c.occlusive.get(i+convXStride))
	update.setTo(i-convXStride, !c.occlusive.get(i-convXStride))
	update.setTo(i+convYStride, !c.occlusive.get(i+convYStride))
	update.setTo(i-convYStride, !c.occlusive.get(i-convYStride))
	update.setTo(i+convZStride, !c.occlusive.get(i+convZStride))
	update.setTo(i-convZStride, !c.occlusive.get(i-convZStride))
}

func (c *IrradianceConvolver) convolve(
	terrains tensors.Tensor[terrain.ID],
	dyes, growths tensors.Tensor[uint8],
	sources tensors.Tensor[uint32],
) tensors.Tensor[uint32] {
	window := world.Vec3i{X: convWindow, Y: convWindow, Z: convWindow}
	if terrains.Shape != window || dyes.Shape != window || growths.Shape != window {
		panic("sim: convolution window must be 96^3")
	}
	if (sources.Shape != world.Vec3i{X: convDim, Y: convDim, Z: convDim}) {
		panic("sim: light sources tensor must be 64^3")
	}

	c.update1.reset()
	c.update2.reset()
	border := world.Vec3i{X: 16, Y: 16, Z: 16}

	// Initialize the occlusive mask from the central 64^3 of the window.
	terrains.ScanDense(func(pos world.Vec3i, id terrain.ID) {
		ipos := pos.Sub(border)
		if convOuter.Contains(ipos) {
			c.occlusive.setTo(convIndex(ipos), terrain.Occlusive(id))
		}
	})

	// First pass: write light sources and initialize the frontier.
	terrains.ScanDense(func(pos world.Vec3i, id terrain.ID) {
		ipos := pos.Sub(border)
		if !convOuter.Contains(ipos) {
			return
		}
		i := convIndex(ipos)
		colour := terrain.Emissiveness(id, dyes.Get(pos), growths.Get(pos))
		c.out[i] = colour
		c.emissive.setTo(i, colour.Intensity > 0)
		if convInner.Contains(ipos) && colour.Intensity > 0 {
			c.setNeighbors(&c.update1, i)
		}
	})

	// Merge in non-terrain light sources.
	sources.ScanSparse(func(ipos world.Vec3i, rgba uint32) {
		i := convIndex(ipos)
		colour := terrain.UnpackColour(rgba)
		c.out[i] = colour
		c.emissive.setTo(i, colour.Intensity > 0)
		if convInner.Contains(ipos) && colour.Intensity > 0 {
			c.setNeighbors(&c.update1, i)
		}
	})

	// Double-buffered convolution passes.
	for j := 0; j < terrain.MaxIntensity-1; j++ {
		curr, next := &c.update1, &c.update2
		if j%2 == 1 {
			curr, next = next, curr
		}
		i := -1
		for z := 0; z < convDim; z++ {
			for y := 0; y < convDim; y++ {
				for x := 0; x < convDim; x++ {
					i++
					if x < 1 || y < 1 || z < 1 || x >= convDim-1 || y >= convDim-1 || z >= convDim-1 {
						continue
					}
					// Emitting voxels keep their own colour.
					if !curr.get(i) || c.emissive.get(i) {
						continue
					}
					self := c.out[i]
					val := blendColour(&[6]terrain.Colour{
						c.out[i-convXStride],
						c.out[i+convXStride],
						c.out[i-convYStride],
						c.out[i+convYStride],
						c.out[i-convZStride],
						c.out[i+convZStride],
					})
					c.out[i] = val
					if val.Intensity > self.Intensity {
						c.setNeighbors(next, i)
					}
				}
			}
		}
		curr.reset()
	}

	// Pack the central 32^3 region.
	return tensors.MapDense(
		tensors.MakeTensor(tensors.ChunkShape, uint32(0)),
		func(pos world.Vec3i, _ uint32) uint32 {
			return c.out[convIndex(pos.Add(border))].Pack()
		})
}

// Update computes the irradiance of the shard at pos from the 96^3 window
// around it plus explicit non-terrain light sources over the central 64^3.
func (c *IrradianceConvolver) Update(m *TerrainMap, pos world.Vec3i, sources tensors.Tensor[uint32]) WorldMap[uint32] {
	if !IsShardAligned(pos) {
		panic("sim: shard position is not shard aligned")
	}
	window := world.CubeBox(convWindow).Shift(pos.Sub(tensors.ChunkShape))
	out := c.convolve(
		SubWorldMap(m.Terrains, window).Tensor,
		SubWorldMap(m.Dyes, window).Tensor,
		SubWorldMap(m.Growths, window).Tensor,
		sources,
	)
	return NewWorldMap(ShardBox(pos), out)
}
