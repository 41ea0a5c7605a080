// SPDX-FileCopyrightText: 2022 Global Illumination, Inc.
// SPDX-License-Identifier: MIT

// Renders a horizontal slice of a noise-seeded world to a PNG, with the
// terrain shaded by the simulated sky occlusion.
package main

import (
	"flag"
	"image"
	"image/color"
	"image/png"
	"log"
	"log/slog"
	"os"
	"runtime/pprof"

	"github.com/ill-inc/biomes-game-sub001/sim"
	"github.com/ill-inc/biomes-game-sub001/tensors"
	"github.com/ill-inc/biomes-game-sub001/terrain/noise"
	"github.com/ill-inc/biomes-game-sub001/world"
)

func main() {
	var (
		cpuProfile string
		out        string
		seed       int64
		size       int
		sliceY     int
	)
	flag.StringVar(&cpuProfile, "cpuprofile", "", "write cpu profile to `file`")
	flag.StringVar(&out, "out", "out.png", "output image path")
	flag.Int64Var(&seed, "seed", 56, "noise seed")
	flag.IntVar(&size, "size", 4, "world width in chunks")
	flag.IntVar(&sliceY, "slice", 40, "y level of the rendered slice")
	flag.Parse()

	if cpuProfile != "" {
		f, err := os.Create(cpuProfile)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	run(seed, size, sliceY, out)
}

func run(seed int64, size, sliceY int, out string) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	source := noise.New(seed, 48)
	builder := sim.NewTerrainMapBuilder()
	for cz := 0; cz < size; cz++ {
		for cy := 0; cy < 3; cy++ {
			for cx := 0; cx < size; cx++ {
				origin := world.Vec3i{X: cx, Y: cy, Z: cz}.Mul(tensors.ChunkDim)
				builder.AssignSeedBlock(origin, source.GenerateChunk(origin))
			}
		}
	}
	terrainMap := builder.Build(logger)

	var (
		occlusionMap     sim.Lazy[sim.SkyOcclusionMap]
		occlusionStream  sim.Stream[world.Vec3i]
		irradianceMap    sim.Lazy[sim.IrradianceMap]
		irradianceStream sim.Stream[world.Vec3i]
	)
	light := sim.NewLightSimulation(
		logger,
		terrainMap,
		&occlusionMap,
		sim.NewSkyOcclusionWriter(logger, &occlusionMap, &occlusionStream),
		&irradianceMap,
		sim.NewIrradianceWriter(logger, &irradianceMap, &irradianceStream),
	)
	light.Init()
	for i := 0; i < 4*size*size; i++ {
		light.Tick()
	}

	img := render(terrainMap, occlusionMap.Get(), sliceY)
	file, err := os.Create(out)
	if err != nil {
		log.Fatal(err)
	}
	defer file.Close()
	if err := png.Encode(file, img); err != nil {
		log.Fatal(err)
	}
}

func render(m *sim.TerrainMap, occlusions *sim.SkyOcclusionMap, sliceY int) image.Image {
	aabb := m.AABB()
	img := image.NewRGBA(image.Rect(0, 0, aabb.Size().X, aabb.Size().Z))

	for z := aabb.V0.Z; z < aabb.V1.Z; z++ {
		for x := aabb.V0.X; x < aabb.V1.X; x++ {
			pos := world.Vec3i{X: x, Y: sliceY, Z: z}
			base := color.RGBA{R: 24, G: 26, B: 32, A: 255}
			if m.Contains(pos) && m.GetTerrain(pos) != 0 {
				base = color.RGBA{R: 96, G: 120, B: 64, A: 255}
			}
			if occ, ok := occlusions.MaybeGet(pos); ok {
				shade := 1 - float32(occ)/float32(sim.MaxOcclusion)
				base.R = uint8(world.Lerp(float32(base.R)*0.3, float32(base.R), shade))
				base.G = uint8(world.Lerp(float32(base.G)*0.3, float32(base.G), shade))
				base.B = uint8(world.Lerp(float32(base.B)*0.3, float32(base.B), shade))
			}
			img.Set(x-aabb.V0.X, z-aabb.V0.Z, base)
		}
	}
	return img
}
