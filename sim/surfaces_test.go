// SPDX-FileCopyrightText: 2022 Global Illumination, Inc.
// SPDX-License-Identifier: MIT

package sim

import (
	"testing"

	"github.com/ill-inc/biomes-game-sub001/tensors"
	"github.com/ill-inc/biomes-game-sub001/terrain"
	"github.com/ill-inc/biomes-game-sub001/world"
)

func TestFindSurfaces(t *testing.T) {
	b := tensors.NewRangesArrayBuilder(tensors.ChunkSize, terrain.ID(0))
	// Ground below y=5 plus one floating block and one block at the top.
	b.AddRange(0, 5*tensors.ChunkDim*tensors.ChunkDim, 1)
	b.Add(tensors.EncodePos(world.Vec3i{X: 2, Y: 10, Z: 3}), 2)
	b.Add(tensors.EncodePos(world.Vec3i{X: 4, Y: 31, Z: 5}), 3)
	tensor := tensors.MakeTensor(tensors.ChunkShape, terrain.ID(0))
	tensor.SetChunk(world.Vec3i{}, tensors.ChunkOf(b.Build()))

	points := FindSurfaces(tensor)

	const groundSurfaces = tensors.ChunkDim * tensors.ChunkDim
	if len(points) != groundSurfaces+1 {
		t.Fatalf("expected %d surface points got %d", groundSurfaces+1, len(points))
	}

	foundFloating := false
	for _, p := range points {
		switch p.ID {
		case 1:
			if p.Position.Y != 4 {
				t.Errorf("ground surface at wrong height: %+v", p.Position)
			}
		case 2:
			foundFloating = true
		case 3:
			t.Error("top-layer block has no in-tensor surface")
		}
	}
	if !foundFloating {
		t.Error("floating block surface not found")
	}
}
