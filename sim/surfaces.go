// SPDX-FileCopyrightText: 2022 Global Illumination, Inc.
// SPDX-License-Identifier: MIT

package sim

import (
	"github.com/ill-inc/biomes-game-sub001/tensors"
	"github.com/ill-inc/biomes-game-sub001/terrain"
	"github.com/ill-inc/biomes-game-sub001/world"
)

// SurfacePoint is a terrain voxel exposed to the air above it.
type SurfacePoint struct {
	Position world.Vec3i
	ID       terrain.ID
}

// FindSurfaces returns every non-empty voxel whose +y neighbor within the
// same tensor is empty.
func FindSurfaces(t tensors.Tensor[terrain.ID]) []SurfacePoint {
	var points []SurfacePoint
	t.ScanSparse(func(pos world.Vec3i, id terrain.ID) {
		if pos.Y+1 < t.Shape.Y && t.Get(pos.Add(unitY)) == 0 {
			points = append(points, SurfacePoint{Position: pos, ID: id})
		}
	})
	return points
}
