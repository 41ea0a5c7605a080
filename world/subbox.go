// SPDX-FileCopyrightText: 2022 Global Illumination, Inc.
// SPDX-License-Identifier: MIT

package world

// Subbox returns the largest box contained in the on positions of the given
// 3D mask, laid out x fastest and z slowest.
func Subbox(mask []bool, sx, sy, sz int) Box {
	layerSize := sx * sy

	// For all pairs of layers, solve for the largest quad in the
	// intersection mask.
	var ret Box
	layer := make([]bool, layerSize)
	for i := 0; i < sz; i++ {
		for k := range layer {
			layer[k] = true
		}
		for j := i; j < sz; j++ {
			for k := 0; k < layerSize; k++ {
				layer[k] = layer[k] && mask[layerSize*j+k]
			}

			quad := Subquad(layer, sx, sy)
			area := quad.Area()
			if area == 0 {
				break // All remaining intersections are empty.
			}
			best := ret.Volume()
			if (j-i+1)*area > best {
				ret = Box{
					V0: Vec3i{X: quad.X0, Y: quad.Y0, Z: i},
					V1: Vec3i{X: quad.X1, Y: quad.Y1, Z: j + 1},
				}
			} else if (sz-i)*area <= best {
				break // No deeper stack from i can beat the best.
			}
		}
	}
	return ret
}

// SubboxApprox trades exactness for speed by only intersecting the best
// quad found independently on each layer.
func SubboxApprox(mask []bool, sx, sy, sz int) Box {
	layerSize := sx * sy

	layers := make([]Quad, 0, sz)
	layerMask := make([]bool, layerSize)
	for i := 0; i < sz; i++ {
		copy(layerMask, mask[i*layerSize:(i+1)*layerSize])
		layers = append(layers, Subquad(layerMask, sx, sy))
	}

	var ret Box
	for i := 0; i < sz; i++ {
		q := layers[i]
		for j := i; j < sz; j++ {
			q.X0 = max(q.X0, layers[j].X0)
			q.Y0 = max(q.Y0, layers[j].Y0)
			q.X1 = min(q.X1, layers[j].X1)
			q.Y1 = min(q.Y1, layers[j].Y1)
			area := q.Area()
			if area == 0 {
				break
			}
			best := ret.Volume()
			if (j-i+1)*area > best {
				ret = Box{
					V0: Vec3i{X: q.X0, Y: q.Y0, Z: i},
					V1: Vec3i{X: q.X1, Y: q.Y1, Z: j + 1},
				}
			} else if (sz-i)*area <= best {
				break
			}
		}
	}
	return ret
}
