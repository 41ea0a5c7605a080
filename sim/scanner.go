// SPDX-FileCopyrightText: 2022 Global Illumination, Inc.
// SPDX-License-Identifier: MIT

package sim

import "github.com/ill-inc/biomes-game-sub001/world"

// columnScanner cycles over the (x, z) columns of a chunk grid so that
// background work eventually touches every column.
type columnScanner struct {
	dims world.Vec2i
	next int
}

func newColumnScanner(dims world.Vec2i) *columnScanner {
	if dims.X <= 0 || dims.Z <= 0 {
		panic("sim: column scanner needs a non-empty grid")
	}
	return &columnScanner{dims: dims}
}

// Next returns the next column in chunk units, wrapping around.
func (s *columnScanner) Next() world.Vec2i {
	i := s.next
	s.next = (s.next + 1) % (s.dims.X * s.dims.Z)
	return world.Vec2i{X: i % s.dims.X, Z: i / s.dims.X}
}
