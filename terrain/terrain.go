// SPDX-FileCopyrightText: 2022 Global Illumination, Inc.
// SPDX-License-Identifier: MIT

package terrain

import (
	"github.com/ill-inc/biomes-game-sub001/tensors"
	"github.com/ill-inc/biomes-game-sub001/world"
)

// ID identifies a terrain voxel kind. Zero means empty space. Block ids
// occupy the low range; ids at or above floraBase are flora, which neither
// collide nor occlude.
type ID uint32

const floraBase ID = 1 << 24

// Block and flora ids referenced by the emissive table.
const (
	LED        ID = 64
	Emberstone ID = 65
	Sunstone   ID = 66
	Moonstone  ID = 67

	Flare        ID = floraBase | 15
	Ultraviolet  ID = floraBase | 45
	FireFlower   ID = floraBase | 47
	Marigold     ID = floraBase | 48
	MorningGlory ID = floraBase | 49
	Peony        ID = floraBase | 50
	SunFlower    ID = floraBase | 51
)

// IsBlock reports whether the id names a full block.
func IsBlock(id ID) bool {
	return id != 0 && id < floraBase
}

// IsCollidable reports whether the id blocks movement and water.
func IsCollidable(id ID) bool {
	return IsBlock(id)
}

// Occlusive reports whether the id blocks sky light.
func Occlusive(id ID) bool {
	return id != 0 && IsBlock(id)
}

// Flowable reports whether water can pass through the id.
func Flowable(id ID) bool {
	return id == 0 || !IsCollidable(id)
}

// MaybeID is an optional terrain override. The zero value is absent.
type MaybeID struct {
	ID ID   `json:"id"`
	OK bool `json:"ok"`
}

func Some(id ID) MaybeID {
	return MaybeID{ID: id, OK: true}
}

// Or returns the override when present, else the seed value.
func (m MaybeID) Or(seed ID) ID {
	if m.OK {
		return m.ID
	}
	return seed
}

// Source provides generated seed chunks for shard origins.
type Source interface {
	GenerateChunk(origin world.Vec3i) tensors.Tensor[ID]
}
