// SPDX-FileCopyrightText: 2022 Global Illumination, Inc.
// SPDX-License-Identifier: MIT

package terrain

// MaxIntensity is the strongest emission a block can produce.
const MaxIntensity = 15

// Colour is an RGB emission with a separate 0..15 intensity.
type Colour struct {
	RGB       [3]float32
	Intensity float32
}

// Pack encodes the colour as (r, g, b, intensity) bytes in one word.
func (c Colour) Pack() uint32 {
	return uint32(uint8(c.RGB[0]))<<24 |
		uint32(uint8(c.RGB[1]))<<16 |
		uint32(uint8(c.RGB[2]))<<8 |
		uint32(uint8(c.Intensity))
}

// UnpackColour reverses Pack.
func UnpackColour(x uint32) Colour {
	return Colour{
		RGB: [3]float32{
			float32(x >> 24 & 0xff),
			float32(x >> 16 & 0xff),
			float32(x >> 8 & 0xff),
		},
		Intensity: float32(x & 0xff),
	}
}

// Channels scales the colour into per-channel 0..15 light levels for the
// flood-fill path. The fourth byte is reserved.
func (c Colour) Channels() [4]uint8 {
	var out [4]uint8
	for i := 0; i < 3; i++ {
		out[i] = uint8(c.RGB[i]*c.Intensity/255 + 0.5)
	}
	return out
}

// Growth below full scales intensity down; zero means fully grown.
func growthIntensity(growth uint8) float32 {
	if growth == 0 {
		return MaxIntensity
	}
	return MaxIntensity * float32(growth-1) / 4
}

var ledDyes = [...][3]float32{
	0:  {255, 255, 255}, // none
	1:  {44, 116, 255},  // blue
	2:  {255, 80, 80},   // red
	3:  {80, 255, 80},   // green
	4:  {255, 128, 32},  // orange
	5:  {255, 255, 255}, // white
	6:  {128, 80, 255},  // purple
	7:  {255, 96, 207},  // pink
	8:  {255, 232, 23},  // yellow
	9:  {160, 16, 255},  // black
	10: {255, 209, 143}, // tan
	11: {121, 55, 14},   // brown
	12: {127, 136, 151}, // silver
	13: {21, 255, 245},  // cyan
	14: {252, 15, 255},  // magenta
	15: {189, 255, 177}, // brightgreen
	16: {255, 157, 157}, // brightred
	17: {223, 187, 255}, // brightpurple
	18: {255, 220, 236}, // brightpink
	19: {255, 254, 217}, // brightyellow
	20: {150, 183, 255}, // brightblue
	21: {255, 197, 142}, // brightorange
	22: {176, 228, 255}, // lightblue
}

// Emissiveness returns the emitted colour of a voxel. Non-emissive ids
// return zero intensity.
func Emissiveness(id ID, dye, growth uint8) Colour {
	switch id {
	case LED:
		rgb := ledDyes[0]
		if int(dye) < len(ledDyes) {
			rgb = ledDyes[dye]
		}
		return Colour{RGB: rgb, Intensity: MaxIntensity}

	case Emberstone:
		return Colour{RGB: [3]float32{255, 96, 80}, Intensity: MaxIntensity}

	case Sunstone:
		return Colour{RGB: [3]float32{255, 192, 48}, Intensity: MaxIntensity}

	case Moonstone:
		return Colour{RGB: [3]float32{240, 240, 255}, Intensity: MaxIntensity}

	case Flare:
		return Colour{RGB: [3]float32{255, 255, 255}, Intensity: MaxIntensity}

	case Ultraviolet:
		return Colour{RGB: [3]float32{153, 50, 204}, Intensity: growthIntensity(growth)}

	case FireFlower:
		return Colour{RGB: [3]float32{255, 0, 40}, Intensity: growthIntensity(growth)}

	case Marigold:
		return Colour{RGB: [3]float32{255, 165, 0}, Intensity: growthIntensity(growth)}

	case MorningGlory:
		return Colour{RGB: [3]float32{130, 200, 255}, Intensity: growthIntensity(growth)}

	case Peony:
		return Colour{RGB: [3]float32{255, 90, 170}, Intensity: growthIntensity(growth)}

	case SunFlower:
		return Colour{RGB: [3]float32{255, 255, 0}, Intensity: growthIntensity(growth)}

	default:
		return Colour{RGB: [3]float32{255, 255, 255}}
	}
}

// IsEmissive reports whether the id emits light when fully grown.
func IsEmissive(id ID) bool {
	return Emissiveness(id, 0, 0).Intensity > 0
}
