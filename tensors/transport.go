// SPDX-FileCopyrightText: 2022 Global Illumination, Inc.
// SPDX-License-Identifier: MIT

package tensors

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/klauspost/compress/zstd"

	"github.com/ill-inc/biomes-game-sub001/world"
)

// compressionLevel matches zstd level 7.
var compressionLevel = zstd.EncoderLevelFromZstd(7)

var json = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: false,
}.Froze()

type chunkWire[V comparable] struct {
	Max    DictKey  `json:"max"`
	Levels []uint32 `json:"levels"`
	Vals   []V      `json:"vals"`
}

type tensorWire[V comparable] struct {
	Shape  world.Vec3i    `json:"shape"`
	Chunks []chunkWire[V] `json:"chunks"`
}

// Compress encodes a blob with zstd.
func Compress(src []byte) []byte {
	w, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(compressionLevel))
	if err != nil {
		panic(err)
	}
	defer w.Close()
	return w.EncodeAll(src, make([]byte, 0, len(src)/2))
}

// Decompress decodes a zstd blob.
func Decompress(src []byte) ([]byte, error) {
	r, err := zstd.NewReader(nil)
	if err != nil {
		panic(err)
	}
	defer r.Close()
	dst, err := r.DecodeAll(src, nil)
	if err != nil {
		return nil, fmt.Errorf("tensors: corrupt compressed blob: %w", err)
	}
	return dst, nil
}

// Marshal serializes a tensor as compressed JSON. Shared chunk handles are
// flattened; Unmarshal does not restore the sharing.
func Marshal[V comparable](t Tensor[V]) ([]byte, error) {
	wire := tensorWire[V]{Shape: t.Shape, Chunks: make([]chunkWire[V], len(t.Chunks))}
	for i, c := range t.Chunks {
		wire.Chunks[i] = chunkWire[V]{
			Max:    c.Array.Dict.Max(),
			Levels: c.Array.Dict.ToBuffer(),
			Vals:   c.Array.Vals,
		}
	}
	blob, err := json.Marshal(&wire)
	if err != nil {
		return nil, err
	}
	return Compress(blob), nil
}

// Unmarshal reverses Marshal.
func Unmarshal[V comparable](src []byte) (Tensor[V], error) {
	blob, err := Decompress(src)
	if err != nil {
		return Tensor[V]{}, err
	}
	var wire tensorWire[V]
	if err := json.Unmarshal(blob, &wire); err != nil {
		return Tensor[V]{}, fmt.Errorf("tensors: corrupt tensor blob: %w", err)
	}

	t := Tensor[V]{Shape: wire.Shape, Chunks: make([]*Chunk[V], len(wire.Chunks))}
	if w, h, d := chunkDims(t.Shape); w*h*d != len(t.Chunks) {
		return Tensor[V]{}, fmt.Errorf("tensors: tensor blob shape mismatch")
	}
	for i, c := range wire.Chunks {
		t.Chunks[i] = &Chunk[V]{Array: Array[V]{
			Dict: DictFromBuffer(c.Max, c.Levels),
			Vals: c.Vals,
		}}
	}
	return t, nil
}
