// SPDX-FileCopyrightText: 2022 Global Illumination, Inc.
// SPDX-License-Identifier: MIT

package tensors

import "math/bits"

// DictKey is a 15-bit key indexed by a RankDict.
type DictKey = uint16

// MaxDictKey is the largest key a RankDict can hold.
const MaxDictKey DictKey = 0x7fff

func keyPart0(key DictKey) int { return int(key>>10) & 0x1f }
func keyPart1(key DictKey) int { return int(key>>5) & 0x1f }
func keyPart2(key DictKey) int { return int(key) & 0x1f }

func combineKeyParts(k0, k1, k2 int) DictKey {
	return DictKey(k0<<10 | k1<<5 | k2)
}

// emptyLevels is a synthetic level encoding that makes queries against an
// empty dict return zero without branching.
var emptyLevels = []uint32{1, 0, 3, 0, 3, 0, 0, 0, 0, 0}

// RankDict is a rank/select data structure over sorted unique 15-bit keys.
// Keys decompose into three 5-bit parts addressing three levels of 32-bit
// bitmaps, each stored as alternating (cumulative rank, bitmap) words. Rank
// queries cost three popcounts, and storage is proportional to the key
// count, which makes sparse arrays over a 32^3 domain cheap to index.
// See: https://en.wikipedia.org/wiki/Succinct_data_structure
type RankDict struct {
	max    DictKey
	levels []uint32
}

// MakeDict builds a RankDict over the given keys, which must be strictly
// ascending and no larger than MaxDictKey.
func MakeDict(keys []DictKey) RankDict {
	if len(keys) == 0 {
		return RankDict{levels: emptyLevels}
	}
	if keys[len(keys)-1] > MaxDictKey {
		panic("tensors: dict key out of range")
	}

	push := func(level []uint32) []uint32 {
		n := len(level)
		return append(level, level[n-2]+uint32(bits.OnesCount32(level[n-1])), 0)
	}

	level0 := []uint32{0, 0}
	level1 := []uint32{0, 0}
	level2 := []uint32{0, 0}

	for i, key := range keys {
		if i > 0 {
			if keys[i-1] >= key {
				panic("tensors: dict keys must be strictly ascending")
			}
			misses0 := keyPart0(keys[i-1]) != keyPart0(key)
			misses1 := keyPart1(keys[i-1]) != keyPart1(key)
			if misses0 {
				level1 = push(level1)
			}
			if misses0 || misses1 {
				level2 = push(level2)
			}
		}
		level0[len(level0)-1] |= 1 << uint(keyPart0(key))
		level1[len(level1)-1] |= 1 << uint(keyPart1(key))
		level2[len(level2)-1] |= 1 << uint(keyPart2(key))
	}

	// Pad the levels to handle queries beyond the range.
	level1 = push(level1)
	level2 = push(level2)

	// Bias the interior cumsums so they index into the combined buffer.
	level0[0] = 1
	for i := 0; i < len(level1); i += 2 {
		level1[i] += uint32(1 + len(level1)>>1)
	}

	levels := make([]uint32, 0, len(level0)+len(level1)+len(level2))
	levels = append(levels, level0...)
	levels = append(levels, level1...)
	levels = append(levels, level2...)
	return RankDict{max: keys[len(keys)-1], levels: levels}
}

// DictFromBuffer reassembles a dict from its serialized level buffer.
func DictFromBuffer(max DictKey, levels []uint32) RankDict {
	if len(levels) < len(emptyLevels) || len(levels)&1 != 0 {
		panic("tensors: malformed dict levels")
	}
	return RankDict{max: max, levels: levels}
}

// Max returns the largest key, or 0 if the dict is empty.
func (d *RankDict) Max() DictKey {
	return d.max
}

// Count returns the number of keys.
func (d *RankDict) Count() uint32 {
	return d.next(uint32(len(d.levels))-2, 31)
}

// Rank returns the number of keys strictly less than key.
func (d *RankDict) Rank(key DictKey) uint32 {
	bucket := uint32(0)
	offset := keyPart0(key)

	// An unset bit on an intermediate level masks out the lower key parts.
	if !d.test(bucket, offset) {
		key = 0
	}
	bucket = d.next(bucket, offset) << 1
	offset = keyPart1(key)

	if !d.test(bucket, offset) {
		key = 0
	}
	bucket = d.next(bucket, offset) << 1
	offset = keyPart2(key)

	return d.next(bucket, offset)
}

// Scan calls fn with every key in ascending order.
func (d *RankDict) Scan(fn func(key DictKey)) {
	b1 := d.next(0, 0) << 1
	b2 := d.next(b1, 0) << 1
	visitBits(d.levels[1], func(bit0 int) {
		visitBits(d.levels[b1+1], func(bit1 int) {
			visitBits(d.levels[b2+1], func(bit2 int) {
				fn(combineKeyParts(bit0, bit1, bit2))
			})
			b2 += 2
		})
		b1 += 2
	})
}

// ToBuffer exposes the raw level words for serialization.
func (d *RankDict) ToBuffer() []uint32 {
	return d.levels
}

func (d *RankDict) test(bucket uint32, offset int) bool {
	return d.levels[bucket+1]&(1<<uint(offset)) != 0
}

// next returns the cumulative rank plus the count of set bits below offset.
func (d *RankDict) next(bucket uint32, offset int) uint32 {
	var m uint32
	if offset > 0 {
		m = uint32(1)<<uint(offset) - 1
	}
	return d.levels[bucket] + uint32(bits.OnesCount32(d.levels[bucket+1]&m))
}

// pred returns the highest set bit at or below offset, or -1.
func (d *RankDict) pred(bucket uint32, offset int) int {
	return lastBit(d.levels[bucket+1] & (uint32(1)<<uint(offset+1) - 1))
}

// RankDictScanner iterates the keys of a RankDict in ascending order. It is
// a resumable state machine over the three bitmap levels, optimized for
// sequential forward iteration; Skip re-descends like a rank query.
type RankDictScanner struct {
	dict     *RankDict
	sentinel uint32

	b1, b2     uint32
	k0, k1, k2 int
	rank       uint32
	key        DictKey
}

func NewScanner(dict *RankDict) *RankDictScanner {
	s := &RankDictScanner{
		dict:     dict,
		sentinel: dict.Count(),
	}
	s.b1 = dict.next(0, 0) << 1
	s.b2 = dict.next(s.b1, 0) << 1
	s.k0 = nextBit(dict.levels[1], 0)
	s.k1 = nextBit(dict.levels[s.b1+1], 0)
	s.k2 = nextBit(dict.levels[s.b2+1], 0)
	s.key = combineKeyParts(s.k0, s.k1, s.k2)
	return s
}

func (s *RankDictScanner) Done() bool {
	return s.rank == s.sentinel
}

// Rank returns the rank of the current key.
func (s *RankDictScanner) Rank() uint32 {
	return s.rank
}

// Key returns the current key.
func (s *RankDictScanner) Key() DictKey {
	return s.key
}

// Next advances to the next key in ascending order.
func (s *RankDictScanner) Next() {
	l := s.dict.levels
	if s.k2 == lastBit(l[s.b2+1]) {
		s.b2 += 2
		if s.k1 == lastBit(l[s.b1+1]) {
			s.b1 += 2
			s.k0 = nextBit(l[1], s.k0+1)
			s.k1 = nextBit(l[s.b1+1], 0)
		} else {
			s.k1 = nextBit(l[s.b1+1], s.k1+1)
		}
		s.k2 = nextBit(l[s.b2+1], 0)
	} else {
		s.k2 = nextBit(l[s.b2+1], s.k2+1)
	}
	s.rank++
	s.key = combineKeyParts(s.k0, s.k1, s.k2)
}

// Skip re-descends all three levels like a rank query and positions the
// scanner after the largest key not exceeding key: the next key in order
// when key is present, and the smallest key not less than key otherwise.
func (s *RankDictScanner) Skip(key DictKey) {
	d := s.dict

	// Descend level 0, falling forward to the successor group when the
	// exact bit is absent.
	off0 := keyPart0(key)
	missed := !d.test(0, off0)
	s.k0 = off0
	if missed {
		if s.k0 = nextBit(d.levels[1], off0); s.k0 == 32 {
			s.rank = s.sentinel
			return
		}
	}
	s.b1 = d.next(0, s.k0) << 1

	// Descend level 1. A miss here may roll over to the next k0 group.
	off1 := 0
	if !missed {
		off1 = keyPart1(key)
	}
	if !d.test(s.b1, off1) {
		k1 := nextBit(d.levels[s.b1+1], off1)
		if k1 == 32 {
			if s.k0 = nextBit(d.levels[1], s.k0+1); s.k0 == 32 {
				s.rank = s.sentinel
				return
			}
			s.b1 = d.next(0, s.k0) << 1
			k1 = nextBit(d.levels[s.b1+1], 0)
		}
		s.k1 = k1
		missed = true
	} else {
		s.k1 = off1
	}
	s.b2 = d.next(s.b1, s.k1) << 1

	// Descend level 2 to the predecessor key, then step once past it.
	if !missed {
		if k2 := d.pred(s.b2, keyPart2(key)); k2 >= 0 {
			s.k2 = k2
			s.rank = d.next(s.b2, s.k2)
			s.key = combineKeyParts(s.k0, s.k1, s.k2)
			s.Next()
			return
		}
	}

	// Every key in the subtree exceeds the target, so its first key is
	// already the successor.
	s.k2 = nextBit(d.levels[s.b2+1], 0)
	s.rank = d.levels[s.b2]
	s.key = combineKeyParts(s.k0, s.k1, s.k2)
}
