// SPDX-FileCopyrightText: 2022 Global Illumination, Inc.
// SPDX-License-Identifier: MIT

package sim

import "sort"

// UpdateEntry pairs a key with the time of its latest bump.
type UpdateEntry[K comparable] struct {
	Time uint64
	Key  K
}

// UpdateList indexes keys by monotonically increasing update times and
// supports scanning everything changed since a given time. Bumping a key
// moves it to the back of the list.
type UpdateList[K comparable] struct {
	times map[K]uint64
	list  []UpdateEntry[K]
}

func (ul *UpdateList[K]) Size() int {
	return len(ul.list)
}

func (ul *UpdateList[K]) Extract() []UpdateEntry[K] {
	return append([]UpdateEntry[K](nil), ul.list...)
}

func (ul *UpdateList[K]) Clear() {
	ul.times = nil
	ul.list = nil
}

// Time returns the latest update time, or 0 if nothing was bumped.
func (ul *UpdateList[K]) Time() uint64 {
	if len(ul.list) == 0 {
		return 0
	}
	return ul.list[len(ul.list)-1].Time
}

// TimeOf returns when the key was last bumped, or 0 if never.
func (ul *UpdateList[K]) TimeOf(key K) uint64 {
	return ul.times[key]
}

// Bump records an update to the key and returns its new time.
func (ul *UpdateList[K]) Bump(key K) uint64 {
	t := ul.Time() + 1
	if ul.times == nil {
		ul.times = make(map[K]uint64)
	}
	if _, ok := ul.times[key]; ok {
		for i, entry := range ul.list {
			if entry.Key == key {
				ul.list = append(ul.list[:i], ul.list[i+1:]...)
				break
			}
		}
	}
	ul.list = append(ul.list, UpdateEntry[K]{Time: t, Key: key})
	ul.times[key] = t
	return t
}

// Scan calls fn for each entry at or after the given time in time order.
// Returning false stops the scan.
func (ul *UpdateList[K]) Scan(from uint64, fn func(time uint64, key K) bool) {
	i := sort.Search(len(ul.list), func(i int) bool {
		return ul.list[i].Time >= from
	})
	for ; i < len(ul.list); i++ {
		if !fn(ul.list[i].Time, ul.list[i].Key) {
			break
		}
	}
}
