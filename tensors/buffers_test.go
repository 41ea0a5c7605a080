// SPDX-FileCopyrightText: 2022 Global Illumination, Inc.
// SPDX-License-Identifier: MIT

package tensors

import "testing"

func TestBufferBuilder(t *testing.T) {
	builder := NewBufferBuilder[int](2)
	for i := 1; i <= 5; i++ {
		builder.Add(i)
	}
	if builder.Size() != 5 || *builder.Back() != 5 {
		t.Errorf("builder size %d back %d", builder.Size(), *builder.Back())
	}

	buf := builder.Build()
	if len(buf) != 5 || cap(buf) != 5 {
		t.Errorf("built buffer len %d cap %d", len(buf), cap(buf))
	}
	for i, v := range buf {
		if v != i+1 {
			t.Errorf("buf[%d] expected %d got %d", i, i+1, v)
		}
	}
}
