// SPDX-FileCopyrightText: 2022 Global Illumination, Inc.
// SPDX-License-Identifier: MIT

package sim

import "github.com/ill-inc/biomes-game-sub001/tensors"

// Stream is a single-writer multi-subscriber fan-out. Each subscriber owns
// a buffered queue; writes append to every open queue and prune closed
// ones. Delivery is FIFO per subscriber with no cross-subscriber ordering.
// All mutation happens on the owning simulator, so there is no lock.
type Stream[T any] struct {
	queues []*closableQueue[T]
}

type closableQueue[T any] struct {
	open bool
	impl Queue[T]
}

func (s *Stream[T]) Write(val T) {
	keep := s.queues[:0]
	for _, q := range s.queues {
		if q.open {
			q.impl.Push(val)
			keep = append(keep, q)
		}
	}
	s.queues = keep
}

func (s *Stream[T]) Subscribe() *StreamReader[T] {
	q := &closableQueue[T]{open: true}
	s.queues = append(s.queues, q)
	return &StreamReader[T]{queue: q}
}

// StreamReader drains one subscription of a Stream.
type StreamReader[T any] struct {
	queue *closableQueue[T]
}

func (r *StreamReader[T]) Open() bool {
	return r.queue.open
}

func (r *StreamReader[T]) Empty() bool {
	return r.queue.impl.Empty()
}

// Read drains every buffered item in write order. Items buffered before a
// Close are still returned by the final Read.
func (r *StreamReader[T]) Read() []T {
	builder := tensors.NewBufferBuilder[T](r.queue.impl.Size())
	for !r.queue.impl.Empty() {
		builder.Add(r.queue.impl.Pop())
	}
	return builder.Build()
}

// Close stops future deliveries; the writer prunes the queue on its next
// write.
func (r *StreamReader[T]) Close() {
	r.queue.open = false
}
