package stream

import "github.com/OCharnyshevich/voxelworld/internal/world"

// coordQueue is a FIFO of chunk coordinates with set semantics: a
// coordinate is queued at most once.
type coordQueue struct {
	items []world.ChunkCoord
	set   map[world.ChunkCoord]struct{}
}

func newCoordQueue() *coordQueue {
	return &coordQueue{set: make(map[world.ChunkCoord]struct{})}
}

func (q *coordQueue) len() int { return len(q.items) }

func (q *coordQueue) has(c world.ChunkCoord) bool {
	_, ok := q.set[c]
	return ok
}

// push appends c unless it is already queued.
func (q *coordQueue) push(c world.ChunkCoord) {
	if q.has(c) {
		return
	}
	q.set[c] = struct{}{}
	q.items = append(q.items, c)
}

// pushFront moves c to the head of the queue.
func (q *coordQueue) pushFront(c world.ChunkCoord) {
	q.remove(c)
	q.set[c] = struct{}{}
	q.items = append(q.items, world.ChunkCoord{})
	copy(q.items[1:], q.items)
	q.items[0] = c
}

func (q *coordQueue) pop() (world.ChunkCoord, bool) {
	if len(q.items) == 0 {
		return world.ChunkCoord{}, false
	}
	c := q.items[0]
	q.items[0] = world.ChunkCoord{}
	q.items = q.items[1:]
	delete(q.set, c)
	return c, true
}

func (q *coordQueue) remove(c world.ChunkCoord) {
	if !q.has(c) {
		return
	}
	delete(q.set, c)
	for i, it := range q.items {
		if it == c {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return
		}
	}
}

// filter drops every queued coordinate for which keep returns false.
func (q *coordQueue) filter(keep func(world.ChunkCoord) bool) {
	out := q.items[:0]
	for _, c := range q.items {
		if keep(c) {
			out = append(out, c)
		} else {
			delete(q.set, c)
		}
	}
	clear(q.items[len(out):])
	q.items = out
}
