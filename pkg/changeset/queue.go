package changeset

import "github.com/kasuganosora/seqfield/pkg/mark"

// Queue yields the marks of a changeset in order, splitting the head mark
// on demand so callers can request "the next n cells" without caring
// whether that span crosses a mark boundary (spec §4.2).
type Queue struct {
	marks []mark.Mark
	pos   int // index of the current head mark in marks
}

// NewQueue wraps a changeset for queue-style consumption. It does not
// mutate c.
func NewQueue(c Changeset) *Queue {
	return &Queue{marks: append([]mark.Mark(nil), c.Marks...)}
}

// Done reports whether the queue has been fully consumed.
func (q *Queue) Done() bool { return q.pos >= len(q.marks) }

// HeadCount returns the number of cells remaining in the current head
// mark, or 0 if the queue is done.
func (q *Queue) HeadCount() int {
	if q.Done() {
		return 0
	}
	return q.marks[q.pos].Count
}

// Peek returns the current head mark without consuming it.
func (q *Queue) Peek() (mark.Mark, bool) {
	if q.Done() {
		return mark.Mark{}, false
	}
	return q.marks[q.pos], true
}

// Dequeue removes and returns up to n cells' worth of the head mark,
// splitting it first if n is less than its count. It panics if n exceeds
// the head mark's count or the queue is empty — callers are expected to
// bound n by HeadCount() first (typically via the aligned-length
// computation both compose and rebase perform before dequeuing from
// either side).
func (q *Queue) Dequeue(n int) mark.Mark {
	if q.Done() {
		panic("changeset.Queue: Dequeue called on an empty queue")
	}
	head := q.marks[q.pos]
	if n <= 0 || n > head.Count {
		panic("changeset.Queue: Dequeue count out of range")
	}
	if n == head.Count {
		q.pos++
		return head
	}
	first, second := mark.Split(head, n)
	q.marks[q.pos] = second
	return first
}

// DequeueAll drains the remaining marks verbatim (used once one side of
// an alignment walk is exhausted and the other is simply copied through).
func (q *Queue) DequeueAll() []mark.Mark {
	rest := q.marks[q.pos:]
	q.pos = len(q.marks)
	return rest
}

// AlignedLength returns min(a.HeadCount(), b.HeadCount()), the run of
// cells both queues agree to step over together in one alignment round;
// 0 if either is done.
func AlignedLength(a, b *Queue) int {
	if a.Done() || b.Done() {
		return 0
	}
	ha, hb := a.HeadCount(), b.HeadCount()
	if ha < hb {
		return ha
	}
	return hb
}
