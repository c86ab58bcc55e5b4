package strq

import (
	"strings"
	"unsafe"

	"deedles.dev/strq/alloc"
	"deedles.dev/strq/internal/list"
)

var (
	queueSize = int(unsafe.Sizeof(Queue{}))
	nodeSize  = int(unsafe.Sizeof(list.Node{}))
)

// A Queue is an ordered collection of strings. Every value in a Queue
// is a private copy owned by the Queue.
//
// A Queue is not safe for concurrent use. It must not be copied after
// creation.
type Queue struct {
	_ noCopy

	a     alloc.Allocator
	mem   alloc.Block
	freed bool

	ls list.Single
}

// New returns a new, empty Queue that uses the Go heap for storage.
func New() *Queue {
	return NewWith(alloc.Heap{})
}

// NewWith returns a new, empty Queue that reserves its storage from
// a. It returns nil if a refuses to provide storage for the Queue
// itself.
func NewWith(a alloc.Allocator) *Queue {
	mem, err := a.Alloc(alloc.KindQueue, queueSize)
	if err != nil {
		return nil
	}

	return &Queue{a: a, mem: mem}
}

func (q *Queue) absent() bool {
	return q == nil || q.freed
}

// Free releases every value and node in the queue and then the queue
// itself. Afterwards q behaves like an absent queue. Calling Free
// more than once is a no-op.
func (q *Queue) Free() {
	if q.absent() {
		return
	}

	for {
		n := q.ls.PopFront()
		if n == nil {
			break
		}
		q.release(n)
	}

	q.freed = true
	q.a.Free(q.mem)
}

// newNode reserves storage for a node and a copy of v. If either
// reservation fails, anything already reserved is given back and
// nil is returned.
func (q *Queue) newNode(v string) *list.Node {
	mem, err := q.a.Alloc(alloc.KindNode, nodeSize)
	if err != nil {
		return nil
	}

	valMem, err := q.a.Alloc(alloc.KindValue, len(v)+1)
	if err != nil {
		q.a.Free(mem)
		return nil
	}

	return &list.Node{
		Val:    strings.Clone(v),
		Mem:    mem,
		ValMem: valMem,
	}
}

func (q *Queue) release(n *list.Node) {
	q.a.Free(n.ValMem)
	q.a.Free(n.Mem)
}

// InsertHead inserts a copy of v at the head of the queue. It returns
// false, leaving the queue unchanged, if q is absent or storage could
// not be obtained.
func (q *Queue) InsertHead(v string) bool {
	if q.absent() {
		return false
	}

	n := q.newNode(v)
	if n == nil {
		return false
	}

	q.ls.PushFront(n)
	return true
}

// InsertTail inserts a copy of v at the tail of the queue. It returns
// false, leaving the queue unchanged, if q is absent or storage could
// not be obtained.
func (q *Queue) InsertTail(v string) bool {
	if q.absent() {
		return false
	}

	n := q.newNode(v)
	if n == nil {
		return false
	}

	q.ls.PushBack(n)
	return true
}

// RemoveHead removes the head of the queue and releases its storage.
// It returns false if q is absent or empty.
//
// If buf is not empty, the removed value is copied into it first,
// truncated to len(buf)-1 bytes. The rest of buf is zeroed, so buf
// always ends with at least one 0 byte. Nothing is ever written past
// len(buf).
func (q *Queue) RemoveHead(buf []byte) bool {
	if q.absent() {
		return false
	}

	n := q.ls.PopFront()
	if n == nil {
		return false
	}

	if len(buf) > 0 {
		c := copy(buf[:len(buf)-1], n.Val)
		clear(buf[c:])
	}

	q.release(n)
	return true
}

// PopHead is like RemoveHead but returns the removed value directly
// instead of copying it into a buffer.
func (q *Queue) PopHead() (string, bool) {
	if q.absent() {
		return "", false
	}

	n := q.ls.PopFront()
	if n == nil {
		return "", false
	}

	v := n.Val
	q.release(n)
	return v, true
}

// Size returns the number of values in the queue, or 0 if q is
// absent.
func (q *Queue) Size() int {
	if q.absent() {
		return 0
	}
	return q.ls.Len()
}

// Reverse reverses the order of the queue in place. It has no effect
// if q is absent or empty.
func (q *Queue) Reverse() {
	if q.absent() {
		return
	}
	q.ls.Reverse()
}

// Sort sorts the queue into ascending bytewise order in place. Equal
// values keep their relative order. It has no effect if q is absent
// or has fewer than two values.
func (q *Queue) Sort() {
	if q.absent() || q.ls.Len() < 2 {
		return
	}
	q.ls.Sort()
}

// String returns the queue's values from head to tail, such as
// "[a b c]", or "NULL" if q is absent.
func (q *Queue) String() string {
	if q.absent() {
		return "NULL"
	}
	return q.ls.String()
}

// Check verifies that the queue's head, tail, and size agree with its
// chain of nodes. It exists for test harnesses and always returns nil
// for an absent queue.
func (q *Queue) Check() error {
	if q.absent() {
		return nil
	}
	return q.ls.Check()
}
