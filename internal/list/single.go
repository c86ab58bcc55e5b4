package list

import (
	"errors"
	"fmt"
	"strings"

	"deedles.dev/strq/alloc"
)

// Single is a singly-linked list of strings that also contains a
// reference to the last node for quick inserts at the head and tail
// and a count of its nodes. The zero value is an empty list.
type Single struct {
	head, tail *Node
	len        int
}

// Len returns the number of nodes in the list without traversing it.
func (ls *Single) Len() int {
	return ls.len
}

// Head returns the first node of the list, or nil if it is empty.
func (ls *Single) Head() *Node {
	return ls.head
}

// Tail returns the last node of the list, or nil if it is empty.
func (ls *Single) Tail() *Node {
	return ls.tail
}

// PushFront links n in as the new head of the list.
func (ls *Single) PushFront(n *Node) {
	n.next = ls.head
	ls.head = n
	if ls.tail == nil {
		ls.tail = n
	}
	ls.len++
}

// PushBack links n in as the new tail of the list.
func (ls *Single) PushBack(n *Node) {
	n.next = nil
	if ls.tail == nil {
		ls.head = n
	} else {
		ls.tail.next = n
	}
	ls.tail = n
	ls.len++
}

// PopFront unlinks the head node and returns it, or returns nil if
// the list is already empty. The returned node no longer refers to
// anything in the list.
func (ls *Single) PopFront() *Node {
	n := ls.head
	if n == nil {
		return nil
	}

	ls.head = n.next
	if ls.head == nil {
		ls.tail = nil
	}
	n.next = nil
	ls.len--

	return n
}

// Reverse reverses the order of the list in place by rewiring
// successor links.
func (ls *Single) Reverse() {
	var prev *Node
	cur := ls.head
	for cur != nil {
		next := cur.next
		cur.next = prev
		prev, cur = cur, next
	}

	ls.head, ls.tail = prev, ls.head
}

// Sort stably sorts the list into ascending bytewise order of node
// values. It only rewires successor links.
func (ls *Single) Sort() {
	if ls.len < 2 {
		return
	}

	ls.head = mergeSort(ls.head)

	tail := ls.head
	for tail.next != nil {
		tail = tail.next
	}
	ls.tail = tail
}

func mergeSort(head *Node) *Node {
	if head == nil || head.next == nil {
		return head
	}

	left, right := split(head)
	return merge(mergeSort(left), mergeSort(right))
}

// split cuts the chain starting at head after its midpoint. For an
// odd length the left half gets the extra node.
func split(head *Node) (left, right *Node) {
	slow, fast := head, head.next
	for fast != nil && fast.next != nil {
		slow = slow.next
		fast = fast.next.next
	}

	right = slow.next
	slow.next = nil
	return head, right
}

// merge joins two sorted chains. On equal values the node from left
// comes first.
func merge(left, right *Node) *Node {
	var sentinel Node
	end := &sentinel

	for left != nil && right != nil {
		if left.Val <= right.Val {
			end.next = left
			left = left.next
		} else {
			end.next = right
			right = right.next
		}
		end = end.next
	}

	if left != nil {
		end.next = left
	} else {
		end.next = right
	}

	return sentinel.next
}

// String returns the values of the list in order, separated by
// spaces and surrounded by brackets.
func (ls *Single) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for n := ls.head; n != nil; n = n.next {
		if n != ls.head {
			b.WriteByte(' ')
		}
		b.WriteString(n.Val)
	}
	b.WriteByte(']')
	return b.String()
}

// ErrCorrupt is wrapped by the errors Check returns.
var ErrCorrupt = errors.New("list corrupt")

// Check walks the list and verifies that its head, tail, and count
// agree with the chain of nodes.
func (ls *Single) Check() error {
	if (ls.len == 0) != (ls.head == nil) || (ls.head == nil) != (ls.tail == nil) {
		return fmt.Errorf("%w: len %d with head %p and tail %p", ErrCorrupt, ls.len, ls.head, ls.tail)
	}

	var (
		n    int
		last *Node
	)
	for cur := ls.head; cur != nil; cur = cur.next {
		n++
		last = cur
		if n > ls.len {
			return fmt.Errorf("%w: chain is longer than len %d", ErrCorrupt, ls.len)
		}
	}
	if n != ls.len {
		return fmt.Errorf("%w: chain has %d nodes but len is %d", ErrCorrupt, n, ls.len)
	}
	if last != ls.tail {
		return fmt.Errorf("%w: chain does not end at tail", ErrCorrupt)
	}

	return nil
}

// Node is a node of a [Single]. Besides its value it carries the
// reservations that back it so that whoever releases it can return
// them.
type Node struct {
	Val string

	Mem, ValMem alloc.Block

	next *Node
}
