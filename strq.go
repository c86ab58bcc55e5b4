// Package strq provides a FIFO queue of strings built on a
// singly-linked list. Besides the usual head and tail insertion and
// head removal, a queue can be reversed and stably sorted in place.
//
// A nil *Queue is treated as an absent queue: every method is safe to
// call on it and reports failure or zero.
package strq

type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
