// Package alloc accounts for the storage a queue uses. Go does not
// let a program observe a failed allocation, so the queue asks an
// Allocator for permission before it creates anything and hands the
// reservation back when it releases it.
package alloc

import "errors"

// ErrNoMemory is returned, possibly wrapped, by an Allocator that
// refuses a reservation.
var ErrNoMemory = errors.New("out of memory")

// Kind is the class of storage being reserved.
type Kind uint8

const (
	KindQueue Kind = iota
	KindNode
	KindValue
)

func (k Kind) String() string {
	switch k {
	case KindQueue:
		return "queue"
	case KindNode:
		return "node"
	case KindValue:
		return "value"
	default:
		return "unknown"
	}
}

// Block identifies a single reservation. The zero Block is what
// allocators that don't track anything hand out.
type Block struct {
	ID   uint64
	Kind Kind
	Size int
}

// An Allocator reserves and releases storage. Alloc must either
// succeed completely or return an error wrapping [ErrNoMemory]
// without retaining anything.
type Allocator interface {
	Alloc(kind Kind, size int) (Block, error)
	Free(b Block)
}

// Heap is an Allocator backed directly by the Go heap. It never
// fails.
type Heap struct{}

func (Heap) Alloc(kind Kind, size int) (Block, error) {
	return Block{Kind: kind, Size: size}, nil
}

func (Heap) Free(Block) {}
