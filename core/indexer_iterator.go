package core

import (
	"iter"
	"math"

	"github.com/dustin/go-humanize"
	"k8s.io/klog/v2"
)

// IndexerIterator yields a sequence of sub-indexers, each small enough to be
// addressed under a byte/workload limit, by repeatedly bisecting the largest
// dimension of indexers that exceed it.
type IndexerIterator struct {
	indexer *Indexer
	limit   int64
}

// SplitTo32BitIndexing returns an iterator over sub-indexers that each
// satisfy CanUse32BitIndexing. The receiver is not modified; each iteration
// restarts from a fresh copy.
func (ind *Indexer) SplitTo32BitIndexing() *IndexerIterator {
	return &IndexerIterator{indexer: ind, limit: math.MaxInt32}
}

// All iterates the sub-indexers. Halves produced by a split are pushed onto
// a stack and re-checked, so an arbitrarily oversized indexer ends up fully
// partitioned; the union of the yielded pieces covers every workload of the
// source exactly once.
func (it *IndexerIterator) All() iter.Seq[*Indexer] {
	return func(yield func(*Indexer) bool) {
		stack := []*Indexer{it.indexer.clone()}
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			if !top.canIndexUnder(it.limit) {
				if klog.V(2).Enabled() {
					klog.Infof("splitting indexer with %d workloads spanning %s",
						top.NumWorkloads(), humanize.IBytes(uint64(top.maxByteSpan())))
				}
				stack = append(stack, top.SplitLargestDim())
				continue
			}
			stack = stack[:len(stack)-1]
			if !yield(top) {
				return
			}
		}
	}
}
