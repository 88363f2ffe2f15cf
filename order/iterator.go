package order

// Iterator walks a Domain's values in increasing order across range
// boundaries, supporting both step-wise and random-access movement so
// that propagation code can ask "what is the k-th smallest remaining
// value" without materializing the domain (clingcon's Domain uses a
// similar random-access iterator over its range vector for bound
// computations).
type Iterator struct {
	dom *Domain
	ri  int   // index into dom.ranges
	off int64 // offset within dom.ranges[ri]
}

// Begin returns an iterator at the domain's smallest value.
func (d *Domain) Begin() Iterator { return Iterator{dom: d, ri: 0, off: 0} }

// End returns the past-the-end iterator, one step past the largest
// value; dereferencing it is invalid.
func (d *Domain) End() Iterator { return Iterator{dom: d, ri: len(d.ranges), off: 0} }

// At returns an iterator positioned at the index-th smallest value
// (0-based). An index at or past Size() yields End().
func (d *Domain) At(index int64) Iterator {
	for ri, r := range d.ranges {
		n := r.size()
		if index < n {
			return Iterator{dom: d, ri: ri, off: index}
		}
		index -= n
	}
	return d.End()
}

// Value returns the value the iterator refers to.
func (it Iterator) Value() int64 { return it.dom.ranges[it.ri].Lo + it.off }

// Done reports whether the iterator has moved past the last value.
func (it Iterator) Done() bool { return it.ri >= len(it.dom.ranges) }

// Next returns the iterator advanced by one value, crossing a range
// boundary if needed.
func (it Iterator) Next() Iterator {
	r := it.dom.ranges[it.ri]
	if it.off < r.size()-1 {
		it.off++
		return it
	}
	return Iterator{dom: it.dom, ri: it.ri + 1, off: 0}
}

// Prev returns the iterator moved back by one value. Panics if called
// on Begin().
func (it Iterator) Prev() Iterator {
	if it.off > 0 {
		it.off--
		return it
	}
	ri := it.ri - 1
	r := it.dom.ranges[ri]
	return Iterator{dom: it.dom, ri: ri, off: r.size() - 1}
}

// Index returns the iterator's 0-based position among the domain's
// values, the inverse of At.
func (it Iterator) Index() int64 {
	var n int64
	for i := 0; i < it.ri; i++ {
		n += it.dom.ranges[i].size()
	}
	return n + it.off
}

// Advance returns the iterator moved forward (or, for negative n,
// backward) by n values in O(number of ranges crossed), used by bound
// propagation to jump straight to a computed bound instead of
// stepping one value at a time.
func (it Iterator) Advance(n int64) Iterator {
	if n >= 0 {
		return it.dom.At(it.Index() + n)
	}
	return it.dom.At(it.Index() + n)
}

// Sub returns the signed distance in domain positions between it and
// other (it - other), the random-access iterator difference used to
// compute a constraint's remaining span cheaply.
func (it Iterator) Sub(other Iterator) int64 { return it.Index() - other.Index() }

// ViewIterator yields the exact affine image of a domain's values in
// view order: a reversed view walks the underlying domain backwards,
// so the images always come out ascending-in-view. Unlike
// View.EvalDomain, which only rescales range endpoints, this
// preserves the stride a non-unit coefficient introduces.
type ViewIterator struct {
	view View
	dom  *Domain
	idx  int64
	size int64
}

// Values returns an iterator over the view's images of d's values.
func (v View) Values(d *Domain) ViewIterator {
	return ViewIterator{view: v, dom: d, size: d.Size()}
}

// Done reports whether every value has been yielded.
func (vi ViewIterator) Done() bool { return vi.idx >= vi.size }

// Value returns the current image value.
func (vi ViewIterator) Value() int64 {
	pos := vi.idx
	if vi.view.A < 0 {
		pos = vi.size - 1 - vi.idx
	}
	return vi.view.Eval(vi.dom.At(pos).Value())
}

// Next returns the iterator advanced by one value.
func (vi ViewIterator) Next() ViewIterator {
	vi.idx++
	return vi
}
