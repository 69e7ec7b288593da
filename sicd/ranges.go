package sicd

import (
	"fmt"
	"math"
)

// Unset marks a Stride or UpTo endpoint that takes its default value.
const Unset = math.MinInt

// RangeError reports a selection that cannot be resolved against an axis.
type RangeError struct {
	Axis  int    // axis the selection applied to
	What  string // "start", "stop", "step" or "index"
	Value int    // offending value as supplied by the caller
	Bound int    // axis bound the selection was resolved against
}

func (e *RangeError) Error() string {
	if e.What == "step" {
		return fmt.Sprintf("sicd: axis %d: range step must be nonzero", e.Axis)
	}
	return fmt.Sprintf("sicd: axis %d: %s %d out of range for bound %d (valid range [%d, %d])",
		e.Axis, e.What, e.Value, e.Bound, -e.Bound, e.Bound)
}

// Selection chooses elements along one logical axis. The zero value selects
// the full axis; use At, Range, Stride or UpTo for narrower selections.
// Negative start/stop/index values count backward from the axis bound.
type Selection struct {
	kind              selKind
	start, stop, step int
}

type selKind uint8

const (
	selAll selKind = iota
	selIndex
	selRange
)

// All selects the full axis.
func All() Selection { return Selection{} }

// At selects the single element at index i. Negative i counts from the end.
func At(i int) Selection { return Selection{kind: selIndex, start: i} }

// Range selects [start, stop) with unit step.
func Range(start, stop int) Selection {
	return Selection{kind: selRange, start: start, stop: stop, step: 1}
}

// Stride selects [start, stop) with the given step. Start and stop may be
// Unset, in which case they default to the full axis in the step direction.
func Stride(start, stop, step int) Selection {
	return Selection{kind: selRange, start: start, stop: stop, step: step}
}

// UpTo selects [0, stop) with the given step.
func UpTo(stop, step int) Selection {
	return Selection{kind: selRange, start: Unset, stop: stop, step: step}
}

// Span is a resolved physical traversal along one storage axis. Stop is
// exclusive in the step direction, so a descending walk that visits element
// 0 carries Stop == -1.
type Span struct {
	Start, Stop, Step int
}

// Count returns the number of elements the span visits.
func (s Span) Count() int {
	if s.Step > 0 {
		if s.Stop <= s.Start {
			return 0
		}
		return (s.Stop - s.Start + s.Step - 1) / s.Step
	}
	if s.Step < 0 {
		if s.Stop >= s.Start {
			return 0
		}
		step := -s.Step
		return (s.Start - s.Stop + step - 1) / step
	}
	return 0
}

// Resolve normalizes a logical selection against an axis bound into a
// physical traversal. When reversed is true, storage order is the mirror of
// logical order along this axis and the resulting span walks the axis back
// to front, so that logical element 0 maps to physical element bound-1.
// This is an addressing-level flip, not a post-read reversal.
//
// An empty selection (start == stop) is valid and yields zero elements.
func Resolve(sel Selection, bound int, reversed bool) (Span, error) {
	if bound < 0 {
		return Span{}, &RangeError{What: "stop", Value: bound, Bound: bound}
	}
	switch sel.kind {
	case selIndex:
		i := sel.start
		if i < 0 {
			i += bound
		}
		if i < 0 || i >= bound {
			return Span{}, &RangeError{What: "index", Value: sel.start, Bound: bound}
		}
		if reversed {
			i = bound - 1 - i
		}
		return Span{Start: i, Stop: i + 1, Step: 1}, nil

	case selRange:
		step := sel.step
		if step == Unset {
			step = 1
		}
		if step == 0 {
			return Span{}, &RangeError{What: "step", Bound: bound}
		}
		start, stop := sel.start, sel.stop
		if start == Unset {
			if step > 0 {
				start = 0
			} else {
				start = bound - 1
			}
		} else {
			if start < 0 {
				start += bound
			}
			if start < 0 || start > bound {
				return Span{}, &RangeError{What: "start", Value: sel.start, Bound: bound}
			}
		}
		if stop == Unset {
			if step > 0 {
				stop = bound
			} else {
				// exclusive endpoint below element 0
				stop = -1
			}
		} else {
			if stop < 0 {
				stop += bound
			}
			if stop < 0 || stop > bound {
				return Span{}, &RangeError{What: "stop", Value: sel.stop, Bound: bound}
			}
		}
		if reversed {
			return Span{Start: bound - 1 - start, Stop: bound - 1 - stop, Step: -step}, nil
		}
		return Span{Start: start, Stop: stop, Step: step}, nil

	default: // selAll
		if reversed {
			return Span{Start: bound - 1, Stop: -1, Step: -1}, nil
		}
		return Span{Start: 0, Stop: bound, Step: 1}, nil
	}
}
