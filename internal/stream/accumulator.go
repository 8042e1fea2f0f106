// Package stream accumulates incrementally delivered model output.
package stream

import (
	"iter"
	"strings"
)

// Sink receives each fragment as it arrives.
type Sink func(fragment string)

// Accumulate drains fragments in order, forwarding each one verbatim to sink and
// returning their concatenation once the sequence is exhausted. Nothing is dropped,
// merged or reordered. If the sequence yields an error the partial text is discarded
// and the error is returned; callers restart the whole stream rather than resume it.
func Accumulate(fragments iter.Seq2[string, error], sink Sink) (string, error) {
	var sb strings.Builder
	for fragment, err := range fragments {
		if err != nil {
			return "", err
		}
		sb.WriteString(fragment)
		if sink != nil {
			sink(fragment)
		}
	}
	return sb.String(), nil
}

// FromSlice returns a sequence yielding the given fragments. Useful for stubs.
func FromSlice(fragments ...string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, f := range fragments {
			if !yield(f, nil) {
				return
			}
		}
	}
}

// Fail returns a sequence yielding the given fragments followed by err.
func Fail(err error, fragments ...string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, f := range fragments {
			if !yield(f, nil) {
				return
			}
		}
		yield("", err)
	}
}
