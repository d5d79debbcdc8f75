/*
Package repair builds Re-Pair grammars: straight-line context-free grammars
obtained by repeatedly replacing the most frequent pair of adjacent symbols
with a fresh non-terminal, until no pair occurs at least twice. The
resulting grammar (alphabet map, binary productions, compressed sequence)
re-expands to the original byte string.

The construction follows the two-phase scheme of Bille, Gørtz and Prezza:
pairs with frequency at least τ ≈ n^(2/3) are processed first over a sparse
position index, the remaining pairs afterwards over the full index with a
frequency-bucketed queue. The working structures are a skippable text
(symbol array + live bitmap + skip table), a clusterable array of text
positions, and two pair-queue flavors sharing one record layout.

Inputs up to roughly 4 GiB are handled with 32-bit internal indices.

Further Reading

	https://arxiv.org/abs/1611.01479  (Space-Efficient Re-Pair Compression)
	https://ieeexplore.ieee.org/document/755679  (the original Re-Pair paper)

----------------------------------------------------------------------

# BSD License

Copyright (c) Norbert Pillmayer <norbert@pillmayer@com>

All rights reserved.

License information is available in the LICENSE file.
*/
package repair

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'repair'
func tracer() tracing.Trace {
	return tracing.Select("repair")
}

func assert(condition bool, msg string) {
	if !condition {
		panic(msg)
	}
}
