package repair

// Symbol is a code in the grammar's symbol space. Values below the alphabet
// size index the alphabet map; values from there on index grammar
// productions in minting order.
type Symbol uint32

// Blank is reserved for erased text positions and never names an alphabet
// entry or a production.
const Blank Symbol = ^Symbol(0)

// Pair is an ordered pair of adjacent symbols.
type Pair struct {
	Left, Right Symbol
}

// NullPair is the pair returned for positions that carry no pair: blank
// positions, the last live position, and out-of-range lookups.
var NullPair = Pair{Blank, Blank}

// Grammar is the result of a Re-Pair run.
//
// A grammar contains:
//   - the alphabet map (symbol code -> byte value, first-occurrence order)
//   - the productions; entry k defines non-terminal len(Alphabet)+k and
//     rewrites to exactly two symbols
//   - the compressed sequence, which expands to the original input.
type Grammar struct {
	Alphabet []byte
	Rules    []Pair
	Seq      []Symbol
}
