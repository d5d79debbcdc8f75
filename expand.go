package repair

import "fmt"

// Expand rewrites the grammar back into the original byte string by
// stack-based expansion of the compressed sequence. The grammar is validated
// first, so expansion of a decoded archive cannot loop or index out of
// range.
func (g *Grammar) Expand() ([]byte, error) {
	if err := g.validate(); err != nil {
		return nil, err
	}
	sigma := Symbol(len(g.Alphabet))
	out := make([]byte, 0, 2*len(g.Seq))
	stack := make([]Symbol, 0, 64)
	for _, s := range g.Seq {
		stack = append(stack, s)
		for len(stack) > 0 {
			x := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if x < sigma {
				out = append(out, g.Alphabet[x])
				continue
			}
			rule := g.Rules[x-sigma]
			stack = append(stack, rule.Right, rule.Left)
		}
	}
	return out, nil
}

// validate checks that the grammar is straight-line: production k may only
// reference the alphabet and earlier productions, and the compressed
// sequence only defined symbols. Self-built grammars always pass; decoded
// archives may not.
func (g *Grammar) validate() error {
	sigma := len(g.Alphabet)
	for k, rule := range g.Rules {
		if int(rule.Left) >= sigma+k || int(rule.Right) >= sigma+k {
			return fmt.Errorf("production %d references an undefined symbol", k)
		}
	}
	for i, s := range g.Seq {
		if int(s) >= sigma+len(g.Rules) {
			return fmt.Errorf("sequence position %d references an undefined symbol", i)
		}
	}
	return nil
}
