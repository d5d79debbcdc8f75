package repair

import (
	"fmt"
	"io"

	"github.com/npillmayer/repair/gamma"
)

// Archive layout: the alphabet size and its byte values, the number of
// productions and their symbol pairs, the compressed sequence length and its
// symbols — all as one packed gamma stream.

// WriteTo stores the grammar in archive form. It implements io.WriterTo.
func (g *Grammar) WriteTo(w io.Writer) (int64, error) {
	gw := gamma.NewWriter(w)
	gw.Append(uint64(len(g.Alphabet)))
	for _, b := range g.Alphabet {
		gw.Append(uint64(b))
	}
	gw.Append(uint64(len(g.Rules)))
	for _, rule := range g.Rules {
		gw.Append(uint64(rule.Left))
		gw.Append(uint64(rule.Right))
	}
	gw.Append(uint64(len(g.Seq)))
	for _, s := range g.Seq {
		gw.Append(uint64(s))
	}
	err := gw.Close()
	if err == nil {
		tracer().Infof("repair: archive of %d bytes, %.2f%% coding overhead",
			gw.BytesWritten(), gw.Overhead())
	}
	return gw.BytesWritten(), err
}

// ReadGrammar decodes an archive written by WriteTo and validates it.
func ReadGrammar(r io.Reader) (*Grammar, error) {
	gr := gamma.NewReader(r)
	next := func(what string, limit uint64) (uint64, error) {
		x, err := gr.Next()
		if err != nil {
			return 0, fmt.Errorf("archive: reading %s: %w", what, err)
		}
		if x > limit {
			return 0, fmt.Errorf("archive: %s value %d out of range", what, x)
		}
		return x, nil
	}

	g := &Grammar{}
	na, err := next("alphabet size", 256)
	if err != nil {
		return nil, err
	}
	g.Alphabet = make([]byte, na)
	for i := range g.Alphabet {
		b, err := next("alphabet entry", 255)
		if err != nil {
			return nil, err
		}
		g.Alphabet[i] = byte(b)
	}
	ng, err := next("rule count", maxInputLen)
	if err != nil {
		return nil, err
	}
	g.Rules = make([]Pair, ng)
	for i := range g.Rules {
		left, err := next("rule symbol", uint64(Blank)-1)
		if err != nil {
			return nil, err
		}
		right, err := next("rule symbol", uint64(Blank)-1)
		if err != nil {
			return nil, err
		}
		g.Rules[i] = Pair{Left: Symbol(left), Right: Symbol(right)}
	}
	ns, err := next("sequence length", maxInputLen)
	if err != nil {
		return nil, err
	}
	g.Seq = make([]Symbol, ns)
	for i := range g.Seq {
		s, err := next("sequence symbol", uint64(Blank)-1)
		if err != nil {
			return nil, err
		}
		g.Seq[i] = Symbol(s)
	}
	if err := g.validate(); err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}
	return g, nil
}
