// Package gamma reads and writes sequences of unsigned integers in a packed
// bit format built from Elias-gamma codes.
//
// Integers are buffered into blocks of ten. Each block is emitted as the
// gamma code of the bit width of its widest member, followed by every member
// at that width. The stream ends with the gamma code of 65 (one more than
// any legal width), a 64-bit count of buffered leftovers, and the leftovers
// at 64 bits each; the final byte is zero-padded. Bits are packed MSB-first
// within each byte.
package gamma

import (
	"bufio"
	"fmt"
	"io"
	"math/bits"

	"golang.org/x/exp/constraints"
)

const (
	blockSize  = 10
	terminator = 65
)

// Width returns the number of bits needed to represent x; zero needs one.
func Width[T constraints.Unsigned](x T) int {
	if x == 0 {
		return 1
	}
	return bits.Len64(uint64(x))
}

// A Writer appends integers to an underlying io.Writer. Errors are sticky
// and reported by Close.
type Writer struct {
	w      *bufio.Writer
	block  [blockSize]uint64
	filled int
	acc    byte // partial output byte
	accLen int
	err    error
	closed bool

	written   int64
	codedBits uint64
	idealBits uint64
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Append buffers x for output.
func (w *Writer) Append(x uint64) {
	if w.err != nil || w.closed {
		return
	}
	w.block[w.filled] = x
	w.filled++
	w.idealBits += uint64(Width(x))
	if w.filled == blockSize {
		w.flushBlock()
	}
}

// Close terminates the stream, flushing buffered integers and padding to a
// byte boundary. It reports the first error encountered.
func (w *Writer) Close() error {
	if w.closed {
		return w.err
	}
	w.closed = true
	w.putGamma(terminator)
	w.putBits(uint64(w.filled), 64)
	for i := 0; i < w.filled; i++ {
		w.putBits(w.block[i], 64)
	}
	if w.accLen > 0 {
		w.putBits(0, 8-w.accLen)
	}
	if w.err == nil {
		w.err = w.w.Flush()
	}
	return w.err
}

// BytesWritten returns the number of bytes emitted so far.
func (w *Writer) BytesWritten() int64 { return w.written }

// Overhead returns the percentage of emitted bits in excess of the summed
// minimal bit widths of all appended integers.
func (w *Writer) Overhead() float64 {
	if w.idealBits == 0 {
		return 0
	}
	return 100 * float64(w.codedBits-w.idealBits) / float64(w.idealBits)
}

func (w *Writer) flushBlock() {
	width := 1
	for i := 0; i < w.filled; i++ {
		if wd := Width(w.block[i]); wd > width {
			width = wd
		}
	}
	w.putGamma(uint64(width))
	for i := 0; i < w.filled; i++ {
		w.putBits(w.block[i], width)
	}
	w.filled = 0
}

// putGamma emits the Elias-gamma code of x > 0: width-1 zero bits, then x at
// its natural width.
func (w *Writer) putGamma(x uint64) {
	width := Width(x)
	w.putBits(0, width-1)
	w.putBits(x, width)
}

func (w *Writer) putBits(x uint64, width int) {
	for i := width - 1; i >= 0; i-- {
		w.acc = w.acc<<1 | byte(x>>uint(i)&1)
		w.accLen++
		if w.accLen == 8 {
			if w.err == nil {
				if err := w.w.WriteByte(w.acc); err != nil {
					w.err = err
				}
				w.written++
			}
			w.acc, w.accLen = 0, 0
		}
	}
	w.codedBits += uint64(width)
}

// A Reader decodes a stream produced by Writer. Next returns io.EOF after
// the last integer; any malformed or truncated input yields a non-EOF error.
type Reader struct {
	r      *bufio.Reader
	acc    byte
	accLen int

	block    [blockSize]uint64
	blockLen int
	blockPos int
	tailSeen bool
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next returns the next integer of the stream.
func (r *Reader) Next() (uint64, error) {
	if r.blockPos < r.blockLen {
		x := r.block[r.blockPos]
		r.blockPos++
		return x, nil
	}
	if r.tailSeen {
		return 0, io.EOF
	}
	width, err := r.getGamma()
	if err != nil {
		return 0, err
	}
	switch {
	case width >= 1 && width <= 64:
		for i := 0; i < blockSize; i++ {
			if r.block[i], err = r.getBits(int(width)); err != nil {
				return 0, err
			}
		}
		r.blockLen, r.blockPos = blockSize, 0
	case width == terminator:
		r.tailSeen = true
		count, err := r.getBits(64)
		if err != nil {
			return 0, err
		}
		if count >= blockSize {
			return 0, fmt.Errorf("gamma: malformed tail count %d", count)
		}
		for i := uint64(0); i < count; i++ {
			if r.block[i], err = r.getBits(64); err != nil {
				return 0, err
			}
		}
		r.blockLen, r.blockPos = int(count), 0
		if r.blockLen == 0 {
			return 0, io.EOF
		}
	default:
		return 0, fmt.Errorf("gamma: malformed block width %d", width)
	}
	x := r.block[r.blockPos]
	r.blockPos++
	return x, nil
}

func (r *Reader) getGamma() (uint64, error) {
	zeros := 0
	for {
		b, err := r.getBit()
		if err != nil {
			return 0, err
		}
		if b == 1 {
			break
		}
		zeros++
		if zeros > 64 {
			return 0, fmt.Errorf("gamma: malformed code prefix")
		}
	}
	rest, err := r.getBits(zeros)
	if err != nil {
		return 0, err
	}
	return uint64(1)<<zeros | rest, nil
}

func (r *Reader) getBits(width int) (uint64, error) {
	var x uint64
	for i := 0; i < width; i++ {
		b, err := r.getBit()
		if err != nil {
			return 0, err
		}
		x = x<<1 | uint64(b)
	}
	return x, nil
}

func (r *Reader) getBit() (byte, error) {
	if r.accLen == 0 {
		b, err := r.r.ReadByte()
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return 0, fmt.Errorf("gamma: truncated stream: %w", err)
		}
		r.acc, r.accLen = b, 8
	}
	r.accLen--
	return r.acc >> uint(r.accLen) & 1, nil
}
