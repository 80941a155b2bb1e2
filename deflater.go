package zflate

import (
	"github.com/pkg/errors"
)

// Deflater state machine. The flushing and finishing bits combine with
// the busy bit; finished adds a final bit of its own so the states
// stay ordered.
const (
	isFlushing  = 0x04
	isFinishing = 0x08

	stateInit      = 0x00
	stateBusy      = 0x10
	stateFlushing  = stateBusy | isFlushing
	stateFinishing = stateBusy | isFlushing | isFinishing
	stateFinished  = stateFinishing | 0x02
)

// A Deflater compresses a byte stream into raw DEFLATE blocks. Input
// is supplied with SetInput and compressed bytes are drained with
// Deflate; the stream ends after Finish once IsFinished reports true.
//
// The Deflater emits no zlib header or Adler-32 trailer. Wrappers use
// Adler and ResetAdler to frame the stream; Writer in this package
// does so for RFC 1950.
//
// A Deflater must not be used from more than one goroutine at a time.
type Deflater struct {
	pending *pendingBuffer
	engine  *engine

	level    int
	state    int
	totalOut int64
}

// NewDeflater returns a Deflater compressing at the given level
// (0 through 9).
func NewDeflater(level int) (*Deflater, error) {
	pending := newPendingBuffer()
	d := &Deflater{
		pending: pending,
		engine:  newEngine(pending),
		level:   level,
		state:   stateInit,
	}
	if err := d.engine.setLevel(level); err != nil {
		return nil, err
	}
	return d, nil
}

// SetInput hands the Deflater its next slice of input. The slice is
// read from directly and must not be modified until NeedsInput reports
// true again.
func (d *Deflater) SetInput(b []byte) error {
	if d.state&isFinishing != 0 {
		return errors.New("zflate: SetInput after Finish")
	}
	return d.engine.setInput(b)
}

// NeedsInput reports whether the previous input has been fully
// consumed.
func (d *Deflater) NeedsInput() bool {
	return d.engine.needsInput()
}

// SetDictionary primes the sliding window with preset history. It may
// only be called before any data has been compressed. The dictionary
// bytes are folded into the running checksum so that its value can be
// emitted as a DICTID; call ResetAdler afterwards if the stream
// trailer must cover the data alone.
func (d *Deflater) SetDictionary(dict []byte) error {
	if d.state != stateInit || d.engine.totalIn != 0 {
		return errors.New("zflate: dictionary must be set before compression starts")
	}
	d.engine.setDictionary(dict)
	return nil
}

// SetLevel changes the compression level mid-stream. If the new level
// uses a different compression function, the current block is closed
// under the old function's rules first; drain pending output with
// Deflate before switching so the closing block has room.
func (d *Deflater) SetLevel(level int) error {
	if level < 0 || level > 9 {
		return errors.Errorf("zflate: invalid compression level %d: want 0 through 9", level)
	}
	if d.level == level {
		return nil
	}
	d.level = level
	return d.engine.setLevel(level)
}

// SetStrategy selects how matches are chosen; see Strategy.
func (d *Deflater) SetStrategy(s Strategy) error {
	if s < DefaultStrategy || s > HuffmanOnly {
		return errors.Errorf("zflate: invalid strategy %d", int(s))
	}
	d.engine.strategy = s
	return nil
}

// Flush requests that all input supplied so far become decodable from
// the bytes already produced. The next Deflate calls carry it out.
func (d *Deflater) Flush() {
	d.state |= isFlushing
}

// Finish marks the end of the stream. Deflate must be called until
// IsFinished reports true.
func (d *Deflater) Finish() {
	d.state |= isFlushing | isFinishing
}

// IsFinished reports whether the final block has been written and
// drained.
func (d *Deflater) IsFinished() bool {
	return d.state == stateFinished && d.pending.isFlushed()
}

// Adler returns the running Adler-32 checksum of all bytes consumed so
// far (including any dictionary).
func (d *Deflater) Adler() uint32 {
	return d.engine.adler.sum()
}

// ResetAdler restarts the checksum at its initial value without
// touching the compression state.
func (d *Deflater) ResetAdler() {
	d.engine.adler.reset()
}

// TotalIn returns the number of input bytes consumed.
func (d *Deflater) TotalIn() int64 {
	return d.engine.totalIn
}

// TotalOut returns the number of compressed bytes produced.
func (d *Deflater) TotalOut() int64 {
	return d.totalOut
}

// Reset returns the Deflater to its just-constructed state, keeping
// the level and strategy.
func (d *Deflater) Reset() {
	d.state = stateInit
	d.totalOut = 0
	d.pending.reset()
	d.engine.reset()
}

// Deflate fills out with compressed bytes and returns how many were
// written. A return of 0 means the engine needs input, a Flush has
// completed, or the stream is finished.
func (d *Deflater) Deflate(out []byte) int {
	if d.state < stateBusy {
		d.state = stateBusy | d.state&(isFlushing|isFinishing)
	}

	n := 0
	for {
		n += d.pending.flush(out[n:])
		if n == len(out) || d.state == stateFinished {
			break
		}

		if !d.engine.deflate(d.state&isFlushing != 0, d.state&isFinishing != 0) {
			switch d.state {
			case stateBusy:
				// Out of input; nothing more to do this call.
				d.totalOut += int64(n)
				return n
			case stateFlushing:
				if d.level != NoCompression {
					// Pad with empty static blocks until every bit
					// written so far sits in a complete byte with a
					// full byte after it; the inflater needs that much
					// lookahead to decode everything written so far.
					// Each block is the 3-bit header plus the 7-bit
					// end-of-block code, so up to 7 padding bits can
					// stay in the accumulator.
					neededBits := 8 + (-d.pending.bitCount & 7)
					for neededBits > 0 {
						d.pending.writeBits(2, 10)
						neededBits -= 10
					}
				}
				d.state = stateBusy
			case stateFinishing:
				d.pending.alignToByte()
				d.state = stateFinished
			}
		}
	}
	d.totalOut += int64(n)
	return n
}
