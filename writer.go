package zflate

import (
	"io"

	"github.com/pkg/errors"
)

// A Writer wraps a Deflater in zlib (RFC 1950) framing: the two-byte
// CMF/FLG header, an optional DICTID, the raw DEFLATE stream, and the
// big-endian Adler-32 trailer.
type Writer struct {
	dest io.Writer
	d    *Deflater
	dict []byte
	buf  []byte

	wroteHeader bool
	closed      bool
	err         error
}

// NewWriter returns a Writer compressing at the default level.
func NewWriter(w io.Writer) *Writer {
	z, _ := NewWriterLevel(w, DefaultCompression)
	return z
}

// NewWriterLevel returns a Writer compressing at the given level
// (0 through 9).
func NewWriterLevel(w io.Writer, level int) (*Writer, error) {
	return NewWriterLevelDict(w, level, nil)
}

// NewWriterLevelDict returns a Writer whose window is primed with
// dict. The decompressor must be primed with the same dictionary; the
// stream header carries its Adler-32 as the DICTID.
func NewWriterLevelDict(w io.Writer, level int, dict []byte) (*Writer, error) {
	d, err := NewDeflater(level)
	if err != nil {
		return nil, err
	}
	z := &Writer{
		dest: w,
		d:    d,
		dict: dict,
		buf:  make([]byte, 4096),
	}
	if dict != nil {
		if err := d.SetDictionary(dict); err != nil {
			return nil, err
		}
	}
	return z, nil
}

// Reset discards the Writer's state and makes it equivalent to a new
// Writer writing to w, keeping the level and dictionary.
func (z *Writer) Reset(w io.Writer) {
	z.dest = w
	z.wroteHeader = false
	z.closed = false
	z.err = nil
	z.d.Reset()
	if z.dict != nil {
		// Cannot fail: the Deflater was just reset.
		z.d.SetDictionary(z.dict)
	}
}

// SetLevel changes the compression level for data written from now on.
func (z *Writer) SetLevel(level int) error {
	if z.err != nil {
		return z.err
	}
	// Drain pending output first so the level switch has room to close
	// the current block.
	for {
		n := z.d.Deflate(z.buf)
		if n == 0 {
			break
		}
		if _, err := z.dest.Write(z.buf[:n]); err != nil {
			z.err = errors.Wrap(err, "zflate: writing compressed data")
			return z.err
		}
	}
	return z.d.SetLevel(level)
}

func (z *Writer) writeHeader() error {
	z.wroteHeader = true

	// CMF: deflate with a 32 KiB window. FLG carries the advisory
	// compression-level field and the dictionary flag; FCHECK makes
	// the two bytes a multiple of 31.
	header := 0x7800
	var levelFlags int
	switch {
	case z.d.level < 2:
		levelFlags = 0
	case z.d.level < 6:
		levelFlags = 1
	case z.d.level == 6:
		levelFlags = 2
	default:
		levelFlags = 3
	}
	header |= levelFlags << 6
	if z.dict != nil {
		header |= 0x20
	}
	header += 31 - header%31

	b := []byte{byte(header >> 8), byte(header)}
	if z.dict != nil {
		chk := z.d.Adler()
		z.d.ResetAdler()
		b = append(b, byte(chk>>24), byte(chk>>16), byte(chk>>8), byte(chk))
	}
	if _, err := z.dest.Write(b); err != nil {
		z.err = errors.Wrap(err, "zflate: writing stream header")
		return z.err
	}
	return nil
}

func (z *Writer) drain() error {
	n := z.d.Deflate(z.buf)
	if n > 0 {
		if _, err := z.dest.Write(z.buf[:n]); err != nil {
			z.err = errors.Wrap(err, "zflate: writing compressed data")
			return z.err
		}
	}
	return nil
}

func (z *Writer) Write(p []byte) (int, error) {
	if z.err != nil {
		return 0, z.err
	}
	if z.closed {
		return 0, errors.New("zflate: write to closed Writer")
	}
	if !z.wroteHeader {
		if err := z.writeHeader(); err != nil {
			return 0, err
		}
	}
	if len(p) == 0 {
		return 0, nil
	}
	if err := z.d.SetInput(p); err != nil {
		z.err = err
		return 0, err
	}
	for !z.d.NeedsInput() {
		if err := z.drain(); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// Flush makes all data written so far decodable by the receiver,
// without ending the stream.
func (z *Writer) Flush() error {
	if z.err != nil {
		return z.err
	}
	if z.closed {
		return errors.New("zflate: flush of closed Writer")
	}
	if !z.wroteHeader {
		if err := z.writeHeader(); err != nil {
			return err
		}
	}
	z.d.Flush()
	for {
		n := z.d.Deflate(z.buf)
		if n == 0 {
			break
		}
		if _, err := z.dest.Write(z.buf[:n]); err != nil {
			z.err = errors.Wrap(err, "zflate: writing compressed data")
			return z.err
		}
	}
	return nil
}

// Close finishes the DEFLATE stream and writes the Adler-32 trailer.
// It does not close the underlying writer.
func (z *Writer) Close() error {
	if z.err != nil {
		return z.err
	}
	if z.closed {
		return nil
	}
	if !z.wroteHeader {
		if err := z.writeHeader(); err != nil {
			return err
		}
	}
	z.closed = true

	z.d.Finish()
	for !z.d.IsFinished() {
		n := z.d.Deflate(z.buf)
		if n == 0 && !z.d.IsFinished() {
			z.err = errors.New("zflate: deflater stalled before finishing")
			return z.err
		}
		if n > 0 {
			if _, err := z.dest.Write(z.buf[:n]); err != nil {
				z.err = errors.Wrap(err, "zflate: writing compressed data")
				return z.err
			}
		}
	}

	chk := z.d.Adler()
	trailer := []byte{byte(chk >> 24), byte(chk >> 16), byte(chk >> 8), byte(chk)}
	if _, err := z.dest.Write(trailer); err != nil {
		z.err = errors.Wrap(err, "zflate: writing checksum trailer")
		return z.err
	}
	return nil
}
