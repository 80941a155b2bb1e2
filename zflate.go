// Package zflate implements a DEFLATE (RFC 1951) compression engine in
// the zlib tradition: a 32 KiB sliding window indexed by three-byte
// hash chains, greedy and lazy match selection, and per-block choice
// between stored, fixed-Huffman and dynamic-Huffman encoding.
//
// The engine is a push-style state machine. Input is handed over with
// SetInput, compressed output is drained from an internal pending
// buffer with Deflate, and the stream is terminated with Finish. The
// Writer type wraps the engine with zlib (RFC 1950) framing for use as
// an ordinary io.WriteCloser.
//
// The engine itself emits raw DEFLATE blocks only; the zlib header and
// the trailing Adler-32 checksum belong to the wrapper. The running
// checksum of all uncompressed bytes is exposed through Adler so that
// wrappers can frame the stream themselves.
package zflate

// Compression levels. Level 0 stores the input in uncompressed blocks;
// levels 1-3 use greedy matching tuned for speed; levels 4-9 use lazy
// matching with progressively deeper hash chain searches.
const (
	NoCompression      = 0
	BestSpeed          = 1
	BestCompression    = 9
	DefaultCompression = 6
)

// A Strategy adjusts how the engine chooses between literals and
// matches. The block encoding itself is unaffected.
type Strategy int

const (
	// DefaultStrategy uses matches of any length and distance, except
	// that levels 4-9 drop minimum-length matches more than 4096 bytes
	// back.
	DefaultStrategy Strategy = iota

	// Filtered discards short matches (length 5 or less) at levels 4-9,
	// which tends to help data with many small runs of random bytes,
	// such as filtered PNG scanlines. Levels 1-3 treat it like
	// DefaultStrategy.
	Filtered

	// HuffmanOnly disables match search entirely and relies on Huffman
	// coding of literals alone.
	HuffmanOnly
)

// An InternalError reports corrupted engine state. It is delivered by
// panicking: once an internal invariant is violated the stream cannot
// be continued.
type InternalError string

func (e InternalError) Error() string { return "zflate: internal error: " + string(e) }
