package chunker

import (
	"unicode/utf8"

	"github.com/civicore/polidex/core"
)

// Size tiers by total document length. Short documents get fine-grained
// chunks; long statutes get coarser ones so chunk counts stay manageable.
var tiers = []struct {
	maxLen  int
	target  int
	overlap int
}{
	{5_000, 1200, 250},
	{20_000, 1800, 350},
	{50_000, 2400, 450},
}

const (
	// Documents beyond the last tier.
	largeTarget  = 3000
	largeOverlap = 600

	// maxSentenceOverrun bounds how far past the target a sentence cut may
	// reach before the cut falls back to the exact offset.
	maxSentenceOverrun = 200
)

// Chunker splits document text into ordered chunks. The zero-configured
// Chunker selects sizes adaptively by document length.
type Chunker struct {
	targetSize int // 0 selects by tier
	overlap    int // -1 selects by tier
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithTargetSize fixes the chunk target size in bytes, bypassing tier
// selection. Values <= 0 are ignored.
func WithTargetSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.targetSize = size
		}
	}
}

// WithOverlap fixes the overlap window in bytes, bypassing tier selection.
// Negative values are ignored.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a Chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		targetSize: 0,
		overlap:    -1,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Split divides text into ordered, overlapping chunks. Empty input yields
// zero chunks. The output is deterministic for a given input.
//
// Cut points prefer, in order: a section boundary past half the target
// size, a sentence boundary near the target (overrunning it by at most
// maxSentenceOverrun), then the exact target offset rounded to a rune
// boundary. Overlap is not applied across a section cut, so chunks after a
// section heading start exactly on the boundary.
//
// Returned chunks carry Seq, Start, End, Text and section metadata only.
// Identity, access fields and vectors are assigned by the caller.
func (c *Chunker) Split(text string) []core.Chunk {
	if text == "" {
		return nil
	}

	target, overlap := c.sizesFor(len(text))
	sections := detectSections(text)

	estimated := len(text)/(target-overlap) + 1
	chunks := make([]core.Chunk, 0, estimated)

	start := 0
	seq := 0
	for start < len(text) {
		end, atSection := cutPoint(text, start, target, sections)

		label, startsSection := enclosingSection(sections, start)
		chunks = append(chunks, core.Chunk{
			Seq:            seq,
			Start:          start,
			End:            end,
			Text:           text[start:end],
			SectionHeading: label,
			SectionStart:   startsSection,
		})
		seq++

		if end >= len(text) {
			break
		}

		next := end
		if !atSection {
			next = end - overlap
		}
		if next <= start {
			next = end
		}
		start = alignRune(text, next)
	}

	return chunks
}

func (c *Chunker) sizesFor(textLen int) (target, overlap int) {
	target = largeTarget
	overlap = largeOverlap
	for _, t := range tiers {
		if textLen <= t.maxLen {
			target = t.target
			overlap = t.overlap
			break
		}
	}

	if c.targetSize > 0 {
		target = c.targetSize
	}
	if c.overlap >= 0 {
		overlap = c.overlap
	}
	// Overlap must leave room for forward progress
	if overlap >= target {
		overlap = target / 4
	}
	return target, overlap
}

// cutPoint selects where the chunk starting at start should end. The second
// return value reports whether the cut landed on a section boundary.
func cutPoint(text string, start, target int, sections []section) (int, bool) {
	limit := start + target
	if limit >= len(text) {
		return len(text), false
	}

	half := start + target/2
	if cut := sectionCut(sections, half, limit); cut > 0 {
		return cut, true
	}

	if cut := sentenceCut(text, half, limit); cut > 0 {
		return cut, false
	}

	p := limit
	for p > start && !utf8.RuneStart(text[p]) {
		p--
	}
	if p <= start {
		p = alignRune(text, start+1)
	}
	return p, false
}

// sentenceCut finds a sentence end near limit: first searching backward to
// lower, then forward within the allowed overrun. Returns -1 when no
// sentence boundary is in range.
func sentenceCut(text string, lower, limit int) int {
	for i := limit - 1; i > lower; i-- {
		if isSentenceEnd(text, i) {
			return i + 1
		}
	}
	forwardBound := limit + maxSentenceOverrun
	if forwardBound > len(text) {
		forwardBound = len(text)
	}
	for i := limit; i < forwardBound; i++ {
		if isSentenceEnd(text, i) {
			return i + 1
		}
	}
	return -1
}

func isSentenceEnd(text string, i int) bool {
	switch text[i] {
	case '.', '!', '?':
	default:
		return false
	}
	if i+1 == len(text) {
		return true
	}
	switch text[i+1] {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

// alignRune moves pos forward to the next rune start so byte-offset cuts
// never split a multi-byte character.
func alignRune(text string, pos int) int {
	for pos < len(text) && !utf8.RuneStart(text[pos]) {
		pos++
	}
	return pos
}
