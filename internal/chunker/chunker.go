package chunker

import (
	"strings"
	"unicode/utf8"
)

const (
	DefaultChunkSize    = 750
	DefaultChunkOverlap = 150
)

// separators are tried in order when looking for a split point, coarsest
// boundary first.
var separators = []string{"\n\n", "\n", ". ", " "}

// Chunk is one ordered piece of a page's text.
type Chunk struct {
	PageNumber int
	ChunkIndex int
	Content    string
}

// Page is the unit of input produced by the upstream text extractor.
type Page struct {
	PageNumber int
	Text       string
}

// Splitter cuts page text into overlapping chunks, preferring to break at
// paragraph, line, sentence and word boundaries, in that order.
type Splitter struct {
	chunkSize int
	overlap   int
}

type Option func(*Splitter)

func WithChunkSize(size int) Option {
	return func(s *Splitter) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

func WithOverlap(overlap int) Option {
	return func(s *Splitter) {
		if overlap >= 0 {
			s.overlap = overlap
		}
	}
}

func New(opts ...Option) *Splitter {
	s := &Splitter{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.overlap >= s.chunkSize {
		s.overlap = s.chunkSize / 2
	}
	return s
}

// SplitPages chunks every page, numbering chunks from 0 within each page.
func (s *Splitter) SplitPages(pages []Page) []Chunk {
	var chunks []Chunk
	for _, page := range pages {
		for i, text := range s.split(page.Text) {
			chunks = append(chunks, Chunk{
				PageNumber: page.PageNumber,
				ChunkIndex: i,
				Content:    text,
			})
		}
	}
	return chunks
}

func (s *Splitter) split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var out []string
	start := 0
	for start < len(text) {
		end := start + s.chunkSize
		if end >= len(text) {
			if piece := strings.TrimSpace(text[start:]); piece != "" {
				out = append(out, piece)
			}
			break
		}

		cut := s.findBreak(text, start, end)
		if piece := strings.TrimSpace(text[start:cut]); piece != "" {
			out = append(out, piece)
		}

		next := runeStart(text, cut-s.overlap)
		if next <= start {
			next = cut
		}
		start = next
	}
	return out
}

// findBreak looks backwards from end for the best boundary to cut at. The
// break must land in the second half of the window so overlap cannot stall
// progress. The returned offset is always a rune boundary; a window with no
// separator falls back to the nearest rune start, never a raw byte offset.
func (s *Splitter) findBreak(text string, start, end int) int {
	floor := start + s.chunkSize/2
	for _, sep := range separators {
		if i := strings.LastIndex(text[floor:end], sep); i >= 0 {
			return floor + i + len(sep)
		}
	}

	cut := runeStart(text, end)
	if cut <= start {
		_, size := utf8.DecodeRuneInString(text[start:])
		cut = start + size
	}
	return cut
}

// runeStart backs i up to the start of the rune it points into.
func runeStart(text string, i int) int {
	for i > 0 && i < len(text) && !utf8.RuneStart(text[i]) {
		i--
	}
	return i
}
