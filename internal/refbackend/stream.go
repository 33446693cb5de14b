package refbackend

import (
	"bufio"
	"io"
	"math/big"
	"strings"

	"zkir/internal/backend"
)

// SliceStream implements backend.Stream over a fixed, pre-parsed slice of
// values, the natural shape for tests and for programmatic callers that
// already hold a circuit's witness in memory.
type SliceStream struct {
	values []*big.Int
	pos    int
	line   int
}

// NewSliceStream wraps values in stream order.
func NewSliceStream(values ...*big.Int) *SliceStream {
	return &SliceStream{values: values}
}

func (s *SliceStream) Next() (*big.Int, backend.StreamStatus) {
	if s.pos >= len(s.values) {
		return nil, backend.StreamEnd
	}
	v := s.values[s.pos]
	s.pos++
	s.line++
	return v, backend.StreamOK
}

func (s *SliceStream) LineNum() int { return s.line }

// Remaining reports how many values are left unread. The interpreter does
// not call it.
func (s *SliceStream) Remaining() int { return len(s.values) - s.pos }

// LineStream implements backend.Stream over a line-delimited text source,
// one base-10 integer per non-blank line; a negative value is passed
// through as read.
type LineStream struct {
	scanner *bufio.Scanner
	line    int
	err     error
}

// NewLineStream wraps r, reading one value per line on demand.
func NewLineStream(r io.Reader) *LineStream {
	return &LineStream{scanner: bufio.NewScanner(r)}
}

func (s *LineStream) Next() (*big.Int, backend.StreamStatus) {
	if s.err != nil {
		return nil, backend.StreamError
	}
	for s.scanner.Scan() {
		s.line++
		text := strings.TrimSpace(s.scanner.Text())
		if text == "" {
			continue
		}
		v, ok := new(big.Int).SetString(text, 10)
		if !ok {
			s.err = errInvalidLine
			return nil, backend.StreamError
		}
		return v, backend.StreamOK
	}
	if err := s.scanner.Err(); err != nil {
		s.err = err
		return nil, backend.StreamError
	}
	return nil, backend.StreamEnd
}

func (s *LineStream) LineNum() int { return s.line }

var errInvalidLine = streamFormatError("input stream line is not a base-10 integer")

type streamFormatError string

func (e streamFormatError) Error() string { return string(e) }
