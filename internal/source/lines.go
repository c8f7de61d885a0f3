package source

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNotFound is returned when a session file does not exist.
var ErrNotFound = errors.New("session file not found")

// maxLineSize bounds a single record; instruction blocks and patch bodies can
// be several megabytes.
const maxLineSize = 64 * 1024 * 1024

// FileLines is a LineSource backed by an open file.
type FileLines struct {
	f     *os.File
	lines *lineReader
}

// OpenFile opens path for line iteration.
func OpenFile(path string) (*FileLines, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("open session file: %w", err)
	}
	return &FileLines{f: f, lines: newLineReader(f)}, nil
}

// FileOpener returns an Opener for path.
func FileOpener(path string) Opener {
	return func() (LineSource, error) {
		return OpenFile(path)
	}
}

// Next implements LineSource.
func (l *FileLines) Next() ([]byte, bool) { return l.lines.next() }

// Err implements LineSource.
func (l *FileLines) Err() error { return l.lines.failure() }

// Oversized implements OversizeCounter.
func (l *FileLines) Oversized() int { return l.lines.oversized }

// Close implements LineSource.
func (l *FileLines) Close() error { return l.f.Close() }

// ReaderLines adapts any io.Reader to a LineSource.
type ReaderLines struct {
	r     io.Reader
	lines *lineReader
}

// FromReader returns a LineSource reading r. Close closes r when it is an
// io.Closer.
func FromReader(r io.Reader) *ReaderLines {
	return &ReaderLines{r: r, lines: newLineReader(r)}
}

// Next implements LineSource.
func (l *ReaderLines) Next() ([]byte, bool) { return l.lines.next() }

// Err implements LineSource.
func (l *ReaderLines) Err() error { return l.lines.failure() }

// Oversized implements OversizeCounter.
func (l *ReaderLines) Oversized() int { return l.lines.oversized }

// Close implements LineSource.
func (l *ReaderLines) Close() error {
	if c, ok := l.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// SliceLines is an in-memory LineSource, mostly useful in tests.
type SliceLines struct {
	lines []string
	pos   int
	err   error
}

// Lines returns a LineSource over the given lines.
func Lines(lines ...string) *SliceLines {
	return &SliceLines{lines: lines}
}

// WithError makes the source fail with err once its lines are exhausted.
func (s *SliceLines) WithError(err error) *SliceLines {
	s.err = err
	return s
}

// Next implements LineSource.
func (s *SliceLines) Next() ([]byte, bool) {
	if s.pos >= len(s.lines) {
		return nil, false
	}
	line := s.lines[s.pos]
	s.pos++
	return []byte(line), true
}

// Err implements LineSource.
func (s *SliceLines) Err() error {
	if s.pos < len(s.lines) {
		return nil
	}
	return s.err
}

// Close implements LineSource.
func (s *SliceLines) Close() error { return nil }

// lineReader splits r into lines like bufio.ScanLines, except that a line
// longer than limit is dropped and counted rather than ending the scan.
type lineReader struct {
	r         *bufio.Reader
	limit     int
	buf       []byte
	oversized int
	err       error
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReaderSize(r, 256*1024), limit: maxLineSize}
}

func (lr *lineReader) next() ([]byte, bool) {
	for lr.err == nil {
		lr.buf = lr.buf[:0]
		tooLong := false
		for {
			frag, err := lr.r.ReadSlice('\n')
			if !tooLong {
				// Two bytes of slack for the \r\n terminator.
				if len(lr.buf)+len(frag) > lr.limit+2 {
					tooLong = true
					lr.buf = lr.buf[:0]
				} else {
					lr.buf = append(lr.buf, frag...)
				}
			}
			if errors.Is(err, bufio.ErrBufferFull) {
				continue
			}
			if err != nil {
				lr.err = err
				if !errors.Is(err, io.EOF) || (len(lr.buf) == 0 && !tooLong) {
					return nil, false
				}
			}
			break
		}

		line := dropEOL(lr.buf)
		if tooLong || len(line) > lr.limit {
			lr.oversized++
			continue
		}
		return line, true
	}
	return nil, false
}

// failure reports the read error that ended the scan, if any.
func (lr *lineReader) failure() error {
	if lr.err == nil || errors.Is(lr.err, io.EOF) {
		return nil
	}
	return fmt.Errorf("scan session: %w", lr.err)
}

func dropEOL(b []byte) []byte {
	b = bytes.TrimSuffix(b, []byte{'\n'})
	return bytes.TrimSuffix(b, []byte{'\r'})
}
