package board

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	mserr "minesweeper/internal/errors"
)

// maxLineLen bounds a single layout line (1 MiB is ~500k columns).
const maxLineLen = 1 << 20

// Layout is a parsed bomb-layout source.
//
// The text form is a header line "WIDTH HEIGHT" followed by exactly
// HEIGHT rows of exactly WIDTH tokens, each "0" or "1", separated by
// single spaces with no leading or trailing whitespace.
type Layout struct {
	Width  int
	Height int
	Bombs  [][]bool // indexed [y][x]
}

// ParseLayout reads a layout from r.  Any deviation from the format
// yields an error matching [mserr.ErrMalformedBoard].
func ParseLayout(r io.Reader) (*Layout, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxLineLen)

	lineNo := 0
	next := func() (string, bool) {
		if !sc.Scan() {
			return "", false
		}
		lineNo++
		// tolerate CRLF files
		return strings.TrimSuffix(sc.Text(), "\r"), true
	}

	header, ok := next()
	if !ok {
		if err := sc.Err(); err != nil {
			return nil, scanError(err, 1)
		}
		return nil, &mserr.BoardFormatError{Reason: "empty source"}
	}
	dims, err := splitTokens(header, 2, lineNo)
	if err != nil {
		return nil, err
	}
	width, err := parseDimension(dims[0], "width", lineNo)
	if err != nil {
		return nil, err
	}
	height, err := parseDimension(dims[1], "height", lineNo)
	if err != nil {
		return nil, err
	}

	l := &Layout{Width: width, Height: height, Bombs: make([][]bool, 0, min(height, 1024))}
	for {
		line, ok := next()
		if !ok {
			break
		}
		if len(l.Bombs) == height {
			return nil, mserr.Malformed(lineNo, "more than %d rows", height)
		}
		tokens, err := splitTokens(line, width, lineNo)
		if err != nil {
			return nil, err
		}
		row := make([]bool, width)
		for x, tok := range tokens {
			switch tok {
			case "0":
			case "1":
				row[x] = true
			default:
				return nil, mserr.Malformed(lineNo, "column %d: want 0 or 1, got %q", x, tok)
			}
		}
		l.Bombs = append(l.Bombs, row)
	}
	if err := sc.Err(); err != nil {
		return nil, scanError(err, lineNo+1)
	}
	if len(l.Bombs) != height {
		return nil, mserr.Malformed(0, "header declares %d rows, found %d", height, len(l.Bombs))
	}
	return l, nil
}

// Load parses a layout from r and builds a board from it.
func Load(r io.Reader) (*Board, error) {
	l, err := ParseLayout(r)
	if err != nil {
		return nil, err
	}
	return FromLayout(l), nil
}

// LoadFile is [Load] for a file path.
func LoadFile(path string) (*Board, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening board file: %w", err)
	}
	defer f.Close()

	b, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// ── helpers ──────────────────────────────────────────────────────────

func scanError(err error, lineNo int) error {
	if errors.Is(err, bufio.ErrTooLong) {
		return mserr.Malformed(lineNo, "line longer than %d bytes", maxLineLen)
	}
	return fmt.Errorf("reading board source: %w", err)
}

// splitTokens splits on single spaces and insists on exactly want
// non-empty tokens, which rules out leading, trailing and doubled
// separators in one check.
func splitTokens(line string, want, lineNo int) ([]string, error) {
	tokens := strings.Split(line, " ")
	if len(tokens) != want {
		return nil, mserr.Malformed(lineNo, "want %d tokens, got %d", want, len(tokens))
	}
	for i, tok := range tokens {
		if tok == "" {
			return nil, mserr.Malformed(lineNo, "stray whitespace before token %d", i)
		}
		if strings.ContainsAny(tok, "\t\v\f\r") {
			return nil, mserr.Malformed(lineNo, "unexpected whitespace in token %q", tok)
		}
	}
	return tokens, nil
}

func parseDimension(tok, name string, lineNo int) (int, error) {
	for _, r := range tok {
		if r < '0' || r > '9' {
			return 0, mserr.Malformed(lineNo, "%s %q is not a number", name, tok)
		}
	}
	n, err := strconv.Atoi(tok)
	if err != nil || n <= 0 {
		return 0, mserr.Malformed(lineNo, "%s must be a positive integer, got %q", name, tok)
	}
	return n, nil
}
