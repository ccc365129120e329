// Package board implements the shared Minesweeper grid: cell state,
// bomb placement, the flood-fill reveal and the renumbering that
// follows a detonation.
//
// A Board is a monitor.  Every exported method takes the same mutex,
// so no caller can observe a grid halfway through a flood fill and no
// two mutations interleave.
package board

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// DefaultBombProbability is the chance that any one cell of a randomly
// generated board holds a bomb.
const DefaultBombProbability = 0.25

// LineEnd terminates every rendered row.
const LineEnd = "\r\n"

// Board is a fixed-size Minesweeper grid safe for concurrent use.
type Board struct {
	mu     sync.Mutex
	width  int
	height int
	cells  []Cell // row-major, index y*width + x
	bombs  []bool
}

// newEmpty allocates a board of untouched, unbombed cells.
func newEmpty(width, height int) *Board {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("board: invalid dimensions %dx%d", width, height))
	}
	return &Board{
		width:  width,
		height: height,
		cells:  make([]Cell, width*height),
		bombs:  make([]bool, width*height),
	}
}

// New returns a width×height board where each cell is independently
// bombed with [DefaultBombProbability].  It panics if either dimension
// is not positive.
func New(width, height int) *Board {
	rng := rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // gameplay randomness
	return NewRandom(width, height, DefaultBombProbability, rng)
}

// NewRandom is like [New] but with an explicit bomb probability and
// random source, so tests can reproduce a layout.
func NewRandom(width, height int, probability float64, rng *rand.Rand) *Board {
	b := newEmpty(width, height)
	for i := range b.bombs {
		b.bombs[i] = rng.Float64() < probability
	}
	return b
}

// FromLayout builds a board whose dimensions and bombs come verbatim
// from l.  All cells start untouched.
func FromLayout(l *Layout) *Board {
	b := newEmpty(l.Width, l.Height)
	for y := 0; y < l.Height; y++ {
		for x := 0; x < l.Width; x++ {
			b.bombs[b.index(x, y)] = l.Bombs[y][x]
		}
	}
	return b
}

// ── Queries ──────────────────────────────────────────────────────────

// Dimensions returns the board's width (columns) and height (rows).
func (b *Board) Dimensions() (width, height int) {
	return b.width, b.height
}

// Size returns the number of cells.
func (b *Board) Size() int {
	return b.width * b.height
}

// Cell returns the visible state at (x, y) and whether the position is
// on the board.
func (b *Board) Cell(x, y int) (Cell, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.inBounds(x, y) {
		return Cell{}, false
	}
	return b.cells[b.index(x, y)], true
}

// HasBomb reports whether (x, y) is on the board and currently bombed.
func (b *Board) HasBomb(x, y int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.inBounds(x, y) && b.bombs[b.index(x, y)]
}

// Snapshot returns a copy of every cell, indexed [y][x].
func (b *Board) Snapshot() [][]Cell {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([][]Cell, b.height)
	for y := range out {
		out[y] = make([]Cell, b.width)
		copy(out[y], b.cells[y*b.width:(y+1)*b.width])
	}
	return out
}

// Render returns the grid one row per line, tokens separated by single
// spaces, each row terminated by CRLF.
func (b *Board) Render() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	var sb strings.Builder
	sb.Grow(b.height * (2*b.width + len(LineEnd)))
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			if x > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(b.cells[b.index(x, y)].token())
		}
		sb.WriteString(LineEnd)
	}
	return sb.String()
}

// ── Mutations ────────────────────────────────────────────────────────

// Dig reveals (x, y).  Digging off the board or a cell that is not
// untouched does nothing and reports Safe.  Digging a bomb defuses it,
// lowers the count of every already revealed neighbour, reveals the
// cell and reports Exploded.
func (b *Board) Dig(x, y int) Outcome {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.inBounds(x, y) || b.cells[b.index(x, y)].State != Untouched {
		return Safe
	}

	outcome := Safe
	if b.bombs[b.index(x, y)] {
		outcome = Exploded
		b.bombs[b.index(x, y)] = false
		b.renumber(x, y, -1)
	}
	b.reveal(x, y)
	return outcome
}

// Flag marks an untouched cell.  It reports whether anything changed.
func (b *Board) Flag(x, y int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.inBounds(x, y) || b.cells[b.index(x, y)].State != Untouched {
		return false
	}
	b.cells[b.index(x, y)].State = Flagged
	return true
}

// Deflag clears a flag.  It reports whether anything changed.
func (b *Board) Deflag(x, y int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.inBounds(x, y) || b.cells[b.index(x, y)].State != Flagged {
		return false
	}
	b.cells[b.index(x, y)].State = Untouched
	return true
}

// PlaceBomb arms (x, y) and raises the count on every revealed
// neighbour.  Revealed cells cannot be armed.  It reports whether
// anything changed.
func (b *Board) PlaceBomb(x, y int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.inBounds(x, y) || b.bombs[b.index(x, y)] || b.cells[b.index(x, y)].State == Revealed {
		return false
	}
	b.bombs[b.index(x, y)] = true
	b.renumber(x, y, +1)
	return true
}

// RemoveBomb disarms (x, y) without revealing it and lowers the count
// on every revealed neighbour.  It reports whether anything changed.
func (b *Board) RemoveBomb(x, y int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.inBounds(x, y) || !b.bombs[b.index(x, y)] {
		return false
	}
	b.bombs[b.index(x, y)] = false
	b.renumber(x, y, -1)
	return true
}

// ── internals (caller holds mu) ──────────────────────────────────────

// reveal flood-fills from (x, y).  A cell with no bombed neighbours
// spreads into every neighbour that is not yet revealed, flagged ones
// included.  The explicit stack keeps deep fills off the call stack.
func (b *Board) reveal(x, y int) {
	stack := [][2]int{{x, y}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		c := &b.cells[b.index(p[0], p[1])]
		if c.State == Revealed {
			continue
		}
		c.State = Revealed
		c.Count = b.bombsAround(p[0], p[1])
		if c.Count > 0 {
			continue
		}
		b.forNeighbours(p[0], p[1], func(nx, ny int) {
			if b.cells[b.index(nx, ny)].State != Revealed {
				stack = append(stack, [2]int{nx, ny})
			}
		})
	}
}

// renumber adds delta to the count of each revealed neighbour of
// (x, y) after the bomb there was armed or disarmed.
func (b *Board) renumber(x, y, delta int) {
	b.forNeighbours(x, y, func(nx, ny int) {
		if c := &b.cells[b.index(nx, ny)]; c.State == Revealed {
			c.Count += delta
		}
	})
}

func (b *Board) bombsAround(x, y int) int {
	n := 0
	b.forNeighbours(x, y, func(nx, ny int) {
		if b.bombs[b.index(nx, ny)] {
			n++
		}
	})
	return n
}

// forNeighbours calls fn for each in-bounds cell adjacent to (x, y).
func (b *Board) forNeighbours(x, y int, fn func(nx, ny int)) {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if nx, ny := x+dx, y+dy; b.inBounds(nx, ny) {
				fn(nx, ny)
			}
		}
	}
}

func (b *Board) inBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.width && y < b.height
}

func (b *Board) index(x, y int) int {
	return y*b.width + x
}
