package board

import "strconv"

// State is the visible state of a cell.
type State uint8

const (
	// Untouched cells have not been dug or flagged.
	Untouched State = iota
	// Flagged cells are marked by a player as suspected bombs.
	Flagged
	// Revealed cells have been dug; Cell.Count is meaningful.
	Revealed
)

func (s State) String() string {
	switch s {
	case Untouched:
		return "untouched"
	case Flagged:
		return "flagged"
	case Revealed:
		return "revealed"
	default:
		return "unknown"
	}
}

// Cell is the player-visible record of one grid position.  Bomb
// presence is tracked separately by the Board and never leaks here.
type Cell struct {
	State State
	Count int // bombed neighbours; only meaningful when Revealed
}

// Outcome is the result of a dig.
type Outcome int

const (
	// Safe means no bomb was hit (including no-op digs).
	Safe Outcome = iota
	// Exploded means the dug cell held a bomb, which is now defused.
	Exploded
)

func (o Outcome) String() string {
	if o == Exploded {
		return "exploded"
	}
	return "safe"
}

// token is the render form of a cell: "-", "F", "1".."8", or a single
// blank for a revealed zero so columns stay aligned.
func (c Cell) token() string {
	switch c.State {
	case Flagged:
		return "F"
	case Revealed:
		if c.Count == 0 {
			return " "
		}
		return strconv.Itoa(c.Count)
	default:
		return "-"
	}
}
