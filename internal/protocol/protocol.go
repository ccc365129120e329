// Package protocol implements the line-oriented Minesweeper command
// language: parsing one client line into a Command, applying it to a
// board and producing the text sent back.
package protocol

import (
	"fmt"
	"regexp"
	"strconv"

	"minesweeper/internal/board"
)

// LineEnd terminates every line in both directions.
const LineEnd = board.LineEnd

// HelpText is the reply to "help" and to anything unparseable.
const HelpText = "Available Actions: 'dig x y' or 'flag x y' or 'deflag x y' " +
	"where x and y are coordinates of the cell" + LineEnd +
	"Other Commands: 'look' : Shows the board, 'bye' : Ends game" + LineEnd

// BoomText is the reply to a dig that hit a bomb.
const BoomText = "BOOM!" + LineEnd

// Welcome returns the greeting sent as soon as a player connects.
func Welcome(width, height int, players int64) string {
	return fmt.Sprintf("Welcome to Minesweeper. Board: %d columns by %d rows. "+
		"Players: %d including you. Type 'help' for help.%s",
		width, height, players, LineEnd)
}

// ── Commands ─────────────────────────────────────────────────────────

// Verb identifies a command.
type Verb int

const (
	Look Verb = iota
	Help
	Bye
	Dig
	Flag
	Deflag
)

var verbNames = map[string]Verb{
	"look":   Look,
	"help":   Help,
	"bye":    Bye,
	"dig":    Dig,
	"flag":   Flag,
	"deflag": Deflag,
}

var verbWords = [...]string{"look", "help", "bye", "dig", "flag", "deflag"}

func (v Verb) String() string {
	if v < 0 || int(v) >= len(verbWords) {
		return "unknown"
	}
	return verbWords[v]
}

// Command is one parsed client line.  X and Y are only set for dig,
// flag and deflag.
type Command struct {
	Verb Verb
	X, Y int
}

func (c Command) String() string {
	switch c.Verb {
	case Dig, Flag, Deflag:
		return fmt.Sprintf("%s %d %d", c.Verb, c.X, c.Y)
	default:
		return c.Verb.String()
	}
}

// commandRe matches a whole line: a bare verb, or a coordinate verb
// followed by two signed decimal integers, single-space separated.
var commandRe = regexp.MustCompile(`^(?:(look|help|bye)|(dig|flag|deflag) (-?[0-9]+) (-?[0-9]+))$`)

// Parse turns a line (without its terminator) into a Command.  It
// reports false for anything outside the grammar, including
// coordinates that overflow an int.
func Parse(line string) (Command, bool) {
	m := commandRe.FindStringSubmatch(line)
	if m == nil {
		return Command{}, false
	}
	if m[1] != "" {
		return Command{Verb: verbNames[m[1]]}, true
	}
	x, err := strconv.Atoi(m[3])
	if err != nil {
		return Command{}, false
	}
	y, err := strconv.Atoi(m[4])
	if err != nil {
		return Command{}, false
	}
	return Command{Verb: verbNames[m[2]], X: x, Y: y}, true
}

// ── Execution ────────────────────────────────────────────────────────

// Board is the part of the game board the protocol drives.
type Board interface {
	Dig(x, y int) board.Outcome
	Flag(x, y int) bool
	Deflag(x, y int) bool
	Render() string
}

// Response is the outcome of one command.
type Response struct {
	Text      string // sent to the client verbatim; empty for bye
	Terminate bool   // the client said bye
	Exploded  bool   // a dig hit a bomb
}

// Execute applies cmd to b.  Out-of-range or inapplicable coordinates
// are the board's business: they leave it untouched and the reply is
// still the current render.
func Execute(b Board, cmd Command) Response {
	switch cmd.Verb {
	case Look:
		return Response{Text: b.Render()}
	case Help:
		return Response{Text: HelpText}
	case Bye:
		return Response{Terminate: true}
	case Dig:
		if b.Dig(cmd.X, cmd.Y) == board.Exploded {
			return Response{Text: BoomText, Exploded: true}
		}
		return Response{Text: b.Render()}
	case Flag:
		b.Flag(cmd.X, cmd.Y)
		return Response{Text: b.Render()}
	case Deflag:
		b.Deflag(cmd.X, cmd.Y)
		return Response{Text: b.Render()}
	default:
		return Response{Text: HelpText}
	}
}

// Handle parses line and executes it; unparseable input gets the help
// text.
func Handle(b Board, line string) (Command, Response, bool) {
	cmd, ok := Parse(line)
	if !ok {
		return Command{}, Response{Text: HelpText}, false
	}
	return cmd, Execute(b, cmd), true
}
