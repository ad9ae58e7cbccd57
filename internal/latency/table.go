package latency

import (
	"fmt"
	"slices"
	"strings"
)

// Token is one annotation event recorded in a latency table cell.
type Token uint8

const (
	Release Token = iota + 1
	Deadline
	Executing
	Complete
)

var tokenNames = map[Token]string{
	Release:   "release",
	Deadline:  "deadline",
	Executing: "executing",
	Complete:  "complete",
}

var tokenSymbols = map[Token]string{
	Release:   "R",
	Deadline:  "D",
	Executing: "X",
	Complete:  "C",
}

func (t Token) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("token(%d)", uint8(t))
}

// Symbol returns the single-letter rendering of the token.
func (t Token) Symbol() string {
	return tokenSymbols[t]
}

// MarshalText renders the token by name.
func (t Token) MarshalText() ([]byte, error) {
	if _, ok := tokenNames[t]; !ok {
		return nil, fmt.Errorf("unknown token %d", uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText parses a token name or symbol.
func (t *Token) UnmarshalText(data []byte) error {
	tok, err := ParseToken(string(data))
	if err != nil {
		return err
	}
	*t = tok
	return nil
}

// ParseToken accepts a token name or its symbol, case-insensitively.
func ParseToken(s string) (Token, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for tok, name := range tokenNames {
		if s == name || s == strings.ToLower(tokenSymbols[tok]) {
			return tok, nil
		}
	}
	return 0, fmt.Errorf("unknown token %q", s)
}

// Cell is an ordered, duplicate-free set of tokens.
type Cell struct {
	tokens []Token
}

// add appends tok unless the cell already carries it.
func (c *Cell) add(tok Token) bool {
	if c.Has(tok) {
		return false
	}
	c.tokens = append(c.tokens, tok)
	return true
}

// Has reports whether the cell carries tok.
func (c Cell) Has(tok Token) bool {
	return slices.Contains(c.tokens, tok)
}

// Tokens returns the tokens in the order they were recorded.
func (c Cell) Tokens() []Token {
	return slices.Clone(c.tokens)
}

// String renders the cell as concatenated symbols, e.g. "RX".
func (c Cell) String() string {
	var b strings.Builder
	for _, tok := range c.tokens {
		b.WriteString(tok.Symbol())
	}
	return b.String()
}

// Table is the flows x slots annotation grid.
type Table struct {
	flows []string
	index map[string]int
	cells [][]Cell
}

func newTable(flows []string, slots int) *Table {
	t := &Table{
		flows: slices.Clone(flows),
		index: make(map[string]int, len(flows)),
		cells: make([][]Cell, len(flows)),
	}
	for i, f := range flows {
		t.index[f] = i
		t.cells[i] = make([]Cell, slots)
	}
	return t
}

// mark records tok at (row, slot). Out-of-range coordinates are ignored.
func (t *Table) mark(row, slot int, tok Token) {
	if row < 0 || row >= len(t.cells) || slot < 0 || slot >= len(t.cells[row]) {
		return
	}
	t.cells[row][slot].add(tok)
}

// Flows returns the row labels in priority order.
func (t *Table) Flows() []string {
	return slices.Clone(t.flows)
}

// Slots returns the number of columns.
func (t *Table) Slots() int {
	if len(t.cells) == 0 {
		return 0
	}
	return len(t.cells[0])
}

// Cell returns the cell of flow at slot.
func (t *Table) Cell(flow string, slot int) (Cell, bool) {
	row, ok := t.index[flow]
	if !ok || slot < 0 || slot >= len(t.cells[row]) {
		return Cell{}, false
	}
	return Cell{tokens: t.cells[row][slot].Tokens()}, true
}

// Has reports whether flow carries tok at slot.
func (t *Table) Has(flow string, slot int, tok Token) bool {
	c, ok := t.Cell(flow, slot)
	return ok && c.Has(tok)
}

// SlotsWith returns the slots where flow carries tok, ascending.
func (t *Table) SlotsWith(flow string, tok Token) []int {
	row, ok := t.index[flow]
	if !ok {
		return nil
	}
	var out []int
	for slot, c := range t.cells[row] {
		if c.Has(tok) {
			out = append(out, slot)
		}
	}
	return out
}

// Strings renders every cell; rows follow Flows().
func (t *Table) Strings() [][]string {
	out := make([][]string, len(t.cells))
	for i, row := range t.cells {
		out[i] = make([]string, len(row))
		for j, c := range row {
			out[i][j] = c.String()
		}
	}
	return out
}
