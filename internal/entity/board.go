package entity

// BoardSize is the fixed width and height of the board.
const BoardSize = 3

// Cell is the occupancy of a single square. A non-empty cell holds the player's mark.
type Cell string

const (
	EmptyCell Cell = ""
	PlayerX   Cell = "X"
	PlayerO   Cell = "O"
)

// IsPlayer reports whether the cell is one of the two player marks.
func (c Cell) IsPlayer() bool {
	return c == PlayerX || c == PlayerO
}

// Opponent returns the other player's mark.
func (c Cell) Opponent() Cell {
	switch c {
	case PlayerX:
		return PlayerO
	case PlayerO:
		return PlayerX
	default:
		return EmptyCell
	}
}

// Number returns the player number shown to users: 1 for X, 2 for O.
func (c Cell) Number() int {
	switch c {
	case PlayerX:
		return 1
	case PlayerO:
		return 2
	default:
		return 0
	}
}

type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (that Position) InBounds() bool {
	return that.Row >= 0 && that.Row < BoardSize && that.Col >= 0 && that.Col < BoardSize
}

// Line is one of the eight triples of cells that wins the game.
type Line [BoardSize]Position

func (that Line) Contains(pos Position) bool {
	for _, p := range that {
		if p == pos {
			return true
		}
	}
	return false
}

// Board is addressed as Board[row][col].
type Board [BoardSize][BoardSize]Cell

func (that Board) At(pos Position) Cell {
	return that[pos.Row][pos.Col]
}

// EmptyCells returns the free positions in row-major order.
func (that Board) EmptyCells() []Position {
	cells := make([]Position, 0, BoardSize*BoardSize)
	for row := range BoardSize {
		for col := range BoardSize {
			if that[row][col] == EmptyCell {
				cells = append(cells, Position{Row: row, Col: col})
			}
		}
	}
	return cells
}

func (that Board) IsFull() bool {
	for _, row := range that {
		for _, cell := range row {
			if cell == EmptyCell {
				return false
			}
		}
	}
	return true
}
