package board

import "fmt"

// MoveKind distinguishes the handful of move shapes that need special
// handling in MakeMove/UnmakeMove beyond a plain from-to displacement.
type MoveKind uint8

const (
	NORMAL MoveKind = iota
	CASTLING
	EN_PASSANT
	NULL_MOVE
)

// Move describes a single chess move. Promotion coexists with NORMAL kind
// rather than being its own MoveKind, matching the data model of the
// position it's played against: a promoting pawn push or capture is still a
// NORMAL move, just one that also sets Promotion.
//
// Captured, PriorCastling and PriorEnPassant are not filled in by the move
// generator or the constructors below; they stay at their zero values
// unless set through WithUndo. UnmakeMove does not read them: it restores
// state from the UndoInfo that MakeMove returns.
type Move struct {
	from           Square
	to             Square
	promotion      PieceType
	kind           MoveKind
	Captured       PieceType
	PriorCastling  CastlingRights
	PriorEnPassant Square
}

// NoMove represents an invalid or null move.
var NoMove = Move{}

// NewMove creates a normal move.
func NewMove(from, to Square) Move {
	return Move{from: from, to: to, kind: NORMAL}
}

// NewPromotion creates a promotion move.
func NewPromotion(from, to Square, promo PieceType) Move {
	return Move{from: from, to: to, promotion: promo, kind: NORMAL}
}

// NewEnPassant creates an en passant capture move.
func NewEnPassant(from, to Square) Move {
	return Move{from: from, to: to, kind: EN_PASSANT}
}

// NewCastling creates a castling move (king's movement).
func NewCastling(from, to Square) Move {
	return Move{from: from, to: to, kind: CASTLING}
}

// NewNullMove creates the pass-the-turn move used by null-move pruning.
func NewNullMove() Move {
	return Move{kind: NULL_MOVE}
}

// From returns the origin square.
func (m Move) From() Square {
	return m.from
}

// To returns the destination square.
func (m Move) To() Square {
	return m.to
}

// Kind returns the move's MoveKind.
func (m Move) Kind() MoveKind {
	return m.kind
}

// Promotion returns the promotion piece type, or EMPTY if this is not a
// promotion.
func (m Move) Promotion() PieceType {
	return m.promotion
}

// IsPromotion returns true if this is a promotion move.
func (m Move) IsPromotion() bool {
	return m.promotion != EMPTY
}

// IsCastling returns true if this is a castling move.
func (m Move) IsCastling() bool {
	return m.kind == CASTLING
}

// IsEnPassant returns true if this is an en passant capture.
func (m Move) IsEnPassant() bool {
	return m.kind == EN_PASSANT
}

// IsNullMove returns true if this is a null move.
func (m Move) IsNullMove() bool {
	return m.kind == NULL_MOVE
}

// WithUndo returns a copy of m carrying the undo snapshot spec.md's Move
// record calls for (captured piece type, prior castling rights, prior
// en-passant square). Position.MakeMove already restores state via
// UndoInfo without needing this; WithUndo lets a caller attach that context
// to a Move it hands around after the position has moved on, for example
// before printing it with debugutil.FormatMove.
func (m Move) WithUndo(captured PieceType, priorCastling CastlingRights, priorEnPassant Square) Move {
	m.Captured = captured
	m.PriorCastling = priorCastling
	m.PriorEnPassant = priorEnPassant
	return m
}

// IsCapture returns true if this move captures a piece.
func (m Move) IsCapture(pos *Position) bool {
	if m.IsEnPassant() {
		return true
	}
	return !pos.IsEmpty(m.to)
}

// IsQuiet returns true if this is not a capture or promotion.
func (m Move) IsQuiet(pos *Position) bool {
	return !m.IsCapture(pos) && !m.IsPromotion()
}

// String returns the UCI format of the move (e.g., "e2e4", "e7e8q").
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}

	s := m.from.String() + m.to.String()

	if m.IsPromotion() {
		s += string(m.promotion.Char())
	}

	return s
}

// ParseMove parses a UCI format move string.
func ParseMove(s string, pos *Position) (Move, error) {
	if len(s) < 4 {
		return NoMove, fmt.Errorf("invalid move string: %s", s)
	}

	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, err
	}

	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, err
	}

	// Check for promotion
	if len(s) == 5 {
		var promo PieceType
		switch s[4] {
		case 'n':
			promo = KNIGHT
		case 'b':
			promo = BISHOP
		case 'r':
			promo = ROOK
		case 'q':
			promo = QUEEN
		default:
			return NoMove, fmt.Errorf("invalid promotion piece: %c", s[4])
		}
		return NewPromotion(from, to, promo), nil
	}

	// Detect special moves
	piece := pos.PieceAt(from)
	if piece == NoPiece {
		return NoMove, fmt.Errorf("no piece at %s", from)
	}

	pt := piece.Type()

	// Castling
	if pt == KING && abs(int(to)-int(from)) == 2 {
		return NewCastling(from, to), nil
	}

	// En passant
	if pt == PAWN && to == pos.EnPassant {
		return NewEnPassant(from, to), nil
	}

	return NewMove(from, to), nil
}

// MoveList is a fixed-size list of moves to avoid allocations.
type MoveList struct {
	moves [256]Move
	count int
}

// NewMoveList creates an empty move list.
func NewMoveList() *MoveList {
	return &MoveList{}
}

// Add adds a move to the list.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

// Len returns the number of moves in the list.
func (ml *MoveList) Len() int {
	return ml.count
}

// Get returns the move at index i.
func (ml *MoveList) Get(i int) Move {
	return ml.moves[i]
}

// Set sets the move at index i.
func (ml *MoveList) Set(i int, m Move) {
	ml.moves[i] = m
}

// Swap swaps two moves in the list.
func (ml *MoveList) Swap(i, j int) {
	ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i]
}

// Clear clears the list.
func (ml *MoveList) Clear() {
	ml.count = 0
}

// Contains returns true if the list contains the move.
func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}

// Slice returns the moves as a slice.
func (ml *MoveList) Slice() []Move {
	return ml.moves[:ml.count]
}

// UndoInfo stores information needed to undo a move.
type UndoInfo struct {
	CapturedPiece  Piece
	CastlingRights CastlingRights
	EnPassant      Square
	HalfMoveClock  int
	Hash           uint64
	PawnKey        uint64
	Checkers       Bitboard
	PriorHasCastled bool
	KingSquare     [3]Square      // King positions before move
	Pieces         [3][7]Bitboard // Full piece bitboards for reliable restoration
	Occupied       [3]Bitboard    // Occupancy bitboards
	AllOccupied    Bitboard       // All pieces
	Valid          bool           // True if move was actually applied
}
