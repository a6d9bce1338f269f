package board

// Side represents NONE, WHITE or BLACK — a player, or the absence of one.
type Side uint8

const (
	NONE Side = iota
	WHITE
	BLACK
)

// Other returns the opposite side. Undefined for NONE.
func (c Side) Other() Side {
	return c ^ 3
}

// String returns the side name.
func (c Side) String() string {
	switch c {
	case WHITE:
		return "WHITE"
	case BLACK:
		return "BLACK"
	default:
		return "NONE"
	}
}

// PieceType represents the type of a chess piece, EMPTY standing for none.
type PieceType uint8

const (
	EMPTY PieceType = iota
	PAWN
	KNIGHT
	BISHOP
	ROOK
	QUEEN
	KING
)

// String returns the piece type name.
func (pt PieceType) String() string {
	switch pt {
	case PAWN:
		return "PAWN"
	case KNIGHT:
		return "KNIGHT"
	case BISHOP:
		return "BISHOP"
	case ROOK:
		return "ROOK"
	case QUEEN:
		return "QUEEN"
	case KING:
		return "KING"
	default:
		return "EMPTY"
	}
}

// Char returns the FEN character for the piece type (lowercase).
func (pt PieceType) Char() byte {
	chars := []byte{' ', 'p', 'n', 'b', 'r', 'q', 'k'}
	if int(pt) >= len(chars) {
		return ' '
	}
	return chars[pt]
}

// PieceValue returns the material value of the piece type in centipawns, indexed by PieceType.
var PieceValue = [7]int{0, 100, 320, 330, 500, 900, 20000}

// Piece combines PieceType and Side into a single value.
// Encoded as: (pieceType-1) + (side-1)*6; NoPiece is 12, the first value past the twelve pieces.
type Piece uint8

const (
	WhitePawn   Piece = Piece(PAWN-1) + Piece(WHITE-1)*6
	WhiteKnight Piece = Piece(KNIGHT-1) + Piece(WHITE-1)*6
	WhiteBishop Piece = Piece(BISHOP-1) + Piece(WHITE-1)*6
	WhiteRook   Piece = Piece(ROOK-1) + Piece(WHITE-1)*6
	WhiteQueen  Piece = Piece(QUEEN-1) + Piece(WHITE-1)*6
	WhiteKing   Piece = Piece(KING-1) + Piece(WHITE-1)*6
	BlackPawn   Piece = Piece(PAWN-1) + Piece(BLACK-1)*6
	BlackKnight Piece = Piece(KNIGHT-1) + Piece(BLACK-1)*6
	BlackBishop Piece = Piece(BISHOP-1) + Piece(BLACK-1)*6
	BlackRook   Piece = Piece(ROOK-1) + Piece(BLACK-1)*6
	BlackQueen  Piece = Piece(QUEEN-1) + Piece(BLACK-1)*6
	BlackKing   Piece = Piece(KING-1) + Piece(BLACK-1)*6
	NoPiece     Piece = 12
)

// NewPiece creates a Piece from PieceType and Side.
func NewPiece(pt PieceType, c Side) Piece {
	if pt == EMPTY || c == NONE {
		return NoPiece
	}
	return Piece(pt-1) + Piece(c-1)*6
}

// Type returns the PieceType of the piece.
func (p Piece) Type() PieceType {
	if p >= NoPiece {
		return EMPTY
	}
	return PieceType(p%6) + 1
}

// Side returns the Side of the piece.
func (p Piece) Side() Side {
	if p >= NoPiece {
		return NONE
	}
	return Side(p/6) + 1
}

// String returns the FEN character for the piece.
// Uppercase for white, lowercase for black.
func (p Piece) String() string {
	if p >= NoPiece {
		return " "
	}
	chars := "PNBRQKpnbrqk"
	return string(chars[p])
}

// PieceFromChar converts a FEN character to a Piece.
func PieceFromChar(c byte) Piece {
	switch c {
	case 'P':
		return WhitePawn
	case 'N':
		return WhiteKnight
	case 'B':
		return WhiteBishop
	case 'R':
		return WhiteRook
	case 'Q':
		return WhiteQueen
	case 'K':
		return WhiteKing
	case 'p':
		return BlackPawn
	case 'n':
		return BlackKnight
	case 'b':
		return BlackBishop
	case 'r':
		return BlackRook
	case 'q':
		return BlackQueen
	case 'k':
		return BlackKing
	default:
		return NoPiece
	}
}

// Value returns the material value of the piece in centipawns.
func (p Piece) Value() int {
	return PieceValue[p.Type()]
}
