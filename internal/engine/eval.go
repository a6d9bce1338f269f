// Package engine implements the chess search engine: static evaluation,
// move ordering, iterative deepening and the worker pool driving Calculate.
package engine

import (
	"fmt"
	"log"

	"github.com/corvid-labs/ashbourne/internal/board"
)

// SCORE_DRAW is returned by Evaluate when neither side has enough material
// to force checkmate.
const SCORE_DRAW = 0

// defaultEvaluator backs the package-level Evaluate/EvaluateMaterial/
// EvaluateWithPawnTable helpers the search side calls into. Evaluator is
// stateless, so sharing one instance across concurrently running workers is
// safe.
var defaultEvaluator = NewEvaluator()

// Evaluate scores pos from the side-to-move's perspective using the default
// weight pack. It's the entry point search and worker code call on every
// leaf; callers needing a tuned EvalParams pack should use Evaluator
// directly. An InvalidPieceType means the position itself is corrupted, so
// per spec §4.1/§7 this is fatal rather than scored as a draw: there is no
// sound way to keep searching a tree rooted at a position the evaluator
// cannot read.
func Evaluate(pos *board.Position) int {
	score, err := defaultEvaluator.Evaluate(pos, EvaluateMaterial(pos))
	if err != nil {
		log.Fatalf("engine: fatal invariant violation: %v", err)
	}
	return score
}

// EvaluateMaterial returns the material balance oriented to pos's side to
// move (positive favors the side to move), the shape Evaluate's material
// argument expects.
func EvaluateMaterial(pos *board.Position) int {
	material := pos.Material()
	if pos.SideToMove == board.BLACK {
		material = -material
	}
	return material
}

// EvaluateBreakdown is the package-level counterpart to Evaluate: it returns
// the per-feature breakdown instead of only the total score. Fatal on
// InvalidPieceType, same as Evaluate.
func EvaluateBreakdown(pos *board.Position) EvalResult {
	r, err := defaultEvaluator.EvaluateBreakdown(pos, EvaluateMaterial(pos))
	if err != nil {
		log.Fatalf("engine: fatal invariant violation: %v", err)
	}
	return r
}

// EvaluateWithPawnTable behaves like Evaluate. pawnTable is accepted so
// worker code keeps its per-thread pawn cache call site; the classical
// evaluator recomputes pawn-structure features with a handful of bitboard
// scans per call, cheap enough that nothing needs to flow through the cache.
func EvaluateWithPawnTable(pos *board.Position, pawnTable *PawnTable) int {
	return Evaluate(pos)
}

// InvalidPieceType is returned when Evaluate walks an occupied square whose
// piece type resolves to EMPTY — a corrupted position. The search treats
// this as fatal.
type InvalidPieceType struct {
	Square board.Square
}

func (e *InvalidPieceType) Error() string {
	return fmt.Sprintf("engine: square %s is occupied but has no piece type", e.Square)
}

// Weight is a feature's contribution curve as a function of the number of
// non-king pieces remaining on the board — the game-phase interpolation
// knob described for every evaluator feature.
type Weight func(numPieces float64) float64

// Taper returns a Weight that linearly interpolates between an opening
// value (full board, numPieces near 30) and an ending value (numPieces
// near 2), clamping outside that range. Most EvalParams weights are built
// this way; the bishop-pair and rook-pair bonuses use Constant instead
// because their value doesn't meaningfully taper.
func Taper(openingValue, endingValue float64) Weight {
	const openingPieces, endingPieces = 30.0, 2.0
	return func(numPieces float64) float64 {
		t := (numPieces - endingPieces) / (openingPieces - endingPieces)
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
		return endingValue + t*(openingValue-endingValue)
	}
}

// Constant returns a Weight that ignores numPieces.
func Constant(value float64) Weight {
	return func(float64) float64 { return value }
}

// EvalParams is the tunable weight pack the evaluator multiplies every
// accumulated feature by. Indexed slices are by board.PieceType (index 0,
// EMPTY, is unused but kept so callers can index directly by piece type).
type EvalParams struct {
	WeightOpeningPosition [7]Weight
	WeightEndingPosition  [7]Weight
	WeightMobility        Weight
	WeightCenterControl   Weight
	WeightSweetCenter     Weight
	WeightDevelopment     Weight
	WeightAttack          [7]Weight
	WeightAttackAroundKing Weight
	WeightPassPawn         Weight
	WeightProtectedPassPawn Weight
	WeightDoublePawn       Weight
	WeightIsoPawn          Weight
	WeightPawnShield       Weight
	WeightBishopPair       Weight
	WeightBadBishop        Weight
	WeightPinKnight        Weight
	WeightRookPair         Weight
	WeightRookSemiopenFyle Weight
	WeightRookOpenFyle     Weight
	WeightEarlyQueenLaunched Weight
	WeightWeakSquare       Weight
	WeightCastling         Weight
	WeightAbandonedCastling Weight
}

// DefaultEvalParams mirrors the weight shape of the source engine: material
// is unweighted, piece-square and mobility-like terms taper between an
// opening and an endgame value, structural one-off bonuses (bishop/rook
// pair) stay constant across phases, and castling tapers like the rest.
func DefaultEvalParams() EvalParams {
	var p EvalParams
	p.WeightOpeningPosition = [7]Weight{
		board.EMPTY:  Constant(0),
		board.PAWN:   Taper(1, 1.2),
		board.KNIGHT: Taper(1, 0.8),
		board.BISHOP: Taper(1, 0.8),
		board.ROOK:   Taper(1, 1),
		board.QUEEN:  Taper(1, 1),
		board.KING:   Taper(1, 0.3),
	}
	p.WeightEndingPosition = [7]Weight{
		board.EMPTY:  Constant(0),
		board.PAWN:   Taper(0.6, 1.4),
		board.KNIGHT: Taper(0.6, 1),
		board.BISHOP: Taper(0.6, 1),
		board.ROOK:   Taper(0.8, 1.2),
		board.QUEEN:  Taper(0.8, 1.2),
		board.KING:   Taper(0.2, 1.5),
	}
	p.WeightMobility = Taper(4, 2)
	p.WeightCenterControl = Taper(3, 1)
	p.WeightSweetCenter = Taper(5, 2)
	p.WeightDevelopment = Taper(8, 0)
	p.WeightAttack = [7]Weight{
		board.EMPTY:  Constant(0),
		board.PAWN:   Taper(4, 6),
		board.KNIGHT: Taper(8, 10),
		board.BISHOP: Taper(8, 10),
		board.ROOK:   Taper(12, 16),
		board.QUEEN:  Taper(18, 24),
		board.KING:   Taper(0, 0),
	}
	p.WeightAttackAroundKing = Taper(6, 1)
	p.WeightPassPawn = Taper(20, 70)
	p.WeightProtectedPassPawn = Taper(10, 30)
	p.WeightDoublePawn = Taper(-12, -20)
	p.WeightIsoPawn = Taper(-14, -18)
	p.WeightPawnShield = Taper(10, 1)
	p.WeightBishopPair = Constant(30)
	p.WeightBadBishop = Taper(-6, -10)
	p.WeightPinKnight = Taper(14, 10)
	p.WeightRookPair = Constant(12)
	p.WeightRookSemiopenFyle = Taper(12, 14)
	p.WeightRookOpenFyle = Taper(20, 24)
	p.WeightEarlyQueenLaunched = Taper(-12, -2)
	p.WeightWeakSquare = Taper(-4, -2)
	p.WeightCastling = Taper(20, 4)
	p.WeightAbandonedCastling = Taper(-24, -6)
	return p
}

// Precomputed static masks, initialized once by InitEvaluator.
var (
	startPosition   [3][7]board.Bitboard
	centerMask      board.Bitboard
	sweetCenterMask board.Bitboard
	passPawnMask    [3][64]board.Bitboard
	isoPawnMask     [64]board.Bitboard
	pawnShieldMask  [3][64]board.Bitboard
	weakSquareMask  [3][64]board.Bitboard
)

func init() {
	InitEvaluator()
}

// InitEvaluator computes every package-level evaluation mask. Safe to call
// more than once; exists as an explicit entry point (rather than relying on
// init-order alone) so the engine's bootstrap can sequence it deliberately.
func InitEvaluator() {
	initStartPosition()
	initCenterMasks()
	initPassPawnMask()
	initIsoPawnMask()
	initShieldAndWeakMasks()
}

func initStartPosition() {
	startPosition[board.WHITE][board.PAWN] = board.Rank2
	startPosition[board.BLACK][board.PAWN] = board.Rank7
	startPosition[board.WHITE][board.KNIGHT] = board.SquareBB(board.B1) | board.SquareBB(board.G1)
	startPosition[board.BLACK][board.KNIGHT] = board.SquareBB(board.B8) | board.SquareBB(board.G8)
	startPosition[board.WHITE][board.BISHOP] = board.SquareBB(board.C1) | board.SquareBB(board.F1)
	startPosition[board.BLACK][board.BISHOP] = board.SquareBB(board.C8) | board.SquareBB(board.F8)
	startPosition[board.WHITE][board.ROOK] = board.SquareBB(board.A1) | board.SquareBB(board.H1)
	startPosition[board.BLACK][board.ROOK] = board.SquareBB(board.A8) | board.SquareBB(board.H8)
	startPosition[board.WHITE][board.QUEEN] = board.SquareBB(board.D1)
	startPosition[board.BLACK][board.QUEEN] = board.SquareBB(board.D8)
	startPosition[board.WHITE][board.KING] = board.SquareBB(board.E1)
	startPosition[board.BLACK][board.KING] = board.SquareBB(board.E8)
}

func initCenterMasks() {
	for _, sq := range []board.Square{
		board.C3, board.D3, board.E3, board.F3,
		board.C4, board.D4, board.E4, board.F4,
		board.C5, board.D5, board.E5, board.F5,
		board.C6, board.D6, board.E6, board.F6,
	} {
		centerMask |= board.SquareBB(sq)
	}
	for _, sq := range []board.Square{board.D4, board.E4, board.D5, board.E5} {
		sweetCenterMask |= board.SquareBB(sq)
	}
}

func initPassPawnMask() {
	for sq := board.A1; sq <= board.H8; sq++ {
		file := sq.File()
		rank := sq.Rank()

		fyles := board.FileMask[file]
		if file > 0 {
			fyles |= board.FileMask[file - 1]
		}
		if file < 7 {
			fyles |= board.FileMask[file + 1]
		}

		var whiteAhead, blackAhead board.Bitboard
		for r := rank + 1; r < 8; r++ {
			whiteAhead |= board.RankMask[r]
		}
		for r := rank - 1; r >= 0; r-- {
			blackAhead |= board.RankMask[r]
		}

		passPawnMask[board.WHITE][sq] = fyles & whiteAhead
		passPawnMask[board.BLACK][sq] = fyles & blackAhead
	}
}

func initIsoPawnMask() {
	for sq := board.A1; sq <= board.H8; sq++ {
		file := sq.File()
		var m board.Bitboard
		if file > 0 {
			m |= board.FileMask[file - 1]
		}
		if file < 7 {
			m |= board.FileMask[file + 1]
		}
		isoPawnMask[sq] = m
	}
}

var (
	queensideFyles = fyleMaskUnion(0, 1, 2)
	kingsideFyles  = fyleMaskUnion(5, 6, 7)
)

func fyleMaskUnion(files ...int) board.Bitboard {
	var m board.Bitboard
	for _, f := range files {
		m |= board.FileMask[f]
	}
	return m
}

func initShieldAndWeakMasks() {
	whiteQueenside := []board.Square{board.A1, board.B1, board.C1, board.A2, board.B2, board.C2}
	whiteKingside := []board.Square{board.F1, board.G1, board.H1, board.F2, board.G2, board.H2}
	blackQueenside := []board.Square{board.A8, board.B8, board.C8, board.A7, board.B7, board.C7}
	blackKingside := []board.Square{board.F8, board.G8, board.H8, board.F7, board.G7, board.H7}

	setAll := func(squares []board.Square, side board.Side, shield, weak board.Bitboard) {
		for _, sq := range squares {
			pawnShieldMask[side][sq] = shield
			weakSquareMask[side][sq] = weak
		}
	}

	rank23 := board.RankMask[1] | board.RankMask[2]
	rank76 := board.RankMask[6] | board.RankMask[5]

	setAll(whiteQueenside, board.WHITE, queensideFyles, queensideFyles&rank23)
	setAll(whiteKingside, board.WHITE, kingsideFyles, kingsideFyles&rank23)
	setAll(blackQueenside, board.BLACK, queensideFyles, queensideFyles&rank76)
	setAll(blackKingside, board.BLACK, kingsideFyles, kingsideFyles&rank76)
}

// attackValueTable[attacker][victim] is the MVV/LVA-flavored bonus added to
// the attack feature when a piece of type attacker threatens a piece of
// type victim. EMPTY rows/columns are unused (index 0) but kept so the
// table can be indexed directly by board.PieceType.
var attackValueTable = [7][7]float64{
	board.PAWN:   {board.PAWN: 1, board.KNIGHT: 3, board.BISHOP: 3, board.ROOK: 5, board.QUEEN: 9, board.KING: 0},
	board.KNIGHT: {board.PAWN: 1, board.KNIGHT: 2, board.BISHOP: 2, board.ROOK: 4, board.QUEEN: 8, board.KING: 0},
	board.BISHOP: {board.PAWN: 1, board.KNIGHT: 2, board.BISHOP: 2, board.ROOK: 4, board.QUEEN: 8, board.KING: 0},
	board.ROOK:   {board.PAWN: 1, board.KNIGHT: 1, board.BISHOP: 1, board.ROOK: 2, board.QUEEN: 6, board.KING: 0},
	board.QUEEN:  {board.PAWN: 1, board.KNIGHT: 1, board.BISHOP: 1, board.ROOK: 1, board.QUEEN: 2, board.KING: 0},
	board.KING:   {board.PAWN: 1, board.KNIGHT: 1, board.BISHOP: 1, board.ROOK: 1, board.QUEEN: 1, board.KING: 0},
}

// openingPST/endingPST[pieceType][square] is looked up from WHITE's
// perspective; BLACK mirrors the square first. Values are small and
// symmetric about the center files — they exist to bias development and
// king safety, not to encode deep opening theory.
var openingPST, endingPST [7][64]float64

func init() {
	for sq := board.A1; sq <= board.H8; sq++ {
		file, rank := sq.File(), sq.Rank()
		centerFileBonus := 3 - abs64(file-3)
		if file >= 4 {
			centerFileBonus = 3 - abs64(file-4)
		}
		openingPST[board.KNIGHT][sq] = float64(centerFileBonus)
		openingPST[board.BISHOP][sq] = float64(centerFileBonus) / 2
		openingPST[board.QUEEN][sq] = -float64(rank) / 4
		openingPST[board.KING][sq] = -float64(centerFileBonus)
		endingPST[board.KING][sq] = float64(centerFileBonus)
		openingPST[board.PAWN][sq] = float64(rank) / 4
		endingPST[board.PAWN][sq] = float64(rank)
	}
}

func abs64(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Evaluator scores a position from the side-to-move's perspective. It is
// stateless: every call to Evaluate allocates its feature accumulators on
// the stack, so one Evaluator is safely reused (and shared) across search
// threads.
type Evaluator struct {
	Params EvalParams
}

// NewEvaluator builds an Evaluator with the default weight pack.
func NewEvaluator() *Evaluator {
	return &Evaluator{Params: DefaultEvalParams()}
}

// EvalResult is the per-feature breakdown the shell can request for
// debugging/analysis.
type EvalResult struct {
	Total    int
	Material int

	OpeningPosition float64
	EndingPosition  float64
	Mobility        float64
	CenterControl   float64
	SweetCenter     float64
	Development     float64
	Attack          float64
	AttackAroundKing float64
	PassPawn         float64
	ProtectedPassPawn float64
	DoublePawn        float64
	IsoPawn           float64
	PawnShield        float64
	BishopPair        float64
	BadBishop         float64
	PinKnight         float64
	RookPair          float64
	RookSemiopenFyle  float64
	RookOpenFyle      float64
	EarlyQueenLaunched float64
	WeakSquare         float64
	Castling           float64
	AbandonedCastling  float64
}

// HasEnoughPieces reports whether side has mating material: any pawn, rook
// or queen; or >=2 bishops; or >=2 knights; or >=2 minor pieces total.
func HasEnoughPieces(pos *board.Position, side board.Side) bool {
	if pos.Pieces[side][board.PAWN] != 0 ||
		pos.Pieces[side][board.ROOK] != 0 ||
		pos.Pieces[side][board.QUEEN] != 0 {
		return true
	}
	knights := pos.Pieces[side][board.KNIGHT].PopCount()
	bishops := pos.Pieces[side][board.BISHOP].PopCount()
	return bishops >= 2 || knights >= 2 || knights+bishops >= 2
}

// Evaluate scores pos from the perspective of its side to move, given a
// precomputed material score already oriented to that perspective (positive
// favors the side to move — callers typically pass pos.Material() negated
// when SideToMove is BLACK).
func (e *Evaluator) Evaluate(pos *board.Position, material int) (int, error) {
	us := pos.SideToMove
	them := us.Other()

	if !HasEnoughPieces(pos, us) && !HasEnoughPieces(pos, them) {
		return SCORE_DRAW, nil
	}

	acc, numPieces, err := e.accumulateAll(pos)
	if err != nil {
		return 0, err
	}

	score := float64(material)
	p := e.Params
	for pt := board.PAWN; pt <= board.KING; pt++ {
		score += p.WeightOpeningPosition[pt](numPieces) * acc.openingPosition[pt]
		score += p.WeightEndingPosition[pt](numPieces) * acc.endingPosition[pt]
		score += p.WeightAttack[pt](numPieces) * acc.attack[pt]
	}
	score += p.WeightMobility(numPieces) * acc.mobility
	score += p.WeightCenterControl(numPieces) * acc.centerControl
	score += p.WeightSweetCenter(numPieces) * acc.sweetCenter
	score += p.WeightDevelopment(numPieces) * acc.development
	score += p.WeightAttackAroundKing(numPieces) * acc.attackAroundKing
	score += p.WeightPassPawn(numPieces) * acc.passPawn
	score += p.WeightProtectedPassPawn(numPieces) * acc.protectedPassPawn
	score += p.WeightDoublePawn(numPieces) * acc.doublePawn
	score += p.WeightIsoPawn(numPieces) * acc.isoPawn
	score += p.WeightPawnShield(numPieces) * acc.pawnShield
	score += p.WeightBishopPair(numPieces) * acc.bishopPair
	score += p.WeightBadBishop(numPieces) * acc.badBishop
	score += p.WeightPinKnight(numPieces) * acc.pinKnight
	score += p.WeightRookPair(numPieces) * acc.rookPair
	score += p.WeightRookSemiopenFyle(numPieces) * acc.rookSemiopenFyle
	score += p.WeightRookOpenFyle(numPieces) * acc.rookOpenFyle
	score += p.WeightEarlyQueenLaunched(numPieces) * acc.earlyQueenLaunched
	score += p.WeightWeakSquare(numPieces) * acc.weakSquare
	score += p.WeightCastling(numPieces) * acc.castling
	score += p.WeightAbandonedCastling(numPieces) * acc.abandonedCastling

	return int(score), nil
}

// EvaluateBreakdown scores pos exactly as Evaluate does, but returns the
// per-feature weighted contributions instead of only the total — the data
// model spec §3 names as "the per-feature breakdown the shell can request
// for debugging/analysis." Backs the UCI "eval" debug command.
func (e *Evaluator) EvaluateBreakdown(pos *board.Position, material int) (EvalResult, error) {
	us := pos.SideToMove
	if !HasEnoughPieces(pos, us) && !HasEnoughPieces(pos, us.Other()) {
		return EvalResult{Total: SCORE_DRAW, Material: material}, nil
	}

	acc, numPieces, err := e.accumulateAll(pos)
	if err != nil {
		return EvalResult{}, err
	}

	p := e.Params
	var r EvalResult
	r.Material = material
	for pt := board.PAWN; pt <= board.KING; pt++ {
		r.OpeningPosition += p.WeightOpeningPosition[pt](numPieces) * acc.openingPosition[pt]
		r.EndingPosition += p.WeightEndingPosition[pt](numPieces) * acc.endingPosition[pt]
		r.Attack += p.WeightAttack[pt](numPieces) * acc.attack[pt]
	}
	r.Mobility = p.WeightMobility(numPieces) * acc.mobility
	r.CenterControl = p.WeightCenterControl(numPieces) * acc.centerControl
	r.SweetCenter = p.WeightSweetCenter(numPieces) * acc.sweetCenter
	r.Development = p.WeightDevelopment(numPieces) * acc.development
	r.AttackAroundKing = p.WeightAttackAroundKing(numPieces) * acc.attackAroundKing
	r.PassPawn = p.WeightPassPawn(numPieces) * acc.passPawn
	r.ProtectedPassPawn = p.WeightProtectedPassPawn(numPieces) * acc.protectedPassPawn
	r.DoublePawn = p.WeightDoublePawn(numPieces) * acc.doublePawn
	r.IsoPawn = p.WeightIsoPawn(numPieces) * acc.isoPawn
	r.PawnShield = p.WeightPawnShield(numPieces) * acc.pawnShield
	r.BishopPair = p.WeightBishopPair(numPieces) * acc.bishopPair
	r.BadBishop = p.WeightBadBishop(numPieces) * acc.badBishop
	r.PinKnight = p.WeightPinKnight(numPieces) * acc.pinKnight
	r.RookPair = p.WeightRookPair(numPieces) * acc.rookPair
	r.RookSemiopenFyle = p.WeightRookSemiopenFyle(numPieces) * acc.rookSemiopenFyle
	r.RookOpenFyle = p.WeightRookOpenFyle(numPieces) * acc.rookOpenFyle
	r.EarlyQueenLaunched = p.WeightEarlyQueenLaunched(numPieces) * acc.earlyQueenLaunched
	r.WeakSquare = p.WeightWeakSquare(numPieces) * acc.weakSquare
	r.Castling = p.WeightCastling(numPieces) * acc.castling
	r.AbandonedCastling = p.WeightAbandonedCastling(numPieces) * acc.abandonedCastling

	total := float64(material) + r.OpeningPosition + r.EndingPosition + r.Mobility +
		r.CenterControl + r.SweetCenter + r.Development + r.Attack + r.AttackAroundKing +
		r.PassPawn + r.ProtectedPassPawn + r.DoublePawn + r.IsoPawn + r.PawnShield +
		r.BishopPair + r.BadBishop + r.PinKnight + r.RookPair + r.RookSemiopenFyle +
		r.RookOpenFyle + r.EarlyQueenLaunched + r.WeakSquare + r.Castling + r.AbandonedCastling
	r.Total = int(total)

	return r, nil
}

// accumulateAll walks every occupied square and folds its feature
// contributions into acc, returning the game-phase knob (numPieces) both
// Evaluate and EvaluateBreakdown weight features against.
func (e *Evaluator) accumulateAll(pos *board.Position) (accumulators, float64, error) {
	us := pos.SideToMove
	them := us.Other()

	var acc accumulators

	if pos.Pieces[us][board.BISHOP].PopCount() >= 2 {
		acc.bishopPair += 1
	}
	if pos.Pieces[them][board.BISHOP].PopCount() >= 2 {
		acc.bishopPair -= 1
	}
	if pos.Pieces[us][board.ROOK].PopCount() >= 2 {
		acc.rookPair += 1
	}
	if pos.Pieces[them][board.ROOK].PopCount() >= 2 {
		acc.rookPair -= 1
	}

	all := pos.AllOccupied
	for bb := all; bb != 0; bb &= bb - 1 {
		sq := bb.LSB()
		sqBB := board.SquareBB(sq)
		pieceSide := us
		if pos.Occupied[them]&sqBB != 0 {
			pieceSide = them
		}
		pt := pos.PieceAt(sq).Type()
		if pt == board.EMPTY {
			return accumulators{}, 0, &InvalidPieceType{Square: sq}
		}
		sign := 1.0
		if pieceSide != us {
			sign = -1.0
		}
		e.accumulate(pos, &acc, sq, pt, pieceSide, sign)
	}

	if pos.HasCastled[us] {
		acc.castling += 1
	} else if pos.HasCastled[them] {
		acc.castling -= 1
	}
	if !pos.HasCastled[us] && !pos.CastlingRights.CanCastle(us, true) && !pos.CastlingRights.CanCastle(us, false) {
		acc.abandonedCastling += 1
	}
	if !pos.HasCastled[them] && !pos.CastlingRights.CanCastle(them, true) && !pos.CastlingRights.CanCastle(them, false) {
		acc.abandonedCastling -= 1
	}

	numKings := 2.0
	numPieces := float64(all.PopCount()) - numKings

	return acc, numPieces, nil
}

// accumulators holds every feature's running total for one Evaluate call.
// Stack-local per call rather than durable Evaluator state, per the
// reentrancy note carried over from the evaluator this was distilled from.
type accumulators struct {
	openingPosition [7]float64
	endingPosition  [7]float64
	mobility        float64
	centerControl   float64
	sweetCenter     float64
	development     float64
	attack          [7]float64
	attackAroundKing float64
	passPawn          float64
	protectedPassPawn float64
	doublePawn        float64
	isoPawn           float64
	pawnShield        float64
	bishopPair        float64
	badBishop         float64
	pinKnight         float64
	rookPair          float64
	rookSemiopenFyle  float64
	rookOpenFyle      float64
	earlyQueenLaunched float64
	weakSquare         float64
	castling           float64
	abandonedCastling  float64
}

// accumulate folds the single piece at sq (of type pt, side pieceSide) into
// acc, signed +1 if pieceSide is the evaluating side-to-move or -1 if it's
// the opponent.
func (e *Evaluator) accumulate(pos *board.Position, acc *accumulators, sq board.Square, pt board.PieceType, pieceSide board.Side, sign float64) {
	pstSq := sq
	if pieceSide == board.BLACK {
		pstSq = sq.Mirror()
	}
	acc.openingPosition[pt] += sign * openingPST[pt][pstSq]
	acc.endingPosition[pt] += sign * endingPST[pt][pstSq]

	occ := pos.AllOccupied
	friendly := pos.Occupied[pieceSide]
	enemySide := pieceSide.Other()
	enemy := pos.Occupied[enemySide]

	var attacks board.Bitboard
	switch pt {
	case board.KNIGHT:
		attacks = board.KnightAttacks(sq)
	case board.BISHOP:
		attacks = board.BishopAttacks(sq, occ)
	case board.ROOK:
		attacks = board.RookAttacks(sq, occ)
	case board.QUEEN:
		attacks = board.QueenAttacks(sq, occ)
	case board.KING:
		attacks = board.KingAttacks(sq)
	case board.PAWN:
		attacks = board.PawnAttacks(sq, pieceSide)
	}

	if pt != board.PAWN && pt != board.KING {
		acc.mobility += sign * float64((attacks &^ friendly).PopCount())
	}
	if pt != board.KING {
		acc.centerControl += sign * float64((attacks & centerMask).PopCount())
		acc.sweetCenter += sign * float64((attacks & sweetCenterMask).PopCount())
	}

	if pt == board.KNIGHT || pt == board.BISHOP {
		if startPosition[pieceSide][pt]&board.SquareBB(sq) == 0 {
			acc.development += sign
		}
	}

	for victims := attacks & enemy; victims != 0; victims &= victims - 1 {
		vsq := victims.LSB()
		victimPt := pos.PieceAt(vsq).Type()
		acc.attack[pt] += sign * attackValueTable[pt][victimPt]
	}
	if pt == board.PAWN && pos.EnPassant != board.NoSquare && attacks&board.SquareBB(pos.EnPassant) != 0 {
		acc.attack[board.PAWN] += sign * attackValueTable[board.PAWN][board.PAWN]
	}

	if pt != board.KING {
		enemyKingSq := pos.KingSquare[enemySide]
		acc.attackAroundKing += sign * float64((attacks & board.KingAttacks(enemyKingSq)).PopCount())
	}

	if pt == board.PAWN {
		e.accumulatePawn(pos, acc, sq, pieceSide, sign)
	}

	if pt == board.BISHOP {
		friendlyPawns := pos.Pieces[pieceSide][board.PAWN]
		squareColor := (sq.File() + sq.Rank()) % 2
		for pawns := friendlyPawns; pawns != 0; pawns &= pawns - 1 {
			psq := pawns.LSB()
			if (psq.File()+psq.Rank())%2 == squareColor {
				acc.badBishop += sign
			}
		}

		enemyKnights := pos.Pieces[enemySide][board.KNIGHT]
		for knights := attacks & enemyKnights; knights != 0; knights &= knights - 1 {
			ksq := knights.LSB()
			targets := pos.Pieces[enemySide][board.KING] | pos.Pieces[enemySide][board.QUEEN] | pos.Pieces[enemySide][board.ROOK]
			for t := targets; t != 0; t &= t - 1 {
				tsq := t.LSB()
				if board.Aligned(sq, ksq, tsq) {
					blockers := board.Between(sq, tsq) & occ
					if blockers.PopCount() == 1 && blockers&board.SquareBB(ksq) != 0 {
						acc.pinKnight += sign
					}
				}
			}
		}
	}

	if pt == board.ROOK {
		fyle := board.FileMask[sq.File()]
		friendlyPawnsOnFyle := fyle & pos.Pieces[pieceSide][board.PAWN]
		anyPawnsOnFyle := fyle & (pos.Pieces[board.WHITE][board.PAWN] | pos.Pieces[board.BLACK][board.PAWN])
		if friendlyPawnsOnFyle == 0 {
			acc.rookSemiopenFyle += sign
		}
		if anyPawnsOnFyle == 0 {
			acc.rookOpenFyle += sign
		}
	}

	if pt == board.QUEEN {
		if startPosition[pieceSide][board.QUEEN]&board.SquareBB(sq) == 0 {
			knights := pos.Pieces[pieceSide][board.KNIGHT] & startPosition[pieceSide][board.KNIGHT]
			bishops := pos.Pieces[pieceSide][board.BISHOP] & startPosition[pieceSide][board.BISHOP]
			acc.earlyQueenLaunched += sign * float64(knights.PopCount()+bishops.PopCount())
		}
	}

	if pt == board.KING {
		kingSq := sq
		shield := pawnShieldMask[pieceSide][kingSq]
		if shield != 0 {
			for shieldSquares := shield; shieldSquares != 0; shieldSquares &= shieldSquares - 1 {
				ssq := shieldSquares.LSB()
				if pos.Pieces[pieceSide][board.PAWN]&board.SquareBB(ssq) != 0 {
					pstSq := ssq
					if pieceSide == board.BLACK {
						pstSq = ssq.Mirror()
					}
					acc.pawnShield += sign * (1 + openingPST[board.PAWN][pstSq]/4)
				}
			}
		}

		weak := weakSquareMask[pieceSide][kingSq]
		if weak != 0 {
			friendlyPawns := pos.Pieces[pieceSide][board.PAWN]
			var lightWeak, darkWeak int
			for w := weak &^ friendlyPawns; w != 0; w &= w - 1 {
				wsq := w.LSB()
				if (wsq.File()+wsq.Rank())%2 == 0 {
					darkWeak++
				} else {
					lightWeak++
				}
			}
			enemyBishops := pos.Pieces[enemySide][board.BISHOP]
			var lightBishops, darkBishops int
			for b := enemyBishops; b != 0; b &= b - 1 {
				bsq := b.LSB()
				if (bsq.File()+bsq.Rank())%2 == 0 {
					darkBishops++
				} else {
					lightBishops++
				}
			}
			acc.weakSquare += sign * float64(lightWeak*lightBishops+darkWeak*darkBishops)
		}
	}
}

// accumulatePawn folds the pawn-structure features: passed, protected
// passed, doubled, isolated.
func (e *Evaluator) accumulatePawn(pos *board.Position, acc *accumulators, sq board.Square, side board.Side, sign float64) {
	enemy := side.Other()
	enemyPawns := pos.Pieces[enemy][board.PAWN]
	friendlyPawns := pos.Pieces[side][board.PAWN]

	passed := passPawnMask[side][sq]&enemyPawns == 0
	if passed {
		acc.passPawn += sign
		// A passed pawn is protected if a friendly pawn occupies one of the
		// squares an enemy pawn standing on this pawn's square would attack
		// — i.e. a friendly pawn defends it from behind-diagonal.
		defenders := board.PawnAttacks(sq, enemy) & friendlyPawns
		if defenders != 0 {
			acc.protectedPassPawn += sign
		}
	}

	fyle := board.FileMask[sq.File()]
	if (fyle & friendlyPawns).PopCount() >= 2 {
		acc.doublePawn += sign
	}
	if isoPawnMask[sq]&friendlyPawns == 0 {
		acc.isoPawn += sign
	}
}
