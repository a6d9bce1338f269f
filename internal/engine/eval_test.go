package engine

import (
	"testing"

	"github.com/corvid-labs/ashbourne/internal/board"
)

// TestCenterMaskPopcounts pins down the two literal masks spec §8 names
// directly, so a change to centerMask/sweetCenterMask's definition fails
// loudly here instead of silently through a search regression.
func TestCenterMaskPopcounts(t *testing.T) {
	if got := centerMask.PopCount(); got != 16 {
		t.Errorf("centerMask.PopCount() = %d, want 16", got)
	}

	var wantCenter board.Bitboard
	for _, sq := range []board.Square{
		board.C3, board.D3, board.E3, board.F3,
		board.C4, board.D4, board.E4, board.F4,
		board.C5, board.D5, board.E5, board.F5,
		board.C6, board.D6, board.E6, board.F6,
	} {
		wantCenter |= board.SquareBB(sq)
	}
	if centerMask != wantCenter {
		t.Errorf("centerMask = %#x, want %#x", uint64(centerMask), uint64(wantCenter))
	}

	if got := sweetCenterMask.PopCount(); got != 4 {
		t.Errorf("sweetCenterMask.PopCount() = %d, want 4", got)
	}

	wantSweet := board.SquareBB(board.D4) | board.SquareBB(board.E4) |
		board.SquareBB(board.D5) | board.SquareBB(board.E5)
	if sweetCenterMask != wantSweet {
		t.Errorf("sweetCenterMask = %#x, want %#x", uint64(sweetCenterMask), uint64(wantSweet))
	}
}

// TestEvaluateDrawIndependentOfMaterial checks the king-vs-king short circuit
// fires before material is ever consulted, per spec §8's "Draw symmetry".
func TestEvaluateDrawIndependentOfMaterial(t *testing.T) {
	pos, err := board.ParseFEN("4k3/8/8/8/8/8/8/4K3 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	ev := NewEvaluator()
	for _, material := range []int{0, 1, -1, 500, -500, 12345} {
		score, err := ev.Evaluate(pos, material)
		if err != nil {
			t.Fatalf("Evaluate(material=%d): %v", material, err)
		}
		if score != SCORE_DRAW {
			t.Errorf("Evaluate(material=%d) = %d, want SCORE_DRAW (%d)", material, score, SCORE_DRAW)
		}
	}
}

// TestEvaluateSignSymmetry checks spec §8's "Sign symmetry": evaluating a
// position and its color-swapped, vertically-flipped, side-to-move-swapped
// mirror must yield equal magnitude and opposite sign, up to integer
// truncation. The pair below swaps a White e2 pawn for a Black e7 pawn
// (vertical mirror of e2) with kings likewise swapped and mirrored.
func TestEvaluateSignSymmetry(t *testing.T) {
	pos, err := board.ParseFEN("4k3/8/8/8/8/8/4P3/4K3 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN(original): %v", err)
	}
	mirror, err := board.ParseFEN("4k3/4p3/8/8/8/8/8/4K3 b - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN(mirror): %v", err)
	}

	s1 := Evaluate(pos)
	s2 := Evaluate(mirror)

	sum := s1 + s2
	if sum > 1 || sum < -1 {
		t.Errorf("Evaluate(original)=%d, Evaluate(mirror)=%d: want opposite sign, equal magnitude (sum=%d)", s1, s2, sum)
	}
}
