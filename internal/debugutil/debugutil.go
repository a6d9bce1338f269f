// Package debugutil collects the engine's debug-only helpers: a colorized
// bitboard dumper, a synthetic hash-key generator for exercising the
// transposition table without a live search, and a monotonic stopwatch.
// None of these sit on any hot path; PrintBitboard backs the "d" UCI
// command and FormatSize the engine's table-rebuild log line.
package debugutil

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/corvid-labs/ashbourne/internal/board"
)

const border = " +---+---+---+---+---+---+---+---+"

// PrintBitboard writes a bordered 8x8 grid of the set bits in bb to w, one
// rank per line from rank 8 down to rank 1. When w is a TTY (detected via
// IsTerminalWriter), set squares are highlighted in green.
func PrintBitboard(w io.Writer, bb board.Bitboard) {
	color := IsTerminalWriter(w)

	fmt.Fprintln(w, border)
	for rank := 7; rank >= 0; rank-- {
		var line strings.Builder
		fmt.Fprintf(&line, "%c|", '1'+rank)
		for file := 0; file < 8; file++ {
			sq := board.NewSquare(file, rank)
			if bb.IsSet(sq) {
				if color {
					line.WriteString("\x1b[32m(+)\x1b[0m|")
				} else {
					line.WriteString("(+)|")
				}
			} else {
				line.WriteString("   |")
			}
		}
		fmt.Fprintln(w, line.String())
		fmt.Fprintln(w, border)
	}
	fmt.Fprintln(w, "   a   b   c   d   e   f   g   h")
}

// IsTerminalWriter reports whether w is an *os.File connected to a terminal.
// Writers that aren't *os.File (buffers, network connections) are never
// colorized.
func IsTerminalWriter(w io.Writer) bool {
	type fder interface{ Fd() uintptr }
	f, ok := w.(fder)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// moveKindNames mirrors board.MoveKind's declaration order.
var moveKindNames = [...]string{"normal", "castling", "en passant", "null move"}

// FormatMove renders a move's piece square, goal square, captured piece
// type, promotion type, last castling rights, last en-passant state and
// move kind as a multi-line diagnostic block, mirroring the source's
// PrintMove.
func FormatMove(m board.Move) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Piece: %s\n", m.From())
	fmt.Fprintf(&b, "Goal: %s\n", m.To())

	if m.Captured != board.EMPTY {
		fmt.Fprintf(&b, "Captured: %s\n", m.Captured)
	} else {
		fmt.Fprintf(&b, "Captured: none\n")
	}

	if m.IsPromotion() {
		fmt.Fprintf(&b, "Promotion: %s\n", m.Promotion())
	} else {
		fmt.Fprintf(&b, "Promotion: none\n")
	}

	fmt.Fprintf(&b, "Last castling rights: %s\n", m.PriorCastling)
	if m.PriorEnPassant != board.NoSquare {
		fmt.Fprintf(&b, "Last en passant square: %s\n", m.PriorEnPassant)
	} else {
		fmt.Fprintf(&b, "Last en passant square: none\n")
	}

	kind := int(m.Kind())
	if kind >= 0 && kind < len(moveKindNames) {
		fmt.Fprintf(&b, "Move type: %s\n", moveKindNames[kind])
	}

	fmt.Fprintf(&b, "Move: %s\n", m.String())
	return b.String()
}

// GenPseudoHashKey derives a reproducible pseudo hash key from a seed,
// suitable for exercising transposition table code paths in tests and
// debug sessions without running a real search (no crypto/security
// properties are implied or required).
func GenPseudoHashKey(seed int64) uint64 {
	var buf [8]byte
	for i := range buf {
		buf[i] = byte(seed >> (8 * i))
	}
	return xxhash.Sum64(buf[:])
}

// FormatSize renders a byte count in human-readable form (e.g. "64 MB"),
// for logging the transposition table's configured size.
func FormatSize(bytes int) string {
	return humanize.Bytes(uint64(bytes))
}

// Stopwatch is a simple monotonic elapsed-time measurer, replacing the
// source's wall-clock start_time/end_time pair with a single handle.
type Stopwatch struct {
	start time.Time
	end   time.Time
}

// Start begins timing.
func (s *Stopwatch) Start() {
	s.start = time.Now()
	s.end = time.Time{}
}

// Stop ends timing.
func (s *Stopwatch) Stop() {
	s.end = time.Now()
}

// Elapsed returns the duration between Start and Stop. If Stop has not been
// called yet, it measures up to now.
func (s *Stopwatch) Elapsed() time.Duration {
	end := s.end
	if end.IsZero() {
		end = time.Now()
	}
	return end.Sub(s.start)
}
