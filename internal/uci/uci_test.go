package uci

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/corvid-labs/ashbourne/internal/board"
	"github.com/corvid-labs/ashbourne/internal/engine"
)

// captureStdout redirects os.Stdout for the duration of f and returns
// everything written to it. The drain runs concurrently so f isn't blocked
// by the pipe's buffer filling.
func captureStdout(t *testing.T, f func()) string {
	t.Helper()

	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	os.Stdout = w

	outCh := make(chan string, 1)
	go func() {
		var buf bytes.Buffer
		io.Copy(&buf, r)
		outCh <- buf.String()
	}()

	f()

	w.Close()
	os.Stdout = old
	return <-outCh
}

// runUCI pipes input through Run() and captures everything it writes. Only
// safe for inputs that don't spawn a background search ("go ..."), since
// Run() returns as soon as stdin hits EOF without waiting on any search
// goroutine.
func runUCI(t *testing.T, u *UCI, input string) string {
	t.Helper()

	oldStdin := os.Stdin
	inR, inW, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	os.Stdin = inR

	out := captureStdout(t, func() {
		inW.WriteString(input)
		inW.Close()
		u.Run()
	})

	os.Stdin = oldStdin
	return out
}

func newTestUCI() *UCI {
	return New(engine.NewEngine(5))
}

// TestUCIHandshake covers spec §8 scenario S1: "uci" must produce, in order,
// an "id name " line, an "id author " line, option lines for at least Hash,
// Ponder, Threads, UCI_AnalyseMode and Clear Hash, then exactly "uciok".
func TestUCIHandshake(t *testing.T) {
	out := runUCI(t, newTestUCI(), "uci\n")

	var lines []string
	for _, l := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		if l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		t.Fatal("no output for \"uci\"")
	}
	if !strings.HasPrefix(lines[0], "id name ") {
		t.Errorf("first line = %q, want prefix \"id name \"", lines[0])
	}
	if !strings.HasPrefix(lines[1], "id author ") {
		t.Errorf("second line = %q, want prefix \"id author \"", lines[1])
	}
	if lines[len(lines)-1] != "uciok" {
		t.Errorf("last line = %q, want \"uciok\"", lines[len(lines)-1])
	}

	for _, opt := range []string{"Hash", "Ponder", "Threads", "UCI_AnalyseMode", "Clear Hash"} {
		if !strings.Contains(out, "option name "+opt) {
			t.Errorf("output missing \"option name %s\"", opt)
		}
	}
}

// TestUCIReadiness covers S2: "isready" must produce exactly "readyok".
func TestUCIReadiness(t *testing.T) {
	out := runUCI(t, newTestUCI(), "isready\n")
	if strings.TrimSpace(out) != "readyok" {
		t.Errorf("output = %q, want \"readyok\"", out)
	}
}

// TestUCIPositionSetup covers S3: after "position startpos moves e2e4 e7e5",
// the internal position must reflect White's pawn on e4 and Black's on e5,
// side-to-move WHITE, and "isready" must still answer "readyok".
func TestUCIPositionSetup(t *testing.T) {
	u := newTestUCI()
	out := runUCI(t, u, "position startpos moves e2e4 e7e5\nisready\n")

	if !strings.Contains(out, "readyok") {
		t.Errorf("output %q missing \"readyok\"", out)
	}

	pos := u.position
	if pos.Pieces[board.WHITE][board.PAWN]&board.SquareBB(board.E4) == 0 {
		t.Error("white pawn not on e4")
	}
	if pos.Pieces[board.WHITE][board.PAWN]&board.SquareBB(board.E2) != 0 {
		t.Error("white pawn still on e2")
	}
	if pos.Pieces[board.BLACK][board.PAWN]&board.SquareBB(board.E5) == 0 {
		t.Error("black pawn not on e5")
	}
	if pos.Pieces[board.BLACK][board.PAWN]&board.SquareBB(board.E7) != 0 {
		t.Error("black pawn still on e7")
	}
	if pos.SideToMove != board.WHITE {
		t.Errorf("SideToMove = %v, want WHITE", pos.SideToMove)
	}
}

// TestUCIGoDepth covers S4: "go depth 4" from the starting position must
// produce exactly one "bestmove" line whose move is legal in that position.
func TestUCIGoDepth(t *testing.T) {
	u := newTestUCI()
	u.handlePosition([]string{"startpos"})

	out := captureStdout(t, func() {
		u.handleGo([]string{"depth", "4"})
		u.handleStop()
	})

	count := strings.Count(out, "bestmove ")
	if count != 1 {
		t.Fatalf("output contains %d \"bestmove\" lines, want 1:\n%s", count, out)
	}

	var moveStr string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "bestmove ") {
			moveStr = strings.TrimSpace(strings.TrimPrefix(line, "bestmove "))
		}
	}
	if moveStr == "" || moveStr == "0000" {
		t.Fatalf("bestmove = %q, want a legal move", moveStr)
	}

	startpos := board.NewPosition()
	legal := startpos.GenerateLegalMoves()
	found := false
	for i := 0; i < legal.Len(); i++ {
		if legal.Get(i).String() == moveStr {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("bestmove %q is not a legal move in the starting position", moveStr)
	}
}

// TestUCIStopInfinite covers S5: "go infinite" followed shortly by "stop"
// must produce exactly one "bestmove" line and must not deadlock.
func TestUCIStopInfinite(t *testing.T) {
	u := newTestUCI()
	u.handlePosition([]string{"startpos"})

	done := make(chan string, 1)
	out := captureStdout(t, func() {
		go func() {
			u.handleGo([]string{"infinite"})
			time.Sleep(50 * time.Millisecond)
			u.handleStop()
			done <- "ok"
		}()
		<-done
	})

	count := strings.Count(out, "bestmove ")
	if count != 1 {
		t.Fatalf("output contains %d \"bestmove\" lines, want 1:\n%s", count, out)
	}
}

// TestUCISetOptionHashClamp covers S6: requesting a Hash size far above the
// table's maximum must clamp the rebuilt table to exactly 500 MiB.
func TestUCISetOptionHashClamp(t *testing.T) {
	u := newTestUCI()
	u.handleSetOption([]string{"name", "Hash", "value", "1000000"})

	if got := u.engine.HashSizeMB(); got != 500 {
		t.Errorf("HashSizeMB() = %d, want 500", got)
	}
}
