// Package uci implements the Universal Chess Interface shell: command
// dispatch, the background search thread's lifecycle, and streamed info
// output. It owns exactly one search thread at a time and is the single
// writer to stdout.
package uci

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/corvid-labs/ashbourne/internal/board"
	"github.com/corvid-labs/ashbourne/internal/debugutil"
	"github.com/corvid-labs/ashbourne/internal/engine"
)

// UCI implements the Universal Chess Interface protocol.
type UCI struct {
	engine   *engine.Engine
	position *board.Position

	// Position history for repetition detection.
	positionHashes []uint64

	// Tunables, reset to defaults on every "uci" per the command table.
	ponder      bool
	analyseMode bool

	// Search state.
	searching     bool
	searchDone    chan struct{}
	stopRequested atomic.Bool

	// CPU profiling (debug-only "setoption name cpuprofile").
	profileFile *os.File
}

// New creates a new UCI protocol handler.
func New(eng *engine.Engine) *UCI {
	return &UCI{
		engine:   eng,
		position: board.NewPosition(),
	}
}

// Run starts the UCI main loop, reading commands from stdin until EOF or
// "quit".
func (u *UCI) Run() {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			fmt.Println("readyok")
		case "ucinewgame":
			u.handleNewGame()
		case "position":
			u.handlePosition(args)
		case "go":
			u.handleGo(args)
		case "stop":
			u.handleStop()
		case "ponderhit":
			u.handlePonderHit()
		case "quit":
			u.handleQuit()
		case "setoption":
			u.handleSetOption(args)
		// Debug commands, not part of the protocol surface in §6.
		case "d":
			fmt.Println(u.position.String())
			debugutil.PrintBitboard(os.Stdout, u.position.AllOccupied)
		case "eval":
			u.handleEval()
		case "perft":
			u.handlePerft(args)
		}
		// Unknown commands are ignored per §6.
	}
}

// handleUCI responds to the "uci" command: identify, list options, reset
// tunables to their defaults, and signal uciok.
func (u *UCI) handleUCI() {
	u.ponder = false
	u.analyseMode = false

	fmt.Println("id name Ashbourne")
	fmt.Println("id author corvid-labs")
	fmt.Println()
	fmt.Printf("option name Hash type spin default %d min 5 max 500\n", u.engine.HashSizeMB())
	fmt.Println("option name Clear Hash type button")
	fmt.Println("option name Ponder type check default false")
	fmt.Printf("option name Threads type spin default %d min 1 max %d\n", u.engine.Threads(), engine.NumWorkers)
	fmt.Println("option name UCI_AnalyseMode type check default false")
	fmt.Println("uciok")
}

// handleNewGame tells the engine to reset game state and rebuilds the
// transposition table at its current size.
func (u *UCI) handleNewGame() {
	u.engine.Clear()
	u.position = board.NewPosition()
	u.positionHashes = []uint64{u.position.Hash}
}

// handlePosition parses and sets up a position. Formats:
//   - position startpos
//   - position startpos moves e2e4 e7e5
//   - position fen <fen>
//   - position fen <fen> moves e2e4
//
// Illegal or unparseable moves are silently skipped, per §7's protocol
// parse failure handling, and whatever prefix of "moves" did apply stands.
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	u.positionHashes = nil
	var moveStart int

	switch args[0] {
	case "startpos":
		u.position = board.NewPosition()
		moveStart = len(args)
		for i, arg := range args {
			if arg == "moves" {
				moveStart = i + 1
				break
			}
		}
	case "fen":
		fenEnd := len(args)
		for i := 1; i < len(args); i++ {
			if args[i] == "moves" {
				fenEnd = i
				break
			}
		}

		fenStr := strings.Join(args[1:fenEnd], " ")
		pos, err := board.ParseFEN(fenStr)
		if err != nil {
			// Protocol parse failure: ignored, prior position stands.
			return
		}
		u.position = pos

		moveStart = len(args)
		for i, arg := range args {
			if arg == "moves" {
				moveStart = i + 1
				break
			}
		}
	default:
		return
	}

	u.positionHashes = append(u.positionHashes, u.position.Hash)

	for i := moveStart; i < len(args); i++ {
		move := u.parseMove(args[i])
		if move == board.NoMove {
			// Silently skip; the rest of the "moves" list still applies.
			continue
		}
		u.position.MakeMove(move)
		u.position.UpdateCheckers()
		u.positionHashes = append(u.positionHashes, u.position.Hash)
	}
}

// parseMove converts a UCI move string to a board.Move. Four chars from
// {a-h}{1-8}{a-h}{1-8}, plus an optional 5th in {n,b,r,q} for promotion.
// Returns board.NoMove (the null move) on any deviation.
func (u *UCI) parseMove(moveStr string) board.Move {
	if len(moveStr) != 4 && len(moveStr) != 5 {
		return board.NoMove
	}

	fromFile := int(moveStr[0] - 'a')
	fromRank := int(moveStr[1] - '1')
	toFile := int(moveStr[2] - 'a')
	toRank := int(moveStr[3] - '1')

	if fromFile < 0 || fromFile > 7 || fromRank < 0 || fromRank > 7 ||
		toFile < 0 || toFile > 7 || toRank < 0 || toRank > 7 {
		return board.NoMove
	}

	from := board.NewSquare(fromFile, fromRank)
	to := board.NewSquare(toFile, toRank)

	var promo board.PieceType
	if len(moveStr) == 5 {
		switch moveStr[4] {
		case 'q':
			promo = board.QUEEN
		case 'r':
			promo = board.ROOK
		case 'b':
			promo = board.BISHOP
		case 'n':
			promo = board.KNIGHT
		default:
			return board.NoMove
		}
	}

	moves := u.position.GenerateLegalMoves()
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		if m.From() != from || m.To() != to {
			continue
		}
		if promo != 0 {
			if m.IsPromotion() && m.Promotion() == promo {
				return m
			}
		} else if !m.IsPromotion() {
			return m
		}
	}

	return board.NoMove
}

// goBudget holds the computed stop conditions for one "go" command, per the
// search-time budget calculation in spec §4.3.
type goBudget struct {
	maxDepth     int
	maxNodes     uint64
	thinkingTime time.Duration
	infinite     bool
	searchmoves  []board.Move
}

// parseGo parses "go" sub-tokens and computes the stop conditions, starting
// from max_depth = MAX_PLYS, max_nodes = MAX_NODES, thinking_time =
// INT_MAX/2 ms, infinite = false, searchmoves = empty, exactly as specified.
func (u *UCI) parseGo(args []string) goBudget {
	budget := goBudget{
		maxDepth:     engine.MaxPly,
		maxNodes:     engine.MaxNodes,
		thinkingTime: time.Duration(math.MaxInt32/2) * time.Millisecond,
	}

	us := u.position.SideToMove

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "searchmoves":
			for i+1 < len(args) && !isGoSubToken(args[i+1]) {
				i++
				if m := u.parseMove(args[i]); m != board.NoMove {
					budget.searchmoves = append(budget.searchmoves, m)
				}
			}
		case "ponder":
			budget.infinite = true
		case "wtime":
			if i+1 < len(args) {
				i++
				if ms, err := strconv.Atoi(args[i]); err == nil && us == board.WHITE {
					budget.thinkingTime = timeBudgetFromClock(ms)
				}
			}
		case "btime":
			if i+1 < len(args) {
				i++
				if ms, err := strconv.Atoi(args[i]); err == nil && us == board.BLACK {
					budget.thinkingTime = timeBudgetFromClock(ms)
				}
			}
		case "winc", "binc", "movestogo":
			// Recognized but no effect in this core, per §4.3.
			if i+1 < len(args) {
				i++
			}
		case "depth":
			if i+1 < len(args) {
				i++
				if n, err := strconv.Atoi(args[i]); err == nil {
					budget.maxDepth = minInt(n, engine.MaxPly)
				}
			}
		case "nodes":
			if i+1 < len(args) {
				i++
				if n, err := strconv.ParseUint(args[i], 10, 64); err == nil {
					budget.maxNodes = minUint64(n, engine.MaxNodes)
				}
			}
		case "mate":
			if i+1 < len(args) {
				i++
				if n, err := strconv.Atoi(args[i]); err == nil {
					budget.maxDepth = minInt(2*n-1, engine.MaxPly)
				}
			}
		case "movetime":
			if i+1 < len(args) {
				i++
				if ms, err := strconv.Atoi(args[i]); err == nil {
					budget.thinkingTime = time.Duration(ms) * time.Millisecond
				}
			}
		case "infinite":
			budget.infinite = true
		}
	}

	return budget
}

// goSubTokens are the recognized top-level sub-tokens of "go". parseGo uses
// them only to end a searchmoves list; every other sub-token reads at most
// the one token after it, and further unrecognized tokens are ignored.
var goSubTokens = map[string]bool{
	"searchmoves": true, "ponder": true, "wtime": true, "btime": true,
	"winc": true, "binc": true, "movestogo": true, "depth": true,
	"nodes": true, "mate": true, "movetime": true, "infinite": true,
}

func isGoSubToken(tok string) bool { return goSubTokens[tok] }

// timeBudgetFromClock applies the wtime/btime threshold rule: at or above
// ten minutes remaining, think a flat sixty seconds; otherwise think a
// tenth of the clock. The discontinuity at exactly 600,000ms is preserved
// verbatim from the visible source (see DESIGN.md).
func timeBudgetFromClock(remainingMS int) time.Duration {
	if remainingMS >= 600_000 {
		return 60_000 * time.Millisecond
	}
	return time.Duration(remainingMS/10) * time.Millisecond
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func minUint64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

// handleGo starts a background search thread per the lifecycle in §4.3:
// stop-and-join any prior search, rebuild the table fresh under analyse
// mode, GrowOld it, then run the search and emit bestmove on completion.
func (u *UCI) handleGo(args []string) {
	u.handleStop()

	budget := u.parseGo(args)

	if u.analyseMode {
		u.engine.RebuildHash()
	}
	// GrowOld() happens inside SearchWithLimits itself (the Calculate
	// equivalent), via TranspositionTable.NewSearch.

	u.engine.SetPositionHistory(u.positionHashes)
	u.engine.OnInfo = func(info engine.SearchInfo) {
		u.sendInfo(info)
	}
	u.engine.OnDepthStart = func(depth int) {
		fmt.Printf("info depth %d\n", depth)
	}
	u.engine.OnCurrMove = func(move board.Move, number int) {
		fmt.Printf("info currmove %s currmovenumber %d\n", move.String(), number)
	}
	u.engine.OnPeriodic = func(info engine.SearchInfo) {
		u.sendPeriodicInfo(info)
	}

	limits := engine.SearchLimits{
		Depth:    budget.maxDepth,
		Nodes:    budget.maxNodes,
		Infinite: budget.infinite,
	}
	if !budget.infinite {
		limits.MoveTime = budget.thinkingTime
	}

	u.searching = true
	u.stopRequested.Store(false)
	u.searchDone = make(chan struct{})

	pos := u.position.Copy()
	origPos := u.position.Copy()

	go func() {
		defer close(u.searchDone)

		bestMove := u.engine.SearchWithLimits(pos, limits)
		u.searching = false

		u.emitBestMove(origPos, bestMove)
	}()
}

// emitBestMove validates the search's chosen move against the position it
// was asked to search and falls back to any legal move (or the null move on
// checkmate/stalemate) so a bestmove line is always produced.
func (u *UCI) emitBestMove(origPos *board.Position, bestMove board.Move) {
	if bestMove != board.NoMove {
		legal := origPos.GenerateLegalMoves()
		for i := 0; i < legal.Len(); i++ {
			if legal.Get(i) == bestMove {
				fmt.Printf("bestmove %s\n", bestMove.String())
				return
			}
		}
	}

	legal := origPos.GenerateLegalMoves()
	if legal.Len() > 0 {
		fmt.Printf("bestmove %s\n", legal.Get(0).String())
		return
	}
	fmt.Println("bestmove 0000")
}

// sendInfo formats and emits one info line. PV lines use the mate-sign
// convention from §4.3: a mate score emits "mate <k>" with k's sign set by
// which side delivers it.
func (u *UCI) sendInfo(info engine.SearchInfo) {
	var parts []string

	parts = append(parts, fmt.Sprintf("depth %d", info.Depth))
	parts = append(parts, fmt.Sprintf("seldepth %d", info.Depth))

	if info.Score > engine.MateScore-engine.MaxPly {
		mateIn := (engine.MateScore - info.Score + 1) / 2
		parts = append(parts, fmt.Sprintf("score mate %d", mateIn))
	} else if info.Score < -engine.MateScore+engine.MaxPly {
		mateIn := -(engine.MateScore + info.Score + 1) / 2
		parts = append(parts, fmt.Sprintf("score mate %d", mateIn))
	} else {
		parts = append(parts, fmt.Sprintf("score cp %d", info.Score))
	}

	ms := info.Time.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	parts = append(parts, fmt.Sprintf("time %d", ms))
	parts = append(parts, fmt.Sprintf("nodes %d", info.Nodes))

	nps := info.Nodes * 1000 / uint64(ms)
	parts = append(parts, fmt.Sprintf("nps %d", nps))

	if info.HashFull > 0 {
		parts = append(parts, fmt.Sprintf("hashfull %d", info.HashFull))
	}

	if len(info.PV) > 0 {
		validPV := make([]string, 0, len(info.PV))
		testPos := u.position.Copy()
		for _, move := range info.PV {
			legal := testPos.GenerateLegalMoves()
			isLegal := false
			for i := 0; i < legal.Len(); i++ {
				if legal.Get(i) == move {
					isLegal = true
					break
				}
			}
			if !isLegal {
				break
			}
			validPV = append(validPV, move.String())
			testPos.MakeMove(move)
		}
		if len(validPV) > 0 {
			parts = append(parts, "pv "+strings.Join(validPV, " "))
		}
	}

	fmt.Printf("info %s\n", strings.Join(parts, " "))
}

// sendPeriodicInfo emits the periodic info-line kind from §4.3: time, nodes,
// hashfull and nps, independent of any PV improvement. Never carries depth,
// score or pv — that's sendInfo's job.
func (u *UCI) sendPeriodicInfo(info engine.SearchInfo) {
	ms := info.Time.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	nps := info.Nodes * 1000 / uint64(ms)
	fmt.Printf("info time %d nodes %d hashfull %d nps %d\n", ms, info.Nodes, info.HashFull, nps)
}

// handleStop requests the search to stop and joins the background thread.
func (u *UCI) handleStop() {
	if u.searching {
		u.stopRequested.Store(true)
		u.engine.Stop()
		<-u.searchDone
	}
}

// handlePonderHit does nothing. "go ponder" starts the same infinite search
// as "go infinite", and that search keeps running under its infinite limits
// until "stop"; ponderhit does not switch it over to the time/node/depth
// budget (see DESIGN.md).
func (u *UCI) handlePonderHit() {}

// handleQuit stops any running search and exits.
func (u *UCI) handleQuit() {
	u.handleStop()
	if u.profileFile != nil {
		pprof.StopCPUProfile()
		u.profileFile.Close()
	}
	os.Exit(0)
}

// handleSetOption processes "setoption" commands: "setoption name <name>
// [value <value>]". Options are matched case-insensitively per §6; all
// resizing/rebuilding paths assume the search thread has already been
// stopped and joined by the command dispatcher (setoption never arrives
// mid-go in a conformant front end, and handleGo itself always stops first).
func (u *UCI) handleSetOption(args []string) {
	var name, value string
	readingName, readingValue := false, false

	for _, arg := range args {
		switch arg {
		case "name":
			readingName, readingValue = true, false
		case "value":
			readingName, readingValue = false, true
		default:
			if readingName {
				if name != "" {
					name += " "
				}
				name += arg
			} else if readingValue {
				if value != "" {
					value += " "
				}
				value += arg
			}
		}
	}

	switch strings.ToLower(name) {
	case "hash":
		if mb, err := strconv.Atoi(value); err == nil {
			u.engine.SetHashSizeMB(mb)
		}
	case "clear hash":
		u.engine.RebuildHash()
	case "ponder":
		u.ponder = strings.EqualFold(value, "true")
	case "threads":
		if n, err := strconv.Atoi(value); err == nil {
			u.engine.SetThreads(n)
		}
	case "uci_analysemode":
		u.analyseMode = strings.EqualFold(value, "true")
	case "debug":
		board.DebugMoveValidation = strings.EqualFold(value, "true")
	case "cpuprofile":
		u.handleCPUProfile(value)
	}
}

// handleCPUProfile is a debug-only option (not part of §6) kept from the
// teacher's profiling harness: "setoption name cpuprofile value <path>"
// starts a pprof CPU profile, "value stop" (or empty) stops it.
func (u *UCI) handleCPUProfile(value string) {
	if u.profileFile != nil {
		pprof.StopCPUProfile()
		u.profileFile.Close()
		u.profileFile = nil
	}
	if value == "" || value == "stop" {
		return
	}
	f, err := os.Create(value)
	if err != nil {
		fmt.Fprintf(os.Stderr, "info string failed to create profile: %v\n", err)
		return
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		fmt.Fprintf(os.Stderr, "info string failed to start profile: %v\n", err)
		return
	}
	u.profileFile = f
}

// handleEval prints the per-feature evaluation breakdown (spec §3's
// EvalResult) for the current position. Debug command, not part of §6.
func (u *UCI) handleEval() {
	r := engine.EvaluateBreakdown(u.position)

	fmt.Printf("Total: %d\n", r.Total)
	fmt.Printf("Material: %d\n", r.Material)
	fmt.Printf("OpeningPosition: %.1f\n", r.OpeningPosition)
	fmt.Printf("EndingPosition: %.1f\n", r.EndingPosition)
	fmt.Printf("Mobility: %.1f\n", r.Mobility)
	fmt.Printf("CenterControl: %.1f\n", r.CenterControl)
	fmt.Printf("SweetCenter: %.1f\n", r.SweetCenter)
	fmt.Printf("Development: %.1f\n", r.Development)
	fmt.Printf("Attack: %.1f\n", r.Attack)
	fmt.Printf("AttackAroundKing: %.1f\n", r.AttackAroundKing)
	fmt.Printf("PassPawn: %.1f\n", r.PassPawn)
	fmt.Printf("ProtectedPassPawn: %.1f\n", r.ProtectedPassPawn)
	fmt.Printf("DoublePawn: %.1f\n", r.DoublePawn)
	fmt.Printf("IsoPawn: %.1f\n", r.IsoPawn)
	fmt.Printf("PawnShield: %.1f\n", r.PawnShield)
	fmt.Printf("BishopPair: %.1f\n", r.BishopPair)
	fmt.Printf("BadBishop: %.1f\n", r.BadBishop)
	fmt.Printf("PinKnight: %.1f\n", r.PinKnight)
	fmt.Printf("RookPair: %.1f\n", r.RookPair)
	fmt.Printf("RookSemiopenFyle: %.1f\n", r.RookSemiopenFyle)
	fmt.Printf("RookOpenFyle: %.1f\n", r.RookOpenFyle)
	fmt.Printf("EarlyQueenLaunched: %.1f\n", r.EarlyQueenLaunched)
	fmt.Printf("WeakSquare: %.1f\n", r.WeakSquare)
	fmt.Printf("Castling: %.1f\n", r.Castling)
	fmt.Printf("AbandonedCastling: %.1f\n", r.AbandonedCastling)
}

// handlePerft runs a perft test. Debug command, not part of §6.
func (u *UCI) handlePerft(args []string) {
	depth := 5
	if len(args) > 0 {
		depth, _ = strconv.Atoi(args[0])
	}

	start := time.Now()
	nodes := u.engine.Perft(u.position, depth)
	elapsed := time.Since(start)

	fmt.Printf("Nodes: %d\n", nodes)
	fmt.Printf("Time: %v\n", elapsed)
	if elapsed > 0 {
		nps := float64(nodes) / elapsed.Seconds()
		fmt.Printf("NPS: %.0f\n", nps)
	}
}
