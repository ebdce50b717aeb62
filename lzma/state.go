package lzma

// The 12-state history automaton tracks what kind of symbol (literal,
// match, short rep, long rep) was decoded most recently, since LZMA
// conditions its match/rep decisions on that history (spec.md LZMA module,
// "State machine"). Naming and transition tables follow the state* constants
// in other_examples/167a3a08_ethereum-go-ethereum__vendor-github.com-xi2-xz-dec_lzma2.go.go.
const (
	stateLitLit = iota
	stateMatchLitLit
	stateRepLitLit
	stateShortRepLitLit
	stateMatchLit
	stateRepLit
	stateShortRepLit
	stateLitMatch
	stateLitLongRep
	stateLitShortRep
	stateNonlitMatch
	stateNonlitRep

	numStates = 12
	litStates = 7 // states 0..6 follow a literal
)

// updateStateLiteral/Match/Rep/ShortRep mirror the classic LZMA SDK's
// StateUpdateLiteral/Match/Rep/ShortRep transition functions.
func updateStateLiteral(s int) int {
	if s < 4 {
		return stateLitLit
	} else if s < 10 {
		return s - 3
	}
	return s - 6
}

func updateStateMatch(s int) int {
	if s < litStates {
		return stateLitMatch
	}
	return stateNonlitMatch
}

func updateStateRep(s int) int {
	if s < litStates {
		return stateLitLongRep
	}
	return stateNonlitRep
}

func updateStateShortRep(s int) int {
	if s < litStates {
		return stateLitShortRep
	}
	return stateNonlitRep
}

func stateIsLiteral(s int) bool { return s < litStates }
