package belot

// TeamID identifies one of the two teams.
type TeamID int

const (
	TeamA TeamID = 0 // seats 0 and 2
	TeamB TeamID = 1 // seats 1 and 3
	// NoTeam marks the absence of a winner.
	NoTeam TeamID = -1
)

func (t TeamID) String() string {
	switch t {
	case TeamA:
		return "A"
	case TeamB:
		return "B"
	default:
		return "none"
	}
}

// Other returns the opposing team.
func (t TeamID) Other() TeamID {
	return 1 - t
}

// TeamOfSeat maps a seat to its team: even seats are team A.
func TeamOfSeat(seat int) TeamID {
	return TeamID(seat % 2)
}

// Scoring constants.
const (
	// LastTrickBonus is added to the winner of the eighth trick.
	LastTrickBonus = 10
	// CapotBonus is added to a team that won every trick.
	CapotBonus = 90
	// TotalCardPoints is the sum of all card points in the deck with a
	// trump suit: three plain suits at 30 plus the trump suit at 62. The
	// last-trick bonus comes on top of this.
	TotalCardPoints = 152
	// BelotBonus is the reward for announcing the trump king and queen.
	BelotBonus = 20
)

// ResolveDeclarations applies the declaration-winner rule: teams are
// compared by their single strongest declaration, and only the winning
// team keeps its declarations. Ties go to the calling team when
// tieToCaller is set, to the defenders otherwise.
func ResolveDeclarations(teamDecls [2][]Declaration, calling TeamID, tieToCaller bool) (TeamID, [2]int) {
	var best [2]int
	var sum [2]int
	for team, decls := range teamDecls {
		for _, d := range decls {
			sum[team] += d.Points
			if s := d.strength(); s > best[team] {
				best[team] = s
			}
		}
	}

	var points [2]int
	if best[0] == 0 && best[1] == 0 {
		return NoTeam, points
	}

	winner := TeamA
	switch {
	case best[TeamA] > best[TeamB]:
		winner = TeamA
	case best[TeamB] > best[TeamA]:
		winner = TeamB
	default:
		winner = calling
		if !tieToCaller {
			winner = calling.Other()
		}
	}

	points[winner] = sum[winner]
	return winner, points
}

// RoundTally carries everything needed to resolve a finished round.
type RoundTally struct {
	TrickPoints [2]int // includes the last-trick bonus
	DeclPoints  [2]int // already resolved by ResolveDeclarations
	BelotPoints [2]int // unconditional, outside the declaration rule
	TricksWon   [2]int
	Calling     TeamID
}

// RoundScore is the resolved outcome of one round.
type RoundScore struct {
	Points      [2]int `json:"points"`
	CallingFell bool   `json:"calling_fell"`
	CapotTeam   TeamID `json:"capot_team"` // NoTeam when no capot
}

// ResolveRound applies the capot bonus and the fall ("pad") rule: a calling
// team that fails to outscore its opponents scores zero and hands
// everything over.
func ResolveRound(tally RoundTally) RoundScore {
	capot := NoTeam
	for team := TeamA; team <= TeamB; team++ {
		if tally.TricksWon[team] == HandSize {
			capot = team
			tally.TrickPoints[team] += CapotBonus
		}
	}

	var totals [2]int
	for team := TeamA; team <= TeamB; team++ {
		totals[team] = tally.TrickPoints[team] + tally.DeclPoints[team] + tally.BelotPoints[team]
	}

	calling := tally.Calling
	defending := calling.Other()
	fell := totals[calling] <= totals[defending]
	if capot == calling {
		// The calling team took every trick; it cannot fall.
		fell = false
	}
	if capot == defending {
		// Capot against the caller: the caller falls no matter the totals.
		fell = true
	}

	score := RoundScore{CapotTeam: capot}
	if fell {
		score.CallingFell = true
		score.Points[defending] = totals[calling] + totals[defending]
	} else {
		score.Points = totals
	}
	return score
}

// GameWinner checks accumulated totals against the threshold after a round.
// When both teams cross in the same round the calling team prevails if it
// crossed; a residual exact tie plays another round.
func GameWinner(totals [2]int, threshold int, calling TeamID) (TeamID, bool) {
	reachedA := totals[TeamA] >= threshold
	reachedB := totals[TeamB] >= threshold

	switch {
	case reachedA && reachedB:
		if totals[calling] >= threshold {
			return calling, true
		}
		if totals[TeamA] > totals[TeamB] {
			return TeamA, true
		}
		if totals[TeamB] > totals[TeamA] {
			return TeamB, true
		}
		return NoTeam, false
	case reachedA:
		return TeamA, true
	case reachedB:
		return TeamB, true
	default:
		return NoTeam, false
	}
}
