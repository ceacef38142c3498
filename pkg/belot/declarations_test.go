package belot

import "testing"

func declByType(decls []Declaration, typ DeclarationType) *Declaration {
	for i := range decls {
		if decls[i].Type == typ {
			return &decls[i]
		}
	}
	return nil
}

// Four jacks plus a spade tierce, no belot without the trump queen.
func TestDetectDeclarationsFourJacksAndTierce(t *testing.T) {
	hand := []Card{
		NewCard(Spades, Seven),
		NewCard(Spades, Eight),
		NewCard(Spades, Nine),
		NewCard(Diamonds, Jack),
		NewCard(Hearts, Jack),
		NewCard(Spades, Jack),
		NewCard(Clubs, Jack),
		NewCard(Hearts, King),
	}

	decls := DetectDeclarations(hand, Hearts)

	four := declByType(decls, DeclFourOfAKind)
	if four == nil {
		t.Fatal("four jacks not detected")
	}
	if four.Points != 200 {
		t.Errorf("four jacks worth %d, want 200", four.Points)
	}

	tierce := declByType(decls, DeclTierce)
	if tierce == nil {
		t.Fatal("spade tierce not detected")
	}
	if tierce.Points != 20 {
		t.Errorf("tierce worth %d, want 20", tierce.Points)
	}
	for _, c := range tierce.Cards {
		if c.Suit() != Spades {
			t.Errorf("tierce contains off-suit card %s", c)
		}
	}

	if declByType(decls, DeclBelot) != nil {
		t.Error("belot detected without the trump queen")
	}

	total := 0
	for _, d := range decls {
		total += d.Points
	}
	if total != 220 {
		t.Errorf("total declaration value %d, want 220", total)
	}
}

func TestDetectDeclarationsBelot(t *testing.T) {
	hand := []Card{
		NewCard(Hearts, King),
		NewCard(Hearts, Queen),
		NewCard(Spades, Seven),
	}

	decls := DetectDeclarations(hand, Hearts)
	belot := declByType(decls, DeclBelot)
	if belot == nil {
		t.Fatal("belot not detected")
	}
	if belot.Points != 20 {
		t.Errorf("belot worth %d, want 20", belot.Points)
	}

	// Same pair off-trump is nothing.
	if d := declByType(DetectDeclarations(hand, Spades), DeclBelot); d != nil {
		t.Error("belot detected in non-trump suit")
	}
}

func TestDetectDeclarationsMaximalSequences(t *testing.T) {
	// J-Q-K-A of clubs is a single quarte, not a quarte plus nested
	// tierces.
	hand := []Card{
		NewCard(Clubs, Jack),
		NewCard(Clubs, Queen),
		NewCard(Clubs, King),
		NewCard(Clubs, Ace),
		NewCard(Diamonds, Seven),
	}

	decls := DetectDeclarations(hand, Spades)
	if len(decls) != 1 {
		t.Fatalf("got %d declarations, want 1: %v", len(decls), decls)
	}
	if decls[0].Type != DeclQuarte || decls[0].Points != 50 {
		t.Errorf("got %s worth %d, want quarte worth 50", decls[0].Type, decls[0].Points)
	}
}

func TestDetectDeclarationsQuint(t *testing.T) {
	hand := []Card{
		NewCard(Diamonds, Seven),
		NewCard(Diamonds, Eight),
		NewCard(Diamonds, Nine),
		NewCard(Diamonds, Ten),
		NewCard(Diamonds, Jack),
	}

	decls := DetectDeclarations(hand, Spades)
	if len(decls) != 1 || decls[0].Type != DeclQuint {
		t.Fatalf("got %v, want a single quint", decls)
	}
	if decls[0].Points != 100 {
		t.Errorf("quint worth %d, want 100", decls[0].Points)
	}
}

func TestDetectDeclarationsRunsUseNaturalOrder(t *testing.T) {
	// Adjacency follows the natural rank order, not the order sequences
	// are ranked by: 9-10-J is a run, 9-J-Q is not.
	run := []Card{
		NewCard(Spades, Nine),
		NewCard(Spades, Ten),
		NewCard(Spades, Jack),
	}
	if decls := DetectDeclarations(run, Hearts); len(decls) != 1 || decls[0].Type != DeclTierce {
		t.Errorf("9-10-J should form a tierce, got %v", decls)
	}

	gap := []Card{
		NewCard(Spades, Nine),
		NewCard(Spades, Jack),
		NewCard(Spades, Queen),
	}
	if decls := DetectDeclarations(gap, Hearts); len(decls) != 0 {
		t.Errorf("9-J-Q should not form a sequence, got %v", decls)
	}
}

func TestDeclarationStrengthBreaksEqualPoints(t *testing.T) {
	low := sequenceDeclaration([]Card{
		NewCard(Spades, Seven),
		NewCard(Spades, Eight),
		NewCard(Spades, Nine),
	})
	high := sequenceDeclaration([]Card{
		NewCard(Hearts, Queen),
		NewCard(Hearts, King),
		NewCard(Hearts, Ace),
	})
	if low.strength() >= high.strength() {
		t.Error("an ace-high tierce should outrank a nine-high tierce")
	}
}

func TestMatchesDetected(t *testing.T) {
	hand := []Card{
		NewCard(Spades, Seven),
		NewCard(Spades, Eight),
		NewCard(Spades, Nine),
	}
	detected := DetectDeclarations(hand, Hearts)

	announced := Declaration{Type: DeclTierce, Cards: hand, Points: 20}
	if !matchesDetected(announced, detected) {
		t.Error("genuine tierce rejected")
	}

	bogus := Declaration{Type: DeclQuarte, Cards: hand, Points: 50}
	if matchesDetected(bogus, detected) {
		t.Error("inflated declaration accepted")
	}
}
