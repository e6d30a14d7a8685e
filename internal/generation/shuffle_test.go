package generation

import (
	"strconv"
	"strings"
	"testing"
)

func TestShuffleOptionsPreservesContentAndCorrectness(t *testing.T) {
	d := NewDebiaserWithSeed(1)
	options := map[string]string{"A": "alpha", "B": "bravo", "C": "charlie", "D": "delta"}

	for i := 0; i < 50; i++ {
		shuffled, correct := d.ShuffleOptions(options, "B")

		if len(shuffled) != 4 {
			t.Fatalf("shuffled has %d options, want 4", len(shuffled))
		}
		// Same multiset of option texts.
		seen := map[string]bool{}
		for _, v := range shuffled {
			seen[v] = true
		}
		for _, v := range options {
			if !seen[v] {
				t.Fatalf("option text %q lost in shuffle", v)
			}
		}
		// The correct label still points at the originally-correct text.
		if shuffled[correct] != "bravo" {
			t.Fatalf("label %s holds %q, want bravo", correct, shuffled[correct])
		}
	}
}

func TestShuffleOptionsIsUnbiased(t *testing.T) {
	d := NewDebiaserWithSeed(7)
	options := map[string]string{"A": "alpha", "B": "bravo", "C": "charlie", "D": "delta"}

	counts := map[string]int{}
	const runs = 4000
	for i := 0; i < runs; i++ {
		_, correct := d.ShuffleOptions(options, "A")
		counts[correct]++
	}

	// Each label should land near runs/4; allow a generous band.
	for _, label := range []string{"A", "B", "C", "D"} {
		got := counts[label]
		if got < runs/4-runs/10 || got > runs/4+runs/10 {
			t.Errorf("label %s selected %d times over %d runs", label, got, runs)
		}
	}
}

func TestShuffleOptionsKeepsBatchCoverage(t *testing.T) {
	d := NewDebiaserWithSeed(3)
	options := map[string]string{"A": "alpha", "B": "bravo", "C": "charlie", "D": "delta"}

	// A batch of 40 questions whose pre-shuffle answers cover all labels.
	// Statistically, 40 uniform draws leaving any label empty is
	// vanishingly unlikely; repeated over seeds it must not collapse.
	preShuffle := []string{"A", "B", "C", "D"}
	covered := map[string]bool{}
	for i := 0; i < 40; i++ {
		_, correct := d.ShuffleOptions(options, preShuffle[i%4])
		covered[correct] = true
	}
	for _, label := range []string{"A", "B", "C", "D"} {
		if !covered[label] {
			t.Errorf("label %s never correct across the batch", label)
		}
	}
}

func TestShuffleOrderingNeverIdentity(t *testing.T) {
	d := NewDebiaserWithSeed(11)
	fragments := []string{"first", "second", "third", "fourth"}

	for i := 0; i < 500; i++ {
		presented, answer := d.ShuffleOrdering(fragments)

		if len(presented) != 4 {
			t.Fatalf("presented has %d positions, want 4", len(presented))
		}
		if answer == "1234" {
			t.Fatal("answer is the identity sequence; content was not scrambled")
		}
		// The answer read against the presented map reconstructs the
		// canonical order.
		for logical, pos := range strings.Split(answer, "") {
			if presented[pos] != fragments[logical] {
				t.Fatalf("answer %q: position %s holds %q, want %q", answer, pos, presented[pos], fragments[logical])
			}
		}
	}
}

func TestShuffleOrderingAnswerIsPermutation(t *testing.T) {
	d := NewDebiaserWithSeed(13)
	fragments := []string{"a", "b", "c", "d"}

	_, answer := d.ShuffleOrdering(fragments)
	if len(answer) != 4 {
		t.Fatalf("answer length = %d, want 4", len(answer))
	}
	seen := map[rune]bool{}
	for _, r := range answer {
		n, err := strconv.Atoi(string(r))
		if err != nil || n < 1 || n > 4 {
			t.Fatalf("answer %q contains invalid position %q", answer, string(r))
		}
		if seen[r] {
			t.Fatalf("answer %q repeats position %q", answer, string(r))
		}
		seen[r] = true
	}
}

func TestShufflePositionsTracksCorrectEntry(t *testing.T) {
	d := NewDebiaserWithSeed(17)
	seq := map[string]string{"1": "fits", "2": "fits", "3": "odd", "4": "fits"}

	for i := 0; i < 100; i++ {
		shuffled, correct := d.ShufflePositions(seq, "3")
		if shuffled[correct] != "odd" {
			t.Fatalf("position %s holds %q, want the odd sentence", correct, shuffled[correct])
		}
		if len(shuffled) != 4 {
			t.Fatalf("shuffled has %d positions, want 4", len(shuffled))
		}
	}
}
