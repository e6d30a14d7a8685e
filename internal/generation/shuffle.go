package generation

import (
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"
)

// Debiaser removes positional bias from generated answer keys. LLM answer
// selections skew toward early labels; a uniform permutation of the
// label-to-content assignment makes the correct position unpredictable
// across a batch without touching option text or changing which content is
// semantically correct.
type Debiaser struct {
	rng *rand.Rand
}

// NewDebiaser creates a Debiaser with a freshly seeded generator.
func NewDebiaser() *Debiaser {
	return &Debiaser{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// NewDebiaserWithSeed creates a deterministic Debiaser, for tests.
func NewDebiaserWithSeed(seed uint64) *Debiaser {
	return &Debiaser{rng: rand.New(rand.NewPCG(seed, seed))}
}

// ShuffleOptions uniformly permutes which label holds which option text and
// returns the relabeled map along with the label now holding the correct
// option. Labels absent from the input stay absent.
func (d *Debiaser) ShuffleOptions(options map[string]string, correctLabel string) (map[string]string, string) {
	labels := make([]string, 0, len(options))
	for label := range options {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	correctIdx := -1
	values := make([]string, len(labels))
	for i, label := range labels {
		values[i] = options[label]
		if label == correctLabel {
			correctIdx = i
		}
	}

	perm := d.rng.Perm(len(labels))

	shuffled := make(map[string]string, len(labels))
	newCorrect := correctLabel
	for dst, src := range perm {
		shuffled[labels[dst]] = values[src]
		if src == correctIdx {
			newCorrect = labels[dst]
		}
	}
	return shuffled, newCorrect
}

// ShuffleOrdering scrambles sentence fragments given in canonical (logical)
// order into a presentation map keyed by position digits, and returns the
// correct answer: the presented positions read back in logical order. The
// presented arrangement is guaranteed to differ from the canonical one, so
// the answer to a jumbled question is never the identity sequence for the
// content as presented.
func (d *Debiaser) ShuffleOrdering(fragments []string) (map[string]string, string) {
	n := len(fragments)
	perm := d.rng.Perm(n)

	if n >= 2 && isIdentity(perm) {
		// Force a non-trivial scramble.
		perm[0], perm[1] = perm[1], perm[0]
	}

	presented := make(map[string]string, n)
	for pos, canonical := range perm {
		presented[strconv.Itoa(pos+1)] = fragments[canonical]
	}

	// For each canonical index, emit the presented position holding it.
	var answer strings.Builder
	for canonical := 0; canonical < n; canonical++ {
		for pos, c := range perm {
			if c == canonical {
				answer.WriteString(strconv.Itoa(pos + 1))
				break
			}
		}
	}
	return presented, answer.String()
}

// ShufflePositions uniformly permutes a position-keyed sequencing map and
// returns the relabeled map along with the position digit now holding the
// originally-correct entry. Used for odd-one-out questions, where the
// identity permutation carries no information and is therefore allowed.
func (d *Debiaser) ShufflePositions(seq map[string]string, correctPos string) (map[string]string, string) {
	positions := make([]string, 0, len(seq))
	for pos := range seq {
		positions = append(positions, pos)
	}
	sort.Slice(positions, func(i, j int) bool {
		a, _ := strconv.Atoi(positions[i])
		b, _ := strconv.Atoi(positions[j])
		return a < b
	})

	correctIdx := -1
	values := make([]string, len(positions))
	for i, pos := range positions {
		values[i] = seq[pos]
		if pos == correctPos {
			correctIdx = i
		}
	}

	perm := d.rng.Perm(len(positions))

	shuffled := make(map[string]string, len(positions))
	newCorrect := correctPos
	for dst, src := range perm {
		shuffled[positions[dst]] = values[src]
		if src == correctIdx {
			newCorrect = positions[dst]
		}
	}
	return shuffled, newCorrect
}

func isIdentity(perm []int) bool {
	for i, v := range perm {
		if i != v {
			return false
		}
	}
	return true
}
