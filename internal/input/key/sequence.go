package key

import (
	"strings"
)

// Sequence is an immutable, ordered series of strokes forming a chord.
// Examples: "Ctrl+K Ctrl+C", "g g", "Ctrl+S".
//
// Sequences are values. Two sequences with the same strokes are equal and
// share the same ID, so ID is the key every index uses.
type Sequence struct {
	strokes []Stroke
	id      string
}

// NewSequence creates a sequence from the given strokes. The strokes are
// copied; later changes to the argument do not affect the sequence.
func NewSequence(strokes ...Stroke) Sequence {
	if len(strokes) == 0 {
		return Sequence{}
	}
	own := make([]Stroke, len(strokes))
	copy(own, strokes)

	ids := make([]string, len(own))
	for i, s := range own {
		ids[i] = s.id()
	}
	return Sequence{strokes: own, id: strings.Join(ids, ",")}
}

// ID returns the canonical encoding of the sequence. Equal sequences have
// equal IDs and different sequences have different IDs.
func (s Sequence) ID() string {
	return s.id
}

// Len returns the number of strokes in the sequence.
func (s Sequence) Len() int {
	return len(s.strokes)
}

// IsEmpty returns true if the sequence has no strokes.
func (s Sequence) IsEmpty() bool {
	return len(s.strokes) == 0
}

// At returns the stroke at the given index and whether it exists.
func (s Sequence) At(index int) (Stroke, bool) {
	if index < 0 || index >= len(s.strokes) {
		return Stroke{}, false
	}
	return s.strokes[index], true
}

// Strokes returns a copy of the strokes.
func (s Sequence) Strokes() []Stroke {
	out := make([]Stroke, len(s.strokes))
	copy(out, s.strokes)
	return out
}

// Equals returns true if two sequences contain the same strokes.
func (s Sequence) Equals(other Sequence) bool {
	return s.id == other.id
}

// HasPrefix returns true if this sequence starts with the given prefix.
// Every sequence has the empty prefix.
func (s Sequence) HasPrefix(prefix Sequence) bool {
	if len(prefix.strokes) > len(s.strokes) {
		return false
	}
	for i, st := range prefix.strokes {
		if st != s.strokes[i] {
			return false
		}
	}
	return true
}

// Head returns a new sequence with only the first n strokes.
func (s Sequence) Head(n int) Sequence {
	if n >= len(s.strokes) {
		return s
	}
	if n <= 0 {
		return Sequence{}
	}
	return NewSequence(s.strokes[:n]...)
}

// Append returns a new sequence with the stroke added at the end.
func (s Sequence) Append(st Stroke) Sequence {
	strokes := make([]Stroke, len(s.strokes), len(s.strokes)+1)
	copy(strokes, s.strokes)
	return NewSequence(append(strokes, st)...)
}

// Prefixes returns Len()+1 sequences: index 0 is the empty sequence,
// indices 1..Len()-1 are the strict prefixes from shortest to longest and
// index Len() is the sequence itself.
func (s Sequence) Prefixes() []Sequence {
	out := make([]Sequence, len(s.strokes)+1)
	for i := 1; i < len(s.strokes); i++ {
		out[i] = NewSequence(s.strokes[:i]...)
	}
	out[len(s.strokes)] = s
	return out
}

// StrictPrefixes returns the non-empty proper prefixes, shortest first.
// A single-stroke sequence has none.
func (s Sequence) StrictPrefixes() []Sequence {
	if len(s.strokes) < 2 {
		return nil
	}
	return s.Prefixes()[1:len(s.strokes)]
}

// Cost returns the summed stroke cost of the sequence.
func (s Sequence) Cost() int {
	total := 0
	for _, st := range s.strokes {
		total += st.Cost()
	}
	return total
}

// String returns the canonical textual form, strokes separated by spaces.
// Examples: "Ctrl+K Ctrl+C", "g g", "Ctrl+S"
func (s Sequence) String() string {
	parts := make([]string, len(s.strokes))
	for i, st := range s.strokes {
		parts[i] = st.String()
	}
	return strings.Join(parts, " ")
}

// VimString returns a Vim-style representation.
// Examples: "gg", "diw", "<C-k><C-c>"
func (s Sequence) VimString() string {
	var sb strings.Builder
	for _, st := range s.strokes {
		sb.WriteString(st.VimString())
	}
	return sb.String()
}

// ParseSequence parses a key sequence string into a Sequence.
// The string can contain space-separated strokes or a continuous
// Vim-style sequence.
// Examples: "Ctrl+K Ctrl+C", "g g", "<C-x><C-s>", "dd"
func ParseSequence(s string) (Sequence, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Sequence{}, ErrEmptySpec
	}

	var strokes []Stroke

	if strings.ContainsAny(s, " \t") {
		for _, part := range strings.Fields(s) {
			st, err := Parse(part)
			if err != nil {
				return Sequence{}, err
			}
			strokes = append(strokes, st)
		}
		return NewSequence(strokes...), nil
	}

	// A lone modifier-style spec like "Ctrl+K" is one stroke. With a "+"
	// in it the spec can only be a chord, so a parse error is final.
	if !strings.HasPrefix(s, "<") && len([]rune(s)) > 1 {
		st, err := Parse(s)
		if err == nil {
			return NewSequence(st), nil
		}
		if strings.Contains(s, "+") {
			return Sequence{}, err
		}
	}

	runes := []rune(s)
	for i := 0; i < len(runes); {
		if runes[i] == '<' {
			end := strings.IndexRune(string(runes[i:]), '>')
			if end > 0 {
				inner := string(runes[i:])[:end+1]
				st, err := Parse(inner)
				if err != nil {
					return Sequence{}, err
				}
				strokes = append(strokes, st)
				i += len([]rune(inner))
				continue
			}
		}
		strokes = append(strokes, NewRuneStroke(runes[i], ModNone))
		i++
	}

	return NewSequence(strokes...), nil
}

// MustParseSequence parses a sequence string and panics on error.
// Use only for known-valid sequences in initialization code and tests.
func MustParseSequence(s string) Sequence {
	seq, err := ParseSequence(s)
	if err != nil {
		panic("invalid key sequence: " + s + ": " + err.Error())
	}
	return seq
}
