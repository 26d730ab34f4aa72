package notes

// Quality identifies a chord quality
type Quality string

const (
	Major      Quality = "major"
	Minor      Quality = "minor"
	Seventh    Quality = "7"
	Major7     Quality = "maj7"
	Minor7     Quality = "min7"
	Sus2       Quality = "sus2"
	Sus4       Quality = "sus4"
	Diminished Quality = "dim"
	Augmented  Quality = "aug"
)

// intervals maps a chord quality to semitone offsets from the root
var intervals = map[Quality][]int{
	Major:      {0, 4, 7},
	Minor:      {0, 3, 7},
	Seventh:    {0, 4, 7, 10},
	Major7:     {0, 4, 7, 11},
	Minor7:     {0, 3, 7, 10},
	Sus2:       {0, 2, 7},
	Sus4:       {0, 5, 7},
	Diminished: {0, 3, 6},
	Augmented:  {0, 4, 8},
}

// Qualities returns the known chord qualities in display order
func Qualities() []Quality {
	return []Quality{Major, Minor, Seventh, Major7, Minor7, Sus2, Sus4, Diminished, Augmented}
}

// Chord returns the member notes of root+quality, lowest first.
// An unknown quality falls back to a major triad.
func Chord(root Note, quality Quality) []Note {
	iv, ok := intervals[quality]
	if !ok {
		iv = intervals[Major]
	}
	out := make([]Note, 0, len(iv))
	for _, semis := range iv {
		out = append(out, root.Transpose(semis))
	}
	return out
}

// Spread produces an ordered note set of count entries for the string zones:
// the chord tones repeated upward through octaves until count is reached.
// Notes beyond the original chord members are flagged Secondary.
func Spread(root Note, quality Quality, count int) []Note {
	if count <= 0 {
		return nil
	}
	chord := Chord(root, quality)
	out := make([]Note, 0, count)
	for i := 0; i < count; i++ {
		n := chord[i%len(chord)].Transpose(12 * (i / len(chord)))
		n.Secondary = i >= len(chord)
		out = append(out, n)
	}
	return out
}
