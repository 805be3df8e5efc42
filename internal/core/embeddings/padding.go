package embeddings

// PadToTargetDimensions fits vec to target length: longer vectors are cut,
// shorter ones are zero-padded, which leaves cosine similarity unchanged.
func PadToTargetDimensions(vec []float32, target int) []float32 {
	switch {
	case len(vec) == target:
		return vec
	case len(vec) > target:
		return vec[:target]
	}

	padded := make([]float32, target)
	copy(padded, vec)

	return padded
}
