package service

// collectPresent filters nil entries out of a pointer slice.
func collectPresent(values []*float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// meanOf averages the present values, nil when none are present. Absent
// values never count as zero.
func meanOf(values []*float64) *float64 {
	present := collectPresent(values)
	if len(present) == 0 {
		return nil
	}
	var sum float64
	for _, v := range present {
		sum += v
	}
	return floatPtr(sum / float64(len(present)))
}

// meanOfMeans averages a set of already-averaged values, skipping absent
// entries. Kept separate because it intentionally weights each group equally
// regardless of group size.
func meanOfMeans(groupMeans []*float64) *float64 {
	return meanOf(groupMeans)
}

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }
