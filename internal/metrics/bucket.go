package metrics

// Bucket maps value onto a bucket index given an ascending threshold list.
// The index is the count of thresholds less than or equal to the value:
// values below the first threshold map to bucket 0, values at or above the
// last threshold map to bucket len(thresholds).
func Bucket(value uint64, thresholds []uint64) int {
	idx := 0
	for _, t := range thresholds {
		if value < t {
			break
		}
		idx++
	}
	return idx
}
