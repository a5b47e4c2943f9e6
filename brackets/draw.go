package brackets

// SplitGroups shuffles the entrants and deals them into two groups, group A
// taking the larger half when the count is odd. shuffle has the signature of
// rand.Shuffle; pass nil to keep the given order.
func SplitGroups(ids []string, shuffle func(n int, swap func(i, j int))) (groupA, groupB []string) {
	pool := make([]string, len(ids))
	copy(pool, ids)
	if shuffle != nil {
		shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	}

	half := (len(pool) + 1) / 2
	return pool[:half], pool[half:]
}
