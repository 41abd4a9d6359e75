package sliceops

// Filter returns a new slice with only the items that the given function
// returns true for.
func Filter[E any](sl []E, fn func(E) bool) []E {
	var newItems []E
	for _, item := range sl {
		if fn(item) {
			newItems = append(newItems, item)
		}
	}
	return newItems
}
