package utils

// UniqueUint removes duplicates and zero ids, keeping the first occurrence order.
func UniqueUint(slice []uint) []uint {
	seen := make(map[uint]struct{}, len(slice))
	list := make([]uint, 0, len(slice))
	for _, v := range slice {
		if v == 0 {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		list = append(list, v)
	}
	return list
}
