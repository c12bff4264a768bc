package shogi

func Min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func Max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func MovesToStrings(moves []Move) []string {
	var result = make([]string, len(moves))
	for i, m := range moves {
		result[i] = m.String()
	}
	return result
}
