package utility

func Contains(array []string, s string) bool {
	for _, v := range array {
		if v == s {
			return true
		}
	}
	return false
}

func ContainsInt(array []int, i int) bool {
	for _, v := range array {
		if v == i {
			return true
		}
	}
	return false
}
