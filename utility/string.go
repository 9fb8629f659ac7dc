package utility

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ToInt converts a string to an integer, fractional part is dropped
func ToInt(s string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return int(f)
}

// SplitList splits comma separated device model values like "A,W"
func SplitList(s string) []string {
	var list []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			list = append(list, part)
		}
	}
	return list
}

func NewUUID() string {
	return uuid.New().String()
}
