package indicator

import (
	"strconv"
	"strings"

	"QuantPanel/internal/domain/models"
)

// ParseWindowSet parses a comma-separated list of moving-average lengths such
// as "50, 100, 200". Tokens that are not plain positive integers are dropped;
// an input without any usable token is a config error.
func ParseWindowSet(s string) (models.WindowSet, error) {
	tokens := strings.Split(s, ",")
	lengths := make([]int, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" || !isDigits(tok) {
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil {
			// overflow
			continue
		}
		lengths = append(lengths, n)
	}
	return models.NewWindowSet(lengths)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
