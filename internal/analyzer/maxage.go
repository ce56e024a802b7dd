package analyzer

import (
	"math"
	"strconv"
	"strings"

	sherrors "github.com/khanhnv2901/hdrscan/internal/shared/errors"
)

// parseMaxAge concatenates every ASCII digit of an STS value and parses the
// result. No digits returns ErrMalformedMaxAge with age 0; values beyond
// int64 saturate.
func parseMaxAge(value string) (int64, error) {
	var digits strings.Builder
	for i := 0; i < len(value); i++ {
		if c := value[i]; c >= '0' && c <= '9' {
			digits.WriteByte(c)
		}
	}
	if digits.Len() == 0 {
		return 0, sherrors.ErrMalformedMaxAge
	}
	age, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return math.MaxInt64, nil
	}
	return age, nil
}
