package roll

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jwhan/contango/internal/market"
)

// Target is a parsed constant-maturity symbol such as "SR3.cm.182":
// the product root plus the target maturity in days.
type Target struct {
	Symbol       string
	Root         string
	MaturityDays int
}

// ParseTarget parses a constant-maturity symbol. The component after
// the final "." must be the integer day count; the component before the
// first "." is the product root used for symbol filtering.
func ParseTarget(symbol string) (Target, error) {
	parts := strings.Split(symbol, ".")
	if len(parts) < 2 {
		return Target{}, fmt.Errorf("%w: %q", market.ErrParse, symbol)
	}

	days, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return Target{}, fmt.Errorf("%w: %q must end with days to maturity", market.ErrParse, symbol)
	}
	if days <= 0 {
		return Target{}, fmt.Errorf("%w: %q has non-positive maturity", market.ErrParse, symbol)
	}

	return Target{
		Symbol:       symbol,
		Root:         parts[0],
		MaturityDays: days,
	}, nil
}

// Maturity returns the target maturity as a duration
func (t Target) Maturity() time.Duration {
	return time.Duration(t.MaturityDays) * 24 * time.Hour
}

// TargetDate returns d + maturity days at date granularity
func (t Target) TargetDate(d time.Time) time.Time {
	return market.DateOf(d).AddDate(0, 0, t.MaturityDays)
}
