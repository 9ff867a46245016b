package calculator

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/sharethebill/internal/models"
)

// Places is the number of decimal places every amount is kept at.
const Places = 2

var (
	// Epsilon is the tolerance used when comparing declared sums to totals.
	Epsilon = decimal.New(1, -Places)

	hundred = decimal.NewFromInt(100)
)

var (
	ErrNoParticipants   = errors.New("must have at least one participant")
	ErrInvalidTotal     = errors.New("total must be positive with at most 2 decimal places")
	ErrInvalidShare     = errors.New("invalid share")
	ErrSumMismatch      = errors.New("split does not sum to total")
	ErrUnknownSplitType = errors.New("unknown split type")
)

// Share is one participant's input to a split. Amount is read for custom
// splits, Percentage for percentage splits; both are ignored for equal splits.
type Share struct {
	Amount     decimal.Decimal
	Percentage decimal.Decimal
}

// CalculateSplit returns one amount per share, in input order, summing exactly
// to total.
//
// Any rounding residual, for every split type, is absorbed by the first
// participant that can take it without going negative.
func CalculateSplit(total decimal.Decimal, splitType models.SplitType, shares []Share) ([]decimal.Decimal, error) {
	if len(shares) == 0 {
		return nil, ErrNoParticipants
	}
	if !total.IsPositive() || !total.Equal(total.Truncate(Places)) {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidTotal, total)
	}

	switch splitType {
	case models.SplitEqual:
		return equalSplit(total, len(shares)), nil
	case models.SplitCustom:
		return customSplit(total, shares)
	case models.SplitPercentage:
		return percentageSplit(total, shares)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSplitType, splitType)
	}
}

// equalSplit truncates every share to whole minor units and gives the
// remainder to the first participant.
func equalSplit(total decimal.Decimal, n int) []decimal.Decimal {
	cents := total.Shift(Places).IntPart()
	base := cents / int64(n)
	rem := cents - base*int64(n)

	amounts := make([]decimal.Decimal, n)
	for i := range amounts {
		amounts[i] = decimal.New(base, -Places)
	}
	amounts[0] = decimal.New(base+rem, -Places)
	return amounts
}

func customSplit(total decimal.Decimal, shares []Share) ([]decimal.Decimal, error) {
	amounts := make([]decimal.Decimal, len(shares))
	sum := decimal.Zero
	for i, s := range shares {
		if s.Amount.IsNegative() {
			return nil, fmt.Errorf("%w: amount %s at position %d is negative", ErrInvalidShare, s.Amount, i)
		}
		if !s.Amount.Equal(s.Amount.Truncate(Places)) {
			return nil, fmt.Errorf("%w: amount %s at position %d has more than %d decimal places", ErrInvalidShare, s.Amount, i, Places)
		}
		amounts[i] = s.Amount
		sum = sum.Add(s.Amount)
	}
	if err := checkSum(sum, total); err != nil {
		return nil, err
	}
	return absorbResidual(amounts, total.Sub(sum)), nil
}

func percentageSplit(total decimal.Decimal, shares []Share) ([]decimal.Decimal, error) {
	pctSum := decimal.Zero
	for i, s := range shares {
		if s.Percentage.IsNegative() {
			return nil, fmt.Errorf("%w: percentage %s at position %d is negative", ErrInvalidShare, s.Percentage, i)
		}
		pctSum = pctSum.Add(s.Percentage)
	}
	if pctSum.Sub(hundred).Abs().GreaterThan(Epsilon) {
		return nil, fmt.Errorf("%w: percentages sum to %s, expected 100", ErrSumMismatch, pctSum)
	}

	amounts := make([]decimal.Decimal, len(shares))
	sum := decimal.Zero
	for i, s := range shares {
		amounts[i] = total.Mul(s.Percentage).Div(hundred).Round(Places)
		sum = sum.Add(amounts[i])
	}
	if err := checkSum(sum, total); err != nil {
		return nil, err
	}
	return absorbResidual(amounts, total.Sub(sum)), nil
}

func checkSum(sum, total decimal.Decimal) error {
	if diff := sum.Sub(total).Abs(); diff.GreaterThan(Epsilon) {
		return fmt.Errorf("%w: computed %s, expected %s (difference %s)", ErrSumMismatch, sum.StringFixed(Places), total.StringFixed(Places), diff.StringFixed(Places))
	}
	return nil
}

func absorbResidual(amounts []decimal.Decimal, residual decimal.Decimal) []decimal.Decimal {
	if residual.IsZero() {
		return amounts
	}
	for i := range amounts {
		if adjusted := amounts[i].Add(residual); !adjusted.IsNegative() {
			amounts[i] = adjusted
			return amounts
		}
	}
	return amounts
}

// Sum adds up amounts.
func Sum(amounts []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// WithinEpsilon reports whether a and b differ by at most Epsilon.
func WithinEpsilon(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(Epsilon)
}
