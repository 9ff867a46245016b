package ledger

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/mmynk/sharethebill/internal/calculator"
	"github.com/mmynk/sharethebill/internal/models"
)

// Limits on bill input. Lengths count runes, after trimming.
const (
	// MaxParticipants is the most participants a bill may have, creator included.
	MaxParticipants = 50
	// MaxTitleLength bounds Bill.Title.
	MaxTitleLength = 100
	// MaxDescLength bounds Bill.Description.
	MaxDescLength = 500
	// MaxTags is the most tags an input may list.
	MaxTags = 10
	// MaxTagLength bounds each tag.
	MaxTagLength = 32

	maxReasonLength = 200 // failure reasons are truncated, not rejected
)

// maxTotal bounds a single bill per currency.
var maxTotal = map[models.Currency]decimal.Decimal{
	models.CurrencyUSDC: decimal.NewFromInt(1_000_000),
	models.CurrencyETH:  decimal.NewFromInt(10_000),
}

var txHashPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// ParticipantInput is one participant of a new bill. Amount is read for
// custom splits and Percentage for percentage splits.
type ParticipantInput struct {
	FID        int64
	Amount     decimal.Decimal
	Percentage decimal.Decimal
}

// CreateBillInput describes a bill to create.
//
// For equal splits the creator is added as the first participant when not
// listed. Custom and percentage splits must list the creator explicitly,
// since the creator's own share is part of the declared amounts.
type CreateBillInput struct {
	Title        string
	Description  string
	TotalAmount  decimal.Decimal
	Currency     models.Currency
	SplitType    models.SplitType
	CreatorFID   int64
	Participants []ParticipantInput
	DueDate      *time.Time
	Tags         []string
}

func (in *CreateBillInput) validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)

	switch {
	case in.Title == "":
		return fmt.Errorf("%w: title is required", ErrValidation)
	case utf8.RuneCountInString(in.Title) > MaxTitleLength:
		return fmt.Errorf("%w: title must be at most %d characters", ErrValidation, MaxTitleLength)
	case utf8.RuneCountInString(in.Description) > MaxDescLength:
		return fmt.Errorf("%w: description must be at most %d characters", ErrValidation, MaxDescLength)
	case in.CreatorFID <= 0:
		return fmt.Errorf("%w: creator fid is required", ErrValidation)
	case !in.Currency.Valid():
		return fmt.Errorf("%w: unsupported currency %q", ErrValidation, in.Currency)
	case !in.SplitType.Valid():
		return fmt.Errorf("%w: unknown split type %q", ErrValidation, in.SplitType)
	case !in.TotalAmount.IsPositive():
		return fmt.Errorf("%w: total amount must be greater than zero", ErrValidation)
	case in.TotalAmount.GreaterThan(maxTotal[in.Currency]):
		return fmt.Errorf("%w: total amount exceeds %s %s", ErrValidation, maxTotal[in.Currency], in.Currency)
	case len(in.Participants) == 0:
		return fmt.Errorf("%w: at least one participant is required", ErrValidation)
	case len(in.Participants) > MaxParticipants:
		return fmt.Errorf("%w: at most %d participants are allowed", ErrValidation, MaxParticipants)
	}

	seen := make(map[int64]bool, len(in.Participants))
	for _, p := range in.Participants {
		if p.FID <= 0 {
			return fmt.Errorf("%w: invalid participant fid %d", ErrValidation, p.FID)
		}
		if seen[p.FID] {
			return fmt.Errorf("%w: duplicate participant fid %d", ErrValidation, p.FID)
		}
		seen[p.FID] = true
	}
	if !seen[in.CreatorFID] && in.SplitType != models.SplitEqual {
		return fmt.Errorf("%w: creator must be listed as a participant for %s splits", ErrValidation, in.SplitType)
	}

	tags, err := normalizeTags(in.Tags)
	if err != nil {
		return err
	}
	in.Tags = tags
	return nil
}

// split returns participant fids in insertion order with their amounts.
func (in *CreateBillInput) split() ([]int64, []decimal.Decimal, error) {
	participants := in.Participants
	if in.SplitType == models.SplitEqual && !listsFID(participants, in.CreatorFID) {
		participants = append([]ParticipantInput{{FID: in.CreatorFID}}, participants...)
		if len(participants) > MaxParticipants {
			return nil, nil, fmt.Errorf("%w: at most %d participants are allowed", ErrValidation, MaxParticipants)
		}
	}

	fids := make([]int64, len(participants))
	shares := make([]calculator.Share, len(participants))
	for i, p := range participants {
		fids[i] = p.FID
		shares[i] = calculator.Share{Amount: p.Amount, Percentage: p.Percentage}
	}

	amounts, err := calculator.CalculateSplit(in.TotalAmount, in.SplitType, shares)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return fids, amounts, nil
}

func listsFID(participants []ParticipantInput, fid int64) bool {
	for _, p := range participants {
		if p.FID == fid {
			return true
		}
	}
	return false
}

func normalizeTags(tags []string) ([]string, error) {
	if len(tags) > MaxTags {
		return nil, fmt.Errorf("%w: at most %d tags are allowed", ErrValidation, MaxTags)
	}
	var out []string
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		if utf8.RuneCountInString(t) > MaxTagLength {
			return nil, fmt.Errorf("%w: tag %q is longer than %d characters", ErrValidation, t, MaxTagLength)
		}
		seen[t] = true
		out = append(out, t)
	}
	return out, nil
}

// MetadataUpdate lists the bill fields a creator may change. Nil fields are
// left untouched. Amounts and participants are never updatable.
type MetadataUpdate struct {
	Title       *string
	Description *string
	// Status may only be set to cancelled.
	Status  *models.BillStatus
	DueDate *time.Time
	// ClearDueDate removes the due date. It wins over DueDate.
	ClearDueDate bool
	Tags         *[]string
}

func (u *MetadataUpdate) validate() error {
	if u.Title != nil {
		t := strings.TrimSpace(*u.Title)
		if t == "" {
			return fmt.Errorf("%w: title cannot be empty", ErrValidation)
		}
		if utf8.RuneCountInString(t) > MaxTitleLength {
			return fmt.Errorf("%w: title must be at most %d characters", ErrValidation, MaxTitleLength)
		}
		u.Title = &t
	}
	if u.Description != nil {
		desc := strings.TrimSpace(*u.Description)
		if utf8.RuneCountInString(desc) > MaxDescLength {
			return fmt.Errorf("%w: description must be at most %d characters", ErrValidation, MaxDescLength)
		}
		u.Description = &desc
	}
	if u.Status != nil && *u.Status != models.BillCancelled {
		return fmt.Errorf("%w: status can only be set to %q", ErrValidation, models.BillCancelled)
	}
	if u.Tags != nil {
		tags, err := normalizeTags(*u.Tags)
		if err != nil {
			return err
		}
		u.Tags = &tags
	}
	return nil
}

func (u MetadataUpdate) apply(b *models.Bill) {
	if u.Title != nil {
		b.Title = *u.Title
	}
	if u.Description != nil {
		b.Description = *u.Description
	}
	switch {
	case u.ClearDueDate:
		b.DueDate = nil
	case u.DueDate != nil:
		b.DueDate = utcPtr(u.DueDate)
	}
	if u.Tags != nil {
		b.Tags = *u.Tags
	}
}

func withinOneCent(a, b decimal.Decimal) bool {
	return calculator.WithinEpsilon(a, b)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
