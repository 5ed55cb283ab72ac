package appdata

import (
	"strings"
	"time"

	"github.com/charlie0129/tomato/pkg/apperr"
)

// DateLayout is the layout of every date string tomato stores.
const DateLayout = "2006-01-02"

// ValidateDate checks that date is a real YYYY-MM-DD date.
func ValidateDate(date string) error {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return apperr.Validationf("date %q must be formatted as YYYY-MM-DD", date)
	}
	return nil
}

// ValidateDateRange checks both ends of r and that From is not after To.
func ValidateDateRange(r DateRange) error {
	if err := ValidateDate(r.From); err != nil {
		return err
	}
	if err := ValidateDate(r.To); err != nil {
		return err
	}
	if r.From > r.To {
		return apperr.Validationf("range start %s is after range end %s", r.From, r.To)
	}
	return nil
}

// ValidateBlacklist checks that every item has a name and a display name and
// that names are unique, ignoring case.
func ValidateBlacklist(items []BlacklistItem) error {
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			return apperr.Validationf("blacklist entry name must not be empty")
		}
		if strings.TrimSpace(it.DisplayName) == "" {
			return apperr.Validationf("blacklist entry %q must have a display name", name)
		}
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			return apperr.Validationf("duplicate blacklist entry %q", name)
		}
		seen[key] = struct{}{}
	}
	return nil
}
