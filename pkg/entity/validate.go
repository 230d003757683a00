package entity

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	validate = validator.New()

	// Company numbers are eight characters: digits, or a two-letter prefix
	// followed by six digits (e.g. SC123456, OC654321).
	companyNumberPattern = regexp.MustCompile(`^(\d{8}|[A-Za-z]{2}\d{6})$`)
)

// ErrMissingProfile marks a bundle with no profile record. Such bundles are
// skipped during graph construction, never treated as fatal.
var ErrMissingProfile = errors.New("bundle has no profile")

// ValidateBundle checks a bundle is usable as graph input. A nil profile
// returns ErrMissingProfile so callers can distinguish skip from reject.
func ValidateBundle(b *Bundle) error {
	if b == nil {
		return errors.New("bundle cannot be nil")
	}
	if b.Profile == nil {
		return ErrMissingProfile
	}
	if err := validate.Struct(b.Profile); err != nil {
		return fmt.Errorf("profile: %w", err)
	}
	if !companyNumberPattern.MatchString(b.Profile.CompanyNumber) {
		return fmt.Errorf("profile: company number %q is not a valid registry number", b.Profile.CompanyNumber)
	}
	return nil
}
