package controller

import (
	"context"
	"fmt"
	"strings"

	e "github.com/gartstein/professionals/internal/professional/errors"
	"github.com/gartstein/professionals/internal/professional/models"
	"github.com/go-playground/validator/v10"
)

const (
	minPhoneDigits = 7
	maxPhoneDigits = 15
	maxTextLength  = 255
	maxEmailLength = 254
)

var fieldRules = validator.New()

// ValidateProfessional normalizes a candidate record and checks it against the
// profile rules. matched is the profile the candidate resolved to (nil when it
// is new): it relaxes the create-only requirements and is excluded from the
// uniqueness checks. The returned input keeps absent fields nil.
func ValidateProfessional(
	ctx context.Context,
	store IdentityStore,
	in models.ProfessionalInput,
	matched *models.Professional,
) (models.ProfessionalInput, error) {
	var (
		out       models.ProfessionalInput
		problems  = &e.ValidationError{}
		excludeID uint64
	)
	if matched != nil {
		excludeID = matched.ID
	}

	switch {
	case in.FullName != nil:
		name := strings.TrimSpace(*in.FullName)
		if name == "" {
			problems.Add("full_name", e.CodeRequired, "full_name is required")
		} else if len(name) > maxTextLength {
			problems.Add("full_name", e.CodeTooLong, fmt.Sprintf("full_name must be at most %d characters", maxTextLength))
		} else {
			out.FullName = &name
		}
	case matched == nil:
		problems.Add("full_name", e.CodeRequired, "full_name is required")
	}

	email := trimmed(in.Email)
	if email != "" {
		if err := fieldRules.Var(email, fmt.Sprintf("email,max=%d", maxEmailLength)); err != nil {
			problems.Add("email", e.CodeInvalidEmail, "email must be a valid email address")
		} else {
			out.Email = &email
		}
	}

	var digits string
	if raw := trimmed(in.Phone); raw != "" {
		digits = NormalizePhone(raw)
		if len(digits) < minPhoneDigits || len(digits) > maxPhoneDigits {
			problems.Add("phone", e.CodeInvalidPhone,
				fmt.Sprintf("phone must be between %d and %d digits", minPhoneDigits, maxPhoneDigits))
		} else {
			out.Phone = &digits
		}
	}

	if email == "" && digits == "" {
		problems.Add("identifier", e.CodeMissingIdentifier, "either email or phone is required")
	}

	switch {
	case in.Source != nil:
		source := models.Source(strings.TrimSpace(*in.Source))
		if !source.Valid() {
			problems.Add("source", e.CodeInvalidSource, sourceMessage("source is invalid"))
		} else {
			value := string(source)
			out.Source = &value
		}
	case matched == nil:
		problems.Add("source", e.CodeInvalidSource, sourceMessage("source is required"))
	}

	if in.CompanyName != nil {
		if len(*in.CompanyName) > maxTextLength {
			problems.Add("company_name", e.CodeTooLong, fmt.Sprintf("company_name must be at most %d characters", maxTextLength))
		} else {
			out.CompanyName = in.CompanyName
		}
	}
	if in.JobTitle != nil {
		if len(*in.JobTitle) > maxTextLength {
			problems.Add("job_title", e.CodeTooLong, fmt.Sprintf("job_title must be at most %d characters", maxTextLength))
		} else {
			out.JobTitle = in.JobTitle
		}
	}

	if out.Email != nil {
		taken, err := store.EmailTaken(ctx, *out.Email, excludeID)
		if err != nil {
			return models.ProfessionalInput{}, fmt.Errorf("failed to check email uniqueness: %w", err)
		}
		if taken {
			problems.Add("email", e.CodeDuplicateIdentifier, "email already belongs to another professional")
		}
	}
	if out.Phone != nil {
		taken, err := store.PhoneTaken(ctx, *out.Phone, excludeID)
		if err != nil {
			return models.ProfessionalInput{}, fmt.Errorf("failed to check phone uniqueness: %w", err)
		}
		if taken {
			problems.Add("phone", e.CodeDuplicateIdentifier, "phone already belongs to another professional")
		}
	}

	if !problems.Empty() {
		return models.ProfessionalInput{}, problems
	}
	return out, nil
}

func sourceMessage(prefix string) string {
	allowed := make([]string, 0, len(models.Sources))
	for _, s := range models.Sources {
		allowed = append(allowed, string(s))
	}
	return fmt.Sprintf("%s and must be one of: %s", prefix, strings.Join(allowed, ", "))
}
