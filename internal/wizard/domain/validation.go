package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

const dateLayout = "2006-01-02"

// ValidationError carries per-field messages for a rejected form.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	if _, exists := f[field]; !exists {
		f[field] = msg
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}

// AuthInput is the api-key step form.
type AuthInput struct {
	Method             AuthMethod `json:"method"`
	APIKey             string     `json:"api_key"`
	Passphrase         string     `json:"passphrase"`
	DisclaimerAccepted bool       `json:"disclaimer_accepted"`
}

func ValidateAuth(in AuthInput) error {
	errs := fieldErrors{}
	if !in.DisclaimerAccepted {
		errs.add("disclaimer_accepted", "You must accept the disclaimer to continue")
	}
	key := strings.TrimSpace(in.APIKey)
	switch in.Method {
	case AuthOpenAI:
		switch {
		case key == "":
			errs.add("api_key", "API key is required")
		case !strings.HasPrefix(key, "sk-"):
			errs.add("api_key", "OpenAI API keys start with 'sk-'")
		case charCount(key) < 20:
			errs.add("api_key", "API key is too short")
		}
	case AuthMistral:
		switch {
		case key == "":
			errs.add("api_key", "API key is required")
		case charCount(key) < 8:
			errs.add("api_key", "API key is too short")
		}
	case AuthPassphrase:
		p := strings.TrimSpace(in.Passphrase)
		switch {
		case p == "":
			errs.add("passphrase", "Passphrase is required")
		case charCount(p) < 10:
			errs.add("passphrase", "Passphrase must be at least 10 characters")
		}
	case AuthTrial:
	default:
		errs.add("method", "Choose an authentication method")
	}
	return errs.err()
}

// BasicsInput is the project-basics step form.
type BasicsInput struct {
	Name      string `json:"name"`
	Goal      string `json:"goal"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func ValidateBasics(in BasicsInput) error {
	errs := fieldErrors{}
	if charCount(in.Name) < 2 {
		errs.add("name", "Project name must be at least 2 characters")
	}
	if charCount(in.Goal) < 20 {
		errs.add("goal", "Project goal must be at least 20 characters")
	}

	start, startOK := parseDate(errs, "start_date", "Start date", in.StartDate)
	end, endOK := parseDate(errs, "end_date", "End date", in.EndDate)
	if startOK && endOK && end.Before(start) {
		errs.add("end_date", "End date must not be before the start date")
	}
	return errs.err()
}

func parseDate(errs fieldErrors, field, label, value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		errs.add(field, label+" is required")
		return time.Time{}, false
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		errs.add(field, label+" must be formatted as YYYY-MM-DD")
		return time.Time{}, false
	}
	return t, true
}

// StakeholdersInput is the stakeholders step form.
type StakeholdersInput struct {
	Stakeholders  []Stakeholder `json:"stakeholders"`
	ImpactedUsers int           `json:"impacted_users"`
}

func ValidateStakeholders(in StakeholdersInput) error {
	errs := fieldErrors{}
	if len(in.Stakeholders) == 0 {
		errs.add("stakeholders", "Add at least one stakeholder")
	}
	for i, s := range in.Stakeholders {
		if charCount(s.Role) < 2 {
			errs.add(fmt.Sprintf("stakeholders[%d].role", i), "Role must be at least 2 characters")
		}
		if charCount(s.Impact) < 2 {
			errs.add(fmt.Sprintf("stakeholders[%d].impact", i), "Impact must be at least 2 characters")
		}
	}
	if in.ImpactedUsers < 1 {
		errs.add("impacted_users", "At least one user must be impacted")
	}
	return errs.err()
}

// BenefitsInput is the benefits step form.
type BenefitsInput struct {
	OrgBenefits  string `json:"org_benefits"`
	UserBenefits string `json:"user_benefits"`
	Challenges   string `json:"challenges"`
}

func ValidateBenefits(in BenefitsInput) error {
	errs := fieldErrors{}
	if charCount(in.OrgBenefits) < 20 {
		errs.add("org_benefits", "Organizational benefits must be at least 20 characters")
	}
	if charCount(in.UserBenefits) < 20 {
		errs.add("user_benefits", "User benefits must be at least 20 characters")
	}
	if charCount(in.Challenges) < 20 {
		errs.add("challenges", "Challenges must be at least 20 characters")
	}
	return errs.err()
}

func ValidateFeedback(feedback string) error {
	if strings.TrimSpace(feedback) == "" {
		return &ValidationError{Fields: map[string]string{"feedback": "Feedback is required"}}
	}
	return nil
}

// charCount counts characters, not bytes, after trimming.
func charCount(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}
