// Package validate holds the pure input checks run before any network call:
// login credential shape, markup sanitization, and role-specific credential
// format checks.
package validate

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"lexscribe/deposition-service/internal/models"
)

const (
	MsgEmailRequired    = "Please enter your email address"
	MsgPasswordRequired = "Please enter your password"
	MsgEmailInvalid     = "Please enter a valid email address"
	MsgPasswordTooShort = "Password must be at least 8 characters long"
	MsgPasswordUpper    = "Password must contain at least one uppercase letter"
	MsgPasswordLower    = "Password must contain at least one lowercase letter"
	MsgPasswordDigit    = "Password must contain at least one number"
	MsgPasswordSymbol   = "Password must contain at least one special character"
)

var (
	emailRx = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phoneRx = regexp.MustCompile(`^\+?[\d\s\-()]{10,}$`)
	barRx   = regexp.MustCompile(`^[A-Z0-9]{5,}$`)
	certRx  = regexp.MustCompile(`^[A-Z0-9]{6,}$`)
)

type Result struct {
	OK     bool
	Errors []string
}

// LoginCredentials checks email and password shape. An entirely absent field
// short-circuits with a single "required" message before format checks run;
// otherwise every violation accumulates.
func LoginCredentials(email, password string) Result {
	var errs []string

	if email == "" {
		errs = append(errs, MsgEmailRequired)
	}
	if password == "" {
		errs = append(errs, MsgPasswordRequired)
	}
	if len(errs) > 0 {
		return Result{OK: false, Errors: errs}
	}

	if !emailRx.MatchString(email) {
		errs = append(errs, MsgEmailInvalid)
	}
	errs = append(errs, passwordViolations(password)...)

	return Result{OK: len(errs) == 0, Errors: errs}
}

func passwordViolations(password string) []string {
	var errs []string
	if utf8.RuneCountInString(password) < 8 {
		errs = append(errs, MsgPasswordTooShort)
	}
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	if !hasUpper {
		errs = append(errs, MsgPasswordUpper)
	}
	if !hasLower {
		errs = append(errs, MsgPasswordLower)
	}
	if !hasDigit {
		errs = append(errs, MsgPasswordDigit)
	}
	if !hasSymbol {
		errs = append(errs, MsgPasswordSymbol)
	}
	return errs
}

// Password validates a password on its own, for the update-password flow.
func Password(password string) Result {
	if password == "" {
		return Result{OK: false, Errors: []string{MsgPasswordRequired}}
	}
	errs := passwordViolations(password)
	return Result{OK: len(errs) == 0, Errors: errs}
}

// Sanitize strips markup-injection characters from user input.
func Sanitize(input string) string {
	return strings.NewReplacer("<", "", ">", "").Replace(input)
}

func Email(email string) bool {
	return email != "" && emailRx.MatchString(email)
}

func Phone(phone string) bool {
	return phone != "" && phoneRx.MatchString(phone)
}

// RoleCredentials holds the role-specific identifiers collected at sign-up.
type RoleCredentials struct {
	BarNumber           string `json:"bar_number,omitempty"`
	CertificationNumber string `json:"certification_number,omitempty"`
}

// ForRole format-checks the credential required by the given role. Roles with
// no credential requirement pass; missing or malformed values fail.
func ForRole(role models.Role, creds RoleCredentials) bool {
	switch role {
	case models.RoleAttorney:
		return barRx.MatchString(creds.BarNumber)
	case models.RoleCourtReporter:
		return certRx.MatchString(creds.CertificationNumber)
	case models.RoleLegalStaff, models.RoleAdministrator, models.RoleVideographer, models.RoleScopist:
		return true
	default:
		return false
	}
}
