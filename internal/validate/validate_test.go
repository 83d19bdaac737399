package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"lexscribe/deposition-service/internal/models"
)

func TestLoginCredentialsRequiredFieldsShortCircuit(t *testing.T) {
	result := LoginCredentials("", "")
	assert.False(t, result.OK)
	assert.Equal(t, []string{MsgEmailRequired, MsgPasswordRequired}, result.Errors)

	result = LoginCredentials("", "Sup3rSecret!")
	assert.Equal(t, []string{MsgEmailRequired}, result.Errors)

	result = LoginCredentials("reporter@example.com", "")
	assert.Equal(t, []string{MsgPasswordRequired}, result.Errors)
}

func TestLoginCredentialsPasswordClasses(t *testing.T) {
	cases := []struct {
		name     string
		password string
		missing  string
	}{
		{"no uppercase", "sup3rsecret!", MsgPasswordUpper},
		{"no lowercase", "SUP3RSECRET!", MsgPasswordLower},
		{"no digit", "SuperSecret!", MsgPasswordDigit},
		{"no symbol", "Sup3rSecret", MsgPasswordSymbol},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			result := LoginCredentials("reporter@example.com", tt.password)
			assert.False(t, result.OK)
			assert.Contains(t, result.Errors, tt.missing)
		})
	}
}

func TestLoginCredentialsAccumulatesViolations(t *testing.T) {
	result := LoginCredentials("not-an-email", "short")
	assert.False(t, result.OK)
	assert.Contains(t, result.Errors, MsgEmailInvalid)
	assert.Contains(t, result.Errors, MsgPasswordTooShort)
	assert.Contains(t, result.Errors, MsgPasswordUpper)
	assert.Contains(t, result.Errors, MsgPasswordDigit)
	assert.Contains(t, result.Errors, MsgPasswordSymbol)
}

func TestLoginCredentialsValid(t *testing.T) {
	result := LoginCredentials("reporter@example.com", "Sup3rSecret!")
	assert.True(t, result.OK)
	assert.Empty(t, result.Errors)
}

func TestEmail(t *testing.T) {
	assert.True(t, Email("a.b+c@firm-name.co"))
	assert.False(t, Email("missing-at.example.com"))
	assert.False(t, Email("no-domain@"))
	assert.False(t, Email("no-tld@example"))
	assert.False(t, Email(""))
}

func TestPhone(t *testing.T) {
	assert.True(t, Phone("+1 (512) 555-0134"))
	assert.True(t, Phone("5125550134"))
	assert.False(t, Phone("555-013"))
	assert.False(t, Phone(""))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "scriptalert(1)/script", Sanitize("<script>alert(1)</script>"))
	assert.Equal(t, "plain text", Sanitize("plain text"))
}

func TestForRole(t *testing.T) {
	cases := []struct {
		name  string
		role  models.Role
		creds RoleCredentials
		want  bool
	}{
		{"attorney valid bar", models.RoleAttorney, RoleCredentials{BarNumber: "TX24001"}, true},
		{"attorney short bar", models.RoleAttorney, RoleCredentials{BarNumber: "AB12"}, false},
		{"attorney lowercase bar", models.RoleAttorney, RoleCredentials{BarNumber: "tx24001"}, false},
		{"attorney missing bar", models.RoleAttorney, RoleCredentials{}, false},
		{"reporter valid cert", models.RoleCourtReporter, RoleCredentials{CertificationNumber: "CSR9923"}, true},
		{"reporter short cert", models.RoleCourtReporter, RoleCredentials{CertificationNumber: "CSR99"}, false},
		{"reporter missing cert", models.RoleCourtReporter, RoleCredentials{}, false},
		{"scopist needs nothing", models.RoleScopist, RoleCredentials{}, true},
		{"videographer needs nothing", models.RoleVideographer, RoleCredentials{}, true},
		{"unknown role", models.Role("paralegal"), RoleCredentials{}, false},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ForRole(tt.role, tt.creds))
		})
	}
}
