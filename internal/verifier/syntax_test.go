package verifier

import "testing"

func TestValidateSyntax(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		email string
		want  bool
	}{
		{"simple valid", "test@example.com", true},
		{"subdomain", "user@mail.example.co.uk", true},
		{"plus tag", "user+tag@example.com", true},
		{"dotted local", "first.last@example.com", true},
		{"no at sign", "testexample.com", false},
		{"two at signs", "a@b@example.com", false},
		{"empty local part", "@example.com", false},
		{"empty domain part", "test@", false},
		{"no dot in domain", "test@localhost", false},
		{"leading dot in domain", "test@.example.com", false},
		{"trailing dot in domain", "test@example.com.", false},
		{"embedded space", "te st@example.com", false},
		{"empty string", "", false},
		{"only at", "@", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ValidateSyntax(tt.email); got != tt.want {
				t.Errorf("ValidateSyntax(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}

func TestDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		email string
		want  string
	}{
		{"test@example.com", "example.com"},
		{"Test@EXAMPLE.COM", "example.com"},
		{"user@Mail.Example.Org", "mail.example.org"},
	}

	for _, tt := range tests {
		if got := Domain(tt.email); got != tt.want {
			t.Errorf("Domain(%q) = %q, want %q", tt.email, got, tt.want)
		}
	}
}

func TestLocalPart(t *testing.T) {
	t.Parallel()

	tests := []struct {
		email string
		want  string
	}{
		{"test@example.com", "test"},
		{"Admin@example.com", "admin"},
		{"SUPPORT@example.com", "support"},
	}

	for _, tt := range tests {
		if got := LocalPart(tt.email); got != tt.want {
			t.Errorf("LocalPart(%q) = %q, want %q", tt.email, got, tt.want)
		}
	}
}
