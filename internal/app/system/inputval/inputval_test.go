package inputval

import (
	"testing"
)

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		// Valid emails
		{"user@example.com", true},
		{"user.name@example.com", true},
		{"user+tag@example.com", true},
		{"user@subdomain.example.com", true},

		// Invalid emails
		{"", false},
		{"   ", false},
		{"notanemail", false},
		{"@example.com", false},
		{"user@", false},
		{"user example.com", false},
		{"Name <user@example.com>", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			got := IsValidEmail(tt.email)
			if got != tt.want {
				t.Errorf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}

func TestIsValidHTTPURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"http://localhost:8080", true},
		{"https://wakapi.example.com", true},
		{"https://example.com/path", true},

		{"", false},
		{"   ", false},
		{"example.com", false},
		{"ftp://example.com", false},
		{"javascript:alert(1)", false},
		{"http://", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got := IsValidHTTPURL(tt.url)
			if got != tt.want {
				t.Errorf("IsValidHTTPURL(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestIsValidDate(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"2024-01-31", true},
		{"2024-02-30", false},
		{"01/31/2024", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsValidDate(tt.in); got != tt.want {
			t.Errorf("IsValidDate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValidate_Login(t *testing.T) {
	tests := []struct {
		name    string
		input   LoginInput
		wantMsg string
	}{
		{"valid", LoginInput{Username: "alice", Password: "secret"}, ""},
		{"missing username", LoginInput{Password: "secret"}, "Username is required."},
		{"missing password", LoginInput{Username: "alice"}, "Password is required."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate(tt.input).First()
			if got != tt.wantMsg {
				t.Errorf("Validate() first error = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestValidate_Signup(t *testing.T) {
	valid := SignupInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "secret1",
	}
	if res := Validate(valid); res.HasErrors() {
		t.Fatalf("valid signup rejected: %s", res.All())
	}

	badEmail := valid
	badEmail.Email = "nope"
	if res := Validate(&badEmail); res.First() != "A valid email address is required." {
		t.Errorf("bad email error = %q", res.First())
	}

	noPassword := valid
	noPassword.Password = ""
	if res := Validate(noPassword); res.First() != "Password is required." {
		t.Errorf("missing password error = %q", res.First())
	}
}

func TestValidate_DateRange(t *testing.T) {
	if res := Validate(DateRangeInput{Start: "2024-01-01", End: "2024-01-07"}); res.HasErrors() {
		t.Errorf("valid range rejected: %s", res.First())
	}
	if res := Validate(DateRangeInput{Start: "2024-01-07", End: "2024-01-01"}); !res.HasErrors() {
		t.Error("reversed range should fail")
	}
	res := Validate(DateRangeInput{Start: "yesterday", End: "2024-01-01"})
	if res.First() != "Start date must be a date in YYYY-MM-DD format." {
		t.Errorf("bad date error = %q", res.First())
	}
}

func TestResult_First(t *testing.T) {
	r := &Result{}
	if got := r.First(); got != "" {
		t.Errorf("First() on empty result = %q, want empty string", got)
	}

	r = &Result{
		Errors: []FieldError{
			{Field: "username", Label: "Username", Message: "Username is required."},
			{Field: "password", Label: "Password", Message: "Password is required."},
		},
	}
	if got := r.First(); got != "Username is required." {
		t.Errorf("First() = %q, want %q", got, "Username is required.")
	}
	want := "Username is required.; Password is required."
	if got := r.All(); got != want {
		t.Errorf("All() = %q, want %q", got, want)
	}
}

func TestValidate_NonStruct(t *testing.T) {
	result := Validate("not a struct")
	if result == nil {
		t.Error("Validate() non-struct should return non-nil result")
	}
}

func TestValidate_NoLabel(t *testing.T) {
	type Input struct {
		Name string `validate:"required"`
	}

	result := Validate(Input{Name: ""})
	if result.First() != "Name is required." {
		t.Errorf("Validate() error message = %q, want field name message", result.First())
	}
}
