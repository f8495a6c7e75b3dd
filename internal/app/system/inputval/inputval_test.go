package inputval

import "testing"

func TestValidate(t *testing.T) {
	type memberInput struct {
		Name  string `validate:"required,max=10" label:"Name"`
		Email string `validate:"required,email" label:"Email"`
		Phone string `validate:"omitempty,digits" label:"Phone number"`
	}

	tests := []struct {
		name      string
		input     memberInput
		wantErrs  bool
		wantFirst string
	}{
		{"valid", memberInput{Name: "Sara", Email: "sara@example.com"}, false, ""},
		{"missing name", memberInput{Email: "sara@example.com"}, true, "Name is required."},
		{"name too long", memberInput{Name: "VeryLongNameIndeed", Email: "sara@example.com"}, true, "Name must be at most 10 characters."},
		{"bad email", memberInput{Name: "Sara", Email: "nope"}, true, "A valid email address is required."},
		{"phone letters", memberInput{Name: "Sara", Email: "sara@example.com", Phone: "05x"}, true, "Phone number must contain digits only."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(tt.input)
			if res.HasErrors() != tt.wantErrs {
				t.Fatalf("HasErrors() = %v, want %v (%s)", res.HasErrors(), tt.wantErrs, res.All())
			}
			if tt.wantErrs && res.First() != tt.wantFirst {
				t.Errorf("First() = %q, want %q", res.First(), tt.wantFirst)
			}
		})
	}
}

func TestValidate_CustomRules(t *testing.T) {
	type input struct {
		ID   string `validate:"required,objectid" label:"Notification"`
		Link string `validate:"required,httpurl" label:"Project link"`
		Tier string `validate:"omitempty,tier" label:"Membership level"`
		Type string `validate:"required,notiftype" label:"Type"`
	}

	ok := input{ID: "507f1f77bcf86cd799439011", Link: "https://x.test/go", Tier: "gold", Type: "urgent"}
	if res := Validate(ok); res.HasErrors() {
		t.Fatalf("unexpected errors: %s", res.All())
	}

	bad := input{ID: "n1", Link: "ftp://x.test", Tier: "diamond", Type: "spam"}
	res := Validate(bad)
	if len(res.Errors) != 4 {
		t.Fatalf("expected 4 errors, got %d: %s", len(res.Errors), res.All())
	}
}

func TestResult_AllAndFirst(t *testing.T) {
	r := &Result{}
	if r.First() != "" || r.All() != "" {
		t.Error("empty result should have empty messages")
	}

	r.Errors = []FieldError{{Message: "Error 1"}, {Message: "Error 2"}}
	if r.First() != "Error 1" {
		t.Errorf("First() = %q", r.First())
	}
	if r.All() != "Error 1; Error 2" {
		t.Errorf("All() = %q", r.All())
	}
}

func TestIsValidHTTPURL(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"https://x.test/go", true},
		{"http://localhost:3000", true},
		{"x.test/go", false},
		{"javascript:alert(1)", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsValidHTTPURL(tt.in); got != tt.want {
			t.Errorf("IsValidHTTPURL(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
