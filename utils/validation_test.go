package utils

import "testing"

func TestNormalizePhoneNumber(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"french local", "0612345678", "+33612345678", false},
		{"french local with spaces", "06 12 34 56 78", "+33612345678", false},
		{"french local with dots", "06.12.34.56.78", "+33612345678", false},
		{"already international", "+33612345678", "+33612345678", false},
		{"international with spaces", "+33 6 12 34 56 78", "+33612345678", false},
		{"bare digits get country code", "612345678", "+33612345678", false},
		{"belgian number kept", "+32470123456", "+32470123456", false},
		{"empty", "", "", true},
		{"letters only", "abc", "", true},
		{"too short", "0612", "", true},
		{"too long", "+3361234567890123456", "", true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := NormalizePhoneNumber(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("NormalizePhoneNumber(%q) = %q, expected error", tc.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizePhoneNumber(%q) returned error: %v", tc.input, err)
			}
			if got != tc.want {
				t.Errorf("NormalizePhoneNumber(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestValidatePhone(t *testing.T) {
	t.Parallel()

	if !ValidatePhone("0612345678") {
		t.Error("expected 0612345678 to be valid")
	}
	if ValidatePhone("not a number") {
		t.Error("expected 'not a number' to be invalid")
	}
}

func TestValidateSenderName(t *testing.T) {
	t.Parallel()

	valid := []string{"OVHSMS", "Info", "A", "abc123DEF45"}
	for _, sender := range valid {
		if err := ValidateSenderName(sender); err != nil {
			t.Errorf("ValidateSenderName(%q) returned error: %v", sender, err)
		}
	}

	invalid := []string{"", "Twelve12Chars", "My-Company", "Ets Martin", "café"}
	for _, sender := range invalid {
		if err := ValidateSenderName(sender); err == nil {
			t.Errorf("ValidateSenderName(%q) expected error, got nil", sender)
		}
	}
}
