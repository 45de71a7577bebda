package sanitize

import "testing"

func TestForBranch(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"folder label", "01.15-run_3_09h30", "01.15-run_3_09h30"},
		{"spaces and parens", "01.15-run 3 (retry)", "01.15-run-3-retry"},
		{"double dots", "a..b", "a.b"},
		{"leading punctuation", "-.x", "x"},
		{"lock suffix", "run.lock", "run"},
		{"slashes", "a/b\\c", "a-b-c"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ForBranch(tt.input); got != tt.expected {
				t.Errorf("ForBranch(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestForBranchTruncates(t *testing.T) {
	long := ""
	for i := 0; i < 20; i++ {
		long += "abcde-"
	}
	got := ForBranch(long)
	if len(got) > maxBranchComponent {
		t.Fatalf("ForBranch returned %d chars", len(got))
	}
	if got[len(got)-1] == '-' {
		t.Errorf("ForBranch(%q) ends with a dash: %q", long, got)
	}
}

func TestForFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Run Watch", "run-watch"},
		{"publish/driver", "publishdriver"},
		{"--x--", "x"},
	}

	for _, tt := range tests {
		if got := ForFilename(tt.input); got != tt.expected {
			t.Errorf("ForFilename(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
