package names

import (
	"testing"

	"github.com/pdiddy/scholar-cv/pkg/types"
)

func testVariants() types.VariantSet {
	return types.VariantSet{
		CanonicalName: "C. Sánchez Muñoz",
		Pseudonyms:    []string{"C S Munoz", "C S Muñoz"},
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "A. Smith", "a smith"},
		{"diacritics", "C. Sánchez Muñoz", "c sanchez munoz"},
		{"extra whitespace", "  C   S  Munoz ", "c s munoz"},
		{"packed initials", "C.S. Munoz", "c s munoz"},
		{"empty", "", ""},
		{"only punctuation", " . . ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMatches(t *testing.T) {
	vs := testVariants()

	tests := []struct {
		name      string
		candidate string
		want      bool
	}{
		{"canonical exact", "C. Sánchez Muñoz", true},
		{"canonical no diacritics", "C. Sanchez Munoz", true},
		{"canonical lowercased", "c sanchez muñoz", true},
		{"pseudonym", "C S Munoz", true},
		{"pseudonym with diacritics", "C S Muñoz", true},
		{"pseudonym spacing", "  c  s  munoz ", true},
		{"co-author", "A. Smith", false},
		{"surname only", "Munoz", false},
		{"substring of canonical", "Sanchez Munoz", false},
		{"superstring", "C. Sánchez Muñoz Jr", false},
		{"empty candidate", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.candidate, vs); got != tt.want {
				t.Errorf("Matches(%q) = %v, want %v", tt.candidate, got, tt.want)
			}
		})
	}
}

func TestMatchesEmptyCanonical(t *testing.T) {
	// An empty variant set must not match the empty candidate.
	if Matches("", types.VariantSet{}) {
		t.Error("Matches(\"\", empty set) = true, want false")
	}
}

func TestCanonicalize(t *testing.T) {
	vs := testVariants()

	tests := []struct {
		name      string
		candidate string
		want      string
	}{
		{"pseudonym rewritten", "C S Munoz", "C. Sánchez Muñoz"},
		{"canonical kept verbatim", "c sanchez munoz", "C. Sánchez Muñoz"},
		{"co-author untouched", "A. Smith", "A. Smith"},
		{"surname untouched", "Munoz", "Munoz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Canonicalize(tt.candidate, vs); got != tt.want {
				t.Errorf("Canonicalize(%q) = %q, want %q", tt.candidate, got, tt.want)
			}
		})
	}
}

func TestUnifyList(t *testing.T) {
	vs := testVariants()
	in := []string{"C S Munoz", "A. Smith", "B. Jones"}

	got := UnifyList(in, vs)
	want := []string{"C. Sánchez Muñoz", "A. Smith", "B. Jones"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	// Input slice must not be mutated.
	if in[0] != "C S Munoz" {
		t.Errorf("input mutated: in[0] = %q", in[0])
	}
}

func TestFormatInitials(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"full given name", "Carlos Sanchez Munoz", "C. Sanchez Munoz"},
		{"already initial", "C. Sanchez Munoz", "C. Sanchez Munoz"},
		{"packed initials", "cs Munoz", "C.S. Munoz"},
		{"single token", "Smith", "Smith"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatInitials(tt.in); got != tt.want {
				t.Errorf("FormatInitials(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
