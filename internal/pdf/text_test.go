package pdf

import "testing"

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"empty", "", "",
		},
		{
			"single newline joined into paragraph",
			"The quick brown\nfox jumps",
			"The quick brown fox jumps",
		},
		{
			"sentence end keeps line break",
			"First sentence.\nSecond sentence.",
			"First sentence.\nSecond sentence.",
		},
		{
			"blank line preserved as paragraph break",
			"para one\n\npara two",
			"para one\n\npara two",
		},
		{
			"bullet list items stay on own lines",
			"Shopping list\n- apples\n- pears",
			"Shopping list\n- apples\n- pears",
		},
		{
			"numbered list items stay on own lines",
			"Steps\n1. first\n2) second",
			"Steps\n1. first\n2) second",
		},
		{
			"blank runs compressed",
			"a\n\n\n\nb",
			"a\n\nb",
		},
		{
			"windows line endings",
			"one.\r\ntwo.",
			"one.\ntwo.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeText(tt.in); got != tt.want {
				t.Errorf("normalizeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeTextHyphenMerge(t *testing.T) {
	if got := normalizeText("serv-\nices are restored"); got != "services are restored" {
		t.Errorf("normalizeText() = %q, want %q", got, "services are restored")
	}
	// A hyphen before a digit is not word hyphenation.
	if got := normalizeText("value -\n42"); got != "value - 42" {
		t.Errorf("normalizeText() = %q, want %q", got, "value - 42")
	}
}

func TestCollapseSpaces(t *testing.T) {
	if got := collapseSpaces("  a\n b\t\tc  "); got != "a b c" {
		t.Errorf("collapseSpaces() = %q", got)
	}
}
