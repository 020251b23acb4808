package ascii

import "testing"

func TestBox(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  string
	}{
		{
			name:  "single line",
			lines: []string{"PASS"},
			want:  "┌──────┐\n│ PASS │\n└──────┘\n",
		},
		{
			name:  "multiple lines",
			lines: []string{"childcheck: FAIL", "nodes: 6", "mode: count   "},
			want: "┌──────────────────┐\n" +
				"│ childcheck: FAIL │\n" +
				"│ nodes: 6         │\n" +
				"│ mode: count      │\n" +
				"└──────────────────┘\n",
		},
		{
			name:  "wide runes",
			lines: []string{"root: 指南", "ok"},
			want: "┌────────────┐\n" +
				"│ root: 指南 │\n" +
				"│ ok         │\n" +
				"└────────────┘\n",
		},
		{
			name:  "empty",
			lines: nil,
			want:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Box(tt.lines); got != tt.want {
				t.Errorf("Box() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestStringWidth(t *testing.T) {
	for s, want := range map[string]int{"hello": 5, "指南": 4, "": 0} {
		if got := StringWidth(s); got != want {
			t.Errorf("StringWidth(%q) = %d, want %d", s, got, want)
		}
	}
}

func TestTruncateForBox(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		width    int
		expected string
	}{
		{"no truncation", "forms", 10, "forms"},
		{"truncation", "guidelines/groups/forms", 10, "guideli..."},
		{"exact width", "forms", 5, "forms"},
		{"width too small", "forms", 2, "fo"},
		{"zero width", "forms", 0, ""},
		{"wide runes", "指南指南指南", 7, "指南..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateForBox(tt.value, tt.width); got != tt.expected {
				t.Errorf("TruncateForBox(%q, %d) = %q, want %q", tt.value, tt.width, got, tt.expected)
			}
		})
	}
}
