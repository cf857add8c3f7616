package conventional

import "testing"

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want ParsedCommit
	}{
		{
			name: "plain_type",
			in:   "feat: add version calculation",
			want: ParsedCommit{Type: "feat", Description: "add version calculation"},
		},
		{
			name: "scoped",
			in:   "fix(parser): handle empty scope",
			want: ParsedCommit{Type: "fix", Scope: "parser", Description: "handle empty scope"},
		},
		{
			name: "bang",
			in:   "feat!: drop the v1 output format",
			want: ParsedCommit{Type: "feat", Breaking: true, Description: "drop the v1 output format"},
		},
		{
			name: "scoped_bang",
			in:   "refactor(core)!: rename public entrypoints",
			want: ParsedCommit{Type: "refactor", Scope: "core", Breaking: true, Description: "rename public entrypoints"},
		},
		{
			name: "breaking_change_in_body",
			in:   "feat: switch config format\n\nBREAKING CHANGE: the YAML layout changed",
			want: ParsedCommit{Type: "feat", Breaking: true, Description: "switch config format"},
		},
		{
			name: "breaking_change_in_footer_of_fix",
			in:   "fix: tighten validation\n\nsome detail\n\nBREAKING CHANGE: rejects inputs that used to pass",
			want: ParsedCommit{Type: "fix", Breaking: true, Description: "tighten validation"},
		},
		{
			name: "alias_type_passes_through",
			in:   "hotfix: patch the release workflow",
			want: ParsedCommit{Type: "hotfix", Description: "patch the release workflow"},
		},
		{
			name: "unknown_type_passes_through",
			in:   "docs: update readme",
			want: ParsedCommit{Type: "docs", Description: "update readme"},
		},
		{
			name: "no_colon",
			in:   "update readme",
			want: ParsedCommit{Type: OtherType, Description: "update readme"},
		},
		{
			name: "uppercase_type",
			in:   "Feat: add things",
			want: ParsedCommit{Type: OtherType, Description: "Feat: add things"},
		},
		{
			name: "merge_commit",
			in:   "Merge branch 'main' into develop",
			want: ParsedCommit{Type: OtherType, Description: "Merge branch 'main' into develop"},
		},
		{
			name: "missing_description",
			in:   "feat:",
			want: ParsedCommit{Type: OtherType, Description: "feat:"},
		},
		{
			name: "breaking_change_on_unparsed",
			in:   "rework everything\n\nBREAKING CHANGE: nothing is where it was",
			want: ParsedCommit{Type: OtherType, Breaking: true, Description: "rework everything"},
		},
		{
			name: "multiline_body_ignored",
			in:   "feat(cli): add dry-run flag\n\nlonger explanation over\nseveral lines",
			want: ParsedCommit{Type: "feat", Scope: "cli", Description: "add dry-run flag"},
		},
		{
			name: "empty_message",
			in:   "",
			want: ParsedCommit{Type: OtherType},
		},
	}

	c := NewClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.in)
			if got != tt.want {
				t.Fatalf("Classify(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsLowerAlpha(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]bool{
		"feat":  true,
		"fix":   true,
		"":      false,
		"Feat":  false,
		"fix2":  false,
		"a-b":   false,
		"chore": true,
	} {
		if got := isLowerAlpha(in); got != want {
			t.Fatalf("isLowerAlpha(%q) = %v, want %v", in, got, want)
		}
	}
}
