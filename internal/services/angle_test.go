package services

import (
	"testing"

	"github.com/studioplanar/planar-backend/internal/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("failed to build logger: %v", err)
	}
	return log
}

func TestInferAngle(t *testing.T) {
	svc := NewAngleService(testLogger(t), nil, NewNoopAngleCache())

	cases := []struct {
		name string
		text string
		hint string
		want string
	}{
		{
			name: "keyword_match",
			text: "render the patio view with string lights",
			want: "patio",
		},
		{
			name: "case_insensitive",
			text: "Show the AERIAL shot",
			want: "aerial",
		},
		{
			name: "synonym_maps_to_label",
			text: "what does the backyard look like now",
			want: "patio",
		},
		{
			name: "first_declared_wins_on_cooccurrence",
			text: "patio seen from the front",
			want: "front",
		},
		{
			name: "no_keyword",
			text: "add a skylight",
			want: "",
		},
		{
			name: "hint_overrides_keywords",
			text: "render the patio view",
			hint: "mezzanine",
			want: "mezzanine",
		},
		{
			name: "whitespace_hint_ignored",
			text: "render the patio view",
			hint: "   ",
			want: "patio",
		},
		{
			name: "multi_word_keyword",
			text: "brighten the living room a little",
			want: "living",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := svc.InferAngle(tc.text, tc.hint)
			if got != tc.want {
				t.Fatalf("InferAngle(%q, %q)=%q, want %q", tc.text, tc.hint, got, tc.want)
			}
		})
	}
}

func TestInferAngleIsPure(t *testing.T) {
	svc := NewAngleService(testLogger(t), nil, NewNoopAngleCache())
	for i := 0; i < 3; i++ {
		if got := svc.InferAngle("render the patio view", ""); got != "patio" {
			t.Fatalf("call %d: got %q, want patio", i, got)
		}
	}
}
