package pipeline

import "testing"

func TestStageOrdering(t *testing.T) {
	ordered := []Stage{
		StagePending,
		StageIngesting,
		StageTranscribing,
		StageUnderstanding,
		StageGrouping,
		StageRanking,
		StageComplete,
	}

	for i, s := range ordered {
		r, ok := s.Rank()
		if !ok {
			t.Fatalf("expected %s to be ranked", s)
		}
		if r != i {
			t.Errorf("expected %s at position %d, got %d", s, i, r)
		}
	}

	if _, ok := StageFailed.Rank(); ok {
		t.Error("failed must not have a forward position")
	}
	if _, ok := Stage("remuxing").Rank(); ok {
		t.Error("unknown tokens must not be ranked")
	}
}

func TestStageTerminal(t *testing.T) {
	for _, s := range []Stage{StageComplete, StageFailed} {
		if !s.Terminal() {
			t.Errorf("expected %s to be terminal", s)
		}
		if s.Processing() {
			t.Errorf("%s must not count as processing", s)
		}
	}

	for _, s := range []Stage{StagePending, StageIngesting, StageTranscribing, StageUnderstanding, StageGrouping, StageRanking} {
		if s.Terminal() {
			t.Errorf("%s must not be terminal", s)
		}
		if !s.Processing() {
			t.Errorf("expected %s to count as processing", s)
		}
	}

	if Stage("").Processing() {
		t.Error("empty stage must not count as processing")
	}
}

func TestAdvances(t *testing.T) {
	tests := []struct {
		name string
		from Stage
		to   Stage
		want bool
	}{
		{"forward move", StageIngesting, StageTranscribing, true},
		{"skip ahead", StagePending, StageRanking, true},
		{"same stage", StageGrouping, StageGrouping, true},
		{"regression", StageRanking, StageTranscribing, false},
		{"failed from non-terminal", StageUnderstanding, StageFailed, true},
		{"failed from pending", StagePending, StageFailed, true},
		{"nothing leaves complete", StageComplete, StageFailed, false},
		{"nothing leaves failed", StageFailed, StagePending, false},
		{"complete stays complete", StageComplete, StageRanking, false},
		{"unknown target is not an advance", StageIngesting, Stage("remuxing"), false},
		{"from empty", Stage(""), StagePending, true},
		{"from unknown token", Stage("remuxing"), StageRanking, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Advances(tt.from, tt.to); got != tt.want {
				t.Errorf("Advances(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestStageLabel(t *testing.T) {
	if got := StageTranscribing.Label(); got != "Transcribing audio" {
		t.Errorf("unexpected label: %s", got)
	}
	if got := Stage("remuxing").Label(); got != "Remuxing" {
		t.Errorf("unknown tokens should be title-cased verbatim, got %s", got)
	}
	if got := Stage("").Label(); got != "" {
		t.Errorf("empty stage should have empty label, got %q", got)
	}
}

func TestKnown(t *testing.T) {
	if !StageFailed.Known() {
		t.Error("failed is part of the canonical vocabulary")
	}
	if Stage("remuxing").Known() {
		t.Error("unknown token must not be known")
	}
}
