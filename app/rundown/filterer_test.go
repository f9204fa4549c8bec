package rundown

import (
	"testing"
)

const storyWithListedLabel = `<nsml><fields><f id=title>Apertura</f></fields>` +
	`<body><p><ap>[CG1] X_Total | 00013523: |https://x.com/user/status/111(</ap></p></body></nsml>`

const storyWithOtherLabel = `<nsml><body><p><ap>[CG1] Titular | 1: |texto libre(</ap></p></body></nsml>`

func TestFilterByKind_CaseInsensitive(t *testing.T) {
	filterer := NewFilterer([]string{"X_Total"})

	labels := []Label{
		{Kind: "x_total", Payload: "a"},
		{Kind: "X_TOTAL", Payload: "b"},
		{Kind: "X_Faldon", Payload: "c"},
	}

	matched := filterer.FilterByKind(labels)
	if len(matched) != 2 {
		t.Fatalf("Expected 2 matched labels, got %d", len(matched))
	}
	if matched[0].Payload != "a" || matched[1].Payload != "b" {
		t.Errorf("Expected order preserved, got %+v", matched)
	}
}

func TestFilterByKind_DefaultAllowList(t *testing.T) {
	filterer := NewFilterer(nil)

	labels := []Label{
		{Kind: "X_Total"},
		{Kind: "X_Faldon"},
		{Kind: "Titular"},
	}

	matched := filterer.FilterByKind(labels)
	if len(matched) != 2 {
		t.Errorf("Expected default allow-list to match 2 labels, got %d", len(matched))
	}
}

func TestRefs_SkipsEmptyPayloads(t *testing.T) {
	filterer := NewFilterer(nil)

	labels := []Label{
		{Kind: "X_Total", Payload: "https://x.com/a/status/1"},
		{Kind: "X_Faldon", Payload: ""},
		{Kind: "X_Faldon", Payload: "https://x.com/b/status/2"},
	}

	refs := filterer.Refs(labels)
	if len(refs) != 2 {
		t.Fatalf("Expected 2 refs, got %d", len(refs))
	}
	if refs[0] != "https://x.com/a/status/1" || refs[1] != "https://x.com/b/status/2" {
		t.Errorf("Unexpected refs: %v", refs)
	}
}

func TestHasMatch_SpecialPattern(t *testing.T) {
	filterer := NewFilterer(nil)

	for _, pattern := range []string{"", MatchLabels} {
		if !filterer.HasMatch(storyWithListedLabel, pattern) {
			t.Errorf("Expected match with pattern %q for allow-listed label", pattern)
		}
		if filterer.HasMatch(storyWithOtherLabel, pattern) {
			t.Errorf("Expected no match with pattern %q for non-listed label", pattern)
		}
	}
}

func TestHasMatch_LiteralSubstring(t *testing.T) {
	filterer := NewFilterer(nil)

	if !filterer.HasMatch(storyWithOtherLabel, "texto libre") {
		t.Error("Expected literal substring match")
	}
	if filterer.HasMatch(storyWithOtherLabel, "no aparece") {
		t.Error("Expected no match for absent substring")
	}
}

func TestHasMatch_Regexp(t *testing.T) {
	filterer := NewFilterer(nil)

	if !filterer.HasMatch(storyWithListedLabel, `status/\d+`) {
		t.Error("Expected regexp match")
	}
}

func TestHasMatch_MalformedRegexpIsNoMatch(t *testing.T) {
	filterer := NewFilterer(nil)

	if filterer.HasMatch(storyWithOtherLabel, "[invalid(") {
		t.Error("Expected malformed regexp to be treated as no match")
	}
}

func TestExtractStoryInfo(t *testing.T) {
	filterer := NewFilterer(nil)

	info := filterer.ExtractStoryInfo(storyWithListedLabel)
	if info.Title != "Apertura" {
		t.Errorf("Expected title 'Apertura', got %q", info.Title)
	}
	if len(info.Labels) != 1 || len(info.Matched) != 1 {
		t.Fatalf("Expected 1 label and 1 matched, got %d/%d", len(info.Labels), len(info.Matched))
	}
	if len(info.Refs) != 1 || info.Refs[0] != "https://x.com/user/status/111" {
		t.Errorf("Unexpected refs: %v", info.Refs)
	}
}
