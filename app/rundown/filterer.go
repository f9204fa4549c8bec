package rundown

import (
	"regexp"
	"strings"
)

// MatchLabels is the special filter pattern selecting stories that carry at
// least one allow-listed label.
const MatchLabels = "LABELS"

// DefaultKinds is the default allow-list of label kinds.
var DefaultKinds = []string{"X_Total", "X_Faldon"}

type Filterer struct {
	kinds map[string]bool
}

// NewFilterer creates a filterer for the given allow-list of label kinds.
// An empty list falls back to DefaultKinds. Matching is case-insensitive.
func NewFilterer(kinds []string) *Filterer {
	if len(kinds) == 0 {
		kinds = DefaultKinds
	}
	allowed := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		allowed[strings.ToLower(k)] = true
	}
	return &Filterer{kinds: allowed}
}

// FilterByKind returns the labels whose kind is on the allow-list,
// preserving order.
func (f *Filterer) FilterByKind(labels []Label) []Label {
	var matched []Label
	for _, label := range labels {
		if f.kinds[strings.ToLower(label.Kind)] {
			matched = append(matched, label)
		}
	}
	return matched
}

// Refs returns the non-empty payloads of the allow-listed labels.
func (f *Filterer) Refs(labels []Label) []string {
	var refs []string
	for _, label := range f.FilterByKind(labels) {
		if label.Payload != "" {
			refs = append(refs, label.Payload)
		}
	}
	return refs
}

// HasMatch reports whether a story passes the filter pattern. An empty
// pattern or MatchLabels selects stories with at least one allow-listed
// label. Any other pattern is tried first as a literal substring against
// each raw tag, then as a regular expression; a malformed expression is
// treated as no match.
func (f *Filterer) HasMatch(content, pattern string) bool {
	if pattern == "" || pattern == MatchLabels {
		return len(f.FilterByKind(ExtractLabels(content))) > 0
	}

	var re *regexp.Regexp
	if compiled, err := regexp.Compile(pattern); err == nil {
		re = compiled
	}

	for _, tag := range ExtractLabelTags(content) {
		if strings.Contains(tag, pattern) {
			return true
		}
		if re != nil && re.MatchString(tag) {
			return true
		}
	}

	return false
}

// ExtractStoryInfo pulls the reportable fields and labels out of a story
// body in one pass.
func (f *Filterer) ExtractStoryInfo(content string) StoryInfo {
	labels := ExtractLabels(content)
	matched := f.FilterByKind(labels)

	return StoryInfo{
		Title:      ExtractField(content, "title"),
		Status:     ExtractField(content, "status"),
		ModifyBy:   ExtractField(content, "modify-by"),
		ModifyDate: ExtractField(content, "modify-date"),
		AudioTime:  ExtractField(content, "audio-time"),
		Labels:     labels,
		Matched:    matched,
		Refs:       f.Refs(labels),
	}
}
