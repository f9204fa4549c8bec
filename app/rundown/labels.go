package rundown

import (
	"regexp"
	"strings"
)

var (
	apTagPattern   = regexp.MustCompile(`(?s)<ap>(.*?)</ap>`)
	channelPattern = regexp.MustCompile(`\[([A-Za-z0-9\-]+)\]`)

	codeMarkerPattern    = regexp.MustCompile(`--\s+\d+:\s+([A-Za-z_0-9]+)`)
	afterDigitsPattern   = regexp.MustCompile(`\d+\s+([A-Za-z_][A-Za-z_0-9]*(?:\s+\d+)?)`)
	payloadClosedPattern = regexp.MustCompile(`\|([^|(]+)\(`)
	payloadOpenPattern   = regexp.MustCompile(`\|([^|(]+)`)
)

// structuralTokens are punctuation words left behind by the markup that can
// never be a label kind.
var structuralTokens = map[string]bool{
	"]": true, "[[": true, "]]": true, "|": true, "--": true,
}

// kindRules is the ordered fallback chain for deriving a label kind. Rules
// are tried in sequence, first success wins.
var kindRules = []func(string) (string, bool){
	kindAfterCodeMarker,
	kindAfterLeadingDigits,
	kindFirstWord,
}

// ExtractLabelTags returns the raw contents of every <ap>...</ap> region in
// document order. Tags may span multiple lines and never overlap.
func ExtractLabelTags(content string) []string {
	matches := apTagPattern.FindAllStringSubmatch(content, -1)
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, m[1])
	}
	return tags
}

// ParseLabel parses a single raw tag into a Label. The channel code is
// optional; a label without a derivable kind is rejected.
func ParseLabel(tag string) (Label, bool) {
	if strings.TrimSpace(tag) == "" {
		return Label{}, false
	}

	channel := ""
	rest := strings.TrimSpace(tag)
	if loc := channelPattern.FindStringSubmatchIndex(tag); loc != nil {
		channel = strings.TrimSpace(tag[loc[2]:loc[3]])
		rest = strings.TrimSpace(tag[loc[1]:])
	}

	kind := ""
	for _, rule := range kindRules {
		if k, ok := rule(rest); ok {
			kind = k
			break
		}
	}
	if kind == "" {
		return Label{}, false
	}

	return Label{Channel: channel, Kind: kind, Payload: extractPayload(rest)}, true
}

// ExtractLabels parses every tag in the content, dropping failures and
// preserving document order.
func ExtractLabels(content string) []Label {
	var labels []Label
	for _, tag := range ExtractLabelTags(content) {
		if label, ok := ParseLabel(tag); ok {
			labels = append(labels, label)
		}
	}
	return labels
}

// kindAfterCodeMarker matches a token following a "-- <digits>:" marker,
// e.g. "QR -- 00010829: Titulo" yields "Titulo".
func kindAfterCodeMarker(text string) (string, bool) {
	if m := codeMarkerPattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	return "", false
}

// kindAfterLeadingDigits matches a word following a run of digits,
// e.g. "10 QR -- 00010829: |...|" yields "QR".
func kindAfterLeadingDigits(text string) (string, bool) {
	if m := afterDigitsPattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	return "", false
}

// kindFirstWord falls back to the first word that is not purely numeric and
// not a structural punctuation token.
func kindFirstWord(text string) (string, bool) {
	for _, word := range strings.Fields(text) {
		if structuralTokens[word] || isNumeric(word) {
			continue
		}
		return word, true
	}
	return "", false
}

func isNumeric(word string) bool {
	stripped := strings.ReplaceAll(word, "-", "")
	if stripped == "" {
		return false
	}
	for _, r := range stripped {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// extractPayload returns the text between a pair of | delimiters closed by
// "(", or failing that between the first | and the next | or "(". Internal
// whitespace is collapsed to single spaces.
func extractPayload(text string) string {
	m := payloadClosedPattern.FindStringSubmatch(text)
	if m == nil {
		m = payloadOpenPattern.FindStringSubmatch(text)
	}
	if m == nil {
		return ""
	}
	return strings.Join(strings.Fields(m[1]), " ")
}

// ExtractField returns the value of a <f id=...> field from the story
// markup, or an empty string if the field is absent.
func ExtractField(content, fieldID string) string {
	pattern, err := regexp.Compile(`<f id=` + regexp.QuoteMeta(fieldID) + `[^>]*>([^<]*)</f>`)
	if err != nil {
		return ""
	}
	if m := pattern.FindStringSubmatch(content); m != nil {
		return m[1]
	}
	return ""
}
