package magnet

import (
	"regexp"
	"strings"
)

// TextSource names the piece of the page a size strategy reads from.
type TextSource string

const (
	SourceDisplayName TextSource = "dn"          // decoded dn parameter of the magnet URI
	SourceParentText  TextSource = "parent_text" // visible text of the anchor's parent element
	SourceAnchorText  TextSource = "anchor_text" // visible text of the anchor itself
)

// SizeStrategy is one step of the size inference cascade.
type SizeStrategy struct {
	Name    string
	Source  TextSource
	Pattern *regexp.Regexp // first capture group holds the size
}

var (
	exactPatterns = []string{
		`(?i)(\d+\.\d+GB)`,
		`(?i)(\d+GB)`,
		`(?i)(\d+\.\d+MB)`,
		`(?i)(\d+MB)`,
	}
	spacedPatterns = []string{
		`(?i)(\d+\.\d+\s*GB)`,
		`(?i)(\d+\s*GB)`,
		`(?i)(\d+\.\d+\s*MB)`,
		`(?i)(\d+\s*MB)`,
	}
	separatorPattern = `(?i)[-\s](\d+\.\d+GB|\d+GB|\d+\.\d+MB|\d+MB)[.\s]`

	validSize = regexp.MustCompile(`(?i)^\d+(\.\d+)?(MB|GB)$`)
)

// DefaultStrategies is the ordered cascade: exact tokens in the file name,
// then whitespace-tolerant tokens in the file name, the parent text and the
// link text, and finally a separator-bounded token in the file name.
var DefaultStrategies = buildStrategies()

func buildStrategies() []SizeStrategy {
	var strategies []SizeStrategy
	add := func(name string, source TextSource, patterns ...string) {
		for _, p := range patterns {
			strategies = append(strategies, SizeStrategy{
				Name:    name,
				Source:  source,
				Pattern: regexp.MustCompile(p),
			})
		}
	}

	add("dn_exact", SourceDisplayName, exactPatterns...)
	add("dn_spaced", SourceDisplayName, spacedPatterns...)
	add("parent_spaced", SourceParentText, spacedPatterns...)
	add("anchor_spaced", SourceAnchorText, spacedPatterns...)
	add("dn_separated", SourceDisplayName, separatorPattern)

	return strategies
}

// InferSize runs strategies in order against texts and returns the first
// valid size, or "" when none applies.
func InferSize(strategies []SizeStrategy, texts map[TextSource]string) (string, string) {
	for _, strategy := range strategies {
		text := texts[strategy.Source]
		if text == "" {
			continue
		}

		m := strategy.Pattern.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}

		size := NormalizeSize(m[1])
		if ValidSize(size) {
			return size, strategy.Name
		}
	}
	return "", ""
}

// NormalizeSize removes whitespace and upper-cases the unit: "1.4 gb" -> "1.4GB".
func NormalizeSize(raw string) string {
	return strings.ToUpper(strings.Join(strings.Fields(raw), ""))
}

func ValidSize(size string) bool {
	return validSize.MatchString(size)
}
