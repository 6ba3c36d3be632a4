// Package notes mines tutor replies for study notes and merges them into a learner's notebook.
package notes

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/noah-isme/loopwar-api/internal/models"
)

// Content is the set of notes found in one piece of text.
type Content struct {
	Definitions []models.NoteDefinition `json:"definitions"`
	Analogies   []models.NoteAnalogy    `json:"analogies"`
	KeyInsights []string                `json:"keyInsights"`
	Examples    []models.NoteExample    `json:"examples"`
}

// Empty reports whether nothing was extracted.
func (c Content) Empty() bool {
	return len(c.Definitions) == 0 && len(c.Analogies) == 0 && len(c.KeyInsights) == 0 && len(c.Examples) == 0
}

const (
	maxTermLen       = 50
	maxDefinitionLen = 200
	maxInsightLen    = 150
	maxExampleLen    = 300

	// GeneralExample labels examples that are not tied to a named concept.
	GeneralExample = "General Example"
)

var (
	definitionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^(?:\*\*)?([a-z][a-z\s]+?)(?:\*\*)?\s+(?:is|means|refers to|represents)\s+(.+?)$`),
		regexp.MustCompile(`(?i)^(?:\*\*)?definition(?:\*\*)?:?\s*([a-z][a-z\s]+?)\s*[-–—]\s*(.+?)$`),
		regexp.MustCompile(`(?i)^(?:\*\*)?([a-z][a-z\s]+?)(?:\*\*)?\s*:\s*(.+?)$`),
	}

	analogyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:think of|imagine|like|similar to|just like|it's like)\s+(.+?)\s+(?:where|with|that|which)\s+(.+?)(?:\.|!|$)`),
		regexp.MustCompile(`(?i)^(?:\*\*)?([a-z][a-z\s]+?)(?:\*\*)?\s+(?:is like|works like|similar to)\s+(.+?)$`),
	}

	insightPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^(?:\*\*)?(?:key point|important|remember|note|insight)(?:\*\*)?:?\s*(.+?)$`),
		regexp.MustCompile(`(?i)^(?:\*\*)?(.+?)(?:\*\*)?\s+(?:is crucial|is important|is key|is essential)(?:\.|!|$)`),
		regexp.MustCompile(`(?i)^- (.+?provides? O\(.+?\).+?)$`),
	}

	examplePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^(?:\*\*)?example(?:\*\*)?:?\s*(.+)$`),
		regexp.MustCompile(`(?i)^(?:\*\*)?for example(?:\*\*)?:?\s*(.+)$`),
		regexp.MustCompile(`(?i)^(?:\*\*)?use case(?:\*\*)?:?\s*(.+)$`),
	}
)

// Extract runs the line oriented heuristics over text. Each pattern family is applied in
// order, so a line may contribute to several families.
func Extract(text string) Content {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	content := Content{
		Definitions: []models.NoteDefinition{},
		Analogies:   []models.NoteAnalogy{},
		KeyInsights: []string{},
		Examples:    []models.NoteExample{},
	}

	for _, pattern := range definitionPatterns {
		eachMatch(lines, pattern, func(m []string) {
			if len(m[1]) < maxTermLen && len(m[2]) < maxDefinitionLen {
				content.Definitions = append(content.Definitions, models.NoteDefinition{
					Term:       strings.TrimSpace(m[1]),
					Definition: strings.TrimSpace(m[2]),
				})
			}
		})
	}

	for _, pattern := range analogyPatterns {
		eachMatch(lines, pattern, func(m []string) {
			content.Analogies = append(content.Analogies, models.NoteAnalogy{
				Concept: strings.TrimSpace(m[1]),
				Analogy: strings.TrimSpace(m[2]),
			})
		})
	}

	for _, pattern := range insightPatterns {
		eachMatch(lines, pattern, func(m []string) {
			if len(m[1]) < maxInsightLen {
				content.KeyInsights = append(content.KeyInsights, strings.TrimSpace(m[1]))
			}
		})
	}

	for _, pattern := range examplePatterns {
		for i, line := range lines {
			m := pattern.FindStringSubmatch(strings.TrimRight(line, " \t"))
			if m == nil {
				continue
			}
			example := continueParagraph(m[1], lines[i+1:])
			if example != "" && len(example) < maxExampleLen {
				content.Examples = append(content.Examples, models.NoteExample{
					Concept: GeneralExample,
					Example: example,
				})
			}
		}
	}

	return content
}

func eachMatch(lines []string, pattern *regexp.Regexp, fn func([]string)) {
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			continue
		}
		for _, m := range pattern.FindAllStringSubmatch(line, -1) {
			if m[1] != "" && m[len(m)-1] != "" {
				fn(m)
			}
		}
	}
}

// continueParagraph extends an example with following lines until a blank line or a line that
// opens with a letter.
func continueParagraph(first string, rest []string) string {
	parts := []string{strings.TrimSpace(first)}
	for _, line := range rest {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			break
		}
		if r := []rune(trimmed)[0]; unicode.IsLetter(r) {
			break
		}
		parts = append(parts, line)
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}
