package notes

import (
	"strings"

	"github.com/noah-isme/loopwar-api/internal/models"
)

// Merge appends the entries of incoming that are not already present in existing.
// Definitions are keyed by term, analogies by concept and examples by their text, all
// case-insensitively. An insight is dropped when it contains, or is contained by, a kept one.
func Merge(existing, incoming Content) Content {
	return Content{
		Definitions: mergeKeyed(existing.Definitions, incoming.Definitions, func(d models.NoteDefinition) string { return d.Term }),
		Analogies:   mergeKeyed(existing.Analogies, incoming.Analogies, func(a models.NoteAnalogy) string { return a.Concept }),
		KeyInsights: mergeInsights(existing.KeyInsights, incoming.KeyInsights),
		Examples:    mergeKeyed(existing.Examples, incoming.Examples, func(e models.NoteExample) string { return e.Example }),
	}
}

// FromModel lifts a stored notebook into Content.
func FromModel(note models.LearningNote) Content {
	return Content{
		Definitions: append([]models.NoteDefinition{}, note.Definitions...),
		Analogies:   append([]models.NoteAnalogy{}, note.Analogies...),
		KeyInsights: append([]string{}, note.KeyInsights...),
		Examples:    append([]models.NoteExample{}, note.Examples...),
	}
}

// Apply writes content back onto a stored notebook.
func (c Content) Apply(note *models.LearningNote) {
	note.Definitions = c.Definitions
	note.Analogies = c.Analogies
	note.KeyInsights = c.KeyInsights
	note.Examples = c.Examples
}

func mergeKeyed[T any](existing, incoming []T, key func(T) string) []T {
	merged := append(make([]T, 0, len(existing)+len(incoming)), existing...)
	seen := make(map[string]struct{}, len(merged))
	for _, item := range merged {
		seen[strings.ToLower(key(item))] = struct{}{}
	}
	for _, item := range incoming {
		k := strings.ToLower(key(item))
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		merged = append(merged, item)
	}
	return merged
}

func mergeInsights(existing, incoming []string) []string {
	merged := append(make([]string, 0, len(existing)+len(incoming)), existing...)
	for _, item := range incoming {
		candidate := strings.ToLower(item)
		duplicate := false
		for _, kept := range merged {
			k := strings.ToLower(kept)
			if strings.Contains(k, candidate) || strings.Contains(candidate, k) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			merged = append(merged, item)
		}
	}
	return merged
}
