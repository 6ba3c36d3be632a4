package notes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/loopwar-api/internal/models"
)

const tutorReply = `A stack is a last-in first-out collection.
Think of a stack like a pile of plates where you only touch the top.
Key point: pushing and popping are constant time.
- A hash map provides O(1) average lookups for membership checks
Example: undo history in an editor.
  1. type a word
  2. press undo

Thanks for asking!`

func TestExtractFindsEachFamily(t *testing.T) {
	content := Extract(tutorReply)

	require.Contains(t, content.Definitions, models.NoteDefinition{Term: "A stack", Definition: "a last-in first-out collection."})
	require.Contains(t, content.Analogies, models.NoteAnalogy{Concept: "a stack like a pile of plates", Analogy: "you only touch the top"})
	require.Contains(t, content.KeyInsights, "pushing and popping are constant time.")
	require.Contains(t, content.KeyInsights, "A hash map provides O(1) average lookups for membership checks")
	require.Len(t, content.Examples, 1)
	require.Equal(t, GeneralExample, content.Examples[0].Concept)
	require.Equal(t, "undo history in an editor.\n  1. type a word\n  2. press undo", content.Examples[0].Example)
}

func TestExtractHonoursLengthCaps(t *testing.T) {
	long := "Recursion is "
	for i := 0; i < 30; i++ {
		long += "very very "
	}
	content := Extract(long)
	require.Empty(t, content.Definitions)
}

func TestExtractEmptyText(t *testing.T) {
	content := Extract("")
	require.True(t, content.Empty())
	require.NotNil(t, content.Definitions)
}

func TestMergeDeduplicatesAndKeepsOrder(t *testing.T) {
	existing := Content{
		Definitions: []models.NoteDefinition{{Term: "Stack", Definition: "LIFO"}},
		KeyInsights: []string{"Pushing is constant time"},
		Examples:    []models.NoteExample{{Concept: GeneralExample, Example: "undo history"}},
	}
	incoming := Content{
		Definitions: []models.NoteDefinition{{Term: "stack", Definition: "other"}, {Term: "Queue", Definition: "FIFO"}},
		Analogies:   []models.NoteAnalogy{{Concept: "queue", Analogy: "a line at a shop"}},
		KeyInsights: []string{"pushing is constant time", "Queues are fair"},
		Examples:    []models.NoteExample{{Concept: GeneralExample, Example: "Undo History"}, {Concept: GeneralExample, Example: "print spooler"}},
	}

	merged := Merge(existing, incoming)
	require.Equal(t, []models.NoteDefinition{{Term: "Stack", Definition: "LIFO"}, {Term: "Queue", Definition: "FIFO"}}, merged.Definitions)
	require.Len(t, merged.Analogies, 1)
	require.Equal(t, []string{"Pushing is constant time", "Queues are fair"}, merged.KeyInsights)
	require.Len(t, merged.Examples, 2)
	require.Equal(t, "print spooler", merged.Examples[1].Example)
}

func TestApplyRoundTripsThroughModel(t *testing.T) {
	var note models.LearningNote
	Merge(Content{}, Content{KeyInsights: []string{"Sort first"}}).Apply(&note)
	require.Equal(t, []string{"Sort first"}, FromModel(note).KeyInsights)
}
