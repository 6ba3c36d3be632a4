package ai

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseQuizResponseDropsMalformedQuestions(t *testing.T) {
	content := `{"questions":[
		{"question":"What is O(1)?","options":["a","b","c","d"],"answerIndex":2,"explanation":"constant"},
		{"question":"Too few options","options":["a","b"],"answerIndex":0},
		{"question":"Bad index","options":["a","b","c","d"],"answerIndex":7},
		{"question":"Second","options":["a","b","c","d"],"answerIndex":0}
	]}`

	questions, err := parseQuizResponse(content, 5)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	require.Equal(t, 2, questions[0].AnswerIndex)

	limited, err := parseQuizResponse(content, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestParseQuizResponseRejectsEmpty(t *testing.T) {
	_, err := parseQuizResponse(`{"questions":[]}`, 3)
	require.True(t, errors.Is(err, ErrEmptyResponse))

	_, err = parseQuizResponse(`not json`, 3)
	require.Error(t, err)
}

func TestBuildReviewPromptListsTestCases(t *testing.T) {
	prompt := buildReviewPrompt(ReviewInput{
		ProblemTitle: "Pair Sum",
		Language:     "python",
		Code:         "print(3)",
		TestCases:    []TestCase{{Input: "1 2", Expected: "3"}},
	})
	require.Contains(t, prompt, "1. input: 1 2")
	require.Contains(t, prompt, "expected: 3")
}

func TestNewOpenAIClientRequiresKey(t *testing.T) {
	_, err := NewOpenAIClient(OpenAIConfig{})
	require.Error(t, err)
}
