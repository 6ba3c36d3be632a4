package dto

import (
	"time"

	"github.com/noah-isme/loopwar-api/internal/models"
	"github.com/noah-isme/loopwar-api/internal/notes"
)

// ChatRequest sends one message to the AI tutor.
type ChatRequest struct {
	ProblemID *uint  `json:"problemId" validate:"omitempty,gt=0"`
	SessionID string `json:"sessionId" validate:"omitempty,uuid"`
	Message   string `json:"message" validate:"required,max=4000"`
}

// ChatResponse is the tutor's reply plus any notes mined from it.
type ChatResponse struct {
	SessionID string              `json:"sessionId"`
	Reply     ChatMessageResponse `json:"reply"`
	Notes     *notes.Content      `json:"notes,omitempty"`
}

// ChatMessageResponse is one stored chat turn.
type ChatMessageResponse struct {
	ID        uint      `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// ChatSessionResponse summarises a tutoring session.
type ChatSessionResponse struct {
	ID        string    `json:"id"`
	ProblemID *uint     `json:"problemId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewChatMessageResponse converts a chat message model.
func NewChatMessageResponse(message models.ChatMessage) ChatMessageResponse {
	return ChatMessageResponse{
		ID:        message.ID,
		Role:      message.Role,
		Content:   message.Content,
		CreatedAt: message.CreatedAt,
	}
}

// NewChatSessionResponse converts a chat session model.
func NewChatSessionResponse(session models.ChatSession) ChatSessionResponse {
	return ChatSessionResponse{
		ID:        session.ID,
		ProblemID: session.ProblemID,
		Title:     session.Title,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
	}
}

// QuizGenerateRequest asks for a new quiz about a problem.
type QuizGenerateRequest struct {
	ProblemID uint `json:"problemId" validate:"required,gt=0"`
	Count     int  `json:"count" validate:"omitempty,min=1,max=10"`
}

// QuizQuestionResponse is a question as shown to the learner.
type QuizQuestionResponse struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	AnswerIndex *int     `json:"answerIndex,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
}

// QuizResponse is a stored quiz.
type QuizResponse struct {
	ID        uint                   `json:"id"`
	ProblemID uint                   `json:"problemId"`
	Questions []QuizQuestionResponse `json:"questions"`
	CreatedAt time.Time              `json:"createdAt"`
}

// QuizResultRequest submits answers, one option index per question.
type QuizResultRequest struct {
	Answers []int `json:"answers" validate:"required,min=1,dive,gte=-1,lte=3"`
}

// QuizResultResponse reports the graded attempt with the correct answers revealed.
type QuizResultResponse struct {
	AttemptID uint                   `json:"attemptId"`
	Score     int                    `json:"score"`
	Total     int                    `json:"total"`
	Correct   []bool                 `json:"correct"`
	Questions []QuizQuestionResponse `json:"questions"`
}

// NewQuizResponse converts a quiz model. Answers are only included when reveal is set.
func NewQuizResponse(quiz models.Quiz, reveal bool) QuizResponse {
	questions := make([]QuizQuestionResponse, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		questions = append(questions, newQuizQuestionResponse(q, reveal))
	}
	return QuizResponse{
		ID:        quiz.ID,
		ProblemID: quiz.ProblemID,
		Questions: questions,
		CreatedAt: quiz.CreatedAt,
	}
}

func newQuizQuestionResponse(q models.QuizQuestion, reveal bool) QuizQuestionResponse {
	resp := QuizQuestionResponse{Question: q.Question, Options: q.Options}
	if reveal {
		answer := q.AnswerIndex
		resp.AnswerIndex = &answer
		resp.Explanation = q.Explanation
	}
	return resp
}

// NotesQuery addresses a learner's notebook page.
type NotesQuery struct {
	Category  string `query:"category" validate:"required,max=128"`
	Topic     string `query:"topic" validate:"required,max=128"`
	Subtopic  string `query:"subtopic" validate:"required,max=128"`
	SortOrder int    `query:"sortOrder" validate:"gte=0"`
}

// NotesExtractRequest mines text for notes and merges them into the notebook.
type NotesExtractRequest struct {
	Text      string `json:"text" validate:"required,max=20000"`
	Category  string `json:"category" validate:"required,max=128"`
	Topic     string `json:"topic" validate:"required,max=128"`
	Subtopic  string `json:"subtopic" validate:"required,max=128"`
	SortOrder int    `json:"sortOrder" validate:"gte=0"`
}

// NotesResponse is a learner's notebook page.
type NotesResponse struct {
	ID        uint      `json:"id,omitempty"`
	Category  string    `json:"category"`
	Topic     string    `json:"topic"`
	Subtopic  string    `json:"subtopic"`
	SortOrder int       `json:"sortOrder"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
	notes.Content
}

// NewNotesResponse converts a stored notebook page.
func NewNotesResponse(note models.LearningNote) NotesResponse {
	return NotesResponse{
		ID:        note.ID,
		Category:  note.Category,
		Topic:     note.Topic,
		Subtopic:  note.Subtopic,
		SortOrder: note.SortOrder,
		UpdatedAt: note.UpdatedAt,
		Content:   notes.FromModel(note),
	}
}
