package dto

// CodeRunRequest asks the judge to run code against a problem's test cases.
type CodeRunRequest struct {
	ProblemID uint   `json:"problemId" validate:"required,gt=0"`
	Code      string `json:"code" validate:"required,max=65536"`
	Language  string `json:"language" validate:"required,max=32"`
}

// CodeCheckRequest asks the AI reviewer to grade code for a problem.
type CodeCheckRequest struct {
	ProblemID uint   `json:"problemId" validate:"required,gt=0"`
	Code      string `json:"code" validate:"max=65536"`
	Language  string `json:"language" validate:"required,max=32"`
}
