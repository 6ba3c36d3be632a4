package dto

// ContactRequest is the public contact form payload. Honeypot is a hidden
// field that only bots fill in.
type ContactRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email,max=160"`
	Subject  string `json:"subject" validate:"required,max=200"`
	Message  string `json:"message" validate:"required,max=5000"`
	Type     string `json:"type" validate:"omitempty,max=40"`
	Honeypot string `json:"_note"`
	UserID   *uint  `json:"-"`
}

// ContactResponse acknowledges a stored contact message.
type ContactResponse struct {
	ReferenceID string `json:"referenceId"`
	Status      string `json:"status"`
}
