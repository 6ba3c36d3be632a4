package utils

import "github.com/gofiber/fiber/v2"

// APIResponse is the envelope every endpoint answers with.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
	Details interface{} `json:"details,omitempty"`
	Message string      `json:"message"`
}

func respond(c *fiber.Ctx, status int, body APIResponse) error {
	if body.Message == "" {
		body.Message = "success"
		if !body.Success {
			body.Message = "error"
		}
	}
	if status == 0 {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(body)
}

// SendSuccess answers 200 with data.
func SendSuccess(c *fiber.Ctx, message string, data interface{}) error {
	return respond(c, fiber.StatusOK, APIResponse{Success: true, Data: data, Message: message})
}

// SendSuccessWithStatus answers status with data, e.g. 201 after a create.
func SendSuccessWithStatus(c *fiber.Ctx, status int, message string, data interface{}) error {
	return respond(c, status, APIResponse{Success: true, Data: data, Message: message})
}

// OK answers 200 with data and list metadata such as pagination.
func OK(c *fiber.Ctx, data interface{}, message string, meta interface{}) error {
	return respond(c, fiber.StatusOK, APIResponse{Success: true, Data: data, Meta: meta, Message: message})
}

// SendError answers status with a message and no details.
func SendError(c *fiber.Ctx, status int, message string) error {
	return Fail(c, status, message, nil)
}

// Fail answers status with a message and optional details.
func Fail(c *fiber.Ctx, status int, message string, details interface{}) error {
	return respond(c, status, APIResponse{Success: false, Details: details, Message: message})
}
