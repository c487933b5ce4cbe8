package utils

import "github.com/gofiber/fiber/v2"

// APIResponse is the envelope every portal endpoint replies with. Data is
// omitted on errors and on acknowledgements that carry no payload.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message"`
}

func send(c *fiber.Ctx, status int, success bool, message string, data interface{}) error {
	if status == 0 {
		status = fiber.StatusOK
	}

	return c.Status(status).JSON(APIResponse{
		Success: success,
		Data:    data,
		Message: message,
	})
}

// SendSuccess replies 200 with the envelope wrapping the given payload.
func SendSuccess(c *fiber.Ctx, message string, data interface{}) error {
	return SendSuccessWithStatus(c, fiber.StatusOK, message, data)
}

// SendSuccessWithStatus is SendSuccess with an explicit status, used for 201s.
func SendSuccessWithStatus(c *fiber.Ctx, status int, message string, data interface{}) error {
	if message == "" {
		message = "success"
	}

	return send(c, status, true, message, data)
}

// SendError replies with a failure envelope; the message is the only detail
// clients receive, so callers phrase it for the applicant or evaluator.
func SendError(c *fiber.Ctx, status int, message string) error {
	if message == "" {
		message = "error"
	}

	return send(c, status, false, message, nil)
}
