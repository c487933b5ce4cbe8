package handler

import (
	"context"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/moondev/applicant-portal-api/internal/dto"
	"github.com/moondev/applicant-portal-api/internal/middleware"
	"github.com/moondev/applicant-portal-api/internal/service"
	"github.com/moondev/applicant-portal-api/internal/utils"
)

// SubmissionHandler manages the developer submission endpoints, including the
// websocket channel that pushes evaluation changes without a reload.
type SubmissionHandler struct {
	service service.SubmissionService
	stream  service.EvaluationStream
	logger  zerolog.Logger
}

// NewSubmissionHandler builds a submission handler instance.
func NewSubmissionHandler(service service.SubmissionService, stream service.EvaluationStream, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		stream:  stream,
		logger:  logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *SubmissionHandler) Register(router fiber.Router) {
	router.Get("", h.status)
	router.Post("", h.create)

	router.Use("/:id/events", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			ctx := c.UserContext()
			if ctx == nil {
				ctx = context.Background()
			}
			c.Locals("request_ctx", middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c)))
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/:id/events", websocket.New(h.events))
}

func (h *SubmissionHandler) status(c *fiber.Ctx) error {
	userID := userIDFromContext(c)

	status, err := h.service.Status(c.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrNoSubmission) {
			return utils.SendError(c, fiber.StatusNotFound, "no submission yet")
		}
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission status", status)
}

func (h *SubmissionHandler) create(c *fiber.Ctx) error {
	userID := userIDFromContext(c)

	payload := dto.SubmissionCreateRequest{
		FullName: c.FormValue("full_name"),
		Phone:    c.FormValue("phone"),
		Location: c.FormValue("location"),
		Email:    c.FormValue("email"),
		Hobby:    c.FormValue("hobby"),
	}

	// Missing file parts surface as the service's validation errors so the
	// messages stay uniform with the extension check.
	avatarFile, _ := c.FormFile("avatar")
	archiveFile, _ := c.FormFile("source_code")

	submission, err := h.service.Create(c.Context(), userID, payload, avatarFile, archiveFile)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission saved", submission)
}

// events serves the live-update channel. The subscription is scoped to one
// submission id and only ever reaches the owning developer; a dead connection
// is simply gone, there is no reconnect policy on this side.
func (h *SubmissionHandler) events(conn *websocket.Conn) {
	defer conn.Close()

	userID, _ := conn.Locals("user_id").(uint)
	if userID == 0 {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "user id missing"))
		return
	}

	submissionID, err := parseWebsocketID(conn)
	if err != nil {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "invalid submission id"))
		return
	}

	baseCtx, _ := conn.Locals("request_ctx").(context.Context)
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	status, err := h.service.Status(ctx, userID)
	if err != nil || status.Submission.ID != submissionID {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "submission not owned by caller"))
		return
	}

	events, cleanup := h.stream.Watch(ctx, submissionID)
	defer cleanup()

	h.logger.Info().Uint("user_id", userID).Uint("submission_id", submissionID).Msg("evaluation stream connected")

	// Reader goroutine: the client never sends data, but reads are needed to
	// notice the peer going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				h.logger.Debug().Err(err).Uint("submission_id", submissionID).Msg("failed to write evaluation event")
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (h *SubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrSubmissionExists):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrAvatarRequired),
		errors.Is(err, service.ErrArchiveRequired),
		errors.Is(err, service.ErrArchiveNotZip),
		errors.Is(err, service.ErrArchiveTooLarge),
		errors.Is(err, service.ErrAvatarNotImage):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrImageUploadFailed),
		errors.Is(err, service.ErrArchiveUploadFailed),
		errors.Is(err, service.ErrSubmissionSaveFailed):
		return utils.SendError(c, fiber.StatusBadGateway, err.Error())
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

func parseWebsocketID(conn *websocket.Conn) (uint, error) {
	parsed, err := strconv.ParseUint(conn.Params("id"), 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid submission id")
	}
	return uint(parsed), nil
}
