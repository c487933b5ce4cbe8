package handler_test

import (
	"bytes"
	"context"
	"image/color"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/moondev/applicant-portal-api/internal/config"
	"github.com/moondev/applicant-portal-api/internal/dto"
	"github.com/moondev/applicant-portal-api/internal/handler"
	"github.com/moondev/applicant-portal-api/internal/models"
	"github.com/moondev/applicant-portal-api/internal/service"
)

type mockSubmissionService struct {
	status      dto.SubmissionStatusResponse
	statusErr   error
	created     dto.SubmissionResponse
	createErr   error
	lastUserID  uint
	lastPayload dto.SubmissionCreateRequest
	gotAvatar   bool
	gotArchive  bool
}

func (m *mockSubmissionService) Status(_ context.Context, userID uint) (dto.SubmissionStatusResponse, error) {
	m.lastUserID = userID
	if m.statusErr != nil {
		return dto.SubmissionStatusResponse{}, m.statusErr
	}
	return m.status, nil
}

func (m *mockSubmissionService) Create(_ context.Context, userID uint, payload dto.SubmissionCreateRequest, avatarFile, archiveFile *multipart.FileHeader) (dto.SubmissionResponse, error) {
	m.lastUserID = userID
	m.lastPayload = payload
	m.gotAvatar = avatarFile != nil
	m.gotArchive = archiveFile != nil
	if m.createErr != nil {
		return dto.SubmissionResponse{}, m.createErr
	}
	return m.created, nil
}

type noopStream struct{}

func (noopStream) Publish(context.Context, dto.EvaluationResponse) {}

func (noopStream) Watch(context.Context, uint) (<-chan dto.EvaluationEvent, func()) {
	return make(chan dto.EvaluationEvent), func() {}
}

func (noopStream) Start(context.Context) {}

func newSubmissionApp(svc service.SubmissionService) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1/developer/submission", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(7))
		return c.Next()
	})
	handler.NewSubmissionHandler(svc, noopStream{}, zerolog.New(io.Discard)).Register(group)
	return app
}

func submissionForm(t *testing.T, includeAvatar, includeArchive bool) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("full_name", "Dewi Lestari"))
	require.NoError(t, writer.WriteField("phone", "+62 812 3456 7890"))
	require.NoError(t, writer.WriteField("location", "Bandung"))
	require.NoError(t, writer.WriteField("email", "dewi@example.com"))
	require.NoError(t, writer.WriteField("hobby", "reading"))

	if includeAvatar {
		part, err := writer.CreateFormFile("avatar", "me.png")
		require.NoError(t, err)
		img := imaging.New(32, 32, color.NRGBA{R: 50, G: 60, B: 70, A: 255})
		require.NoError(t, imaging.Encode(part, img, imaging.PNG))
	}
	if includeArchive {
		part, err := writer.CreateFormFile("source_code", "project.zip")
		require.NoError(t, err)
		_, err = part.Write([]byte("PK\x03\x04"))
		require.NoError(t, err)
	}

	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestSubmissionHandlerStatusNoSubmission(t *testing.T) {
	app := newSubmissionApp(&mockSubmissionService{statusErr: service.ErrNoSubmission})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/developer/submission", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var response struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	decodeResponse(t, resp, &response)
	require.False(t, response.Success)
	require.Equal(t, "no submission yet", response.Message)
}

func TestSubmissionHandlerStatusReturnsSnapshot(t *testing.T) {
	evaluation := dto.EvaluationResponse{SubmissionID: 3, EvaluatorID: 9, Decision: models.DecisionAccepted, Feedback: "nice"}
	svc := &mockSubmissionService{status: dto.SubmissionStatusResponse{
		Submission: dto.SubmissionResponse{ID: 3, UserID: 7, FullName: "Dewi Lestari"},
		Evaluation: &evaluation,
	}}
	app := newSubmissionApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/developer/submission", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Success bool                         `json:"success"`
		Data    dto.SubmissionStatusResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.True(t, response.Success)
	require.Equal(t, uint(3), response.Data.Submission.ID)
	require.NotNil(t, response.Data.Evaluation)
	require.Equal(t, models.DecisionAccepted, response.Data.Evaluation.Decision)
	require.Equal(t, uint(7), svc.lastUserID)
}

func TestSubmissionHandlerCreateSuccess(t *testing.T) {
	svc := &mockSubmissionService{created: dto.SubmissionResponse{ID: 3, UserID: 7}}
	app := newSubmissionApp(svc)

	body, contentType := submissionForm(t, true, true)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/developer/submission", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	require.True(t, svc.gotAvatar)
	require.True(t, svc.gotArchive)
	require.Equal(t, "Dewi Lestari", svc.lastPayload.FullName)
	require.Equal(t, "dewi@example.com", svc.lastPayload.Email)
}

func TestSubmissionHandlerCreateAcceptsPhoneSizedAvatar(t *testing.T) {
	svc := &mockSubmissionService{created: dto.SubmissionResponse{ID: 3, UserID: 7}}

	// Mirror the server bootstrap: the body cap comes from the archive limit,
	// not Fiber's 4 MiB default, so a full-size phone photo gets through.
	cfg := config.Config{MaxArchiveSizeMB: 25}
	app := fiber.New(fiber.Config{BodyLimit: cfg.BodyLimit()})
	group := app.Group("/api/v1/developer/submission", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(7))
		return c.Next()
	})
	handler.NewSubmissionHandler(svc, noopStream{}, zerolog.New(io.Discard)).Register(group)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("full_name", "Dewi Lestari"))
	require.NoError(t, writer.WriteField("phone", "+62 812 3456 7890"))
	require.NoError(t, writer.WriteField("location", "Bandung"))
	require.NoError(t, writer.WriteField("email", "dewi@example.com"))
	require.NoError(t, writer.WriteField("hobby", "reading"))

	avatar, err := writer.CreateFormFile("avatar", "photo.jpg")
	require.NoError(t, err)
	_, err = avatar.Write(bytes.Repeat([]byte{0xAB}, 5*1024*1024))
	require.NoError(t, err)

	archive, err := writer.CreateFormFile("source_code", "project.zip")
	require.NoError(t, err)
	_, err = archive.Write([]byte("PK\x03\x04"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/developer/submission", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.True(t, svc.gotAvatar)
	require.True(t, svc.gotArchive)
}

func TestSubmissionHandlerCreateMissingFiles(t *testing.T) {
	svc := &mockSubmissionService{createErr: service.ErrAvatarRequired}
	app := newSubmissionApp(svc)

	body, contentType := submissionForm(t, false, true)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/developer/submission", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.False(t, svc.gotAvatar)
	require.True(t, svc.gotArchive)
}

func TestSubmissionHandlerCreateServiceErrors(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		statusCode int
	}{
		{name: "duplicate", err: service.ErrSubmissionExists, statusCode: fiber.StatusConflict},
		{name: "not zip", err: service.ErrArchiveNotZip, statusCode: fiber.StatusBadRequest},
		{name: "too large", err: service.ErrArchiveTooLarge, statusCode: fiber.StatusBadRequest},
		{name: "image upload", err: service.ErrImageUploadFailed, statusCode: fiber.StatusBadGateway},
		{name: "zip upload", err: service.ErrArchiveUploadFailed, statusCode: fiber.StatusBadGateway},
		{name: "save", err: service.ErrSubmissionSaveFailed, statusCode: fiber.StatusBadGateway},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newSubmissionApp(&mockSubmissionService{createErr: tc.err})

			body, contentType := submissionForm(t, true, true)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/developer/submission", body)
			req.Header.Set("Content-Type", contentType)

			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, tc.statusCode, resp.StatusCode)
		})
	}
}
