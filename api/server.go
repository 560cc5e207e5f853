// Package api exposes the chat over HTTP and websocket using Fiber.
package api

import (
	"chispa/auth"
	"chispa/domain"
	chisperrors "chispa/errors"
	"chispa/observability"
	"chispa/services"
	"chispa/storage"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

type Server struct {
	app      *fiber.App
	chat     services.IChatService
	accounts services.IAccountService
	tokens   *auth.TokenManager
	blobs    storage.BlobStore
	monitor  *observability.Monitor
	log      *slog.Logger
}

func NewServer(
	chat services.IChatService,
	accounts services.IAccountService,
	tokens *auth.TokenManager,
	blobs storage.BlobStore,
	monitor *observability.Monitor,
	log *slog.Logger,
) *Server {
	s := &Server{
		app:      fiber.New(fiber.Config{AppName: "chispa", DisableStartupMessage: true}),
		chat:     chat,
		accounts: accounts,
		tokens:   tokens,
		blobs:    blobs,
		monitor:  monitor,
		log:      log,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/health", s.handleHealth)
	s.app.Get("/uploads/*", s.handleBlob)

	v1 := s.app.Group("/v1")
	v1.Post("/auth/register", s.handleRegister)
	v1.Post("/auth/login", s.handleLogin)

	authed := v1.Group("", s.requireSession)
	authed.Post("/account/upgrade", s.handleUpgrade)
	authed.Post("/conversations", s.handleOpenConversation)
	authed.Get("/conversations", s.handleListConversations)
	authed.Get("/conversations/:id/messages", s.handleGetMessages)
	authed.Get("/conversations/:id/search", s.handleSearch)
	authed.Post("/conversations/:id/messages", s.handleSendText)
	authed.Post("/conversations/:id/media", s.handleSendMedia)
	authed.Get("/conversations/:id/ws", upgradeRequired, websocket.New(s.handleWS))
}

func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(s.monitor.Stats())
}

// handleBlob streams a stored media object. URLs are opaque handles produced
// by the blob store, the store itself rejects traversal.
func (s *Server) handleBlob(c *fiber.Ctx) error {
	reader, err := s.blobs.Open(c.Path())
	if err != nil {
		return c.SendStatus(fiber.StatusNotFound)
	}
	defer func() { _ = reader.Close() }()

	data, err := io.ReadAll(reader)
	if err != nil {
		return s.fail(c, err)
	}
	return c.Send(data)
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(c *fiber.Ctx) error {
	var body credentialsRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed body"})
	}
	token, err := s.accounts.Register(body.Email, body.Password)
	if err != nil {
		return s.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"token": token})
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var body credentialsRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed body"})
	}
	token, err := s.accounts.Login(body.Email, body.Password)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"token": token})
}

func (s *Server) handleUpgrade(c *fiber.Ctx) error {
	session := sessionFrom(c)
	var body struct {
		Tier string `json:"tier"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed body"})
	}
	if err := s.accounts.Upgrade(session.UserID, domain.ParseTier(body.Tier)); err != nil {
		return s.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleOpenConversation(c *fiber.Ctx) error {
	session := sessionFrom(c)
	var body struct {
		PeerID string `json:"peer_id"`
	}
	if err := c.BodyParser(&body); err != nil || body.PeerID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "peer_id is required"})
	}
	conversation, err := s.chat.OpenConversation(session.UserID, body.PeerID)
	if err != nil {
		return s.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toConversationResponse(conversation))
}

func (s *Server) handleListConversations(c *fiber.Ctx) error {
	session := sessionFrom(c)
	conversations, err := s.chat.ListConversations(session.UserID)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(lo.Map(conversations, func(conversation domain.Conversation, _ int) conversationResponse {
		return toConversationResponse(conversation)
	}))
}

func (s *Server) handleGetMessages(c *fiber.Ctx) error {
	session := sessionFrom(c)
	var cursor *string
	if raw := c.Query("cursor"); raw != "" {
		cursor = &raw
	}
	messages, next, err := s.chat.GetMessages(session.UserID, c.Params("id"), cursor)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"messages": lo.Map(messages, func(message domain.Message, _ int) messageResponse {
			return toMessageResponse(message)
		}),
		"cursor": next,
	})
}

func (s *Server) handleSearch(c *fiber.Ctx) error {
	session := sessionFrom(c)
	query := c.Query("q")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "q is required"})
	}
	hits, err := s.chat.Search(c.Context(), session.UserID, c.Params("id"), query, c.QueryInt("limit", 20))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"hits": hits})
}

func (s *Server) handleSendText(c *fiber.Ctx) error {
	session := sessionFrom(c)
	var body struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed body"})
	}
	message, err := s.chat.SendText(domain.SendTextCommand{
		ConversationID: c.Params("id"),
		SenderID:       session.UserID,
		Tier:           session.Tier,
		Text:           body.Text,
	})
	if err != nil {
		return s.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMessageResponse(message))
}

// handleSendMedia accepts a multipart form whose file field names declare the
// media kind: image, video or audio. An audio part may carry its measured
// duration in the duration_sec form value.
func (s *Server) handleSendMedia(c *fiber.Ctx) error {
	session := sessionFrom(c)
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "multipart form expected"})
	}

	durationSec := 0
	if raw := form.Value["duration_sec"]; len(raw) > 0 {
		durationSec, _ = strconv.Atoi(raw[0])
	}

	var attachments []domain.Attachment
	for field, headers := range form.File {
		kind := domain.MediaType(field)
		for _, header := range headers {
			file, err := header.Open()
			if err != nil {
				return s.fail(c, err)
			}
			defer func() { _ = file.Close() }()

			attachment := domain.Attachment{Kind: kind, Filename: header.Filename, Content: file}
			if kind == domain.MediaAudio {
				attachment.DurationSec = durationSec
			}
			attachments = append(attachments, attachment)
		}
	}

	message, err := s.chat.SendMedia(domain.SendMediaCommand{
		ConversationID: c.Params("id"),
		SenderID:       session.UserID,
		Tier:           session.Tier,
		Attachments:    attachments,
	})
	if err != nil {
		return s.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMessageResponse(message))
}

// fail maps domain errors onto HTTP statuses. A policy rejection surfaces the
// localized user message as-is, the client renders it untouched.
func (s *Server) fail(c *fiber.Ctx, err error) error {
	var policyErr *chisperrors.PolicyError
	if errors.As(err, &policyErr) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": policyErr.UserMessage})
	}

	switch {
	case errors.Is(err, chisperrors.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid credentials"})
	case errors.Is(err, chisperrors.ErrNotAMember):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "not a member of this conversation"})
	case errors.Is(err, chisperrors.ErrConversationNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "conversation not found"})
	case errors.Is(err, chisperrors.ErrUserAlreadyExists):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "email already registered"})
	case errors.Is(err, chisperrors.ErrInvalidPassword),
		errors.Is(err, chisperrors.ErrEmptyMessage),
		errors.Is(err, chisperrors.ErrUnknownMediaType),
		errors.Is(err, chisperrors.ErrMediaTypeMismatch):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		s.log.Error("Request failed", "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}

type conversationResponse struct {
	ID           string    `json:"id"`
	Members      [2]string `json:"members"`
	LastMessage  string    `json:"last_message"`
	LastSenderID string    `json:"last_sender_id"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toConversationResponse(conversation domain.Conversation) conversationResponse {
	return conversationResponse{
		ID:           conversation.ID,
		Members:      conversation.Members,
		LastMessage:  conversation.LastMessage,
		LastSenderID: conversation.LastSenderID,
		UpdatedAt:    conversation.UpdatedAt,
	}
}

type mediaItemResponse struct {
	Type        string `json:"type"`
	URL         string `json:"url"`
	DurationSec int    `json:"duration_sec,omitempty"`
}

type messageResponse struct {
	ID             string              `json:"id"`
	ConversationID string              `json:"conversation_id"`
	AuthorID       string              `json:"author_id"`
	Type           string              `json:"type"`
	Text           string              `json:"text,omitempty"`
	Media          []mediaItemResponse `json:"media,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
}

func toMessageResponse(message domain.Message) messageResponse {
	return messageResponse{
		ID:             message.ID.String(),
		ConversationID: message.ConversationID,
		AuthorID:       message.AuthorID,
		Type:           string(message.Type),
		Text:           message.Text,
		Media: lo.Map(message.Media, func(item domain.MediaItem, _ int) mediaItemResponse {
			return mediaItemResponse{Type: string(item.Type), URL: item.URL, DurationSec: item.DurationSec}
		}),
		CreatedAt: message.CreatedAt,
	}
}
