package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/studybuddy/study-buddy-api/internal/models"
	appErrors "github.com/studybuddy/study-buddy-api/pkg/errors"
)

type messageRepository interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.CourseMessageDetail, error)
	CreateCourseMessage(ctx context.Context, message *models.CourseMessage) error
	ListConversation(ctx context.Context, userID, otherID string) ([]models.DirectMessageDetail, error)
	CreateDirectMessage(ctx context.Context, message *models.DirectMessage) error
}

type messageCourseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	IsEnrolled(ctx context.Context, courseID, userID string) (bool, error)
}

type messageUserRepository interface {
	FindByNetID(ctx context.Context, netID string) (*models.User, error)
}

// CourseMessageRequest is the payload for posting into a course room.
type CourseMessageRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

// DirectMessageRequest is the payload for sending a direct message.
type DirectMessageRequest struct {
	ToNetID string `json:"to_net_id" validate:"required"`
	Content string `json:"content" validate:"required,max=2000"`
}

// MessageService implements course room chat and direct messages. Course
// rooms are gated on enrollment; direct messages only require that the
// recipient exists.
type MessageService struct {
	messages  messageRepository
	courses   messageCourseRepository
	users     messageUserRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMessageService constructs a MessageService.
func NewMessageService(messages messageRepository, courses messageCourseRepository, users messageUserRepository, validate *validator.Validate, logger *zap.Logger) *MessageService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessageService{messages: messages, courses: courses, users: users, validator: validate, logger: logger}
}

// ListCourseMessages returns the course room history for an enrolled user.
func (s *MessageService) ListCourseMessages(ctx context.Context, userID, courseID string) ([]models.CourseMessageDetail, error) {
	if err := s.requireEnrollment(ctx, userID, courseID); err != nil {
		return nil, err
	}

	messages, err := s.messages.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list course messages")
	}
	return messages, nil
}

// PostCourseMessage appends a message to the course room.
func (s *MessageService) PostCourseMessage(ctx context.Context, userID, courseID string, req CourseMessageRequest) (*models.CourseMessage, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid message payload")
	}
	if err := s.requireEnrollment(ctx, userID, courseID); err != nil {
		return nil, err
	}

	message := &models.CourseMessage{
		CourseID: courseID,
		SenderID: userID,
		Content:  strings.TrimSpace(req.Content),
	}
	if err := s.messages.CreateCourseMessage(ctx, message); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to post message")
	}
	return message, nil
}

// Conversation returns the direct-message thread between the caller and the
// user identified by NetID, oldest first.
func (s *MessageService) Conversation(ctx context.Context, userID, otherNetID string) ([]models.DirectMessageDetail, error) {
	other, err := s.resolveUser(ctx, otherNetID)
	if err != nil {
		return nil, err
	}

	messages, err := s.messages.ListConversation(ctx, userID, other.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list conversation")
	}
	return messages, nil
}

// SendDirectMessage delivers a direct message and returns the refreshed
// conversation so clients render the thread without a second request.
func (s *MessageService) SendDirectMessage(ctx context.Context, userID string, req DirectMessageRequest) ([]models.DirectMessageDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid message payload")
	}

	recipient, err := s.resolveUser(ctx, req.ToNetID)
	if err != nil {
		return nil, err
	}
	if recipient.ID == userID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "you cannot message yourself")
	}

	message := &models.DirectMessage{
		SenderID:    userID,
		RecipientID: recipient.ID,
		Content:     strings.TrimSpace(req.Content),
	}
	if err := s.messages.CreateDirectMessage(ctx, message); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to send message")
	}

	conversation, err := s.messages.ListConversation(ctx, userID, recipient.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load conversation")
	}
	return conversation, nil
}

func (s *MessageService) requireEnrollment(ctx context.Context, userID, courseID string) error {
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	enrolled, err := s.courses.IsEnrolled(ctx, courseID, userID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if !enrolled {
		return appErrors.Clone(appErrors.ErrForbidden, "you are not enrolled in this course")
	}
	return nil
}

func (s *MessageService) resolveUser(ctx context.Context, netID string) (*models.User, error) {
	user, err := s.users.FindByNetID(ctx, strings.ToLower(strings.TrimSpace(netID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}
