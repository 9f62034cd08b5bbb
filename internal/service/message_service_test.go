package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/studybuddy/study-buddy-api/internal/models"
	appErrors "github.com/studybuddy/study-buddy-api/pkg/errors"
)

type mockMessageRepo struct {
	courseMessages []models.CourseMessageDetail
	conversation   []models.DirectMessageDetail
	postedCourse   *models.CourseMessage
	sentDirect     *models.DirectMessage
}

func (m *mockMessageRepo) ListByCourse(ctx context.Context, courseID string) ([]models.CourseMessageDetail, error) {
	return m.courseMessages, nil
}

func (m *mockMessageRepo) CreateCourseMessage(ctx context.Context, message *models.CourseMessage) error {
	message.ID = "cm1"
	m.postedCourse = message
	return nil
}

func (m *mockMessageRepo) ListConversation(ctx context.Context, userID, otherID string) ([]models.DirectMessageDetail, error) {
	return m.conversation, nil
}

func (m *mockMessageRepo) CreateDirectMessage(ctx context.Context, message *models.DirectMessage) error {
	message.ID = "dm1"
	m.sentDirect = message
	m.conversation = append(m.conversation, models.DirectMessageDetail{ID: message.ID, Content: message.Content})
	return nil
}

type mockEnrollmentReader struct {
	enrolled map[string]bool
}

func (m *mockEnrollmentReader) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if id == "missing" {
		return nil, sql.ErrNoRows
	}
	return &models.Course{ID: id, Code: "CS 225"}, nil
}

func (m *mockEnrollmentReader) IsEnrolled(ctx context.Context, courseID, userID string) (bool, error) {
	return m.enrolled[courseID+"/"+userID], nil
}

func newMessageService(repo *mockMessageRepo, courses *mockEnrollmentReader, users *mockUserReader) *MessageService {
	if users == nil {
		users = &mockUserReader{}
	}
	return NewMessageService(repo, courses, users, validator.New(), zap.NewNop())
}

func TestMessageServicePostCourseMessage(t *testing.T) {
	repo := &mockMessageRepo{}
	courses := &mockEnrollmentReader{enrolled: map[string]bool{"c1/u1": true}}
	svc := newMessageService(repo, courses, nil)

	msg, err := svc.PostCourseMessage(context.Background(), "u1", "c1", CourseMessageRequest{Content: "  study group at 6?  "})
	require.NoError(t, err)
	assert.Equal(t, "study group at 6?", msg.Content)
	assert.Equal(t, "u1", repo.postedCourse.SenderID)
}

func TestMessageServiceCourseRoomRequiresEnrollment(t *testing.T) {
	repo := &mockMessageRepo{}
	courses := &mockEnrollmentReader{enrolled: map[string]bool{}}
	svc := newMessageService(repo, courses, nil)

	_, err := svc.PostCourseMessage(context.Background(), "u1", "c1", CourseMessageRequest{Content: "hi"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
	assert.Equal(t, "you are not enrolled in this course", appErr.Message)

	_, err = svc.ListCourseMessages(context.Background(), "u1", "c1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestMessageServiceCourseRoomMissingCourse(t *testing.T) {
	svc := newMessageService(&mockMessageRepo{}, &mockEnrollmentReader{}, nil)

	_, err := svc.ListCourseMessages(context.Background(), "u1", "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestMessageServiceListCourseMessages(t *testing.T) {
	repo := &mockMessageRepo{courseMessages: []models.CourseMessageDetail{
		{CourseMessage: models.CourseMessage{ID: "cm1", Content: "hello"}, SenderName: "Jane Doe", SenderNetID: "jdoe2"},
	}}
	courses := &mockEnrollmentReader{enrolled: map[string]bool{"c1/u1": true}}
	svc := newMessageService(repo, courses, nil)

	messages, err := svc.ListCourseMessages(context.Background(), "u1", "c1")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "jdoe2", messages[0].SenderNetID)
}

func TestMessageServiceSendDirectMessage(t *testing.T) {
	repo := &mockMessageRepo{}
	users := &mockUserReader{users: map[string]*models.User{"jdoe2": {ID: "u2", NetID: "jdoe2"}}}
	svc := newMessageService(repo, &mockEnrollmentReader{}, users)

	conversation, err := svc.SendDirectMessage(context.Background(), "u1", DirectMessageRequest{ToNetID: "jdoe2", Content: "hey"})
	require.NoError(t, err)
	require.NotNil(t, repo.sentDirect)
	assert.Equal(t, "u2", repo.sentDirect.RecipientID)
	require.Len(t, conversation, 1)
	assert.Equal(t, "hey", conversation[0].Content)
}

func TestMessageServiceSendDirectMessageUnknownRecipient(t *testing.T) {
	svc := newMessageService(&mockMessageRepo{}, &mockEnrollmentReader{}, &mockUserReader{})

	_, err := svc.SendDirectMessage(context.Background(), "u1", DirectMessageRequest{ToNetID: "ghost", Content: "hey"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestMessageServiceSendDirectMessageToSelf(t *testing.T) {
	users := &mockUserReader{users: map[string]*models.User{"jdoe1": {ID: "u1", NetID: "jdoe1"}}}
	svc := newMessageService(&mockMessageRepo{}, &mockEnrollmentReader{}, users)

	_, err := svc.SendDirectMessage(context.Background(), "u1", DirectMessageRequest{ToNetID: "jdoe1", Content: "hey"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestMessageServiceConversation(t *testing.T) {
	repo := &mockMessageRepo{conversation: []models.DirectMessageDetail{
		{ID: "dm1", Content: "hi", SenderNetID: "jdoe1"},
		{ID: "dm2", Content: "hello", SenderNetID: "jdoe2"},
	}}
	users := &mockUserReader{users: map[string]*models.User{"jdoe2": {ID: "u2", NetID: "jdoe2"}}}
	svc := newMessageService(repo, &mockEnrollmentReader{}, users)

	conversation, err := svc.Conversation(context.Background(), "u1", "jdoe2")
	require.NoError(t, err)
	require.Len(t, conversation, 2)
	assert.Equal(t, "jdoe1", conversation[0].SenderNetID)
}
