package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/studybuddy/study-buddy-api/internal/models"
	appErrors "github.com/studybuddy/study-buddy-api/pkg/errors"
)

type matchRepository interface {
	FindByID(ctx context.Context, id string) (*models.Match, error)
	FindOrCreateForPair(ctx context.Context, courseID, requesterID, addresseeID string) (*models.Match, bool, error)
	UpdateStatus(ctx context.Context, id string, status models.MatchStatus) error
	DeletePendingForPair(ctx context.Context, courseID, requesterID, addresseeID string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]models.MatchDetail, error)
}

type matchUserRepository interface {
	FindByNetID(ctx context.Context, netID string) (*models.User, error)
}

type matchCourseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// MatchRequest is the payload for creating a match request.
type MatchRequest struct {
	CourseID    string `json:"course_id" validate:"required"`
	TargetNetID string `json:"target_net_id" validate:"required"`
}

// RespondRequest is the payload for answering a pending match.
type RespondRequest struct {
	Status models.MatchStatus `json:"status" validate:"required"`
}

// MatchService implements the study-partner matching workflow.
type MatchService struct {
	matches   matchRepository
	users     matchUserRepository
	courses   matchCourseRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMatchService constructs a MatchService.
func NewMatchService(matches matchRepository, users matchUserRepository, courses matchCourseRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *MatchService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MatchService{matches: matches, users: users, courses: courses, cache: cache, validator: validate, logger: logger}
}

func matchCacheKey(userID string) string {
	return "matches:user:" + userID
}

// Request creates a pending match toward the target user, or returns the
// live match already connecting the pair in that course. The second return
// value reports whether a new match was created.
func (s *MatchService) Request(ctx context.Context, requesterID string, req MatchRequest) (*models.Match, bool, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid match payload")
	}

	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	target, err := s.users.FindByNetID(ctx, strings.ToLower(strings.TrimSpace(req.TargetNetID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "target user not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load target user")
	}

	if target.ID == requesterID {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "you cannot match with yourself")
	}

	match, created, err := s.matches.FindOrCreateForPair(ctx, req.CourseID, requesterID, target.ID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create match")
	}

	if created {
		s.invalidateFor(ctx, match.RequesterID, match.AddresseeID)
	}
	return match, created, nil
}

// Respond transitions a pending match to accepted or rejected. Only a
// participant may respond, and only while the match is still pending.
func (s *MatchService) Respond(ctx context.Context, userID, matchID string, req RespondRequest) (*models.Match, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid response payload")
	}
	if !req.Status.Valid() || req.Status == models.MatchStatusPending {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid status %q, expected accepted or rejected", req.Status))
	}

	match, err := s.matches.FindByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "match not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load match")
	}

	if !match.Involves(userID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you are not a participant of this match")
	}
	if match.Status != models.MatchStatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("match is already %s", match.Status))
	}

	if err := s.matches.UpdateStatus(ctx, match.ID, req.Status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update match")
	}
	match.Status = req.Status

	s.invalidateFor(ctx, match.RequesterID, match.AddresseeID)
	return match, nil
}

// Withdraw removes the caller's pending request toward the target user for
// the given course. Only the original requester can withdraw, and only while
// the match is pending.
func (s *MatchService) Withdraw(ctx context.Context, requesterID, courseID, targetNetID string) error {
	target, err := s.users.FindByNetID(ctx, strings.ToLower(strings.TrimSpace(targetNetID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "target user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load target user")
	}

	removed, err := s.matches.DeletePendingForPair(ctx, courseID, requesterID, target.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to withdraw match")
	}
	if !removed {
		return appErrors.Clone(appErrors.ErrNotFound, "no pending match request to withdraw")
	}

	s.invalidateFor(ctx, requesterID, target.ID)
	return nil
}

// List returns every match involving the user as display views, newest
// first. A match whose course record has gone missing is still listed with
// placeholder course fields.
func (s *MatchService) List(ctx context.Context, userID string) ([]models.MatchView, error) {
	key := matchCacheKey(userID)
	var cached []models.MatchView
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	details, err := s.matches.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list matches")
	}

	views := make([]models.MatchView, 0, len(details))
	for _, d := range details {
		views = append(views, toMatchView(d))
	}

	if err := s.cache.Set(ctx, key, views, 0); err != nil {
		s.logger.Warn("failed to cache match listing", zap.String("user_id", userID), zap.Error(err))
	}
	return views, nil
}

func toMatchView(d models.MatchDetail) models.MatchView {
	code, name := "-", "-"
	if d.CourseCode.Valid && d.CourseCode.String != "" {
		code = d.CourseCode.String
	}
	if d.CourseName.Valid && d.CourseName.String != "" {
		name = d.CourseName.String
	}
	return models.MatchView{
		ID: d.ID,
		Course: models.MatchCourseView{
			ID:   d.CourseID,
			Code: code,
			Name: name,
		},
		User: models.MatchUserView{
			ID:    d.PartnerID,
			Name:  d.PartnerName,
			NetID: d.PartnerNetID,
		},
		Status: d.Status,
	}
}

func (s *MatchService) invalidateFor(ctx context.Context, userIDs ...string) {
	for _, id := range userIDs {
		if err := s.cache.Invalidate(ctx, matchCacheKey(id)); err != nil {
			s.logger.Warn("failed to invalidate match cache", zap.String("user_id", id), zap.Error(err))
		}
	}
}
