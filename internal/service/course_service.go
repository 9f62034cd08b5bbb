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

type courseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindByCode(ctx context.Context, code string) (*models.Course, error)
	CreateWithEnrollment(ctx context.Context, course *models.Course, userID string) error
	Enroll(ctx context.Context, courseID, userID string) error
	Unenroll(ctx context.Context, courseID, userID string) (bool, error)
	IsEnrolled(ctx context.Context, courseID, userID string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]models.Course, error)
	ListMembers(ctx context.Context, courseID string) ([]models.CourseMember, error)
}

type courseValidator interface {
	Validate(code, name string) error
}

// EnrollRequest describes the enrollment creation payload.
type EnrollRequest struct {
	Code string `json:"code" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// CourseService orchestrates enrollment workflows. Courses are created
// lazily the first time any user enrolls in a catalog entry and reused after.
type CourseService struct {
	repo      courseRepository
	catalog   courseValidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs CourseService.
func NewCourseService(repo courseRepository, cat courseValidator, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, catalog: cat, validator: validate, logger: logger}
}

// Enroll validates the course against the catalog and connects the user,
// creating the course record on first enrollment.
func (s *CourseService) Enroll(ctx context.Context, userID string, req EnrollRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	code := strings.TrimSpace(req.Code)
	name := strings.TrimSpace(req.Name)
	if err := s.catalog.Validate(code, name); err != nil {
		return nil, err
	}

	course, err := s.repo.FindByCode(ctx, code)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up course")
	}

	if course == nil {
		course = &models.Course{Code: code, Name: name}
		if err := s.repo.CreateWithEnrollment(ctx, course, userID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
		}
		return course, nil
	}

	enrolled, err := s.repo.IsEnrolled(ctx, course.ID, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if enrolled {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("you are already enrolled in %s", code))
	}

	if err := s.repo.Enroll(ctx, course.ID, userID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll")
	}
	return course, nil
}

// ListMine returns the caller's enrolled courses.
func (s *CourseService) ListMine(ctx context.Context, userID string) ([]models.Course, error) {
	courses, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// FindByCode resolves a single course by its display code.
func (s *CourseService) FindByCode(ctx context.Context, code string) (*models.Course, error) {
	course, err := s.repo.FindByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up course")
	}
	return course, nil
}

// Unenroll disconnects the user from the course.
func (s *CourseService) Unenroll(ctx context.Context, userID, courseID string) error {
	removed, err := s.repo.Unenroll(ctx, courseID, userID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove enrollment")
	}
	if !removed {
		return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
	}
	return nil
}

// Roster returns the enrolled users of a course.
func (s *CourseService) Roster(ctx context.Context, courseID string) ([]models.CourseMember, error) {
	if _, err := s.repo.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	members, err := s.repo.ListMembers(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list course members")
	}
	return members, nil
}
