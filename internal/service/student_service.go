package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/examlet/examlet-backend/internal/model"
	"github.com/examlet/examlet-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// ErrStudentNotFound is returned when a student id resolves to nothing.
var ErrStudentNotFound = errors.New("student not found")

// StudentService manages student accounts.
type StudentService struct {
	studentRepo *repository.StudentRepository
	resultRepo  *repository.ResultRepository
	auth        *AuthService
	log         zerolog.Logger
}

// NewStudentService creates a new StudentService.
func NewStudentService(
	studentRepo *repository.StudentRepository,
	resultRepo *repository.ResultRepository,
	auth *AuthService,
	log zerolog.Logger,
) *StudentService {
	return &StudentService{
		studentRepo: studentRepo,
		resultRepo:  resultRepo,
		auth:        auth,
		log:         log.With().Str("component", "student_service").Logger(),
	}
}

// Register creates a new student account with a hashed password.
func (s *StudentService) Register(ctx context.Context, req *model.CreateStudentRequest) (*model.Student, error) {
	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	student := &model.Student{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := s.studentRepo.Create(ctx, student); err != nil {
		return nil, err
	}
	return student, nil
}

// Login checks credentials and issues a session-bound token.
func (s *StudentService) Login(ctx context.Context, req *model.StudentLoginRequest) (*model.StudentLoginResponse, error) {
	student, err := s.studentRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.auth.CheckPassword(student.PasswordHash, req.Password); err != nil {
		return nil, err
	}

	token, err := s.auth.GenerateStudentToken(ctx, student.ID)
	if err != nil {
		return nil, err
	}

	return &model.StudentLoginResponse{Token: token, Student: *student}, nil
}

// Delete removes a student account. Results are removed first: this is the
// only place anything cascades onto stored results, and it runs explicitly.
func (s *StudentService) Delete(ctx context.Context, studentID uuid.UUID) error {
	if _, err := s.studentRepo.GetByID(ctx, studentID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrStudentNotFound
		}
		return err
	}

	if err := s.resultRepo.DeleteByStudent(ctx, studentID); err != nil {
		return fmt.Errorf("delete results: %w", err)
	}
	if err := s.studentRepo.Delete(ctx, studentID); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}

	// Invalidate any live session.
	if err := s.auth.ResetStudentSession(ctx, studentID); err != nil {
		s.log.Warn().Err(err).Str("student_id", studentID.String()).Msg("session cleanup failed")
	}

	s.log.Info().Str("student_id", studentID.String()).Msg("Student deleted")
	return nil
}
