package service

import (
	"context"
	"errors"

	"github.com/examlet/examlet-backend/internal/model"
	"github.com/examlet/examlet-backend/internal/repository"
	"github.com/jackc/pgx/v5"
)

// AdminService handles admin authentication.
type AdminService struct {
	adminRepo *repository.AdminRepository
	auth      *AuthService
}

// NewAdminService creates a new AdminService.
func NewAdminService(adminRepo *repository.AdminRepository, auth *AuthService) *AdminService {
	return &AdminService{adminRepo: adminRepo, auth: auth}
}

// Login checks credentials and issues an admin token. Admin sessions are not
// single-device: the Redis session gate applies to students only.
func (s *AdminService) Login(ctx context.Context, req *model.AdminLoginRequest) (*model.AdminLoginResponse, error) {
	admin, err := s.adminRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.auth.CheckPassword(admin.PasswordHash, req.Password); err != nil {
		return nil, err
	}

	token, err := s.auth.GenerateAdminToken(admin.ID)
	if err != nil {
		return nil, err
	}

	return &model.AdminLoginResponse{Token: token, Admin: *admin}, nil
}
