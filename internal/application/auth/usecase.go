package auth

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/ecf-dgii/internal/application/dto"
	"github.com/jhoicas/ecf-dgii/internal/domain"
	"github.com/jhoicas/ecf-dgii/internal/domain/entity"
	"github.com/jhoicas/ecf-dgii/internal/domain/repository"
	"github.com/jhoicas/ecf-dgii/pkg/jwt"
)

// AuthUseCase login de usuarios del API.
type AuthUseCase struct {
	userRepo    repository.UserRepository
	companyRepo repository.CompanyRepository
	signer      *jwt.Signer
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(userRepo repository.UserRepository, companyRepo repository.CompanyRepository, signer *jwt.Signer) *AuthUseCase {
	return &AuthUseCase{userRepo: userRepo, companyRepo: companyRepo, signer: signer}
}

// Login verifica email/password y emite un JWT con empresa y rol.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return nil, domain.ErrInvalidInput
	}
	user, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	if !user.IsActive() {
		return nil, domain.ErrForbidden
	}
	// El RNC del emisor viaja en el token: los endpoints e-CF lo usan sin releer la empresa.
	company, err := uc.companyRepo.GetByID(ctx, user.CompanyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrForbidden
	}
	token, exp, err := uc.signer.Sign(jwt.Identity{
		UserID:     user.ID,
		CompanyID:  user.CompanyID,
		CompanyRNC: company.RNC,
		Role:       user.Role,
	})
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token:     token,
		ExpiresAt: exp,
		User:      toUserResponse(user),
	}, nil
}

func toUserResponse(u *entity.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		CompanyID: u.CompanyID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
