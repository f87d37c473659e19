package usecase

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"campuslink/internal/domain/entity"
	"campuslink/internal/domain/repository"
	"campuslink/internal/infrastructure/auth"
	"campuslink/pkg/errors"
)

// UserUseCase resolves identities and backs the development-only account
// endpoints. Production accounts are provisioned outside this service.
type UserUseCase struct {
	userRepo repository.UserRepository
	issuer   auth.TokenIssuer
}

func NewUserUseCase(userRepo repository.UserRepository, issuer auth.TokenIssuer) *UserUseCase {
	return &UserUseCase{
		userRepo: userRepo,
		issuer:   issuer,
	}
}

type RegisterUserInput struct {
	Email    string
	FullName string
	Role     entity.Role
}

type TokenResponse struct {
	Token string       `json:"token"`
	User  *entity.User `json:"user"`
}

// ResolveIdentity loads the identity record for an authenticated user id.
func (uc *UserUseCase) ResolveIdentity(ctx context.Context, userID string) (entity.Identity, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return entity.Anonymous, errors.Unauthorized("Unknown user", nil)
		}
		return entity.Anonymous, err
	}
	return user.Identity(), nil
}

func (uc *UserUseCase) Register(ctx context.Context, input RegisterUserInput) (*TokenResponse, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := uc.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, errors.BadRequest("Email already registered", nil)
	} else if !errors.Is(err, errors.CodeNotFound) {
		return nil, err
	}

	if !input.Role.Valid() {
		return nil, errors.Validation("invalid role")
	}

	user := &entity.User{
		ID:       uuid.New().String(),
		Email:    email,
		FullName: strings.TrimSpace(input.FullName),
		Role:     input.Role,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return uc.tokenFor(user)
}

func (uc *UserUseCase) IssueToken(ctx context.Context, userID string) (*TokenResponse, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return uc.tokenFor(user)
}

func (uc *UserUseCase) tokenFor(user *entity.User) (*TokenResponse, error) {
	if uc.issuer == nil {
		return nil, errors.BadRequest("Token issuing is not available with this auth provider", nil)
	}
	token, err := uc.issuer.Issue(user.ID)
	if err != nil {
		return nil, errors.Internal("Failed to issue token", err)
	}
	return &TokenResponse{Token: token, User: user}, nil
}
