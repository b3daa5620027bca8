package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"stockbook/internal/config"
	"stockbook/internal/dto"
	"stockbook/internal/model"
	"stockbook/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)
	CreateUser(ctx context.Context, actor Actor, req dto.CreateUserRequest) (*dto.UserResponse, error)
}

type authService struct {
	repo     repository.ProfileRepository
	branches repository.BranchRepository
	cfg      *config.Config
}

func NewAuthService(repo repository.ProfileRepository, branches repository.BranchRepository, cfg *config.Config) AuthService {
	return &authService{repo: repo, branches: branches, cfg: cfg}
}

// BcryptCost is shared with the seed and genhash commands.
const BcryptCost = 12

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.repo.FindByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		return nil, unauthorized("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, unauthorized("Invalid credentials")
	}
	return s.issue(user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	token, err := jwt.Parse(refreshToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, unauthorized("Invalid or expired refresh token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, unauthorized("Invalid token claims")
	}
	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return nil, unauthorized("Malformed token")
	}
	uid, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, unauthorized("Malformed token")
	}

	user, err := s.repo.FindByID(ctx, uid)
	if err != nil || !user.Active {
		return nil, unauthorized("User not found or inactive")
	}
	return s.issue(user)
}

func (s *authService) issue(user *model.Profile) (*dto.LoginResponse, error) {
	accessToken, err := s.generateToken(user, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.generateToken(user, time.Duration(s.cfg.JWTRefreshHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    s.cfg.JWTExpirationHours * 3600,
		User:         userToResponse(user),
	}, nil
}

// CreateUser provisions a user into the creating admin's organization.
func (s *authService) CreateUser(ctx context.Context, actor Actor, req dto.CreateUserRequest) (*dto.UserResponse, error) {
	if actor.UserID == uuid.Nil {
		return nil, unauthorized("Unauthorized")
	}
	if !actor.IsTenantAdmin() {
		return nil, forbidden("Forbidden: Admin access required")
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return nil, invalid("", "Email and password are required")
	}
	role := req.Role
	if role == "" {
		role = model.RoleStaff
	}
	if role != model.RoleAdmin && role != model.RoleStaff {
		return nil, invalid("role", "role must be admin or staff")
	}
	branchID, err := optionalID("branch_id", req.BranchID)
	if err != nil {
		return nil, err
	}
	if branchID != nil {
		b, err := s.branches.FindByID(ctx, *branchID)
		if err != nil || actor.OrganizationID == nil || b.OrganizationID != *actor.OrganizationID {
			return nil, notFound("Branch")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), BcryptCost)
	if err != nil {
		return nil, err
	}
	user := &model.Profile{
		Email:          email,
		FullName:       req.FullName,
		PasswordHash:   string(hash),
		Role:           role,
		OrganizationID: actor.OrganizationID,
		BranchID:       branchID,
		Active:         true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, conflict("A user with this email address has already been registered")
		}
		return nil, storeErr("Failed to create user", err)
	}
	resp := userToResponse(user)
	return &resp, nil
}

// TokenClaims is the payload of access and refresh tokens.
type TokenClaims struct {
	UserID         string  `json:"user_id"`
	Email          string  `json:"email"`
	Role           string  `json:"role"`
	OrganizationID *string `json:"organization_id"`
	BranchID       *string `json:"branch_id"`
	jwt.RegisteredClaims
}

func (s *authService) generateToken(user *model.Profile, duration time.Duration) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		UserID:         user.ID.String(),
		Email:          user.Email,
		Role:           user.Role,
		OrganizationID: idString(user.OrganizationID),
		BranchID:       idString(user.BranchID),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}
