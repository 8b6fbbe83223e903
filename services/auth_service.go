package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/daniilbelik94/online-shop-sub002/models"
	"github.com/daniilbelik94/online-shop-sub002/repository"
)

// AuthService defines the interface for registration and login.
type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, *ServiceError)
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, *ServiceError)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, *ServiceError)
}

type authServiceImpl struct {
	repo          repository.UserRepository
	notifications NotificationService
	logger        *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(repo repository.UserRepository, notifications NotificationService, logger *zap.Logger) AuthService {
	return &authServiceImpl{repo: repo, notifications: notifications, logger: logger}
}

func (s *authServiceImpl) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, *ServiceError) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to register"}
	}

	user := &models.User{
		Username:     req.Username,
		Email:        strings.ToLower(req.Email),
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		IsActive:     true,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, &ServiceError{StatusCode: 409, Message: "Email or username already registered"}
		}
		s.logger.Error("Failed to create user", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to register"}
	}

	s.logger.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
	)

	if s.notifications != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			s.notifications.NotifyUserRegistered(ctx, user)
		}()
	}
	return user, nil
}

func (s *authServiceImpl) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, *ServiceError) {
	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ServiceError{StatusCode: 401, Message: "Invalid credentials"}
		}
		s.logger.Error("Failed to load user", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to login"}
	}
	if !user.IsActive {
		return nil, &ServiceError{StatusCode: 403, Message: "Account is disabled"}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, &ServiceError{StatusCode: 401, Message: "Invalid credentials"}
	}

	token, err := generateToken(user, 24*time.Hour)
	if err != nil {
		s.logger.Error("Failed to sign token", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to login"}
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID, time.Now()); err != nil {
		s.logger.Warn("Failed to record last login", zap.Error(err))
	}

	s.logger.Info("User logged in", zap.String("user_id", user.ID.String()))
	return &models.LoginResponse{Token: token, User: user}, nil
}

func (s *authServiceImpl) GetUser(ctx context.Context, id uuid.UUID) (*models.User, *ServiceError) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ServiceError{StatusCode: 404, Message: "User not found"}
		}
		s.logger.Error("Failed to load user", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to load user"}
	}
	return user, nil
}

func generateToken(user *models.User, duration time.Duration) (string, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return "", fmt.Errorf("JWT_SECRET not set")
	}

	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"email":   user.Email,
		"role":    user.Role(),
		"exp":     time.Now().Add(duration).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
