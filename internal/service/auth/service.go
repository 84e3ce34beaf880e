// Package auth implementa login, registro e emissão de tokens JWT para o
// dashboard.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/zapify/zapify/internal/storage"
	"github.com/zapify/zapify/internal/storage/model"
)

var (
	ErrInvalidCredentials = errors.New("credenciais inválidas")
	ErrEmailTaken         = errors.New("email já cadastrado")
	ErrWrongPassword      = errors.New("senha atual incorreta")
)

const bcryptCost = 10

type Service struct {
	users     storage.UserRepository
	jwtSecret string
	jwtExp    time.Duration
}

func NewService(users storage.UserRepository, jwtSecret string, expHours int) *Service {
	if expHours <= 0 {
		expHours = 24
	}
	return &Service{
		users:     users,
		jwtSecret: jwtSecret,
		jwtExp:    time.Duration(expHours) * time.Hour,
	}
}

// Login valida email/senha e emite um token JWT.
func (s *Service) Login(ctx context.Context, email, password string) (model.User, string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.User{}, "", ErrInvalidCredentials
		}
		return model.User{}, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return model.User{}, "", ErrInvalidCredentials
	}

	token, err := s.GenerateToken(user)
	if err != nil {
		return model.User{}, "", err
	}
	return user, token, nil
}

// Register cria um novo usuário. O primeiro usuário cadastrado vira admin.
func (s *Service) Register(ctx context.Context, email, password, name string) (model.User, string, error) {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return model.User{}, "", ErrEmailTaken
	} else if !errors.Is(err, storage.ErrNotFound) {
		return model.User{}, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return model.User{}, "", fmt.Errorf("auth: gerar hash: %w", err)
	}

	role := model.UserRoleOperator
	if count, err := s.users.Count(ctx); err == nil && count == 0 {
		role = model.UserRoleAdmin
	}

	user, err := s.users.Create(ctx, model.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         role,
	})
	if err != nil {
		return model.User{}, "", err
	}

	token, err := s.GenerateToken(user)
	if err != nil {
		return model.User{}, "", err
	}
	return user, token, nil
}

// ChangePassword troca a senha do usuário após conferir a senha atual.
func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrWrongPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("auth: gerar hash: %w", err)
	}
	return s.users.UpdatePassword(ctx, userID, string(hash))
}

func (s *Service) GetUser(ctx context.Context, id string) (model.User, error) {
	return s.users.GetByID(ctx, id)
}

// GenerateToken emite um JWT HS256 com sub/email/role.
func (s *Service) GenerateToken(user model.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"role":  user.Role,
		"iat":   now.Unix(),
		"exp":   now.Add(s.jwtExp).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("auth: assinar token: %w", err)
	}
	return signed, nil
}
