package user

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/zaylabs/erp/internal/core/authz"
	"golang.org/x/crypto/bcrypt"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

const (
	minPasswordLength       = 6
	generatedPasswordLength = 12
)

// Service はユーザーに関するユースケースをまとめます。
type Service struct {
	repo  Repository
	clock Clock
}

// UseCase はユーザーユースケースの公開インターフェースです。
type UseCase interface {
	CreateUser(ctx context.Context, in CreateUserInput) (*User, error)
	GetUser(ctx context.Context, in GetUserInput) (*User, error)
	FindOrCreateByEmail(ctx context.Context, in FindOrCreateInput) (*FindOrCreateResult, error)
	CreateLogin(ctx context.Context, in CreateLoginInput) (*CreateLoginResult, error)
	Authenticate(ctx context.Context, in AuthenticateInput) (*User, error)
	ListByRoles(ctx context.Context, roles []authz.Role) ([]*User, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, clock Clock) *Service {
	if clock == nil {
		clock = realClock{}
	}
	return &Service{repo: repo, clock: clock}
}

// CreateUserInput はユーザー作成時の入力です。
type CreateUserInput struct {
	Email    string
	Name     string
	Role     authz.Role
	Password string
}

// GetUserInput はユーザー取得時の入力です。
type GetUserInput struct {
	ID string
}

// FindOrCreateInput はメールアドレスによる検索・作成時の入力です。
// 作成時は Name と Role が新規ユーザーに適用されます。
type FindOrCreateInput struct {
	Email string
	Name  string
	Role  authz.Role
}

// FindOrCreateResult は検索・作成の結果を表します。
// Created が真の場合のみ GeneratedPassword が一度だけ返却されます。
type FindOrCreateResult struct {
	User              *User
	Created           bool
	GeneratedPassword string
}

// CreateLoginInput はログイン発行時の入力です。
type CreateLoginInput struct {
	Email string
	Name  string
	Role  authz.Role
}

// CreateLoginResult はログイン発行の結果を表します。
type CreateLoginResult struct {
	User              *User
	GeneratedPassword string
}

// AuthenticateInput は認証時の入力です。
type AuthenticateInput struct {
	Email    string
	Password string
}

// CreateUser は新しいユーザーを作成します。
// パスワードが空の場合は自動生成されたものが設定されます。
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*User, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, ErrInvalidEmail
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrInvalidName
	}

	role := in.Role
	if role == "" {
		role = authz.RoleEmployee
	}
	if !authz.IsValidRole(role) {
		return nil, ErrInvalidRole
	}

	password := in.Password
	if password == "" {
		password, err = generatePassword()
		if err != nil {
			return nil, err
		}
	}
	if len(password) < minPasswordLength {
		return nil, ErrInvalidPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("user: hash password: %w", err)
	}

	if err := s.ensureEmailNotExists(ctx, email); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	u := &User{
		Email:        email,
		Name:         name,
		Role:         role,
		PasswordHash: string(hash),
		Status:       StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	return s.repo.Create(ctx, u)
}

// GetUser は ID でユーザーを取得します。
func (s *Service) GetUser(ctx context.Context, in GetUserInput) (*User, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}
	return s.repo.FindByID(ctx, in.ID)
}

// FindOrCreateByEmail はメールアドレスでユーザーを検索し、
// 存在しなければ自動生成パスワード付きで新規作成します。
func (s *Service) FindOrCreateByEmail(ctx context.Context, in FindOrCreateInput) (*FindOrCreateResult, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, ErrInvalidEmail
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}
	if existing != nil {
		return &FindOrCreateResult{User: existing}, nil
	}

	password, err := generatePassword()
	if err != nil {
		return nil, err
	}

	created, err := s.CreateUser(ctx, CreateUserInput{
		Email:    email,
		Name:     in.Name,
		Role:     in.Role,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	return &FindOrCreateResult{User: created, Created: true, GeneratedPassword: password}, nil
}

// CreateLogin は自動生成パスワード付きの新規ユーザーを作成します。
// 既存メールアドレスの場合は ErrEmailAlreadyExists を返します。
func (s *Service) CreateLogin(ctx context.Context, in CreateLoginInput) (*CreateLoginResult, error) {
	password, err := generatePassword()
	if err != nil {
		return nil, err
	}

	created, err := s.CreateUser(ctx, CreateUserInput{
		Email:    in.Email,
		Name:     in.Name,
		Role:     in.Role,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	return &CreateLoginResult{User: created, GeneratedPassword: password}, nil
}

// Authenticate はメールアドレスとパスワードでユーザーを認証します。
func (s *Service) Authenticate(ctx context.Context, in AuthenticateInput) (*User, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	found, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if found.Status != StatusActive {
		return nil, ErrUserInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(found.PasswordHash), []byte(in.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return found, nil
}

// ListByRoles は指定された役割のユーザー一覧を取得します。
func (s *Service) ListByRoles(ctx context.Context, roles []authz.Role) ([]*User, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	return s.repo.ListByRoles(ctx, roles)
}

func (s *Service) ensureEmailNotExists(ctx context.Context, email string) error {
	found, err := s.repo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return err
	}
	if found != nil {
		return ErrEmailAlreadyExists
	}
	return nil
}

func normalizeEmail(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidEmail
	}

	addr, err := mail.ParseAddress(trimmed)
	if err != nil {
		return "", ErrInvalidEmail
	}

	return strings.ToLower(addr.Address), nil
}

func generatePassword() (string, error) {
	buf := make([]byte, generatedPasswordLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("user: generate password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)[:generatedPasswordLength], nil
}
