package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/zaylabs/erp/internal/core/authz"
	"github.com/zaylabs/erp/internal/core/user"
)

type stubRow struct {
	scanFn func(dest ...interface{}) error
}

func (s stubRow) Scan(dest ...interface{}) error {
	return s.scanFn(dest...)
}

func TestScanUser_Success(t *testing.T) {
	t.Parallel()

	createdAt := time.Now().UTC()
	updatedAt := createdAt.Add(time.Minute)

	row := stubRow{scanFn: func(dest ...interface{}) error {
		if len(dest) != 8 {
			return errors.New("unexpected dest length")
		}
		*(dest[0].(*string)) = "user-1"
		*(dest[1].(*string)) = "user@example.com"
		*(dest[2].(*string)) = "User"
		*(dest[3].(*string)) = string(authz.RoleManager)
		*(dest[4].(*string)) = "hashed-secret"
		*(dest[5].(*string)) = string(user.StatusActive)
		*(dest[6].(*time.Time)) = createdAt
		*(dest[7].(*time.Time)) = updatedAt
		return nil
	}}

	u, err := scanUser(row)
	if err != nil {
		t.Fatalf("scanUser returned error: %v", err)
	}

	if u.ID != "user-1" || u.Email != "user@example.com" || u.Role != authz.RoleManager {
		t.Fatalf("unexpected user %+v", u)
	}
}

func TestScanUser_NoRows(t *testing.T) {
	t.Parallel()

	row := stubRow{scanFn: func(dest ...interface{}) error {
		return pgx.ErrNoRows
	}}

	_, err := scanUser(row)
	if !errors.Is(err, user.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestTranslateUserPgError(t *testing.T) {
	t.Parallel()

	pgErr := &pgconn.PgError{Code: uniqueViolationCode}
	if !errors.Is(translateUserPgError(pgErr), user.ErrEmailAlreadyExists) {
		t.Fatalf("expected email exists error mapping")
	}

	otherErr := errors.New("random")
	if translateUserPgError(otherErr) != otherErr {
		t.Fatalf("unexpected translation for generic error")
	}
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	query := regexp.QuoteMeta(`
        INSERT INTO users (id, email, name, role, password_hash, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, email, name, role, password_hash, status, created_at, updated_at
    `)

	now := time.Now().UTC()
	mock.ExpectQuery(query).
		WithArgs(pgxmock.AnyArg(), "taken@example.com", "User", string(authz.RoleEmployee), "hashed-secret", string(user.StatusActive), now, now).
		WillReturnError(&pgconn.PgError{Code: uniqueViolationCode})

	_, err = repo.Create(context.Background(), &user.User{
		Email:        "taken@example.com",
		Name:         "User",
		Role:         authz.RoleEmployee,
		PasswordHash: "hashed-secret",
		Status:       user.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if !errors.Is(err, user.ErrEmailAlreadyExists) {
		t.Fatalf("expected ErrEmailAlreadyExists, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_FindByEmail_NotFound(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	query := regexp.QuoteMeta(`
        SELECT id, email, name, role, password_hash, status, created_at, updated_at
          FROM users
         WHERE email = $1
         LIMIT 1
    `)

	mock.ExpectQuery(query).
		WithArgs("ghost@example.com").
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.FindByEmail(context.Background(), "ghost@example.com")
	if !errors.Is(err, user.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_ListByRoles(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	query := regexp.QuoteMeta(`
        SELECT id, email, name, role, password_hash, status, created_at, updated_at
          FROM users
         WHERE role = ANY($1)
         ORDER BY created_at, id
    `)

	now := time.Now().UTC()
	rows := pgxmock.NewRows([]string{"id", "email", "name", "role", "password_hash", "status", "created_at", "updated_at"}).
		AddRow("user-1", "exec@example.com", "Exec", string(authz.RoleExecutive), "hash", string(user.StatusActive), now, now).
		AddRow("user-2", "manager@example.com", "Manager", string(authz.RoleManager), "hash", string(user.StatusActive), now, now)

	mock.ExpectQuery(query).
		WithArgs([]string{string(authz.RoleExecutive), string(authz.RoleManager)}).
		WillReturnRows(rows)

	users, err := repo.ListByRoles(context.Background(), []authz.Role{authz.RoleExecutive, authz.RoleManager})
	if err != nil {
		t.Fatalf("ListByRoles returned error: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_ListByRoles_EmptyInput(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	users, err := repo.ListByRoles(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListByRoles returned error: %v", err)
	}
	if users != nil {
		t.Fatalf("expected nil result, got %v", users)
	}
}
