package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned by Authenticate for an unknown email, an inactive
// account or a wrong password. The three cases are not distinguished.
var ErrInvalidCredentials = errors.New("invalid email or password")

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// Staff is a console operator.
type Staff struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserService provides staff lookup and credential checks.
type UserService interface {
	// Authenticate finds an active staff member by email and verifies the bcrypt hash.
	Authenticate(ctx context.Context, email, password string) (*Staff, error)
	GetByID(ctx context.Context, staffID int) (*Staff, error)
	ListStaff(ctx context.Context) ([]Staff, error)
	// CreateStaff hashes password with bcrypt. Used by the seed command and admins.
	CreateStaff(ctx context.Context, name, email, role, password string) (*Staff, error)
}

type userService struct {
	pool *pgxpool.Pool
}

// NewUserService constructs a UserService backed by PostgreSQL.
func NewUserService(pool *pgxpool.Pool) UserService {
	return &userService{pool: pool}
}

const staffColumns = `id, name, email, role, password_hash, is_active, created_at`

func scanStaff(row interface{ Scan(...any) error }, u *Staff) error {
	return row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.PasswordHash, &u.IsActive, &u.CreatedAt)
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*Staff, error) {
	u := &Staff{}
	err := scanStaff(s.pool.QueryRow(ctx, `
		SELECT `+staffColumns+`
		FROM staff
		WHERE lower(email) = lower($1) AND is_active = true
		LIMIT 1`,
		strings.TrimSpace(email),
	), u)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up staff %q: %w", email, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *userService) GetByID(ctx context.Context, staffID int) (*Staff, error) {
	u := &Staff{}
	err := scanStaff(s.pool.QueryRow(ctx, `SELECT `+staffColumns+` FROM staff WHERE id = $1`, staffID), u)
	if err != nil {
		return nil, notFound(err, "staff", staffID)
	}
	return u, nil
}

func (s *userService) ListStaff(ctx context.Context) ([]Staff, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+staffColumns+` FROM staff ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query staff: %w", err)
	}
	defer rows.Close()

	staff := []Staff{}
	for rows.Next() {
		var u Staff
		if err := scanStaff(rows, &u); err != nil {
			return nil, fmt.Errorf("failed to scan staff: %w", err)
		}
		staff = append(staff, u)
	}
	return staff, rows.Err()
}

func (s *userService) CreateStaff(ctx context.Context, name, email, role, password string) (*Staff, error) {
	if strings.TrimSpace(name) == "" {
		return nil, Invalid("name", "is required")
	}
	if !strings.Contains(email, "@") {
		return nil, Invalid("email", "must be a valid email address")
	}
	if role != RoleAdmin && role != RoleStaff {
		return nil, Invalid("role", "must be %q or %q", RoleAdmin, RoleStaff)
	}
	if len(password) < 8 {
		return nil, Invalid("password", "must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &Staff{}
	err = scanStaff(s.pool.QueryRow(ctx, `
		INSERT INTO staff (name, email, role, password_hash)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, role = EXCLUDED.role,
			password_hash = EXCLUDED.password_hash
		RETURNING `+staffColumns,
		strings.TrimSpace(name), strings.ToLower(strings.TrimSpace(email)), role, string(hash),
	), u)
	if err != nil {
		return nil, fmt.Errorf("failed to create staff: %w", err)
	}
	return u, nil
}
