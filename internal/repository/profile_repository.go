package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quizdeck/quizdeck-backend/internal/model"
)

var ErrDuplicateEmail = errors.New("user with this email already exists")

// ProfileRepository handles user profile data access.
type ProfileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

// GetByID retrieves a user profile by ID.
func (r *ProfileRepository) GetByID(ctx context.Context, id int) (*model.UserProfile, error) {
	u := &model.UserProfile{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, role, full_name, total_quizzes_taken, total_score, created_at, updated_at
		 FROM users_profile WHERE id = $1`, id,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.FullName, &u.TotalQuizzesTaken, &u.TotalScore, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetByEmail retrieves a user profile by their unique email.
func (r *ProfileRepository) GetByEmail(ctx context.Context, email string) (*model.UserProfile, error) {
	u := &model.UserProfile{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, role, full_name, total_quizzes_taken, total_score, created_at, updated_at
		 FROM users_profile WHERE email = $1`, email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.FullName, &u.TotalQuizzesTaken, &u.TotalScore, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Create inserts a new user profile.
func (r *ProfileRepository) Create(ctx context.Context, u *model.UserProfile) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users_profile (email, password_hash, role, full_name)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, total_quizzes_taken, total_score, created_at, updated_at`,
		u.Email, u.PasswordHash, u.Role, u.FullName,
	).Scan(&u.ID, &u.TotalQuizzesTaken, &u.TotalScore, &u.CreatedAt, &u.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// UpdatePassword updates a user's password hash.
func (r *ProfileRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users_profile SET password_hash = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		passwordHash, id,
	)
	return err
}

// IncrementStats adds to a user's cumulative attempt counters.
func (r *ProfileRepository) IncrementStats(ctx context.Context, id int, quizzesTaken int, scoreDelta float64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users_profile
		 SET total_quizzes_taken = total_quizzes_taken + $1,
		     total_score = total_score + $2,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = $3`,
		quizzesTaken, scoreDelta, id,
	)
	return err
}

// ListStudentsPaginated retrieves student profiles with pagination.
func (r *ProfileRepository) ListStudentsPaginated(ctx context.Context, limit, offset int) ([]model.UserProfile, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users_profile WHERE role = 'student'`,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, email, password_hash, role, full_name, total_quizzes_taken, total_score, created_at, updated_at
		 FROM users_profile WHERE role = 'student'
		 ORDER BY full_name LIMIT $1 OFFSET $2`, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []model.UserProfile
	for rows.Next() {
		var u model.UserProfile
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.FullName, &u.TotalQuizzesTaken, &u.TotalScore, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}
