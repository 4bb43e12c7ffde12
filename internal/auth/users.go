package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

var (
	// ErrUserNotFound is returned when a user does not exist.
	ErrUserNotFound = eris.New("user not found")
	// ErrUserExists is returned when adding an email that is already present.
	ErrUserExists = eris.New("user already exists")
	// ErrInvalidTier is returned for an unknown tier name.
	ErrInvalidTier = eris.New("invalid tier")
)

// Tier controls which features a user can reach.
type Tier string

const (
	TierFree  Tier = "free"
	TierPro   Tier = "pro"
	TierAdmin Tier = "admin"
)

// ParseTier validates a tier name.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if t.rank() < 0 {
		return "", eris.Wrapf(ErrInvalidTier, "%q (want free, pro or admin)", s)
	}
	return t, nil
}

// AtLeast reports whether t grants everything min does.
func (t Tier) AtLeast(min Tier) bool {
	return t.rank() >= min.rank() && t.rank() >= 0
}

func (t Tier) rank() int {
	switch t {
	case TierFree:
		return 0
	case TierPro:
		return 1
	case TierAdmin:
		return 2
	}
	return -1
}

// User represents an authorized user.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Tier      Tier      `json:"tier"`
	CreatedAt time.Time `json:"created_at"`
}

// UserStore manages authorized users in SQLite.
type UserStore struct {
	db         *sql.DB
	adminEmail string
}

// NewUserStore creates a user store.
func NewUserStore(db *sql.DB, adminEmail string) *UserStore {
	return &UserStore{db: db, adminEmail: normalizeEmail(adminEmail)}
}

// IsAuthorized checks if an email is allowed to log in.
// The admin email is always authorized (outside the users table).
func (s *UserStore) IsAuthorized(ctx context.Context, email string) bool {
	_, err := s.TierFor(ctx, email)
	return err == nil
}

// IsAdmin checks if an email has admin rights.
func (s *UserStore) IsAdmin(ctx context.Context, email string) bool {
	tier, err := s.TierFor(ctx, email)
	return err == nil && tier == TierAdmin
}

// TierFor returns the tier for an email. The configured admin email is
// always admin; other emails must be in the users table.
func (s *UserStore) TierFor(ctx context.Context, email string) (Tier, error) {
	email = normalizeEmail(email)
	if email == "" {
		return "", ErrUserNotFound
	}
	if s.adminEmail != "" && email == s.adminEmail {
		return TierAdmin, nil
	}

	var tier string
	err := s.db.QueryRowContext(ctx, "SELECT tier FROM users WHERE LOWER(email) = ?", email).Scan(&tier)
	if errors.Is(err, sql.ErrNoRows) {
		return "", eris.Wrapf(ErrUserNotFound, "%s", email)
	}
	if err != nil {
		return "", eris.Wrap(err, "querying user tier")
	}
	return Tier(tier), nil
}

// Add creates a new authorized user.
func (s *UserStore) Add(ctx context.Context, email, name string, tier Tier) (*User, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)

	if email == "" {
		return nil, eris.New("email is required")
	}
	if tier == "" {
		tier = TierFree
	}
	if tier.rank() < 0 {
		return nil, eris.Wrapf(ErrInvalidTier, "%q", tier)
	}

	result, err := s.db.ExecContext(ctx,
		"INSERT INTO users (email, name, tier) VALUES (?, ?, ?)",
		email, name, string(tier),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, eris.Wrapf(ErrUserExists, "%s", email)
		}
		return nil, eris.Wrap(err, "adding user")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, eris.Wrap(err, "getting user ID")
	}

	return s.GetByID(ctx, id)
}

// SetTier changes a user's tier.
func (s *UserStore) SetTier(ctx context.Context, id int64, tier Tier) (*User, error) {
	if tier.rank() < 0 {
		return nil, eris.Wrapf(ErrInvalidTier, "%q", tier)
	}

	result, err := s.db.ExecContext(ctx, "UPDATE users SET tier = ? WHERE id = ?", string(tier), id)
	if err != nil {
		return nil, eris.Wrap(err, "updating tier")
	}
	if err := requireAffected(result, ErrUserNotFound); err != nil {
		return nil, err
	}

	return s.GetByID(ctx, id)
}

// List returns all authorized users.
func (s *UserStore) List(ctx context.Context) (_ []*User, err error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, email, name, phone, tier, created_at FROM users ORDER BY email",
	)
	if err != nil {
		return nil, eris.Wrap(err, "listing users")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = eris.Wrap(closeErr, "closing rows")
		}
	}()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, eris.Wrap(err, "scanning user")
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "iterating users")
	}
	return users, nil
}

// GetByID returns a user by ID.
func (s *UserStore) GetByID(ctx context.Context, id int64) (*User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		"SELECT id, email, name, phone, tier, created_at FROM users WHERE id = ?", id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrUserNotFound, "id %d", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "querying user")
	}
	return u, nil
}

// Delete removes an authorized user by ID.
func (s *UserStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return eris.Wrap(err, "deleting user")
	}
	return requireAffected(result, ErrUserNotFound)
}

// AllEmails returns all authorized emails including the admin.
// Passkey login uses it to resolve a credential's owner.
func (s *UserStore) AllEmails(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT email FROM users")
	if err != nil {
		return nil, eris.Wrap(err, "listing emails")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			zap.L().Warn("closing rows", zap.Error(closeErr))
		}
	}()

	var emails []string
	if s.adminEmail != "" {
		emails = append(emails, s.adminEmail)
	}
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, eris.Wrap(err, "scanning email")
		}
		if e := normalizeEmail(email); e != s.adminEmail {
			emails = append(emails, e)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "iterating emails")
	}
	return emails, nil
}

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	var tier string
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Phone, &tier, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Tier = Tier(tier)
	return &u, nil
}

func requireAffected(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "checking affected rows")
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
