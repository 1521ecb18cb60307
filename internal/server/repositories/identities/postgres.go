package identities

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/infosec/internal/common"
	"github.com/dmitrijs2005/infosec/internal/dbx"
	"github.com/dmitrijs2005/infosec/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation = "23505"

	usernameConstraint = "identities_username_key"
	emailConstraint    = "identities_email_key"
)

const selectIdentity = `SELECT id, username, email, password_hash, name, phone, birth_date, gender,
		enabled, account_non_expired, account_non_locked, credentials_non_expired,
		token_version, created_at, updated_at, last_login_at
	FROM identities`

// PostgresRepository is a Repository over dbx.DBTX. Save issues several
// statements and must run inside a transaction to be atomic.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.Identity, error) {
	return r.findOne(ctx, selectIdentity+` WHERE id = $1`, id)
}

func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (*models.Identity, error) {
	return r.findOne(ctx, selectIdentity+` WHERE username = $1`, username)
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.Identity, error) {
	return r.findOne(ctx, selectIdentity+` WHERE email = $1`, email)
}

func (r *PostgresRepository) FindByUsernameOrEmail(ctx context.Context, value string) (*models.Identity, error) {
	return r.findOne(ctx, selectIdentity+` WHERE username = $1 OR email = $1
	ORDER BY (username = $1) DESC
	LIMIT 1`, value)
}

func (r *PostgresRepository) findOne(ctx context.Context, query string, arg any) (*models.Identity, error) {
	identity := &models.Identity{}
	var lastLogin sql.NullTime

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&identity.ID, &identity.Username, &identity.Email, &identity.PasswordHash,
		&identity.Name, &identity.Phone, &identity.BirthDate, &identity.Gender,
		&identity.Enabled, &identity.AccountNonExpired, &identity.AccountNonLocked, &identity.CredentialsNonExpired,
		&identity.TokenVersion, &identity.CreatedAt, &identity.UpdatedAt, &lastLogin,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		identity.LastLoginAt = &t
	}

	roles, err := r.findRoles(ctx, identity.ID)
	if err != nil {
		return nil, err
	}
	identity.Roles = roles

	return identity, nil
}

func (r *PostgresRepository) findRoles(ctx context.Context, id string) (models.RoleSet, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT role FROM identity_roles WHERE identity_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var raw []string
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		raw = append(raw, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	roles, err := models.ParseRoleSet(raw)
	if err != nil {
		return nil, fmt.Errorf("identity %s: %w", id, err)
	}
	return roles, nil
}

func (r *PostgresRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM identities WHERE username = $1)`, username)
}

func (r *PostgresRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM identities WHERE email = $1)`, email)
}

func (r *PostgresRepository) exists(ctx context.Context, query string, arg any) (bool, error) {
	var ok bool
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepository) Save(ctx context.Context, identity *models.Identity) (*models.Identity, error) {
	query :=
		`INSERT INTO identities (username, email, password_hash, name, phone, birth_date, gender,
			enabled, account_non_expired, account_non_locked, credentials_non_expired)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, token_version, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		identity.Username, identity.Email, identity.PasswordHash,
		identity.Name, identity.Phone, identity.BirthDate, identity.Gender,
		identity.Enabled, identity.AccountNonExpired, identity.AccountNonLocked, identity.CredentialsNonExpired,
	).Scan(&identity.ID, &identity.TokenVersion, &identity.CreatedAt, &identity.UpdatedAt)
	if err != nil {
		return nil, mapInsertError(err)
	}

	identity.Roles = models.NewRoleSet(identity.Roles...)
	for _, role := range identity.Roles {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO identity_roles (identity_id, role) VALUES ($1, $2)`,
			identity.ID, string(role)); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
	}

	return identity, nil
}

// mapInsertError turns unique violations into the matching conflict error.
func mapInsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch pgErr.ConstraintName {
		case usernameConstraint:
			return common.ErrUsernameTaken
		case emailConstraint:
			return common.ErrEmailTaken
		default:
			return fmt.Errorf("%w: %s", common.ErrConflict, pgErr.ConstraintName)
		}
	}
	return fmt.Errorf("db error: %w", err)
}

func (r *PostgresRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE identities SET last_login_at = $2, updated_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) IncrementTokenVersion(ctx context.Context, id string) (int64, error) {
	query :=
		`UPDATE identities SET token_version = token_version + 1, updated_at = now()
		 WHERE id = $1
		 RETURNING token_version
		 `

	var version int64
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return version, nil
}
