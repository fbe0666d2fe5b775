package repository

import (
	"context"
	"fmt"

	"github.com/erikstalman/med-claim-navigator-sub000/internal/models"
)

// UserRepository mirrors user profiles. Passwords stay in the snapshot only.
type UserRepository struct {
	db Execer
}

func NewUserRepository(db Execer) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Upsert(ctx context.Context, user models.User) error {
	const query = `
		INSERT INTO users (
			id, email, name, role, is_active, specialization, license_number, last_login, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			role = EXCLUDED.role,
			is_active = EXCLUDED.is_active,
			specialization = EXCLUDED.specialization,
			license_number = EXCLUDED.license_number,
			last_login = EXCLUDED.last_login
	`

	_, err := r.db.Exec(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		string(user.Role),
		user.IsActive,
		nullable(user.Specialization),
		nullable(user.LicenseNumber),
		user.LastLogin,
		user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert user %s: %w", user.ID, err)
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	return nil
}

// DeleteExcept removes every row whose id is not in keep.
func (r *UserRepository) DeleteExcept(ctx context.Context, keep []string) error {
	if keep == nil {
		keep = []string{}
	}
	if _, err := r.db.Exec(ctx, `DELETE FROM users WHERE id <> ALL($1::text[])`, keep); err != nil {
		return fmt.Errorf("prune users: %w", err)
	}
	return nil
}
