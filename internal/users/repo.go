package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/angelmondragon/platefinderz-backend/pkg/db/models"
	"github.com/angelmondragon/platefinderz-backend/pkg/pagination"
)

// Repository exposes user-related persistence operations, including the
// token-ledger writes that back session revocation.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns a page of users ordered by creation time.
func (r *Repository) List(ctx context.Context, params pagination.Params) ([]models.User, error) {
	params = pagination.Normalize(params)
	var list []models.User
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(params.Limit).
		Offset(params.Offset).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// UpdateTokens overwrites the user's token ledger in one write. Login uses it
// to prune dead entries and record the fresh token together.
func (r *Repository) UpdateTokens(ctx context.Context, id uuid.UUID, tokens []string) error {
	if tokens == nil {
		tokens = []string{}
	}
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("tokens", pq.StringArray(tokens)).Error
}

// AppendToken records a token on the user's ledger.
func (r *Repository) AppendToken(ctx context.Context, id uuid.UUID, token string) error {
	user, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	return r.UpdateTokens(ctx, id, append([]string(user.Tokens), token))
}

// RemoveToken revokes a single ledger entry. Other sessions keep theirs.
func (r *Repository) RemoveToken(ctx context.Context, id uuid.UUID, token string) error {
	user, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	remaining := make([]string, 0, len(user.Tokens))
	removed := false
	for _, entry := range user.Tokens {
		if !removed && entry == token {
			removed = true
			continue
		}
		remaining = append(remaining, entry)
	}
	return r.UpdateTokens(ctx, id, remaining)
}

// HasToken reports whether the token is still present on the user's ledger.
// A missing user reads as a revoked session, not an error.
func (r *Repository) HasToken(ctx context.Context, id uuid.UUID, token string) (bool, error) {
	user, err := r.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	for _, entry := range user.Tokens {
		if entry == token {
			return true, nil
		}
	}
	return false, nil
}

// ClearTokens revokes every session for the user.
func (r *Repository) ClearTokens(ctx context.Context, id uuid.UUID) error {
	return r.UpdateTokens(ctx, id, []string{})
}
