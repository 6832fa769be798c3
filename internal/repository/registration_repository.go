package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"vault-backend/internal/models"
)

// ErrNotFound is returned when no registration matches the query.
var ErrNotFound = errors.New("registration not found")

// RegistrationRepository defines the interface for registration data access
type RegistrationRepository interface {
	Create(ctx context.Context, registration *models.Registration) error
	GetByPhoneNumber(ctx context.Context, phoneNumber string) (*models.Registration, error)
	Update(ctx context.Context, registration *models.Registration) error
}

// registrationRepository implements RegistrationRepository
type registrationRepository struct {
	db *gorm.DB
}

// NewRegistrationRepository creates a new RegistrationRepository instance
func NewRegistrationRepository(db *gorm.DB) RegistrationRepository {
	return &registrationRepository{db: db}
}

func (r *registrationRepository) Create(ctx context.Context, registration *models.Registration) error {
	return r.db.WithContext(ctx).Create(registration).Error
}

func (r *registrationRepository) GetByPhoneNumber(ctx context.Context, phoneNumber string) (*models.Registration, error) {
	var registration models.Registration
	err := r.db.WithContext(ctx).Where("phone_number = ?", phoneNumber).First(&registration).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &registration, nil
}

func (r *registrationRepository) Update(ctx context.Context, registration *models.Registration) error {
	return r.db.WithContext(ctx).Save(registration).Error
}
