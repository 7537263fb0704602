package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tanveenambrose/EcoMoney/internal/application/avatar"
	"github.com/tanveenambrose/EcoMoney/internal/domain"
	"github.com/tanveenambrose/EcoMoney/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldName              = "name"
	fieldEmail             = "email"
	fieldPhone             = "phone"
	fieldImage             = "image"
	fieldPasswordHash      = "password_hash"
	fieldIsAccountVerified = "is_account_verified"
	fieldTotalEarnings     = "total_earnings"
	fieldTotalSpending     = "total_spending"
	fieldTotalSavings      = "total_savings"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Service interface {
	// Register validates uniqueness and persists a new account. It sends nothing and issues no token.
	Register(ctx context.Context, req domain.SignupRequest) (*domain.Account, error)
	GetProfile(ctx context.Context, accountID string) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, accountID string, req domain.UpdateProfileRequest, image *avatar.UploadInput) (*domain.Profile, error)
	ChangePassword(ctx context.Context, accountID string, req domain.ChangePasswordRequest) error

	List(ctx context.Context, limit int, cursor string) ([]domain.Account, string, error)
	Get(ctx context.Context, accountID string) (*domain.Account, error)
	Update(ctx context.Context, accountID string, req domain.AdminUpdateRequest) (*domain.Account, error)
	Delete(ctx context.Context, accountID string) error
}

type accountStore interface {
	Get(ctx context.Context, accountID string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByPhone(ctx context.Context, phone string) (*domain.Account, error)
	Put(ctx context.Context, a *domain.Account) error
	Update(ctx context.Context, accountID string, updates map[string]interface{}) error
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.Account, string, error)
	SoftDelete(ctx context.Context, accountID string) error
}

type passwordNotifier interface {
	PasswordChanged(ctx context.Context, a *domain.Account) error
}

type service struct {
	repo     accountStore
	avatars  avatar.Service
	notifier passwordNotifier
	now      func() time.Time
}

type ServiceDeps struct {
	AccountRepo accountStore
	Avatars     avatar.Service
	Notifier    passwordNotifier
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:     deps.AccountRepo,
		avatars:  deps.Avatars,
		notifier: deps.Notifier,
		now:      time.Now,
	}
}

func (s *service) Register(ctx context.Context, req domain.SignupRequest) (*domain.Account, error) {
	email := domain.NormalizeEmail(req.Email)
	phone := strings.TrimSpace(req.Phone)
	name := strings.TrimSpace(req.Name)
	if name == "" || phone == "" || email == "" {
		return nil, fmt.Errorf("name, phone number and email are required: %w", domain.ErrBadRequest)
	}
	if err := s.ensureEmailFree(ctx, email, ""); err != nil {
		return nil, err
	}
	if err := s.ensurePhoneFree(ctx, phone, ""); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	a := &domain.Account{
		AccountID:    id.New(),
		Name:         name,
		Phone:        phone,
		Email:        email,
		PasswordHash: string(hash),
		Enable:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Put(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *service) GetProfile(ctx context.Context, accountID string) (*domain.Profile, error) {
	a, err := s.repo.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return a.Profile(), nil
}

func (s *service) UpdateProfile(ctx context.Context, accountID string, req domain.UpdateProfileRequest, image *avatar.UploadInput) (*domain.Profile, error) {
	a, err := s.repo.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("name cannot be empty: %w", domain.ErrBadRequest)
		}
		updates[fieldName] = name
	}
	if req.Phone != nil {
		phone := strings.TrimSpace(*req.Phone)
		if phone == "" {
			return nil, fmt.Errorf("phone number cannot be empty: %w", domain.ErrBadRequest)
		}
		if phone != a.Phone {
			if err := s.ensurePhoneFree(ctx, phone, accountID); err != nil {
				return nil, err
			}
			updates[fieldPhone] = phone
		}
	}
	setTotals(updates, req.TotalEarnings, req.TotalSpending, req.TotalSavings)

	var newImage string
	if image != nil {
		newImage, err = s.avatars.Upload(ctx, accountID, *image)
		if err != nil {
			return nil, err
		}
		updates[fieldImage] = newImage
	}

	if len(updates) == 0 {
		return a.Profile(), nil
	}
	if err := s.repo.Update(ctx, accountID, updates); err != nil {
		if newImage != "" {
			s.avatars.Remove(ctx, newImage)
		}
		return nil, err
	}
	if newImage != "" && a.Image != "" && a.Image != newImage {
		s.avatars.Remove(ctx, a.Image)
	}

	updated, err := s.repo.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return updated.Profile(), nil
}

func (s *service) ChangePassword(ctx context.Context, accountID string, req domain.ChangePasswordRequest) error {
	a, err := s.repo.Get(ctx, accountID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return fmt.Errorf("the current password you entered is incorrect: %w", domain.ErrBadRequest)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.repo.Update(ctx, accountID, map[string]interface{}{fieldPasswordHash: string(hash)}); err != nil {
		return err
	}
	if s.notifier != nil {
		if err := s.notifier.PasswordChanged(ctx, a); err != nil {
			slog.WarnContext(ctx, "password change alert failed", "user_id", accountID, "err", err)
		}
	}
	return nil
}

func (s *service) List(ctx context.Context, limit int, cursor string) ([]domain.Account, string, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return s.repo.ScanPage(ctx, int32(limit), cursor)
}

func (s *service) Get(ctx context.Context, accountID string) (*domain.Account, error) {
	return s.repo.Get(ctx, accountID)
}

func (s *service) Update(ctx context.Context, accountID string, req domain.AdminUpdateRequest) (*domain.Account, error) {
	a, err := s.repo.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("name cannot be empty: %w", domain.ErrBadRequest)
		}
		updates[fieldName] = name
	}
	if req.Email != nil {
		email := domain.NormalizeEmail(*req.Email)
		if email == "" {
			return nil, fmt.Errorf("email cannot be empty: %w", domain.ErrBadRequest)
		}
		if email != a.Email {
			if err := s.ensureEmailFree(ctx, email, accountID); err != nil {
				return nil, err
			}
			updates[fieldEmail] = email
		}
	}
	if req.Phone != nil {
		phone := strings.TrimSpace(*req.Phone)
		if phone == "" {
			return nil, fmt.Errorf("phone number cannot be empty: %w", domain.ErrBadRequest)
		}
		if phone != a.Phone {
			if err := s.ensurePhoneFree(ctx, phone, accountID); err != nil {
				return nil, err
			}
			updates[fieldPhone] = phone
		}
	}
	if req.IsAccountVerified != nil {
		updates[fieldIsAccountVerified] = *req.IsAccountVerified
	}
	setTotals(updates, req.TotalEarnings, req.TotalSpending, req.TotalSavings)

	if len(updates) == 0 {
		return a, nil
	}
	if err := s.repo.Update(ctx, accountID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, accountID)
}

func (s *service) Delete(ctx context.Context, accountID string) error {
	return s.repo.SoftDelete(ctx, accountID)
}

// ensureEmailFree fails with ErrConflict when email belongs to an account other than selfID.
func (s *service) ensureEmailFree(ctx context.Context, email, selfID string) error {
	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	if existing.AccountID != selfID {
		return fmt.Errorf("email already in use: %w", domain.ErrConflict)
	}
	return nil
}

func (s *service) ensurePhoneFree(ctx context.Context, phone, selfID string) error {
	existing, err := s.repo.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	if existing.AccountID != selfID {
		return fmt.Errorf("phone number already in use: %w", domain.ErrConflict)
	}
	return nil
}

func setTotals(updates map[string]interface{}, earnings, spending, savings *domain.Money) {
	if earnings != nil {
		updates[fieldTotalEarnings] = *earnings
	}
	if spending != nil {
		updates[fieldTotalSpending] = *spending
	}
	if savings != nil {
		updates[fieldTotalSavings] = *savings
	}
}
