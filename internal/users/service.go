package users

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sidaputra/dapurlink-backend/internal/vendors"
	"github.com/sidaputra/dapurlink-backend/pkg/config"
	dbpkg "github.com/sidaputra/dapurlink-backend/pkg/db"
	"github.com/sidaputra/dapurlink-backend/pkg/db/models"
	"github.com/sidaputra/dapurlink-backend/pkg/enums"
	pkgerrors "github.com/sidaputra/dapurlink-backend/pkg/errors"
	"github.com/sidaputra/dapurlink-backend/pkg/security"
)

const minPasswordLength = 8

// Service covers yayasan member management and vendor driver accounts.
type Service interface {
	CreateMember(ctx context.Context, yayasanID uuid.UUID, input CreateMemberInput) (*UserDTO, error)
	CreateDriver(ctx context.Context, yayasanID, vendorID uuid.UUID, input CreateDriverInput) (*UserDTO, error)
	ListMembers(ctx context.Context, yayasanID uuid.UUID, role *enums.ActorRole) ([]UserDTO, error)
	DeactivateMember(ctx context.Context, yayasanID, userID uuid.UUID) error
}

// CreateMemberInput is the yayasan-side request to add a dapur or vendor account.
type CreateMemberInput struct {
	Email      string
	Password   string
	Name       string
	Phone      *string
	Role       enums.ActorRole
	VendorID   *uuid.UUID
	VendorName *string
}

// CreateDriverInput is the vendor-side request to add a driver account.
type CreateDriverInput struct {
	Email    string
	Password string
	Name     string
	Phone    *string
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo        *Repository
	vendors     *vendors.Repository
	tx          txRunner
	passwordCfg config.PasswordConfig
}

// ServiceParams bundles the dependencies required to build a users service.
type ServiceParams struct {
	Repo        *Repository
	Vendors     *vendors.Repository
	Tx          txRunner
	PasswordCfg config.PasswordConfig
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	if params.Vendors == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "vendors repository required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	return &service{
		repo:        params.Repo,
		vendors:     params.Vendors,
		tx:          params.Tx,
		passwordCfg: params.PasswordCfg,
	}, nil
}

func (s *service) CreateMember(ctx context.Context, yayasanID uuid.UUID, input CreateMemberInput) (*UserDTO, error) {
	if yayasanID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "yayasan id required")
	}
	if input.Role != enums.ActorRoleDapur && input.Role != enums.ActorRoleVendor {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "role must be dapur or vendor")
	}
	email, err := normalizeCredentials(input.Email, input.Password, input.Name)
	if err != nil {
		return nil, err
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created *models.User
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var vendorID *uuid.UUID
		if input.Role == enums.ActorRoleVendor {
			id, err := s.resolveVendor(ctx, tx, yayasanID, input)
			if err != nil {
				return err
			}
			vendorID = &id
		}

		user, err := s.repo.WithTx(tx).Create(ctx, CreateUserDTO{
			Email:        email,
			PasswordHash: hash,
			Name:         strings.TrimSpace(input.Name),
			Phone:        input.Phone,
			Role:         input.Role,
			YayasanID:    yayasanID,
			VendorID:     vendorID,
		})
		if err != nil {
			if dbpkg.IsUniqueViolation(err, "email") {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert user")
		}
		created = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(created), nil
}

func (s *service) CreateDriver(ctx context.Context, yayasanID, vendorID uuid.UUID, input CreateDriverInput) (*UserDTO, error) {
	if yayasanID == uuid.Nil || vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "yayasan and vendor ids required")
	}
	email, err := normalizeCredentials(input.Email, input.Password, input.Name)
	if err != nil {
		return nil, err
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.repo.Create(ctx, CreateUserDTO{
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(input.Name),
		Phone:        input.Phone,
		Role:         enums.ActorRoleDriver,
		YayasanID:    yayasanID,
		VendorID:     &vendorID,
	})
	if err != nil {
		if dbpkg.IsUniqueViolation(err, "email") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert driver")
	}
	return FromModel(user), nil
}

func (s *service) ListMembers(ctx context.Context, yayasanID uuid.UUID, role *enums.ActorRole) ([]UserDTO, error) {
	if yayasanID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "yayasan id required")
	}
	rows, err := s.repo.ListByYayasan(ctx, yayasanID, role)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list members")
	}
	out := make([]UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) DeactivateMember(ctx context.Context, yayasanID, userID uuid.UUID) error {
	if yayasanID == uuid.Nil || userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "yayasan and user ids required")
	}
	found, err := s.repo.Deactivate(ctx, yayasanID, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate member")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
	}
	return nil
}

// resolveVendor returns an existing vendor owned by the yayasan or creates one
// from the provided name.
func (s *service) resolveVendor(ctx context.Context, tx *gorm.DB, yayasanID uuid.UUID, input CreateMemberInput) (uuid.UUID, error) {
	if input.VendorID != nil {
		vendor, err := s.vendors.WithTx(tx).FindByID(ctx, *input.VendorID)
		if err != nil {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		if vendor.YayasanID != yayasanID {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return vendor.ID, nil
	}
	if input.VendorName == nil || strings.TrimSpace(*input.VendorName) == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id or vendor name required")
	}
	vendor := &models.Vendor{
		YayasanID: yayasanID,
		Name:      strings.TrimSpace(*input.VendorName),
		IsActive:  true,
	}
	if err := s.vendors.WithTx(tx).Create(ctx, vendor); err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert vendor")
	}
	return vendor.ID, nil
}

func normalizeCredentials(email, password, name string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	if len(password) < minPasswordLength {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}
	if strings.TrimSpace(name) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "name required")
	}
	return normalized, nil
}
