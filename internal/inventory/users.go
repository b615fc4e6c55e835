package inventory

import (
	"context"
	"log/slog"
	"strings"

	"github.com/tphummel/ict_assets/internal/apperrors"
	"github.com/tphummel/ict_assets/internal/auth"
	"github.com/tphummel/ict_assets/internal/models"
)

// errBadCredentials hides whether the personal number or the password was
// wrong.
var errBadCredentials = apperrors.New(apperrors.CodeUnauthorized, "invalid personal number or password")

// Login checks a personal number and password and records the sign-in.
func (s *Service) Login(ctx context.Context, personalNumber, password string) (*models.User, error) {
	number, err := models.NormalizeDomainAccount(personalNumber)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeValidation, "personal number must be K or T followed by 8 digits", err)
	}
	if len(password) < models.MinPasswordLength {
		return nil, apperrors.Newf(apperrors.CodeValidation,
			"password must be at least %d characters", models.MinPasswordLength)
	}

	u, err := s.db.GetUserByPersonalNumber(ctx, number)
	if apperrors.CodeOf(err) == apperrors.CodeNotFound {
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		slog.Info("login rejected", "personal_number", number)
		return nil, errBadCredentials
	}
	if !u.IsActive {
		return nil, apperrors.New(apperrors.CodeForbidden, "account is disabled")
	}
	now := s.now()
	if err := s.db.TouchLastLogin(ctx, u.ID, now); err != nil {
		return nil, err
	}
	u.LastLogin = &now
	return u, nil
}

// UserInput creates or edits an operator account. An empty Password on
// update keeps the current one.
type UserInput struct {
	Name           string
	Email          string
	PersonalNumber string
	Password       string
	Role           models.Role
	Department     string
	IsActive       *bool
}

// CreateUser adds an operator account.
func (s *Service) CreateUser(ctx context.Context, in UserInput) (*models.User, error) {
	number, err := models.NormalizeDomainAccount(in.PersonalNumber)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeValidation, "personal number must be K or T followed by 8 digits", err)
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "name is required")
	}
	if !models.ValidRoles[in.Role] {
		return nil, apperrors.Newf(apperrors.CodeValidation, "invalid role %q", in.Role)
	}
	if len(in.Password) < models.MinPasswordLength {
		return nil, apperrors.Newf(apperrors.CodeValidation,
			"password must be at least %d characters", models.MinPasswordLength)
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := &models.User{
		ID:             s.ids(),
		Name:           strings.TrimSpace(in.Name),
		Email:          strings.TrimSpace(in.Email),
		PersonalNumber: number,
		PasswordHash:   hash,
		Role:           in.Role,
		Department:     strings.TrimSpace(in.Department),
		IsActive:       in.IsActive == nil || *in.IsActive,
		CreatedAt:      s.now(),
	}
	if err := s.db.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// UpdateUser edits an operator account. The personal number is immutable.
func (s *Service) UpdateUser(ctx context.Context, id string, in UserInput) (*models.User, error) {
	u, err := s.db.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		u.Name = name
	}
	if in.Email != "" {
		u.Email = strings.TrimSpace(in.Email)
	}
	if in.Department != "" {
		u.Department = strings.TrimSpace(in.Department)
	}
	if in.Role != "" {
		if !models.ValidRoles[in.Role] {
			return nil, apperrors.Newf(apperrors.CodeValidation, "invalid role %q", in.Role)
		}
		u.Role = in.Role
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	if in.Password != "" {
		if len(in.Password) < models.MinPasswordLength {
			return nil, apperrors.Newf(apperrors.CodeValidation,
				"password must be at least %d characters", models.MinPasswordLength)
		}
		if u.PasswordHash, err = auth.HashPassword(in.Password); err != nil {
			return nil, err
		}
	}
	if err := s.db.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// BootstrapAdmin creates an Admin account when no users exist yet. It
// reports whether an account was created.
func (s *Service) BootstrapAdmin(ctx context.Context, name, personalNumber, password string) (bool, error) {
	n, err := s.db.CountUsers(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if name == "" {
		name = "Administrator"
	}
	u, err := s.CreateUser(ctx, UserInput{
		Name:           name,
		PersonalNumber: personalNumber,
		Password:       password,
		Role:           models.RoleAdmin,
		Department:     models.CustodianDepartment,
	})
	if err != nil {
		return false, err
	}
	slog.Info("bootstrap admin created", "personal_number", u.PersonalNumber)
	return true, nil
}

// HolderInput registers a person assets can be deployed to.
type HolderInput struct {
	FullName      string
	DomainAccount string
	Location      string
	Department    string
	Section       string
}

// CreateHolder registers a holder under a validated domain account.
func (s *Service) CreateHolder(ctx context.Context, in HolderInput) (*models.Holder, error) {
	acct, err := models.NormalizeDomainAccount(in.DomainAccount)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidDomainAccount, "domain account "+in.DomainAccount+" is invalid", err)
	}
	if strings.TrimSpace(in.FullName) == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "full_name is required")
	}
	now := s.now()
	h := &models.Holder{
		ID:            s.ids(),
		FullName:      strings.TrimSpace(in.FullName),
		DomainAccount: acct,
		Location:      strings.TrimSpace(in.Location),
		Department:    strings.TrimSpace(in.Department),
		Section:       strings.TrimSpace(in.Section),
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.db.CreateHolder(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}
