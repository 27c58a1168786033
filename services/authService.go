package services

import (
	"CareDesk/apperrors"
	"CareDesk/database"
	"CareDesk/models"
	"CareDesk/policy"
	"CareDesk/repositories"
	"CareDesk/utils"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Session is the outcome of a successful login or refresh.
type Session struct {
	Profile      *models.Profile `json:"profile"`
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
}

type IdentityService interface {
	Register(ctx context.Context, name, email, password string) (*models.Profile, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	// EnsureProfile creates the profile on first authentication through an
	// external provider.
	EnsureProfile(ctx context.Context, id *utils.Identity) (*models.Profile, error)
	GetProfile(ctx context.Context, actor policy.Actor, id string) (*models.Profile, error)
	ListProfiles(ctx context.Context, actor policy.Actor, page repositories.Page) ([]models.Profile, error)
	DeleteProfile(ctx context.Context, actor policy.Actor, id string) error
	SendResetCode(ctx context.Context, email string) error
	ChangePassword(ctx context.Context, email, resetCode, newPassword string) error
}

type identityService struct {
	store  *repositories.Store
	locker database.Locker
	tokens *utils.PasetoIssuer
	codes  *utils.ResetCodes
	mailer utils.Mailer
}

func NewIdentityService(store *repositories.Store, opts Options) IdentityService {
	return &identityService{
		store:  store,
		locker: opts.Locker,
		tokens: opts.Tokens,
		codes:  opts.ResetCodes,
		mailer: opts.Mailer,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *identityService) Register(ctx context.Context, name, email, password string) (*models.Profile, error) {
	email = normalizeEmail(email)
	if err := utils.ValidateRegistration(name, email, password); err != nil {
		return nil, err
	}

	var profile *models.Profile
	err := database.WithLock(ctx, s.locker, fmt.Sprintf("register_lock:%s", email), func() error {
		if _, err := s.store.Profiles.GetByEmail(ctx, email); err == nil {
			return apperrors.Duplicate("email already registered")
		} else if !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}

		hashed, err := utils.HashPassword(password)
		if err != nil {
			return err
		}
		p := &models.Profile{ID: models.NewID(), Name: strings.TrimSpace(name), Email: email}
		if err := s.store.Profiles.CreateWithCredential(ctx, p, &models.Credential{PasswordHash: hashed}); err != nil {
			return err
		}
		profile = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("user_id", profile.ID).Msg("profile registered")
	return profile, nil
}

func (s *identityService) Login(ctx context.Context, email, password string) (*Session, error) {
	if s.tokens == nil {
		return nil, apperrors.Unauthenticated("password login is disabled")
	}
	profile, err := s.store.Profiles.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthenticated("invalid email or password")
		}
		return nil, err
	}
	cred, err := s.store.Credentials.Get(ctx, profile.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthenticated("invalid email or password")
		}
		return nil, err
	}
	if !utils.CheckPassword(cred.PasswordHash, password) {
		return nil, apperrors.Unauthenticated("invalid email or password")
	}
	return s.session(profile)
}

func (s *identityService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if s.tokens == nil {
		return nil, apperrors.Unauthenticated("token refresh is disabled")
	}
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}
	profile, err := s.store.Profiles.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthenticated("unknown profile")
		}
		return nil, err
	}
	return s.session(profile)
}

func (s *identityService) session(profile *models.Profile) (*Session, error) {
	access, refresh, err := s.tokens.GenerateTokens(profile.ID)
	if err != nil {
		return nil, err
	}
	return &Session{Profile: profile, AccessToken: access, RefreshToken: refresh}, nil
}

func (s *identityService) EnsureProfile(ctx context.Context, id *utils.Identity) (*models.Profile, error) {
	profile, err := s.store.Profiles.GetByID(ctx, id.UserID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	if id.Email == "" {
		return nil, apperrors.Unauthenticated("unknown profile %s", id.UserID)
	}

	err = database.WithLock(ctx, s.locker, fmt.Sprintf("profile_lock:%s", id.UserID), func() error {
		if existing, err := s.store.Profiles.GetByID(ctx, id.UserID); err == nil {
			profile = existing
			return nil
		}
		name := id.Name
		if name == "" {
			name = strings.SplitN(id.Email, "@", 2)[0]
		}
		profile = &models.Profile{ID: id.UserID, Name: name, Email: normalizeEmail(id.Email)}
		if err := utils.ValidateProfile(profile); err != nil {
			return err
		}
		return s.store.Profiles.Create(ctx, profile)
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *identityService) GetProfile(ctx context.Context, actor policy.Actor, id string) (*models.Profile, error) {
	if err := policy.Check(actor, policy.ActionRead, policy.Resource{Kind: policy.KindProfiles, OwnerID: id}); err != nil {
		return nil, err
	}
	return s.store.Profiles.GetByID(ctx, id)
}

func (s *identityService) ListProfiles(ctx context.Context, actor policy.Actor, page repositories.Page) ([]models.Profile, error) {
	if err := policy.Check(actor, policy.ActionRead, policy.Resource{Kind: policy.KindProfiles}); err != nil {
		return nil, err
	}
	return s.store.Profiles.List(ctx, page)
}

func (s *identityService) DeleteProfile(ctx context.Context, actor policy.Actor, id string) error {
	if err := policy.Check(actor, policy.ActionWrite, policy.Resource{Kind: policy.KindProfiles, OwnerID: id}); err != nil {
		return err
	}
	return database.WithLock(ctx, s.locker, fmt.Sprintf("onboard_lock:%s", id), func() error {
		return s.store.Profiles.Delete(ctx, id)
	})
}

// SendResetCode mails a reset code. Unknown addresses succeed silently so the
// endpoint does not reveal which emails are registered.
func (s *identityService) SendResetCode(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if _, err := s.store.Profiles.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			log.Debug().Str("email", email).Msg("reset code requested for unknown email")
			return nil
		}
		return err
	}

	code, err := utils.GenerateResetCode()
	if err != nil {
		return err
	}
	if err := s.codes.Set(ctx, email, code); err != nil {
		return errors.Wrap(err, "failed to store reset code")
	}
	if err := s.mailer.SendResetCode(email, code); err != nil {
		return errors.Wrap(err, "failed to send reset code")
	}
	return nil
}

func (s *identityService) ChangePassword(ctx context.Context, email, resetCode, newPassword string) error {
	email = normalizeEmail(email)
	if err := utils.ValidatePasswordReset(email, resetCode, newPassword); err != nil {
		return err
	}
	ok, err := s.codes.Verify(ctx, email, resetCode)
	if err != nil {
		return errors.Wrap(err, "failed to check reset code")
	}
	if !ok {
		return apperrors.InvalidValue("invalid reset code")
	}

	profile, err := s.store.Profiles.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.store.Credentials.Save(ctx, &models.Credential{UserID: profile.ID, PasswordHash: hashed, UpdatedAt: time.Now()}); err != nil {
		return err
	}
	if err := s.codes.Delete(ctx, email); err != nil {
		log.Warn().Err(err).Str("email", email).Msg("failed to delete reset code")
	}
	return nil
}
