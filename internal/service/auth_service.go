package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"club-auth-service/internal/metrics"
	"club-auth-service/internal/model"
	"club-auth-service/pkg/apierror"
)

// dummyHash keeps the bcrypt cost of a login against an unknown email in
// the same ballpark as one against a real account, so response timing
// does not leak which emails exist.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("club-auth-dummy"), bcrypt.DefaultCost)

// AuthService verifies credentials and registers accounts. Bad email and
// bad password are deliberately indistinguishable to callers.
type AuthService struct {
	users      UserStore
	issuer     *TokenIssuer
	google     GoogleVerifier
	bcryptCost int
}

func NewAuthService(users UserStore, issuer *TokenIssuer, google GoogleVerifier, bcryptCost int) *AuthService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = 12
	}
	return &AuthService{users: users, issuer: issuer, google: google, bcryptCost: bcryptCost}
}

func (s *AuthService) Register(ctx context.Context, fullName string, email string, password string, role string) (model.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.ToLower(strings.TrimSpace(email))
	role = strings.ToLower(strings.TrimSpace(role))

	if fullName == "" || email == "" || password == "" {
		return model.User{}, apierror.New("BAD_REQUEST", "nombre_completo, correo and contraseña are required", "", http.StatusBadRequest)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return model.User{}, apierror.New("BAD_REQUEST", "correo is not a valid email address", "correo", http.StatusBadRequest)
	}
	if len(password) < 8 {
		return model.User{}, apierror.New("BAD_REQUEST", "contraseña must be at least 8 characters", "contraseña", http.StatusBadRequest)
	}
	if role == "" {
		role = model.RolePersonaNatural
	}
	if !model.ValidRole(role) {
		return model.User{}, apierror.New("BAD_REQUEST", "invalid rol", role, http.StatusBadRequest)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := model.User{
		ID:              uuid.NewString(),
		FullName:        fullName,
		Email:           email,
		PasswordHash:    string(hash),
		Role:            role,
		ProfileComplete: true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, model.ErrEmailTaken) {
			return model.User{}, apierror.New("ALREADY_EXISTS", "correo already registered", "", http.StatusConflict)
		}
		return model.User{}, err
	}

	metrics.Registrations.Inc()
	slog.Info("user registered", "user_id", user.ID, "rol", user.Role)
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email string, password string, deviceID string) (model.TokenPair, model.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			// Burn a compare anyway; see dummyHash.
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			slog.Warn("login rejected", "reason", "unknown email")
			metrics.LoginAttempts.WithLabelValues("password", metrics.OutcomeRejected).Inc()
			return model.TokenPair{}, model.User{}, model.ErrInvalidCredentials
		}
		metrics.LoginAttempts.WithLabelValues("password", metrics.OutcomeStoreErr).Inc()
		return model.TokenPair{}, model.User{}, err
	}

	if user.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		slog.Warn("login rejected", "reason", "wrong password", "user_id", user.ID)
		metrics.LoginAttempts.WithLabelValues("password", metrics.OutcomeRejected).Inc()
		return model.TokenPair{}, model.User{}, model.ErrInvalidCredentials
	}

	pair, err := s.issueForDevice(ctx, user, deviceID)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("password", metrics.OutcomeStoreErr).Inc()
		return model.TokenPair{}, model.User{}, err
	}

	metrics.LoginAttempts.WithLabelValues("password", metrics.OutcomeSuccess).Inc()
	slog.Info("login", "user_id", user.ID, "device_id", pair.DeviceID)
	return pair, user, nil
}

// LoginWithGoogle verifies the ID token with the provider, then finds or
// provisions the matching account. Accounts created here start with an
// incomplete profile; the client prompts for the remaining fields.
func (s *AuthService) LoginWithGoogle(ctx context.Context, googleToken string, deviceID string) (model.TokenPair, model.User, error) {
	identity, err := s.google.Verify(ctx, googleToken)
	if err != nil {
		if errors.Is(err, model.ErrInvalidProviderToken) {
			slog.Warn("google login rejected", "reason", "provider rejected token")
			metrics.LoginAttempts.WithLabelValues("google", metrics.OutcomeRejected).Inc()
		} else {
			slog.Error("google login failed", "error", err)
			metrics.LoginAttempts.WithLabelValues("google", metrics.OutcomeProviderErr).Inc()
		}
		return model.TokenPair{}, model.User{}, err
	}

	if !identity.EmailVerified {
		metrics.LoginAttempts.WithLabelValues("google", metrics.OutcomeRejected).Inc()
		return model.TokenPair{}, model.User{}, model.ErrInvalidProviderToken
	}

	user, err := s.findOrCreateGoogleUser(ctx, identity)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("google", metrics.OutcomeStoreErr).Inc()
		return model.TokenPair{}, model.User{}, err
	}

	pair, err := s.issueForDevice(ctx, user, deviceID)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("google", metrics.OutcomeStoreErr).Inc()
		return model.TokenPair{}, model.User{}, err
	}

	metrics.LoginAttempts.WithLabelValues("google", metrics.OutcomeSuccess).Inc()
	slog.Info("google login", "user_id", user.ID, "device_id", pair.DeviceID)
	return pair, user, nil
}

func (s *AuthService) findOrCreateGoogleUser(ctx context.Context, identity GoogleIdentity) (model.User, error) {
	user, err := s.users.FindByGoogleSub(ctx, identity.Sub)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, model.ErrUserNotFound) {
		return model.User{}, err
	}

	// A password account with the same email gets the identity linked
	// instead of a duplicate account.
	user, err = s.users.FindByEmail(ctx, identity.Email)
	if err == nil {
		if linkErr := s.users.LinkGoogleSub(ctx, user.ID, identity.Sub); linkErr != nil {
			return model.User{}, linkErr
		}
		user.GoogleSub = identity.Sub
		return user, nil
	}
	if !errors.Is(err, model.ErrUserNotFound) {
		return model.User{}, err
	}

	now := time.Now().UTC()
	user = model.User{
		ID:              uuid.NewString(),
		FullName:        identity.Name,
		Email:           strings.ToLower(identity.Email),
		GoogleSub:       identity.Sub,
		Role:            model.RolePersonaNatural,
		ProfileComplete: false,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return model.User{}, err
	}

	metrics.Registrations.Inc()
	slog.Info("user provisioned from google identity", "user_id", user.ID)
	return user, nil
}

func (s *AuthService) issueForDevice(ctx context.Context, user model.User, deviceID string) (model.TokenPair, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		deviceID = uuid.NewString()
	}
	return s.issuer.Issue(ctx, user, deviceID)
}

func (s *AuthService) GetUserByID(ctx context.Context, userID string) (model.User, error) {
	return s.users.FindByID(ctx, userID)
}
