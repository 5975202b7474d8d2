package services

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Akin1234dot/Fifthlasb/internal/database"
	"github.com/Akin1234dot/Fifthlasb/internal/models"
	"github.com/Akin1234dot/Fifthlasb/pkg/errors"
	"github.com/Akin1234dot/Fifthlasb/pkg/logger"
	"github.com/Akin1234dot/Fifthlasb/pkg/utils"
)

// PrincipalState distinguishes "not yet resolved" from "signed out".
// Consumers gating protected content must not redirect while the state is
// still Unknown; treating Unknown as Absent causes a spurious redirect on an
// authenticated reload.
type PrincipalState int

const (
	StateUnknown PrincipalState = iota
	StateAbsent
	StateAuthenticated
)

// Principal is the authenticated user of the session.
type Principal struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
}

// Session holds the live-updating principal plus its profile document. One
// session object is constructed at startup and shared by reference; it is
// never duplicated.
type Session struct {
	mu        sync.RWMutex
	state     PrincipalState
	principal *Principal
	profile   *models.User
}

func NewSession() *Session {
	return &Session{state: StateUnknown}
}

// State returns the current resolution state.
func (s *Session) State() PrincipalState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Principal returns the authenticated principal, nil unless Authenticated.
func (s *Session) Principal() *Principal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.principal
}

// Profile returns the profile document fetched for the principal, possibly
// nil when the fetch failed (defaults apply).
func (s *Session) Profile() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// Resolve installs an authenticated principal and performs the one-shot
// profile-document fetch. The fetch is a read-only side effect; failure is
// non-fatal and leaves profile fields at defaults.
func (s *Session) Resolve(p Principal) {
	var profile *models.User
	var user models.User
	if err := database.DB.First(&user, "id = ?", p.ID).Error; err != nil {
		logger.Warn().Err(err).Str("user_id", p.ID).Msg("Profile fetch failed, using defaults")
	} else {
		profile = &user
		if name := user.ResolveDisplayName(); name != "" {
			p.DisplayName = name
		}
		if user.PhotoURL != "" {
			p.PhotoURL = user.PhotoURL
		}
	}

	s.mu.Lock()
	s.state = StateAuthenticated
	s.principal = &p
	s.profile = profile
	s.mu.Unlock()
}

// Clear marks the session signed out. Idempotent.
func (s *Session) Clear() {
	s.mu.Lock()
	s.state = StateAbsent
	s.principal = nil
	s.profile = nil
	s.mu.Unlock()
}

// --- Authentication operations ---

// SignUpInput is the registration form, including the optional profile
// fields captured by the multi-step sign-up.
type SignUpInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	AccountName string
	TeamMembers models.TeamMemberList
}

// SignUp creates the auth record and the profile document in one step.
func SignUp(input SignUpInput) (*models.User, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if !utils.ValidateEmail(email) {
		return nil, errors.Validation("Please enter a valid email address")
	}
	if input.FirstName == "" || input.LastName == "" {
		return nil, errors.Validation("First and last name are required")
	}
	if err := utils.ValidatePassword(input.Password); err != nil {
		return nil, errors.Validation("Password is too weak. Please use a stronger password.")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to hash password")
		return nil, errors.TransientIO("Sign-up failed. Please try again.")
	}

	accountName := strings.TrimSpace(input.AccountName)
	if accountName == "" {
		accountName = "Default Account"
	}

	// Keep only roster rows with both fields filled.
	roster := make(models.TeamMemberList, 0, len(input.TeamMembers))
	for _, m := range input.TeamMembers {
		if strings.TrimSpace(m.Email) != "" && strings.TrimSpace(m.Role) != "" {
			roster = append(roster, m)
		}
	}

	user := models.User{
		ID:          utils.GenerateID(),
		Email:       email,
		FirstName:   strings.TrimSpace(input.FirstName),
		LastName:    strings.TrimSpace(input.LastName),
		AccountName: accountName,
		TeamMembers: roster,
		IsGuest:     false,
		Password:    string(hashed),
	}

	if err := database.DB.Create(&user).Error; err != nil {
		var existing models.User
		if lookupErr := database.DB.Where("email = ?", email).First(&existing).Error; lookupErr == nil {
			return nil, errors.Conflict("This email is already registered. Please use a different email or try logging in.")
		}
		logger.Warn().Err(err).Str("email", email).Msg("Sign-up failed")
		return nil, errors.TransientIO("Sign-up failed. Please try again.")
	}

	logger.Info().Str("user_id", user.ID).Msg("User registered successfully")
	return &user, nil
}

// Login attempts per email allowed inside the rate window before sign-in is
// temporarily locked.
const (
	loginAttemptLimit  = 10
	loginAttemptWindow = 10 * time.Minute
)

// SignInWithPassword verifies credentials. Failures map to user-facing
// strings; repeated attempts against one address rate-limit.
func SignInWithPassword(email, password string) (*models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	if database.Redis != nil {
		ok, err := database.CheckRateLimit("login:"+email, loginAttemptLimit, loginAttemptWindow)
		if err == nil && !ok {
			return nil, errors.TooManyRequests("Account temporarily locked. Try again later")
		}
	}

	var user models.User
	if err := database.DB.Where("email = ?", email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			logger.Warn().Str("email", email).Msg("Login failed: user not found")
			return nil, errors.NotFound("No account found with this email")
		}
		return nil, errors.TransientIO("Login failed. Please try again")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		logger.Warn().Str("email", email).Msg("Login failed: invalid password")
		return nil, errors.Auth("Incorrect password")
	}

	logger.Info().Str("user_id", user.ID).Msg("User logged in")
	return &user, nil
}

// SignInWithProvider resolves an OAuth identity to a user document,
// upserting the document for a new provider identity. An email already bound
// to a password account conflicts rather than silently merging.
func SignInWithProvider(email, displayName, photoURL string) (*models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	var user models.User
	result := database.DB.Where("email = ?", email).First(&user)

	if result.Error == nil {
		if user.Password != "" {
			return nil, errors.Conflict("An account with this email already uses password sign-in")
		}
		// Refresh the provider snapshot on each sign-in.
		now := time.Now()
		user.DisplayName = displayName
		if photoURL != "" {
			user.PhotoURL = photoURL
		}
		user.EmailVerified = &now
		if err := database.DB.Save(&user).Error; err != nil {
			logger.Warn().Err(err).Str("email", email).Msg("Provider profile refresh failed")
		}
		return &user, nil
	}

	if result.Error != gorm.ErrRecordNotFound {
		return nil, errors.TransientIO("Login failed. Please try again")
	}

	now := time.Now()
	user = models.User{
		ID:            utils.GenerateID(),
		Email:         email,
		DisplayName:   displayName,
		PhotoURL:      photoURL,
		AccountName:   "Default Account",
		EmailVerified: &now,
	}
	if err := database.DB.Create(&user).Error; err != nil {
		logger.Error().Err(err).Str("email", email).Msg("Failed to create user during provider sign-in")
		return nil, errors.TransientIO("Account creation failed")
	}

	logger.Info().Str("user_id", user.ID).Msg("New user registered via provider sign-in")
	return &user, nil
}

// SignOut revokes the token server-side. Idempotent: revoking an expired or
// already-revoked token still succeeds.
func SignOut(jti string, ttl time.Duration) {
	if jti == "" || ttl <= 0 {
		return
	}
	if err := database.BlacklistToken(jti, ttl); err != nil {
		logger.Error().Err(err).Str("jti", jti).Msg("Failed to blacklist token")
	}
}

// RequestPasswordReset issues a short-lived reset token. The response never
// reveals whether the address is registered.
func RequestPasswordReset(email string) {
	email = strings.TrimSpace(strings.ToLower(email))

	var user models.User
	if err := database.DB.Where("email = ?", email).First(&user).Error; err != nil {
		logger.Info().Str("email", email).Msg("Password reset requested for unknown address")
		return
	}

	user.ResetToken = utils.GenerateID()
	expiry := time.Now().Add(15 * time.Minute)
	user.ResetTokenExpiry = &expiry

	if err := database.DB.Save(&user).Error; err != nil {
		logger.Error().Err(err).Msg("Failed to persist reset token")
		return
	}

	// Email dispatch is delegated to the mail provider wired in deployment.
	logger.Info().Str("email", email).Msg("Password reset token generated and dispatched")
}

// ResetPassword consumes a reset token and installs the new password.
func ResetPassword(token, password string) error {
	if err := utils.ValidatePassword(password); err != nil {
		return errors.Validation(err.Error())
	}

	var user models.User
	if err := database.DB.Where("reset_token = ?", token).First(&user).Error; err != nil {
		logger.Warn().Msg("Password reset failed: invalid token")
		return errors.Validation("Invalid or expired token")
	}
	if user.ResetTokenExpiry != nil && time.Now().After(*user.ResetTokenExpiry) {
		logger.Warn().Msg("Password reset failed: expired token")
		return errors.Validation("Token expired")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.TransientIO("Failed to reset password")
	}

	user.Password = string(hashed)
	user.ResetToken = ""
	user.ResetTokenExpiry = nil

	if err := database.DB.Save(&user).Error; err != nil {
		return errors.TransientIO("Failed to reset password")
	}

	logger.Info().Str("user_id", user.ID).Msg("Password reset successfully")
	return nil
}
