package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/moms2go/ride-backend/internal/database"
	"github.com/moms2go/ride-backend/internal/models"
	"github.com/moms2go/ride-backend/pkg/jwt"
	"github.com/moms2go/ride-backend/pkg/mailer"
	"github.com/moms2go/ride-backend/pkg/validator"
)

// ErrInvalidCredentials covers both unknown email and wrong password so the
// response does not reveal which one it was
var ErrInvalidCredentials = errors.New("invalid email or password")

// AuthService handles registration, login and token refresh
type AuthService struct {
	userRepo      *database.UserRepository
	passengerRepo *database.PassengerRepository
	driverRepo    *database.DriverRepository
	jwtService    *jwt.Service
	phoneCheck    *validator.PhoneValidator
	notifier      *NotificationService
	mail          *mailer.Mailer
	bcryptCost    int
	logger        *logrus.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo *database.UserRepository,
	passengerRepo *database.PassengerRepository,
	driverRepo *database.DriverRepository,
	jwtService *jwt.Service,
	notifier *NotificationService,
	mail *mailer.Mailer,
	bcryptCost int,
	logger *logrus.Logger,
) *AuthService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		userRepo:      userRepo,
		passengerRepo: passengerRepo,
		driverRepo:    driverRepo,
		jwtService:    jwtService,
		phoneCheck:    validator.NewPhoneValidator(),
		notifier:      notifier,
		mail:          mail,
		bcryptCost:    bcryptCost,
		logger:        logger,
	}
}

// AuthResult is the token pair plus the authenticated user
type AuthResult struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
}

// Signup registers a user with the role-matching profile. Driver accounts
// start unapproved and cannot accept rides until an admin approves them.
func (s *AuthService) Signup(req *models.SignupRequest) (*AuthResult, error) {
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}

	phone := ""
	if req.Phone != "" {
		sanitized, err := s.phoneCheck.Validate(req.Phone)
		if err != nil {
			return nil, validationError(fmt.Errorf("phone: %w", err))
		}
		phone = sanitized
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
		Role:         req.Role,
	}
	if phone != "" {
		user.Phone = models.NewNullString(phone)
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	switch req.Role {
	case models.RolePassenger:
		if err := s.createPassengerProfile(user, req); err != nil {
			return nil, err
		}
	case models.RoleDriver:
		if err := s.createDriverProfile(user, req); err != nil {
			return nil, err
		}
	}

	return s.issueTokens(user)
}

func (s *AuthService) createPassengerProfile(user *models.User, req *models.SignupRequest) error {
	passenger := &models.Passenger{UserID: user.ID, IsPregnant: true}
	if req.IsPregnant != nil {
		passenger.IsPregnant = *req.IsPregnant
	}
	if req.EmergencyContactName != "" {
		passenger.EmergencyContactName = models.NewNullString(req.EmergencyContactName)
	}
	if req.EmergencyContactPhone != "" {
		sanitized, err := s.phoneCheck.Validate(req.EmergencyContactPhone)
		if err != nil {
			return validationError(fmt.Errorf("emergency_contact_phone: %w", err))
		}
		passenger.EmergencyContactPhone = models.NewNullString(sanitized)
	}
	if req.DueDate != nil {
		passenger.DueDate = models.NewNullTime(*req.DueDate)
	}

	return s.passengerRepo.Create(passenger)
}

func (s *AuthService) createDriverProfile(user *models.User, req *models.SignupRequest) error {
	driver := &models.Driver{
		UserID:        user.ID,
		LicenseNumber: req.LicenseNumber,
		VehicleMake:   req.VehicleMake,
		VehicleModel:  req.VehicleModel,
		VehicleYear:   req.VehicleYear,
		VehiclePlate:  req.VehiclePlate,
		VehicleColor:  req.VehicleColor,
	}

	if err := s.driverRepo.Create(driver); err != nil {
		return err
	}

	s.notifier.Notify(user.ID, models.NotifyDriverApplication, models.NotificationData{}, uuid.NullUUID{})

	if err := s.mail.Send(mailer.DriverApplication(user.Email, user.Name)); err != nil {
		s.logger.WithError(err).Info("Skipping driver application email")
	}

	return nil
}

// Signin checks credentials and issues a token pair
func (s *AuthService) Signin(req *models.SigninRequest) (*AuthResult, error) {
	user, err := s.userRepo.GetByEmail(req.Email)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(user)
}

// Refresh validates a refresh token and issues a fresh pair. The user is
// re-read so a role or email change invalidates older claims.
func (s *AuthService) Refresh(refreshToken string) (*AuthResult, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	user, err := s.userRepo.GetByID(claims.UserID)
	if err != nil {
		return nil, err
	}

	return s.issueTokens(user)
}

func (s *AuthService) issueTokens(user *models.User) (*AuthResult, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwtService.GenerateRefreshToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
