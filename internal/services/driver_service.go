package services

import (
	"github.com/google/uuid"

	"github.com/moms2go/ride-backend/internal/database"
	"github.com/moms2go/ride-backend/internal/models"
)

// DriverService owns the driver profile surface: self-service updates and
// the admin approval workflow
type DriverService struct {
	driverRepo  *database.DriverRepository
	requestRepo *database.RideRequestRepository
}

// NewDriverService creates a new DriverService
func NewDriverService(driverRepo *database.DriverRepository, requestRepo *database.RideRequestRepository) *DriverService {
	return &DriverService{driverRepo: driverRepo, requestRepo: requestRepo}
}

// Profile returns the calling driver's own profile
func (s *DriverService) Profile(userID uuid.UUID) (*models.Driver, error) {
	return s.driverRepo.GetByUserID(userID)
}

// PendingOffers returns the calling driver's open ride offers
func (s *DriverService) PendingOffers(userID uuid.UUID) ([]models.RideRequest, error) {
	driver, err := s.driverRepo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	return s.requestRepo.ListPendingByDriver(driver.ID)
}

// ListAll returns the full driver roster. Admin only.
func (s *DriverService) ListAll() ([]models.AdminDriverView, error) {
	return s.driverRepo.ListAll()
}

// ListAvailable returns the limited projection passengers may browse
func (s *DriverService) ListAvailable() ([]models.AvailableDriverView, error) {
	return s.driverRepo.ListAvailable()
}

// ApplySelfUpdate applies a driver's own status/position change and returns
// the updated profile
func (s *DriverService) ApplySelfUpdate(userID uuid.UUID, update *models.DriverSelfUpdate) (*models.Driver, error) {
	if err := update.Validate(); err != nil {
		return nil, validationError(err)
	}

	driver, err := s.driverRepo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}

	if err := s.driverRepo.ApplySelfUpdate(driver.ID, update); err != nil {
		return nil, err
	}

	return s.driverRepo.GetByID(driver.ID)
}

// ApplyAdminUpdate applies an admin's approval/certification/status change
// and returns the updated profile
func (s *DriverService) ApplyAdminUpdate(update *models.AdminDriverUpdate) (*models.Driver, error) {
	if err := update.Validate(); err != nil {
		return nil, validationError(err)
	}

	if err := s.driverRepo.ApplyAdminUpdate(update); err != nil {
		return nil, err
	}

	return s.driverRepo.GetByID(update.DriverID)
}
