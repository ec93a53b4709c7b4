package services

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "papertrade/internal/errors"
	"papertrade/internal/models"
	"papertrade/internal/money"
	"papertrade/internal/validator"
)

// registerInput carries the registration form through validation. The
// password policy is 8-20 characters with at least one lowercase letter,
// one uppercase letter and one digit.
type registerInput struct {
	Username     string `validate:"required"`
	Password     string `validate:"required,password_policy"`
	Confirmation string `validate:"required,eqfield=Password"`
}

// changePasswordInput validates a password change request.
type changePasswordInput struct {
	OldPassword  string `validate:"required"`
	NewPassword  string `validate:"required,password_policy"`
	Confirmation string `validate:"required,eqfield=NewPassword"`
}

// userService handles registration and the credential gate.
type userService struct {
	db *gorm.DB
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB) UserServicer {
	return &userService{db: db}
}

// Register creates a new user with the default starting cash balance.
func (s *userService) Register(username, password, confirmation string) (*models.User, error) {
	input := registerInput{Username: username, Password: password, Confirmation: confirmation}
	if err := validator.Struct(input); err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput,
			"username is required and the password must be 8-20 characters with an upper-case letter, a lower-case letter and a digit, matching its confirmation")
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateUsername
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	startingCash, err := money.Parse(models.DefaultStartingCash)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hashedPassword),
		Cash:         startingCash,
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	return user, nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by their unique username
func (s *userService) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return &user, nil
}

// VerifyPassword checks if the provided password matches the stored hash
func (s *userService) VerifyPassword(user *models.User, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	return err == nil
}

// ChangePassword replaces the user's credential after verifying the old one.
// The new password must satisfy the same policy as registration.
func (s *userService) ChangePassword(userID, oldPassword, newPassword, confirmation string) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}

	if !s.VerifyPassword(user, oldPassword) {
		return apperrors.ErrInvalidCredentials
	}

	input := changePasswordInput{OldPassword: oldPassword, NewPassword: newPassword, Confirmation: confirmation}
	if err := validator.Struct(input); err != nil {
		return apperrors.WithMessage(apperrors.ErrInvalidInput,
			"the new password must be 8-20 characters with an upper-case letter, a lower-case letter and a digit, matching its confirmation")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.db.Model(user).Update("password_hash", string(hashedPassword)).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return nil
}
