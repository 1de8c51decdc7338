package database

import (
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moms2go/ride-backend/internal/models"
)

func TestCreateUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserRepository(&mockDatabase{db: db})

	t.Run("Success", func(t *testing.T) {
		now := time.Now()
		user := &models.User{
			Email:        "mom@example.com",
			Name:         "Jane Doe",
			PasswordHash: "hashed",
			Role:         models.RolePassenger,
		}

		mock.ExpectQuery(`INSERT INTO users`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

		err := repo.Create(user)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, user.ID)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Duplicate Email", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO users`).
			WillReturnError(&pq.Error{Code: "23505"})

		err := repo.Create(&models.User{Email: "mom@example.com"})
		assert.ErrorIs(t, err, ErrDuplicate)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO users`).
			WillReturnError(fmt.Errorf("database error"))

		err := repo.Create(&models.User{Email: "mom@example.com"})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create user")

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetUserByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserRepository(&mockDatabase{db: db})

	t.Run("Success", func(t *testing.T) {
		userID := uuid.New()
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM users WHERE email`).
			WithArgs("mom@example.com").
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "email", "name", "phone", "password_hash", "role", "created_at", "updated_at",
			}).AddRow(userID.String(), "mom@example.com", "Jane Doe", nil, "hashed", "passenger", now, now))

		user, err := repo.GetByEmail("mom@example.com")
		require.NoError(t, err)
		assert.Equal(t, userID, user.ID)
		assert.Equal(t, models.RolePassenger, user.Role)
		assert.False(t, user.Phone.Valid)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM users WHERE email`).
			WithArgs("nobody@example.com").
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "email", "name", "phone", "password_hash", "role", "created_at", "updated_at",
			}))

		user, err := repo.GetByEmail("nobody@example.com")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Nil(t, user)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
