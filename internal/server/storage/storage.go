// Package storage is the persistence layer of the reference booking API
// server: gorm models and a repository over sqlite (default) or postgres.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var ErrNotFound = errors.New("record not found")

type User struct {
	ID              int64 `gorm:"primaryKey"`
	Name            string
	Email           string `gorm:"uniqueIndex"`
	PasswordHash    string
	EmailVerifiedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Booking struct {
	ID        int64 `gorm:"primaryKey"`
	UserID    int64 `gorm:"index"`
	Date      string
	StartTime string
	EndTime   string
	Status    string
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
	User      User `gorm:"foreignKey:UserID"`
}

// BookingFilter mirrors the list query parameters.
type BookingFilter struct {
	Search   string
	Status   string
	DateFrom string
	DateTo   string
}

type Repository struct {
	db *gorm.DB
}

// Open connects to the configured database and migrates the schema.
// Driver "sqlite" (default) or "postgres".
func Open(driver, source string) (*Repository, error) {
	var dialector gorm.Dialector
	switch driver {
	case "", "sqlite":
		dialector = sqlite.Open(source)
	case "postgres":
		dialector = postgres.Open(source)
	default:
		return nil, fmt.Errorf("storage: unsupported driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("storage: open database: %w", err)
	}

	if err := db.AutoMigrate(&User{}, &Booking{}); err != nil {
		return nil, fmt.Errorf("storage: migrate schema: %w", err)
	}

	return &Repository{db: db}, nil
}

// NewRepository wraps an existing gorm handle, used by tests with
// in-memory sqlite.
func NewRepository(db *gorm.DB) (*Repository, error) {
	if err := db.AutoMigrate(&User{}, &Booking{}); err != nil {
		return nil, fmt.Errorf("storage: migrate schema: %w", err)
	}
	return &Repository{db: db}, nil
}

// SQLDB exposes the underlying connection for health checks.
func (r *Repository) SQLDB() (*sql.DB, error) {
	return r.db.DB()
}

func (r *Repository) CreateUser(user *User) error {
	return r.db.Create(user).Error
}

func (r *Repository) GetUserByEmail(email string) (*User, error) {
	var user User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *Repository) GetUserByID(id int64) (*User, error) {
	var user User
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *Repository) CreateBooking(booking *Booking) error {
	return r.db.Create(booking).Error
}

// ListBookings returns the user's bookings newest-first, narrowed by the
// filter. Search matches against notes.
func (r *Repository) ListBookings(userID int64, filter BookingFilter) ([]Booking, error) {
	q := r.db.Preload("User").Where("user_id = ?", userID)
	if filter.Search != "" {
		q = q.Where("notes LIKE ?", "%"+filter.Search+"%")
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.DateFrom != "" {
		q = q.Where("date >= ?", filter.DateFrom)
	}
	if filter.DateTo != "" {
		q = q.Where("date <= ?", filter.DateTo)
	}

	var bookings []Booking
	if err := q.Order("created_at DESC, id DESC").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *Repository) GetBooking(userID, id int64) (*Booking, error) {
	var booking Booking
	if err := r.db.Preload("User").Where("user_id = ?", userID).First(&booking, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (r *Repository) UpdateBooking(booking *Booking) error {
	return r.db.Save(booking).Error
}

func (r *Repository) DeleteBooking(userID, id int64) error {
	res := r.db.Where("user_id = ?", userID).Delete(&Booking{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
