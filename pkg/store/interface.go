package store

import (
	"errors"
	"time"

	"github.com/okravchenko/abook/pkg/models"
)

var (
	ErrContactNotFound     = errors.New("Contact not found.")
	ErrPhoneNotFound       = errors.New("Phone not found")
	ErrDuplicatePhone      = errors.New("phone already stored for contact")
	ErrUnsupportedDatabase = errors.New("unsupported database type")
)

// Store defines the interface for contact persistence.
// The memory, SQLite, and PostgreSQL backends all implement this interface.
type Store interface {
	// Contact operations
	CreateContact(contact *models.Contact) error
	GetContact(name string) (*models.Contact, error)
	GetAllContacts() []*models.Contact
	DeleteContact(name string) error
	CountContacts() (int, error)

	// Phone operations
	AddPhone(name, phone string) error
	RemovePhone(name, phone string) error
	ReplacePhone(name, oldPhone, newPhone string) error
	FindPhone(name, phone string) (bool, error)

	// Birthday operations
	SetBirthday(name string, birthday models.Birthday) error
	GetBirthday(name string) (*models.Birthday, error)
	UpcomingBirthdays(today time.Time, window int) ([]models.Upcoming, error)

	// Lifecycle
	Close() error
	HealthCheck() error
}

// Config holds database configuration
type Config struct {
	Type string // "memory", "sqlite" or "postgres"
	DSN  string // Connection string (postgres)
	Path string // Database file path (sqlite)

	// PostgreSQL specific
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewStore creates a store based on configuration
func NewStore(config Config) (Store, error) {
	switch config.Type {
	case "postgres", "postgresql":
		return NewPostgresStore(config)
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite", "":
		path := config.Path
		if path == "" {
			path = config.DSN
		}
		if path == "" {
			path = "abook.db"
		}
		return NewSQLiteStore(path)
	default:
		return nil, ErrUnsupportedDatabase
	}
}
