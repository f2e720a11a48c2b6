package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/okravchenko/abook/pkg/models"
)

// SQLiteStore is a SQLite-based implementation of the contact store
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Configure SQLite connection string with parameters for concurrent access
	// - _journal_mode=WAL: Enable Write-Ahead Logging for better concurrency
	// - _busy_timeout=10000: Wait up to 10 seconds when database is locked
	// - _synchronous=NORMAL: Balance between safety and performance
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=10000&_synchronous=NORMAL", dbPath)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer to avoid SQLITE_BUSY under concurrent CLI invocations
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the database schema
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS contacts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		phones TEXT NOT NULL DEFAULT '[]',
		birthday TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_contacts_name ON contacts(name);
	`

	_, err := s.db.Exec(schema)
	return err
}

// CreateContact adds or replaces a contact keyed by name
func (s *SQLiteStore) CreateContact(contact *models.Contact) error {
	phones, err := json.Marshal(contact.Phones)
	if err != nil {
		return fmt.Errorf("failed to marshal phones: %w", err)
	}

	var birthday sql.NullString
	if contact.Birthday != nil {
		birthday = sql.NullString{String: contact.Birthday.String(), Valid: true}
	}

	_, err = s.db.Exec(`
		INSERT INTO contacts (id, name, phones, birthday, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			phones = excluded.phones,
			birthday = excluded.birthday,
			updated_at = excluded.updated_at
	`, contact.ID, contact.Name, string(phones), birthday, contact.CreatedAt, contact.UpdatedAt)

	return err
}

// GetContact retrieves a contact by name
func (s *SQLiteStore) GetContact(name string) (*models.Contact, error) {
	row := s.db.QueryRow(`
		SELECT id, name, phones, birthday, created_at, updated_at
		FROM contacts WHERE name = ?
	`, name)

	contact, err := scanContact(row)
	if err == sql.ErrNoRows {
		return nil, ErrContactNotFound
	}
	return contact, err
}

// GetAllContacts returns all contacts sorted by name
func (s *SQLiteStore) GetAllContacts() []*models.Contact {
	rows, err := s.db.Query(`
		SELECT id, name, phones, birthday, created_at, updated_at
		FROM contacts ORDER BY name
	`)
	if err != nil {
		return []*models.Contact{}
	}
	defer rows.Close()

	var contacts []*models.Contact
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			continue
		}
		contacts = append(contacts, contact)
	}
	return contacts
}

// DeleteContact removes a contact by name
func (s *SQLiteStore) DeleteContact(name string) error {
	result, err := s.db.Exec(`DELETE FROM contacts WHERE name = ?`, name)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrContactNotFound
	}
	return nil
}

// CountContacts returns the number of stored contacts
func (s *SQLiteStore) CountContacts() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM contacts`).Scan(&count)
	return count, err
}

// AddPhone validates and appends a phone number to a contact
func (s *SQLiteStore) AddPhone(name, phone string) error {
	if err := models.ValidatePhone(phone); err != nil {
		return err
	}

	return s.updatePhones(name, func(phones []string) ([]string, error) {
		for _, p := range phones {
			if p == phone {
				return nil, ErrDuplicatePhone
			}
		}
		return append(phones, phone), nil
	})
}

// RemovePhone removes a phone number from a contact
func (s *SQLiteStore) RemovePhone(name, phone string) error {
	return s.updatePhones(name, func(phones []string) ([]string, error) {
		kept := phones[:0]
		found := false
		for _, p := range phones {
			if p == phone {
				found = true
				continue
			}
			kept = append(kept, p)
		}
		if !found {
			return nil, ErrPhoneNotFound
		}
		return kept, nil
	})
}

// ReplacePhone swaps an existing phone number for a validated new one
func (s *SQLiteStore) ReplacePhone(name, oldPhone, newPhone string) error {
	if err := models.ValidatePhone(newPhone); err != nil {
		return err
	}

	return s.updatePhones(name, func(phones []string) ([]string, error) {
		for i, p := range phones {
			if p == oldPhone {
				phones[i] = newPhone
				return phones, nil
			}
		}
		return nil, ErrPhoneNotFound
	})
}

// updatePhones runs a read-modify-write cycle on a contact's phone list
// inside a single transaction
func (s *SQLiteStore) updatePhones(name string, mutate func([]string) ([]string, error)) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var phonesJSON string
	err = tx.QueryRow(`SELECT phones FROM contacts WHERE name = ?`, name).Scan(&phonesJSON)
	if err == sql.ErrNoRows {
		return ErrContactNotFound
	}
	if err != nil {
		return err
	}

	var phones []string
	if err := json.Unmarshal([]byte(phonesJSON), &phones); err != nil {
		return fmt.Errorf("failed to unmarshal phones: %w", err)
	}

	phones, err = mutate(phones)
	if err != nil {
		return err
	}

	updated, err := json.Marshal(phones)
	if err != nil {
		return fmt.Errorf("failed to marshal phones: %w", err)
	}

	if _, err := tx.Exec(`
		UPDATE contacts SET phones = ?, updated_at = ? WHERE name = ?
	`, string(updated), time.Now(), name); err != nil {
		return err
	}

	return tx.Commit()
}

// FindPhone reports whether a contact stores the given phone number
func (s *SQLiteStore) FindPhone(name, phone string) (bool, error) {
	contact, err := s.GetContact(name)
	if err != nil {
		return false, err
	}
	return contact.HasPhone(phone), nil
}

// SetBirthday sets or replaces a contact's birthday
func (s *SQLiteStore) SetBirthday(name string, birthday models.Birthday) error {
	result, err := s.db.Exec(`
		UPDATE contacts SET birthday = ?, updated_at = ? WHERE name = ?
	`, birthday.String(), time.Now(), name)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrContactNotFound
	}
	return nil
}

// GetBirthday retrieves a contact's birthday, nil when unset
func (s *SQLiteStore) GetBirthday(name string) (*models.Birthday, error) {
	contact, err := s.GetContact(name)
	if err != nil {
		return nil, err
	}
	return contact.Birthday, nil
}

// UpcomingBirthdays returns contacts whose congratulation date falls within
// the window, sorted by date then name
func (s *SQLiteStore) UpcomingBirthdays(today time.Time, window int) ([]models.Upcoming, error) {
	rows, err := s.db.Query(`
		SELECT id, name, phones, birthday, created_at, updated_at
		FROM contacts WHERE birthday IS NOT NULL
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := make(map[string]*models.Contact)
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			continue
		}
		contacts[contact.Name] = contact
	}

	return collectUpcoming(contacts, today, window), nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// HealthCheck verifies the database connection is alive
func (s *SQLiteStore) HealthCheck() error {
	return s.db.Ping()
}

// scanner covers both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanContact(row scanner) (*models.Contact, error) {
	var contact models.Contact
	var phonesJSON string
	var birthday sql.NullString

	if err := row.Scan(&contact.ID, &contact.Name, &phonesJSON, &birthday,
		&contact.CreatedAt, &contact.UpdatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(phonesJSON), &contact.Phones); err != nil {
		return nil, fmt.Errorf("failed to unmarshal phones: %w", err)
	}

	if birthday.Valid && birthday.String != "" {
		b, err := models.ParseBirthday(birthday.String)
		if err != nil {
			return nil, err
		}
		contact.Birthday = &b
	}

	return &contact, nil
}
