package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/okravchenko/abook/pkg/models"
)

// PostgresStore implements Store using PostgreSQL, for shared deployments
// where several assistants point at the same book
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL store
func NewPostgresStore(config Config) (*PostgresStore, error) {
	dsn := config.DSN
	if dsn == "" {
		return nil, fmt.Errorf("PostgreSQL DSN is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	} else {
		db.SetMaxOpenConns(25)
	}
	if config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.MaxIdleConns)
	} else {
		db.SetMaxIdleConns(5)
	}
	if config.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(config.ConnMaxLifetime)
	} else {
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates tables if they don't exist
func (s *PostgresStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS contacts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		phones JSONB NOT NULL DEFAULT '[]',
		birthday TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_contacts_name ON contacts(name);
	`

	_, err := s.db.Exec(schema)
	return err
}

// CreateContact adds or replaces a contact keyed by name
func (s *PostgresStore) CreateContact(contact *models.Contact) error {
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
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (name) DO UPDATE SET
			phones = EXCLUDED.phones,
			birthday = EXCLUDED.birthday,
			updated_at = EXCLUDED.updated_at
	`, contact.ID, contact.Name, string(phones), birthday, contact.CreatedAt, contact.UpdatedAt)

	return err
}

// GetContact retrieves a contact by name
func (s *PostgresStore) GetContact(name string) (*models.Contact, error) {
	row := s.db.QueryRow(`
		SELECT id, name, phones, birthday, created_at, updated_at
		FROM contacts WHERE name = $1
	`, name)

	contact, err := scanContact(row)
	if err == sql.ErrNoRows {
		return nil, ErrContactNotFound
	}
	return contact, err
}

// GetAllContacts returns all contacts sorted by name
func (s *PostgresStore) GetAllContacts() []*models.Contact {
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
func (s *PostgresStore) DeleteContact(name string) error {
	result, err := s.db.Exec(`DELETE FROM contacts WHERE name = $1`, name)
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
func (s *PostgresStore) CountContacts() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM contacts`).Scan(&count)
	return count, err
}

// AddPhone validates and appends a phone number to a contact
func (s *PostgresStore) AddPhone(name, phone string) error {
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
func (s *PostgresStore) RemovePhone(name, phone string) error {
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
func (s *PostgresStore) ReplacePhone(name, oldPhone, newPhone string) error {
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

// updatePhones runs a read-modify-write cycle on a contact's phone list,
// holding a row lock for the duration of the transaction
func (s *PostgresStore) updatePhones(name string, mutate func([]string) ([]string, error)) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var phonesJSON string
	err = tx.QueryRow(`
		SELECT phones FROM contacts WHERE name = $1 FOR UPDATE
	`, name).Scan(&phonesJSON)
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
		UPDATE contacts SET phones = $1, updated_at = $2 WHERE name = $3
	`, string(updated), time.Now(), name); err != nil {
		return err
	}

	return tx.Commit()
}

// FindPhone reports whether a contact stores the given phone number
func (s *PostgresStore) FindPhone(name, phone string) (bool, error) {
	contact, err := s.GetContact(name)
	if err != nil {
		return false, err
	}
	return contact.HasPhone(phone), nil
}

// SetBirthday sets or replaces a contact's birthday
func (s *PostgresStore) SetBirthday(name string, birthday models.Birthday) error {
	result, err := s.db.Exec(`
		UPDATE contacts SET birthday = $1, updated_at = $2 WHERE name = $3
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
func (s *PostgresStore) GetBirthday(name string) (*models.Birthday, error) {
	contact, err := s.GetContact(name)
	if err != nil {
		return nil, err
	}
	return contact.Birthday, nil
}

// UpcomingBirthdays returns contacts whose congratulation date falls within
// the window, sorted by date then name
func (s *PostgresStore) UpcomingBirthdays(today time.Time, window int) ([]models.Upcoming, error) {
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
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// HealthCheck verifies the database connection is alive
func (s *PostgresStore) HealthCheck() error {
	return s.db.Ping()
}
