package store

import (
	"sort"
	"sync"
	"time"

	"github.com/okravchenko/abook/pkg/models"
)

// MemoryStore is an in-memory implementation of the contact store
type MemoryStore struct {
	contacts map[string]*models.Contact
	mu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		contacts: make(map[string]*models.Contact),
	}
}

// CreateContact adds or replaces a contact keyed by name
func (s *MemoryStore) CreateContact(contact *models.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.contacts[contact.Name] = contact
	return nil
}

// GetContact retrieves a contact by name
func (s *MemoryStore) GetContact(name string) (*models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	contact, ok := s.contacts[name]
	if !ok {
		return nil, ErrContactNotFound
	}
	return contact, nil
}

// GetAllContacts returns all contacts sorted by name
func (s *MemoryStore) GetAllContacts() []*models.Contact {
	s.mu.RLock()
	defer s.mu.RUnlock()

	contacts := make([]*models.Contact, 0, len(s.contacts))
	for _, c := range s.contacts {
		contacts = append(contacts, c)
	}
	sort.Slice(contacts, func(i, j int) bool {
		return contacts[i].Name < contacts[j].Name
	})
	return contacts
}

// DeleteContact removes a contact by name
func (s *MemoryStore) DeleteContact(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.contacts[name]; !ok {
		return ErrContactNotFound
	}
	delete(s.contacts, name)
	return nil
}

// CountContacts returns the number of stored contacts
func (s *MemoryStore) CountContacts() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.contacts), nil
}

// AddPhone validates and appends a phone number to a contact
func (s *MemoryStore) AddPhone(name, phone string) error {
	if err := models.ValidatePhone(phone); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	contact, ok := s.contacts[name]
	if !ok {
		return ErrContactNotFound
	}
	if contact.HasPhone(phone) {
		return ErrDuplicatePhone
	}
	contact.Phones = append(contact.Phones, phone)
	contact.UpdatedAt = time.Now()
	return nil
}

// RemovePhone removes a phone number from a contact
func (s *MemoryStore) RemovePhone(name, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	contact, ok := s.contacts[name]
	if !ok {
		return ErrContactNotFound
	}

	kept := contact.Phones[:0]
	found := false
	for _, p := range contact.Phones {
		if p == phone {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return ErrPhoneNotFound
	}
	contact.Phones = kept
	contact.UpdatedAt = time.Now()
	return nil
}

// ReplacePhone swaps an existing phone number for a validated new one
func (s *MemoryStore) ReplacePhone(name, oldPhone, newPhone string) error {
	if err := models.ValidatePhone(newPhone); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	contact, ok := s.contacts[name]
	if !ok {
		return ErrContactNotFound
	}

	for i, p := range contact.Phones {
		if p == oldPhone {
			contact.Phones[i] = newPhone
			contact.UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrPhoneNotFound
}

// FindPhone reports whether a contact stores the given phone number
func (s *MemoryStore) FindPhone(name, phone string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	contact, ok := s.contacts[name]
	if !ok {
		return false, ErrContactNotFound
	}
	return contact.HasPhone(phone), nil
}

// SetBirthday sets or replaces a contact's birthday
func (s *MemoryStore) SetBirthday(name string, birthday models.Birthday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	contact, ok := s.contacts[name]
	if !ok {
		return ErrContactNotFound
	}
	contact.Birthday = &birthday
	contact.UpdatedAt = time.Now()
	return nil
}

// GetBirthday retrieves a contact's birthday, nil when unset
func (s *MemoryStore) GetBirthday(name string) (*models.Birthday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	contact, ok := s.contacts[name]
	if !ok {
		return nil, ErrContactNotFound
	}
	return contact.Birthday, nil
}

// UpcomingBirthdays returns contacts whose congratulation date falls within
// the window, sorted by date then name
func (s *MemoryStore) UpcomingBirthdays(today time.Time, window int) ([]models.Upcoming, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return collectUpcoming(s.contacts, today, window), nil
}

// collectUpcoming applies the congratulation-date rules to a contact set.
// Shared by the memory backend and the SQL backends after row scans.
func collectUpcoming(contacts map[string]*models.Contact, today time.Time, window int) []models.Upcoming {
	type entry struct {
		name string
		date time.Time
	}

	var entries []entry
	for _, c := range contacts {
		if c.Birthday == nil {
			continue
		}
		date, ok := c.Birthday.NextCongratulation(today, window)
		if !ok {
			continue
		}
		entries = append(entries, entry{name: c.Name, date: date})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].date.Equal(entries[j].date) {
			return entries[i].name < entries[j].name
		}
		return entries[i].date.Before(entries[j].date)
	})

	upcoming := make([]models.Upcoming, 0, len(entries))
	for _, e := range entries {
		upcoming = append(upcoming, models.Upcoming{
			Name:     e.name,
			Birthday: e.date.Format(models.BirthdayLayout),
		})
	}
	return upcoming
}

// Close is a no-op for the memory store
func (s *MemoryStore) Close() error {
	return nil
}

// HealthCheck is a no-op for the memory store
func (s *MemoryStore) HealthCheck() error {
	return nil
}
