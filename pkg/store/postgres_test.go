package store

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/okravchenko/abook/pkg/models"
)

// TestPostgreSQLIntegration tests the PostgreSQL store with a real database.
// Set DATABASE_DSN environment variable to run: export DATABASE_DSN="postgresql://..."
func TestPostgreSQLIntegration(t *testing.T) {
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		t.Skip("Skipping PostgreSQL integration test: DATABASE_DSN not set")
	}

	store, err := NewStore(Config{
		Type: "postgres",
		DSN:  dsn,
	})
	if err != nil {
		t.Fatalf("Failed to create PostgreSQL store: %v", err)
	}
	defer store.Close()

	if err := store.HealthCheck(); err != nil {
		t.Fatalf("Health check failed: %v", err)
	}

	t.Run("ContactOperations", func(t *testing.T) {
		testPostgresContactOperations(t, store)
	})

	t.Run("PhoneOperations", func(t *testing.T) {
		testPostgresPhoneOperations(t, store)
	})

	t.Run("BirthdayOperations", func(t *testing.T) {
		testPostgresBirthdayOperations(t, store)
	})
}

// uniqueName avoids collisions when the test runs against a shared database
func uniqueName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

func testPostgresContactOperations(t *testing.T, store Store) {
	name := uniqueName("pg-contact")
	defer store.DeleteContact(name)

	if err := store.CreateContact(newTestContact(name, "1234567890")); err != nil {
		t.Fatalf("CreateContact failed: %v", err)
	}

	retrieved, err := store.GetContact(name)
	if err != nil {
		t.Fatalf("GetContact failed: %v", err)
	}
	if retrieved.Name != name {
		t.Errorf("Expected contact name %s, got %s", name, retrieved.Name)
	}
	if len(retrieved.Phones) != 1 || retrieved.Phones[0] != "1234567890" {
		t.Errorf("Expected phones [1234567890], got %v", retrieved.Phones)
	}

	count, err := store.CountContacts()
	if err != nil {
		t.Fatalf("CountContacts failed: %v", err)
	}
	if count < 1 {
		t.Errorf("Expected at least 1 contact, got %d", count)
	}

	if err := store.DeleteContact(name); err != nil {
		t.Fatalf("DeleteContact failed: %v", err)
	}
	if _, err := store.GetContact(name); err != ErrContactNotFound {
		t.Errorf("GetContact after delete = %v, want ErrContactNotFound", err)
	}
}

func testPostgresPhoneOperations(t *testing.T, store Store) {
	name := uniqueName("pg-phone")
	defer store.DeleteContact(name)

	if err := store.CreateContact(newTestContact(name, "1111111111")); err != nil {
		t.Fatalf("CreateContact failed: %v", err)
	}

	if err := store.AddPhone(name, "2222222222"); err != nil {
		t.Fatalf("AddPhone failed: %v", err)
	}
	if err := store.AddPhone(name, "2222222222"); err != ErrDuplicatePhone {
		t.Errorf("AddPhone duplicate = %v, want ErrDuplicatePhone", err)
	}

	if err := store.ReplacePhone(name, "1111111111", "3333333333"); err != nil {
		t.Fatalf("ReplacePhone failed: %v", err)
	}
	if err := store.ReplacePhone(name, "9999999999", "4444444444"); err != ErrPhoneNotFound {
		t.Errorf("ReplacePhone missing phone = %v, want ErrPhoneNotFound", err)
	}

	found, err := store.FindPhone(name, "3333333333")
	if err != nil {
		t.Fatalf("FindPhone failed: %v", err)
	}
	if !found {
		t.Error("Expected replaced phone to be found")
	}

	if err := store.RemovePhone(name, "2222222222"); err != nil {
		t.Fatalf("RemovePhone failed: %v", err)
	}

	contact, err := store.GetContact(name)
	if err != nil {
		t.Fatalf("GetContact failed: %v", err)
	}
	if len(contact.Phones) != 1 || contact.Phones[0] != "3333333333" {
		t.Errorf("Expected phones [3333333333], got %v", contact.Phones)
	}
}

func testPostgresBirthdayOperations(t *testing.T, store Store) {
	name := uniqueName("pg-birthday")
	defer store.DeleteContact(name)

	if err := store.CreateContact(newTestContact(name, "5555555555")); err != nil {
		t.Fatalf("CreateContact failed: %v", err)
	}

	if _, err := store.GetBirthday(name); err != nil {
		t.Fatalf("GetBirthday failed: %v", err)
	}

	// Wednesday; the birthday two days out falls on Friday
	today := time.Date(2024, time.June, 5, 0, 0, 0, 0, time.UTC)
	if err := store.SetBirthday(name, models.MustBirthday("07.06.1990")); err != nil {
		t.Fatalf("SetBirthday failed: %v", err)
	}

	birthday, err := store.GetBirthday(name)
	if err != nil {
		t.Fatalf("GetBirthday failed: %v", err)
	}
	if birthday == nil || birthday.String() != "07.06.1990" {
		t.Errorf("Expected birthday 07.06.1990, got %v", birthday)
	}

	upcoming, err := store.UpcomingBirthdays(today, models.DefaultUpcomingWindow)
	if err != nil {
		t.Fatalf("UpcomingBirthdays failed: %v", err)
	}
	var entry *models.Upcoming
	for i := range upcoming {
		if upcoming[i].Name == name {
			entry = &upcoming[i]
			break
		}
	}
	if entry == nil {
		t.Fatalf("Expected %s in upcoming birthdays, got %v", name, upcoming)
	}
	if entry.Birthday != "07.06.2024" {
		t.Errorf("Expected congratulation date 07.06.2024, got %s", entry.Birthday)
	}
}
