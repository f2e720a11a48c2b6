package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/okravchenko/abook/pkg/models"
	"github.com/okravchenko/abook/pkg/store"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// contactsCmd represents the contacts command
var contactsCmd = &cobra.Command{
	Use:   "contacts",
	Short: "Manage contacts",
	Long:  `Commands for adding, listing, and editing contacts in the address book.`,
}

var contactsAddCmd = &cobra.Command{
	Use:   "add <name> <phone>",
	Short: "Add a contact or another phone number",
	Long:  `Add a new contact with a phone number. Adding to an existing name appends the phone.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runContactsAdd,
}

var contactsChangeCmd = &cobra.Command{
	Use:   "change <name> <old-phone> <new-phone>",
	Short: "Replace a contact's phone number",
	Args:  cobra.ExactArgs(3),
	RunE:  runContactsChange,
}

var contactsPhoneCmd = &cobra.Command{
	Use:   "phone <name>",
	Short: "Show a contact's phone numbers",
	Args:  cobra.ExactArgs(1),
	RunE:  runContactsPhone,
}

var contactsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all contacts",
	RunE:  runContactsList,
}

var contactsRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Delete a contact",
	Args:  cobra.ExactArgs(1),
	RunE:  runContactsRemove,
}

var contactsRemovePhoneCmd = &cobra.Command{
	Use:   "remove-phone <name> <phone>",
	Short: "Remove a phone number from a contact",
	Args:  cobra.ExactArgs(2),
	RunE:  runContactsRemovePhone,
}

func init() {
	rootCmd.AddCommand(contactsCmd)
	contactsCmd.AddCommand(contactsAddCmd)
	contactsCmd.AddCommand(contactsChangeCmd)
	contactsCmd.AddCommand(contactsPhoneCmd)
	contactsCmd.AddCommand(contactsListCmd)
	contactsCmd.AddCommand(contactsRemoveCmd)
	contactsCmd.AddCommand(contactsRemovePhoneCmd)
}

func runContactsAdd(cmd *cobra.Command, args []string) error {
	name, phone := args[0], args[1]

	if err := models.ValidatePhone(phone); err != nil {
		return err
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	if _, err := s.GetContact(name); err == nil {
		if err := s.AddPhone(name, phone); err != nil {
			if errors.Is(err, store.ErrDuplicatePhone) {
				fmt.Printf("Phone %s already stored for %s\n", phone, name)
				return nil
			}
			return err
		}
		fmt.Println("Contact updated.")
		return nil
	}

	now := time.Now()
	contact := &models.Contact{
		ID:        uuid.New().String(),
		Name:      name,
		Phones:    []string{phone},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.CreateContact(contact); err != nil {
		return err
	}

	fmt.Println("Contact added.")
	return nil
}

func runContactsChange(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.ReplacePhone(args[0], args[1], args[2]); err != nil {
		return err
	}

	fmt.Println("Phone updated.")
	return nil
}

func runContactsPhone(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	contact, err := s.GetContact(args[0])
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		output, err := json.MarshalIndent(contact, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(output))
		return nil
	}

	fmt.Println(strings.Join(contact.Phones, "; "))
	return nil
}

func runContactsList(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	contacts := s.GetAllContacts()

	if IsJSONOutput() {
		output, err := json.MarshalIndent(map[string]interface{}{
			"contacts": contacts,
			"count":    len(contacts),
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(output))
		return nil
	}

	if len(contacts) == 0 {
		fmt.Println("No contacts.")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Name", "Phones", "Birthday")

	for _, c := range contacts {
		birthday := "-"
		if c.Birthday != nil {
			birthday = c.Birthday.String()
		}
		table.Append(c.Name, c.PhoneList(), birthday)
	}

	table.Render()
	fmt.Printf("\nTotal contacts: %d\n", len(contacts))
	return nil
}

func runContactsRemove(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.DeleteContact(args[0]); err != nil {
		return err
	}

	fmt.Printf("Contact %s deleted\n", args[0])
	return nil
}

func runContactsRemovePhone(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.RemovePhone(args[0], args[1]); err != nil {
		return err
	}

	fmt.Printf("Phone %s removed from %s\n", args[1], args[0])
	return nil
}
