// Package assistant implements the interactive contact book session.
// Command replies keep the wording users of the original bot expect.
package assistant

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/okravchenko/abook/pkg/logging"
	"github.com/okravchenko/abook/pkg/models"
	"github.com/okravchenko/abook/pkg/store"
)

const (
	msgWelcome         = "Welcome to the assistant bot!"
	msgPrompt          = "Enter a command: "
	msgGreeting        = "How can I help you?"
	msgGoodbye         = "Good bye!"
	msgContactAdded    = "Contact added."
	msgContactUpdated  = "Contact updated."
	msgPhoneUpdated    = "Phone updated."
	msgBirthdayAdded   = "Birthday added."
	msgBirthdayNotSet  = "Birthday not set."
	msgNoContacts      = "No contacts."
	msgNoBirthdays     = "No birthdays in the next 7 days."
	msgNotEnoughArgs   = "Not enough arguments."
	msgContactNotFound = "Contact not found."
	msgInvalidCommand  = "Invalid command."
)

// Session is one interactive assistant conversation over a contact store
type Session struct {
	store store.Store
	in    io.Reader
	out   io.Writer
	log   *logging.Logger

	// now is swappable so birthday reports are testable
	now func() time.Time
}

// New creates a session reading commands from in and writing replies to out
func New(s store.Store, in io.Reader, out io.Writer, log *logging.Logger) *Session {
	if log == nil {
		log = logging.NewLogger(logging.WARN, false)
	}
	return &Session{
		store: s,
		in:    in,
		out:   out,
		log:   log,
		now:   time.Now,
	}
}

// Run reads commands until close/exit or end of input
func (s *Session) Run() error {
	fmt.Fprintln(s.out, msgWelcome)

	scanner := bufio.NewScanner(s.in)
	for {
		fmt.Fprint(s.out, msgPrompt)
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}

		reply, quit := s.Execute(scanner.Text())
		if reply != "" {
			fmt.Fprintln(s.out, reply)
		}
		if quit {
			return nil
		}
	}
}

// Execute runs a single command line and returns the reply.
// Blank lines yield an empty reply.
func (s *Session) Execute(line string) (reply string, quit bool) {
	command, args := parseInput(line)

	switch command {
	case "":
		return "", false
	case "close", "exit":
		return msgGoodbye, true
	case "hello":
		return msgGreeting, false
	case "add":
		return s.addContact(args), false
	case "change":
		return s.changeContact(args), false
	case "phone":
		return s.showPhone(args), false
	case "all":
		return s.showAll(), false
	case "add-birthday":
		return s.addBirthday(args), false
	case "show-birthday":
		return s.showBirthday(args), false
	case "birthdays":
		return s.birthdays(), false
	default:
		return msgInvalidCommand, false
	}
}

// parseInput splits a command line into a lowercased command and its arguments
func parseInput(line string) (string, []string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	return strings.ToLower(fields[0]), fields[1:]
}

// errorReply maps store and validation errors to the assistant's replies
func errorReply(err error) string {
	if errors.Is(err, store.ErrContactNotFound) {
		return msgContactNotFound
	}
	return err.Error()
}

func (s *Session) addContact(args []string) string {
	if len(args) < 2 {
		return msgNotEnoughArgs
	}
	name, phone := args[0], args[1]

	// Validate up front so a rejected phone leaves no empty contact behind
	if err := models.ValidatePhone(phone); err != nil {
		return err.Error()
	}

	if _, err := s.store.GetContact(name); err == nil {
		if err := s.store.AddPhone(name, phone); err != nil && !errors.Is(err, store.ErrDuplicatePhone) {
			return errorReply(err)
		}
		return msgContactUpdated
	}

	now := s.now()
	contact := &models.Contact{
		ID:        uuid.New().String(),
		Name:      name,
		Phones:    []string{phone},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateContact(contact); err != nil {
		return errorReply(err)
	}

	s.log.Debug("contact added", map[string]interface{}{"name": name})
	return msgContactAdded
}

func (s *Session) changeContact(args []string) string {
	if len(args) < 3 {
		return msgNotEnoughArgs
	}

	if err := s.store.ReplacePhone(args[0], args[1], args[2]); err != nil {
		return errorReply(err)
	}
	return msgPhoneUpdated
}

func (s *Session) showPhone(args []string) string {
	if len(args) < 1 {
		return msgNotEnoughArgs
	}

	contact, err := s.store.GetContact(args[0])
	if err != nil {
		return errorReply(err)
	}
	return strings.Join(contact.Phones, "; ")
}

func (s *Session) showAll() string {
	contacts := s.store.GetAllContacts()
	if len(contacts) == 0 {
		return msgNoContacts
	}

	lines := make([]string, 0, len(contacts))
	for _, c := range contacts {
		birthday := "None"
		if c.Birthday != nil {
			birthday = c.Birthday.String()
		}
		lines = append(lines, fmt.Sprintf("Contact name: %s, phones: %s, birthday: %s",
			c.Name, strings.Join(c.Phones, "; "), birthday))
	}
	return strings.Join(lines, "\n")
}

func (s *Session) addBirthday(args []string) string {
	if len(args) < 2 {
		return msgNotEnoughArgs
	}

	birthday, err := models.ParseBirthday(args[1])
	if err != nil {
		return err.Error()
	}

	if err := s.store.SetBirthday(args[0], birthday); err != nil {
		return errorReply(err)
	}
	return msgBirthdayAdded
}

func (s *Session) showBirthday(args []string) string {
	if len(args) < 1 {
		return msgNotEnoughArgs
	}

	birthday, err := s.store.GetBirthday(args[0])
	if err != nil || birthday == nil {
		return msgBirthdayNotSet
	}
	return birthday.String()
}

func (s *Session) birthdays() string {
	upcoming, err := s.store.UpcomingBirthdays(s.now(), models.DefaultUpcomingWindow)
	if err != nil {
		return errorReply(err)
	}
	if len(upcoming) == 0 {
		return msgNoBirthdays
	}

	lines := make([]string, 0, len(upcoming))
	for _, u := range upcoming {
		lines = append(lines, fmt.Sprintf("%s — %s", u.Name, u.Birthday))
	}
	return strings.Join(lines, "\n")
}
