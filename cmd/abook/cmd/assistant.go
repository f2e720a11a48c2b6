package cmd

import (
	"os"

	"github.com/okravchenko/abook/internal/assistant"
	"github.com/okravchenko/abook/pkg/logging"
	"github.com/spf13/cobra"
)

var assistantCmd = &cobra.Command{
	Use:   "assistant",
	Short: "Run the interactive assistant bot",
	Long: `Starts the interactive assistant reading commands from stdin.

Commands:
  hello                              greet the bot
  add <name> <phone>                 add a contact or another phone
  change <name> <old> <new>          replace a phone number
  phone <name>                       show a contact's phones
  all                                list all contacts
  add-birthday <name> <DD.MM.YYYY>   set a birthday
  show-birthday <name>               show a birthday
  birthdays                          upcoming birthdays (next 7 days)
  close | exit                       quit`,
	RunE: runAssistant,
}

func init() {
	rootCmd.AddCommand(assistantCmd)
}

func runAssistant(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	// WARN keeps the conversation free of log noise
	log := logging.NewLogger(logging.WARN, false)

	session := assistant.New(s, os.Stdin, os.Stdout, log)
	return session.Run()
}
