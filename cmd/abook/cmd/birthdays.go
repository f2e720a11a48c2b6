package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/okravchenko/abook/pkg/models"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var upcomingWindow int

var birthdayCmd = &cobra.Command{
	Use:   "birthday",
	Short: "Manage contact birthdays",
}

var birthdaySetCmd = &cobra.Command{
	Use:   "set <name> <DD.MM.YYYY>",
	Short: "Set a contact's birthday",
	Args:  cobra.ExactArgs(2),
	RunE:  runBirthdaySet,
}

var birthdayShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a contact's birthday",
	Args:  cobra.ExactArgs(1),
	RunE:  runBirthdayShow,
}

// birthdaysCmd lists contacts to congratulate soon
var birthdaysCmd = &cobra.Command{
	Use:   "birthdays",
	Short: "List upcoming birthdays",
	Long: `Lists contacts whose birthday falls within the next days. Congratulation
dates on a weekend are moved to the following Monday.`,
	RunE: runBirthdays,
}

func init() {
	rootCmd.AddCommand(birthdayCmd)
	birthdayCmd.AddCommand(birthdaySetCmd)
	birthdayCmd.AddCommand(birthdayShowCmd)

	rootCmd.AddCommand(birthdaysCmd)
	birthdaysCmd.Flags().IntVar(&upcomingWindow, "within", models.DefaultUpcomingWindow, "look-ahead window in days")
}

func runBirthdaySet(cmd *cobra.Command, args []string) error {
	birthday, err := models.ParseBirthday(args[1])
	if err != nil {
		return err
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.SetBirthday(args[0], birthday); err != nil {
		return err
	}

	fmt.Println("Birthday added.")
	return nil
}

func runBirthdayShow(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	birthday, err := s.GetBirthday(args[0])
	if err != nil {
		return err
	}
	if birthday == nil {
		fmt.Println("Birthday not set.")
		return nil
	}

	fmt.Println(birthday.String())
	return nil
}

func runBirthdays(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	upcoming, err := s.UpcomingBirthdays(time.Now(), upcomingWindow)
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		output, err := json.MarshalIndent(map[string]interface{}{
			"upcoming":    upcoming,
			"count":       len(upcoming),
			"within_days": upcomingWindow,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(output))
		return nil
	}

	if len(upcoming) == 0 {
		fmt.Printf("No birthdays in the next %d days.\n", upcomingWindow)
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Name", "Congratulation Date")

	for _, u := range upcoming {
		table.Append(u.Name, u.Birthday)
	}

	table.Render()
	return nil
}
