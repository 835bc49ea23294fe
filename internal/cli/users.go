package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/meridianops/rostersync/internal/graph"
)

var usersAll bool

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List users eligible for contact sync",
	Long: `List directory users that would receive synced contacts: those with a
primary email, given name, surname, department, job title, and office
location. Use --all to list every user with their eligibility.`,
	RunE: runUsers,
}

func init() {
	usersCmd.Flags().BoolVar(&usersAll, "all", false, "include ineligible users")
	rootCmd.AddCommand(usersCmd)
}

func runUsers(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client := newClient(cfg)
	users, err := client.ListUsers(cmd.Context())
	if err != nil {
		return err
	}

	if !usersAll {
		users = graph.FilterSyncableUsers(users)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tUPN\tDEPARTMENT\tELIGIBLE")
	for _, u := range users {
		eligible := "yes"
		if !u.IsSyncable() {
			eligible = "no"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.DisplayName, u.UserPrincipalName, u.Department, eligible)
	}
	return w.Flush()
}
