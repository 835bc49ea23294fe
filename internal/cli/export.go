package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meridianops/rostersync/internal/domain"
	"github.com/meridianops/rostersync/internal/roster"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export [user-principal-name]",
	Short: "Export a user's designated folder back to roster CSV",
	Long: `Export the current contents of one user's designated contact folder
as a roster-format CSV, useful for inspecting what a sync produced.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "export.csv", "output CSV path")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client := newClient(cfg)
	ctx := cmd.Context()

	user, err := client.GetUser(ctx, args[0])
	if err != nil {
		return err
	}

	folders, err := client.ListContactFolders(ctx, user.ID)
	if err != nil {
		return err
	}

	var folderID string
	for _, f := range folders {
		if f.DisplayName == cfg.FolderName {
			folderID = f.ID
			break
		}
	}
	if folderID == "" {
		return fmt.Errorf("user %s has no %q folder", args[0], cfg.FolderName)
	}

	contacts, err := client.ListContacts(ctx, user.ID, folderID)
	if err != nil {
		return err
	}

	rows := make([]domain.CanonicalContact, 0, len(contacts))
	for i := range contacts {
		rows = append(rows, roster.FromRemote(contacts[i].ToRemote()))
	}

	if err := roster.Write(exportOutput, rows); err != nil {
		return err
	}

	fmt.Printf("Exported %d contacts to %s\n", len(rows), exportOutput)
	return nil
}
