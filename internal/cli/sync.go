package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/meridianops/rostersync/internal/config"
	"github.com/meridianops/rostersync/internal/graph"
	"github.com/meridianops/rostersync/internal/history"
	"github.com/meridianops/rostersync/internal/logger"
	"github.com/meridianops/rostersync/internal/roster"
	"github.com/meridianops/rostersync/internal/sync"
	"github.com/meridianops/rostersync/internal/watcher"
)

var (
	syncUsers  []string
	syncDryRun bool
	syncWatch  bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile user contact folders against the roster",
	Long: `Sync every eligible user's designated contact folder against the
canonical roster. A run is best-effort: every requested user is
attempted, each gets a recorded outcome, and one user's failure never
aborts the run.

Examples:
  # Sync every eligible user in the tenant
  rostersync sync

  # Sync specific users only
  rostersync sync --users alice@contoso.com,bob@contoso.com

  # Show what would change without touching anything
  rostersync sync --dry-run

  # Keep running and re-sync when the roster file changes
  rostersync sync --watch`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringSliceVar(&syncUsers, "users", nil,
		"user principal names to sync (default: every eligible user)")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false,
		"compute and record diffs without executing any operations")
	syncCmd.Flags().BoolVar(&syncWatch, "watch", false,
		"keep running and re-sync when the roster file changes")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client := newClient(cfg)
	ctx := cmd.Context()

	if err := runSyncOnce(ctx, cfg, client); err != nil {
		return err
	}
	if !syncWatch {
		return nil
	}

	w, err := watcher.New(cfg.RosterPath, func() {
		if err := runSyncOnce(ctx, cfg, client); err != nil {
			logger.Error("sync: %v", err)
		}
	})
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

// runSyncOnce executes one full reconcile pass.
func runSyncOnce(ctx context.Context, cfg *config.Config, client *graph.Client) error {
	canonical, err := roster.Read(cfg.RosterPath)
	if err != nil {
		return err
	}
	logger.Info("loaded %d roster contacts from %s", len(canonical), cfg.RosterPath)

	identities, err := resolveIdentities(ctx, client, syncUsers)
	if err != nil {
		return err
	}
	logger.Info("syncing %d identities", len(identities))

	resultLog, err := sync.NewRunLog(cfg.ResultLogPath)
	if err != nil {
		return err
	}
	defer resultLog.Close()

	errorLog, err := sync.NewErrorLog(cfg.ErrorLogPath)
	if err != nil {
		return err
	}
	defer errorLog.Close()

	orch := sync.NewOrchestrator(client, sync.Options{
		FolderName: cfg.FolderName,
		Workers:    cfg.Workers,
		DryRun:     syncDryRun,
		ResultLog:  resultLog,
		ErrorLog:   errorLog,
	})

	report := orch.Run(ctx, identities, canonical)

	if err := recordHistory(cfg, report); err != nil {
		logger.Warn("history: %v", err)
	}

	fmt.Printf("Done: %d synced, %d failed\n", len(report.Results), len(report.Failures))
	for _, f := range report.Failures {
		fmt.Printf("  failed: %s: %v\n", f.Identity.UserPrincipalName, f.Err)
	}
	return nil
}

// resolveIdentities picks the run's targets: the named users, or every
// syncable user in the directory when none are named.
func resolveIdentities(ctx context.Context, client *graph.Client, names []string) ([]sync.Identity, error) {
	if len(names) == 0 {
		users, err := client.ListUsers(ctx)
		if err != nil {
			return nil, err
		}
		syncable := graph.FilterSyncableUsers(users)

		identities := make([]sync.Identity, 0, len(syncable))
		for _, u := range syncable {
			identities = append(identities, sync.IdentityFromUser(u))
		}
		return identities, nil
	}

	identities := make([]sync.Identity, 0, len(names))
	for _, name := range names {
		user, err := client.GetUser(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("resolve user %s: %w", name, err)
		}
		identities = append(identities, sync.IdentityFromUser(*user))
	}
	return identities, nil
}

// recordHistory persists the run's outcomes to the history database.
func recordHistory(cfg *config.Config, report sync.Report) error {
	store, err := history.Open(cfg.HistoryPath)
	if err != nil {
		return err
	}
	defer store.Close()

	runID := uuid.NewString()
	for _, r := range report.Results {
		entry := history.Entry{
			RunID:      runID,
			RecordedAt: r.Timestamp,
			Identity:   r.Identity.UserPrincipalName,
			Outcome:    history.OutcomeSynced,
			Added:      r.Added,
			Deleted:    r.Deleted,
			Updated:    r.Updated,
		}
		if err := store.Record(entry); err != nil {
			return err
		}
	}
	for _, f := range report.Failures {
		entry := history.Entry{
			RunID:      runID,
			RecordedAt: f.Timestamp,
			Identity:   f.Identity.UserPrincipalName,
			Outcome:    history.OutcomeFailed,
			Detail:     f.Err.Error(),
		}
		if err := store.Record(entry); err != nil {
			return err
		}
	}
	return nil
}
