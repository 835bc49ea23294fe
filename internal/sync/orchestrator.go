package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/meridianops/rostersync/internal/domain"
	"github.com/meridianops/rostersync/internal/graph"
	"github.com/meridianops/rostersync/internal/logger"
)

// Defaults for the orchestrator.
const (
	// DefaultFolderName is the designated folder that receives synced
	// contacts in every user's contact store.
	DefaultFolderName = "Work Contacts"

	// DefaultWorkers bounds how many identities are synced concurrently.
	DefaultWorkers = 20
)

// DirectoryClient is the slice of the Graph client the orchestrator
// needs. *graph.Client satisfies it.
type DirectoryClient interface {
	ListContactFolders(ctx context.Context, userID string) ([]graph.ContactFolder, error)
	CreateContactFolder(ctx context.Context, userID, displayName string) (*graph.ContactFolder, error)
	ListContacts(ctx context.Context, userID, folderID string) ([]graph.Contact, error)
	ExecuteBatch(ctx context.Context, ops []graph.BatchOperation) ([]graph.BatchResponse, error)
}

var _ DirectoryClient = (*graph.Client)(nil)

// Identity is one directory user targeted by a run.
type Identity struct {
	ID                string
	DisplayName       string
	UserPrincipalName string
}

// IdentityFromUser builds an Identity from a directory user.
func IdentityFromUser(u graph.User) Identity {
	return Identity{
		ID:                u.ID,
		DisplayName:       u.DisplayName,
		UserPrincipalName: u.UserPrincipalName,
	}
}

// OperationOutcome is the raw sub-response for one executed operation.
type OperationOutcome struct {
	// Action is one of "add", "delete", "update".
	Action string
	// Contact identifies the affected contact (email for adds and
	// updates, remote id for deletes).
	Contact string
	Status  int
	Body    string
}

// IdentityResult records what one identity's sync did.
type IdentityResult struct {
	Identity   Identity
	Timestamp  time.Time
	Added      int
	Deleted    int
	Updated    int
	DryRun     bool
	Operations []OperationOutcome
}

// Failure records one identity whose sync aborted.
type Failure struct {
	Identity  Identity
	Timestamp time.Time
	Err       error
}

// Report is the aggregate outcome of a run. Every requested identity
// appears in exactly one of the two lists.
type Report struct {
	Results  []IdentityResult
	Failures []Failure
}

// Options configures an Orchestrator.
type Options struct {
	// FolderName is the designated folder's display name.
	// Defaults to DefaultFolderName.
	FolderName string
	// Workers bounds concurrent identity tasks. Defaults to DefaultWorkers.
	Workers int
	// DryRun computes and records diffs without executing operations.
	DryRun bool
	// ResultLog, if set, receives an entry per completed identity.
	ResultLog *RunLog
	// ErrorLog, if set, receives an entry per failed identity.
	ErrorLog *ErrorLog
}

// Orchestrator runs one sync task per identity on a bounded worker
// pool, isolating per-identity failures.
type Orchestrator struct {
	client     DirectoryClient
	folderName string
	workers    int
	dryRun     bool
	resultLog  *RunLog
	errorLog   *ErrorLog
	now        func() time.Time
}

// NewOrchestrator creates an orchestrator over the given client.
func NewOrchestrator(client DirectoryClient, opts Options) *Orchestrator {
	if opts.FolderName == "" {
		opts.FolderName = DefaultFolderName
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	return &Orchestrator{
		client:     client,
		folderName: opts.FolderName,
		workers:    opts.Workers,
		dryRun:     opts.DryRun,
		resultLog:  opts.ResultLog,
		errorLog:   opts.ErrorLog,
		now:        time.Now,
	}
}

// Run syncs the canonical roster into every identity's designated
// folder. Identities are processed concurrently on the worker pool; a
// failure in one task is recorded and never aborts or delays siblings.
// Run returns once every identity has finished.
func (o *Orchestrator) Run(ctx context.Context, identities []Identity, canonical []domain.CanonicalContact) Report {
	sem := make(chan struct{}, o.workers)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		report Report
	)

	for _, identity := range identities {
		wg.Add(1)
		go func(identity Identity) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			result, err := o.syncIdentity(ctx, identity, canonical)
			if err != nil {
				failure := Failure{Identity: identity, Timestamp: o.now(), Err: err}
				logger.Error("sync: %s failed: %v", identity.UserPrincipalName, err)
				if o.errorLog != nil {
					if logErr := o.errorLog.Append(failure); logErr != nil {
						logger.Error("sync: %v", logErr)
					}
				}
				mu.Lock()
				report.Failures = append(report.Failures, failure)
				mu.Unlock()
				return
			}

			if o.resultLog != nil {
				if logErr := o.resultLog.Append(*result); logErr != nil {
					logger.Error("sync: %v", logErr)
				}
			}
			mu.Lock()
			report.Results = append(report.Results, *result)
			mu.Unlock()
		}(identity)
	}

	wg.Wait()
	return report
}

// syncIdentity reconciles one identity's designated folder.
func (o *Orchestrator) syncIdentity(ctx context.Context, identity Identity, canonical []domain.CanonicalContact) (*IdentityResult, error) {
	folderID, err := o.resolveFolder(ctx, identity.ID)
	if err != nil {
		return nil, err
	}

	logger.Debug("sync: %s using folder %s", identity.UserPrincipalName, folderID)

	// folderID is empty only on a dry run against an identity that has
	// no designated folder yet; its remote set is empty.
	var wire []graph.Contact
	if folderID != "" {
		wire, err = o.client.ListContacts(ctx, identity.ID, folderID)
		if err != nil {
			return nil, fmt.Errorf("fetch contacts: %w", err)
		}
	}

	remote := make([]domain.RemoteContact, 0, len(wire))
	for i := range wire {
		remote = append(remote, wire[i].ToRemote())
	}

	changes := Compare(remote, canonical)
	logger.Debug("sync: %s diff: %d to add, %d to delete, %d to update",
		identity.UserPrincipalName, len(changes.Add), len(changes.Delete), len(changes.Update))

	result := &IdentityResult{
		Identity:  identity,
		Timestamp: o.now(),
		Added:     len(changes.Add),
		Deleted:   len(changes.Delete),
		Updated:   len(changes.Update),
		DryRun:    o.dryRun,
	}

	if o.dryRun {
		return result, nil
	}

	// Adds, deletes, updates execute as separate groups, in that order.
	if err := o.applyAdds(ctx, identity, folderID, changes.Add, result); err != nil {
		return nil, err
	}
	if err := o.applyDeletes(ctx, identity, folderID, changes.Delete, result); err != nil {
		return nil, err
	}
	if err := o.applyUpdates(ctx, identity, folderID, changes.Update, result); err != nil {
		return nil, err
	}

	return result, nil
}

// resolveFolder finds the designated folder by display name, creating
// it when absent. Get-or-create is idempotent within a run because each
// identity is processed at most once. A dry run never creates the
// folder; it returns "" when the folder does not exist yet.
func (o *Orchestrator) resolveFolder(ctx context.Context, userID string) (string, error) {
	folders, err := o.client.ListContactFolders(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("resolve folder: %w", err)
	}

	for _, folder := range folders {
		if folder.DisplayName == o.folderName {
			return folder.ID, nil
		}
	}

	if o.dryRun {
		return "", nil
	}

	created, err := o.client.CreateContactFolder(ctx, userID, o.folderName)
	if err != nil {
		return "", fmt.Errorf("create folder: %w", err)
	}
	return created.ID, nil
}

func (o *Orchestrator) applyAdds(ctx context.Context, identity Identity, folderID string, add []domain.CanonicalContact, result *IdentityResult) error {
	if len(add) == 0 {
		return nil
	}

	ops := make([]graph.BatchOperation, 0, len(add))
	labels := make([]string, 0, len(add))
	for _, cc := range add {
		op, err := graph.BuildCreateContact(identity.ID, cc, folderID)
		if err != nil {
			return fmt.Errorf("build create for %s: %w", cc.Email(), err)
		}
		ops = append(ops, op)
		labels = append(labels, cc.Email())
	}

	responses, err := o.client.ExecuteBatch(ctx, ops)
	if err != nil {
		return fmt.Errorf("add contacts: %w", err)
	}
	o.appendOutcomes(result, "add", labels, responses)
	return nil
}

func (o *Orchestrator) applyDeletes(ctx context.Context, identity Identity, folderID string, del []domain.RemoteContact, result *IdentityResult) error {
	if len(del) == 0 {
		return nil
	}

	ops := make([]graph.BatchOperation, 0, len(del))
	labels := make([]string, 0, len(del))
	for _, rc := range del {
		ops = append(ops, graph.BuildDeleteContact(identity.ID, rc.ID, folderID))
		labels = append(labels, rc.ID)
	}

	responses, err := o.client.ExecuteBatch(ctx, ops)
	if err != nil {
		return fmt.Errorf("delete contacts: %w", err)
	}
	o.appendOutcomes(result, "delete", labels, responses)
	return nil
}

func (o *Orchestrator) applyUpdates(ctx context.Context, identity Identity, folderID string, updates []ContactUpdate, result *IdentityResult) error {
	if len(updates) == 0 {
		return nil
	}

	ops := make([]graph.BatchOperation, 0, len(updates))
	labels := make([]string, 0, len(updates))
	for _, upd := range updates {
		op, err := graph.BuildUpdateContact(identity.ID, upd.Delta, folderID, upd.RemoteID)
		if err != nil {
			return fmt.Errorf("build update for %s: %w", upd.Canonical.Email(), err)
		}
		ops = append(ops, op)
		labels = append(labels, upd.Canonical.Email())
	}

	responses, err := o.client.ExecuteBatch(ctx, ops)
	if err != nil {
		return fmt.Errorf("update contacts: %w", err)
	}
	o.appendOutcomes(result, "update", labels, responses)
	return nil
}

// appendOutcomes pairs responses with their operations. The executor
// returns responses in request order; if the list came back short the
// pairing stops at its end rather than indexing past it.
func (o *Orchestrator) appendOutcomes(result *IdentityResult, action string, labels []string, responses []graph.BatchResponse) {
	n := min(len(labels), len(responses))
	if len(responses) != len(labels) {
		logger.Warn("sync: %s %s responses for %d of %d operations",
			result.Identity.UserPrincipalName, action, len(responses), len(labels))
	}

	for i := 0; i < n; i++ {
		resp := responses[i]
		if resp.Failed() {
			logger.Warn("sync: %s %s %s failed with status %d",
				result.Identity.UserPrincipalName, action, labels[i], resp.Status)
		}
		result.Operations = append(result.Operations, OperationOutcome{
			Action:  action,
			Contact: labels[i],
			Status:  resp.Status,
			Body:    string(resp.Body),
		})
	}
}
