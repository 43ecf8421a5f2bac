package dr

// DRService is the orchestration layer behind every disaster-recovery
// operation: producing backups, cataloging them, restoring the document
// store, and purging stale anonymous identities. Each call is a stateless
// unit of work; nothing is shared between invocations except the injected
// collaborators.
type DRService struct {
	store    ObjectStore
	docs     DocumentStore
	identity IdentityProvider
	codehost CodeHost
	repo     RepoRef
	logger   Logger
	clock    Clock
}

// NewDRService creates a DRService with the provided dependencies.
// repo identifies the code repository included in every backup.
func NewDRService(store ObjectStore, docs DocumentStore, identity IdentityProvider, codehost CodeHost, repo RepoRef, logger Logger, clock Clock) *DRService {
	return &DRService{
		store:    store,
		docs:     docs,
		identity: identity,
		codehost: codehost,
		repo:     repo,
		logger:   logger,
		clock:    clock,
	}
}
