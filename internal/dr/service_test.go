package dr_test

import (
	"dr-go/internal/docstore"
	"dr-go/internal/dr"
	"dr-go/internal/identity"
	"dr-go/internal/objectstore"
	"dr-go/internal/testutil"
)

// fixtures bundles a DRService with its in-memory collaborators so tests
// can script failures and inspect side effects.
type fixtures struct {
	svc      *dr.DRService
	store    *objectstore.MemoryStore
	docs     *docstore.MemoryStore
	identity *identity.MemoryProvider
	codehost *testutil.StubCodeHost
	clock    *testutil.StubClock
}

var testRepo = dr.RepoRef{Owner: "acme", Repo: "webapp", Branch: "main"}

// newFixtures builds a service over fresh in-memory fakes. The document
// store starts with tree, the clock at testutil.FixedClock time.
func newFixtures(tree any) *fixtures {
	f := &fixtures{
		store:    objectstore.NewMemoryStore(),
		docs:     docstore.NewMemoryStore(tree),
		identity: identity.NewMemoryProvider(),
		codehost: &testutil.StubCodeHost{Archive: []byte("zip-bytes")},
		clock:    testutil.FixedClock(),
	}
	f.svc = dr.NewDRService(f.store, f.docs, f.identity, f.codehost, testRepo, dr.NewNopLogger(), f.clock)
	return f
}
