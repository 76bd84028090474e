package orchestrator_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nexliaai/corretor/internal/documents"
	"github.com/nexliaai/corretor/internal/extraction"
	"github.com/nexliaai/corretor/internal/orchestrator"
	"github.com/nexliaai/corretor/internal/parties"
	"github.com/nexliaai/corretor/internal/policies"
	"github.com/nexliaai/corretor/internal/reconciliation"
	"github.com/nexliaai/corretor/pkg/poll"
)

const policyText = "```json\n" + `{
  "dados_pessoais": {"nome": "Maria Souza", "document": "123.456.789-09", "email": "maria@example.com"},
  "apolice": {
    "numero_apolice": "5312024",
    "segurado_nome": "Maria Souza",
    "fim_vigencia": "01/03/2025",
    "preco_total": "R$ 2.345,67"
  }
}` + "\n```"

type fakeDocs struct {
	mu   sync.Mutex
	docs map[uuid.UUID]*documents.Document

	// failReads maps a Find call number to the error it returns.
	failReads map[int]error
	reads     int
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{docs: map[uuid.UUID]*documents.Document{}}
}

func (f *fakeDocs) add(status documents.Status, category string) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := uuid.New()
	f.docs[id] = &documents.Document{
		ID:          id,
		Category:    category,
		Filename:    "apolice.pdf",
		ContentType: "application/pdf",
		SizeBytes:   1024,
		StorageKey:  "documents/" + id.String() + "/apolice.pdf",
		Status:      status,
		CreatedAt:   time.Now(),
	}
	return id
}

func (f *fakeDocs) update(id uuid.UUID, fn func(d *documents.Document)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f.docs[id])
}

func (f *fakeDocs) get(id uuid.UUID) documents.Document {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.docs[id]
}

// failOn makes the n-th Find call from now return err.
func (f *fakeDocs) failOn(n int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failReads == nil {
		f.failReads = map[int]error{}
	}
	f.failReads[f.reads+n] = err
}

func (f *fakeDocs) Find(ctx context.Context, id uuid.UUID) (*documents.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.reads++
	if err, ok := f.failReads[f.reads]; ok {
		return nil, err
	}

	d, ok := f.docs[id]
	if !ok {
		return nil, documents.ErrNotFound
	}
	c := *d
	return &c, nil
}

func (f *fakeDocs) PresignedURL(ctx context.Context, id uuid.UUID, ttl time.Duration) (string, error) {
	return "https://blobs.test/" + id.String() + "?sig=x", nil
}

func (f *fakeDocs) cas(id uuid.UUID, from []documents.Status, fn func(d *documents.Document)) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	d, ok := f.docs[id]
	if !ok {
		return false, nil
	}
	for _, s := range from {
		if d.Status == s {
			fn(d)
			d.StatusChangedAt = time.Now()
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeDocs) MarkProcessing(ctx context.Context, id uuid.UUID, jobRef *string) (bool, error) {
	return f.cas(id, []documents.Status{documents.StatusPending}, func(d *documents.Document) {
		now := time.Now()
		d.Status = documents.StatusProcessing
		d.ProcessingStartedAt = &now
		d.JobRef = jobRef
	})
}

func (f *fakeDocs) SetJobRef(ctx context.Context, id uuid.UUID, jobRef string) (bool, error) {
	return f.cas(id, []documents.Status{documents.StatusProcessing}, func(d *documents.Document) {
		d.JobRef = &jobRef
	})
}

func (f *fakeDocs) MarkExtracted(ctx context.Context, id uuid.UUID, ext documents.Extraction) (bool, error) {
	return f.cas(id, []documents.Status{documents.StatusProcessing}, func(d *documents.Document) {
		d.Status = documents.StatusPendingReview
		d.ExtractedPayload = ext.Payload
		d.RawResponse = &ext.Raw
		d.IdentityHint = ext.IdentityHint
	})
}

func (f *fakeDocs) MarkFailed(ctx context.Context, id uuid.UUID, from documents.Status, message string, raw *string) (bool, error) {
	return f.cas(id, []documents.Status{from}, func(d *documents.Document) {
		now := time.Now()
		d.Status = documents.StatusError
		d.ErrorMessage = &message
		if raw != nil {
			d.RawResponse = raw
		}
		d.CompletedAt = &now
	})
}

func (f *fakeDocs) MarkCompleted(ctx context.Context, id uuid.UUID, partyID uuid.UUID) (bool, error) {
	from := []documents.Status{documents.StatusPendingReview, documents.StatusCompleted}
	return f.cas(id, from, func(d *documents.Document) {
		now := time.Now()
		d.Status = documents.StatusCompleted
		d.PartyID = &partyID
		if d.CompletedAt == nil {
			d.CompletedAt = &now
		}
	})
}

type fakeProvider struct {
	mu          sync.Mutex
	submit      func(s extraction.Submission) (*extraction.Result, error)
	submissions []extraction.Submission
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Submit(ctx context.Context, s extraction.Submission) (*extraction.Result, error) {
	p.mu.Lock()
	p.submissions = append(p.submissions, s)
	p.mu.Unlock()
	return p.submit(s)
}

func (p *fakeProvider) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.submissions)
}

type pollingProvider struct {
	fakeProvider
	mu    sync.Mutex
	polls []string
	poll  func(attempt int) (*extraction.Result, error)
}

func (p *pollingProvider) Poll(ctx context.Context, jobRef string) (*extraction.Result, error) {
	p.mu.Lock()
	p.polls = append(p.polls, jobRef)
	n := len(p.polls)
	p.mu.Unlock()
	return p.poll(n)
}

func inline(text string) func(extraction.Submission) (*extraction.Result, error) {
	return func(extraction.Submission) (*extraction.Result, error) {
		return &extraction.Result{State: extraction.StateCompleted, Text: text}, nil
	}
}

func accepted(job string) func(extraction.Submission) (*extraction.Result, error) {
	return func(extraction.Submission) (*extraction.Result, error) {
		return &extraction.Result{State: extraction.StateAccepted, JobRef: job}, nil
	}
}

type fakeParties struct {
	byID map[uuid.UUID]*parties.Party
}

func (f *fakeParties) add(taxID string, kind parties.Kind) *parties.Party {
	if f.byID == nil {
		f.byID = map[uuid.UUID]*parties.Party{}
	}
	p := &parties.Party{ID: uuid.New(), Kind: kind, DisplayName: "Maria Souza"}
	if taxID != "" {
		p.TaxID = &taxID
	}
	f.byID[p.ID] = p
	return p
}

func (f *fakeParties) Find(ctx context.Context, id uuid.UUID) (*parties.Party, error) {
	if p, ok := f.byID[id]; ok {
		return p, nil
	}
	return nil, parties.ErrNotFound
}

func (f *fakeParties) FindByTaxID(ctx context.Context, taxID string) (*parties.Party, error) {
	for _, p := range f.byID {
		if p.TaxID != nil && *p.TaxID == taxID {
			return p, nil
		}
	}
	return nil, parties.ErrNotFound
}

type fakeReconciler struct {
	mu         sync.Mutex
	party      *parties.Party
	err        error
	identities []reconciliation.Identity
}

func (f *fakeReconciler) Reconcile(ctx context.Context, id reconciliation.Identity) (*reconciliation.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.identities = append(f.identities, id)
	if f.err != nil {
		return nil, f.err
	}
	return &reconciliation.Result{Party: f.party, Outcome: reconciliation.OutcomeCreated}, nil
}

type fakeRecords struct {
	mu   sync.Mutex
	err  error
	cmds []policies.UpsertCommand
}

func (f *fakeRecords) Upsert(ctx context.Context, cmd policies.UpsertCommand) (*policies.Policy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	f.cmds = append(f.cmds, cmd)
	p := &policies.Policy{
		ID:         uuid.New(),
		DocumentID: cmd.DocumentID,
		PartyID:    cmd.PartyID,
		PartyKind:  cmd.PartyKind,
		Category:   cmd.Category,
	}
	if cmd.Fields != nil {
		p.AutoPolicyFields = *cmd.Fields
	}
	return p, nil
}

type harness struct {
	docs       *fakeDocs
	parties    *fakeParties
	reconciler *fakeReconciler
	records    *fakeRecords
	orch       *orchestrator.Orchestrator
}

func testConfig() orchestrator.Config {
	return orchestrator.Config{
		Mode:         "callback",
		PollInterval: time.Millisecond,
		PollAttempts: 3,
		Workers:      2,
	}
}

func newHarness(t *testing.T, cfg orchestrator.Config, provider extraction.Provider) *harness {
	t.Helper()

	h := &harness{
		docs:       newFakeDocs(),
		parties:    &fakeParties{},
		reconciler: &fakeReconciler{},
		records:    &fakeRecords{},
	}
	h.reconciler.party = h.parties.add("12345678909", parties.KindIndividual)

	h.orch = orchestrator.New(orchestrator.Deps{
		Documents:  h.docs,
		Parties:    h.parties,
		Reconciler: h.reconciler,
		Records:    h.records,
		Provider:   provider,
		Sleeper: poll.SleeperFunc(func(ctx context.Context, d time.Duration) error {
			return ctx.Err()
		}),
	}, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))

	return h
}
