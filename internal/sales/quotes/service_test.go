package quotes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sistema-orcamento/orcamento/internal/masterdata/clauses"
	"github.com/sistema-orcamento/orcamento/internal/masterdata/clients"
	"github.com/sistema-orcamento/orcamento/internal/masterdata/products"
	"github.com/sistema-orcamento/orcamento/internal/shared"
)

type fakeRepo struct {
	quotes     map[int64]*Quote
	nextID     int64
	failInsert error
	// afterGet runs once the stored row has been read, standing in for a
	// concurrent request that commits between a read and the following write.
	afterGet func(id int64)
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{quotes: map[int64]*Quote{}, nextID: 1}
}

func cloneQuote(q *Quote) *Quote {
	c := *q
	c.Items = append([]Item(nil), q.Items...)
	c.Clauses = append([]ClauseRef(nil), q.Clauses...)
	return &c
}

func (f *fakeRepo) snapshot() (map[int64]*Quote, int64) {
	out := make(map[int64]*Quote, len(f.quotes))
	for id, q := range f.quotes {
		out[id] = cloneQuote(q)
	}
	return out, f.nextID
}

func (f *fakeRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	saved, next := f.snapshot()
	if err := fn(ctx, f); err != nil {
		f.quotes, f.nextID = saved, next
		return err
	}
	return nil
}

func (f *fakeRepo) Get(_ context.Context, id int64) (*Quote, error) {
	q, ok := f.quotes[id]
	if !ok {
		return nil, fmt.Errorf("%w: quote %d", shared.ErrNotFound, id)
	}
	out := cloneQuote(q)
	if f.afterGet != nil {
		f.afterGet(id)
	}
	return out, nil
}

func (f *fakeRepo) List(_ context.Context, _ string) ([]Summary, error) {
	out := make([]Summary, 0, len(f.quotes))
	for _, q := range f.quotes {
		row := Summary{ID: q.ID, ClientID: q.ClientID, Status: q.Status, Revision: q.Revision, ValidUntil: q.ValidUntil, Total: q.Total}
		if q.Author != nil {
			row.AuthorName = q.Author.Name
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeRepo) Create(_ context.Context, q Quote) (int64, time.Time, error) {
	q.ID = f.nextID
	f.nextID++
	q.CreatedAt = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	q.Items, q.Clauses = nil, nil
	f.quotes[q.ID] = &q
	return q.ID, q.CreatedAt, nil
}

func (f *fakeRepo) UpdateHeader(_ context.Context, q Quote) (int, error) {
	stored, ok := f.quotes[q.ID]
	if !ok {
		return 0, shared.ErrNotFound
	}
	if stored.Status != StatusDraft {
		return 0, ErrQuoteLocked
	}
	stored.ClientID = q.ClientID
	stored.ValidUntil = q.ValidUntil
	stored.Notes = q.Notes
	stored.ContactName = q.ContactName
	stored.ContactEmail = q.ContactEmail
	stored.Total = q.Total
	stored.Revision++
	return stored.Revision, nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, id int64, status Status) error {
	stored, ok := f.quotes[id]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Status != StatusDraft {
		return ErrQuoteLocked
	}
	stored.Status = status
	return nil
}

func (f *fakeRepo) InsertItem(_ context.Context, quoteID int64, _ int, it Item) error {
	if f.failInsert != nil {
		return f.failInsert
	}
	f.quotes[quoteID].Items = append(f.quotes[quoteID].Items, it)
	return nil
}

func (f *fakeRepo) InsertClause(_ context.Context, quoteID int64, _ int, clauseID int64) error {
	f.quotes[quoteID].Clauses = append(f.quotes[quoteID].Clauses, ClauseRef{ClauseID: clauseID})
	return nil
}

func (f *fakeRepo) DeleteItems(_ context.Context, quoteID int64) error {
	if q, ok := f.quotes[quoteID]; ok {
		q.Items = nil
	}
	return nil
}

func (f *fakeRepo) DeleteClauses(_ context.Context, quoteID int64) error {
	if q, ok := f.quotes[quoteID]; ok {
		q.Clauses = nil
	}
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.quotes[id]; !ok {
		return fmt.Errorf("%w: quote %d", shared.ErrNotFound, id)
	}
	delete(f.quotes, id)
	return nil
}

type catalog struct {
	products map[int64]products.Product
	clauses  map[int64]clauses.Clause
	clients  map[int64]clients.Client
}

type productLookup struct{ c *catalog }

func (p productLookup) Get(_ context.Context, id int64) (products.Product, error) {
	if v, ok := p.c.products[id]; ok {
		return v, nil
	}
	return products.Product{}, shared.ErrNotFound
}

type clauseLookup struct{ c *catalog }

func (l clauseLookup) Get(_ context.Context, id int64) (clauses.Clause, error) {
	if v, ok := l.c.clauses[id]; ok {
		return v, nil
	}
	return clauses.Clause{}, shared.ErrNotFound
}

type clientLookup struct{ c *catalog }

func (l clientLookup) Get(_ context.Context, id int64) (clients.Client, error) {
	if v, ok := l.c.clients[id]; ok {
		return v, nil
	}
	return clients.Client{}, shared.ErrNotFound
}

type recordingEnqueuer struct {
	ids []int64
	err error
}

func (r *recordingEnqueuer) EnqueueArchive(_ context.Context, id int64) error {
	r.ids = append(r.ids, id)
	return r.err
}

type statusCounter map[string]int

func (s statusCounter) QuoteStatusChanged(status string) { s[status]++ }

var today = time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)

type fixture struct {
	repo    *fakeRepo
	catalog *catalog
	archive *recordingEnqueuer
	counter statusCounter
	svc     *Service
}

func newFixture() *fixture {
	cat := &catalog{
		products: map[int64]products.Product{widget.ID: widget, bolt.ID: bolt},
		clauses:  map[int64]clauses.Clause{terms.ID: terms},
		clients:  map[int64]clients.Client{3: {ID: 3, Name: "ACME Ltda"}},
	}
	f := &fixture{repo: newFakeRepo(), catalog: cat, archive: &recordingEnqueuer{}, counter: statusCounter{}}
	f.svc = NewService(f.repo, productLookup{cat}, clauseLookup{cat}, clientLookup{cat},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithArchiveEnqueuer(f.archive),
		WithStatusRecorder(f.counter),
		WithClock(func() time.Time { return today }),
	)
	return f
}

func scenarioRequest() CreateQuoteRequest {
	return CreateQuoteRequest{
		ClientID: 3,
		Items: []LineRequest{
			{ProductID: widget.ID, Quantity: dec("2"), DiscountPercent: decPtr("0")},
			{ProductID: bolt.ID, Quantity: dec("1"), DiscountPercent: decPtr("10")},
		},
	}
}

func TestCreateQuoteComputesTotal(t *testing.T) {
	f := newFixture()
	q, err := f.svc.Create(context.Background(), scenarioRequest(), 9)
	require.NoError(t, err)

	assert.Equal(t, StatusDraft, q.Status)
	assert.Equal(t, 1, q.Revision)
	require.NotNil(t, q.AuthorID)
	assert.Equal(t, int64(9), *q.AuthorID)
	assert.True(t, dec("245.00").Equal(q.Total), "got %s", q.Total)

	stored, err := f.repo.Get(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Items, 2)
	assert.Empty(t, stored.Clauses)
}

func TestCreateQuoteRejectsUnknownReferences(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req := scenarioRequest()
	req.ClientID = 404
	_, err := f.svc.Create(ctx, req, 0)
	require.ErrorIs(t, err, shared.ErrValidation)

	req = scenarioRequest()
	req.Items[1].ProductID = 404
	_, err = f.svc.Create(ctx, req, 0)
	require.ErrorIs(t, err, shared.ErrValidation)
	assert.Contains(t, err.Error(), "item 2")

	req = scenarioRequest()
	req.ClauseIDs = []int64{terms.ID, terms.ID}
	_, err = f.svc.Create(ctx, req, 0)
	require.ErrorIs(t, err, ErrClauseAlreadyAttached)

	req = scenarioRequest()
	req.Items = nil
	_, err = f.svc.Create(ctx, req, 0)
	require.ErrorIs(t, err, shared.ErrValidation)
	assert.Empty(t, f.repo.quotes)
}

func TestUpdateIncrementsRevisionEvenWithIdenticalInput(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	q, err := f.svc.Create(ctx, scenarioRequest(), 0)
	require.NoError(t, err)

	withClause := scenarioRequest()
	withClause.ClauseIDs = []int64{terms.ID}
	updated, err := f.svc.Update(ctx, q.ID, withClause)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Revision)
	assert.True(t, dec("245.00").Equal(updated.Total))
	assert.Len(t, updated.Clauses, 1)

	updated, err = f.svc.Update(ctx, q.ID, scenarioRequest())
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Revision)
	assert.Len(t, f.repo.quotes[q.ID].Items, 2)
}

func TestUpdateKeepsSubmittedSnapshotAfterCatalogChange(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	q, err := f.svc.Create(ctx, scenarioRequest(), 0)
	require.NoError(t, err)

	repriced := widget
	repriced.UnitPrice = dec("150.00")
	f.catalog.products[widget.ID] = repriced

	req := scenarioRequest()
	for i := range req.Items {
		price := q.Items[i].UnitPrice
		tariff := q.Items[i].TariffCode
		req.Items[i].UnitPrice = &price
		req.Items[i].TariffCode = &tariff
	}
	updated, err := f.svc.Update(ctx, q.ID, req)
	require.NoError(t, err)
	assert.True(t, dec("245.00").Equal(updated.Total))
}

func TestUpdateRollsBackWhenChildWriteFails(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	q, err := f.svc.Create(ctx, scenarioRequest(), 0)
	require.NoError(t, err)

	f.repo.failInsert = errors.New("connection reset")
	_, err = f.svc.Update(ctx, q.ID, scenarioRequest())
	require.Error(t, err)

	stored := f.repo.quotes[q.ID]
	assert.Equal(t, 1, stored.Revision)
	assert.Len(t, stored.Items, 2)
}

func TestTerminalQuotesAreLocked(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	q, err := f.svc.Create(ctx, scenarioRequest(), 0)
	require.NoError(t, err)

	approved, err := f.svc.ChangeStatus(ctx, q.ID, StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, approved.Status)
	assert.Equal(t, []int64{q.ID}, f.archive.ids)
	assert.Equal(t, 1, f.counter[string(StatusApproved)])

	_, err = f.svc.Update(ctx, q.ID, scenarioRequest())
	require.ErrorIs(t, err, ErrQuoteLocked)
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	_, err = f.svc.ChangeStatus(ctx, q.ID, StatusCancelled)
	require.ErrorIs(t, err, ErrQuoteLocked)

	require.NoError(t, f.svc.Delete(ctx, q.ID))
	_, err = f.svc.Get(ctx, q.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestChangeStatusRejectsUnknownTarget(t *testing.T) {
	f := newFixture()
	q, err := f.svc.Create(context.Background(), scenarioRequest(), 0)
	require.NoError(t, err)

	for _, status := range []Status{StatusDraft, StatusExpired, "SENT"} {
		_, err := f.svc.ChangeStatus(context.Background(), q.ID, status)
		require.ErrorIs(t, err, shared.ErrValidation)
	}
}

func TestExpiredDraftCannotBeApprovedButCanBeCancelled(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	req := scenarioRequest()
	yesterday := shared.NewDate(today.AddDate(0, 0, -1))
	req.ValidUntil = &yesterday
	q, err := f.svc.Create(ctx, req, 0)
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, q.EffectiveStatus)
	assert.Equal(t, StatusDraft, q.Status)

	_, err = f.svc.ChangeStatus(ctx, q.ID, StatusApproved)
	require.ErrorIs(t, err, ErrQuoteExpired)
	assert.Empty(t, f.archive.ids)

	cancelled, err := f.svc.ChangeStatus(ctx, q.ID, StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.EffectiveStatus)
}

func TestValidUntilTodayIsNotExpired(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	req := scenarioRequest()
	validToday := shared.NewDate(today)
	req.ValidUntil = &validToday
	q, err := f.svc.Create(ctx, req, 0)
	require.NoError(t, err)

	rows, err := f.svc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, StatusDraft, rows[0].EffectiveStatus)

	_, err = f.svc.ChangeStatus(ctx, q.ID, StatusApproved)
	require.NoError(t, err)
}

func TestListDerivesExpiredStatus(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	past := shared.NewDate(today.AddDate(0, -1, 0))
	req := scenarioRequest()
	req.ValidUntil = &past
	_, err := f.svc.Create(ctx, req, 0)
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, scenarioRequest(), 0)
	require.NoError(t, err)

	rows, err := f.svc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, StatusDraft, rows[0].EffectiveStatus)
	assert.Equal(t, StatusExpired, rows[1].EffectiveStatus)
	assert.Equal(t, StatusDraft, rows[1].Status)
}

func TestApproveSucceedsWhenArchiveEnqueueFails(t *testing.T) {
	f := newFixture()
	f.archive.err = errors.New("redis down")
	q, err := f.svc.Create(context.Background(), scenarioRequest(), 0)
	require.NoError(t, err)

	approved, err := f.svc.ChangeStatus(context.Background(), q.ID, StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, approved.Status)
	assert.Equal(t, StatusApproved, f.repo.quotes[q.ID].Status)
}

func TestPriceDraftDoesNotPersist(t *testing.T) {
	f := newFixture()
	preview, err := f.svc.PriceDraft(context.Background(), DraftRequest{
		Items:     scenarioRequest().Items,
		ClauseIDs: []int64{terms.ID},
	})
	require.NoError(t, err)
	assert.True(t, dec("245.00").Equal(preview.Total))
	assert.Len(t, preview.Clauses, 1)
	assert.Empty(t, f.repo.quotes)
}

func TestCreateRejectsValuesFinerThanStoredPrecision(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req := scenarioRequest()
	req.Items[0] = LineRequest{ProductID: widget.ID, Quantity: dec("3"), DiscountPercent: decPtr("33.333")}
	_, err := f.svc.Create(ctx, req, 0)
	require.ErrorIs(t, err, shared.ErrValidation)

	req = scenarioRequest()
	req.Items[0].Quantity = dec("0.0004")
	_, err = f.svc.Create(ctx, req, 0)
	require.ErrorIs(t, err, shared.ErrValidation)
	assert.Empty(t, f.repo.quotes)

	req = scenarioRequest()
	req.Items[0] = LineRequest{ProductID: widget.ID, Quantity: dec("3"), DiscountPercent: decPtr("33.33")}
	q, err := f.svc.Create(ctx, req, 0)
	require.NoError(t, err)
	assert.True(t, ComputeTotal(f.repo.quotes[q.ID].Items).Equal(q.Total))
	assert.True(t, dec("245.01").Equal(q.Total), "got %s", q.Total)
}

func TestUpdateDoesNotOverwriteQuoteApprovedMeanwhile(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	q, err := f.svc.Create(ctx, scenarioRequest(), 0)
	require.NoError(t, err)

	f.repo.afterGet = func(id int64) { f.repo.quotes[id].Status = StatusApproved }
	withClause := scenarioRequest()
	withClause.ClauseIDs = []int64{terms.ID}
	_, err = f.svc.Update(ctx, q.ID, withClause)
	require.ErrorIs(t, err, ErrQuoteLocked)

	stored := f.repo.quotes[q.ID]
	assert.Equal(t, 1, stored.Revision)
	assert.Len(t, stored.Items, 2)
	assert.Empty(t, stored.Clauses)
}

func TestChangeStatusDoesNotReviveQuoteCancelledMeanwhile(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	q, err := f.svc.Create(ctx, scenarioRequest(), 0)
	require.NoError(t, err)

	f.repo.afterGet = func(id int64) { f.repo.quotes[id].Status = StatusCancelled }
	_, err = f.svc.ChangeStatus(ctx, q.ID, StatusApproved)
	require.ErrorIs(t, err, ErrQuoteLocked)

	assert.Equal(t, StatusCancelled, f.repo.quotes[q.ID].Status)
	assert.Empty(t, f.archive.ids)
	assert.Zero(t, f.counter[string(StatusApproved)])
}

func TestDeleteApprovedQuote(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	req := scenarioRequest()
	req.ClauseIDs = []int64{terms.ID}
	q, err := f.svc.Create(ctx, req, 0)
	require.NoError(t, err)
	_, err = f.svc.ChangeStatus(ctx, q.ID, StatusApproved)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, q.ID))
	assert.NotContains(t, f.repo.quotes, q.ID)

	rows, err := f.svc.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestDeleteUnknownQuoteIsNotFound(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	q, err := f.svc.Create(ctx, scenarioRequest(), 0)
	require.NoError(t, err)

	err = f.svc.Delete(ctx, 404)
	require.ErrorIs(t, err, shared.ErrNotFound)
	assert.Len(t, f.repo.quotes[q.ID].Items, 2)
}

func TestCreateRollsBackWhenChildWriteFails(t *testing.T) {
	f := newFixture()
	f.repo.failInsert = errors.New("connection reset")

	_, err := f.svc.Create(context.Background(), scenarioRequest(), 0)
	require.Error(t, err)
	assert.Empty(t, f.repo.quotes)
	assert.Equal(t, int64(1), f.repo.nextID)
}

func TestListCarriesAuthorName(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	q, err := f.svc.Create(ctx, scenarioRequest(), 9)
	require.NoError(t, err)
	f.repo.quotes[q.ID].Author = &Author{ID: 9, Name: "Ana Souza"}

	rows, err := f.svc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ana Souza", rows[0].AuthorName)
}
