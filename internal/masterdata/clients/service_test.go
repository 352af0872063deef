package clients

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sistema-orcamento/orcamento/internal/shared"
)

type mockRepository struct {
	clients map[int64]Client
	quotes  map[int64]int
	nextID  int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{clients: map[int64]Client{}, quotes: map[int64]int{}, nextID: 1}
}

func (m *mockRepository) List(context.Context, string) ([]Client, error) {
	out := make([]Client, 0, len(m.clients))
	for _, c := range m.clients {
		out = append(out, c)
	}
	return out, nil
}

func (m *mockRepository) Get(_ context.Context, id int64) (Client, error) {
	c, ok := m.clients[id]
	if !ok {
		return Client{}, fmt.Errorf("%w: client %d", shared.ErrNotFound, id)
	}
	return c, nil
}

func (m *mockRepository) TaxIDTaken(_ context.Context, taxID string, excludeID int64) (bool, error) {
	for id, c := range m.clients {
		if id != excludeID && c.TaxID == taxID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepository) Create(_ context.Context, c Client) (Client, error) {
	c.ID = m.nextID
	m.nextID++
	m.clients[c.ID] = c
	return c, nil
}

func (m *mockRepository) Update(_ context.Context, c Client) (Client, error) {
	m.clients[c.ID] = c
	return c, nil
}

func (m *mockRepository) Delete(_ context.Context, id int64) error {
	delete(m.clients, id)
	return nil
}

func (m *mockRepository) CountQuotes(_ context.Context, id int64) (int, error) {
	return m.quotes[id], nil
}

func TestCreateNormalizesDigits(t *testing.T) {
	svc := NewService(newMockRepository())

	c, err := svc.Create(context.Background(), ClientRequest{
		Name:  "ACME Ltda",
		TaxID: "43.037.584/0001-82",
		Phone: "(11) 98765-4321",
		State: "sp",
	})
	require.NoError(t, err)
	assert.Equal(t, "43037584000182", c.TaxID)
	assert.Equal(t, "11987654321", c.Phone)
	assert.Equal(t, "SP", c.State)
}

func TestTaxIDIsUnique(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()

	_, err := svc.Create(ctx, ClientRequest{Name: "A", TaxID: "123.456.789-09"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, ClientRequest{Name: "B", TaxID: "12345678909"})
	assert.ErrorIs(t, err, shared.ErrDuplicate)

	// clients without tax id never collide
	_, err = svc.Create(ctx, ClientRequest{Name: "C"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, ClientRequest{Name: "D"})
	require.NoError(t, err)
}

func TestTaxIDLengthIsValidated(t *testing.T) {
	svc := NewService(newMockRepository())
	_, err := svc.Create(context.Background(), ClientRequest{Name: "A", TaxID: "123"})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestDeleteClientWithQuotesFails(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	ctx := context.Background()

	c, err := svc.Create(ctx, ClientRequest{Name: "Cliente"})
	require.NoError(t, err)
	repo.quotes[c.ID] = 1

	assert.ErrorIs(t, svc.Delete(ctx, c.ID), shared.ErrInUse)
	assert.Len(t, repo.clients, 1)
}

func TestAddressSkipsEmptyParts(t *testing.T) {
	c := Client{Street: "Rua A", Number: "10", City: "São Paulo", State: "SP", PostalCode: "01000000"}
	assert.Equal(t, "Rua A, 10, São Paulo, SP, 01000000", c.Address())
	assert.Equal(t, "", Client{}.Address())
}
