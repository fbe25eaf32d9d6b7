package lifecycle

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mybank/expense-contract-tests/bank"
	"github.com/mybank/expense-contract-tests/mockbank"
)

func newTestOrchestrator(t *testing.T, attempts int) (*Orchestrator, *bank.Client, *mockbank.Server) {
	t.Helper()
	mock := mockbank.NewServer()
	server := httptest.NewServer(mock.Handler())
	t.Cleanup(server.Close)

	broker := bank.NewCredentialBroker(server.URL, nil, nil)
	token, err := broker.ObtainToken(bank.NewIdentity("lifecycle", "test.com"))
	require.NoError(t, err)

	client := bank.NewClient(server.URL, token, nil, nil)
	orch := New(client, PollPolicy{Attempts: attempts, Backoff: time.Millisecond}, nil)
	return orch, client, mock
}

func record(product string) bank.ExpenseRecord {
	return bank.NewExpenseRecord("Media Expert", "200", bank.DirectionOut, "Wroclaw", product)
}

func TestCreateTrackedAndVerifyPresent(t *testing.T) {
	orch, _, _ := newTestOrchestrator(t, 3)

	rec := record("Product-1")
	id, err := orch.CreateTracked(rec)
	require.NoError(t, err)
	assert.True(t, id.IsDefined())

	require.NoError(t, orch.VerifyPresent(rec))
	require.Len(t, orch.Tracked(), 1)
}

func TestVerifyPresentConvergesThroughLaggedReads(t *testing.T) {
	orch, _, mock := newTestOrchestrator(t, 5)

	first := record("Product-1")
	_, err := orch.CreateTracked(first)
	require.NoError(t, err)

	// the next mutation leaves two stale reads behind it
	mock.SetListLag(2)
	second := record("Product-2")
	_, err = orch.CreateTracked(second)
	require.NoError(t, err)

	require.NoError(t, orch.VerifyPresent(second), "should converge within the polling budget")
}

func TestVerifyPresentTimesOutBeyondBudget(t *testing.T) {
	orch, _, mock := newTestOrchestrator(t, 2)

	mock.SetListLag(10)
	rec := record("Product-1")
	_, err := orch.CreateTracked(rec)
	require.NoError(t, err)

	err = orch.VerifyPresent(rec)
	var timeout *VerificationTimeout
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, 2, timeout.Attempts)
}

func TestVerifyAbsentAndCount(t *testing.T) {
	orch, _, _ := newTestOrchestrator(t, 3)

	rec := record("Product-1")
	id, err := orch.CreateTracked(rec)
	require.NoError(t, err)
	require.NoError(t, orch.VerifyCount(1))

	outcome, err := orch.Delete(id)
	require.NoError(t, err)
	require.Equal(t, bank.OutcomeOK, outcome)

	require.NoError(t, orch.VerifyAbsent(rec))
	require.NoError(t, orch.VerifyCount(0))
	assert.Empty(t, orch.Tracked())
}

func TestUpdateRefreshesTrackedFields(t *testing.T) {
	orch, _, _ := newTestOrchestrator(t, 3)

	old := record("Product-1")
	id, err := orch.CreateTracked(old)
	require.NoError(t, err)

	updated := bank.NewExpenseRecord("Biedronka", "100", bank.DirectionOut, "Krakow", "Product-1")
	outcome, err := orch.Update(id, updated)
	require.NoError(t, err)
	require.Equal(t, bank.OutcomeOK, outcome)

	require.NoError(t, orch.VerifyPresent(updated))
	require.NoError(t, orch.VerifyAbsent(old))

	tracked := orch.Tracked()
	require.Len(t, tracked, 1)
	assert.True(t, tracked[0].Record.SameFields(updated))
}

func TestCleanupDeletesEverythingTracked(t *testing.T) {
	orch, client, _ := newTestOrchestrator(t, 3)

	for _, p := range []string{"Product-1", "Product-2", "Product-3"} {
		_, err := orch.CreateTracked(record(p))
		require.NoError(t, err)
	}

	orch.Cleanup()

	items, err := client.List()
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Empty(t, orch.Tracked())
}

func TestCleanupToleratesAlreadyDeletedRecords(t *testing.T) {
	orch, client, _ := newTestOrchestrator(t, 3)

	rec := record("Product-1")
	id, err := orch.CreateTracked(rec)
	require.NoError(t, err)

	// delete behind the orchestrator's back so cleanup hits NotFound
	outcome, err := client.Delete(id)
	require.NoError(t, err)
	require.Equal(t, bank.OutcomeOK, outcome)

	orch.Cleanup() // must not panic or fail anything
	assert.Empty(t, orch.Tracked())
}

func TestClearAllEmptiesTheHistory(t *testing.T) {
	orch, client, _ := newTestOrchestrator(t, 3)

	for _, p := range []string{"Product-1", "Product-2"} {
		_, err := orch.CreateTracked(record(p))
		require.NoError(t, err)
	}
	// plus one record nothing is tracking
	_, err := client.Create(record("Untracked"))
	require.NoError(t, err)

	require.NoError(t, orch.ClearAll())

	items, err := client.List()
	require.NoError(t, err)
	assert.Empty(t, items)
}
