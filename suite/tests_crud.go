package suite

import (
	"fmt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mybank/expense-contract-tests/bank"
)

// DoExpenseCRUDTests exercises each expense operation in isolation. Record
// membership is always judged by the caller-supplied field tuple, because
// the service does not promise which identifier it echoes back, nor any
// list ordering.
func DoExpenseCRUDTests(t *T) {
	t.Run("create succeeds and returns an identifier", func(t *T) {
		rec := bank.NewExpenseRecord("Media Expert", "100", bank.DirectionOut, "Wroclaw", "Product-1")
		id := t.MustCreateExpense(rec)
		assert.True(t, id.IsDefined())
	})

	t.Run("created record appears in the list", func(t *T) {
		rec := bank.NewExpenseRecord("ZARA", "2000", bank.DirectionIn, "Wroclaw", "Product-1")
		t.MustCreateExpense(rec)
		t.RequirePresent(rec)
	})

	t.Run("round trip preserves all caller-supplied fields", func(t *T) {
		rec := bank.NewExpenseRecord("RoundTrip", "123.45", bank.DirectionOut, "Gdansk", "Widget-7")
		t.MustCreateExpense(rec)
		t.RequirePresent(rec)

		items, err := t.Client().List()
		require.NoError(t, err)
		found := false
		for _, item := range items {
			if item.Fields().SameFields(rec) {
				found = true
				assert.Equal(t, rec.Type, item.Type)
				assert.Equal(t, rec.Amount, item.Amount)
				assert.Equal(t, rec.Direction, item.Direction)
				assert.Equal(t, rec.Location, item.Location)
				assert.Equal(t, rec.Product, item.Product)
			}
		}
		assert.True(t, found, "created record not found by field tuple")
	})

	t.Run("update changes a whole batch", func(t *T) {
		var ids []bank.ServerID
		for i := 1; i <= 3; i++ {
			rec := bank.NewExpenseRecord("Media Expert", "200", bank.DirectionOut, "Wroclaw", fmt.Sprintf("Product-%d", i))
			ids = append(ids, t.MustCreateExpense(rec))
		}

		var updated []bank.ExpenseRecord
		for i, id := range ids {
			rec := bank.NewExpenseRecord("Biedronka", "100", bank.DirectionOut, "Krakow", fmt.Sprintf("Product-%d", i+1))
			outcome, err := t.Orchestrator().Update(id, rec)
			require.NoError(t, err)
			require.Equal(t, bank.OutcomeOK, outcome, "update of %s reported %s", id, outcome)
			updated = append(updated, rec)
		}
		for _, rec := range updated {
			t.RequirePresent(rec)
		}
	})

	t.Run("delete removes a whole batch", func(t *T) {
		baseline := t.currentCount()
		var ids []bank.ServerID
		for i := 1; i <= 3; i++ {
			rec := bank.NewExpenseRecord("ToDelete", "200", bank.DirectionOut, "Wroclaw", fmt.Sprintf("Product-%d", i))
			ids = append(ids, t.MustCreateExpense(rec))
		}
		for _, id := range ids {
			outcome, err := t.Orchestrator().Delete(id)
			require.NoError(t, err)
			require.Equal(t, bank.OutcomeOK, outcome, "delete of %s reported %s", id, outcome)
		}
		t.RequireCount(baseline)
	})

	t.Run("deleting twice reports not found", func(t *T) {
		rec := bank.NewExpenseRecord("Twice", "50", bank.DirectionOut, "Lodz", "Once")
		id := t.MustCreateExpense(rec)

		outcome, err := t.Orchestrator().Delete(id)
		require.NoError(t, err)
		require.Equal(t, bank.OutcomeOK, outcome)

		outcome, err = t.Orchestrator().Delete(id)
		require.NoError(t, err)
		assert.Equal(t, bank.OutcomeNotFound, outcome)
	})

	t.Run("minimum amount is accepted", func(t *T) {
		rec := bank.NewExpenseRecord("Test", t.Config().MinAmount, bank.DirectionOut, "TestCity", "MinAmount")
		t.MustCreateExpense(rec)
		t.RequirePresent(rec)
	})

	t.Run("maximum amount is accepted", func(t *T) {
		rec := bank.NewExpenseRecord("Test", t.Config().MaxAmount, bank.DirectionOut, "TestCity", "MaxAmount")
		t.MustCreateExpense(rec)
		t.RequirePresent(rec)
	})

	t.Run("list accepts paging parameters", func(t *T) {
		rec := bank.NewExpenseRecord("Paged", "5", bank.DirectionOut, "TestCity", "Paged-1")
		t.MustCreateExpense(rec)
		_, err := t.Client().ListPage(1, 5)
		require.NoError(t, err)
	})
}

// currentCount reads the identity's record count once, for baselines taken
// before a scenario mutates anything.
func (t *T) currentCount() int {
	items, err := t.Client().List()
	require.NoError(t, err)
	return len(items)
}
