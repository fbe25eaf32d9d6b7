package suite

import (
	"fmt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mybank/expense-contract-tests/bank"
)

// DoLifecycleTests runs the multi-step business flows: bulk create, mutate,
// delete, and the guarantee that a scenario leaves no records behind.
func DoLifecycleTests(t *T) {
	t.Run("full lifecycle returns the list to its baseline", func(t *T) {
		baseline := t.currentCount()

		var ids []bank.ServerID
		var recs []bank.ExpenseRecord
		for i := 1; i <= 3; i++ {
			rec := bank.NewExpenseRecord("Media Expert", "200", bank.DirectionOut, "Wroclaw", fmt.Sprintf("Product-%d", i))
			ids = append(ids, t.MustCreateExpense(rec))
			recs = append(recs, rec)
		}
		t.RequireCount(baseline + 3)

		for i, id := range ids {
			rec := bank.NewExpenseRecord("Biedronka", "100", bank.DirectionOut, "Krakow", fmt.Sprintf("Product-%d", i+1))
			outcome, err := t.Orchestrator().Update(id, rec)
			require.NoError(t, err)
			require.Equal(t, bank.OutcomeOK, outcome)
			recs[i] = rec
		}
		for _, rec := range recs {
			t.RequirePresent(rec)
		}

		for _, id := range ids {
			outcome, err := t.Orchestrator().Delete(id)
			require.NoError(t, err)
			require.Equal(t, bank.OutcomeOK, outcome)
		}
		t.RequireCount(baseline)
	})

	t.Run("creating several expenses grows the list by that many", func(t *T) {
		baseline := t.currentCount()
		for i := 0; i < 3; i++ {
			rec := bank.NewExpenseRecord("Bulk", "10", bank.DirectionOut, "City", fmt.Sprintf("Bulk-%d", i))
			t.MustCreateExpense(rec)
		}
		t.RequireCount(baseline + 3)
	})

	t.Run("cleanup removes everything the scenario created", func(t *T) {
		baseline := t.currentCount()
		for i := 0; i < 2; i++ {
			rec := bank.NewExpenseRecord("Leaky", "3", bank.DirectionOut, "City", fmt.Sprintf("Leaky-%d", i))
			t.MustCreateExpense(rec)
		}
		t.RequireCount(baseline + 2)

		// run the cleanup phase by hand, then confirm nothing is left; the
		// deferred cleanup at scenario exit will find an empty tracked set
		t.Orchestrator().Cleanup()
		t.RequireCount(baseline)
		assert.Empty(t, t.Orchestrator().Tracked())
	})

	t.Run("history can be cleared completely", func(t *T) {
		for i := 0; i < 3; i++ {
			rec := bank.NewExpenseRecord("History", "3", bank.DirectionOut, "City", fmt.Sprintf("Hist-%d", i))
			t.MustCreateExpense(rec)
		}
		require.NoError(t, t.Orchestrator().ClearAll())
		t.RequireCount(0)
	})

	t.Run("updated record is gone under its old field values", func(t *T) {
		old := bank.NewExpenseRecord("OldType", "20", bank.DirectionOut, "City", "Prod-A")
		id := t.MustCreateExpense(old)
		t.RequirePresent(old)

		updated := bank.NewExpenseRecord("NewType", "30", bank.DirectionOut, "City", "Prod-A")
		outcome, err := t.Orchestrator().Update(id, updated)
		require.NoError(t, err)
		require.Equal(t, bank.OutcomeOK, outcome)

		t.RequirePresent(updated)
		t.RequireAbsent(old)
	})
}
