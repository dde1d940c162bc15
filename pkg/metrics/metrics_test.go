package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordSync_CountsWritesOnlyOnSuccess(t *testing.T) {
	insertsBefore := testutil.ToFloat64(RecordsWritten.WithLabelValues("insert"))
	failuresBefore := testutil.ToFloat64(SyncRuns.WithLabelValues(OutcomeFailure, "store"))

	RecordSync(OutcomeFailure, "store", time.Second, 5, 0, 0)
	if got := testutil.ToFloat64(RecordsWritten.WithLabelValues("insert")); got != insertsBefore {
		t.Fatalf("failed run must not count writes, got %v want %v", got, insertsBefore)
	}
	if got := testutil.ToFloat64(SyncRuns.WithLabelValues(OutcomeFailure, "store")); got != failuresBefore+1 {
		t.Fatalf("expected failure counted, got %v", got)
	}

	RecordSync(OutcomeSuccess, "", time.Second, 3, 2, 1)
	if got := testutil.ToFloat64(RecordsWritten.WithLabelValues("insert")); got != insertsBefore+3 {
		t.Fatalf("expected 3 inserts counted, got %v", got-insertsBefore)
	}
	if testutil.ToFloat64(LastSyncTimestamp) == 0 {
		t.Fatalf("expected last success timestamp set")
	}
}
