// ABOUTME: Tests for the Status snapshot
// ABOUTME: Verifies JSON rendering before and after the first enrichment cycle
package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestStatus_LastProcessedTimeJSON(t *testing.T) {
	st := Status{SessionID: "s1", State: StateIdle}

	data, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	if strings.Contains(string(data), "last_processed_time") {
		t.Errorf("unset last_processed_time should be omitted: %s", data)
	}
	if !st.LastProcessed().IsZero() {
		t.Errorf("LastProcessed() = %v, want zero time", st.LastProcessed())
	}

	done := time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC)
	st.LastProcessedTime = &done

	data, err = json.Marshal(st)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	if !strings.Contains(string(data), `"last_processed_time":"2026-03-04T10:30:00Z"`) {
		t.Errorf("last_processed_time missing from %s", data)
	}
	if !st.LastProcessed().Equal(done) {
		t.Errorf("LastProcessed() = %v, want %v", st.LastProcessed(), done)
	}
}
