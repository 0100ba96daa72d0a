package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandlerServesRegisteredInstruments(t *testing.T) {
	r := New()
	r.OrdersProcessed.WithLabelValues("1", "new").Inc()
	r.PublisherSeqNum.Set(42)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "tradsys_orders_processed_total") {
		t.Fatalf("expected orders_processed metric in output:\n%s", body)
	}
	if !strings.Contains(body, "tradsys_publisher_seq_num 42") {
		t.Fatalf("expected publisher_seq_num=42 in output:\n%s", body)
	}
}
