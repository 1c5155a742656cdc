package instrumentation

import (
	"context"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newManualMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}
	return m, reader
}

// counterTotal sums every data point of the named Int64 counter.
func counterTotal(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("%s is %T, want Sum[int64]", name, m.Data)
			}
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestMetrics_Counters(t *testing.T) {
	ctx := context.Background()
	m, reader := newManualMetrics(t)

	m.RecordToolInvocation(ctx, "list_meetings", OperationList, StatusSuccess, 10*time.Millisecond)
	m.RecordToolInvocation(ctx, "delete_meeting", OperationDelete, StatusError, 5*time.Millisecond)
	m.RecordGoogleAPIOperation(ctx, ServiceCalendar, "events.list", StatusSuccess, 100*time.Millisecond)
	m.RecordOAuthAuth(ctx, OAuthResultSuccess)
	m.RecordOAuthTokenRefresh(ctx, OAuthResultFailure)
	m.RecordOAuthTokenRefresh(ctx, OAuthResultSuccess)
	m.RecordHTTPRequest(ctx, "POST", "/mcp", 200, time.Millisecond)

	tests := []struct {
		name string
		want int64
	}{
		{"mcp_tool_invocations_total", 2},
		{"google_api_operations_total", 1},
		{"oauth_auth_total", 1},
		{"oauth_token_refresh_total", 2},
		{"http_requests_total", 1},
	}
	for _, tt := range tests {
		if got := counterTotal(t, reader, tt.name); got != tt.want {
			t.Errorf("%s = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestMetrics_ZeroValueIsNoop(t *testing.T) {
	ctx := context.Background()

	for _, m := range []*Metrics{{}, nil} {
		m.RecordToolInvocation(ctx, "list_meetings", OperationList, StatusSuccess, time.Millisecond)
		m.RecordGoogleAPIOperation(ctx, ServiceCalendar, "events.insert", StatusError, time.Millisecond)
		m.RecordOAuthAuth(ctx, OAuthResultFailure)
		m.RecordOAuthTokenRefresh(ctx, OAuthResultSuccess)
		m.RecordHTTPRequest(ctx, "GET", "/healthz", 200, time.Millisecond)
	}
}
