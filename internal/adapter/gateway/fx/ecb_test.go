package fx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"lending-backend/internal/infrastructure/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const daily = `<?xml version="1.0" encoding="UTF-8"?>
<gesmes:Envelope xmlns:gesmes="http://www.gesmes.org/xml/2002-08-01" xmlns="http://www.ecb.int/vocabulary/2002-08-01/eurofxref">
	<gesmes:subject>Reference rates</gesmes:subject>
	<Cube>
		<Cube time="2025-09-05">
			<Cube currency="USD" rate="1.1"/>
			<Cube currency="GBP" rate="0.88"/>
			<Cube currency="JPY" rate="160.5"/>
		</Cube>
	</Cube>
</gesmes:Envelope>`

func TestConvert(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(daily))
	}))
	defer srv.Close()
	e := NewECB(srv.URL, logger.Discard())
	ctx := context.Background()

	cases := []struct {
		amount, from, to, want string
	}{
		{"50", "EUR", "USD", "55"},
		{"55", "usd", "eur", "50"},
		{"110", "USD", "GBP", "88"},
		{"12.34", "USD", "USD", "12.34"},
	}
	for _, c := range cases {
		got, err := e.Convert(ctx, decimal.RequireFromString(c.amount), c.from, c.to)
		require.NoError(t, err, c)
		assert.True(t, got.Equal(decimal.RequireFromString(c.want)), "%s %s->%s = %s", c.amount, c.from, c.to, got)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "table is cached")

	_, err := e.Convert(ctx, decimal.NewFromInt(1), "USD", "XYZ")
	assert.Error(t, err)
}

func TestConvert_KeepsStaleRatesOnOutage(t *testing.T) {
	var down atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if down.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(daily))
	}))
	defer srv.Close()
	now := time.Date(2025, 9, 6, 10, 0, 0, 0, time.UTC)
	e := NewECB(srv.URL, logger.Discard())
	e.now = func() time.Time { return now }

	_, err := e.Convert(context.Background(), decimal.NewFromInt(10), "EUR", "USD")
	require.NoError(t, err)

	down.Store(true)
	now = now.Add(12 * time.Hour)
	got, err := e.Convert(context.Background(), decimal.NewFromInt(10), "EUR", "USD")
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(11)))
}

func TestParse_Empty(t *testing.T) {
	_, err := parse([]byte(`<Envelope><Cube/></Envelope>`))
	assert.Error(t, err)
	_, err = parse([]byte(`not xml <`))
	assert.Error(t, err)
}
