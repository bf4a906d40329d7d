package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDeduperMarksSecondDeliveryAsSeen(t *testing.T) {
	d := newMemoryEventDeduper(time.Minute)

	seen, err := d.Seen(context.Background(), "evt_1")
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = d.Seen(context.Background(), "evt_1")
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = d.Seen(context.Background(), "evt_2")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestMemoryDeduperExpiry(t *testing.T) {
	d := newMemoryEventDeduper(time.Millisecond)

	_, err := d.Seen(context.Background(), "evt_1")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	seen, err := d.Seen(context.Background(), "evt_1")
	require.NoError(t, err)
	assert.False(t, seen, "an expired event id is processable again")
}

func TestNewEventDeduperWithoutRedisAddr(t *testing.T) {
	d, err := NewEventDeduper("", "", 0, time.Minute)
	require.NoError(t, err)
	require.NotNil(t, d)

	_, ok := d.(*memoryEventDeduper)
	assert.True(t, ok)
}

func dedupTestServer(deduper EventDeduper, handled *int) *echo.Echo {
	e := echo.New()
	e.POST("/webhook", func(c echo.Context) error {
		*handled++
		return c.JSON(http.StatusOK, map[string]string{"status": "processed"})
	}, WebhookDedup(deduper))
	return e
}

func postWebhook(e *echo.Echo, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestWebhookDedupDropsDuplicate(t *testing.T) {
	handled := 0
	e := dedupTestServer(newMemoryEventDeduper(time.Minute), &handled)

	rec := postWebhook(e, `{"event_id": "evt_1", "order_number": "ORD1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, handled)

	rec = postWebhook(e, `{"event_id": "evt_1", "order_number": "ORD1"}`)
	assert.Equal(t, http.StatusOK, rec.Code, "duplicates get 2xx so the provider stops redelivering")
	assert.Contains(t, rec.Body.String(), "duplicate")
	assert.Equal(t, 1, handled, "the handler must not reprocess a duplicate")
}

func TestWebhookDedupPassesThroughWithoutEventID(t *testing.T) {
	handled := 0
	e := dedupTestServer(newMemoryEventDeduper(time.Minute), &handled)

	postWebhook(e, `{"order_number": "ORD1"}`)
	postWebhook(e, `{"order_number": "ORD1"}`)

	assert.Equal(t, 2, handled)
}

func TestWebhookDedupPreservesBodyForHandler(t *testing.T) {
	e := echo.New()
	var got string
	e.POST("/webhook", func(c echo.Context) error {
		var payload struct {
			EventID string `json:"event_id"`
		}
		if err := c.Bind(&payload); err != nil {
			return err
		}
		got = payload.EventID
		return c.NoContent(http.StatusOK)
	}, WebhookDedup(newMemoryEventDeduper(time.Minute)))

	postWebhook(e, `{"event_id": "evt_7"}`)
	assert.Equal(t, "evt_7", got, "the middleware must rewind the body it read")
}

func TestWebhookDedupNilDeduper(t *testing.T) {
	handled := 0
	e := dedupTestServer(nil, &handled)

	rec := postWebhook(e, `{"event_id": "evt_1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, handled)
}
