package registry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

type recordingBus struct {
	published []Event
	err       error
}

func (b *recordingBus) Publish(_ context.Context, ev Event) error {
	if b.err != nil {
		return b.err
	}
	b.published = append(b.published, ev)
	return nil
}

func (b *recordingBus) Listen(context.Context, func(context.Context, Event) error) error { return nil }

func newRouter(c *Cache, bus EventBus) *gin.Engine {
	r := gin.New()
	allow := func(c *gin.Context) { c.Next() }
	NewHandler(c, bus, nil).RegisterRoutes(r.Group(""), allow)
	return r
}

func doRequest(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestListFieldsEmptyRegistry(t *testing.T) {
	r := newRouter(NewCache(&fakeStore{}, nil), nil)
	w := doRequest(r, http.MethodGet, "/fields", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"no_fields"`)
}

func TestListFieldsIsStableAcrossCalls(t *testing.T) {
	c := NewCache(&fakeStore{rows: sampleRows()}, nil)
	_, err := c.Refresh(context.Background())
	require.NoError(t, err)
	r := newRouter(c, nil)

	first := doRequest(r, http.MethodGet, "/fields", "")
	second := doRequest(r, http.MethodGet, "/fields", "")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, first.Body.Bytes(), second.Body.Bytes())
	assert.True(t, strings.HasPrefix(first.Body.String(), `[{"id":2,`))
}

func TestFieldEventRefreshesLocallyWithoutBus(t *testing.T) {
	store := &fakeStore{rows: sampleRows()}
	c := NewCache(store, nil)
	r := newRouter(c, nil)

	w := doRequest(r, http.MethodPost, "/fields/events", `{"type":"field_saved","field_id":7}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, c.Snapshot().Len())

	w = doRequest(r, http.MethodPost, "/fields/events", `{"type":"bogus"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFieldEventBroadcastsThroughBus(t *testing.T) {
	store := &fakeStore{rows: sampleRows()}
	bus := &recordingBus{}
	c := NewCache(store, nil)
	r := newRouter(c, bus)

	w := doRequest(r, http.MethodPost, "/fields/events", `{"type":"field_deleted","field_id":2}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []Event{{Type: EventFieldDeleted, FieldID: 2}}, bus.published)
	assert.Equal(t, 0, store.calls)

	bus.err = errors.New("redis down")
	w = doRequest(r, http.MethodPost, "/fields/events", `{"type":"field_saved","field_id":2}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, store.calls)
}
