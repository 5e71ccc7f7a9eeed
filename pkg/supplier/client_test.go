package supplier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"xfollowers/pkg/config"
	errs "xfollowers/pkg/errors"
	"xfollowers/pkg/logger"
	"xfollowers/pkg/ratelimit"
)

type recordingObserver struct {
	mu       sync.Mutex
	statuses []int
}

func (r *recordingObserver) ObserveRequest(endpoint string, status int, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
}

func newTestClient(t *testing.T, name string, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.DefaultConfig().Supplier
	cfg.Name = name
	cfg.BaseURL = server.URL

	client, err := NewClient(&cfg, "secret", ratelimit.NewFixedDelay(0), logger.NewNopLogger())
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresKey(t *testing.T) {
	cfg := config.DefaultConfig().Supplier
	_, err := NewClient(&cfg, "", nil, nil)
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeConfig))

	cfg.Name = "other"
	_, err = NewClient(&cfg, "key", nil, nil)
	assert.True(t, errs.IsType(err, errs.ErrorTypeConfig))
}

func TestAuthHeadersPerSupplier(t *testing.T) {
	tests := []struct {
		supplier string
		want     map[string]string
		absent   string
	}{
		{config.SupplierRapidAPI, map[string]string{"X-RapidAPI-Key": "secret", "X-RapidAPI-Host": RapidAPIHost}, "X-JoJAPI-Key"},
		{config.SupplierJoJAPI, map[string]string{"X-JoJAPI-Key": "secret"}, "X-RapidAPI-Key"},
	}

	for _, tt := range tests {
		t.Run(tt.supplier, func(t *testing.T) {
			var got http.Header
			client := newTestClient(t, tt.supplier, func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Clone()
				w.Write([]byte(`{}`))
			})

			_, err := client.Send(context.Background(), FollowersEndpoint, nil)
			require.NoError(t, err)
			for k, v := range tt.want {
				assert.Equal(t, v, got.Get(k))
			}
			assert.Empty(t, got.Get(tt.absent))
			assert.Equal(t, tt.supplier, client.Name())
		})
	}
}

func TestSendClassifiesStatus(t *testing.T) {
	client := newTestClient(t, config.SupplierRapidAPI, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"message":"slow down"}`))
	})
	obs := &recordingObserver{}
	client.SetObserver(obs)

	_, err := client.Send(context.Background(), FollowersEndpoint, nil)
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeHTTPFailure))
	assert.Equal(t, http.StatusTooManyRequests, errs.StatusCode(err))
	assert.Contains(t, err.Error(), "slow down")
	assert.Equal(t, []int{429}, obs.statuses)
}

func TestSendUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	cfg := config.DefaultConfig().Supplier
	cfg.BaseURL = baseURL
	client, err := NewClient(&cfg, "secret", nil, logger.NewNopLogger())
	require.NoError(t, err)
	obs := &recordingObserver{}
	client.SetObserver(obs)

	_, err = client.Send(context.Background(), FollowersEndpoint, nil)
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeUnreachable))
	assert.Equal(t, []int{0}, obs.statuses)
}

func TestSendCancelledDuringDelay(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer server.Close()

	cfg := config.DefaultConfig().Supplier
	cfg.BaseURL = server.URL
	client, err := NewClient(&cfg, "secret", ratelimit.NewFixedDelay(time.Hour), logger.NewNopLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = client.Send(ctx, FollowersEndpoint, nil)
	assert.True(t, IsCancelled(err))
	assert.Equal(t, 0, hits)
}

func TestSendHonoursFixedDelay(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	cfg := config.DefaultConfig().Supplier
	cfg.BaseURL = server.URL
	client, err := NewClient(&cfg, "secret", ratelimit.NewFixedDelay(25*time.Millisecond), logger.NewNopLogger())
	require.NoError(t, err)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := client.Send(context.Background(), FollowersEndpoint, nil)
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 75*time.Millisecond)
}

func TestFetchFollowPage(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	client := newTestClient(t, config.SupplierRapidAPI, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		w.Write([]byte(`{
			"users": [
				{"id_str": "1", "screen_name": "alice", "protected": false, "followers_count": 10},
				{"id": 2, "name": "no handle"},
				{"id_str": "3", "screen_name": "carol", "protected": true}
			],
			"next_cursor_str": "1789"
		}`))
	})

	page, err := client.FetchFollowPage(context.Background(), RequestFollowing, "jack", 200, "abc")
	require.NoError(t, err)

	assert.Equal(t, "/"+FollowingEndpoint, gotPath)
	assert.Equal(t, []string{"jack"}, gotQuery["username"])
	assert.Equal(t, []string{"200"}, gotQuery["count"])
	assert.Equal(t, []string{"abc"}, gotQuery["cursor"])

	require.Len(t, page.Accounts, 2)
	assert.Equal(t, "alice", page.Accounts[0].ScreenName)
	assert.Equal(t, 10, page.Accounts[0].FollowersCount)
	assert.True(t, page.Accounts[1].Protected)
	assert.Len(t, page.Malformed, 1)
	assert.Equal(t, "1789", page.NextCursor)
	assert.False(t, page.Last())
}

func TestFetchFollowPageFirstPageHasNoCursor(t *testing.T) {
	client := newTestClient(t, config.SupplierRapidAPI, func(w http.ResponseWriter, r *http.Request) {
		_, present := r.URL.Query()["cursor"]
		assert.False(t, present)
		w.Write([]byte(`{"users": [], "next_cursor_str": "0"}`))
	})

	page, err := client.FetchFollowPage(context.Background(), RequestFollowers, "jack", 0, "")
	require.NoError(t, err)
	assert.True(t, page.Last())
	assert.Empty(t, page.Accounts)
}

func TestFetchFollowPageMalformed(t *testing.T) {
	client := newTestClient(t, config.SupplierRapidAPI, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message": "quota exceeded"}`))
	})

	_, err := client.FetchFollowPage(context.Background(), RequestFollowers, "jack", 200, "")
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeMalformedRecord))
}

func TestFetchUsersByIDs(t *testing.T) {
	var gotIDs string
	client := newTestClient(t, config.SupplierJoJAPI, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/"+UsersByRestIDsEndpoint, r.URL.Path)
		gotIDs = r.URL.Query().Get("ids")
		w.Write([]byte(`{"data": {"users": [
			{"result": {"rest_id": "1", "is_blue_verified": true, "legacy": {"location": "Paris"}}},
			{"result": {"rest_id": "2"}},
			{}
		]}}`))
	})

	details, err := client.FetchUsersByIDs(context.Background(), []string{"1", "2", "3"})
	require.NoError(t, err)

	assert.Equal(t, "1,2,3", gotIDs)
	require.Len(t, details, 3)
	require.NotNil(t, details[0].IsBlueVerified)
	assert.True(t, *details[0].IsBlueVerified)
	assert.Equal(t, "Paris", details[0].Legacy["location"])
	assert.Nil(t, details[1].IsBlueVerified)
	assert.Nil(t, details[2])
}

func TestFetchUsersByIDsMistypedEntry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"users": [
			{"result": {"rest_id": "1", "is_blue_verified": true}},
			{"result": {"rest_id": "2", "is_blue_verified": "false"}},
			{"result": {"rest_id": "3", "is_blue_verified": false}}
		]}}`))
	}))
	defer server.Close()

	cfg := config.DefaultConfig().Supplier
	cfg.BaseURL = server.URL
	log := logger.NewTestLogger()
	client, err := NewClient(&cfg, "secret", ratelimit.NewFixedDelay(0), log)
	require.NoError(t, err)

	details, err := client.FetchUsersByIDs(context.Background(), []string{"1", "2", "3"})
	require.NoError(t, err)
	require.Len(t, details, 3)

	flags := make(map[string]bool)
	for _, d := range details {
		require.NotNil(t, d)
		require.NotNil(t, d.IsBlueVerified)
		flags[d.RestID] = *d.IsBlueVerified
	}
	assert.Equal(t, map[string]bool{"1": true, "2": false, "3": false}, flags)
	assert.True(t, log.HasMessage("Malformed detail record"))
}

func TestFetchUsersByIDsInvalidJSON(t *testing.T) {
	client := newTestClient(t, config.SupplierRapidAPI, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>gateway</html>`))
	})

	_, err := client.FetchUsersByIDs(context.Background(), []string{"1"})
	assert.True(t, errs.IsType(err, errs.ErrorTypeMalformedRecord))
}

func TestLookupUserID(t *testing.T) {
	client := newTestClient(t, config.SupplierRapidAPI, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/"+UserByScreenNameEndpoint, r.URL.Path)
		if r.URL.Query().Get("username") == "jack" {
			w.Write([]byte(`{"data": {"user": {"result": {"rest_id": "12"}}}}`))
			return
		}
		w.Write([]byte(`{"data": {"user": {}}}`))
	})

	id, err := client.LookupUserID(context.Background(), "jack")
	require.NoError(t, err)
	assert.Equal(t, "12", id)

	_, err = client.LookupUserID(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeMissingField))
}
