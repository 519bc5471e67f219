package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFetchEventsQueryParameters(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"match_id":"1"},{"match_id":"2"}]`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/?action=get_events", "secret", time.Second)
	records, err := c.FetchEvents(context.Background(), "2022-08-27")
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.JSONEq(t, `{"match_id":"1"}`, string(records[0]))
	require.JSONEq(t, `{"match_id":"2"}`, string(records[1]))

	require.NotNil(t, got)
	require.Equal(t, http.MethodGet, got.Method)
	q := got.URL.Query()
	require.Equal(t, "get_events", q.Get("action"))
	require.Equal(t, "2022-08-27", q.Get("from"))
	require.Equal(t, "2022-08-27", q.Get("to"))
	require.Equal(t, "secret", q.Get("APIkey"))
	require.Equal(t, UserAgent, got.Header.Get("User-Agent"))
}

func TestFetchEventsPayloadShapes(t *testing.T) {
	testCases := []struct {
		name     string
		body     string
		expected []string
	}{
		{name: "empty list", body: `[]`, expected: []string{}},
		{name: "error payload", body: `{"error":404,"message":"No event found"}`, expected: []string{`{"error":404,"message":"No event found"}`}},
		{name: "surrounding whitespace", body: "\n [ {\"a\":1} ]\n", expected: []string{`{"a":1}`}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			records, err := New(srv.URL, "k", time.Second).FetchEvents(context.Background(), "2022-08-27")
			require.NoError(t, err)
			require.Len(t, records, len(tc.expected))
			for i := range tc.expected {
				require.JSONEq(t, tc.expected[i], string(records[i]))
			}
		})
	}
}

func TestFetchEventsFailures(t *testing.T) {
	t.Run("non 2xx status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := New(srv.URL, "k", time.Second).FetchEvents(context.Background(), "2022-08-27")
		var statusErr *StatusError
		require.True(t, errors.As(err, &statusErr))
		require.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
		require.Equal(t, "2022-08-27", statusErr.Date)
	})

	t.Run("malformed json", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[{"match_id":`))
		}))
		defer srv.Close()

		_, err := New(srv.URL, "k", time.Second).FetchEvents(context.Background(), "2022-08-27")
		require.Error(t, err)
	})

	t.Run("unreachable host", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := New(url, "k", time.Second).FetchEvents(context.Background(), "2022-08-27")
		require.Error(t, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[]`))
		}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := New(srv.URL, "k", time.Second).FetchEvents(ctx, "2022-08-27")
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestNewDefaultsURL(t *testing.T) {
	c := New("", "k", time.Second)
	require.Equal(t, DefaultURL, c.baseURL)
}
