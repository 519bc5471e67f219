package objectstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestKey(t *testing.T) {
	require.Equal(t, "incoming/events_2022-08-27.json", Key("incoming", "events_2022-08-27.json"))
	require.Equal(t, "analytics/query_a.csv", Key("/analytics/", "query_a.csv"))
	require.Equal(t, "query_a.csv", Key("", "query_a.csv"))
}

// DirStoreTestSuite exercises the local directory bucket.
type DirStoreTestSuite struct {
	suite.Suite
	baseDir string
	store   *DirStore
}

func (s *DirStoreTestSuite) SetupTest() {
	baseDir, err := os.MkdirTemp("", "dirstore-test-*")
	require.NoError(s.T(), err)
	s.baseDir = baseDir

	store, err := NewDir(filepath.Join(baseDir, "bucket"))
	require.NoError(s.T(), err)
	require.NoError(s.T(), store.Ensure(context.Background(), "incoming", "analytics"))
	s.store = store
}

func (s *DirStoreTestSuite) TearDownTest() {
	require.NoError(s.T(), os.RemoveAll(s.baseDir), "should be able to clean up temp dir")
}

func TestDirStoreSuite(t *testing.T) {
	suite.Run(t, new(DirStoreTestSuite))
}

func (s *DirStoreTestSuite) writeLocal(name, content string) string {
	p := filepath.Join(s.baseDir, name)
	require.NoError(s.T(), os.WriteFile(p, []byte(content), 0644))
	return p
}

func (s *DirStoreTestSuite) TestEnsureCreatesPrefixes() {
	for _, p := range []string{"incoming", "analytics"} {
		info, err := os.Stat(filepath.Join(s.baseDir, "bucket", p))
		require.NoError(s.T(), err)
		require.True(s.T(), info.IsDir())
	}
}

func (s *DirStoreTestSuite) TestUploadOverwrites() {
	ctx := context.Background()
	key := Key("incoming", "events_2022-08-27.json")

	exists, err := s.store.Exists(ctx, key)
	require.NoError(s.T(), err)
	require.False(s.T(), exists)

	require.NoError(s.T(), s.store.Upload(ctx, key, s.writeLocal("first.json", "{\"a\":1}\n"), nil))
	require.NoError(s.T(), s.store.Upload(ctx, key, s.writeLocal("second.json", "{\"a\":2}\n"), map[string]string{"run_id": "x"}))

	exists, err = s.store.Exists(ctx, key)
	require.NoError(s.T(), err)
	require.True(s.T(), exists)

	data, err := os.ReadFile(s.store.URI(key))
	require.NoError(s.T(), err)
	require.Equal(s.T(), "{\"a\":2}\n", string(data), "second upload should replace the first")

	entries, err := os.ReadDir(filepath.Join(s.baseDir, "bucket", "incoming"))
	require.NoError(s.T(), err)
	require.Len(s.T(), entries, 1, "no temporary files should be left behind")
}

func (s *DirStoreTestSuite) TestUploadMissingSource() {
	err := s.store.Upload(context.Background(), "incoming/x.json", filepath.Join(s.baseDir, "missing.json"), nil)
	require.Error(s.T(), err)
}

func (s *DirStoreTestSuite) TestURIIsAbsolute() {
	uri := s.store.URI("incoming/apifootball_get_events_*")
	require.True(s.T(), filepath.IsAbs(uri))
	require.True(s.T(), strings.HasSuffix(uri, filepath.Join("incoming", "apifootball_get_events_*")))
}

func TestMinioURI(t *testing.T) {
	store, err := NewMinio(S3Options{Endpoint: "localhost:9000", Bucket: "football-files", Region: "us-east-1"})
	require.NoError(t, err)
	require.Equal(t, "s3://football-files/incoming/apifootball_get_events_*", store.URI("incoming/apifootball_get_events_*"))
}

func TestMinioRequiresBucket(t *testing.T) {
	_, err := NewMinio(S3Options{Endpoint: "localhost:9000"})
	require.Error(t, err)
}

func TestMinioExists(t *testing.T) {
	testCases := []struct {
		name        string
		status      int
		expectError bool
	}{
		{name: "missing object", status: http.StatusNotFound, expectError: false},
		{name: "access denied", status: http.StatusForbidden, expectError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			store, err := NewMinio(S3Options{
				Endpoint: strings.TrimPrefix(srv.URL, "http://"),
				Bucket:   "football-files",
				Region:   "us-east-1",
			})
			require.NoError(t, err)

			exists, err := store.Exists(context.Background(), "incoming/none.json")
			require.False(t, exists)
			if tc.expectError {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
