package update

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aigent47/grok-code/internal"
	"github.com/aigent47/grok-code/testutil"
)

func newTestChecker(t *testing.T, tag string, autoUpdate bool) (*Checker, *int) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"tag_name":"` + tag + `"}`))
	}))
	t.Cleanup(srv.Close)

	dir := testutil.CreateTempDir(t)
	installs := 0
	c := NewChecker(internal.NewPaths(dir, dir), "1.1.0", autoUpdate)
	c.ReleaseURL = srv.URL
	c.Now = func() time.Time { return time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC) }
	c.Install = func(ctx context.Context) error {
		installs++
		return nil
	}
	return c, &installs
}

func collect(notices *[]string) func(string) {
	return func(s string) { *notices = append(*notices, s) }
}

func TestChecker_Run_NewerWithAutoUpdate(t *testing.T) {
	c, installs := newTestChecker(t, "v1.2.0", true)

	var notices []string
	require.NoError(t, c.Run(context.Background(), collect(&notices)))

	assert.Equal(t, 1, *installs)
	require.Len(t, notices, 2)
	assert.Contains(t, notices[0], "1.1.0 -> 1.2.0")
	assert.Contains(t, notices[1], "Update successful")
	assert.True(t, c.Paths.HasMarker(LastCheckMarker))
}

func TestChecker_Run_NewerWithoutAutoUpdate(t *testing.T) {
	c, installs := newTestChecker(t, "1.2.0", false)

	var notices []string
	require.NoError(t, c.Run(context.Background(), collect(&notices)))

	assert.Equal(t, 0, *installs)
	require.Len(t, notices, 2)
	assert.Contains(t, notices[1], "go install")
}

func TestChecker_Run_UpToDate(t *testing.T) {
	c, installs := newTestChecker(t, "v1.1.0", true)

	var notices []string
	require.NoError(t, c.Run(context.Background(), collect(&notices)))
	assert.Empty(t, notices)
	assert.Equal(t, 0, *installs)
}

func TestChecker_Run_InstallFailure(t *testing.T) {
	c, _ := newTestChecker(t, "v2.0.0", true)
	c.Install = func(ctx context.Context) error { return errors.New("no go toolchain") }

	var notices []string
	err := c.Run(context.Background(), collect(&notices))
	assert.Error(t, err)
	assert.Contains(t, notices[len(notices)-1], "Auto-update failed")
}

func TestChecker_Due(t *testing.T) {
	c, _ := newTestChecker(t, "v1.0.0", false)
	marker := c.Paths.Marker(LastCheckMarker)

	assert.True(t, c.Due(), "no marker yet")

	require.NoError(t, os.WriteFile(marker, []byte(c.Now().Add(-time.Hour).Format(time.RFC3339)), 0644))
	assert.False(t, c.Due())

	require.NoError(t, os.WriteFile(marker, []byte(c.Now().Add(-25*time.Hour).Format(time.RFC3339)), 0644))
	assert.True(t, c.Due())

	require.NoError(t, os.WriteFile(marker, []byte("garbage"), 0644))
	assert.True(t, c.Due())
}

func TestChecker_Run_DevBuildSkipsLookup(t *testing.T) {
	c, _ := newTestChecker(t, "v9.9.9", true)
	c.Current = "dev"

	var notices []string
	assert.Error(t, c.Run(context.Background(), collect(&notices)))
	assert.Empty(t, notices)
}
