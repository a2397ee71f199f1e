package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/backlog/internal/store"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// isolate points HOME at an empty directory so no user config is read.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("BACKLOG_SELF_NICK", "")
}

// runCLI executes the root command and captures its output.
func runCLI(t *testing.T, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = Execute(context.Background(), args, &out, &errOut)
	return out.String(), errOut.String(), code
}

// seedLog writes a small conversation in #go and a query with bob.
func seedLog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "log.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	entries := []store.Entry{
		{Time: t0, Who: store.Other("bob"), Where: "#go", Message: "hello gophers"},
		{Time: t0.Add(time.Minute), Who: store.Own(), Where: "#go", Message: "hi bob"},
		{Time: t0.Add(2 * time.Minute), Who: store.Other("alice"), Where: "#go", Message: "deploys", Type: "ACTION"},
		{Time: t0.Add(3 * time.Minute), Who: store.Other("bob"), Where: "bob", Message: "psst"},
	}
	for _, e := range entries {
		require.NoError(t, st.Append(ctx, e))
	}
	return path
}

func decodeResponse[T any](t *testing.T, raw string) (string, T, *CLIError) {
	t.Helper()
	var resp struct {
		Status string    `json:"status"`
		Data   T         `json:"data"`
		Error  *CLIError `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &resp), raw)
	return resp.Status, resp.Data, resp.Error
}
