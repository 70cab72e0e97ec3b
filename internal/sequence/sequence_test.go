package sequence_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/notegraf-cli/internal/apitest"
	"github.com/mithrel/notegraf-cli/internal/client"
	"github.com/mithrel/notegraf-cli/internal/sequence"
	"github.com/mithrel/notegraf-cli/pkg/api"
)

func setup(t *testing.T, notes ...api.Note) (*apitest.Server, *client.Client) {
	t.Helper()
	srv := apitest.New(t, notes...)
	c, err := client.New(client.Options{BaseURL: srv.URL, Timeout: 2 * time.Second, Logger: zerolog.Nop()})
	require.NoError(t, err)
	return srv, c
}

func ids(ns []api.Note) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.ID
	}
	return out
}

func TestNonRecursiveIsAnchorOnly(t *testing.T) {
	srv, c := setup(t, apitest.Chain("a", "b", "c")...)
	got, err := sequence.Resolve(context.Background(), c, "b", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids(got))
	assert.Equal(t, 1, srv.Total())
}

func TestRecursiveTwoNoteChain(t *testing.T) {
	_, c := setup(t, apitest.Chain("n0", "n1")...)
	got, err := sequence.Resolve(context.Background(), c, "n1", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"n0", "n1"}, ids(got))
}

func TestRecursiveSameFromAnyAnchor(t *testing.T) {
	_, c := setup(t, apitest.Chain("a", "b", "c", "d")...)
	for _, anchor := range []string{"a", "b", "c", "d"} {
		got, err := sequence.Resolve(context.Background(), c, anchor, true)
		require.NoError(t, err, anchor)
		assert.Equal(t, []string{"a", "b", "c", "d"}, ids(got), anchor)
	}
}

func TestHeadNeverFetchesPrev(t *testing.T) {
	srv, c := setup(t, apitest.Chain("a", "b")...)
	_, err := sequence.Resolve(context.Background(), c, "a", true)
	require.NoError(t, err)
	assert.Equal(t, 1, srv.Hits("/api/v1/note/a"))
	assert.Equal(t, 1, srv.Hits("/api/v1/note/b"))
	assert.Equal(t, 2, srv.Total())
}

func TestFailureAbortsWholeWalk(t *testing.T) {
	srv, c := setup(t, apitest.Chain("a", "b", "c")...)
	srv.FailWith("/api/v1/note/c", http.StatusBadGateway)

	got, err := sequence.Resolve(context.Background(), c, "a", true)
	assert.Nil(t, got)
	var fe *client.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusBadGateway, fe.StatusCode)
}

func TestCycleIsReported(t *testing.T) {
	notes := apitest.Chain("a", "b")
	notes[1].Next = api.StrPtr("a")
	notes[0].Prev = api.StrPtr("b")
	_, c := setup(t, notes...)

	_, err := sequence.Resolve(context.Background(), c, "a", true)
	assert.ErrorIs(t, err, sequence.ErrCycle)
}

func TestCancelledContextStopsWalk(t *testing.T) {
	_, c := setup(t, apitest.Chain("a", "b")...)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := sequence.Resolve(ctx, c, "a", true)
	assert.Error(t, err)
}
