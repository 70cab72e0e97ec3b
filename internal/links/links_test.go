package links_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/mithrel/notegraf-cli/internal/apitest"
	"github.com/mithrel/notegraf-cli/internal/client"
	"github.com/mithrel/notegraf-cli/internal/links"
	"github.com/mithrel/notegraf-cli/pkg/api"
)

func setup(t *testing.T, notes ...api.Note) (*apitest.Server, *client.Client) {
	t.Helper()
	srv := apitest.New(t, notes...)
	c, err := client.New(client.Options{BaseURL: srv.URL, Timeout: 2 * time.Second, Logger: zerolog.Nop()})
	require.NoError(t, err)
	return srv, c
}

func TestNothingFetchedUntilResolve(t *testing.T) {
	srv, c := setup(t, apitest.Chain("a", "b")...)
	l := links.New(c, []string{"b", "a"})

	assert.Equal(t, []string{"b", "a"}, l.Placeholder())
	assert.False(t, l.Resolved())
	assert.Zero(t, srv.Total())

	_, err := l.Resolve(context.Background())
	require.NoError(t, err)
	assert.True(t, l.Resolved())
	assert.Equal(t, 2, srv.Total())

	_, err = l.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, srv.Total(), "second Resolve is memoised")
}

func TestSortedByCollatedTitle(t *testing.T) {
	notes := []api.Note{
		{ID: "1", Title: "zebra"},
		{ID: "2", Title: "Éclair"},
		{ID: "3", Title: "apple"},
		{ID: "4", Title: "apple"},
	}
	_, c := setup(t, notes...)
	got, err := links.New(c, []string{"4", "1", "2", "3"}, links.WithLocale(language.French)).Resolve(context.Background())
	require.NoError(t, err)

	var order []string
	for _, l := range got {
		order = append(order, l.ID)
	}
	assert.Equal(t, []string{"3", "4", "2", "1"}, order)
}

func TestFailuresAreReportedPerItem(t *testing.T) {
	srv, c := setup(t, apitest.Chain("a", "b")...)
	srv.FailWith("/api/v1/note/b", http.StatusInternalServerError)

	got, err := links.New(c, []string{"a", "b", "gone"}).Resolve(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)

	byID := map[string]links.Link{}
	for _, l := range got {
		byID[l.ID] = l
	}
	assert.NoError(t, byID["a"].Err)
	assert.Equal(t, "Note a", byID["a"].Title)
	assert.Error(t, byID["b"].Err)
	assert.True(t, client.IsNotFound(byID["gone"].Err))
}

func TestTransitiveTitle(t *testing.T) {
	notes := apitest.Chain("head", "mid", "tail")
	notes[1].Title = ""
	notes[2].Title = ""
	notes[0].Title = "Chapter"
	_, c := setup(t, notes...)

	got, err := links.New(c, []string{"tail"}, links.WithTransitive()).Resolve(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "tail", got[0].ID)
	assert.Equal(t, "Chapter", got[0].Title)
	assert.True(t, got[0].Transitive)

	plain, err := links.New(c, []string{"tail"}).Resolve(context.Background())
	require.NoError(t, err)
	assert.Empty(t, plain[0].Title)
	assert.False(t, plain[0].Transitive)
}

func TestTransitiveWithoutTitledAncestor(t *testing.T) {
	notes := apitest.Chain("a", "b")
	notes[0].Title, notes[1].Title = "", ""
	_, c := setup(t, notes...)

	got, err := links.New(c, []string{"b"}, links.WithTransitive()).Resolve(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got[0].Title)
	assert.False(t, got[0].Transitive)
}

func TestCancelledResolveFails(t *testing.T) {
	srv, c := setup(t, apitest.Chain("a")...)
	srv.Delay("/api/v1/note/a", time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	l := links.New(c, []string{"a"})
	_, err := l.Resolve(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, l.Resolved())
}
