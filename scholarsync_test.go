package scholarsync_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarsync/scholarsync"
	"github.com/scholarsync/scholarsync/internal/feeds"
	"github.com/scholarsync/scholarsync/internal/store/memory"
	"github.com/scholarsync/scholarsync/pkg/entities"
)

func TestNewDefaultsToMemoryStore(t *testing.T) {
	client, err := scholarsync.New()
	require.NoError(t, err)
	defer client.Close()

	assert.NotNil(t, client.Store())
	assert.NotNil(t, client.Engine())
}

func TestOptionConflicts(t *testing.T) {
	_, err := scholarsync.New(
		scholarsync.WithStore(memory.New()),
		scholarsync.WithDatabasePath("x.db"),
	)
	assert.Error(t, err)

	_, err = scholarsync.New(scholarsync.WithDatabasePath(""))
	assert.Error(t, err)
}

func TestImportAgainstProvidedStore(t *testing.T) {
	store := memory.New()
	client, err := scholarsync.New(scholarsync.WithStore(store))
	require.NoError(t, err)
	defer client.Close()

	csv := "id,webaccess_id,first_name,last_name\n1,al1,Ada,Lovelace\n"
	src := feeds.NewCSVSource("people.csv", strings.NewReader(csv))

	report, err := client.Import(context.Background(), src, entities.KindPerson, "activity-insight")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)

	p, err := store.PersonByWebAccessID("al1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", p.FirstName)
}

func TestImportFileDetectsFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "people.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(
		`{"id":"1","webaccess_id":"al1","first_name":"Ada","last_name":"Lovelace"}`+"\n"), 0o644))

	client, err := scholarsync.New()
	require.NoError(t, err)
	defer client.Close()

	report, err := client.ImportFile(context.Background(), path, entities.KindPerson, "pure")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)
}
