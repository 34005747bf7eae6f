package entries

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/spanner"
	"github.com/dmitrijs2005/kvstore/internal/common"
	"github.com/dmitrijs2005/kvstore/internal/logging"
	"github.com/dmitrijs2005/kvstore/internal/server/models"
	"github.com/dmitrijs2005/kvstore/internal/server/provision"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newEmulatorRepo provisions a scratch database on the emulator named by
// SPANNER_EMULATOR_HOST and empties kv_store.
func newEmulatorRepo(t *testing.T) *SpannerRepository {
	t.Helper()
	if os.Getenv("SPANNER_EMULATOR_HOST") == "" {
		t.Skip("SPANNER_EMULATOR_HOST not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	target := provision.SpannerTarget{Project: "test-project", Instance: "test-instance", Database: "kvstore-test", Emulator: true}

	admin, err := provision.NewGoogleSpannerAdmin(ctx)
	require.NoError(t, err)
	require.NoError(t, provision.Spanner(ctx, admin, target, logging.Nop{}))
	require.NoError(t, admin.Close())

	client, err := spanner.NewClient(context.Background(), target.DatabasePath())
	require.NoError(t, err)
	t.Cleanup(client.Close)

	_, err = client.Apply(ctx, []*spanner.Mutation{spanner.Delete("kv_store", spanner.AllKeys())})
	require.NoError(t, err)

	return NewSpannerRepository(client)
}

func TestSpanner_RoundTripAndNotFound(t *testing.T) {
	repo := newEmulatorRepo(t)
	ctx := context.Background()

	id := uuid.New()
	require.NoError(t, repo.Upsert(ctx, id, json.RawMessage(`{"a":[1,2,{"b":null}]}`)))

	got, err := repo.Read(ctx, id)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":[1,2,{"b":null}]}`, string(got))

	_, err = repo.Read(ctx, uuid.New())
	assert.ErrorIs(t, err, common.ErrorNotFound)

	assert.NoError(t, repo.HealthCheck(ctx))
}

func TestSpanner_ListSortAndPrefix(t *testing.T) {
	repo := newEmulatorRepo(t)
	ctx := context.Background()

	ids := []string{
		"aaaaaaaa-0000-0000-0000-000000000001",
		"aaaaaaaa-0000-0000-0000-000000000002",
		"bbbbbbbb-0000-0000-0000-000000000003",
	}
	for _, s := range ids {
		require.NoError(t, repo.Upsert(ctx, uuid.MustParse(s), json.RawMessage(`{}`)))
	}

	res, err := repo.ListAll(ctx, models.ListOptions{Sort: models.SortKeyDesc})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.TotalCount)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, keys(res.Entries))

	prefix := "aaaaaaaa"
	limit := int64(1)
	res, err = repo.ListAll(ctx, models.ListOptions{Sort: models.SortKeyAsc, Prefix: &prefix, Limit: &limit})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.TotalCount)
	assert.Equal(t, []string{ids[0]}, keys(res.Entries))
}
