package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/jobquest/jobquest/internal/auth"
	"github.com/jobquest/jobquest/internal/metrics"
	"github.com/jobquest/jobquest/internal/model"
	"github.com/jobquest/jobquest/internal/testutil"
	"github.com/jobquest/jobquest/internal/testutil/fakes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobGet(t *testing.T) {
	store := fakes.NewMemStore()
	job := seedJob(t, store, "a@x.com", 0)
	svc := NewJobService(store, nil, true)

	tests := []struct {
		name    string
		id      string
		wantErr error
	}{
		{"found", job.ID, nil},
		{"uppercase_found", upper(job.ID), nil},
		{"invalid", "xyz", ErrInvalidID},
		{"missing", model.NewID(), ErrJobNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Get(context.Background(), tt.id)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, job.ID, got.ID)
		})
	}
}

func TestJobListByOwner(t *testing.T) {
	store := fakes.NewMemStore()
	mine := seedJob(t, store, "a@x.com", 0)
	seedJob(t, store, "b@x.com", 0)
	svc := NewJobService(store, nil, true)

	ctx := auth.ContextWithIdentity(context.Background(), "a@x.com")
	jobs, err := svc.ListByOwner(ctx, "a@x.com")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, mine.ID, jobs[0].ID)

	_, err = svc.ListByOwner(ctx, "b@x.com")
	assert.ErrorIs(t, err, auth.ErrForbidden)
}

func TestJobCreate(t *testing.T) {
	rec := metrics.NewInMemory()

	t.Run("strict_owner", func(t *testing.T) {
		svc := NewJobService(fakes.NewMemStore(), rec, true)
		ctx := auth.ContextWithIdentity(context.Background(), "a@x.com")

		res, err := svc.Create(ctx, testutil.NewTestJob(t, "a@x.com"))
		require.NoError(t, err)
		assert.True(t, model.IsValidID(res.InsertedID))
	})

	t.Run("strict_other_poster", func(t *testing.T) {
		svc := NewJobService(fakes.NewMemStore(), rec, true)
		ctx := auth.ContextWithIdentity(context.Background(), "a@x.com")

		_, err := svc.Create(ctx, testutil.NewTestJob(t, "b@x.com"))
		assert.ErrorIs(t, err, auth.ErrForbidden)
	})

	t.Run("compat_anonymous", func(t *testing.T) {
		svc := NewJobService(fakes.NewMemStore(), rec, false)

		_, err := svc.Create(context.Background(), &model.Job{})
		assert.NoError(t, err)
	})

	assert.Equal(t, uint64(2), rec.Snapshot().JobsCreated)
}

func TestJobDelete(t *testing.T) {
	t.Run("missing_is_zero", func(t *testing.T) {
		svc := NewJobService(fakes.NewMemStore(), nil, true)
		ctx := auth.ContextWithIdentity(context.Background(), "a@x.com")

		res, err := svc.Delete(ctx, model.NewID())
		require.NoError(t, err)
		assert.True(t, res.Acknowledged)
		assert.Equal(t, int64(0), res.DeletedCount)
	})

	t.Run("invalid_id", func(t *testing.T) {
		svc := NewJobService(fakes.NewMemStore(), nil, false)

		_, err := svc.Delete(context.Background(), "nope")
		assert.ErrorIs(t, err, ErrInvalidID)
	})

	t.Run("strict_non_owner", func(t *testing.T) {
		store := fakes.NewMemStore()
		job := seedJob(t, store, "a@x.com", 0)
		svc := NewJobService(store, nil, true)
		ctx := auth.ContextWithIdentity(context.Background(), "b@x.com")

		_, err := svc.Delete(ctx, job.ID)
		assert.ErrorIs(t, err, auth.ErrForbidden)
		_, err = store.GetJobByID(ctx, job.ID)
		assert.NoError(t, err, "job must survive a forbidden delete")
	})

	t.Run("strict_owner", func(t *testing.T) {
		store := fakes.NewMemStore()
		job := seedJob(t, store, "a@x.com", 0)
		svc := NewJobService(store, nil, true)
		ctx := auth.ContextWithIdentity(context.Background(), "a@x.com")

		res, err := svc.Delete(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.DeletedCount)
	})

	t.Run("compat_anyone", func(t *testing.T) {
		store := fakes.NewMemStore()
		job := seedJob(t, store, "a@x.com", 0)
		svc := NewJobService(store, nil, false)

		res, err := svc.Delete(context.Background(), job.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.DeletedCount)
	})
}

func TestJobUpsert(t *testing.T) {
	fields := model.JobFields{JobTitle: json.RawMessage(`"Staff Engineer"`)}

	t.Run("creates_missing", func(t *testing.T) {
		svc := NewJobService(fakes.NewMemStore(), nil, true)
		ctx := auth.ContextWithIdentity(context.Background(), "a@x.com")
		id := model.NewID()

		res, err := svc.Upsert(ctx, id, fields)
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.UpsertedCount)
		require.NotNil(t, res.UpsertedID)
		assert.Equal(t, id, *res.UpsertedID)
	})

	t.Run("strict_non_owner", func(t *testing.T) {
		store := fakes.NewMemStore()
		job := seedJob(t, store, "a@x.com", 0)
		svc := NewJobService(store, nil, true)
		ctx := auth.ContextWithIdentity(context.Background(), "b@x.com")

		_, err := svc.Upsert(ctx, job.ID, fields)
		assert.ErrorIs(t, err, auth.ErrForbidden)
		stored := store.Job(job.ID)
		assert.JSONEq(t, `"Backend Engineer"`, string(stored.Field("job_title")))
	})

	t.Run("strict_owner", func(t *testing.T) {
		store := fakes.NewMemStore()
		job := seedJob(t, store, "a@x.com", 0)
		svc := NewJobService(store, nil, true)
		ctx := auth.ContextWithIdentity(context.Background(), "a@x.com")

		res, err := svc.Upsert(ctx, job.ID, fields)
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.MatchedCount)
		stored := store.Job(job.ID)
		assert.JSONEq(t, `"Staff Engineer"`, string(stored.Field("job_title")))
		assert.Equal(t, "a@x.com", stored.OwnerEmail(), "an update must not change the poster")
	})

	t.Run("strict_creator_keeps_control", func(t *testing.T) {
		store := fakes.NewMemStore()
		svc := NewJobService(store, nil, true)
		creator := auth.ContextWithIdentity(context.Background(), "a@x.com")
		other := auth.ContextWithIdentity(context.Background(), "b@x.com")
		id := model.NewID()

		_, err := svc.Upsert(creator, id, fields)
		require.NoError(t, err)
		stored := store.Job(id)
		assert.Equal(t, "a@x.com", stored.OwnerEmail())

		_, err = svc.Upsert(other, id, fields)
		assert.ErrorIs(t, err, auth.ErrForbidden)

		res, err := svc.Upsert(creator, id, model.JobFields{JobTitle: json.RawMessage(`"Lead"`)})
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.MatchedCount)

		del, err := svc.Delete(creator, id)
		require.NoError(t, err)
		assert.Equal(t, int64(1), del.DeletedCount)
	})

	t.Run("compat_insert_has_no_poster", func(t *testing.T) {
		store := fakes.NewMemStore()
		svc := NewJobService(store, nil, false)
		id := model.NewID()

		_, err := svc.Upsert(context.Background(), id, fields)
		require.NoError(t, err)
		stored := store.Job(id)
		assert.Nil(t, stored.Field("posted_by"))
	})

	t.Run("invalid_id", func(t *testing.T) {
		svc := NewJobService(fakes.NewMemStore(), nil, false)

		_, err := svc.Upsert(context.Background(), "123", fields)
		assert.ErrorIs(t, err, ErrInvalidID)
	})
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'f' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}
