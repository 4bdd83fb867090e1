//go:build integration

package mongo_test

import (
	"context"
	"testing"
	"time"

	"ms-landing/internal/models"
	"ms-landing/internal/testimonials"
	testimonialmongo "ms-landing/internal/testimonials/mongo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

func setupRepository(t *testing.T) *testimonialmongo.Repository {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	mongoC, err := mongodb.RunContainer(ctx, tc.WithImage("mongo:6"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, mongoC.Terminate(context.Background())) })

	uri, err := mongoC.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := testimonialmongo.Connect(ctx, uri)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	repo, err := testimonialmongo.NewRepository(ctx, client, "landing_test", "comentarios")
	require.NoError(t, err)
	return repo
}

func TestRepository_Lifecycle(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Create(ctx, &models.Testimonial{
			ID:        id,
			Name:      "Leitor " + id,
			Rating:    3 + i,
			Comment:   "comentário " + id,
			AuthorID:  "uid-" + id,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	list, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c", list[0].ID)
	assert.Equal(t, "b", list[1].ID)

	summary, err := repo.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Count)
	assert.InDelta(t, 4.0, summary.Average, 0.001)

	found, err := repo.FindByAuthorAndComment(ctx, "uid-a", "comentário a")
	require.NoError(t, err)
	assert.Equal(t, "a", found.ID)

	updatedAt := base.Add(time.Hour)
	found.Comment = "mudei de ideia"
	found.Rating = 1
	found.UpdatedAt = &updatedAt
	require.NoError(t, repo.Update(ctx, found))

	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "mudei de ideia", got.Comment)
	require.NotNil(t, got.UpdatedAt)
	assert.True(t, updatedAt.Equal(*got.UpdatedAt))

	require.NoError(t, repo.Delete(ctx, "a"))
	_, err = repo.Get(ctx, "a")
	assert.ErrorIs(t, err, testimonials.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "a"), testimonials.ErrNotFound)
}
