package postgres_test

import (
	"context"
	"sociallink/internal/adapters/repository/postgres"
	"sociallink/internal/core/domain"
	"sociallink/internal/core/port"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSqlUnitOfWork_Execute(t *testing.T) {

	//Arrange
	dbConnection, cleanup, truncate := postgres.NewTestDB(t)
	defer cleanup()

	ctx := context.Background()
	uow := postgres.NewUnitOfWork(dbConnection)
	mediaRepo := postgres.NewSqlPostMediaRepository(dbConnection)

	t.Run("Should commit when no error", func(t *testing.T) {
		defer truncate()
		owner := postgres.SeedUser(t, dbConnection, "Alice", "", "")
		postID := postgres.SeedPost(t, dbConnection, owner)

		//act
		err := uow.Execute(ctx, func(u port.UnitOfWork) error {
			if _, err := u.PostMediaRepo().FindMediaForUpdate(ctx, postID); err != nil {
				return err
			}
			return u.PostMediaRepo().UpdateStatus(ctx, postID, domain.ProcessingStatusProcessing)
		})

		//assert
		require.NoError(t, err)
		media, err := mediaRepo.FindMedia(ctx, postID)
		require.NoError(t, err)
		require.Equal(t, domain.ProcessingStatusProcessing, media.Status)
	})

	t.Run("Should rollback when error occurs", func(t *testing.T) {
		defer truncate()
		owner := postgres.SeedUser(t, dbConnection, "Alice", "", "")
		postID := postgres.SeedPost(t, dbConnection, owner)

		//act
		err := uow.Execute(ctx, func(u port.UnitOfWork) error {
			_ = u.PostMediaRepo().UpdateStatus(ctx, postID, domain.ProcessingStatusProcessing)
			return assert.AnError
		})

		//assert
		require.ErrorIs(t, err, assert.AnError)
		media, err := mediaRepo.FindMedia(ctx, postID)
		require.NoError(t, err)
		require.Empty(t, media.Status)
	})
}
