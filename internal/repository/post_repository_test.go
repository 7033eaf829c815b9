package repository

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/postpilot/postpilot-backend/internal/errors"
	"github.com/postpilot/postpilot-backend/internal/model"
)

func TestCreatePostReturnsID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := &PostRepository{DB: db}
	p := &model.CampaignPost{CampaignID: 7, Content: "hello", PublishDate: time.Now()}

	mock.ExpectQuery("INSERT INTO campaign_posts").
		WithArgs(7, "hello", sqlmock.AnyArg(), model.PostStatusPending, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	require.NoError(t, repo.CreatePost(p))
	assert.Equal(t, 42, p.ID)
	assert.Equal(t, model.PostStatusPending, p.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLinkAssetMapsUniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := &PostRepository{DB: db}

	mock.ExpectExec("INSERT INTO post_assets").
		WithArgs(3, 10, 5).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "post_assets_campaign_id_asset_id_key"})

	err = repo.LinkAsset(3, 10, 5)
	require.Error(t, err)
	assert.True(t, appErrors.IsAssetAlreadyUsed(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLinkAssetPassesThroughOtherErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := &PostRepository{DB: db}

	mock.ExpectExec("INSERT INTO post_assets").
		WithArgs(3, 10, 5).
		WillReturnError(&pq.Error{Code: "23503"}) // foreign key, not a conflict

	err = repo.LinkAsset(3, 10, 5)
	require.Error(t, err)
	assert.False(t, appErrors.IsAssetAlreadyUsed(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLinkAssetSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := &PostRepository{DB: db}

	mock.ExpectExec("INSERT INTO post_assets").
		WithArgs(3, 10, 5).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.LinkAsset(3, 10, 5))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateLogNullPostID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := &PostRepository{DB: db}

	mock.ExpectExec("INSERT INTO post_logs").
		WithArgs(nil, model.LogStatusFailed, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.CreateLog(nil, model.LogStatusFailed, "no unused assets"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsByCampaign(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := &PostRepository{DB: db}

	rows := sqlmock.NewRows([]string{"status", "count"}).
		AddRow("pending", 4).
		AddRow("published", 2)
	mock.ExpectQuery("SELECT status, COUNT").WithArgs(7).WillReturnRows(rows)

	stats, err := repo.StatsByCampaign(7)
	require.NoError(t, err)
	assert.Equal(t, 6, stats["total"])
	assert.Equal(t, 4, stats["pending"])
	assert.Equal(t, 2, stats["published"])
	assert.Equal(t, 0, stats["rejected"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
