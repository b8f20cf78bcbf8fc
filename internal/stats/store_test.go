package stats

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/event-participation/internal/model"
)

var (
	t0 = time.Date(2030, 3, 1, 9, 0, 0, 0, time.UTC)
	t1 = t0.Add(24 * time.Hour)
)

func TestPostgresStore_Save(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO hits (app, uri, ip, created) VALUES ($1, $2, $3, $4) RETURNING id`)).
		WithArgs("ewm-main-service", "/events/1", "10.0.0.1", t0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	h := &model.Hit{App: "ewm-main-service", URI: "/events/1", IP: "10.0.0.1", Created: t0}
	require.NoError(t, store.Save(context.Background(), h))
	assert.Equal(t, int64(42), h.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Views(t *testing.T) {
	t.Run("total count over every uri", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT app, uri, COUNT(ip) AS hits`)).
			WithArgs(t0, t1, nil).
			WillReturnRows(sqlmock.NewRows([]string{"app", "uri", "hits"}).
				AddRow("ewm-main-service", "/events/1", 5).
				AddRow("ewm-main-service", "/events", 2))

		got, err := NewPostgresStore(db).Views(context.Background(), model.ViewQuery{Start: t0, End: t1})
		require.NoError(t, err)
		assert.Equal(t, []model.ViewStats{
			{App: "ewm-main-service", URI: "/events/1", Hits: 5},
			{App: "ewm-main-service", URI: "/events", Hits: 2},
		}, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique count filtered by uri", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT app, uri, COUNT(DISTINCT ip) AS hits`)).
			WithArgs(t0, t1, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"app", "uri", "hits"}))

		got, err := NewPostgresStore(db).Views(context.Background(), model.ViewQuery{
			Start: t0, End: t1, URIs: []string{"/events/1"}, Unique: true,
		})
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query failure is wrapped", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		boom := errors.New("connection reset")
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT app, uri`)).WillReturnError(boom)

		_, err = NewPostgresStore(db).Views(context.Background(), model.ViewQuery{Start: t0, End: t1})
		assert.ErrorIs(t, err, boom)
	})
}

func TestMemoryStore_WindowIsHalfOpen(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	for _, at := range []time.Time{t0.Add(-time.Second), t0, t1.Add(-time.Second), t1} {
		require.NoError(t, store.Save(ctx, &model.Hit{App: "a", URI: "/events/1", IP: "1.1.1.1", Created: at}))
	}

	got, err := store.Views(ctx, model.ViewQuery{Start: t0, End: t1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].Hits)
}
