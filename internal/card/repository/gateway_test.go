package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dario/cardvault/internal/telemetry"
)

const (
	lookupProcedure = "dario_card_by_id_data"
	portal          = "<unnamed portal 1>"
	fetchPortal     = `FETCH ALL FROM "<unnamed portal 1>"`
)

var candidates = []string{"p_Id", "Id", "p_CardId"}

func TestNewDialect(t *testing.T) {
	pg, err := NewDialect("postgres")
	require.NoError(t, err)
	assert.Equal(t, "postgres", pg.Name())

	my, err := NewDialect("mysql")
	require.NoError(t, err)
	assert.Equal(t, "mysql", my.Name())

	_, err = NewDialect("oracle")
	assert.Error(t, err)
}

func TestGateway_Execute_PostgreSQL(t *testing.T) {
	t.Run("Success_OpensCursorAndCommitsOnClose", func(t *testing.T) {
		db, mock := newMockDB(t)
		tel, spans := newRecordingTelemetry(t)
		gateway := NewGateway(db, &PostgreSQLDialect{}, tel, testTarget)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT proc_a(p_x => $1, p_y => $2)").
			WithArgs("x", int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"proc_a"}).AddRow(portal))
		mock.ExpectQuery(fetchPortal).
			WillReturnRows(sqlmock.NewRows([]string{"card_id"}).AddRow(int64(42)))
		mock.ExpectCommit()

		ctx := telemetry.ContextWithOperation(context.Background(), "store")
		cursor, err := gateway.Execute(ctx, "proc_a", []Param{
			{Name: "p_x", Value: "x"},
			{Name: "p_y", Value: int64(7)},
		})
		require.NoError(t, err)
		assert.False(t, cursor.Empty())

		row, found, err := cursor.Next(ctx)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, int64(42), row.Int64("CARDID"))

		_, found, err = cursor.Next(ctx)
		require.NoError(t, err)
		assert.False(t, found)

		require.NoError(t, cursor.Close())
		require.NoError(t, cursor.Close())
		assert.NoError(t, mock.ExpectationsWereMet())
		assert.Equal(t, 0, db.Stats().InUse)

		assert.Equal(t, []string{
			"card.store.execute",
			"card.store.cursor_open",
			"card.store.cursor_read",
			"card.store.cursor_read",
		}, spanNames(spans.Ended()))
	})

	t.Run("Success_NullCursorIsEmpty", func(t *testing.T) {
		db, mock := newMockDB(t)
		gateway := NewGateway(db, &PostgreSQLDialect{}, telemetry.NewNoop(), testTarget)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT proc_a()").
			WillReturnRows(sqlmock.NewRows([]string{"proc_a"}).AddRow(nil))
		mock.ExpectCommit()

		cursor, err := gateway.Execute(context.Background(), "proc_a", nil)
		require.NoError(t, err)
		assert.True(t, cursor.Empty())

		_, found, err := cursor.Next(context.Background())
		require.NoError(t, err)
		assert.False(t, found)

		require.NoError(t, cursor.Close())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_ExecuteFailsAndRollsBack", func(t *testing.T) {
		db, mock := newMockDB(t)
		gateway := NewGateway(db, &PostgreSQLDialect{}, telemetry.NewNoop(), testTarget)
		providerErr := &pq.Error{Code: "23505", Message: "duplicate key"}

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT proc_a(p_x => $1)").WithArgs("x").WillReturnError(providerErr)
		mock.ExpectRollback()

		ctx := telemetry.ContextWithOperation(context.Background(), "store")
		cursor, err := gateway.Execute(ctx, "proc_a", []Param{{Name: "p_x", Value: "x"}})
		assert.Nil(t, cursor)

		var execErr *StoreExecutionError
		require.ErrorAs(t, err, &execErr)
		assert.Equal(t, "store", execErr.Operation)
		assert.Equal(t, "proc_a", execErr.Procedure)
		assert.ErrorIs(t, err, providerErr)
		assert.NoError(t, mock.ExpectationsWereMet())
		assert.Equal(t, 0, db.Stats().InUse)
	})

	t.Run("Error_BeginFails", func(t *testing.T) {
		db, mock := newMockDB(t)
		gateway := NewGateway(db, &PostgreSQLDialect{}, telemetry.NewNoop(), testTarget)

		mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

		_, err := gateway.Execute(context.Background(), "proc_a", nil)

		var execErr *StoreExecutionError
		require.ErrorAs(t, err, &execErr)
		assert.Equal(t, "unknown", execErr.Operation)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("Error_FetchFailsAndRollsBack", func(t *testing.T) {
		db, mock := newMockDB(t)
		gateway := NewGateway(db, &PostgreSQLDialect{}, telemetry.NewNoop(), testTarget)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT proc_a()").
			WillReturnRows(sqlmock.NewRows([]string{"proc_a"}).AddRow(portal))
		mock.ExpectQuery(fetchPortal).WillReturnError(&pq.Error{Code: "34000", Message: "cursor does not exist"})
		mock.ExpectRollback()

		_, err := gateway.Execute(context.Background(), "proc_a", nil)
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_ReadFailsRollsBackOnClose", func(t *testing.T) {
		db, mock := newMockDB(t)
		gateway := NewGateway(db, &PostgreSQLDialect{}, telemetry.NewNoop(), testTarget)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT proc_a()").
			WillReturnRows(sqlmock.NewRows([]string{"proc_a"}).AddRow(portal))
		mock.ExpectQuery(fetchPortal).
			WillReturnRows(sqlmock.NewRows([]string{"cardid"}).AddRow(int64(1)).RowError(0, errors.New("broken pipe")))
		mock.ExpectRollback()

		cursor, err := gateway.Execute(context.Background(), "proc_a", nil)
		require.NoError(t, err)

		_, found, err := cursor.Next(context.Background())
		assert.False(t, found)
		assert.EqualError(t, err, "broken pipe")

		require.NoError(t, cursor.Close())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_InvalidIdentifier", func(t *testing.T) {
		db, mock := newMockDB(t)
		gateway := NewGateway(db, &PostgreSQLDialect{}, telemetry.NewNoop(), testTarget)

		mock.ExpectBegin()
		mock.ExpectRollback()

		_, err := gateway.Execute(context.Background(), "proc_a; DROP TABLE cards", nil)
		assert.ErrorContains(t, err, "invalid procedure name")

		mock.ExpectBegin()
		mock.ExpectRollback()

		_, err = gateway.Execute(context.Background(), "proc_a", []Param{{Name: "p_x => 1, p_y", Value: 1}})
		assert.ErrorContains(t, err, "invalid parameter name")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGateway_Execute_MySQL(t *testing.T) {
	db, mock := newMockDB(t)
	gateway := NewGateway(db, &MySQLDialect{}, telemetry.NewNoop(), testTarget)

	mock.ExpectBegin()
	mock.ExpectQuery("CALL proc_a(?, ?)").
		WithArgs("x", int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"CARDID"}).AddRow(int64(42)))
	mock.ExpectCommit()

	cursor, err := gateway.Execute(context.Background(), "proc_a", []Param{
		{Name: "p_x", Value: "x"},
		{Name: "p_y", Value: int64(7)},
	})
	require.NoError(t, err)

	row, found, err := cursor.Next(context.Background())
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(42), row.Int64("card_id"))

	require.NoError(t, cursor.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGateway_ProbeParameterName(t *testing.T) {
	t.Run("Success_SecondCandidateBinds", func(t *testing.T) {
		db, mock := newMockDB(t)
		tel, spans := newRecordingTelemetry(t)
		gateway := NewGateway(db, &PostgreSQLDialect{}, tel, testTarget)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT dario_card_by_id_data(p_Id => $1)").
			WithArgs(int64(42)).
			WillReturnError(&pq.Error{Code: "42883", Message: "function does not exist"})
		mock.ExpectRollback()
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT dario_card_by_id_data(Id => $1)").
			WithArgs(int64(42)).
			WillReturnRows(sqlmock.NewRows([]string{"dario_card_by_id_data"}).AddRow(portal))
		mock.ExpectQuery(fetchPortal).
			WillReturnRows(sqlmock.NewRows([]string{"CARDID"}).AddRow(int64(42)))
		mock.ExpectCommit()

		ctx := telemetry.ContextWithOperation(context.Background(), "get_by_id")
		cursor, err := gateway.ProbeParameterName(ctx, lookupProcedure, candidates, int64(42))
		require.NoError(t, err)

		row, found, err := cursor.Next(ctx)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, int64(42), row.Int64("CARDID"))
		require.NoError(t, cursor.Close())

		assert.NoError(t, mock.ExpectationsWereMet())

		ended := spans.Ended()
		require.Len(t, ended, 4)
		assert.Equal(t, "card.get_by_id.execute", ended[0].Name())
		attempt, ok := intAttr(ended[0], "attempt")
		require.True(t, ok)
		assert.Equal(t, int64(1), attempt)

		assert.Equal(t, "card.get_by_id.execute", ended[1].Name())
		attempt, ok = intAttr(ended[1], "attempt")
		require.True(t, ok)
		assert.Equal(t, int64(2), attempt)
	})

	t.Run("Success_StopsAtFirstBindingEvenWithoutRows", func(t *testing.T) {
		db, mock := newMockDB(t)
		gateway := NewGateway(db, &PostgreSQLDialect{}, telemetry.NewNoop(), testTarget)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT dario_card_by_id_data(p_Id => $1)").
			WithArgs(int64(99)).
			WillReturnRows(sqlmock.NewRows([]string{"dario_card_by_id_data"}).AddRow(portal))
		mock.ExpectQuery(fetchPortal).WillReturnRows(sqlmock.NewRows([]string{"CARDID"}))
		mock.ExpectCommit()

		cursor, err := gateway.ProbeParameterName(context.Background(), lookupProcedure, candidates, int64(99))
		require.NoError(t, err)

		_, found, err := cursor.Next(context.Background())
		require.NoError(t, err)
		assert.False(t, found)
		require.NoError(t, cursor.Close())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success_ExhaustionReturnsEmptyCursor", func(t *testing.T) {
		db, mock := newMockDB(t)
		gateway := NewGateway(db, &PostgreSQLDialect{}, telemetry.NewNoop(), testTarget)

		for _, name := range candidates {
			mock.ExpectBegin()
			mock.ExpectQuery("SELECT dario_card_by_id_data(" + name + " => $1)").
				WithArgs(int64(42)).
				WillReturnError(&pq.Error{Code: "42P02", Message: "parameter does not exist"})
			mock.ExpectRollback()
		}

		cursor, err := gateway.ProbeParameterName(context.Background(), lookupProcedure, candidates, int64(42))
		require.NoError(t, err)
		assert.True(t, cursor.Empty())
		assert.NoError(t, cursor.Close())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_NonBindingFailureAbortsProbe", func(t *testing.T) {
		db, mock := newMockDB(t)
		gateway := NewGateway(db, &PostgreSQLDialect{}, telemetry.NewNoop(), testTarget)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT dario_card_by_id_data(p_Id => $1)").
			WithArgs(int64(42)).
			WillReturnError(&pq.Error{Code: "57014", Message: "canceling statement due to statement timeout"})
		mock.ExpectRollback()

		cursor, err := gateway.ProbeParameterName(context.Background(), lookupProcedure, candidates, int64(42))
		assert.Nil(t, cursor)

		var execErr *StoreExecutionError
		require.ErrorAs(t, err, &execErr)
		assert.Equal(t, lookupProcedure, execErr.Procedure)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success_NoCandidates", func(t *testing.T) {
		db, mock := newMockDB(t)
		gateway := NewGateway(db, &PostgreSQLDialect{}, telemetry.NewNoop(), testTarget)

		cursor, err := gateway.ProbeParameterName(context.Background(), lookupProcedure, nil, int64(42))
		require.NoError(t, err)
		assert.True(t, cursor.Empty())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGateway_QueryScalar(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		tel, spans := newRecordingTelemetry(t)
		gateway := NewGateway(db, &PostgreSQLDialect{}, tel, testTarget)

		mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(int64(1)))

		ctx := telemetry.ContextWithOperation(context.Background(), "health_check")
		value, err := gateway.QueryScalar(ctx, "SELECT 1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), value)

		ended := spans.Ended()
		require.Len(t, ended, 1)
		assert.Equal(t, "card.health_check.query", ended[0].Name())
	})

	t.Run("Error_Unreachable", func(t *testing.T) {
		db, mock := newMockDB(t)
		gateway := NewGateway(db, &PostgreSQLDialect{}, telemetry.NewNoop(), testTarget)

		mock.ExpectQuery("SELECT 1").WillReturnError(errors.New("dial tcp 10.0.0.9:5432: connect: connection refused"))

		_, err := gateway.QueryScalar(context.Background(), "SELECT 1")

		var execErr *StoreExecutionError
		require.ErrorAs(t, err, &execErr)
		assert.Equal(t, "SELECT 1", execErr.Procedure)
	})
}
