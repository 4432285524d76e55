package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	_ "github.com/microsoft/go-mssqldb"

	"tvratings-parser/internal/checksum"
	"tvratings-parser/internal/observability"
	"tvratings-parser/internal/ratings"
)

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Repository зеркалит записи в MS SQL в длинном формате: одна строка на канал
type Repository struct {
	db             *sql.DB
	table          string
	commandTimeout time.Duration
	logger         *observability.Logger
	checksum       *checksum.Generator
}

// Row строка таблицы рейтингов
type Row struct {
	DT       time.Time
	Channel  string
	Rating   float64
	CheckSum string
}

func NewRepository(dsn, table string, commandTimeout time.Duration, logger *observability.Logger) (*Repository, error) {
	if !tableNameRe.MatchString(table) {
		return nil, fmt.Errorf("invalid table name: %q", table)
	}

	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Тестируем соединение
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	r := &Repository{
		db:             db,
		table:          table,
		commandTimeout: commandTimeout,
		logger:         logger,
		checksum:       checksum.NewGenerator(),
	}

	if err := r.ensureTable(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return r, nil
}

func (r *Repository) Name() string { return "mssql" }

func (r *Repository) ensureTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		IF OBJECT_ID(N'dbo.%[1]s', N'U') IS NULL
		CREATE TABLE dbo.%[1]s (
			[UID]      BIGINT IDENTITY(1,1) PRIMARY KEY,
			[DT]       DATETIME2 NOT NULL,
			[Channel]  NVARCHAR(64) NOT NULL,
			[Rating]   FLOAT NOT NULL,
			[CheckSum] CHAR(64) NOT NULL UNIQUE
		);`, r.table)

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to ensure table %s: %w", r.table, err)
	}
	return nil
}

// Rows раскладывает запись по каналам
func (r *Repository) Rows(rec ratings.Record) ([]Row, error) {
	dt, err := ratings.ParseTimestamp(rec.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("invalid record timestamp %q: %w", rec.Timestamp, err)
	}

	rows := make([]Row, 0, len(rec.Ratings))
	for _, cr := range rec.Ratings {
		rows = append(rows, Row{
			DT:       dt,
			Channel:  cr.Code,
			Rating:   cr.Value,
			CheckSum: r.checksum.GenerateRatingHash(rec.Timestamp, cr.Code, cr.Value),
		})
	}
	return rows, nil
}

// Append пишет все каналы записи одной транзакцией; повтор той же записи ничего не меняет
func (r *Repository) Append(ctx context.Context, rec ratings.Record) (err error) {
	rows, err := r.Rows(rec)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	// MERGE по CheckSum: одна и та же запись не дублируется
	query := fmt.Sprintf(`
		MERGE INTO dbo.%s AS target
		USING (SELECT @CheckSum AS CheckSum) AS source
		ON target.[CheckSum] = source.CheckSum
		WHEN NOT MATCHED THEN
			INSERT ([DT], [Channel], [Rating], [CheckSum])
			VALUES (@DT, @Channel, @Rating, @CheckSum);
	`, r.table)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				r.logger.Error("Failed to rollback transaction", "error", rbErr.Error())
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			r.logger.Error("Failed to close statement", "error", err.Error())
		}
	}()

	inserted := int64(0)
	for _, row := range rows {
		result, err := stmt.ExecContext(ctx,
			sql.Named("DT", row.DT),
			sql.Named("Channel", row.Channel),
			sql.Named("Rating", row.Rating),
			sql.Named("CheckSum", row.CheckSum),
		)
		if err != nil {
			return fmt.Errorf("failed to execute merge for %s: %w", row.Channel, err)
		}
		if n, err := result.RowsAffected(); err == nil {
			inserted += n
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Info("Ratings mirrored to database",
		"table", r.table,
		"timestamp", rec.Timestamp,
		"inserted", inserted,
	)
	return nil
}

// Close закрывает соединение с БД
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
