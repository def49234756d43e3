package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/MikhailRaia/pyth/internal/model"
	"github.com/MikhailRaia/pyth/internal/storage"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

type Storage struct {
	pool *pgxpool.Pool
}

func NewStorage(ctx context.Context, dsn string) (*Storage, error) {
	if dsn == "" {
		return nil, errors.New("database connection string is empty")
	}

	pool, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	s := &Storage{
		pool: pool,
	}

	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Migrate creates the links table if it does not exist.
func (s *Storage) Migrate(ctx context.Context) error {
	createTableQuery := `
		CREATE TABLE IF NOT EXISTS links (
			link VARCHAR(80) PRIMARY KEY,
			target TEXT NOT NULL,
			password VARCHAR(80)
		);
	`

	if _, err := s.pool.Exec(ctx, createTableQuery); err != nil {
		return fmt.Errorf("failed to create links table: %w", err)
	}
	return nil
}

func (s *Storage) Get(ctx context.Context, link string) (model.Link, error) {
	var (
		l        model.Link
		password *string
	)

	err := s.pool.QueryRow(ctx, "SELECT link, target, password FROM links WHERE link = $1", link).
		Scan(&l.Link, &l.Target, &password)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Link{}, storage.ErrLinkNotFound
		}
		return model.Link{}, fmt.Errorf("error querying link: %w", err)
	}

	if password != nil {
		l.Password = *password
	}

	return l, nil
}

func (s *Storage) Exists(ctx context.Context, link string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM links WHERE link = $1)", link).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking if link exists: %w", err)
	}
	return exists, nil
}

func (s *Storage) Create(ctx context.Context, l model.Link) error {
	_, err := s.pool.Exec(ctx,
		"INSERT INTO links (link, target, password) VALUES ($1, $2, $3)",
		l.Link, l.Target, l.Password)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrLinkExists
		}
		return fmt.Errorf("error inserting link: %w", err)
	}
	return nil
}

func (s *Storage) Rename(ctx context.Context, link, newLink string) error {
	tag, err := s.pool.Exec(ctx, "UPDATE links SET link = $2 WHERE link = $1", link, newLink)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrLinkExists
		}
		return fmt.Errorf("error renaming link: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrLinkNotFound
	}
	return nil
}

func (s *Storage) UpdateTarget(ctx context.Context, link, target string) error {
	tag, err := s.pool.Exec(ctx, "UPDATE links SET target = $2 WHERE link = $1", link, target)
	if err != nil {
		return fmt.Errorf("error updating target: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrLinkNotFound
	}
	return nil
}

func (s *Storage) Delete(ctx context.Context, link string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM links WHERE link = $1", link)
	if err != nil {
		return fmt.Errorf("error deleting link: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrLinkNotFound
	}
	return nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Storage) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
