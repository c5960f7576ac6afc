package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"property-listing/internal/models"
)

// DB is a PropertyStore backed by PostgreSQL through database/sql
type DB struct {
	conn *sql.DB
}

func NewDB(host, port, user, password, dbname, sslmode string) (*DB, error) {
	if sslmode == "" {
		sslmode = "disable"
	}
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, err
	}

	return &DB{conn: conn}, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// InitSchema creates the properties table if it doesn't exist
func (db *DB) InitSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS properties (
		seq BIGSERIAL PRIMARY KEY,
		id INTEGER NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		price TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		sqft TEXT NOT NULL DEFAULT '',
		image TEXT NOT NULL DEFAULT ''
	);
	`
	_, err := db.conn.Exec(query)
	return err
}

// List retrieves all properties in insertion order
func (db *DB) List(ctx context.Context) ([]models.Property, error) {
	query := `
		SELECT seq, id, name, price, location, sqft, image
		FROM properties
		ORDER BY seq ASC
	`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	defer rows.Close()

	properties := []models.Property{}
	for rows.Next() {
		var p models.Property
		if err := rows.Scan(&p.Seq, &p.ID, &p.Name, &p.Price, &p.Location, &p.Sqft, &p.Image); err != nil {
			return nil, err
		}
		properties = append(properties, p)
	}

	return properties, rows.Err()
}

// Get retrieves a property by id
func (db *DB) Get(ctx context.Context, id int) (*models.Property, error) {
	query := `
		SELECT seq, id, name, price, location, sqft, image
		FROM properties
		WHERE id = $1
	`

	var p models.Property
	err := db.conn.QueryRowContext(ctx, query, id).Scan(
		&p.Seq, &p.ID, &p.Name, &p.Price, &p.Location, &p.Sqft, &p.Image,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get property %d: %w", id, err)
	}

	return &p, nil
}

// Create inserts p with id MAX(id)+1. The table lock keeps concurrent
// inserts from computing the same id.
func (db *DB) Create(ctx context.Context, p *models.Property) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `LOCK TABLE properties IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return fmt.Errorf("failed to lock properties: %w", err)
	}

	query := `
	INSERT INTO properties (id, name, price, location, sqft, image)
	SELECT COALESCE(MAX(id), 0) + 1, $1, $2, $3, $4, $5 FROM properties
	RETURNING seq, id
	`
	if err := tx.QueryRowContext(ctx, query,
		p.Name, p.Price, p.Location, p.Sqft, p.Image,
	).Scan(&p.Seq, &p.ID); err != nil {
		return fmt.Errorf("failed to create property: %w", err)
	}

	return tx.Commit()
}

// Delete removes the property with the given id
func (db *DB) Delete(ctx context.Context, id int) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM properties WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete property %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of stored properties
func (db *DB) Count(ctx context.Context) (int64, error) {
	var count int64
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM properties`).Scan(&count)
	return count, err
}
