package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteDatabase struct {
	db               *sql.DB
	connectionString string
	notifier         *changeNotifier
}

func NewSQLiteDatabase(connectionString string) (DatabaseService, error) {
	db, err := sql.Open("sqlite", connectionString)
	if err != nil {
		return nil, err
	}

	return &SQLiteDatabase{
		db:               db,
		connectionString: connectionString,
		notifier:         newChangeNotifier(),
	}, nil
}

func (s *SQLiteDatabase) CreateDatabase() (*sql.DB, error) {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS generated_images (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		file_path TEXT NOT NULL,
		prompt TEXT,
		created_at DATETIME NOT NULL,
		selected_for_rotation INTEGER NOT NULL DEFAULT 1
	)`)
	if err != nil {
		return nil, err
	}

	_, err = s.db.Exec(`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`)
	if err != nil {
		return nil, err
	}

	return s.db, nil
}

func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteDatabase) DoesDatabaseExist() bool {
	// In SQLite, the database file is created when you connect to it.
	// So we can assume it exists if we can successfully ping the database.
	err := s.db.Ping()
	return err == nil
}

func (s *SQLiteDatabase) CreateImage(ctx context.Context, filePath string, prompt string) (*Image, error) {
	img := &Image{
		FilePath:            filePath,
		Prompt:              prompt,
		CreatedAt:           time.Now().UTC(),
		SelectedForRotation: true,
	}

	var promptValue any
	if prompt != "" {
		promptValue = prompt
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO generated_images (file_path, prompt, created_at, selected_for_rotation) VALUES (?, ?, ?, 1)",
		img.FilePath, promptValue, img.CreatedAt)
	if err != nil {
		return nil, err
	}

	img.ID, err = res.LastInsertId()
	if err != nil {
		return nil, err
	}

	s.notifier.notify()
	return img, nil
}

const imageColumns = "id, file_path, prompt, created_at, selected_for_rotation"

func scanImage(row interface{ Scan(...any) error }) (*Image, error) {
	var img Image
	var prompt sql.NullString
	if err := row.Scan(&img.ID, &img.FilePath, &prompt, &img.CreatedAt, &img.SelectedForRotation); err != nil {
		return nil, err
	}
	img.Prompt = prompt.String
	return &img, nil
}

func (s *SQLiteDatabase) GetImageByID(ctx context.Context, id int64) (*Image, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+imageColumns+" FROM generated_images WHERE id = ?", id)
	img, err := scanImage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("image %d: %w", id, ErrNotFound)
	}
	return img, err
}

func (s *SQLiteDatabase) GetAllImages(ctx context.Context) ([]*Image, error) {
	return s.queryImages(ctx,
		"SELECT "+imageColumns+" FROM generated_images ORDER BY created_at DESC, id DESC")
}

func (s *SQLiteDatabase) GetSelectedImages(ctx context.Context) ([]*Image, error) {
	return s.queryImages(ctx,
		"SELECT "+imageColumns+" FROM generated_images WHERE selected_for_rotation = 1 ORDER BY id ASC")
}

func (s *SQLiteDatabase) GetFirstSelectedImage(ctx context.Context) (*Image, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+imageColumns+" FROM generated_images WHERE selected_for_rotation = 1 ORDER BY id ASC LIMIT 1")
	img, err := scanImage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("first selected image: %w", ErrNotFound)
	}
	return img, err
}

func (s *SQLiteDatabase) queryImages(ctx context.Context, query string) ([]*Image, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var images []*Image
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

func (s *SQLiteDatabase) SetSelectedForRotation(ctx context.Context, id int64, selected bool) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE generated_images SET selected_for_rotation = ? WHERE id = ?", selected, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("image %d: %w", id, ErrNotFound)
	}

	s.notifier.notify()
	return nil
}

func (s *SQLiteDatabase) DeleteImage(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM generated_images WHERE id = ?", id)
	if err != nil {
		return err
	}

	s.notifier.notify()
	return nil
}

func (s *SQLiteDatabase) DeleteImages(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	//nolint
	defer tx.Rollback()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	_, err = tx.ExecContext(ctx,
		"DELETE FROM generated_images WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return err
	}

	s.notifier.notify()
	return nil
}

func (s *SQLiteDatabase) ReadSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("setting %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *SQLiteDatabase) WriteSetting(ctx context.Context, key string, value string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)", key, value)
	return err
}

func (s *SQLiteDatabase) SubscribeSelectionChanges() (<-chan struct{}, func()) {
	return s.notifier.subscribe()
}
