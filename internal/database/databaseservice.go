package database

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Image is one generated wallpaper record. FilePath and Prompt are immutable
// after creation; only the rotation selection flag may change.
type Image struct {
	ID                   int64     `db:"id"`
	FilePath             string    `db:"file_path"`
	Prompt               string    `db:"prompt"` // empty when no prompt was recorded
	CreatedAt            time.Time `db:"created_at"`
	SelectedForRotation  bool      `db:"selected_for_rotation"`
}

type DatabaseService interface {
	CreateDatabase() (*sql.DB, error)
	DoesDatabaseExist() bool
	Close() error

	// CreateImage inserts a new record with selected_for_rotation set to true.
	// The prompt may be empty; it is stored as NULL in that case.
	CreateImage(ctx context.Context, filePath string, prompt string) (*Image, error)
	GetImageByID(ctx context.Context, id int64) (*Image, error)
	// GetAllImages returns every record, newest first.
	GetAllImages(ctx context.Context) ([]*Image, error)
	// GetSelectedImages returns records marked for rotation ordered by ascending id.
	GetSelectedImages(ctx context.Context) ([]*Image, error)
	GetFirstSelectedImage(ctx context.Context) (*Image, error)
	SetSelectedForRotation(ctx context.Context, id int64, selected bool) error
	DeleteImage(ctx context.Context, id int64) error
	// DeleteImages removes all given records in a single transaction.
	DeleteImages(ctx context.Context, ids []int64) error

	// ReadSetting returns the stored value for key, or ErrNotFound.
	ReadSetting(ctx context.Context, key string) (string, error)
	WriteSetting(ctx context.Context, key string, value string) error

	// SubscribeSelectionChanges notifies after any mutation that can alter the
	// selected-for-rotation set. The returned function unsubscribes.
	SubscribeSelectionChanges() (<-chan struct{}, func())
}
