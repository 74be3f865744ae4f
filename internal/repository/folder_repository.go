package repository

import (
	"context"
	"log/slog"

	"github.com/welldanyogia/voicemail-store/internal/database"
	"github.com/welldanyogia/voicemail-store/internal/models"
	"gorm.io/gorm/clause"
)

// FolderRepository defines the interface for folder data access
type FolderRepository interface {
	CreateTable(ctx context.Context) error
	CreateIndexes(ctx context.Context) error
	Create(name, recording string, dtmf int) *models.Folder
	Get(ctx context.Context, dtmf int) (*models.Folder, error)
	GetByName(ctx context.Context, name string) (*models.Folder, error)
	All(ctx context.Context) ([]*models.Folder, error)
	Save(ctx context.Context, f *models.Folder) (*models.Folder, error)
	Remove(ctx context.Context, f *models.Folder) error
}

var folderTable = &Table[models.Folder]{
	Name: "folder",
	Columns: []Column[models.Folder]{
		stringColumn("name", func(f *models.Folder) *string { return &f.Name }),
		stringColumn("recording", func(f *models.Folder) *string { return &f.Recording }),
		intColumn("dtmf", func(f *models.Folder) *int { return &f.DTMF }),
	},
	Indexes: []Index{
		{Name: "folder_name_idx", Columns: []string{"name"}, Unique: true},
		{Name: "folder_dtmf_idx", Columns: []string{"dtmf"}, Unique: true},
	},
	ID:    func(f *models.Folder) uint { return f.ID },
	SetID: func(f *models.Folder, id uint) { f.ID = id },
}

type folderRepository struct {
	store *store[models.Folder]
}

// NewFolderRepository creates a new FolderRepository instance
func NewFolderRepository(provider database.Provider, logger *slog.Logger) FolderRepository {
	return &folderRepository{store: newStore(provider, folderTable, logger)}
}

func (r *folderRepository) CreateTable(ctx context.Context) error {
	return r.store.createTable(ctx)
}

func (r *folderRepository) CreateIndexes(ctx context.Context) error {
	return r.store.createIndexes(ctx)
}

func (r *folderRepository) Create(name, recording string, dtmf int) *models.Folder {
	return &models.Folder{Name: name, Recording: recording, DTMF: dtmf}
}

// Get looks a folder up by its DTMF digit. It returns nil when there is none.
func (r *folderRepository) Get(ctx context.Context, dtmf int) (*models.Folder, error) {
	return r.store.get(ctx, Where(Eq("dtmf", dtmf)))
}

func (r *folderRepository) GetByName(ctx context.Context, name string) (*models.Folder, error) {
	return r.store.get(ctx, Where(Eq("name", name)))
}

// All lists folders in DTMF order, which is the order callers hear them.
func (r *folderRepository) All(ctx context.Context) ([]*models.Folder, error) {
	return r.store.find(ctx, Query{OrderBy: []clause.OrderByColumn{Asc("dtmf")}})
}

func (r *folderRepository) Save(ctx context.Context, f *models.Folder) (*models.Folder, error) {
	if err := r.store.save(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (r *folderRepository) Remove(ctx context.Context, f *models.Folder) error {
	return r.store.remove(ctx, f)
}
