package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/rohitsolanki2392/creportfoliopulse/internal/model"
)

type FileRepository struct {
	db *gorm.DB
}

func NewFileRepository(db *gorm.DB) *FileRepository {
	return &FileRepository{db: db}
}

func (r *FileRepository) Create(ctx context.Context, file *model.StandaloneFile) error {
	return r.db.WithContext(ctx).Create(file).Error
}

func (r *FileRepository) Update(ctx context.Context, file *model.StandaloneFile) error {
	return r.db.WithContext(ctx).Save(file).Error
}

func (r *FileRepository) FindByFileID(ctx context.Context, fileID string) (*model.StandaloneFile, error) {
	var file model.StandaloneFile
	if err := r.db.WithContext(ctx).Where("file_id = ?", fileID).First(&file).Error; err != nil {
		return nil, err
	}
	return &file, nil
}

func (r *FileRepository) Delete(ctx context.Context, fileID string) error {
	return r.db.WithContext(ctx).Where("file_id = ?", fileID).Delete(&model.StandaloneFile{}).Error
}

// List returns a company's files, optionally narrowed by category and
// building.
func (r *FileRepository) List(ctx context.Context, companyID, category, buildingID string) ([]model.StandaloneFile, error) {
	var files []model.StandaloneFile

	q := r.db.WithContext(ctx).Where("company_id = ?", companyID)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if buildingID != "" {
		q = q.Where("building_id = ?", buildingID)
	}

	err := q.Order("created_at DESC").Find(&files).Error
	return files, err
}
