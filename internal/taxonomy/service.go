package taxonomy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"jobboard/internal/auth"
	"jobboard/internal/database"
	"jobboard/internal/errcode"
)

// Service 管理分类与子分类。
// 职位上的 category/subcategory 是名称副本，重命名和删除时在此级联维护。
type Service struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewService(db *gorm.DB, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, logger: logger}
}

// List 按名称升序返回全部分类。
func (s *Service) List(ctx context.Context) ([]database.Category, error) {
	categories := []database.Category{}
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, errcode.Upstream(fmt.Errorf("list categories: %w", err), "Failed to fetch categories")
	}
	for i := range categories {
		if categories[i].Subcategories == nil {
			categories[i].Subcategories = datatypes.JSONSlice[string]{}
		}
	}
	return categories, nil
}

// Create 新建分类，名称忽略大小写查重；初始子分类去空白、去重并保持顺序。
func (s *Service) Create(ctx context.Context, _ auth.Session, name string, subcategories []string) (*database.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errcode.BadRequest("Name is required")
	}

	var count int64
	err := s.db.WithContext(ctx).
		Model(&database.Category{}).
		Where("LOWER(name) = ?", strings.ToLower(name)).
		Count(&count).Error
	if err != nil {
		return nil, errcode.Upstream(fmt.Errorf("check category name: %w", err), "Failed to create category")
	}
	if count > 0 {
		return nil, errcode.Conflict("Category already exists")
	}

	category := database.Category{Name: name, Subcategories: uniqueTrimmed(subcategories)}
	if err := s.db.WithContext(ctx).Create(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errcode.Conflict("Category already exists")
		}
		return nil, errcode.Upstream(fmt.Errorf("create category: %w", err), "Failed to create category")
	}
	return &category, nil
}

// Rename 修改分类名称，并把引用旧名称（或该分类 ID）的职位一并更新。
func (s *Service) Rename(ctx context.Context, _ auth.Session, id uint, newName string) (*database.Category, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, errcode.BadRequest("Name is required")
	}

	var category database.Category
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := findCategory(tx, id, &category); err != nil {
			return err
		}
		oldName := category.Name
		if oldName == newName {
			return nil
		}

		var taken int64
		if err := tx.Model(&database.Category{}).Where("name = ? AND id <> ?", newName, id).Count(&taken).Error; err != nil {
			return fmt.Errorf("check category name: %w", err)
		}
		if taken > 0 {
			return errcode.Conflict("Category already exists")
		}

		if err := tx.Model(&category).Update("name", newName).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errcode.Conflict("Category already exists")
			}
			return fmt.Errorf("rename category %d: %w", id, err)
		}
		category.Name = newName

		res := tx.Model(&database.Job{}).
			Where("category = ? OR category_id = ?", oldName, id).
			Updates(map[string]any{"category": newName, "category_id": id})
		if res.Error != nil {
			return fmt.Errorf("cascade category rename: %w", res.Error)
		}
		s.logger.Info("category renamed",
			slog.Uint64("category_id", uint64(id)),
			slog.String("old_name", oldName),
			slog.String("new_name", newName),
			slog.Int64("jobs_updated", res.RowsAffected),
		)
		return nil
	})
	if err != nil {
		return nil, wrap(err, "Failed to update category")
	}
	return &category, nil
}

// Delete 删除分类，并硬删除所有引用该分类的职位。
func (s *Service) Delete(ctx context.Context, _ auth.Session, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category database.Category
		if err := findCategory(tx, id, &category); err != nil {
			return err
		}

		res := tx.Where("category = ? OR category_id = ?", category.Name, id).Delete(&database.Job{})
		if res.Error != nil {
			return fmt.Errorf("cascade category delete: %w", res.Error)
		}
		if err := tx.Delete(&category).Error; err != nil {
			return fmt.Errorf("delete category %d: %w", id, err)
		}
		s.logger.Info("category deleted",
			slog.Uint64("category_id", uint64(id)),
			slog.String("name", category.Name),
			slog.Int64("jobs_deleted", res.RowsAffected),
		)
		return nil
	})
	return wrap(err, "Failed to delete category")
}

// AddSubcategory 追加子分类，名称需精确不重复。
func (s *Service) AddSubcategory(ctx context.Context, _ auth.Session, id uint, name string) (*database.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errcode.BadRequest("Subcategory name is required")
	}

	var category database.Category
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := findCategory(tx, id, &category); err != nil {
			return err
		}
		if slices.Contains(category.Subcategories, name) {
			return errcode.Conflict("Subcategory already exists")
		}
		category.Subcategories = append(category.Subcategories, name)
		return saveSubcategories(tx, &category)
	})
	if err != nil {
		return nil, wrap(err, "Failed to add subcategory")
	}
	return &category, nil
}

// RemoveSubcategory 移除子分类；已引用它的职位保持不变。
func (s *Service) RemoveSubcategory(ctx context.Context, _ auth.Session, id uint, name string) (*database.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errcode.BadRequest("Subcategory name is required")
	}

	var category database.Category
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := findCategory(tx, id, &category); err != nil {
			return err
		}
		category.Subcategories = slices.DeleteFunc(category.Subcategories, func(sub string) bool { return sub == name })
		return saveSubcategories(tx, &category)
	})
	if err != nil {
		return nil, wrap(err, "Failed to remove subcategory")
	}
	return &category, nil
}

// RenameSubcategory 原位替换子分类名称，随后尽力更新引用旧名称的职位。
// 级联失败只记录日志，不影响重命名结果。
func (s *Service) RenameSubcategory(ctx context.Context, _ auth.Session, id uint, oldName, newName string) (*database.Category, error) {
	oldName = strings.TrimSpace(oldName)
	newName = strings.TrimSpace(newName)
	if oldName == "" || newName == "" {
		return nil, errcode.BadRequest("Both old and new subcategory names are required")
	}

	var category database.Category
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := findCategory(tx, id, &category); err != nil {
			return err
		}
		idx := slices.Index(category.Subcategories, oldName)
		if idx < 0 {
			return errcode.NotFound("Subcategory not found")
		}
		if slices.Contains(category.Subcategories, newName) {
			return errcode.Conflict("A subcategory with this name already exists")
		}
		category.Subcategories[idx] = newName
		return saveSubcategories(tx, &category)
	})
	if err != nil {
		return nil, wrap(err, "Failed to rename subcategory")
	}
	res := s.db.WithContext(ctx).
		Model(&database.Job{}).
		Where("(category = ? OR category_id = ?) AND subcategory = ?", category.Name, id, oldName).
		Update("subcategory", newName)
	if res.Error != nil {
		s.logger.Warn("subcategory rename cascade failed",
			slog.Uint64("category_id", uint64(id)),
			slog.String("old_subcategory", oldName),
			slog.String("new_subcategory", newName),
			slog.Any("error", res.Error),
		)
	}
	return &category, nil
}

func findCategory(tx *gorm.DB, id uint, dst *database.Category) error {
	if err := tx.First(dst, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errcode.NotFound("Category not found")
		}
		return fmt.Errorf("find category %d: %w", id, err)
	}
	if dst.Subcategories == nil {
		dst.Subcategories = datatypes.JSONSlice[string]{}
	}
	return nil
}

func saveSubcategories(tx *gorm.DB, category *database.Category) error {
	if err := tx.Model(category).Update("subcategories", category.Subcategories).Error; err != nil {
		return fmt.Errorf("save subcategories of %d: %w", category.ID, err)
	}
	return nil
}

// wrap 保留领域错误，其他错误统一为 upstream_error。
func wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	if _, ok := errcode.As(err); ok {
		return err
	}
	return errcode.Upstream(err, msg)
}

func uniqueTrimmed(values []string) datatypes.JSONSlice[string] {
	out := datatypes.JSONSlice[string]{}
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || slices.Contains(out, v) {
			continue
		}
		out = append(out, v)
	}
	return out
}
