// Package seed loads the embedded course catalog and applies it to the store.
package seed

import (
	"context"
	_ "embed"
	"fmt"

	"capdigital/backend/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed catalog.yaml
var catalogYAML []byte

type Catalog struct {
	Courses      []models.Course      `yaml:"courses"`
	Achievements []models.Achievement `yaml:"achievements"`
}

// Load parses the embedded catalog.
func Load() (*Catalog, error) {
	return Parse(catalogYAML)
}

func Parse(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for i := range cat.Courses {
		for j := range cat.Courses[i].Lessons {
			cat.Courses[i].Lessons[j].CourseID = cat.Courses[i].ID
		}
	}
	return &cat, nil
}

// Apply inserts catalog rows that do not exist yet. Rows already present are
// left untouched so operator edits survive restarts.
func Apply(ctx context.Context, db *gorm.DB, cat *Catalog) error {
	doNothing := clause.OnConflict{DoNothing: true}
	tx := db.WithContext(ctx)

	for _, course := range cat.Courses {
		lessons := course.Lessons
		course.Lessons = nil
		if err := tx.Clauses(doNothing).Create(&course).Error; err != nil {
			return fmt.Errorf("seed course %d: %w", course.ID, err)
		}
		if len(lessons) == 0 {
			continue
		}
		if err := tx.Clauses(doNothing).Create(&lessons).Error; err != nil {
			return fmt.Errorf("seed lessons of course %d: %w", course.ID, err)
		}
	}

	if len(cat.Achievements) > 0 {
		if err := tx.Clauses(doNothing).Create(&cat.Achievements).Error; err != nil {
			return fmt.Errorf("seed achievements: %w", err)
		}
	}
	return nil
}
