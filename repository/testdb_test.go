package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cppla/aiblog/models"
)

// testDB opens a migrated SQLite database in a temp file.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "aiblog-test-*.db")
	require.NoError(t, err)
	path := f.Name()
	_ = f.Close()

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.UserDeleteLog{},
		&models.Category{},
		&models.Post{},
		&models.PostCategory{},
		&models.VisitorLog{},
	))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{
		Name:         email,
		Email:        email,
		PasswordHash: "x",
		Role:         role,
		URLID:        "blog-" + email[:3],
	}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), u))
	return u
}

func seedCategory(t *testing.T, db *gorm.DB, owner uint, name string, parent *uint, public bool) *models.Category {
	t.Helper()
	c := &models.Category{OwnerID: owner, Name: name, ParentID: parent, IsPublic: public}
	require.NoError(t, NewCategoryRepository(db).Create(context.Background(), c))
	return c
}

func seedPost(t *testing.T, db *gorm.DB, author uint, title string, published bool, created time.Time, legacy *uint, cats ...uint) *models.Post {
	t.Helper()
	if cats == nil {
		cats = []uint{}
	}
	p := &models.Post{
		AuthorID:    author,
		Title:       title,
		Content:     "<p>" + title + "</p>",
		Published:   published,
		CategoryID:  legacy,
		CategoryIDs: cats,
		CreatedAt:   created,
	}
	require.NoError(t, NewPostRepository(db).Create(context.Background(), p))
	return p
}

func uintPtr(v uint) *uint { return &v }
