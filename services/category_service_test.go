package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/repository"
)

// memCategories is an in-memory CategoryStore. Post counts are set directly.
type memCategories struct {
	cats    map[uint]*models.Category
	posts   map[uint]int64
	nextID  uint
	deletes int
}

func newMemCategories() *memCategories {
	return &memCategories{cats: map[uint]*models.Category{}, posts: map[uint]int64{}}
}

func (m *memCategories) FindByID(_ context.Context, id uint) (*models.Category, error) {
	c, ok := m.cats[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCategories) FindOwned(_ context.Context, ownerID uint, ids []uint) ([]models.Category, error) {
	var out []models.Category
	for _, id := range ids {
		if c, ok := m.cats[id]; ok && c.OwnerID == ownerID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memCategories) Create(_ context.Context, c *models.Category) error {
	m.nextID++
	c.ID = m.nextID
	cp := *c
	m.cats[c.ID] = &cp
	return nil
}

func (m *memCategories) Update(_ context.Context, c *models.Category) error {
	cp := *c
	m.cats[c.ID] = &cp
	return nil
}

func (m *memCategories) Delete(_ context.Context, id uint) error {
	m.deletes++
	delete(m.cats, id)
	return nil
}

func (m *memCategories) CountPosts(_ context.Context, id uint) (int64, error) {
	return m.posts[id], nil
}

func (m *memCategories) CountChildren(_ context.Context, id uint) (int64, error) {
	var n int64
	for _, c := range m.cats {
		if c.ParentID != nil && *c.ParentID == id {
			n++
		}
	}
	return n, nil
}

func (m *memCategories) ListWithCounts(ctx context.Context, ownerID uint, publicOnly bool) ([]models.CategoryWithCounts, error) {
	var out []models.CategoryWithCounts
	for id := uint(1); id <= m.nextID; id++ {
		c, ok := m.cats[id]
		if !ok || c.OwnerID != ownerID || (publicOnly && !c.IsPublic) {
			continue
		}
		children, _ := m.CountChildren(ctx, id)
		out = append(out, models.CategoryWithCounts{Category: *c, PostCount: m.posts[id], SubcategoryCount: children})
	}
	return out, nil
}

func (m *memCategories) Ancestors(_ context.Context, id uint) ([]uint, error) {
	var out []uint
	cur := m.cats[id]
	for steps := 0; cur != nil && cur.ParentID != nil && steps < repository.MaxCategoryDepth; steps++ {
		out = append(out, *cur.ParentID)
		cur = m.cats[*cur.ParentID]
	}
	return out, nil
}

func TestCategoryService_CreateAndList(t *testing.T) {
	ctx := context.Background()
	store := newMemCategories()
	svc := NewCategoryService(store)

	root, err := svc.Create(ctx, userCaller, CategoryInput{Name: " Tech ", Description: "<b>all</b> things"})
	require.NoError(t, err)
	assert.Equal(t, "Tech", root.Name)
	assert.Equal(t, "all things", root.Description)
	assert.True(t, root.IsPublic)

	hidden := false
	child, err := svc.Create(ctx, userCaller, CategoryInput{Name: "Go", ParentID: &root.ID, IsPublic: &hidden})
	require.NoError(t, err)

	tree, err := svc.List(ctx, userCaller)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, child.ID, tree[0].Children[0].ID)
	assert.EqualValues(t, 1, tree[0].SubcategoryCount)

	public, err := svc.PublicTree(ctx, userCaller.UserID)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Empty(t, public[0].Children)
}

func TestCategoryService_ParentRules(t *testing.T) {
	ctx := context.Background()
	store := newMemCategories()
	svc := NewCategoryService(store)
	other := CallerContext{UserID: 9, Role: models.RoleUser}

	foreign, err := svc.Create(ctx, other, CategoryInput{Name: "Theirs"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, userCaller, CategoryInput{Name: "Mine", ParentID: &foreign.ID})
	assert.True(t, IsKind(err, KindValidation))

	missing := uint(999)
	_, err = svc.Create(ctx, userCaller, CategoryInput{Name: "Mine", ParentID: &missing})
	assert.True(t, IsKind(err, KindValidation))

	_, err = svc.Create(ctx, userCaller, CategoryInput{Name: ""})
	assert.True(t, IsKind(err, KindValidation))
}

func TestCategoryService_UpdateRejectsCycles(t *testing.T) {
	ctx := context.Background()
	store := newMemCategories()
	svc := NewCategoryService(store)

	a, _ := svc.Create(ctx, userCaller, CategoryInput{Name: "A"})
	b, _ := svc.Create(ctx, userCaller, CategoryInput{Name: "B", ParentID: &a.ID})
	c, _ := svc.Create(ctx, userCaller, CategoryInput{Name: "C", ParentID: &b.ID})

	_, err := svc.Update(ctx, userCaller, a.ID, CategoryInput{Name: "A", ParentID: &a.ID})
	assert.True(t, IsKind(err, KindValidation), "self parent")

	_, err = svc.Update(ctx, userCaller, a.ID, CategoryInput{Name: "A", ParentID: &c.ID})
	assert.True(t, IsKind(err, KindValidation), "multi-hop cycle")

	got, _ := store.FindByID(ctx, a.ID)
	assert.Nil(t, got.ParentID)

	moved, err := svc.Update(ctx, userCaller, c.ID, CategoryInput{Name: "C2", ParentID: &a.ID})
	require.NoError(t, err)
	assert.Equal(t, "C2", moved.Name)
	assert.Equal(t, a.ID, *moved.ParentID)
}

func TestCategoryService_UpdateOwnership(t *testing.T) {
	ctx := context.Background()
	store := newMemCategories()
	svc := NewCategoryService(store)
	c, _ := svc.Create(ctx, userCaller, CategoryInput{Name: "Mine"})

	_, err := svc.Update(ctx, CallerContext{UserID: 9, Role: models.RoleUser}, c.ID, CategoryInput{Name: "x"})
	assert.True(t, IsKind(err, KindForbidden))

	updated, err := svc.Update(ctx, adminCaller, c.ID, CategoryInput{Name: "By admin"})
	require.NoError(t, err)
	assert.Equal(t, userCaller.UserID, updated.OwnerID)

	_, err = svc.Update(ctx, userCaller, 404, CategoryInput{Name: "x"})
	assert.True(t, IsKind(err, KindNotFound))
}

func TestCategoryService_DeleteGuard(t *testing.T) {
	ctx := context.Background()
	store := newMemCategories()
	svc := NewCategoryService(store)

	parent, _ := svc.Create(ctx, userCaller, CategoryInput{Name: "Parent"})
	_, _ = svc.Create(ctx, userCaller, CategoryInput{Name: "Child", ParentID: &parent.ID})
	withPosts, _ := svc.Create(ctx, userCaller, CategoryInput{Name: "Busy"})
	store.posts[withPosts.ID] = 2
	empty, _ := svc.Create(ctx, userCaller, CategoryInput{Name: "Empty"})

	err := svc.Delete(ctx, userCaller, parent.ID)
	assert.True(t, IsKind(err, KindConflict))
	err = svc.Delete(ctx, userCaller, withPosts.ID)
	assert.True(t, IsKind(err, KindConflict))
	assert.Zero(t, store.deletes)
	assert.Len(t, store.cats, 4)

	require.NoError(t, svc.Delete(ctx, userCaller, empty.ID))
	assert.Len(t, store.cats, 3)
}
