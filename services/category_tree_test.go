package services

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/aiblog/models"
)

func rec(id uint, parent *uint) models.CategoryWithCounts {
	return models.CategoryWithCounts{Category: models.Category{ID: id, ParentID: parent}}
}

func ptr(v uint) *uint { return &v }

func countNodes(nodes []*CategoryNode) int {
	n := 0
	for _, node := range nodes {
		n += 1 + countNodes(node.Children)
	}
	return n
}

func TestBuildCategoryTree_DropsOrphans(t *testing.T) {
	roots := BuildCategoryTree([]models.CategoryWithCounts{
		rec(1, nil),
		rec(2, ptr(1)),
		rec(3, ptr(99)),
	})

	require.Len(t, roots, 1)
	assert.Equal(t, uint(1), roots[0].ID)
	require.Len(t, roots[0].Children, 1)
	assert.Equal(t, uint(2), roots[0].Children[0].ID)
	assert.Empty(t, roots[0].Children[0].Children)
}

func TestBuildCategoryTree_ChildBeforeParent(t *testing.T) {
	roots := BuildCategoryTree([]models.CategoryWithCounts{
		rec(3, ptr(2)),
		rec(2, ptr(1)),
		rec(1, nil),
	})

	require.Len(t, roots, 1)
	require.Len(t, roots[0].Children, 1)
	require.Len(t, roots[0].Children[0].Children, 1)
	assert.Equal(t, uint(3), roots[0].Children[0].Children[0].ID)
}

func TestBuildCategoryTree_KeepsSiblingOrderAndCounts(t *testing.T) {
	in := []models.CategoryWithCounts{
		rec(1, nil),
		{Category: models.Category{ID: 4, ParentID: ptr(1), Name: "b"}, PostCount: 7, SubcategoryCount: 0},
		{Category: models.Category{ID: 2, ParentID: ptr(1), Name: "a"}, PostCount: 3, SubcategoryCount: 5},
	}
	roots := BuildCategoryTree(in)

	require.Len(t, roots[0].Children, 2)
	assert.Equal(t, uint(4), roots[0].Children[0].ID)
	assert.Equal(t, uint(2), roots[0].Children[1].ID)
	assert.EqualValues(t, 7, roots[0].Children[0].PostCount)
	assert.EqualValues(t, 5, roots[0].Children[1].SubcategoryCount)
}

func TestBuildCategoryTree_Empty(t *testing.T) {
	assert.Empty(t, BuildCategoryTree(nil))
}

// Random forests: every record whose parent chain is present appears exactly
// once, and every child list holds exactly the records pointing at it.
func TestBuildCategoryTree_RandomForests(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for round := 0; round < 200; round++ {
		n := r.Intn(30)
		var records []models.CategoryWithCounts
		for i := 1; i <= n; i++ {
			var parent *uint
			switch k := r.Intn(4); {
			case k == 0 || i == 1:
			case k == 3:
				parent = ptr(uint(1000 + r.Intn(5)))
			default:
				parent = ptr(uint(1 + r.Intn(i-1)))
			}
			records = append(records, rec(uint(i), parent))
		}
		r.Shuffle(len(records), func(i, j int) { records[i], records[j] = records[j], records[i] })

		byID := map[uint]models.CategoryWithCounts{}
		for _, c := range records {
			byID[c.ID] = c
		}
		reachable := 0
		for _, c := range records {
			cur, ok := c, true
			for cur.ParentID != nil && ok {
				cur, ok = byID[*cur.ParentID]
			}
			if ok {
				reachable++
			}
		}

		roots := BuildCategoryTree(records)
		assert.Equal(t, reachable, countNodes(roots))

		seen := map[uint]int{}
		var walk func([]*CategoryNode)
		walk = func(ns []*CategoryNode) {
			for _, node := range ns {
				seen[node.ID]++
				var want []uint
				for _, c := range records {
					if c.ParentID != nil && *c.ParentID == node.ID {
						want = append(want, c.ID)
					}
				}
				var got []uint
				for _, ch := range node.Children {
					got = append(got, ch.ID)
				}
				assert.Equal(t, want, got)
				walk(node.Children)
			}
		}
		walk(roots)
		for id, times := range seen {
			assert.Equal(t, 1, times, "node %d", id)
		}
	}
}

func TestFlattenTree(t *testing.T) {
	roots := BuildCategoryTree([]models.CategoryWithCounts{
		{Category: models.Category{ID: 1, Name: "root"}},
		{Category: models.Category{ID: 2, Name: "child", ParentID: ptr(1)}},
		{Category: models.Category{ID: 3, Name: "other"}},
	})
	flat := FlattenTree(roots)
	assert.Equal(t, []FlatCategory{
		{ID: 1, Name: "root", Depth: 0},
		{ID: 2, Name: "child", Depth: 1},
		{ID: 3, Name: "other", Depth: 0},
	}, flat)
}
