package services

import "github.com/cppla/aiblog/models"

// CategoryNode is a category with its direct children.
type CategoryNode struct {
	models.CategoryWithCounts
	Children []*CategoryNode `json:"children"`
}

// BuildCategoryTree links flat records into a forest. Roots are records without
// a parent; a record whose parent is not in the input is dropped. Siblings keep
// their input order and counts pass through untouched.
func BuildCategoryTree(records []models.CategoryWithCounts) []*CategoryNode {
	nodes := make(map[uint]*CategoryNode, len(records))
	for i := range records {
		nodes[records[i].ID] = &CategoryNode{CategoryWithCounts: records[i], Children: []*CategoryNode{}}
	}

	roots := []*CategoryNode{}
	for i := range records {
		node := nodes[records[i].ID]
		if records[i].ParentID == nil {
			roots = append(roots, node)
			continue
		}
		if parent, ok := nodes[*records[i].ParentID]; ok {
			parent.Children = append(parent.Children, node)
		}
	}
	return roots
}

// FlatCategory is one row of a flattened tree, e.g. for a select box.
type FlatCategory struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Depth int    `json:"depth"`
}

// FlattenTree lists the forest depth-first.
func FlattenTree(roots []*CategoryNode) []FlatCategory {
	var out []FlatCategory
	var walk func(ns []*CategoryNode, depth int)
	walk = func(ns []*CategoryNode, depth int) {
		for _, n := range ns {
			out = append(out, FlatCategory{ID: n.ID, Name: n.Name, Depth: depth})
			walk(n.Children, depth+1)
		}
	}
	walk(roots, 0)
	return out
}
