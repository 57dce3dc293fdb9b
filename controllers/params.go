package controllers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/aiblog/services"
)

func parseID(ctx *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, services.Validation("invalid %s", name)
	}
	return uint(id), nil
}

// parsePagination reads offset/limit, or page/limit when no offset is given.
// Out-of-range values are clamped by the services.
func parsePagination(ctx *gin.Context) (int, int) {
	limit, _ := strconv.Atoi(ctx.Query("limit"))
	if raw, ok := ctx.GetQuery("offset"); ok {
		offset, _ := strconv.Atoi(raw)
		return offset, limit
	}
	page, err := strconv.Atoi(ctx.Query("page"))
	if err != nil || page < 1 {
		return 0, limit
	}
	size := limit
	if size <= 0 {
		size = services.DefaultPostLimit
	}
	if size > services.MaxPostLimit {
		size = services.MaxPostLimit
	}
	return (page - 1) * size, limit
}

// parseUintList accepts repeated keys and comma separated values.
func parseUintList(values []string) ([]uint, error) {
	var out []uint
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			n, err := strconv.ParseUint(part, 10, 64)
			if err != nil || n == 0 {
				return nil, services.Validation("invalid category id %q", part)
			}
			out = append(out, uint(n))
		}
	}
	return out, nil
}

func postQuery(ctx *gin.Context) (services.PostQuery, error) {
	q := services.PostQuery{
		Search:      strings.TrimSpace(ctx.Query("searchText")),
		SearchField: ctx.DefaultQuery("searchField", "title"),
	}
	q.Offset, q.Limit = parsePagination(ctx)

	ids, err := parseUintList(ctx.QueryArray("categoryIds"))
	if err != nil {
		return q, err
	}
	q.CategoryIDs = ids

	if raw := ctx.Query("categoryId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return q, services.Validation("invalid categoryId")
		}
		cid := uint(id)
		q.CategoryID = &cid
	}
	return q, nil
}

func bindJSON(ctx *gin.Context, dst interface{}) error {
	if err := ctx.ShouldBindJSON(dst); err != nil {
		return services.Validation("invalid request payload")
	}
	return nil
}
