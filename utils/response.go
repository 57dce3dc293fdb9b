package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSONResponse defines the uniform structure for API responses.
type JSONResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Pagination describes an offset-paginated result set.
type Pagination struct {
	Offset     int   `json:"offset"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// NewPagination computes the page count for total items split by limit.
func NewPagination(offset, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{Offset: offset, Limit: limit, Total: total, TotalPages: pages}
}

// Respond writes a JSON response with the given status code.
func Respond(ctx *gin.Context, status int, code int, message string, data interface{}) {
	ctx.JSON(status, JSONResponse{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// Success returns a standard success response.
func Success(ctx *gin.Context, data interface{}) {
	Respond(ctx, 200, 0, "success", data)
}

// Created returns a 201 response for newly created resources.
func Created(ctx *gin.Context, data interface{}) {
	Respond(ctx, 201, 0, "created", data)
}

// Error returns a standard error response.
func Error(ctx *gin.Context, status int, code int, message string) {
	Respond(ctx, status, code, message, nil)
}

// StatusError is an error that knows the HTTP status it should surface as.
type StatusError interface {
	error
	HTTPStatus() int
}

// Fail writes err as an error envelope. Errors without a status are logged and
// hidden behind a generic 500.
func Fail(ctx *gin.Context, err error) {
	var se StatusError
	if errors.As(err, &se) {
		status := se.HTTPStatus()
		Error(ctx, status, status*100, se.Error())
		return
	}
	Logger.Error("unhandled error", zapError(ctx, err)...)
	Error(ctx, http.StatusInternalServerError, 50000, "internal error")
}
