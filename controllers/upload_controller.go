package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/aiblog/middleware"
	"github.com/cppla/aiblog/services"
	"github.com/cppla/aiblog/utils"
)

// multipart framing allowance on top of the image limit
const uploadOverhead = 64 << 10

// UploadController accepts image uploads for post content.
type UploadController struct {
	uploads *services.UploadService
}

func NewUploadController(uploads *services.UploadService) *UploadController {
	return &UploadController{uploads: uploads}
}

// Image stores the multipart "file" field and returns its public URL.
func (u *UploadController) Image(ctx *gin.Context) {
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, services.MaxImageBytes+uploadOverhead)

	fh, err := ctx.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.Fail(ctx, services.Validation("image exceeds %d MiB", services.MaxImageBytes>>20))
			return
		}
		utils.Fail(ctx, services.Validation("file is required"))
		return
	}
	if fh.Size > services.MaxImageBytes {
		utils.Fail(ctx, services.Validation("image exceeds %d MiB", services.MaxImageBytes>>20))
		return
	}
	f, err := fh.Open()
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	defer f.Close()

	img, err := u.uploads.UploadImage(ctx.Request.Context(), middleware.Caller(ctx), f)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Created(ctx, img)
}
