// internal/app/features/members/photo.go
package members

import (
	"context"
	"net/http"
	"path"
	"strings"

	uierrors "github.com/dalemusser/circlehub/internal/app/features/errors"
	"github.com/dalemusser/circlehub/internal/app/system/timeouts"
	"github.com/google/uuid"
)

// maxPhotoSize caps profile picture uploads at 2 MB.
const maxPhotoSize = 2 << 20

var photoExts = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// HandleUploadPhoto handles POST /members/{wardID}/{memberID}/photo, a
// multipart form with the image under the "photo" field. The blob key
// is a fresh uuid so re-uploads never collide or overwrite.
func (h *Handler) HandleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	ward, ok := h.wardFromRequest(ctx, w, r)
	if !ok {
		return
	}
	m, ok := h.memberFromRequest(ctx, w, r, ward)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoSize)
	file, header, err := r.FormFile("photo")
	if err != nil {
		uierrors.RenderBadRequest(w, r, "Image file is required.")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	ext, ok := photoExts[contentType]
	if !ok {
		// Fall back to the filename extension for clients that send a
		// generic content type.
		ext = strings.ToLower(path.Ext(header.Filename))
		switch ext {
		case ".jpg", ".jpeg", ".png", ".gif", ".webp":
			contentType = ""
		default:
			uierrors.RenderBadRequest(w, r, "Profile pictures must be JPEG, PNG, GIF, or WebP.")
			return
		}
	}

	key := "profile_pics/" + uuid.NewString() + ext
	url, err := h.Blobs.Put(ctx, key, file, contentType)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "profile picture upload failed", err, "Failed to store the image.")
		return
	}

	if err := h.Members.SetProfilePic(ctx, m.ID, url); err != nil {
		h.ErrLog.LogServerError(w, r, "failed to record profile picture URL", err, "Failed to save the image.")
		return
	}

	uierrors.JSON(w, http.StatusOK, map[string]string{
		"member_id":       m.ID.Hex(),
		"profile_pic_url": url,
	})
}
