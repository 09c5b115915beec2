// internal/app/features/members/upload.go
package members

import (
	"context"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/circlehub/internal/app/features/errors"
	memberstore "github.com/dalemusser/circlehub/internal/app/store/members"
	"github.com/dalemusser/circlehub/internal/app/system/csvutil"
	"github.com/dalemusser/circlehub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/circlehub/internal/app/system/metrics"
	"github.com/dalemusser/circlehub/internal/app/system/timeouts"
	"github.com/dalemusser/circlehub/internal/domain/models"
	"go.uber.org/zap"
)

// importResult is the JSON summary of one roster import.
type importResult struct {
	Created       int      `json:"created"`
	Skipped       int      `json:"skipped"`
	Failed        int      `json:"failed"`
	SkippedEmails []string `json:"skipped_emails,omitempty"`
	Error         string   `json:"error,omitempty"`
}

// HandleUploadCSV handles POST /members/{wardID}/upload_csv, a
// multipart form with the roster under the "csv" field.
//
// Rows that match an existing ward member by email are skipped and
// reported; rows without an email are always inserted (there is
// nothing safe to match them on).
func (h *Handler) HandleUploadCSV(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
	defer cancel()

	ward, ok := h.wardFromRequest(ctx, w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, csvutil.MaxUploadSize)
	file, _, err := r.FormFile("csv")
	if err != nil {
		uierrors.RenderBadRequest(w, r, "CSV file is required.")
		return
	}
	defer file.Close()

	rows, htmlErr, err := csvutil.PreScanMembersCSV(file)
	if err != nil || htmlErr != "" {
		metrics.RosterImports.WithLabelValues("invalid").Inc()
		uierrors.JSON(w, http.StatusBadRequest, importResult{Error: string(htmlErr)})
		return
	}

	var res importResult
	for _, row := range rows {
		if row.Email != "" {
			if _, err := h.Members.FindByEmail(ctx, ward.StakeID, ward.ID, row.Email); err == nil {
				res.Skipped++
				res.SkippedEmails = append(res.SkippedEmails, row.Email)
				metrics.RosterImports.WithLabelValues("duplicate").Inc()
				continue
			} else if err != memberstore.ErrNotFound {
				h.Log.Warn("duplicate check failed", zap.String("email", row.Email), zap.Error(err))
				res.Failed++
				metrics.RosterImports.WithLabelValues("error").Inc()
				continue
			}
		}

		m := models.Member{
			StakeID:            ward.StakeID,
			WardID:             ward.ID,
			FullName:           strings.TrimSpace(htmlsanitize.Sanitize(row.FullName)),
			Email:              row.Email,
			Phone:              row.Phone,
			DOB:                row.DOB,
			MaritalStatus:      row.MaritalStatus,
			NumChildren:        row.NumChildren,
			CulturalBackground: strings.TrimSpace(htmlsanitize.Sanitize(row.CulturalBackground)),
		}
		if _, err := h.Members.Create(ctx, m); err != nil {
			if err == memberstore.ErrDuplicateEmail {
				res.Skipped++
				res.SkippedEmails = append(res.SkippedEmails, row.Email)
				metrics.RosterImports.WithLabelValues("duplicate").Inc()
				continue
			}
			h.Log.Warn("import row failed", zap.String("name", row.FullName), zap.Error(err))
			res.Failed++
			metrics.RosterImports.WithLabelValues("error").Inc()
			continue
		}
		res.Created++
		metrics.RosterImports.WithLabelValues("created").Inc()
	}

	uierrors.JSON(w, http.StatusOK, res)
}
