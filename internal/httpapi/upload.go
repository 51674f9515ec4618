package httpapi

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/gyeh/billingdash/internal/apperr"
	"github.com/gyeh/billingdash/internal/ingest"
)

// UploadSummary is the response to a successful upload.
type UploadSummary struct {
	UploadID        int64  `json:"upload_id"`
	Filename        string `json:"filename"`
	RowsImported    int64  `json:"rows_imported"`
	ProceduresCount int    `json:"procedures_count"`
	PatientsCount   int    `json:"patients_count"`
	Status          string `json:"status"`
	Message         string `json:"message"`
}

func (s *Server) uploadRoutes(r fiber.Router) {
	r.Post("/", s.uploadFile)
	r.Get("/history", s.uploadHistory)
	r.Get("/:id", s.getUpload)
	r.Delete("/:id", s.deleteUpload)
}

func (s *Server) uploadFile(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest("A file is required in the \"file\" form field")
	}
	if !ingest.IsWorkbook(fh.Filename) {
		return badRequest("Invalid file type. Please upload an Excel file (.xlsx or .xls)")
	}

	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, fmt.Sprintf("Failed to save file: %v", err))
	}
	stored := uuid.NewString() + strings.ToLower(filepath.Ext(fh.Filename))
	path := filepath.Join(s.cfg.UploadDir, stored)
	if err := c.SaveFile(fh, path); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, fmt.Sprintf("Failed to save file: %v", err))
	}

	ctx := c.UserContext()
	up, err := ingest.CreateUpload(ctx, s.pool, stored, fh.Filename, fh.Size)
	if err != nil {
		return err
	}
	summary, err := ingest.Run(ctx, s.pool, s.log, ingest.Request{
		Path:      path,
		UploadID:  up.ID,
		BatchSize: s.cfg.BatchSize,
	})
	if err != nil {
		cause := err
		var pe *ingest.PipelineError
		if errors.As(err, &pe) {
			cause = pe.Err
		}
		status := fiber.StatusInternalServerError
		if apperr.CodeOf(cause) == apperr.CodeInvalid {
			status = fiber.StatusBadRequest
		}
		return fiber.NewError(status, "Failed to process file: "+cause.Error())
	}

	return c.JSON(UploadSummary{
		UploadID:        up.ID,
		Filename:        fh.Filename,
		RowsImported:    summary.RowsImported,
		ProceduresCount: summary.Procedures,
		PatientsCount:   summary.Patients,
		Status:          "completed",
		Message: fmt.Sprintf("Successfully imported %d transactions from %d procedures",
			summary.RowsImported, summary.Procedures),
	})
}

type historyQuery struct {
	Limit int `query:"limit" validate:"min=1,max=100"`
}

func (s *Server) uploadHistory(c *fiber.Ctx) error {
	q := historyQuery{Limit: 10}
	if err := s.bind(c, &q); err != nil {
		return err
	}
	uploads, err := s.store.ListUploads(c.UserContext(), q.Limit)
	if err != nil {
		return err
	}
	return c.JSON(uploads)
}

func (s *Server) getUpload(c *fiber.Ctx) error {
	id, err := pathInt(c, "id", "upload id")
	if err != nil {
		return err
	}
	up, err := s.store.GetUpload(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(up)
}

func (s *Server) deleteUpload(c *fiber.Ctx) error {
	id, err := pathInt(c, "id", "upload id")
	if err != nil {
		return err
	}
	up, err := s.store.DeleteUpload(c.UserContext(), id)
	if err != nil {
		return err
	}
	path := filepath.Join(s.cfg.UploadDir, filepath.Base(up.Filename))
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.log.Warn().Err(err).Str("file", path).Msg("remove stored upload")
	}
	return c.JSON(fiber.Map{"message": "Upload deleted successfully"})
}
