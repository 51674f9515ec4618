package model

import "time"

// UploadStatus tracks one import batch through processing.
type UploadStatus string

const (
	UploadProcessing UploadStatus = "processing"
	UploadCompleted  UploadStatus = "completed"
	UploadFailed     UploadStatus = "failed"
)

// Upload is the bookkeeping record of one imported file.
type Upload struct {
	ID               int64        `json:"id"`
	Filename         string       `json:"filename"`
	OriginalFilename string       `json:"original_filename"`
	FileSize         int64        `json:"file_size"`
	FileSHA256       *string      `json:"file_sha256"`
	RowsImported     int          `json:"rows_imported"`
	ProceduresCount  int          `json:"procedures_count"`
	PatientsCount    int          `json:"patients_count"`
	Status           UploadStatus `json:"upload_status"`
	ErrorMessage     *string      `json:"error_message"`
	UploadedAt       time.Time    `json:"uploaded_at"`
	ProcessedAt      *time.Time   `json:"processed_at"`
}
