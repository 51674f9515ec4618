// Package sql embeds the schema migrations and the static statements used by
// the import pipeline.
package sql

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS

//go:embed queries/upsert_procedure_summary.sql
var UpsertProcedureSummary string

//go:embed queries/insert_upload.sql
var InsertUpload string

//go:embed queries/complete_upload.sql
var CompleteUpload string

//go:embed queries/fail_upload.sql
var FailUpload string

//go:embed queries/delete_upload_transactions.sql
var DeleteUploadTransactions string
