package model

// BatchStatus is the lifecycle state of an import batch.
type BatchStatus string

const (
	BatchPending    BatchStatus = "PENDING"
	BatchProcessing BatchStatus = "PROCESSING"
	BatchDone       BatchStatus = "DONE"
)

// ImportBatch groups all rows derived from one file or one cash session.
type ImportBatch struct {
	ID             string      `json:"import_batch_id"`
	UploadedFileID *string     `json:"uploaded_file_id"`
	FileName       string      `json:"file_name"`
	Source         Source      `json:"source"`
	Status         BatchStatus `json:"status"`
	RowsStaged     int         `json:"rows_staged"`
	RowsImported   int         `json:"rows_imported"`
	StartedAt      string      `json:"started_at"`
	FinishedAt     *string     `json:"finished_at"`
	Notes          *string     `json:"notes"`
}

// BatchPatch holds the batch fields an update may change.
type BatchPatch struct {
	Source       *Source
	Status       *BatchStatus
	RowsStaged   *int
	RowsImported *int
	FinishedAt   *string
	Notes        *string
}

// StagingRow is the raw audit copy of a parsed row.
type StagingRow struct {
	BatchID         string  `json:"import_batch_id"`
	Source          Source  `json:"source"`
	SourceRowID     string  `json:"source_row_id"`
	RawDate         string  `json:"raw_date"`
	RawDescription  string  `json:"raw_description"`
	RawAmount       float64 `json:"raw_amount"`
	RawCurrency     string  `json:"raw_currency"`
	NormDate        string  `json:"norm_date"`
	NormAmount      float64 `json:"norm_amount"`
	NormAccountID   string  `json:"norm_account_id"`
	NormDescription string  `json:"norm_description_clean"`
	CreatedAt       string  `json:"created_at"`
}
