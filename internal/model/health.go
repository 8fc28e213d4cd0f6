package model

// HealthLevel is the severity of a data-quality finding.
type HealthLevel string

const (
	LevelInfo    HealthLevel = "INFO"
	LevelWarning HealthLevel = "WARNING"
	LevelError   HealthLevel = "ERROR"
)

// HealthRow is one append-only finding produced while auditing a batch.
type HealthRow struct {
	CheckID   string      `json:"check_id"`
	BatchID   *string     `json:"import_batch_id"`
	Level     HealthLevel `json:"level"`
	Check     string      `json:"check_name"`
	Details   string      `json:"details"`
	CreatedAt string      `json:"created_at"`
}
