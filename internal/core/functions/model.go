package functions

import (
	"encoding/json"
	"time"
)

// A Function exists in the store iff its code package and image were both
// created; the create workflow guarantees the pairing for successful calls.
type Function struct {
	ID          string    `gorm:"primaryKey" json:"function_id"`
	TenantID    string    `json:"tenant_id"`
	UserID      string    `json:"user_id"`
	ImageID     string    `json:"image_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Type        string    `json:"type"`  // fixed to "async" at creation
	Event       string    `json:"event"` // fixed to "webhook" at creation
	Endpoint    string    `json:"endpoint"`
	Runtime     string    `json:"runtime"`
	Memory      int64     `json:"memory"`
	ZipLocation string    `json:"zip_location"` // display URL of the stored package
	ZipKey      string    `json:"-"`            // blob store key, kept separate from the URL
	Tag         string    `json:"tag"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// Metadata is the create-time descriptive input. Only the keys in
// buildSchema are accepted on the wire; see ValidateMetadata.
type Metadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Event       string `json:"event"`
	Runtime     string `json:"runtime"`
	Publish     bool   `json:"publish"`
	Memory      int64  `json:"memory"`
	Type        string `json:"type"`
}

// ExecutionTask is the one-way message handed to the worker fleet.
type ExecutionTask struct {
	Action     string          `json:"action"`
	Payload    json.RawMessage `json:"payload"`
	RequestID  string          `json:"request_id"`
	FunctionID string          `json:"function_id"`
}
