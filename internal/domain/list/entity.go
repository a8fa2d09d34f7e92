// internal/domain/list/entity.go
package list

import (
	"strconv"
	"time"
)

// Required input column names.
const (
	ColumnFirstName = "FirstName"
	ColumnPhone     = "Phone"
	ColumnNotes     = "Notes"
)

// RequiredColumns in the order they are reported when missing.
var RequiredColumns = []string{ColumnFirstName, ColumnPhone, ColumnNotes}

// Row is one parsed data row keyed by header name.
type Row map[string]string

// Record is a contact row assigned to an agent within one upload.
// AgentName is a snapshot taken at distribution time.
type Record struct {
	FirstName string    `json:"firstName" db:"first_name"`
	Phone     string    `json:"phone" db:"phone"`
	Notes     string    `json:"notes" db:"notes"`
	AgentID   int64     `json:"agentId" db:"agent_id"`
	AgentName string    `json:"agentName" db:"agent_name"`
	UploadID  string    `json:"uploadId" db:"upload_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// StoredRecord is a Record read back from storage. ID follows insertion order.
type StoredRecord struct {
	ID int64 `json:"id" db:"id"`
	Record
	AgentEmail string `json:"agentEmail" db:"agent_email"`
}

// AgentKey is the agent id in the string form used for JSON map keys.
func (r *Record) AgentKey() string {
	return strconv.FormatInt(r.AgentID, 10)
}

// Entry returns the fields shown to dashboard users.
func (r *Record) Entry() Entry {
	return Entry{FirstName: r.FirstName, Phone: r.Phone, Notes: r.Notes}
}

// Entry is the public view of one record.
type Entry struct {
	FirstName string `json:"firstName"`
	Phone     string `json:"phone"`
	Notes     string `json:"notes"`
}

// AgentShare is how many records one agent received in a batch.
type AgentShare struct {
	AgentID      int64  `json:"agentId"`
	AgentName    string `json:"agentName"`
	RecordsCount int    `json:"recordsCount"`
}

// Batch is the output of one distribution run, ready for persistence.
type Batch struct {
	UploadID     string       `json:"uploadId"`
	CreatedAt    time.Time    `json:"createdAt"`
	Records      []Record     `json:"records"`
	Distribution []AgentShare `json:"distribution"`
}
