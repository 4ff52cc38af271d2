package types

import "time"

// RecordType is the kind of an attendance event. The values are the
// Portuguese command words employees send.
type RecordType string

const (
	RecordEntrada RecordType = "entrada" // clock-in
	RecordSaida   RecordType = "saida"   // clock-out
	RecordPausa   RecordType = "pausa"   // break start
	RecordVolta   RecordType = "volta"   // break end
)

func (t RecordType) Valid() bool {
	switch t {
	case RecordEntrada, RecordSaida, RecordPausa, RecordVolta:
		return true
	}
	return false
}

// EmployeeStatus is derived from the latest attendance record, never stored.
type EmployeeStatus string

const (
	StatusWorking    EmployeeStatus = "trabalhando"
	StatusOnBreak    EmployeeStatus = "pausa"
	StatusClockedOut EmployeeStatus = "saiu"
	StatusAbsent     EmployeeStatus = "ausente"
)

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
}

type AttendanceRecord struct {
	ID         int64      `json:"id"`
	EmployeeID int64      `json:"employee_id"`
	Type       RecordType `json:"type"`
	Timestamp  time.Time  `json:"timestamp"`
	Message    string     `json:"message,omitempty"`
	Location   *Location  `json:"location,omitempty"`
}
