package attendance

import (
	"sort"
	"time"

	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/types"
)

// Summary is the result of the horas command for one day.
type Summary struct {
	Worked time.Duration
	Break  time.Duration
	Status types.EmployeeStatus
	Last   *types.AttendanceRecord
}

// Summarize walks the day's records in timestamp order. entrada and volta
// open the working interval, saida closes it into Worked; pausa opens the
// break interval and volta or saida closes it into Break. Whatever is still
// open at the end runs until now.
func Summarize(records []types.AttendanceRecord, now time.Time) Summary {
	sorted := make([]types.AttendanceRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	var (
		sum       Summary
		workOpen  *time.Time
		breakOpen *time.Time
	)

	for i := range sorted {
		r := sorted[i]
		at := r.Timestamp
		switch r.Type {
		case types.RecordEntrada:
			workOpen = &at
		case types.RecordPausa:
			breakOpen = &at
		case types.RecordVolta:
			if breakOpen != nil {
				sum.Break += at.Sub(*breakOpen)
				breakOpen = nil
			}
			workOpen = &at
		case types.RecordSaida:
			if breakOpen != nil {
				sum.Break += at.Sub(*breakOpen)
				breakOpen = nil
			}
			if workOpen != nil {
				sum.Worked += at.Sub(*workOpen)
				workOpen = nil
			}
		}
	}

	if workOpen != nil && now.After(*workOpen) {
		sum.Worked += now.Sub(*workOpen)
	}
	if breakOpen != nil && now.After(*breakOpen) {
		sum.Break += now.Sub(*breakOpen)
	}

	sum.Status = types.StatusAbsent
	if n := len(sorted); n > 0 {
		last := sorted[n-1]
		sum.Last = &last
		sum.Status = StatusOf(&last)
	}
	return sum
}
