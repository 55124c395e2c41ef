package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// AttendanceCount is the completed/total lesson pair for a contract. On the
// wire and in the database it is the packed string "N/M".
type AttendanceCount struct {
	Completed int
	Total     int
}

// ParseAttendanceCount decodes the packed "N/M" form. Malformed input decodes
// as 0/1 instead of failing, so a corrupted row can never block the
// recompute path; the next aggregation overwrites it with correct values.
func ParseAttendanceCount(value string) AttendanceCount {
	parts := strings.Split(strings.TrimSpace(value), "/")
	if len(parts) != 2 {
		return AttendanceCount{Completed: 0, Total: 1}
	}
	completed, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || completed < 0 {
		return AttendanceCount{Completed: 0, Total: 1}
	}
	total, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || total < 0 {
		return AttendanceCount{Completed: 0, Total: 1}
	}
	return AttendanceCount{Completed: completed, Total: total}
}

func (a AttendanceCount) String() string {
	return fmt.Sprintf("%d/%d", a.Completed, a.Total)
}

// Complete reports whether every lesson of the contract has been attended.
// An empty contract (total 0) is never complete.
func (a AttendanceCount) Complete() bool {
	return a.Total > 0 && a.Completed == a.Total
}

func (a AttendanceCount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *AttendanceCount) UnmarshalJSON(data []byte) error {
	var packed string
	if err := json.Unmarshal(data, &packed); err != nil {
		return err
	}
	*a = ParseAttendanceCount(packed)
	return nil
}
