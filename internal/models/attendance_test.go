package models

import (
	"encoding/json"
	"testing"
)

func TestParseAttendanceCount(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  AttendanceCount
	}{
		{"normal", "7/10", AttendanceCount{Completed: 7, Total: 10}},
		{"complete", "36/36", AttendanceCount{Completed: 36, Total: 36}},
		{"zero total", "0/0", AttendanceCount{Completed: 0, Total: 0}},
		{"whitespace", " 3 / 12 ", AttendanceCount{Completed: 3, Total: 12}},
		{"missing slash", "710", AttendanceCount{Completed: 0, Total: 1}},
		{"too many parts", "1/2/3", AttendanceCount{Completed: 0, Total: 1}},
		{"non numeric", "a/b", AttendanceCount{Completed: 0, Total: 1}},
		{"negative completed", "-1/10", AttendanceCount{Completed: 0, Total: 1}},
		{"empty", "", AttendanceCount{Completed: 0, Total: 1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseAttendanceCount(tc.input)
			if got != tc.want {
				t.Fatalf("ParseAttendanceCount(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestAttendanceCountComplete(t *testing.T) {
	if (AttendanceCount{Completed: 0, Total: 0}).Complete() {
		t.Fatal("empty contract must not count as complete")
	}
	if (AttendanceCount{Completed: 9, Total: 10}).Complete() {
		t.Fatal("9/10 must not count as complete")
	}
	if !(AttendanceCount{Completed: 10, Total: 10}).Complete() {
		t.Fatal("10/10 must count as complete")
	}
}

func TestAttendanceCountJSONIsPackedString(t *testing.T) {
	data, err := json.Marshal(AttendanceCount{Completed: 4, Total: 18})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `"4/18"` {
		t.Fatalf("expected packed string, got %s", data)
	}

	var count AttendanceCount
	if err := json.Unmarshal([]byte(`"garbage"`), &count); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if count != (AttendanceCount{Completed: 0, Total: 1}) {
		t.Fatalf("malformed packed string should decode as 0/1, got %v", count)
	}
}
