package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestDate_JSON(t *testing.T) {
	d := NewDate(2024, time.February, 29)

	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"2024-02-29"` {
		t.Errorf("unexpected json %s", b)
	}

	var zero Date
	b, _ = json.Marshal(zero)
	if string(b) != "null" {
		t.Errorf("zero date should marshal to null, got %s", b)
	}
}

func TestDate_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"date", `"2024-03-05"`, "2024-03-05", false},
		{"timestamp", `"2024-03-05T22:10:00Z"`, "2024-03-05", false},
		{"null", `null`, "", false},
		{"garbage", `"05/03/2024"`, "", true},
		{"number", `20240305`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			err := json.Unmarshal([]byte(tt.in), &d)
			if tt.wantErr {
				var ve *ErrValidation
				if !errors.As(err, &ve) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d.String() != tt.want {
				t.Errorf("expected %q, got %q", tt.want, d.String())
			}
		})
	}
}

func TestDate_Scan(t *testing.T) {
	tests := []struct {
		name string
		src  any
		want string
	}{
		{"string", "2024-01-31", "2024-01-31"},
		{"bytes", []byte("2024-01-31"), "2024-01-31"},
		{"time", time.Date(2024, 1, 31, 18, 0, 0, 0, time.UTC), "2024-01-31"},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			if err := d.Scan(tt.src); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d.String() != tt.want {
				t.Errorf("expected %q, got %q", tt.want, d.String())
			}
		})
	}

	var d Date
	if err := d.Scan(42); err == nil {
		t.Error("expected error scanning an int")
	}
}

func TestDate_Midnight(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	m := NewDate(2024, time.May, 1).Midnight(loc)

	if m.Location() != loc || m.Hour() != 0 || m.Day() != 1 {
		t.Errorf("unexpected midnight %v", m)
	}
}

func TestDateOf_KeepsLocalCalendarDay(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)
	d := DateOf(time.Date(2024, time.March, 1, 1, 0, 0, 0, loc))

	if d.String() != "2024-03-01" {
		t.Errorf("expected 2024-03-01, got %s", d)
	}
}
