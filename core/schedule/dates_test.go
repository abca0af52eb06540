package schedule

import "testing"

func TestParseClock(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int
		wantErr bool
	}{
		{name: "midnight", in: "00:00", want: 0},
		{name: "morning", in: "08:30", want: 510},
		{name: "last minute", in: "23:59", want: 1439},
		{name: "hour out of range", in: "24:00", wantErr: true},
		{name: "minute out of range", in: "10:60", wantErr: true},
		{name: "missing minutes", in: "10", wantErr: true},
		{name: "not a clock", in: "lunch", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseClock(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseClock(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestTimeRangeOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b TimeRange
		want bool
	}{
		{name: "disjoint", a: TimeRange{"08:00", "09:00"}, b: TimeRange{"10:00", "11:00"}, want: false},
		{name: "touching bounds do not overlap", a: TimeRange{"08:00", "09:00"}, b: TimeRange{"09:00", "10:00"}, want: false},
		{name: "partial overlap", a: TimeRange{"08:00", "09:30"}, b: TimeRange{"09:00", "10:00"}, want: true},
		{name: "contained", a: TimeRange{"08:00", "12:00"}, b: TimeRange{"09:00", "10:00"}, want: true},
		{name: "identical", a: TimeRange{"08:00", "09:00"}, b: TimeRange{"08:00", "09:00"}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.want {
				t.Errorf("Overlaps() = %v, want %v", got, tt.want)
			}
			if got := tt.b.Overlaps(tt.a); got != tt.want {
				t.Errorf("Overlaps() reversed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDateDayName(t *testing.T) {
	// 2025-01-04 is a saturday
	if got := NewDate(2025, 1, 4).DayName(); got != "saturday" {
		t.Errorf("DayName() = %q, want %q", got, "saturday")
	}
	if got := NewDate(2025, 1, 5).DayName(); got != "sunday" {
		t.Errorf("DayName() = %q, want %q", got, "sunday")
	}
}
