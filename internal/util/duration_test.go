package util

import "testing"

func TestParseLectureDuration(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"05:30", 330, false},
		{"0:45", 45, false},
		{"10:00", 600, false},
		{"1:02:03", 3723, false},
		{"00:00", 0, false},
		{"90:00", 5400, false}, // mm:ss 的分钟数不封顶
		{"", 0, true},
		{"99", 0, true},
		{"1:2:3:4", 0, true},
		{"05:60", 0, true},
		{"1:60:00", 0, true},
		{"-1:00", 0, true},
		{"aa:bb", 0, true},
		{"5:", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseLectureDuration(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseLectureDuration(%q): expected error, got %d", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseLectureDuration(%q): %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLectureDuration(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}
