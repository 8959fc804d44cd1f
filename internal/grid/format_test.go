package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatTime(t *testing.T) {
	cases := map[string]string{
		"":                    "",
		"08:30":               "08:30",
		"08:30:00":            "08:30",
		"1970-01-01T12:10:00": "12:10",
		"8:30":                "8:30",
		"garbage":             "garbage",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatTime(in), in)
	}
}

func TestTimeRange(t *testing.T) {
	assert.Equal(t, "12:10-13:40", TimeRange("12:10:00", "13:40:00"))
	assert.Equal(t, "", TimeRange("", ""))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Главный корпус", Truncate("Главный корпус", 15))
	assert.Equal(t, "Учебно-лаборато...", Truncate("Учебно-лабораторный корпус", 15))
}
