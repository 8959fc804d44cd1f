package grid

import (
	"fmt"
	"os"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"
)

// PeriodCount is the number of pairs in a teaching day.
const PeriodCount = 8

// Period is the canonical wall-clock span of a pair.
type Period struct {
	Number int    `yaml:"number" json:"number"`
	Start  string `yaml:"start" json:"start"`
	End    string `yaml:"end" json:"end"`
}

// Periods is the lookup table of pair times ordered by number.
type Periods []Period

// DefaultPeriods is the standard bell schedule.
var DefaultPeriods = Periods{
	{Number: 1, Start: "08:30", End: "10:00"},
	{Number: 2, Start: "10:10", End: "11:40"},
	{Number: 3, Start: "12:10", End: "13:40"},
	{Number: 4, Start: "14:10", End: "15:40"},
	{Number: 5, Start: "16:00", End: "17:30"},
	{Number: 6, Start: "17:40", End: "19:10"},
	{Number: 7, Start: "19:20", End: "20:50"},
	{Number: 8, Start: "21:00", End: "22:30"},
}

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Lookup returns the period with the given number.
func (p Periods) Lookup(number int) (Period, bool) {
	for _, period := range p {
		if period.Number == number {
			return period, true
		}
	}
	return Period{}, false
}

// Validate checks that every pair 1..PeriodCount is present exactly once with
// HH:mm bounds.
func (p Periods) Validate() error {
	if len(p) != PeriodCount {
		return fmt.Errorf("expected %d periods, got %d", PeriodCount, len(p))
	}
	seen := make(map[int]bool, len(p))
	for _, period := range p {
		if period.Number < 1 || period.Number > PeriodCount {
			return fmt.Errorf("period number %d out of range", period.Number)
		}
		if seen[period.Number] {
			return fmt.Errorf("period %d defined twice", period.Number)
		}
		seen[period.Number] = true
		if !clockPattern.MatchString(period.Start) || !clockPattern.MatchString(period.End) {
			return fmt.Errorf("period %d: times must be HH:mm", period.Number)
		}
		if period.Start >= period.End {
			return fmt.Errorf("period %d: start %s not before end %s", period.Number, period.Start, period.End)
		}
	}
	return nil
}

type periodsFile struct {
	Periods Periods `yaml:"periods"`
}

// LoadPeriods reads a bell schedule from YAML. An empty path yields the
// defaults.
func LoadPeriods(path string) (Periods, error) {
	if path == "" {
		return DefaultPeriods, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read periods file: %w", err)
	}
	return ParsePeriods(raw)
}

// ParsePeriods decodes a YAML bell schedule.
func ParsePeriods(raw []byte) (Periods, error) {
	var file periodsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode periods: %w", err)
	}
	if err := file.Periods.Validate(); err != nil {
		return nil, err
	}
	out := make(Periods, len(file.Periods))
	copy(out, file.Periods)
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}
