package grid

import (
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	shortDayNames = [7]string{"Пн", "Вт", "Ср", "Чт", "Пт", "Сб", "Вс"}
	longDayNames  = [7]string{"понедельник", "вторник", "среда", "четверг", "пятница", "суббота", "воскресенье"}
	monthNames    = [12]string{"января", "февраля", "марта", "апреля", "мая", "июня", "июля", "августа", "сентября", "октября", "ноября", "декабря"}
)

func mondayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// ShortDayName is the two letter weekday abbreviation.
func ShortDayName(t time.Time) string {
	return shortDayNames[mondayIndex(t)]
}

// DayName is the capitalised weekday name.
func DayName(t time.Time) string {
	// Casers keep state and are not shared between goroutines.
	return cases.Title(language.Russian).String(longDayNames[mondayIndex(t)])
}

// DayMonth formats a date as d.MM.
func DayMonth(t time.Time) string {
	return t.Format("2.01")
}

// LongDate formats a date as "10 марта 2025".
func LongDate(t time.Time) string {
	return t.Format("2") + " " + monthNames[t.Month()-1] + " " + t.Format("2006")
}

// WeekTitle describes a week for page headings.
func (g Grid) WeekTitle() string {
	return LongDate(g.Week.Start) + " - " + LongDate(g.Week.End)
}
