package dates

import (
	"fmt"
	"time"
)

// MaxCalendarDays - Booking отдаёт не больше 30 дней за один запрос календаря.
const MaxCalendarDays = 30

// Window is an inclusive range of check-in dates. Start == End means a single day.
type Window struct {
	Start time.Time
	End   time.Time
}

func SingleDay(day time.Time) Window {
	d := truncate(day)
	return Window{Start: d, End: d}
}

func NewWindow(start, end time.Time) (Window, error) {
	start, end = truncate(start), truncate(end)
	if end.Before(start) {
		return Window{}, fmt.Errorf("end date %s must not be before start date %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	return Window{Start: start, End: end}, nil
}

// Days returns the number of check-in dates in the window.
func (w Window) Days() int {
	return int(w.End.Sub(w.Start).Hours()/24) + 1
}

func (w Window) IsRange() bool {
	return !w.End.Equal(w.Start)
}

// CalendarDays ограничивает длину запроса лимитом Booking.
func (w Window) CalendarDays() int {
	n := w.Days()
	if n > MaxCalendarDays {
		return MaxCalendarDays
	}
	if n < 1 {
		return 1
	}
	return n
}

func (w Window) String() string {
	if !w.IsRange() {
		return w.Start.Format("2006-01-02")
	}
	return fmt.Sprintf("%s..%s", w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"))
}
