package analysis

import (
	"math"
	"sort"
	"time"
)

// Stat - агрегаты по набору цен.
type Stat struct {
	Mean  float64
	Min   float64
	Max   float64
	Count int
}

func (s *Stat) add(v float64) {
	if s.Count == 0 {
		s.Min, s.Max = v, v
	} else {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	// скользящее среднее
	s.Count++
	s.Mean += (v - s.Mean) / float64(s.Count)
}

type DailyStat struct {
	Date time.Time
	Stat
}

// StatsAdults - цены для дневной статистики берутся по двум взрослым.
const StatsAdults = 2

// ForAdults оставляет наблюдения для одного числа взрослых. Daily, BestWeekday и
// WeekendSplit не различают adults, поэтому фильтровать нужно до них.
func ForAdults(observations []Observation, adults int) []Observation {
	var out []Observation
	for _, o := range observations {
		if o.Adults == adults {
			out = append(out, o)
		}
	}
	return out
}

// Daily группирует наблюдения по дате, по возрастанию даты.
func Daily(observations []Observation) []DailyStat {
	byDate := make(map[time.Time]*DailyStat)
	for _, o := range observations {
		d, ok := byDate[o.Date]
		if !ok {
			d = &DailyStat{Date: o.Date}
			byDate[o.Date] = d
		}
		d.add(o.Scraped)
	}

	out := make([]DailyStat, 0, len(byDate))
	for _, d := range byDate {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// BestWeekday - день недели с минимальной средней ценой. ok=false без наблюдений.
func BestWeekday(observations []Observation) (day time.Weekday, mean float64, ok bool) {
	var byDay [7]Stat
	for _, o := range observations {
		byDay[o.Date.Weekday()].add(o.Scraped)
	}

	for wd, s := range byDay {
		if s.Count == 0 {
			continue
		}
		if !ok || s.Mean < mean {
			day, mean, ok = time.Weekday(wd), s.Mean, true
		}
	}
	return day, mean, ok
}

// WeekendSplit сравнивает будни и выходные (суббота, воскресенье).
func WeekendSplit(observations []Observation) (weekday, weekend Stat) {
	for _, o := range observations {
		switch o.Date.Weekday() {
		case time.Saturday, time.Sunday:
			weekend.add(o.Scraped)
		default:
			weekday.add(o.Scraped)
		}
	}
	return weekday, weekend
}
