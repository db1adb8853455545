package analysis

import (
	"bcn-hostel-prices/internal/hostels"
)

type RoomKind string

const (
	Private2A RoomKind = "Privado 2A"
	Shared2A  RoomKind = "Compartido 2A"
	Shared1A  RoomKind = "Compartido 1A"
)

func RoomKinds() []RoomKind {
	return []RoomKind{Private2A, Shared2A, Shared1A}
}

// Price возвращает цену строки для типа комнаты или nil.
func (r Row) Price(kind RoomKind) *Price {
	switch kind {
	case Private2A:
		return r.Private2
	case Shared2A:
		return r.Shared2
	case Shared1A:
		return r.Shared1
	}
	return nil
}

// CategorySummary - средние цены по категории хостела и типу комнаты.
type CategorySummary struct {
	Category  hostels.Category
	Kind      RoomKind
	MeanGross float64
	MeanNet   float64
	Count     int
}

// Summarize считает средние по (категория, тип комнаты). Группы без цен не выводятся.
func Summarize(rows []Row) []CategorySummary {
	var out []CategorySummary
	for _, cat := range hostels.Categories() {
		for _, kind := range RoomKinds() {
			s := CategorySummary{Category: cat, Kind: kind}
			var gross, net float64
			for _, r := range rows {
				if r.Category != cat {
					continue
				}
				p := r.Price(kind)
				if p == nil {
					continue
				}
				gross += p.Gross
				net += p.Net
				s.Count++
			}
			if s.Count == 0 {
				continue
			}
			s.MeanGross = gross / float64(s.Count)
			s.MeanNet = net / float64(s.Count)
			out = append(out, s)
		}
	}
	return out
}
