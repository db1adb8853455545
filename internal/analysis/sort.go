package analysis

import (
	"fmt"
	"sort"
	"strings"
)

type SortKey string

const (
	SortByName       SortKey = "name"
	SortByType       SortKey = "type"
	SortByPrivate    SortKey = "private"
	SortByShared     SortKey = "shared"
	SortByShared1    SortKey = "shared1"
	SortByNet        SortKey = "net"
	SortByNetShared  SortKey = "net_shared"
	SortByNetShared1 SortKey = "net_shared1"
)

func SortKeys() []SortKey {
	return []SortKey{SortByName, SortByType, SortByPrivate, SortByShared, SortByShared1, SortByNet, SortByNetShared, SortByNetShared1}
}

func ParseSortKey(s string) (SortKey, error) {
	key := SortKey(strings.ToLower(strings.TrimSpace(s)))
	for _, k := range SortKeys() {
		if k == key {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// value возвращает числовое значение для ключа; ok=false - цены нет.
func (k SortKey) value(r Row) (float64, bool) {
	var p *Price
	net := false
	switch k {
	case SortByPrivate:
		p = r.Private2
	case SortByShared:
		p = r.Shared2
	case SortByShared1:
		p = r.Shared1
	case SortByNet:
		p, net = r.Private2, true
	case SortByNetShared:
		p, net = r.Shared2, true
	case SortByNetShared1:
		p, net = r.Shared1, true
	}
	if p == nil {
		return 0, false
	}
	if net {
		return p.Net, true
	}
	return p.Gross, true
}

// SortRows сортирует строки на месте (стабильно). Строки без значения всегда в конце.
func SortRows(rows []Row, key SortKey, desc bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch key {
		case SortByName:
			if desc {
				return strings.ToLower(a.Name) > strings.ToLower(b.Name)
			}
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		case SortByType:
			if desc {
				return a.Category > b.Category
			}
			return a.Category < b.Category
		}

		va, okA := key.value(a)
		vb, okB := key.value(b)
		if okA != okB {
			return okA
		}
		if !okA {
			return false
		}
		if desc {
			return va > vb
		}
		return va < vb
	})
}
