package hostels

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/antzucaro/matchr"
	"github.com/titanous/json5"
)

//go:embed defaults.json
var defaultsFile []byte

var ErrNotFound = errors.New("hostel not found")

// minSimilarity - порог Jaro-Winkler для нечёткого поиска по имени.
const minSimilarity = 0.85

type rawHostel struct {
	Name string `json:"name"`
	Type string `json:"type"`
	URL  string `json:"url"`
	Link string `json:"link"`
}

type rawFile struct {
	Hostels *[]rawHostel `json:"hostels"`
}

var ErrNoHostelsKey = errors.New(`object has no "hostels" list`)

// Skipped describes an entry that was dropped while loading.
type Skipped struct {
	Index  int
	Name   string
	Reason error
}

func (s Skipped) Error() string {
	name := s.Name
	if name == "" {
		name = "Unknown"
	}
	return fmt.Sprintf("hostel #%d (%s): %v", s.Index+1, name, s.Reason)
}

// Defaults returns the predefined Barcelona hostel list.
func Defaults() []Hostel {
	hostels, _, err := Parse(defaultsFile)
	if err != nil {
		panic(fmt.Sprintf("embedded hostel list is invalid: %v", err))
	}
	return hostels
}

// Load читает список хостелов из JSON/JSON5 файла.
func Load(path string) ([]Hostel, []Skipped, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read hostel file: %w", err)
	}
	return Parse(data)
}

// Parse accepts either a top-level array or an object with a "hostels" key.
// Entries with no URL or an unknown category are reported in the skipped slice.
func Parse(data []byte) ([]Hostel, []Skipped, error) {
	var raws []rawHostel

	if isArray(data) {
		if err := json5.Unmarshal(data, &raws); err != nil {
			return nil, nil, fmt.Errorf("failed to parse hostel file: %w", err)
		}
	} else {
		var wrapped rawFile
		if err := json5.Unmarshal(data, &wrapped); err != nil {
			return nil, nil, fmt.Errorf("failed to parse hostel file: %w", err)
		}
		if wrapped.Hostels == nil {
			return nil, nil, fmt.Errorf("failed to parse hostel file: %w", ErrNoHostelsKey)
		}
		raws = *wrapped.Hostels
	}

	var (
		hostels []Hostel
		skipped []Skipped
	)
	for i, r := range raws {
		h, err := r.toHostel()
		if err != nil {
			skipped = append(skipped, Skipped{Index: i, Name: r.Name, Reason: err})
			continue
		}
		hostels = append(hostels, h)
	}

	return hostels, skipped, nil
}

// isArray: первый значащий символ '['; комментарии JSON5 пропускаются.
func isArray(data []byte) bool {
	rest := strings.TrimSpace(string(data))
	for {
		switch {
		case strings.HasPrefix(rest, "//"):
			i := strings.IndexByte(rest, '\n')
			if i < 0 {
				return false
			}
			rest = strings.TrimSpace(rest[i+1:])
		case strings.HasPrefix(rest, "/*"):
			i := strings.Index(rest, "*/")
			if i < 0 {
				return false
			}
			rest = strings.TrimSpace(rest[i+2:])
		default:
			return strings.HasPrefix(rest, "[")
		}
	}
}

func (r rawHostel) toHostel() (Hostel, error) {
	url := strings.TrimSpace(r.URL)
	if url == "" {
		url = strings.TrimSpace(r.Link)
	}
	if url == "" {
		return Hostel{}, ErrMissingURL
	}

	category, err := ParseCategory(r.Type)
	if err != nil {
		return Hostel{}, err
	}

	name := strings.TrimSpace(r.Name)
	if name == "" {
		name = "Unknown Hotel"
	}

	return Hostel{Name: name, Category: category, URL: url}, nil
}

// Catalog - редактируемый список хостелов (добавление, правка, удаление, сброс).
type Catalog struct {
	hostels []Hostel
}

func NewCatalog(hostels []Hostel) *Catalog {
	c := &Catalog{}
	c.hostels = append(c.hostels, hostels...)
	return c
}

// OpenCatalog loads path, or the defaults when the file does not exist yet.
func OpenCatalog(path string) (*Catalog, []Skipped, error) {
	if path == "" {
		return NewCatalog(Defaults()), nil, nil
	}
	hostels, skipped, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return NewCatalog(Defaults()), nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return NewCatalog(hostels), skipped, nil
}

func (c *Catalog) List() []Hostel {
	out := make([]Hostel, len(c.hostels))
	copy(out, c.hostels)
	return out
}

func (c *Catalog) Len() int {
	return len(c.hostels)
}

func (c *Catalog) Add(h Hostel) error {
	if err := h.Validate(); err != nil {
		return err
	}
	c.hostels = append(c.hostels, h)
	return nil
}

func (c *Catalog) Update(index int, h Hostel) error {
	if err := c.checkIndex(index); err != nil {
		return err
	}
	if err := h.Validate(); err != nil {
		return err
	}
	c.hostels[index] = h
	return nil
}

func (c *Catalog) Remove(index int) (Hostel, error) {
	if err := c.checkIndex(index); err != nil {
		return Hostel{}, err
	}
	removed := c.hostels[index]
	c.hostels = append(c.hostels[:index], c.hostels[index+1:]...)
	return removed, nil
}

func (c *Catalog) Reset() {
	c.hostels = Defaults()
}

// Find ищет по имени: точное совпадение, затем без регистра и акцентов, затем Jaro-Winkler.
func (c *Catalog) Find(name string) (int, Hostel, error) {
	for i, h := range c.hostels {
		if h.Name == name {
			return i, h, nil
		}
	}

	target := fold(name)
	for i, h := range c.hostels {
		if fold(h.Name) == target {
			return i, h, nil
		}
	}

	best, bestScore := -1, 0.0
	for i, h := range c.hostels {
		score := matchr.JaroWinkler(fold(h.Name), target, false)
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best >= 0 && bestScore >= minSimilarity {
		return best, c.hostels[best], nil
	}

	return -1, Hostel{}, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Save пишет список в формате {"hostels": [...]}, который читает Load.
func (c *Catalog) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create hostel file directory: %w", err)
		}
	}

	payload := struct {
		Hostels []Hostel `json:"hostels"`
	}{Hostels: c.List()}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode hostels: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write hostel file: %w", err)
	}
	return nil
}

func (c *Catalog) checkIndex(index int) error {
	if index < 0 || index >= len(c.hostels) {
		return fmt.Errorf("%w: index %d out of range (1..%d)", ErrNotFound, index+1, len(c.hostels))
	}
	return nil
}

// NameSimilarity is used to flag a catalog name that differs from the one Booking reports.
func NameSimilarity(a, b string) float64 {
	return matchr.JaroWinkler(fold(a), fold(b), false)
}
