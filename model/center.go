package model

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownCenter = errors.New("unknown exam center")

// Center is a practical exam center. The value is the center ID used by the
// exams API.
type Center int

const (
	Kutaisi     Center = 2
	Batumi      Center = 3
	Telavi      Center = 4
	Akhaltsikhe Center = 5
	Zugdidi     Center = 6
	Gori        Center = 7
	Poti        Center = 8
	Ozurgeti    Center = 9
	Sachkhere   Center = 10
	Rustavi     Center = 15
)

var centers = []Center{Kutaisi, Batumi, Telavi, Akhaltsikhe, Zugdidi, Gori, Poti, Ozurgeti, Sachkhere, Rustavi}

// AllCenters returns every known center in registry order.
func AllCenters() []Center {
	out := make([]Center, len(centers))
	copy(out, centers)
	return out
}

func (c Center) ID() int {
	return int(c)
}

func (c Center) String() string {
	switch c {
	case Kutaisi:
		return "KUTAISI"
	case Batumi:
		return "BATUMI"
	case Telavi:
		return "TELAVI"
	case Akhaltsikhe:
		return "AKHALTSIKHE"
	case Zugdidi:
		return "ZUGDIDI"
	case Gori:
		return "GORI"
	case Poti:
		return "POTI"
	case Ozurgeti:
		return "OZURGETI"
	case Sachkhere:
		return "SACHKHERE"
	case Rustavi:
		return "RUSTAVI"
	}
	return fmt.Sprintf("Center(%d)", int(c))
}

// DisplayName is the capitalised name shown in notifications, e.g. "Gori".
func (c Center) DisplayName() string {
	name := c.String()
	if !c.Valid() {
		return name
	}
	return name[:1] + strings.ToLower(name[1:])
}

func (c Center) Valid() bool {
	for _, known := range centers {
		if c == known {
			return true
		}
	}
	return false
}

func ParseCenter(name string) (Center, error) {
	name = strings.TrimSpace(name)
	for _, c := range centers {
		if strings.EqualFold(c.String(), name) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCenter, name)
}

// ParseCenters parses a `;` separated list of center names. Empty items are skipped.
func ParseCenters(list string) ([]Center, error) {
	var out []Center
	for _, name := range strings.Split(list, ";") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		c, err := ParseCenter(name)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
