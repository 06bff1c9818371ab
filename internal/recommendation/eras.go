package recommendation

import (
	"strings"
)

// EraAny disables year filtering.
const EraAny = "any"

// Era is a selectable release period. Floor and Ceiling are a few years
// wider than the nominal range so boundary-year classics are kept.
// A Ceiling of zero means no upper bound.
type Era struct {
	Tag     string
	Label   string
	Floor   int
	Ceiling int
}

var eras = []Era{
	{Tag: "1970-1989", Label: "1970s and 1980s", Floor: 1967, Ceiling: 1992},
	{Tag: "1990-1999", Label: "1990s", Floor: 1987, Ceiling: 2002},
	{Tag: "2000-2009", Label: "2000s", Floor: 1997, Ceiling: 2012},
	{Tag: "2010-2019", Label: "2010s", Floor: 2007, Ceiling: 2022},
	{Tag: "2020-present", Label: "2020 to present", Floor: 2017},
}

func LookupEra(tag string) (Era, bool) {
	for _, e := range eras {
		if e.Tag == tag {
			return e, true
		}
	}
	return Era{}, false
}

// Eras returns the known era table.
func Eras() []Era {
	out := make([]Era, len(eras))
	copy(out, eras)
	return out
}

func (e Era) Contains(year int) bool {
	if year < e.Floor {
		return false
	}
	return e.Ceiling == 0 || year <= e.Ceiling
}

func anyEra(tags []string) bool {
	for _, t := range tags {
		if t == EraAny {
			return true
		}
	}
	return false
}

// yearInEras reports whether year falls in at least one selected band.
func yearInEras(year int, tags []string) bool {
	if anyEra(tags) {
		return true
	}
	for _, tag := range tags {
		if e, ok := LookupEra(tag); ok && e.Contains(year) {
			return true
		}
	}
	return false
}

func eraLabels(tags []string) string {
	if anyEra(tags) {
		return "any release year"
	}
	labels := make([]string, 0, len(tags))
	for _, tag := range tags {
		if e, ok := LookupEra(tag); ok {
			labels = append(labels, e.Label)
		}
	}
	return strings.Join(labels, ", ")
}
