package nmc

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// missingValue is what NMC puts in numeric and text fields it has no reading for.
const missingValue = 9999

// flexNumber decodes a JSON number or a numeric-looking string and never fails,
// so a bad optional field cannot break the whole document.
type flexNumber struct {
	value   float64
	present bool
	ok      bool
}

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	n.present = true

	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		s = strings.TrimSpace(s)
		if s == "" || s == "-" {
			n.present = false
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		n.value, n.ok = v, true
		return nil
	}

	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return nil
	}
	n.value, n.ok = v, true
	return nil
}

// required returns the value or a MalformedPayloadError naming field.
// The 9999 sentinel counts as missing.
func (n flexNumber) required(field string) (float64, error) {
	switch {
	case !n.present, n.ok && n.value == missingValue:
		return 0, malformed(field, errMissing)
	case !n.ok:
		return 0, malformed(field, errWrongType)
	}
	return n.value, nil
}

// optional returns nil for absent, unparsable or sentinel values.
func (n flexNumber) optional() *float64 {
	if !n.ok || n.value == missingValue {
		return nil
	}
	v := n.value
	return &v
}

// flexString accepts JSON strings and numbers.
type flexString struct {
	value   string
	present bool
	ok      bool
}

func (s *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	s.present = true

	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		s.value, s.ok = strings.TrimSpace(str), true
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err == nil {
		s.value, s.ok = num.String(), true
	}
	return nil
}

func (s flexString) required(field string) (string, error) {
	switch {
	case !s.present:
		return "", malformed(field, errMissing)
	case !s.ok:
		return "", malformed(field, errWrongType)
	}
	return s.value, nil
}

// optional drops the provider's "9999" placeholder.
func (s flexString) optional() string {
	if !s.ok || s.value == strconv.Itoa(missingValue) {
		return ""
	}
	return s.value
}

// lenient decodes T when it can and silently leaves it empty otherwise.
type lenient[T any] struct {
	v  T
	ok bool
}

func (l *lenient[T]) UnmarshalJSON(b []byte) error {
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return nil
	}
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil
	}
	l.v, l.ok = v, true
	return nil
}

const kmhPerMs = 3.6

func roundTo(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}

func msToKmh(v *float64) *float64 {
	if v == nil {
		return nil
	}
	kmh := roundTo(*v*kmhPerMs, 1)
	return &kmh
}

// beaufortKmh holds the midpoint of each Beaufort class in km/h.
var beaufortKmh = [...]float64{0.5, 3, 8.5, 15.5, 24, 33.5, 44, 55.5, 68, 81.5, 95.5, 110, 118}

// calmGrade is used for "微风", which NMC reports for anything below grade 3.
const calmGrade = 2

var gradePattern = regexp.MustCompile(`\d+`)

// powerToKmh turns texts like "3级", "3~4级", "<3级" or "微风" into km/h.
func powerToKmh(power string) *float64 {
	power = strings.TrimSpace(power)
	if power == "" || power == strconv.Itoa(missingValue) {
		return nil
	}

	var grades []int
	for _, m := range gradePattern.FindAllString(power, -1) {
		g, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		grades = append(grades, min(g, len(beaufortKmh)-1))
	}
	if len(grades) == 0 {
		if !strings.Contains(power, "微风") {
			return nil
		}
		grades = []int{calmGrade}
	}

	var sum float64
	for _, g := range grades {
		sum += beaufortKmh[g]
	}
	kmh := roundTo(sum/float64(len(grades)), 1)
	return &kmh
}

var compass = map[string]float64{
	"北":   0,
	"北东北": 22.5,
	"东北":  45,
	"东东北": 67.5,
	"东":   90,
	"东东南": 112.5,
	"东南":  135,
	"南东南": 157.5,
	"南":   180,
	"南西南": 202.5,
	"西南":  225,
	"西西南": 247.5,
	"西":   270,
	"西西北": 292.5,
	"西北":  315,
	"北西北": 337.5,
}

// directionToBearing converts "东北风" style text to degrees; calm or variable
// wind ("无持续风向", "旋转风") has no bearing.
func directionToBearing(direct string) *float64 {
	d := strings.TrimSuffix(strings.TrimSpace(direct), "风")
	deg, ok := compass[d]
	if !ok {
		return nil
	}
	return &deg
}
