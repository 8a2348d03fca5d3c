package helper

import (
	"fmt"
	"hash/fnv"
	"math"
	"strconv"
	"strings"
)

// ParseRaceTime converts a race time string into seconds. It accepts "ss.xxx"
// and "mm:ss.xxx". Anything else, including an empty string, yields NaN so
// callers can treat it as a missing value.
func ParseRaceTime(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	parts := strings.Split(s, ":")
	switch len(parts) {
	case 1:
		return parseSeconds(parts[0])
	case 2:
		minutes := parseSeconds(parts[0])
		seconds := parseSeconds(parts[1])
		if math.IsNaN(minutes) || math.IsNaN(seconds) {
			return math.NaN()
		}
		return minutes*60 + seconds
	}
	return math.NaN()
}

func parseSeconds(token string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(token), 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return math.NaN()
	}
	return v
}

// FormatRaceTime renders seconds as "m:ss.xxx". The value is rounded to the
// millisecond first so that 59.9996 becomes "1:00.000" and not "0:60.000".
func FormatRaceTime(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return "-"
	}
	millis := int64(math.Round(seconds * 1000))
	minutes := millis / 60000
	rest := millis % 60000
	return fmt.Sprintf("%d:%02d.%03d", minutes, rest/1000, rest%1000)
}

// IsValidLapTime reports whether a parsed lap time can be used as race data.
// Laps at or over 200 seconds are red flags, safety cars or timing glitches.
func IsValidLapTime(seconds float64) bool {
	return !math.IsNaN(seconds) && seconds > 0 && seconds < 200
}

func SecondsToDiff(seconds float64) string {
	if math.IsNaN(seconds) {
		return "-"
	}
	diff := fmt.Sprintf("+%.3fs", seconds)
	if seconds < 0 {
		diff = fmt.Sprintf("%.3fs", seconds)
	}
	chars := len(diff)
	if chars < 9 {
		// add spaces to the left
		diff = strings.Repeat(" ", 9-chars) + diff
	}
	return diff
}

// method to convert to seconds and 3 milliseconds
func ToSectorTime(t float64) string {
	if math.IsNaN(t) || t <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.3f", t)
}

func GetDriverCodeName(name string) string {
	// reads a name with possible surname (or an ergast id like "max_verstappen")
	// and returns the first letter of the name and the first 2 letters of the surname
	if name == "" {
		return ""
	}
	words := strings.Fields(strings.ReplaceAll(name, "_", " "))
	if len(words) == 0 {
		return ""
	}
	// a single word id is usually the surname ("hamilton" -> "HAM")
	if len(words) == 1 {
		if len(words[0]) > 3 {
			return strings.ToUpper(words[0][:3])
		}
		return strings.ToUpper(words[0])
	}
	code := string(words[0][0])
	last := words[len(words)-1]
	if len(last) > 2 {
		code += last[:2]
	} else {
		code += last
	}
	return strings.ToUpper(code)
}

// convert name to a hash
func ToID(name string) string {
	h := fnv.New32a()
	h.Write([]byte(name))
	return fmt.Sprint(h.Sum32())
}
