package telemetry

import "strings"

// Circuit is the coarse shape used to synthesise a lap.
type Circuit struct {
	ID       string  `json:"id"`
	Length   float64 `json:"length"` // metres
	Corners  int     `json:"corners"`
	TopSpeed float64 `json:"topSpeed"` // km/h
}

const DefaultCircuit = "default"

var circuits = map[string]Circuit{
	DefaultCircuit: {ID: DefaultCircuit, Length: 5000, Corners: 16, TopSpeed: 320},
	"monaco":       {ID: "monaco", Length: 3337, Corners: 19, TopSpeed: 290},
	"monza":        {ID: "monza", Length: 5793, Corners: 11, TopSpeed: 360},
	"spa":          {ID: "spa", Length: 7004, Corners: 19, TopSpeed: 340},
	"silverstone":  {ID: "silverstone", Length: 5891, Corners: 18, TopSpeed: 330},
	"suzuka":       {ID: "suzuka", Length: 5807, Corners: 18, TopSpeed: 320},
}

// CircuitFor returns the profile of id, or the default profile.
func CircuitFor(id string) Circuit {
	if c, ok := circuits[strings.ToLower(id)]; ok {
		return c
	}
	return circuits[DefaultCircuit]
}

// CircuitIDFromRace guesses the circuit from a race name such as
// "Italian Grand Prix".
func CircuitIDFromRace(raceName string) string {
	name := strings.ToLower(raceName)
	switch {
	case strings.Contains(name, "monaco"):
		return "monaco"
	case strings.Contains(name, "monza"), strings.Contains(name, "italian"):
		return "monza"
	case hasWord(name, "spa"), strings.Contains(name, "belgian"):
		return "spa"
	case strings.Contains(name, "silverstone"), strings.Contains(name, "british"):
		return "silverstone"
	case strings.Contains(name, "suzuka"), strings.Contains(name, "japanese"):
		return "suzuka"
	}
	return DefaultCircuit
}

func hasWord(s, word string) bool {
	for _, w := range strings.Fields(s) {
		if w == word {
			return true
		}
	}
	return false
}
