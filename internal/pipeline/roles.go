package pipeline

import (
	"strings"

	"github.com/KaramelBytes/sentinel-cli/internal/frame"
)

// Role is the dataset slot a file fills.
type Role string

const (
	Unassigned  Role = ""
	Enrollment  Role = "enrol"
	Demographic Role = "demo"
	Biometric   Role = "bio"
)

// ClassifyRole guesses a file's role from its name: "enrol", then "demo",
// then "bio", case-insensitively.
func ClassifyRole(filename string) Role {
	name := strings.ToLower(filename)
	switch {
	case strings.Contains(name, "enrol"):
		return Enrollment
	case strings.Contains(name, "demo"):
		return Demographic
	case strings.Contains(name, "bio"):
		return Biometric
	default:
		return Unassigned
	}
}

// Slots holds at most one frame per role.
type Slots struct {
	Enrol *frame.Frame
	Demo  *frame.Frame
	Bio   *frame.Frame
}

// FileAssignment records where an input file ended up.
type FileAssignment struct {
	Name string `json:"name" yaml:"name"`
	Role Role   `json:"role" yaml:"role"`
}

// Assign places frames into slots in order. A named role replaces an
// earlier frame of the same role. Unmatched frames take the first empty slot
// among enrollment, demographic and biometric, and replace the biometric
// frame once all three are filled.
func Assign(frames []*frame.Frame) (Slots, []FileAssignment) {
	var s Slots
	out := make([]FileAssignment, 0, len(frames))
	for _, f := range frames {
		role := ClassifyRole(f.Name)
		if role == Unassigned {
			switch {
			case s.Enrol == nil:
				role = Enrollment
			case s.Demo == nil:
				role = Demographic
			default:
				role = Biometric
			}
		}
		switch role {
		case Enrollment:
			s.Enrol = f
		case Demographic:
			s.Demo = f
		case Biometric:
			s.Bio = f
		}
		out = append(out, FileAssignment{Name: f.Name, Role: role})
	}
	return s, out
}

// Single picks the frame for single-dataset mode: enrollment, then
// demographic, then biometric.
func (s Slots) Single() (*frame.Frame, Role) {
	switch {
	case s.Enrol != nil:
		return s.Enrol, Enrollment
	case s.Demo != nil:
		return s.Demo, Demographic
	default:
		return s.Bio, Biometric
	}
}
