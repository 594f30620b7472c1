package models

import "fmt"

// Persona is one of the four fixed conversational roles. It is a closed
// enumeration: every place that renders a prompt or routes a message
// switches over these values explicitly.
type Persona int

const (
	PersonaMentor Persona = iota
	PersonaPeer
	PersonaProgress
	PersonaEval
)

func AllPersonas() []Persona {
	return []Persona{PersonaMentor, PersonaPeer, PersonaProgress, PersonaEval}
}

func (p Persona) String() string {
	switch p {
	case PersonaMentor:
		return "mentor"
	case PersonaPeer:
		return "peer"
	case PersonaProgress:
		return "progress"
	case PersonaEval:
		return "eval"
	default:
		return "unknown"
	}
}

func (p Persona) DisplayName() string {
	switch p {
	case PersonaMentor:
		return "Mentor Agent"
	case PersonaPeer:
		return "Peer Agent"
	case PersonaProgress:
		return "Progress Agent"
	case PersonaEval:
		return "Evaluator Agent"
	default:
		return "Unknown Agent"
	}
}

func ParsePersona(key string) (Persona, error) {
	switch key {
	case "mentor":
		return PersonaMentor, nil
	case "peer":
		return PersonaPeer, nil
	case "progress":
		return PersonaProgress, nil
	case "eval":
		return PersonaEval, nil
	default:
		return PersonaMentor, fmt.Errorf("unknown persona: %s", key)
	}
}
