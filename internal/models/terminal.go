package models

// TerminalStatus is the operational state of a capture device.
type TerminalStatus string

const (
	TerminalOnline  TerminalStatus = "online"
	TerminalOffline TerminalStatus = "offline"
)

// TerminalPlacement locates a terminal physically.
type TerminalPlacement string

const (
	PlacementPortaria TerminalPlacement = "portaria" // school gate, serves everyone
	PlacementSala     TerminalPlacement = "sala"     // classroom mounted
)

// TerminalFunction restricts which event kinds a terminal may capture.
type TerminalFunction string

const (
	FunctionEntrada      TerminalFunction = "entrada"
	FunctionSaida        TerminalFunction = "saida"
	FunctionEntradaSaida TerminalFunction = "entrada_saida"
)

// Terminal is a hardware attendance-capture device.
type Terminal struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	IP          string            `json:"ip"`
	Status      TerminalStatus    `json:"status"`
	Placement   TerminalPlacement `json:"placement"`
	ClassroomID *string           `json:"classroom_id,omitempty"`
	Function    TerminalFunction  `json:"function"`
}

// Accepts reports whether the terminal's function covers the event kind.
func (t Terminal) Accepts(kind FrequencyKind) bool {
	switch t.Function {
	case FunctionEntradaSaida:
		return true
	case FunctionEntrada:
		return kind == FrequencyEntrada || kind == FrequencyAtraso
	case FunctionSaida:
		return kind == FrequencySaida || kind == FrequencyEvadido
	default:
		return false
	}
}
