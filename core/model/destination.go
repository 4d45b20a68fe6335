package model

// Zone is a named cleaning area of the robot's map.
type Zone struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	RoomID   int      `json:"room_id"`
	Synonyms []string `json:"synonyms"`
}

// DestinationKind tells the dispatcher which verb to use.
type DestinationKind int

const (
	DestinationZone DestinationKind = iota
	DestinationDock
)

// String returns a human-readable representation of the kind.
func (k DestinationKind) String() string {
	switch k {
	case DestinationZone:
		return "zone"
	case DestinationDock:
		return "dock"
	default:
		return "unknown"
	}
}

// Destination is a resolved dispatch target. RoomID is only meaningful for
// zones; the dock never carries one.
type Destination struct {
	Kind   DestinationKind `json:"kind"`
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	RoomID int             `json:"room_id,omitempty"`
}

// IsDock reports whether the destination is the charging base.
func (d Destination) IsDock() bool { return d.Kind == DestinationDock }

// ZoneDestination builds the destination for a zone.
func ZoneDestination(z Zone) Destination {
	return Destination{Kind: DestinationZone, ID: z.ID, Name: z.Name, RoomID: z.RoomID}
}

// DockDestination builds the destination for the charging base.
func DockDestination(id, name string) Destination {
	return Destination{Kind: DestinationDock, ID: id, Name: name}
}

var (
	dockTerminal = map[Status]bool{StatusDocked: true, StatusCharging: true}
	zoneTerminal = map[Status]bool{StatusIdle: true, StatusDocked: true}
)

// IsTerminal reports whether status means a task sent to d has finished.
// Returning to the dock ends on docked or charging; cleaning a zone ends on
// idle or docked.
func (d Destination) IsTerminal(s Status) bool {
	if d.IsDock() {
		return dockTerminal[s]
	}
	return zoneTerminal[s]
}
