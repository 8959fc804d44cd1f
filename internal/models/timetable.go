package models

// TimeSlot places an event on a civil date and pair number. Values are kept
// as received; the grid decides what it can place.
type TimeSlot struct {
	ID         int64  `json:"id"`
	Date       string `json:"date"`
	PairNumber int    `json:"pair_number"`
	TimeStart  string `json:"time_start"`
	TimeEnd    string `json:"time_end"`
}

// DisciplineRef is the discipline embedded in an event.
type DisciplineRef struct {
	ID   int64  `json:"id" validate:"required,gt=0"`
	Name string `json:"name" validate:"required"`
}

// WorkKindRef is the kind of class with its display colour.
type WorkKindRef struct {
	ID       int64  `json:"id" validate:"required,gt=0"`
	Name     string `json:"name" validate:"required"`
	ColorHex string `json:"color_hex"`
}

// BuildingRef is the building embedded in a room.
type BuildingRef struct {
	ID      int64  `json:"id" validate:"required,gt=0"`
	Name    string `json:"name" validate:"required"`
	Address string `json:"address,omitempty"`
}

// RoomRef is the room embedded in an event.
type RoomRef struct {
	ID       int64        `json:"id" validate:"required,gt=0"`
	Number   string       `json:"number" validate:"required"`
	Building *BuildingRef `json:"building,omitempty" validate:"omitempty"`
}

type LecturerRef struct {
	ID  int64  `json:"id" validate:"required,gt=0"`
	FIO string `json:"fio" validate:"required"`
}

type GroupRef struct {
	ID   int64  `json:"id" validate:"required,gt=0"`
	Code string `json:"code" validate:"required"`
}

type SubgroupRef struct {
	ID   int64  `json:"id" validate:"required,gt=0"`
	Code string `json:"code"`
}

type StreamRef struct {
	ID   int64  `json:"id" validate:"required,gt=0"`
	Name string `json:"name"`
}

// Event is one scheduled class as returned by the timetable endpoint.
type Event struct {
	ID                  int64          `json:"id" validate:"required,gt=0"`
	DisciplineID        int64          `json:"discipline_id"`
	WorkKindID          int64          `json:"work_kind_id"`
	RoomID              int64          `json:"room_id"`
	TimeSlotID          int64          `json:"time_slot_id"`
	Status              string         `json:"status"`
	Note                *string        `json:"note,omitempty"`
	Discipline          *DisciplineRef `json:"discipline,omitempty" validate:"omitempty"`
	WorkKind            *WorkKindRef   `json:"work_kind,omitempty" validate:"omitempty"`
	Room                *RoomRef       `json:"room,omitempty" validate:"omitempty"`
	TimeSlot            *TimeSlot      `json:"time_slot,omitempty"`
	Lecturers           []LecturerRef  `json:"lecturers" validate:"dive"`
	Groups              []GroupRef     `json:"groups" validate:"dive"`
	Subgroups           []SubgroupRef  `json:"subgroups" validate:"dive"`
	Streams             []StreamRef    `json:"streams" validate:"dive"`
	HasConflict         bool           `json:"has_conflict"`
	ConflictingEventIDs []int64        `json:"conflicting_event_ids,omitempty"`
}

// DisciplineName falls back to a generic label when the discipline is absent.
func (e Event) DisciplineName() string {
	if e.Discipline == nil || e.Discipline.Name == "" {
		return "Дисциплина"
	}
	return e.Discipline.Name
}

// Color is the work kind colour or the neutral default.
func (e Event) Color() string {
	if e.WorkKind == nil || e.WorkKind.ColorHex == "" {
		return DefaultEventColor
	}
	return e.WorkKind.ColorHex
}

// DefaultEventColor is used for events without a work kind colour.
const DefaultEventColor = "#6c757d"
