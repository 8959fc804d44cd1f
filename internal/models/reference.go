package models

// Building is an entry of the buildings reference list.
type Building struct {
	ID      int64    `json:"id" validate:"required,gt=0"`
	Name    string   `json:"name" validate:"required"`
	Code    *string  `json:"code,omitempty"`
	Address string   `json:"address"`
	Lat     *float64 `json:"lat,omitempty"`
	Lon     *float64 `json:"lon,omitempty"`
}

type Group struct {
	ID     int64  `json:"id" validate:"required,gt=0"`
	Code   string `json:"code" validate:"required"`
	Name   string `json:"name"`
	Year   *int   `json:"year,omitempty"`
	Active bool   `json:"active"`
}

type Lecturer struct {
	ID     int64   `json:"id" validate:"required,gt=0"`
	FIO    string  `json:"fio" validate:"required"`
	Chair  *string `json:"chair,omitempty"`
	Email  *string `json:"email,omitempty"`
	Phone  *string `json:"phone,omitempty"`
	Active bool    `json:"active"`
}

type WorkKind struct {
	ID       int64  `json:"id" validate:"required,gt=0"`
	Name     string `json:"name" validate:"required"`
	ColorHex string `json:"color_hex"`
	Active   bool   `json:"active"`
}

type Room struct {
	ID         int64  `json:"id" validate:"required,gt=0"`
	BuildingID int64  `json:"building_id"`
	Number     string `json:"number" validate:"required"`
	Capacity   int    `json:"capacity"`
	Type       string `json:"type"`
	Active     bool   `json:"active"`
}

type Stream struct {
	ID     int64  `json:"id" validate:"required,gt=0"`
	Name   string `json:"name" validate:"required"`
	Active bool   `json:"active"`
}

// References bundles the lists used to populate the filter bar.
type References struct {
	Buildings []Building `json:"buildings"`
	Groups    []Group    `json:"groups"`
	Lecturers []Lecturer `json:"lecturers"`
	WorkKinds []WorkKind `json:"work_kinds"`
	Rooms     []Room     `json:"rooms"`
	Streams   []Stream   `json:"streams"`
}

// SearchRoom is a room hit of the free-text search.
type SearchRoom struct {
	ID       int64        `json:"id" validate:"required,gt=0"`
	Number   string       `json:"number"`
	Building *BuildingRef `json:"building,omitempty" validate:"omitempty"`
}

type SearchDiscipline struct {
	ID        int64   `json:"id" validate:"required,gt=0"`
	Name      string  `json:"name"`
	ShortName *string `json:"short_name,omitempty"`
}

// SearchResult groups the hits of the free-text search by entity.
type SearchResult struct {
	Lecturers   []Lecturer         `json:"lecturers" validate:"dive"`
	Groups      []Group            `json:"groups" validate:"dive"`
	Disciplines []SearchDiscipline `json:"disciplines" validate:"dive"`
	Rooms       []SearchRoom       `json:"rooms" validate:"dive"`
	Buildings   []Building         `json:"buildings" validate:"dive"`
}

// Total counts every hit.
func (r SearchResult) Total() int {
	return len(r.Lecturers) + len(r.Groups) + len(r.Disciplines) + len(r.Rooms) + len(r.Buildings)
}
