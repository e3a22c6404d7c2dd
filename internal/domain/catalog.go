package domain

import "fmt"

type PracticeRoomCategory string

const (
	PracticeRoomMusic    PracticeRoomCategory = "music"
	PracticeRoomJoint    PracticeRoomCategory = "joint"
	PracticeRoomMeeting  PracticeRoomCategory = "meeting"
	PracticeRoomGroup    PracticeRoomCategory = "group"
	PracticeRoomHall     PracticeRoomCategory = "hall"
	PracticeRoomJapanese PracticeRoomCategory = "japanese"
	PracticeRoomRooftop  PracticeRoomCategory = "rooftop"
)

func (c PracticeRoomCategory) Valid() bool {
	switch c {
	case PracticeRoomMusic, PracticeRoomJoint, PracticeRoomMeeting, PracticeRoomGroup,
		PracticeRoomHall, PracticeRoomJapanese, PracticeRoomRooftop:
		return true
	}
	return false
}

type PracticeRoom struct {
	ID       int32                `json:"id" yaml:"-"`
	Name     string               `json:"name" yaml:"name"`
	Category PracticeRoomCategory `json:"category" yaml:"category"`
}

type PrintRoom struct {
	ID   int32  `json:"id" yaml:"-"`
	Name string `json:"name" yaml:"name"`
}

type StorageUnit struct {
	ID   int32  `json:"id" yaml:"-"`
	Name string `json:"name" yaml:"name"`
}

// Catalog is the set of fixed resources provisioned at startup.
type Catalog struct {
	PracticeRooms []PracticeRoom `yaml:"practice_rooms"`
	PrintRooms    []PrintRoom    `yaml:"print_rooms"`
	StorageUnits  []StorageUnit  `yaml:"storage_units"`
}

// DefaultCatalog is the campus resource set used when no catalog file is
// configured.
func DefaultCatalog() *Catalog {
	c := &Catalog{}
	add := func(name string, category PracticeRoomCategory) {
		c.PracticeRooms = append(c.PracticeRooms, PracticeRoom{Name: name, Category: category})
	}
	for i := 1; i <= 6; i++ {
		add(fmt.Sprintf("Music Practice Room %d", i), PracticeRoomMusic)
	}
	for _, letter := range []string{"A", "B", "C", "D", "E"} {
		add("Joint Practice Room "+letter, PracticeRoomJoint)
	}
	add("Main Hall", PracticeRoomHall)
	for i := 1; i <= 6; i++ {
		add(fmt.Sprintf("Meeting Room %d", i), PracticeRoomMeeting)
	}
	for i := 1; i <= 6; i++ {
		add(fmt.Sprintf("Group Practice Room %d", i), PracticeRoomGroup)
	}
	add("Japanese Room", PracticeRoomJapanese)
	add("Rooftop", PracticeRoomRooftop)

	for i := 1; i <= 10; i++ {
		c.StorageUnits = append(c.StorageUnits, StorageUnit{Name: fmt.Sprintf("Storage %d", i)})
	}
	c.StorageUnits = append(c.StorageUnits, StorageUnit{Name: "New Storage"})
	c.PrintRooms = []PrintRoom{{Name: "Print Room"}}
	return c
}
