package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Store struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	Name     string `gorm:"column:name;not null" json:"name"`
	Timezone string `gorm:"column:timezone;not null;default:'UTC'" json:"timezone"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Store) TableName() string { return "store" }

// Zone is a rectangular region of the store floor. Zones may overlap only at
// boundaries; every furniture or product placement references exactly one zone.
type Zone struct {
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StoreID uuid.UUID `gorm:"type:uuid;not null;index" json:"store_id"`

	Name string `gorm:"column:name;not null" json:"name"`
	Type string `gorm:"column:type;not null;default:'display';index" json:"type"` // entrance | checkout | display | aisle | premium | storage

	X     float64 `gorm:"column:x;not null;default:0" json:"x"`
	Z     float64 `gorm:"column:z;not null;default:0" json:"z"`
	Width float64 `gorm:"column:width;not null;default:0" json:"width"`
	Depth float64 `gorm:"column:depth;not null;default:0" json:"depth"`

	// DwellCapacity is the number of customers the zone absorbs per hour
	// before it congests.
	DwellCapacity int `gorm:"column:dwell_capacity;not null;default:50" json:"dwell_capacity"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Zone) TableName() string { return "zone" }

func (z *Zone) IsEntrance() bool { return z != nil && z.Type == "entrance" }
func (z *Zone) IsCheckout() bool { return z != nil && z.Type == "checkout" }

// Adjacent reports whether two zones share a boundary on the floor plan.
func (z *Zone) Adjacent(o *Zone) bool {
	if z == nil || o == nil || z.ID == o.ID {
		return false
	}
	xOverlap := z.X < o.X+o.Width && o.X < z.X+z.Width
	zOverlap := z.Z < o.Z+o.Depth && o.Z < z.Z+z.Depth
	touchX := z.X+z.Width == o.X || o.X+o.Width == z.X
	touchZ := z.Z+z.Depth == o.Z || o.Z+o.Depth == z.Z
	return (touchX && zOverlap) || (touchZ && xOverlap)
}
