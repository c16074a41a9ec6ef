package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Furniture is a physical fixture placed in a zone. Immovable furniture is
// never a candidate for repositioning.
type Furniture struct {
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StoreID uuid.UUID `gorm:"type:uuid;not null;index" json:"store_id"`
	ZoneID  uuid.UUID `gorm:"type:uuid;not null;index" json:"zone_id"`

	Type    string `gorm:"column:type;not null;default:'shelf';index" json:"type"` // shelf | table | rack | endcap | counter
	Movable bool   `gorm:"column:movable;not null;default:true" json:"movable"`

	PosX float64 `gorm:"column:pos_x;not null;default:0" json:"pos_x"`
	PosY float64 `gorm:"column:pos_y;not null;default:0" json:"pos_y"`
	PosZ float64 `gorm:"column:pos_z;not null;default:0" json:"pos_z"`

	RotX float64 `gorm:"column:rot_x;not null;default:0" json:"rot_x"`
	RotY float64 `gorm:"column:rot_y;not null;default:0" json:"rot_y"`
	RotZ float64 `gorm:"column:rot_z;not null;default:0" json:"rot_z"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Furniture) TableName() string { return "furniture" }

type Product struct {
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StoreID uuid.UUID `gorm:"type:uuid;not null;index" json:"store_id"`

	Name     string  `gorm:"column:name;not null" json:"name"`
	Category string  `gorm:"column:category;not null;default:'general';index" json:"category"`
	Price    float64 `gorm:"column:price;not null;default:0" json:"price"`
	Cost     float64 `gorm:"column:cost;not null;default:0" json:"cost"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Product) TableName() string { return "product" }

func (p *Product) Margin() float64 {
	if p == nil || p.Price <= 0 {
		return 0
	}
	return (p.Price - p.Cost) / p.Price
}

// ShelfSlot is one addressable slot on a piece of furniture. ProductID, when
// set, is the current occupancy; at most one product per slot at a time.
type ShelfSlot struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StoreID     uuid.UUID `gorm:"type:uuid;not null;index" json:"store_id"`
	FurnitureID uuid.UUID `gorm:"type:uuid;not null;index" json:"furniture_id"`

	SlotIndex int    `gorm:"column:slot_index;not null;default:0" json:"slot_index"`
	Band      string `gorm:"column:band;not null;default:'reach';index" json:"band"` // stretch | eye | reach | stoop

	ProductID *uuid.UUID `gorm:"type:uuid;column:product_id;index" json:"product_id,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ShelfSlot) TableName() string { return "shelf_slot" }

// GoldenBand reports whether the slot sits in the eye-to-hip band.
func (s *ShelfSlot) GoldenBand() bool {
	return s != nil && (s.Band == "eye" || s.Band == "reach")
}
