package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// StoreTransaction is one basket sold together. Items carry the member
// products; baskets are non-empty, and items whose product ID does not
// resolve are dropped by the loader with a warning.
type StoreTransaction struct {
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StoreID uuid.UUID `gorm:"type:uuid;not null;index" json:"store_id"`

	OccurredAt time.Time `gorm:"column:occurred_at;not null;index" json:"occurred_at"`
	Total      float64   `gorm:"column:total;not null;default:0" json:"total"`

	Items []TransactionItem `gorm:"foreignKey:TransactionID;references:ID" json:"items,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (StoreTransaction) TableName() string { return "store_transaction" }

type TransactionItem struct {
	ID            uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TransactionID uuid.UUID `gorm:"type:uuid;not null;index" json:"transaction_id"`
	ProductID     uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`

	Quantity  int     `gorm:"column:quantity;not null;default:1" json:"quantity"`
	UnitPrice float64 `gorm:"column:unit_price;not null;default:0" json:"unit_price"`
}

func (TransactionItem) TableName() string { return "transaction_item" }

// ZoneTransition is an aggregated directed edge in the customer-flow graph.
// Self-transitions are excluded at write time.
type ZoneTransition struct {
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StoreID uuid.UUID `gorm:"type:uuid;not null;index" json:"store_id"`

	FromZoneID uuid.UUID `gorm:"type:uuid;not null;index" json:"from_zone_id"`
	ToZoneID   uuid.UUID `gorm:"type:uuid;not null;index" json:"to_zone_id"`

	Count              int     `gorm:"column:count;not null;default:0" json:"count"`
	AvgDurationSeconds float64 `gorm:"column:avg_duration_seconds;not null;default:0" json:"avg_duration_seconds"`

	RecordedAt time.Time `gorm:"column:recorded_at;not null;index" json:"recorded_at"`
}

func (ZoneTransition) TableName() string { return "zone_transition" }

type VisitRecord struct {
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StoreID uuid.UUID `gorm:"type:uuid;not null;index" json:"store_id"`
	ZoneID  uuid.UUID `gorm:"type:uuid;not null;index" json:"zone_id"`

	VisitorID    string    `gorm:"column:visitor_id;index" json:"visitor_id,omitempty"`
	EnteredAt    time.Time `gorm:"column:entered_at;not null;index" json:"entered_at"`
	DwellSeconds float64   `gorm:"column:dwell_seconds;not null;default:0" json:"dwell_seconds"`
	Purchased    bool      `gorm:"column:purchased;not null;default:false" json:"purchased"`
}

func (VisitRecord) TableName() string { return "visit_record" }

// EnvironmentSnapshot captures external context at a point in time. The
// newest row inside the analysis window drives the impact factors.
type EnvironmentSnapshot struct {
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StoreID uuid.UUID `gorm:"type:uuid;not null;index" json:"store_id"`

	RecordedAt   time.Time      `gorm:"column:recorded_at;not null;index" json:"recorded_at"`
	Weather      string         `gorm:"column:weather;not null;default:'clear'" json:"weather"` // clear | cloudy | rain | snow | storm | heatwave
	TemperatureC float64        `gorm:"column:temperature_c;not null;default:18" json:"temperature_c"`
	LocalEvents  datatypes.JSON `gorm:"column:local_events;type:jsonb" json:"local_events,omitempty"`
	IsHoliday    bool           `gorm:"column:is_holiday;not null;default:false" json:"is_holiday"`
	IsWeekend    bool           `gorm:"column:is_weekend;not null;default:false" json:"is_weekend"`
}

func (EnvironmentSnapshot) TableName() string { return "environment_snapshot" }

type StaffMember struct {
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StoreID uuid.UUID `gorm:"type:uuid;not null;index" json:"store_id"`

	Name      string `gorm:"column:name;not null" json:"name"`
	Role      string `gorm:"column:role;not null;default:'associate';index" json:"role"` // associate | cashier | advisor | manager
	Available bool   `gorm:"column:available;not null;default:true" json:"available"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (StaffMember) TableName() string { return "staff_member" }
