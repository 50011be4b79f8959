package floor

import (
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/google/uuid"
)

const (
	StatusAvailable = "available"
	StatusOccupied  = "occupied"
	StatusReserved  = "reserved"
	StatusCleaning  = "cleaning"
	StatusBlocked   = "blocked"
)

type Table struct {
	ID             uuid.UUID  `json:"id" bson:"_id"`
	Number         string     `json:"number" bson:"number"`
	Capacity       int        `json:"capacity" bson:"capacity"`
	Zone           string     `json:"zone,omitempty" bson:"zone,omitempty"`
	Status         string     `json:"status" bson:"status"`
	CurrentOrderID *uuid.UUID `json:"current_order_id,omitempty" bson:"current_order_id,omitempty"`
	BranchID       string     `json:"branch_id,omitempty" bson:"branch_id,omitempty"`
	Notes          []Note     `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt      time.Time  `json:"created_at" bson:"created_at"`
	CreatedBy      string     `json:"created_by" bson:"created_by"`
	UpdatedAt      time.Time  `json:"updated_at" bson:"updated_at"`
	UpdatedBy      string     `json:"updated_by" bson:"updated_by"`
}

type Note struct {
	ID        uuid.UUID `json:"id" bson:"id"`
	Content   string    `json:"content" bson:"content"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	CreatedBy string    `json:"created_by" bson:"created_by"`
}

func (t *Table) GetID() uuid.UUID {
	return t.ID
}

func (t *Table) ResourceType() string {
	return "table"
}

func (t *Table) SetID(id uuid.UUID) {
	t.ID = id
}

func NewTable() *Table {
	return &Table{
		ID:     aqm.GenerateNewID(),
		Status: StatusAvailable,
		Notes:  []Note{},
	}
}

func (t *Table) EnsureID() {
	if t.ID == uuid.Nil {
		t.ID = aqm.GenerateNewID()
	}
}

func (t *Table) BeforeCreate() {
	t.EnsureID()
	t.CreatedAt = time.Now()
	t.UpdatedAt = time.Now()
}

func (t *Table) BeforeUpdate() {
	t.UpdatedAt = time.Now()
}

func (t *Table) AddNote(content, createdBy string) {
	if t.Notes == nil {
		t.Notes = []Note{}
	}
	note := Note{
		ID:        aqm.GenerateNewID(),
		Content:   content,
		CreatedAt: time.Now(),
		CreatedBy: createdBy,
	}
	t.Notes = append(t.Notes, note)
}
