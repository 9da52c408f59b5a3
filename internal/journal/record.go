package journal

import (
	"time"

	"github.com/bytedance/sonic"

	"hftgate/internal/schema"
)

// Record is one persisted breaker or execution event.
type Record struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	Type       string    `gorm:"size:32;index;not null"`
	Seq        int32     `gorm:"not null"`
	Price      string    `gorm:"type:numeric(10,2);not null"`
	Volatility float64   `gorm:"not null"`
	Position   string    `gorm:"type:numeric(20,4);not null"`
	Detail     string    `gorm:"type:jsonb"`
	OccurredAt time.Time `gorm:"index;not null"`
	CreatedAt  time.Time
}

func (Record) TableName() string {
	return "gate_events"
}

// DetailVersion is the layout version of the JSON stored in Record.Detail.
const DetailVersion uint16 = 1

type detail struct {
	SchemaVersion uint16 `json:"schemaVersion"`
	Status        string `json:"status,omitempty"`
	Qty           string `json:"qty,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// NewRecord converts an event. Only fields meaningful for the event type
// land in Detail.
func NewRecord(ev schema.Event) (Record, error) {
	d := detail{SchemaVersion: DetailVersion}
	switch ev.Type {
	case schema.EventExecutionFilled:
		d.Qty = ev.Qty.String()
	case schema.EventExecutionRejected:
		d.Reason = ev.Reason
	}
	if ev.Status != schema.StatusUnknown {
		d.Status = ev.Status.String()
	}
	raw, err := sonic.Marshal(d)
	if err != nil {
		return Record{}, err
	}
	return Record{
		Type:       ev.Type.String(),
		Seq:        int32(ev.Seq),
		Price:      ev.Price.String(),
		Volatility: ev.Volatility,
		Position:   ev.Position.String(),
		Detail:     string(raw),
		OccurredAt: time.Unix(0, ev.Ts).UTC(),
	}, nil
}
