package family

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Junosprite007/mod-equipmentcheckout/core"
)

const EventFamilyImported = "family.imported"

// Event is published after each family of an import that was not rejected.
type Event struct {
	Type          string      `json:"type"`
	BatchID       uuid.UUID   `json:"batch_id"`
	FamilyName    string      `json:"family_name"`
	PartnershipID int64       `json:"partnership_id"`
	ParentIDs     []int64     `json:"parent_ids"`
	StudentIDs    []int64     `json:"student_ids"`
	CourseIDs     []int64     `json:"course_ids"`
	Status        core.Status `json:"status"`
	OccurredAt    time.Time   `json:"occurred_at"`
}

// Publisher delivers import events to interested services.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) error { return nil }
