// Package policies persists the structured record produced by confirming a
// policy document. There is exactly one record per source document; repeat
// confirmations replace it in place.
package policies

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/nexliaai/corretor/internal/extraction"
	"github.com/nexliaai/corretor/internal/parties"
)

// Policy is a persisted auto policy record.
type Policy struct {
	ID         uuid.UUID           `json:"id"`
	DocumentID uuid.UUID           `json:"document_id"`
	PartyID    uuid.UUID           `json:"party_id"`
	PartyKind  parties.Kind        `json:"party_kind"`
	PartyName  *string             `json:"party_name"`
	Category   extraction.Category `json:"category"`

	extraction.AutoPolicyFields

	Extra     json.RawMessage `json:"extra,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// UpsertCommand carries a confirmed record. Extra holds payload keys outside
// the typed field set; it is stored opaquely.
type UpsertCommand struct {
	DocumentID uuid.UUID
	PartyID    uuid.UUID
	PartyKind  parties.Kind
	Category   extraction.Category
	Fields     *extraction.AutoPolicyFields
	Extra      map[string]json.RawMessage
}
