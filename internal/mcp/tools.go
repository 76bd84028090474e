package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nexliaai/corretor/internal/orchestrator"
	"github.com/nexliaai/corretor/internal/parties"
)

type statusArgs struct {
	DocumentID string `json:"document_id"`
}

func (s *Server) registerStatus() {
	tool := &sdk.Tool{
		Name:        "document_status",
		Description: "Report the extraction status of an uploaded document, its extracted data, and the client it most likely belongs to.",
		InputSchema: inputSchema(map[string]any{
			"document_id": map[string]any{"type": "string", "description": "Document UUID"},
		}, "document_id"),
	}

	addTool(s, tool, func(ctx context.Context, in statusArgs) (any, error) {
		id, err := parseID("document_id", in.DocumentID)
		if err != nil {
			return nil, err
		}
		return s.extractions.Status(ctx, id)
	})
}

type confirmArgs struct {
	DocumentID string          `json:"document_id"`
	PartyID    string          `json:"party_id"`
	Category   string          `json:"category"`
	Fields     json.RawMessage `json:"fields"`
}

func (s *Server) registerConfirm() {
	tool := &sdk.Tool{
		Name:        "confirm_extraction",
		Description: "Confirm a reviewed extraction. Optionally pass corrected fields (the full payload object) and the owning party id.",
		InputSchema: inputSchema(map[string]any{
			"document_id": map[string]any{"type": "string", "description": "Document UUID"},
			"party_id":    map[string]any{"type": "string", "description": "Owner party UUID; reconciled from the payload when omitted"},
			"category":    map[string]any{"type": "string", "description": "Category override"},
			"fields":      map[string]any{"type": "object", "description": "Corrected payload object"},
		}, "document_id"),
	}

	addTool(s, tool, func(ctx context.Context, in confirmArgs) (any, error) {
		id, err := parseID("document_id", in.DocumentID)
		if err != nil {
			return nil, err
		}

		cmd := orchestrator.ConfirmCommand{DocumentID: id, Fields: in.Fields}
		if in.PartyID != "" {
			pid, err := parseID("party_id", in.PartyID)
			if err != nil {
				return nil, err
			}
			cmd.PartyID = &pid
		}
		if in.Category != "" {
			cmd.Category = &in.Category
		}

		return s.extractions.Confirm(ctx, cmd)
	})
}

type findPartyArgs struct {
	ID    string `json:"id"`
	TaxID string `json:"tax_id"`
}

func (s *Server) registerFindParty() {
	tool := &sdk.Tool{
		Name:        "find_party",
		Description: "Look up a client by id or by tax id (CPF/CNPJ, any formatting).",
		InputSchema: inputSchema(map[string]any{
			"id":     map[string]any{"type": "string", "description": "Party UUID"},
			"tax_id": map[string]any{"type": "string", "description": "CPF or CNPJ"},
		}),
	}

	addTool(s, tool, func(ctx context.Context, in findPartyArgs) (any, error) {
		switch {
		case in.ID != "":
			id, err := parseID("id", in.ID)
			if err != nil {
				return nil, err
			}
			return s.parties.Find(ctx, id)
		case in.TaxID != "":
			taxID := parties.NormalizeTaxID(in.TaxID)
			if taxID == "" {
				return nil, parties.ErrInvalidTaxID
			}
			return s.parties.FindByTaxID(ctx, taxID)
		default:
			return nil, errors.New("one of id or tax_id is required")
		}
	})
}

func parseID(name, s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	return id, nil
}
