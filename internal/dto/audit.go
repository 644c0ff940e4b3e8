package dto

import "github.com/shadwattai/miniwallet/internal/core/domain"

// ListAuditParams are the query parameters of an audit trail page.
type ListAuditParams struct {
	Table     string `form:"table" binding:"omitempty,max=64"`
	Action    string `form:"action" binding:"omitempty,max=16"`
	ActorKey  string `form:"actor" binding:"omitempty,max=100"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=200"`
	NextToken string `form:"nextToken"`
}

type ListAuditResponse struct {
	Entries   []domain.AuditEntry `json:"entries"`
	NextToken *string             `json:"nextToken,omitempty"`
}

// ListRecordsParams are the query parameters of a records admin page.
type ListRecordsParams struct {
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=200"`
	NextToken string `form:"nextToken"`
}
