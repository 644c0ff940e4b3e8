package domain

import (
	"encoding/json"
	"time"
)

// AuditAction is the closed vocabulary of audited actions.
type AuditAction string

const (
	ActionCreate  AuditAction = "create"
	ActionRead    AuditAction = "read"
	ActionUpdate  AuditAction = "update"
	ActionDelete  AuditAction = "delete"
	ActionSearch  AuditAction = "search"
	ActionLogin   AuditAction = "login"
	ActionLogout  AuditAction = "logout"
	ActionApprove AuditAction = "approve"
	ActionDecline AuditAction = "decline"
	ActionPrint   AuditAction = "print"
	ActionPrepare AuditAction = "prepare"
	ActionReview  AuditAction = "review"
	ActionEdit    AuditAction = "edit" // createOrUpdate hit an existing row
	ActionAdd     AuditAction = "add"  // createOrUpdate inserted
)

var auditActions = map[AuditAction]struct{}{
	ActionCreate: {}, ActionRead: {}, ActionUpdate: {}, ActionDelete: {}, ActionSearch: {},
	ActionLogin: {}, ActionLogout: {}, ActionApprove: {}, ActionDecline: {}, ActionPrint: {},
	ActionPrepare: {}, ActionReview: {}, ActionEdit: {}, ActionAdd: {},
}

// Valid reports whether a is a member of the audit vocabulary.
func (a AuditAction) Valid() bool {
	_, ok := auditActions[a]
	return ok
}

// AuditEntry is an immutable record of one action against one table.
type AuditEntry struct {
	Key         string          `json:"key"`
	Action      AuditAction     `json:"action"`
	Description string          `json:"description"`
	TableName   string          `json:"tableName"`
	PrevData    json.RawMessage `json:"prevData,omitempty"`
	NewData     json.RawMessage `json:"newData,omitempty"`
	ActionTime  time.Time       `json:"actionTime"`
	ActorKey    string          `json:"actorKey"`
	UserIP      string          `json:"userIp"`
	UserAgent   string          `json:"userAgent"`
	RequestID   string          `json:"requestId,omitempty"`
}
