package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	portssvc "github.com/shadwattai/miniwallet/internal/core/ports/services"
	"github.com/shadwattai/miniwallet/internal/dto"
	"github.com/shadwattai/miniwallet/internal/middleware"
)

type auditHandler struct {
	auditService  portssvc.AuditSvc
	recordService portssvc.RecordSvc
}

// registerAuditRoutes registers the audit trail and the read-only records routes.
func registerAuditRoutes(rg *gin.RouterGroup, auditService portssvc.AuditSvc, recordService portssvc.RecordSvc) {
	h := &auditHandler{auditService: auditService, recordService: recordService}

	rg.GET("/audit", h.listAudit)

	records := rg.Group("/records")
	{
		records.GET("/:table", h.listRecords)
		records.GET("/:table/stats", h.recordStats)
		records.GET("/:table/:key", h.getRecord)
	}
}

// listAudit godoc
// @Summary Browse the audit trail
// @Description Newest first. Regular users only see entries they caused.
// @Tags audit
// @Produce  json
// @Param   table query string false "Table name"
// @Param   action query string false "insert, update, delete or read"
// @Param   actor query string false "Actor user key"
// @Param   limit query int false "Page size (1-200, default 50)"
// @Param   nextToken query string false "Cursor from the previous page"
// @Success 200 {object} dto.ListAuditResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Entries of another actor requested"
// @Failure 500 {object} map[string]string "Failed to list audit entries"
// @Security BearerAuth
// @Router /audit [get]
func (h *auditHandler) listAudit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ListAuditParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, logger, err)
		return
	}
	actor, ok := requireActor(c, logger)
	if !ok {
		return
	}

	resp, err := h.auditService.List(c.Request.Context(), actor, params)
	if err != nil {
		respondError(c, logger, err, "Failed to list audit entries")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// listRecords godoc
// @Summary List raw rows of a table
// @Description Administrators only. Restricted tables are refused.
// @Tags records
// @Produce  json
// @Param   table path string true "Table name"
// @Param   limit query int false "Page size (1-200, default 50)"
// @Param   nextToken query string false "Cursor from the previous page"
// @Success 200 {object} repositories.RecordPage
// @Failure 400 {object} map[string]string "Unknown or restricted table"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Not an administrator"
// @Failure 500 {object} map[string]string "Failed to list records"
// @Security BearerAuth
// @Router /records/{table} [get]
func (h *auditHandler) listRecords(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ListRecordsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, logger, err)
		return
	}
	actor, ok := requireActor(c, logger)
	if !ok {
		return
	}

	table := c.Param("table")
	page, err := h.recordService.ListRecords(c.Request.Context(), actor, table, params)
	if err != nil {
		respondError(c, logger.With(slog.String("table", table)), err, "Failed to list records")
		return
	}
	c.JSON(http.StatusOK, page)
}

// recordStats godoc
// @Summary Summarize a table
// @Tags records
// @Produce  json
// @Param   table path string true "Table name"
// @Success 200 {object} repositories.RecordStats
// @Failure 400 {object} map[string]string "Unknown or restricted table"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Not an administrator"
// @Security BearerAuth
// @Router /records/{table}/stats [get]
func (h *auditHandler) recordStats(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c, logger)
	if !ok {
		return
	}

	table := c.Param("table")
	stats, err := h.recordService.RecordStats(c.Request.Context(), actor, table)
	if err != nil {
		respondError(c, logger.With(slog.String("table", table)), err, "Failed to compute table stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// getRecord godoc
// @Summary Get one raw row by key
// @Tags records
// @Produce  json
// @Param   table path string true "Table name"
// @Param   key path string true "Record key"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Unknown or restricted table"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Not an administrator"
// @Failure 404 {object} map[string]string "Record not found"
// @Security BearerAuth
// @Router /records/{table}/{key} [get]
func (h *auditHandler) getRecord(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c, logger)
	if !ok {
		return
	}

	table, key := c.Param("table"), c.Param("key")
	record, err := h.recordService.GetRecord(c.Request.Context(), actor, table, key)
	if err != nil {
		respondError(c, logger.With(slog.String("table", table), slog.String("record_key", key)), err, "Failed to retrieve record")
		return
	}
	c.JSON(http.StatusOK, record)
}
