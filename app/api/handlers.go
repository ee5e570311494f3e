package api

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/product-feeds/app/cfg"
	"github.com/lysyi3m/product-feeds/app/database"
	"github.com/lysyi3m/product-feeds/app/feed"
	"github.com/lysyi3m/product-feeds/app/record"
	"github.com/lysyi3m/product-feeds/app/tasks"
	"github.com/lysyi3m/product-feeds/app/template"
	"github.com/lysyi3m/product-feeds/app/transform"
)

func NewHandler(templates TemplateStore, historyRepo database.HistoryRepository, rateRepo database.RateRepository,
	products tasks.ProductSource, runner tasks.RunnerInterface, scheduler tasks.TaskSchedulerInterface,
	feedURL func(fileName string) string) *Handler {
	return &Handler{
		templates:   templates,
		historyRepo: historyRepo,
		rateRepo:    rateRepo,
		products:    products,
		runner:      runner,
		scheduler:   scheduler,
		feedURL:     feedURL,
	}
}

// GetFeed serves the last successfully generated document of a template,
// addressed as <template>.<xml|csv>.
func (h *Handler) GetFeed(c *gin.Context) {
	file := c.Param("file")
	ext := path.Ext(file)
	name := strings.TrimSuffix(file, ext)
	if name == "" || ext == "" {
		c.Status(http.StatusBadRequest)
		return
	}

	tmpl, err := h.templates.Get(name)
	if err != nil {
		slog.Debug("Template not found", "template", name, "error", err)
		c.Status(http.StatusNotFound)
		return
	}

	if ext != "."+feed.Extension(tmpl.Type) {
		c.Status(http.StatusNotFound)
		return
	}

	entry, err := h.historyRepo.LatestSuccessful(name)
	if err != nil {
		slog.Error("Database error", "operation", "latest_successful", "template", name, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	if entry == nil || !entry.HasDocument() {
		slog.Debug("Feed not generated yet", "template", name)
		c.Status(http.StatusNotFound)
		return
	}

	c.Header("Content-Type", feed.ContentType(tmpl.Type))
	c.Header("Content-Disposition", `inline; filename="`+file+`"`)
	c.Header("X-Feed-Name", name)
	c.Header("X-Feed-Items", strconv.Itoa(entry.Accepted))
	c.Header("X-Feed-Skipped", strconv.Itoa(entry.Skipped))
	c.Header("X-Last-Updated", entry.GeneratedAt.Format(time.RFC3339))

	c.String(http.StatusOK, entry.Document)
}

func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":           "ok",
		"timestamp":        time.Now().In(time.Local).Format(time.RFC3339),
		"version":          cfg.GetVersion(),
		"templates":        h.templates.Count(),
		"active_templates": len(h.templates.Active()),
	})
}

func (h *Handler) APIListTemplates(c *gin.Context) {
	list := h.templates.List()
	summaries := make([]templateSummary, 0, len(list))

	for _, tmpl := range list {
		summary := templateSummary{
			Name:     tmpl.Name,
			ID:       tmpl.ID,
			Title:    tmpl.ChannelTitle(),
			Type:     tmpl.Type,
			Enabled:  tmpl.Settings.Enabled,
			Mappings: len(tmpl.Mappings),
			FeedURL:  h.feedURL(feed.FileName(tmpl)),
		}

		if latest, err := h.historyRepo.Latest(tmpl.Name); err == nil {
			summary.LastGeneration = latest
		}

		summaries = append(summaries, summary)
	}

	c.JSON(http.StatusOK, gin.H{
		"templates": summaries,
		"total":     len(summaries),
	})
}

func (h *Handler) APIGetTemplate(c *gin.Context) {
	tmpl, err := h.templates.Get(c.Param("name"))
	if err != nil {
		respondError(c, "get_template", err)
		return
	}

	response := gin.H{
		"template": tmpl,
		"feedUrl":  h.feedURL(feed.FileName(tmpl)),
	}
	if latest, err := h.historyRepo.Latest(tmpl.Name); err == nil && latest != nil {
		response["lastGeneration"] = latest
	}

	c.JSON(http.StatusOK, response)
}

func (h *Handler) APICreateTemplate(c *gin.Context) {
	var tmpl template.Template
	if err := c.ShouldBindJSON(&tmpl); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid template", "details": err.Error()})
		return
	}

	if _, err := h.templates.Get(tmpl.Name); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Template already exists"})
		return
	}

	saved, err := h.templates.Save(&tmpl)
	if err != nil {
		respondError(c, "create_template", err)
		return
	}

	slog.Info("Template created", "template", saved.Name, "type", saved.Type)
	c.JSON(http.StatusCreated, saved)
}

func (h *Handler) APIUpdateTemplate(c *gin.Context) {
	name := c.Param("name")
	if _, err := h.templates.Get(name); err != nil {
		respondError(c, "update_template", err)
		return
	}

	var tmpl template.Template
	if err := c.ShouldBindJSON(&tmpl); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid template", "details": err.Error()})
		return
	}
	tmpl.Name = name

	saved, err := h.templates.Save(&tmpl)
	if err != nil {
		respondError(c, "update_template", err)
		return
	}

	c.JSON(http.StatusOK, saved)
}

func (h *Handler) APIDeleteTemplate(c *gin.Context) {
	name := c.Param("name")
	if err := h.templates.Delete(name); err != nil {
		respondError(c, "delete_template", err)
		return
	}

	slog.Info("Template deleted", "template", name)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) APIReloadTemplate(c *gin.Context) {
	name := c.Param("name")
	tmpl, err := h.templates.Load(name)
	if err != nil {
		respondError(c, "reload_template", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "Template reloaded successfully",
		"template": tmpl,
	})
}

// APIGenerateTemplate runs a generation synchronously and returns its counts
// and per-record issues.
func (h *Handler) APIGenerateTemplate(c *gin.Context) {
	tmpl, err := h.templates.Get(c.Param("name"))
	if err != nil {
		respondError(c, "generate_feed", err)
		return
	}

	entry, err := h.runner.Run(c.Request.Context(), tmpl)
	if err != nil {
		respondError(c, "generate_feed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"generation": entry,
		"feedUrl":    h.feedURL(feed.FileName(tmpl)),
	})
}

// APIScheduleTemplate queues a background generation. Scheduled runs skip
// disabled templates, so those are rejected up front.
func (h *Handler) APIScheduleTemplate(c *gin.Context) {
	tmpl, err := h.templates.Get(c.Param("name"))
	if err != nil {
		respondError(c, "schedule_feed", err)
		return
	}

	if !tmpl.Settings.Enabled {
		c.JSON(http.StatusConflict, gin.H{"error": "Template is disabled"})
		return
	}

	task, err := h.scheduler.EnqueueTemplate(tmpl.Name)
	if errors.Is(err, tasks.ErrAlreadyPending) {
		c.JSON(http.StatusConflict, gin.H{"error": "Generation already pending"})
		return
	}
	if err != nil {
		slog.Error("Error enqueueing generate task", "template", tmpl.Name, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to enqueue generate task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"task": gin.H{
			"id":   task.GetID(),
			"type": task.GetType(),
		},
	})
}

func (h *Handler) APIAddMapping(c *gin.Context) {
	var mapping template.FieldMapping
	if err := c.ShouldBindJSON(&mapping); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid mapping", "details": err.Error()})
		return
	}

	added, err := h.templates.AddMapping(c.Param("name"), mapping)
	if err != nil {
		respondError(c, "add_mapping", err)
		return
	}

	c.JSON(http.StatusCreated, added)
}

func (h *Handler) APIUpdateMapping(c *gin.Context) {
	var mapping template.FieldMapping
	if err := c.ShouldBindJSON(&mapping); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid mapping", "details": err.Error()})
		return
	}

	updated, err := h.templates.UpdateMapping(c.Param("name"), c.Param("id"), mapping)
	if err != nil {
		respondError(c, "update_mapping", err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (h *Handler) APIDeleteMapping(c *gin.Context) {
	if err := h.templates.DeleteMapping(c.Param("name"), c.Param("id")); err != nil {
		respondError(c, "delete_mapping", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) APIAddGoogleFields(c *gin.Context) {
	added, err := h.templates.AddPredefinedGoogleFields(c.Param("name"))
	if err != nil {
		respondError(c, "add_google_fields", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"added": added})
}

func (h *Handler) APIListGoogleFields(c *gin.Context) {
	fields := template.GoogleShoppingFields()
	c.JSON(http.StatusOK, gin.H{"fields": fields, "total": len(fields)})
}

func (h *Handler) APIListTransformations(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"types": transform.Types()})
}

// APIProductFields lists the field names found in the current catalog.
func (h *Handler) APIProductFields(c *gin.Context) {
	products, err := h.products.Load(c.Request.Context())
	if err != nil {
		respondError(c, "load_products", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"fields":   record.FieldNames(products),
		"products": len(products),
	})
}

func (h *Handler) APIListHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	entries, err := h.historyRepo.List(c.Query("template"), limit)
	if err != nil {
		respondError(c, "list_history", err)
		return
	}

	if entries == nil {
		entries = []database.HistoryEntry{}
	}

	c.JSON(http.StatusOK, gin.H{"history": entries, "total": len(entries)})
}

func (h *Handler) APIGetHistory(c *gin.Context) {
	entry, err := h.historyRepo.Get(c.Param("id"))
	if err != nil {
		respondError(c, "get_history", err)
		return
	}
	if entry == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "History entry not found"})
		return
	}

	c.JSON(http.StatusOK, entry)
}

func (h *Handler) APIDeleteHistory(c *gin.Context) {
	deleted, err := h.historyRepo.Delete(c.Param("id"))
	if err != nil {
		respondError(c, "delete_history", err)
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "History entry not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) APIListRates(c *gin.Context) {
	rates, err := h.rateRepo.List()
	if err != nil {
		respondError(c, "list_rates", err)
		return
	}

	if rates == nil {
		rates = []database.ExchangeRate{}
	}

	c.JSON(http.StatusOK, gin.H{"rates": rates, "total": len(rates)})
}

func (h *Handler) APIPutRate(c *gin.Context) {
	var req rateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid rate", "details": err.Error()})
		return
	}

	rate, err := h.rateRepo.Upsert(c.Param("base"), c.Param("target"), req.Rate, req.Source)
	if err != nil {
		respondError(c, "upsert_rate", err)
		return
	}

	c.JSON(http.StatusOK, rate)
}

func (h *Handler) APIDeleteRate(c *gin.Context) {
	deleted, err := h.rateRepo.Delete(c.Param("base"), c.Param("target"))
	if err != nil {
		respondError(c, "delete_rate", err)
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Exchange rate not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func respondError(c *gin.Context, operation string, err error) {
	switch {
	case errors.Is(err, template.ErrTemplateNotFound),
		errors.Is(err, template.ErrMappingNotFound),
		errors.Is(err, fs.ErrNotExist):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, template.ErrInvalidTemplate),
		errors.Is(err, transform.ErrUnknownType),
		errors.Is(err, feed.ErrUnsupportedFeedType),
		errors.Is(err, database.ErrInvalidRate),
		errors.Is(err, database.ErrInvalidCurrency):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	default:
		slog.Error("Request failed", "operation", operation, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal error",
			"details": err.Error(),
		})
	}
}
