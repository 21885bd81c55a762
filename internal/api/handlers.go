package api

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"proptrack/server/config"
	"proptrack/server/internal/database"
	"proptrack/server/internal/ingest"
	"proptrack/server/internal/metrics"
	"proptrack/server/internal/models"
	"proptrack/server/internal/queue"
	"proptrack/server/internal/telegram"
	"proptrack/server/internal/timeadjust"
)

type Handler struct {
	db              *database.Database
	engine          *metrics.Engine
	registry        *config.SegmentRegistry
	queue           *queue.SaleQueue
	parser          *ingest.Parser
	telegramService *telegram.Service
	config          *config.Config
	logger          *logrus.Logger
}

type IngestRequest struct {
	Path string `json:"path" binding:"required"`
}

type ReviewRequest struct {
	DealingNumber string `json:"dealing_number" binding:"required"`
	Comparable    bool   `json:"comparable"`
	ReviewedBy    string `json:"reviewed_by"`
}

func NewHandler(
	db *database.Database,
	engine *metrics.Engine,
	registry *config.SegmentRegistry,
	saleQueue *queue.SaleQueue,
	telegramService *telegram.Service,
	cfg *config.Config,
	logger *logrus.Logger,
) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Handler{
		db:              db,
		engine:          engine,
		registry:        registry,
		queue:           saleQueue,
		parser:          ingest.NewParser(nil, nil, logger),
		telegramService: telegramService,
		config:          cfg,
		logger:          logger,
	}
}

// referenceDate reads the optional ?date=YYYY-MM-DD query parameter.
func (h *Handler) referenceDate(c *gin.Context) (time.Time, bool) {
	raw := c.Query("date")
	if raw == "" {
		return time.Time{}, true
	}

	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return time.Time{}, false
	}
	return t, true
}

func (h *Handler) GetSegments(c *gin.Context) {
	segments := make([]config.Segment, 0)
	for _, code := range h.registry.Codes() {
		if segment, ok := h.registry.Get(code); ok {
			segments = append(segments, segment)
		}
	}

	c.JSON(http.StatusOK, segments)
}

func (h *Handler) GetAllMetrics(c *gin.Context) {
	referenceDate, ok := h.referenceDate(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, h.engine.ComputeAll(referenceDate))
}

func (h *Handler) GetSegmentMetric(c *gin.Context) {
	code := c.Param("code")

	referenceDate, ok := h.referenceDate(c)
	if !ok {
		return
	}

	metric, err := h.engine.ComputeSegmentMetric(code, referenceDate)
	if err != nil {
		h.logger.WithError(err).WithField("segment", code).Error("Failed to compute segment metric")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute segment metric"})
		return
	}

	c.JSON(http.StatusOK, metric)
}

func (h *Handler) GetOutpacing(c *gin.Context) {
	referenceDate, ok := h.referenceDate(c)
	if !ok {
		return
	}

	computed := h.engine.ComputeAll(referenceDate)

	results := make([]models.OutpacingResult, 0)
	for _, pair := range h.registry.OutpacingPairs() {
		proxy, proxyOK := computed[pair.Proxy]
		target, targetOK := computed[pair.Target]
		if !proxyOK || !targetOK {
			continue
		}
		results = append(results, metrics.CompareOutpacing(proxy, target))
	}

	c.JSON(http.StatusOK, results)
}

func (h *Handler) GetReport(c *gin.Context) {
	referenceDate, ok := h.referenceDate(c)
	if !ok {
		return
	}

	now := referenceDate
	if now.IsZero() {
		now = time.Now()
	}

	computed := h.engine.ComputeAll(referenceDate)
	data := telegram.BuildReportData(h.config, h.registry, computed, now)

	c.JSON(http.StatusOK, gin.H{
		"metrics":        computed,
		"gap_tracker":    data.Tracker,
		"affordability":  data.Affordability,
		"report_text":    telegram.FormatReport(h.registry, data),
		"reference_date": now.Format("2006-01-02"),
	})
}

// GetAdjustedSales returns the per-sale adjustment breakdown behind a
// segment's time-adjusted estimate.
func (h *Handler) GetAdjustedSales(c *gin.Context) {
	code := c.Param("code")

	segment, ok := h.registry.Get(code)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("unknown segment %q", code)})
		return
	}

	referenceDate, ok := h.referenceDate(c)
	if !ok {
		return
	}
	if referenceDate.IsZero() {
		referenceDate = time.Now()
	}

	comparables, err := h.db.VerifiedComparables(segment.Filter())
	if err != nil {
		h.logger.WithError(err).WithField("segment", code).Error("Failed to load verified comparables")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load verified comparables"})
		return
	}

	rate := h.config.TimeAdjustment.DefaultGrowthRate
	if segment.GrowthRate != nil {
		rate = *segment.GrowthRate
	}

	c.JSON(http.StatusOK, gin.H{
		"segment":     code,
		"growth_rate": rate,
		"sales":       timeadjust.AdjustedDetail(comparables, referenceDate, rate),
	})
}

// IngestSales parses a CSV file or directory and queues the sales for
// batch processing.
func (h *Handler) IngestSales(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}

	info, err := os.Stat(req.Path)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("cannot read %s", req.Path)})
		return
	}

	runID, err := h.db.StartRun("csv_import", "api")
	if err != nil {
		h.logger.WithError(err).Error("Failed to record ingest run")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record ingest run"})
		return
	}

	var sales []*models.Sale
	if info.IsDir() {
		sales, err = h.parser.ParseDir(req.Path)
	} else {
		sales, err = h.parser.ParseFile(req.Path)
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to parse sales data")
		h.completeRun(runID, "failed", 0, err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to parse sales data"})
		return
	}

	batchSize := h.config.BatchProcessing.MaxBatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	for start := 0; start < len(sales); start += batchSize {
		end := start + batchSize
		if end > len(sales) {
			end = len(sales)
		}
		if err := h.queue.Push(sales[start:end]); err != nil {
			h.logger.WithError(err).Error("Failed to queue sales batch")
			h.completeRun(runID, "failed", start, err.Error())
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to queue sales batch"})
			return
		}
	}

	h.completeRun(runID, "completed", len(sales), "")

	c.JSON(http.StatusAccepted, gin.H{
		"run_id":  runID,
		"queued":  len(sales),
		"batches": (len(sales) + batchSize - 1) / batchSize,
	})
}

func (h *Handler) completeRun(runID, status string, processed int, errorMessage string) {
	if err := h.db.CompleteRun(runID, status, processed, errorMessage); err != nil {
		h.logger.WithError(err).WithField("run_id", runID).Error("Failed to complete ingest run")
	}

	if status == "failed" && h.telegramService != nil {
		if err := h.telegramService.SendIngestFailureAlert(errorMessage); err != nil {
			h.logger.WithError(err).Error("Failed to send ingest failure alert")
		}
	}
}

// ReviewSale records a manual comparable review outcome.
func (h *Handler) ReviewSale(c *gin.Context) {
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dealing_number is required"})
		return
	}

	if req.ReviewedBy == "" {
		req.ReviewedBy = "api"
	}

	if err := h.db.SetReviewStatus(req.DealingNumber, req.Comparable, req.ReviewedBy); err != nil {
		h.logger.WithError(err).Error("Failed to set review status")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to set review status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"dealing_number": req.DealingNumber, "comparable": req.Comparable})
}

func (h *Handler) GetStatus(c *gin.Context) {
	count, err := h.db.CountSales()
	if err != nil {
		h.logger.WithError(err).Error("Failed to count sales")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count sales"})
		return
	}

	lastRun, err := h.db.GetLastSuccessfulRun("csv_import")
	if err != nil {
		h.logger.WithError(err).Error("Failed to load last ingest run")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load last ingest run"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sales":    count,
		"segments": len(h.registry.Codes()),
		"last_run": lastRun,
	})
}
