package controllers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/e-learning-backend/middleware"
	"github.com/vnkhanh/e-learning-backend/services"
	"github.com/vnkhanh/e-learning-backend/utils"
)

type ReportInput struct {
	ReportedUserID uint   `json:"reported_user_id" binding:"required"`
	Reason         string `json:"reason" binding:"required,max=255"`
	Details        string `json:"details"`
}

type ReviewInput struct {
	AdminNotes   string `json:"admin_notes"`
	TimeoutHours int    `json:"timeout_hours" binding:"lte=87600"`
}

var reviewKinds = map[string]services.ReviewKind{
	"reject":  services.ReviewReject,
	"warning": services.ReviewWarning,
	"timeout": services.ReviewTimeout,
	"ban":     services.ReviewBan,
}

type ReportController struct {
	moderation *services.ModerationService
	now        func() time.Time
}

func NewReportController(moderation *services.ModerationService) *ReportController {
	return &ReportController{moderation: moderation, now: func() time.Time { return time.Now().UTC() }}
}

// Create files a report from the caller against another user.
func (h *ReportController) Create(c *gin.Context) {
	var input ReportInput
	if !bindJSON(c, &input) {
		return
	}
	reporterID, _ := middleware.CurrentUserID(c)
	report, err := h.moderation.CreateReport(c.Request.Context(), input.ReportedUserID, reporterID, input.Reason, input.Details)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "report submitted", report)
}

func (h *ReportController) Mine(c *gin.Context) {
	reporterID, _ := middleware.CurrentUserID(c)
	reports, err := h.moderation.ReportsBy(c.Request.Context(), reporterID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "", reports)
}

func (h *ReportController) Pending(c *gin.Context) {
	reports, err := h.moderation.PendingReports(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "", reports)
}

func (h *ReportController) Get(c *gin.Context) {
	reportID, ok := parseID(c, "id")
	if !ok {
		return
	}
	report, err := h.moderation.GetReport(c.Request.Context(), reportID)
	if err != nil {
		respondAccess(c, err)
		return
	}
	utils.Success(c, "", report)
}

// Against lists every report filed against a user.
func (h *ReportController) Against(c *gin.Context) {
	userID, ok := parseID(c, "id")
	if !ok {
		return
	}
	reports, err := h.moderation.ReportsAgainst(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "", reports)
}

// Review applies the admin decision named in the path. A timeout needs a
// positive number of hours.
func (h *ReportController) Review(c *gin.Context) {
	reportID, ok := parseID(c, "id")
	if !ok {
		return
	}
	kind, ok := reviewKinds[c.Param("action")]
	if !ok {
		respondError(c, services.ErrInvalidReviewAction)
		return
	}
	var input ReviewInput
	if c.Request.ContentLength != 0 && !bindJSON(c, &input) {
		return
	}

	action := services.ReviewAction{Kind: kind}
	if kind == services.ReviewTimeout {
		if input.TimeoutHours <= 0 {
			utils.Fail(c, "timeout_hours must be positive")
			return
		}
		action.Until = h.now().Add(time.Duration(input.TimeoutHours) * time.Hour)
	}

	report, err := h.moderation.Review(c.Request.Context(), reportID, action, input.AdminNotes)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "report reviewed", report)
}
