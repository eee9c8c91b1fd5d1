package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"schoolpay_backend/internal/models"
	"schoolpay_backend/internal/services"
	"schoolpay_backend/internal/utils"
)

type AdminHandler struct {
	db     *gorm.DB
	cache  *services.RedisCache
	store  services.Store
	fees   *services.FeeService
	export *services.ExportService
}

func NewAdminHandler(db *gorm.DB, cache *services.RedisCache, store services.Store, fees *services.FeeService, export *services.ExportService) *AdminHandler {
	return &AdminHandler{db: db, cache: cache, store: store, fees: fees, export: export}
}

func (h *AdminHandler) bindFeeRequest(c echo.Context) (*services.FeeInput, error) {
	var req FeeRequest
	if err := c.Bind(&req); err != nil {
		return nil, utils.NewValidationError("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return nil, err
	}
	return &services.FeeInput{
		Name:                req.Name,
		Description:         req.Description,
		TotalAmount:         req.TotalAmount,
		AcademicSession:     req.AcademicSession,
		AllowedLevels:       req.AllowedLevels,
		AllowedSchools:      req.AllowedSchools,
		AllowsInstallments:  req.AllowsInstallments,
		InstallmentPercents: req.InstallmentPercents,
	}, nil
}

func (h *AdminHandler) CreateFee(c echo.Context) error {
	in, err := h.bindFeeRequest(c)
	if err != nil {
		return err
	}
	fee, err := h.fees.Create(c.Request().Context(), *in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"success": true, "fee": fee})
}

func (h *AdminHandler) UpdateFee(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}
	in, err := h.bindFeeRequest(c)
	if err != nil {
		return err
	}
	fee, err := h.fees.Update(c.Request().Context(), id, *in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "fee": fee})
}

func (h *AdminHandler) ToggleFee(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}
	fee, err := h.fees.Toggle(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "fee": fee})
}

// analyticsSummary is the cached aggregate view for the admin dashboard.
type analyticsSummary struct {
	TotalCollected int64            `json:"total_collected"`
	CountByStatus  map[string]int64 `json:"count_by_status"`
	BySession      []sessionTotal   `json:"by_session"`
	RecentPayments []models.Payment `json:"recent_payments"`
}

type sessionTotal struct {
	AcademicSession string `json:"academic_session"`
	Total           int64  `json:"total"`
	Count           int64  `json:"count"`
}

// Analytics aggregates the verified ledger. Cached for a minute; the ledger
// is append-only so slightly stale aggregates are harmless here, unlike
// receipt totals which are always recomputed.
func (h *AdminHandler) Analytics(c echo.Context) error {
	ctx := c.Request().Context()
	summary, err := services.GetOrSet(h.cache, ctx, "analytics:summary", time.Minute, func() (analyticsSummary, error) {
		var out analyticsSummary
		out.CountByStatus = make(map[string]int64)

		err := h.db.Model(&models.Payment{}).
			Where("status = ?", models.PaymentStatusVerified).
			Select("COALESCE(SUM(amount), 0)").
			Scan(&out.TotalCollected).Error
		if err != nil {
			return out, err
		}

		var statusRows []struct {
			Status string
			Count  int64
		}
		if err := h.db.Model(&models.Payment{}).
			Select("status, COUNT(*) as count").
			Group("status").
			Scan(&statusRows).Error; err != nil {
			return out, err
		}
		for _, row := range statusRows {
			out.CountByStatus[row.Status] = row.Count
		}

		if err := h.db.Model(&models.Payment{}).
			Where("status = ?", models.PaymentStatusVerified).
			Select("academic_session, SUM(amount) as total, COUNT(*) as count").
			Group("academic_session").
			Order("academic_session desc").
			Scan(&out.BySession).Error; err != nil {
			return out, err
		}

		if err := h.db.Preload("Student").
			Where("status = ?", models.PaymentStatusVerified).
			Order("created_at desc").
			Limit(10).
			Find(&out.RecentPayments).Error; err != nil {
			return out, err
		}

		return out, nil
	})
	if err != nil {
		return utils.NewUpstreamError("failed to build analytics: " + err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "analytics": summary})
}

// ExportPayments streams the ledger as an Excel workbook.
func (h *AdminHandler) ExportPayments(c echo.Context) error {
	f, filename, err := h.export.ExportLedger(c.QueryParam("session"))
	if err != nil {
		return utils.NewUpstreamError("failed to build export: " + err.Error())
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	c.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Response().WriteHeader(http.StatusOK)
	return f.Write(c.Response())
}

// CreateReminder schedules a recurring unpaid-fee reminder for a fee. The
// interval is an RRULE string, e.g. "FREQ=WEEKLY;BYDAY=MO".
func (h *AdminHandler) CreateReminder(c echo.Context) error {
	var req ReminderRequest
	if err := c.Bind(&req); err != nil {
		return utils.NewValidationError("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if _, err := h.store.GetFee(req.FeeID); err != nil {
		if services.IsNotFound(err) {
			return utils.NewNotFoundError("fee")
		}
		return utils.NewUpstreamError("failed to load fee: " + err.Error())
	}

	interval := req.Interval
	task := &models.ScheduledTask{
		TaskName:          "send_fee_reminders",
		Arguments:         map[string]interface{}{"fee_id": req.FeeID},
		Due:               time.Now(),
		RecurringInterval: &interval,
		Status:            models.ScheduledTaskStatusActive,
		TaskType:          models.ScheduledTaskTypeRecurring,
		MaxAttempt:        3,
	}
	if err := h.store.CreateScheduledTask(task); err != nil {
		return utils.NewUpstreamError("failed to schedule reminder: " + err.Error())
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{"success": true, "task": task})
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, utils.NewValidationError("invalid id")
	}
	return uint(id), nil
}
