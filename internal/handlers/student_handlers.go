package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"schoolpay_backend/internal/models"
	"schoolpay_backend/internal/services"
	"schoolpay_backend/internal/utils"
)

type StudentHandler struct {
	store services.Store
	fees  *services.FeeService
}

func NewStudentHandler(store services.Store, fees *services.FeeService) *StudentHandler {
	return &StudentHandler{store: store, fees: fees}
}

// Activate creates the payer record for a student account.
func (h *StudentHandler) Activate(c echo.Context) error {
	var req ActivateStudentRequest
	if err := c.Bind(&req); err != nil {
		return utils.NewValidationError("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	student := &models.Student{
		MatricNumber: req.MatricNumber,
		FullName:     req.FullName,
		Email:        req.Email,
		Phone:        req.Phone,
		School:       req.School,
		Department:   req.Department,
		Level:        req.Level,
	}
	if err := h.store.CreateStudent(student); err != nil {
		if services.IsDuplicateKey(err) {
			return utils.NewConflictError("a student with this matric number or email already exists")
		}
		return utils.NewUpstreamError("failed to create student: " + err.Error())
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success": true,
		"student": student,
	})
}

// ListFees returns the active fees applicable to a student, resolved by
// matric number.
func (h *StudentHandler) ListFees(c echo.Context) error {
	matric := c.QueryParam("matric_number")
	if matric == "" {
		return utils.NewValidationError("matric_number query parameter is required")
	}

	student, err := h.store.GetStudentByMatric(matric)
	if err != nil {
		if services.IsNotFound(err) {
			return utils.NewNotFoundError("student")
		}
		return utils.NewUpstreamError("failed to load student: " + err.Error())
	}

	fees, err := h.fees.ListForStudent(c.Request().Context(), student)
	if err != nil {
		return utils.NewUpstreamError("failed to load fees: " + err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"fees":    fees,
	})
}
