package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// GetPayments godoc
// @Summary List payments; non-staff callers see payments of their own borrowings
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.ListPayments
// @Router /payments [get]
func (h *Handler) GetPayments(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	page, size, err := paging(c)
	if err != nil {
		return err
	}
	list, err := h.librarySvc.ListPayments(c.Request().Context(), p, page, size)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, list)
}

// GetPayment godoc
// @Summary Get payment
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param id path int true "payment id"
// @Success 200 {object} model.Payment
// @Router /payments/{id} [get]
func (h *Handler) GetPayment(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	pay, err := h.librarySvc.GetPayment(c.Request().Context(), p, id)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, pay)
}
