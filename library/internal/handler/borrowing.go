package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/model"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// CreateBorrowing godoc
// @Summary Borrow a book
// @Tags borrowings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param borrowing body model.CreateBorrowingRequest true "book id and expected return date (YYYY-MM-DD)"
// @Success 201 {object} model.Borrowing
// @Failure 400 {object} echo.HTTPError
// @Failure 404 {object} echo.HTTPError
// @Router /borrowings [post]
func (h *Handler) CreateBorrowing(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req model.CreateBorrowingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	b, err := h.librarySvc.CreateBorrowing(c.Request().Context(), p, req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusCreated, b)
}

// GetBorrowings godoc
// @Summary List borrowings ordered by expected return date
// @Description Non-staff callers only ever see their own borrowings; user_id is honoured for staff only.
// @Tags borrowings
// @Produce json
// @Security BearerAuth
// @Param is_active query bool false "only not yet returned"
// @Param user_id query int false "filter by user (staff only)"
// @Param page query int false "page"
// @Param size query int false "page size"
// @Success 200 {object} model.ListBorrowings
// @Router /borrowings [get]
func (h *Handler) GetBorrowings(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req model.ListBorrowingsRequest
	if req.Page, req.Size, err = paging(c); err != nil {
		return err
	}
	if isActiveParam := c.QueryParam("is_active"); isActiveParam != "" {
		if req.IsActive, err = strconv.ParseBool(isActiveParam); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "is_active is invalid")
		}
	}
	if userIDParam := c.QueryParam("user_id"); userIDParam != "" {
		userID, err := strconv.ParseInt(userIDParam, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "user_id is invalid")
		}
		req.UserID = &userID
	}

	list, err := h.librarySvc.ListBorrowings(c.Request().Context(), p, req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, list)
}

// GetBorrowing godoc
// @Summary Get borrowing
// @Tags borrowings
// @Produce json
// @Security BearerAuth
// @Param id path int true "borrowing id"
// @Success 200 {object} model.Borrowing
// @Failure 404 {object} echo.HTTPError
// @Router /borrowings/{id} [get]
func (h *Handler) GetBorrowing(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	b, err := h.librarySvc.GetBorrowing(c.Request().Context(), p, id)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, b)
}

// ReturnBorrowing godoc
// @Summary Return a borrowed book (staff only)
// @Tags borrowings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "borrowing id"
// @Param body body model.ReturnBorrowingRequest false "actual return date (YYYY-MM-DD), today when omitted"
// @Success 200 {object} model.Borrowing
// @Failure 400 {object} echo.HTTPError
// @Failure 403 {object} echo.HTTPError
// @Router /borrowings/{id}/return [post]
func (h *Handler) ReturnBorrowing(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req model.ReturnBorrowingRequest
	if err := c.Bind(&req); err != nil && !errors.Is(err, io.EOF) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	b, err := h.librarySvc.ReturnBorrowing(c.Request().Context(), p, id, req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, b)
}
