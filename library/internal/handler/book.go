package handler

import (
	"net/http"

	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/model"
	"github.com/labstack/echo/v4"
)

// GetBooks godoc
// @Summary List books ordered by author
// @Tags books
// @Produce json
// @Param page query int false "page"
// @Param size query int false "page size"
// @Success 200 {object} model.ListBooks
// @Router /books [get]
func (h *Handler) GetBooks(c echo.Context) error {
	page, size, err := paging(c)
	if err != nil {
		return err
	}
	books, err := h.librarySvc.ListBooks(c.Request().Context(), page, size)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, books)
}

// GetBook godoc
// @Summary Get book
// @Tags books
// @Produce json
// @Param id path int true "book id"
// @Success 200 {object} model.Book
// @Failure 404 {object} echo.HTTPError
// @Router /books/{id} [get]
func (h *Handler) GetBook(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	book, err := h.librarySvc.GetBook(c.Request().Context(), id)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, book)
}

// CreateBook godoc
// @Summary Add a book to the catalog (staff only)
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param book body model.CreateBookRequest true "book"
// @Success 201 {object} model.Book
// @Router /books [post]
func (h *Handler) CreateBook(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req model.CreateBookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	book, err := h.librarySvc.CreateBook(c.Request().Context(), p, req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusCreated, book)
}

// DeleteBook godoc
// @Summary Remove a book (staff only); rejected while borrowings reference it
// @Tags books
// @Security BearerAuth
// @Param id path int true "book id"
// @Success 204
// @Failure 409 {object} echo.HTTPError
// @Router /books/{id} [delete]
func (h *Handler) DeleteBook(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.librarySvc.DeleteBook(c.Request().Context(), p, id); err != nil {
		return h.httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me godoc
// @Summary Current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.User
// @Router /users/me [get]
func (h *Handler) Me(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	u, err := h.librarySvc.Me(c.Request().Context(), p)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, u)
}

// UpdateMe godoc
// @Summary Update the current user's profile; absent fields are kept
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param user body model.UpdateUserRequest true "profile fields"
// @Success 200 {object} model.User
// @Failure 400 {object} echo.HTTPError
// @Failure 409 {object} echo.HTTPError
// @Router /users/me [put]
// @Router /users/me [patch]
func (h *Handler) UpdateMe(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req model.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	u, err := h.librarySvc.UpdateMe(c.Request().Context(), p, req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, u)
}
