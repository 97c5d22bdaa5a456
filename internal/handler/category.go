package handler

import (
	"net/http"
	"strings"

	"github.com/dukerupert/neuri/internal/model"
	"github.com/dukerupert/neuri/internal/websocket"
)

type CategoryHandler struct {
	base
}

func NewCategoryHandler(d Deps) *CategoryHandler {
	return &CategoryHandler{base: newBase(d, "category")}
}

type categoryRequest struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

func (b *base) requireCategory(id string) (*model.Category, *apiError) {
	c, err := b.Categories.GetByID(id)
	if err != nil {
		return nil, internal("failed to get category", err)
	}
	if c == nil {
		return nil, notFound("category")
	}
	return c, nil
}

// checkCategory verifies an optional category reference belongs to userID.
func (b *base) checkCategory(userID string, categoryID *string) *apiError {
	if categoryID == nil {
		return nil
	}
	c, err := b.Categories.GetByID(*categoryID)
	if err != nil {
		return internal("failed to get category", err)
	}
	if c == nil || c.UserID != userID {
		return badRequest("unknown category_id")
	}
	return nil
}

func (b *base) createCategory(userID, name string) (*model.Category, *apiError) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, badRequest("name is required")
	}
	if aerr := checkLen("name", &name, maxTextLen); aerr != nil {
		return nil, aerr
	}
	if _, aerr := b.requireUser(userID); aerr != nil {
		return nil, aerr
	}
	existing, err := b.Categories.GetByName(userID, name)
	if err != nil {
		return nil, internal("failed to check category", err)
	}
	if existing != nil {
		return nil, conflict("category already exists")
	}
	c, err := b.Categories.Create(userID, name)
	if err != nil {
		return nil, internal("failed to create category", err)
	}
	b.broadcast(websocket.NewMessage("category", "created", userID, c.ID, nil))
	return c, nil
}

// getOrCreateCategory reports whether the category was newly created.
func (b *base) getOrCreateCategory(userID, name string) (*model.Category, bool, *apiError) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, badRequest("category_name is required")
	}
	if aerr := checkLen("category_name", &name, maxTextLen); aerr != nil {
		return nil, false, aerr
	}
	if _, aerr := b.requireUser(userID); aerr != nil {
		return nil, false, aerr
	}
	c, created, err := b.Categories.GetOrCreate(userID, name)
	if err != nil {
		return nil, false, internal("failed to get or create category", err)
	}
	if created {
		b.broadcast(websocket.NewMessage("category", "created", userID, c.ID, nil))
	}
	return c, created, nil
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if aerr := decodeJSON(w, r, &req); aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	userID, aerr := parseUUID(req.UserID, "user_id")
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	c, aerr := h.createCategory(userID, req.Name)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	writeData(w, http.StatusCreated, c)
}

func (h *CategoryHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	u, aerr := h.userFromPath(r)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	categories, err := h.Categories.ListByUser(u.ID)
	if err != nil {
		h.fail(w, r, internal("failed to list categories", err))
		return
	}
	writeData(w, http.StatusOK, categories)
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, aerr := parseUUIDParam(r, "id")
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	existing, aerr := h.requireCategory(id)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	var req categoryRequest
	if aerr := decodeJSON(w, r, &req); aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		h.fail(w, r, badRequest("name is required"))
		return
	}
	if aerr := checkLen("name", &name, maxTextLen); aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	other, err := h.Categories.GetByName(existing.UserID, name)
	if err != nil {
		h.fail(w, r, internal("failed to check category", err))
		return
	}
	if other != nil && other.ID != id {
		h.fail(w, r, conflict("category already exists"))
		return
	}

	c, err := h.Categories.Update(id, name)
	if err != nil {
		h.fail(w, r, internal("failed to update category", err))
		return
	}
	h.broadcast(websocket.NewMessage("category", "updated", c.UserID, c.ID, nil))
	writeData(w, http.StatusOK, c)
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, aerr := parseUUIDParam(r, "id")
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	c, aerr := h.requireCategory(id)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	if err := h.Categories.Delete(id); err != nil {
		h.fail(w, r, internal("failed to delete category", err))
		return
	}
	h.broadcast(websocket.NewMessage("category", "deleted", c.UserID, id, nil))
	w.WriteHeader(http.StatusNoContent)
}
