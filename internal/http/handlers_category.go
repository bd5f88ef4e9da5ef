package http

import (
	"net/http"
)

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	cat, err := s.categories.Create(r.Context(), user, req.toDomain())
	if err != nil {
		writeError(w, r, err)
		return
	}
	Success("Category created successfully").
		Status(http.StatusCreated).
		With("category", newCategoryView(cat)).
		Write(w)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.categories.List(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	Success("Categories retrieved successfully").
		With("categories", newCategoryViews(cats)).
		Write(w)
}

func (s *Server) handleListCategoriesByType(w http.ResponseWriter, r *http.Request) {
	cats, err := s.categories.ListByType(r.Context(), currentUser(r), r.PathValue("type"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	Success("Categories retrieved successfully").
		With("categories", newCategoryViews(cats)).
		Write(w)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	cat, err := s.categories.Update(r.Context(), currentUser(r), id, req.toDomain())
	if err != nil {
		writeError(w, r, err)
		return
	}
	Success("Category updated successfully").
		With("category", newCategoryView(cat)).
		Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.categories.Delete(r.Context(), currentUser(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	Success("Category deleted successfully").Write(w)
}
