// internal/handler/asset_handler.go
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appErrors "github.com/postpilot/postpilot-backend/internal/errors"
	"github.com/postpilot/postpilot-backend/internal/model"
	"github.com/postpilot/postpilot-backend/internal/repository"
	"github.com/postpilot/postpilot-backend/internal/service"
)

// AssetHandler holds the dependencies for library/asset HTTP handlers
type AssetHandler struct {
	Repo     repository.AssetRepositoryInterface
	Selector *service.AssetSelector
}

func (h *AssetHandler) CreateLibrary(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UserID int    `json:"user_id"`
		Name   string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	lib := &model.AssetLibrary{UserID: payload.UserID, Name: payload.Name}
	if err := h.Repo.CreateLibrary(lib); err != nil {
		http.Error(w, "failed to create library: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(lib)
}

func (h *AssetHandler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	libraryID, _ := strconv.Atoi(chi.URLParam(r, "id"))

	var payload struct {
		Name     string `json:"name"`
		FileType string `json:"file_type"`
		FilePath string `json:"file_path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	asset := &model.Asset{
		LibraryID: libraryID,
		Name:      payload.Name,
		FileType:  payload.FileType,
		FilePath:  payload.FilePath,
	}
	if err := h.Repo.Create(asset); err != nil {
		http.Error(w, "failed to create asset: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(asset)
}

func (h *AssetHandler) ListAssets(w http.ResponseWriter, r *http.Request) {
	libraryID, _ := strconv.Atoi(chi.URLParam(r, "id"))

	var (
		assets []*model.Asset
		err    error
	)
	if r.URL.Query().Get("unused") == "true" {
		assets, err = h.Repo.ListUnusedByLibrary(libraryID)
	} else {
		assets, err = h.Repo.ListByLibrary(libraryID)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(assets)
}

func (h *AssetHandler) AssetStats(w http.ResponseWriter, r *http.Request) {
	libraryID, _ := strconv.Atoi(chi.URLParam(r, "id"))

	stats, err := h.Repo.UsageStats(libraryID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// ResetAsset clears usage tracking for a single asset.
func (h *AssetHandler) ResetAsset(w http.ResponseWriter, r *http.Request) {
	assetID, _ := strconv.Atoi(chi.URLParam(r, "id"))

	if err := h.Selector.Reset(assetID); err != nil {
		if appErrors.IsNotFound(err) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
