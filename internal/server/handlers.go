package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/homebardev/homebar/internal/drinks"
	"github.com/homebardev/homebar/internal/match"
	"github.com/homebardev/homebar/internal/session"
	"github.com/homebardev/homebar/internal/sheet"
	"github.com/homebardev/homebar/internal/state"
)

const maxBodyBytes = 1 << 20

type nameRequest struct {
	Name string `json:"name"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func decodeName(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req nameRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return "", false
	}
	if req.Name == "" {
		respondWithError(w, http.StatusBadRequest, "name is required")
		return "", false
	}
	return req.Name, true
}

// respondWithMutation answers a state change. A failed save still reports
// the applied change, with 502 and the error alongside it.
func (s *Server) respondWithMutation(w http.ResponseWriter, code int, payload map[string]interface{}, err error) {
	if err == nil {
		respondWithJSON(w, code, payload)
		return
	}
	if errors.Is(err, state.ErrEmptyName) {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if errors.Is(err, session.ErrSaveFailed) {
		s.metrics.saveFailures.Inc()
		s.logger.Error("state change kept in memory only", zap.Error(err))
		payload["error"] = err.Error()
		respondWithJSON(w, http.StatusBadGateway, payload)
		return
	}
	respondWithError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	drinkStatus, _ := s.sess.DrinksStatus()
	stateStatus, _ := s.sess.StateStatus()
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "healthy",
		"service":    "homebar",
		"version":    s.opts.Version,
		"drinks":     s.sess.Drinks().Len(),
		"drink_data": drinkStatus.String(),
		"user_state": stateStatus.String(),
		"unsaved":    s.sess.Dirty(),
	})
}

func (s *Server) listDrinks(w http.ResponseWriter, r *http.Request) {
	level, err := match.ParseLevel(r.URL.Query().Get("strength"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	results := s.sess.Rank(match.Filter{Query: r.URL.Query().Get("q"), Strength: level})
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"count":   len(results),
	})
}

func (s *Server) getDrink(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	d, ok := s.sess.Detail(id)
	if !ok {
		respondWithError(w, http.StatusNotFound, fmt.Sprintf("drink %q not found", id))
		return
	}
	respondWithJSON(w, http.StatusOK, d)
}

func (s *Server) listFavorites(w http.ResponseWriter, r *http.Request) {
	st := s.sess.State()
	inv := st.Inventory

	details := make([]session.Detail, 0, len(st.Favorites))
	for _, d := range s.sess.Favorites() {
		details = append(details, session.BuildDetail(d, inv, true))
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"names":  st.Favorites,
		"drinks": details,
	})
}

func (s *Server) toggleFavorite(w http.ResponseWriter, r *http.Request) {
	name, ok := decodeName(w, r)
	if !ok {
		return
	}
	fav, err := s.sess.ToggleFavorite(r.Context(), name)
	s.respondWithMutation(w, http.StatusOK, map[string]interface{}{
		"name":     drinks.CleanName(name),
		"favorite": fav,
	}, err)
}

func (s *Server) getInventory(w http.ResponseWriter, r *http.Request) {
	st := s.sess.State()
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"inventory":          st.Inventory,
		"master_ingredients": st.SortedMasterIngredients(),
	})
}

func (s *Server) toggleInventory(w http.ResponseWriter, r *http.Request) {
	name, ok := decodeName(w, r)
	if !ok {
		return
	}
	owned, err := s.sess.ToggleInventory(r.Context(), name)
	s.respondWithMutation(w, http.StatusOK, map[string]interface{}{
		"name":  name,
		"owned": owned,
	}, err)
}

func (s *Server) addIngredient(w http.ResponseWriter, r *http.Request) {
	name, ok := decodeName(w, r)
	if !ok {
		return
	}
	added, err := s.sess.AddIngredient(r.Context(), name)
	code := http.StatusOK
	if added {
		code = http.StatusCreated
	}
	s.respondWithMutation(w, code, map[string]interface{}{
		"name":  name,
		"added": added,
	}, err)
}

func (s *Server) suggestIngredients(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	suggestions := s.sess.Suggest(r.URL.Query().Get("q"), limit)
	if suggestions == nil {
		suggestions = []string{}
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"suggestions": suggestions,
	})
}

func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, s.sess.State().ToColumns().Pad())
}

// putState replaces the whole user state, as a write to the backing
// document does.
func (s *Server) putState(w http.ResponseWriter, r *http.Request) {
	cols, err := sheet.DecodeColumns(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	st := state.FromColumns(cols)
	err = s.sess.Replace(r.Context(), st)
	s.respondWithMutation(w, http.StatusOK, map[string]interface{}{
		"favorites":          len(st.Favorites),
		"inventory":          len(st.Inventory),
		"master_ingredients": len(st.MasterIngredients),
	}, err)
}
