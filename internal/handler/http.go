package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/gamehub-points/internal/domain"
	"github.com/gamehub-points/internal/websocket"
)

// PointsAPI is the points-ledger surface the handler needs
type PointsAPI interface {
	AwardPoints(ctx context.Context, req domain.AwardRequest) (*domain.AwardRecord, error)
	TrackDownload(ctx context.Context, playerID, gameID string) (apkURL string, awarded bool, err error)
	GetAccount(ctx context.Context, playerID string) (*domain.Account, error)
	ListAwards(ctx context.Context, playerID string) ([]domain.AwardRecord, error)
}

// GiftsAPI is the gift-catalog surface the handler needs
type GiftsAPI interface {
	CreateGift(ctx context.Context, req domain.CreateGiftRequest) (*domain.Gift, error)
	GetGift(ctx context.Context, giftID string) (*domain.Gift, error)
	ListGifts(ctx context.Context) ([]domain.Gift, error)
	RedeemGift(ctx context.Context, playerID, giftID string) (*domain.RedemptionRecord, error)
	ListRedemptions(ctx context.Context, playerID string) ([]domain.RedemptionRecord, error)
}

// LeaderboardAPI is the ranking surface the handler needs
type LeaderboardAPI interface {
	Top(ctx context.Context, n int) ([]domain.LeaderboardEntry, error)
	PlayerRank(ctx context.Context, playerID string) (*domain.LeaderboardEntry, error)
}

// Handler provides HTTP handlers for the points API
type Handler struct {
	points      PointsAPI
	gifts       GiftsAPI
	leaderboard LeaderboardAPI
	hub         *websocket.Hub
	logger      *slog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(points PointsAPI, gifts GiftsAPI, leaderboard LeaderboardAPI, hub *websocket.Hub, logger *slog.Logger) *Handler {
	return &Handler{
		points:      points,
		gifts:       gifts,
		leaderboard: leaderboard,
		hub:         hub,
		logger:      logger,
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(corsMiddleware)

	// Health check
	r.Get("/health", h.HealthCheck)
	r.Get("/ready", h.ReadyCheck)

	// WebSocket endpoint
	r.Get("/ws", h.HandleWebSocket)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Points operations
		r.Route("/points", func(r chi.Router) {
			r.Post("/award", h.AwardPoints)
			r.Get("/track-download", h.TrackDownload)
		})

		// Player operations
		r.Route("/players/{playerID}", func(r chi.Router) {
			r.Get("/", h.GetAccount)
			r.Get("/awards", h.ListAwards)
			r.Get("/redemptions", h.ListRedemptions)
			r.Get("/rank", h.GetPlayerRank)
		})

		// Gift operations
		r.Route("/gifts", func(r chi.Router) {
			r.Post("/", h.CreateGift)
			r.Get("/", h.ListGifts)
			r.Get("/{giftID}", h.GetGift)
			r.Post("/{giftID}/redeem", h.RedeemGift)
		})

		// Leaderboard
		r.Get("/leaderboard", h.GetLeaderboard)

		// WebSocket info endpoint
		r.Get("/ws/stats", h.GetWebSocketStats)
	})

	return r
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeSuccess writes a successful JSON response
func (h *Handler) writeSuccess(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

// writeError maps a domain error to a transport-level response
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsNotFound(err):
		h.writeErrorStatus(w, http.StatusNotFound, err)
	case domain.IsInvalidArgument(err):
		h.writeErrorStatus(w, http.StatusBadRequest, err)
	case domain.IsConflict(err):
		h.writeErrorStatus(w, http.StatusConflict, err)
	default:
		h.logger.Error("internal error", "error", err)
		h.writeErrorStatus(w, http.StatusInternalServerError, domain.ErrInternalError)
	}
}

// writeErrorStatus writes an error JSON response with an explicit status
func (h *Handler) writeErrorStatus(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, APIResponse{
		Success: false,
		Error:   err.Error(),
	})
}

// HandleWebSocket handles WebSocket upgrade requests
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.ServeWs(h.hub, h.logger, w, r)
}

// GetWebSocketStats returns WebSocket connection statistics
func (h *Handler) GetWebSocketStats(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]interface{}{
		"total_connections": h.hub.GetTotalConnections(),
	})
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "healthy"})
}

// ReadyCheck returns service readiness status
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "ready"})
}

// AwardPoints handles a points grant request. A duplicate award is reported
// as success with status "already_awarded" so retried workflows stay intact.
func (h *Handler) AwardPoints(w http.ResponseWriter, r *http.Request) {
	var req domain.AwardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorStatus(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	record, err := h.points.AwardPoints(r.Context(), req)
	if err != nil {
		if domain.IsConflict(err) {
			h.writeSuccess(w, map[string]string{"status": "already_awarded"})
			return
		}
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, APIResponse{
		Success: true,
		Data:    record,
	})
}

// TrackDownload awards download points and redirects to the game file.
// The redirect happens even when points were already granted.
func (h *Handler) TrackDownload(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("player_id")
	gameID := r.URL.Query().Get("game_id")
	if playerID == "" || gameID == "" {
		h.writeErrorStatus(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	apkURL, _, err := h.points.TrackDownload(r.Context(), playerID, gameID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	http.Redirect(w, r, apkURL, http.StatusFound)
}

// GetAccount returns a player's account
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")
	if playerID == "" {
		h.writeErrorStatus(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	account, err := h.points.GetAccount(r.Context(), playerID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeSuccess(w, account)
}

// ListAwards returns a player's award history
func (h *Handler) ListAwards(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")
	if playerID == "" {
		h.writeErrorStatus(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	records, err := h.points.ListAwards(r.Context(), playerID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeSuccess(w, records)
}

// ListRedemptions returns a player's redemption history
func (h *Handler) ListRedemptions(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")
	if playerID == "" {
		h.writeErrorStatus(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	records, err := h.gifts.ListRedemptions(r.Context(), playerID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeSuccess(w, records)
}

// GetPlayerRank returns a player's leaderboard position
func (h *Handler) GetPlayerRank(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")
	if playerID == "" {
		h.writeErrorStatus(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	entry, err := h.leaderboard.PlayerRank(r.Context(), playerID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeSuccess(w, entry)
}

// CreateGift handles gift catalog uploads
func (h *Handler) CreateGift(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateGiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorStatus(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	gift, err := h.gifts.CreateGift(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, APIResponse{
		Success: true,
		Data:    gift,
	})
}

// GetGift returns a single gift by ID
func (h *Handler) GetGift(w http.ResponseWriter, r *http.Request) {
	giftID := chi.URLParam(r, "giftID")
	if giftID == "" {
		h.writeErrorStatus(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	gift, err := h.gifts.GetGift(r.Context(), giftID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeSuccess(w, gift)
}

// ListGifts returns the gift catalog
func (h *Handler) ListGifts(w http.ResponseWriter, r *http.Request) {
	gifts, err := h.gifts.ListGifts(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeSuccess(w, gifts)
}

// redeemRequest is the body of a gift redemption call
type redeemRequest struct {
	PlayerID string `json:"player_id"`
}

// RedeemGift handles a gift redemption
func (h *Handler) RedeemGift(w http.ResponseWriter, r *http.Request) {
	giftID := chi.URLParam(r, "giftID")
	if giftID == "" {
		h.writeErrorStatus(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerID == "" {
		h.writeErrorStatus(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	record, err := h.gifts.RedeemGift(r.Context(), req.PlayerID, giftID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeSuccess(w, record)
}

// GetLeaderboard returns the top players by balance
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	entries, err := h.leaderboard.Top(r.Context(), limit)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeSuccess(w, entries)
}
