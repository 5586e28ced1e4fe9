package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"lot-auction/internal/api/middleware"
	"lot-auction/internal/domain"
	"lot-auction/pkg/logger"

	"github.com/gorilla/mux"
)

//go:generate mockgen -destination=mock_bid_service.go -package=handlers lot-auction/internal/api/handlers BidService

// BidService is the slice of the auction service the bid router needs.
type BidService interface {
	PlaceBid(ctx context.Context, caller domain.Caller, in *domain.Bid) (*domain.Bid, error)
	GetBid(ctx context.Context, id string) (*domain.Bid, error)
	ListBids(ctx context.Context) ([]*domain.Bid, error)
	ListBidsByAuction(ctx context.Context, auctionID string) ([]*domain.Bid, error)
	GetWinningBid(ctx context.Context, auctionID string) (*domain.Bid, error)
	DeleteBid(ctx context.Context, caller domain.Caller, id string) error
}

// BidRouter serves the bid endpoints on gorilla/mux.
type BidRouter struct {
	svc BidService
	log logger.Logger
}

func NewBidRouter(svc BidService, log logger.Logger) *BidRouter {
	return &BidRouter{svc: svc, log: log}
}

// Mount registers the bid routes on r.
func (h *BidRouter) Mount(r *mux.Router) {
	r.HandleFunc("/bids", h.PlaceBid).Methods(http.MethodPost)
	r.HandleFunc("/bids", h.ListBids).Methods(http.MethodGet)
	r.HandleFunc("/bids/{id}", h.GetBid).Methods(http.MethodGet)
	r.HandleFunc("/bids/{id}", h.DeleteBid).Methods(http.MethodDelete)
	r.HandleFunc("/auctions/{id}/bids", h.ListBidsByAuction).Methods(http.MethodGet)
	r.HandleFunc("/auctions/{id}/winning-bid", h.GetWinningBid).Methods(http.MethodGet)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (h *BidRouter) reply(w http.ResponseWriter, op string, status int, data any, message string, err error) {
	if err != nil {
		resp := failure(err)
		if resp.Status == http.StatusInternalServerError {
			h.log.Error(op+" failed", "error", err)
		}
		writeJSON(w, resp.Status, resp)
		return
	}
	writeJSON(w, status, success(status, data, message))
}

func (h *BidRouter) PlaceBid(w http.ResponseWriter, r *http.Request) {
	var req BidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, badRequest(err))
		return
	}
	if err := req.validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, badRequest(err))
		return
	}

	bid, err := h.svc.PlaceBid(r.Context(), middleware.CallerFrom(r.Context()), req.bid())
	h.reply(w, "PlaceBid", http.StatusCreated, bid, "bid recorded", err)
}

func (h *BidRouter) ListBids(w http.ResponseWriter, r *http.Request) {
	bids, err := h.svc.ListBids(r.Context())
	h.reply(w, "ListBids", http.StatusOK, bids, "bids retrieved", err)
}

func (h *BidRouter) GetBid(w http.ResponseWriter, r *http.Request) {
	bid, err := h.svc.GetBid(r.Context(), mux.Vars(r)["id"])
	h.reply(w, "GetBid", http.StatusOK, bid, "bid retrieved", err)
}

func (h *BidRouter) DeleteBid(w http.ResponseWriter, r *http.Request) {
	err := h.svc.DeleteBid(r.Context(), middleware.CallerFrom(r.Context()), mux.Vars(r)["id"])
	h.reply(w, "DeleteBid", http.StatusOK, nil, "bid deleted", err)
}

func (h *BidRouter) ListBidsByAuction(w http.ResponseWriter, r *http.Request) {
	bids, err := h.svc.ListBidsByAuction(r.Context(), mux.Vars(r)["id"])
	h.reply(w, "ListBidsByAuction", http.StatusOK, bids, "bids retrieved", err)
}

func (h *BidRouter) GetWinningBid(w http.ResponseWriter, r *http.Request) {
	bid, err := h.svc.GetWinningBid(r.Context(), mux.Vars(r)["id"])
	h.reply(w, "GetWinningBid", http.StatusOK, bid, "winning bid retrieved", err)
}
