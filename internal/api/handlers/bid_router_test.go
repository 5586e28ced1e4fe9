package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lot-auction/internal/api/middleware"
	"lot-auction/internal/domain"
	"lot-auction/pkg/logger"

	"github.com/golang/mock/gomock"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var bidder = domain.Caller{UserID: "user-1", Role: domain.RoleRegistered}

func newBidServer(t *testing.T, svc BidService, as domain.Caller) http.Handler {
	t.Helper()
	router := mux.NewRouter()
	NewBidRouter(svc, logger.NewNop()).Mount(router)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		router.ServeHTTP(w, r.WithContext(middleware.WithCaller(r.Context(), as)))
	})
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestBidRouter_PlaceBid(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := NewMockBidService(ctrl)
	server := newBidServer(t, mockService, bidder)
	now := time.Now().UTC()

	tests := []struct {
		name           string
		body           string
		mockSetup      func()
		expectedStatus int
		expectedMsg    string
		validate       func(t *testing.T, body map[string]any)
	}{
		{
			name: "success",
			body: `{"auction_id":"auction-1","amount":"150.00"}`,
			mockSetup: func() {
				mockService.EXPECT().
					PlaceBid(gomock.Any(), bidder, gomock.Any()).
					DoAndReturn(func(_ any, _ domain.Caller, in *domain.Bid) (*domain.Bid, error) {
						require.Equal(t, "auction-1", in.AuctionID)
						require.True(t, in.Amount.Equal(decimal.RequireFromString("150")))
						return &domain.Bid{ID: "bid-1", AuctionID: "auction-1", BidderID: "user-1", Amount: in.Amount, Time: now}, nil
					})
			},
			expectedStatus: http.StatusCreated,
			expectedMsg:    "bid recorded",
			validate: func(t *testing.T, body map[string]any) {
				data := body["data"].(map[string]any)
				require.Equal(t, "bid-1", data["id"])
				require.Equal(t, "user-1", data["bidder_id"])
			},
		},
		{
			name:           "invalid_json",
			body:           `{invalid`,
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:           "missing_auction_id",
			body:           `{"amount":"10"}`,
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:           "non_positive_amount",
			body:           `{"auction_id":"auction-1","amount":"0"}`,
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name: "bid_too_low_reports_floor",
			body: `{"auction_id":"auction-1","amount":"150.00"}`,
			mockSetup: func() {
				mockService.EXPECT().
					PlaceBid(gomock.Any(), bidder, gomock.Any()).
					Return(nil, &domain.BidTooLowError{
						AuctionID: "auction-1",
						Amount:    decimal.RequireFromString("150.00"),
						Floor:     decimal.RequireFromString("150.00"),
					})
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "bid amount too low",
			validate: func(t *testing.T, body map[string]any) {
				require.Equal(t, "150", body["floor"])
			},
		},
		{
			name: "auction_not_active",
			body: `{"auction_id":"auction-1","amount":"200"}`,
			mockSetup: func() {
				mockService.EXPECT().
					PlaceBid(gomock.Any(), bidder, gomock.Any()).
					Return(nil, &domain.AuctionNotActiveError{AuctionID: "auction-1", Status: domain.AuctionCompleted})
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "auction is not active",
		},
		{
			name: "store_failure_hides_cause",
			body: `{"auction_id":"auction-1","amount":"200"}`,
			mockSetup: func() {
				mockService.EXPECT().
					PlaceBid(gomock.Any(), bidder, gomock.Any()).
					Return(nil, domain.StoreFailure("save bid", errors.New("disk on fire")))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "internal server error",
			validate: func(t *testing.T, body map[string]any) {
				require.NotContains(t, body, "error")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()

			req := httptest.NewRequest(http.MethodPost, "/bids", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			server.ServeHTTP(rec, req)

			require.Equal(t, tt.expectedStatus, rec.Code)
			body := decode(t, rec)
			require.Equal(t, tt.expectedMsg, body["message"])
			if tt.validate != nil {
				tt.validate(t, body)
			}
		})
	}
}

func TestBidRouter_Reads(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := NewMockBidService(ctrl)
	server := newBidServer(t, mockService, domain.Guest())

	bids := []*domain.Bid{
		{ID: "bid-1", AuctionID: "auction-1", Amount: decimal.NewFromInt(150)},
		{ID: "bid-2", AuctionID: "auction-1", Amount: decimal.NewFromInt(160)},
	}

	tests := []struct {
		name           string
		path           string
		mockSetup      func()
		expectedStatus int
	}{
		{
			name: "list_bids",
			path: "/bids",
			mockSetup: func() {
				mockService.EXPECT().ListBids(gomock.Any()).Return(bids, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "get_bid",
			path: "/bids/bid-1",
			mockSetup: func() {
				mockService.EXPECT().GetBid(gomock.Any(), "bid-1").Return(bids[0], nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "get_bid_not_found",
			path: "/bids/missing",
			mockSetup: func() {
				mockService.EXPECT().GetBid(gomock.Any(), "missing").Return(nil, domain.NewNotFound("bid", "missing"))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "bids_by_auction",
			path: "/auctions/auction-1/bids",
			mockSetup: func() {
				mockService.EXPECT().ListBidsByAuction(gomock.Any(), "auction-1").Return(bids, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "winning_bid",
			path: "/auctions/auction-1/winning-bid",
			mockSetup: func() {
				mockService.EXPECT().GetWinningBid(gomock.Any(), "auction-1").Return(bids[1], nil)
			},
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()

			rec := httptest.NewRecorder()
			server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.Equal(t, tt.expectedStatus, rec.Code)
		})
	}
}

func TestBidRouter_DeleteBid_Forbidden(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := NewMockBidService(ctrl)
	server := newBidServer(t, mockService, bidder)

	mockService.EXPECT().
		DeleteBid(gomock.Any(), bidder, "bid-1").
		Return(&domain.UnauthorizedActionError{Action: domain.ActionDeleteBid, Role: domain.RoleRegistered})

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/bids/bid-1", nil))

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "action not permitted", decode(t, rec)["message"])
}
