package handlers

import (
	"net/http"

	"lot-auction/internal/api/middleware"
	"lot-auction/internal/domain"
	"lot-auction/internal/services"
	"lot-auction/pkg/logger"

	"github.com/labstack/echo/v4"
)

type TokenIssuer interface {
	Issue(user *domain.User) (string, error)
}

// EchoHandler exposes the whole AuctionService over echo.
type EchoHandler struct {
	svc    *services.AuctionService
	tokens TokenIssuer
	log    logger.Logger
}

func NewEchoHandler(svc *services.AuctionService, tokens TokenIssuer, log logger.Logger) *EchoHandler {
	return &EchoHandler{svc: svc, tokens: tokens, log: log}
}

// Mount registers every route on g.
func (h *EchoHandler) Mount(g *echo.Group) {
	g.POST("/auth/register", h.Register)
	g.POST("/auth/login", h.Login)

	g.POST("/users", h.AddUser)
	g.GET("/users", h.ListUsers)
	g.GET("/users/by-username/:username", h.GetUserByUsername)
	g.GET("/users/:id", h.GetUser)
	g.PUT("/users/:id", h.UpdateUser)
	g.DELETE("/users/:id", h.DeleteUser)

	g.POST("/categories", h.AddCategory)
	g.GET("/categories", h.ListCategories)
	g.GET("/categories/:id", h.GetCategory)
	g.GET("/categories/:id/subcategories", h.ListSubcategories)
	g.PUT("/categories/:id", h.UpdateCategory)
	g.DELETE("/categories/:id", h.DeleteCategory)

	g.POST("/lots", h.AddLot)
	g.GET("/lots", h.ListLots)
	g.GET("/lots/:id", h.GetLot)
	g.PUT("/lots/:id", h.UpdateLot)
	g.DELETE("/lots/:id", h.DeleteLot)

	g.POST("/auctions", h.CreateAuction)
	g.GET("/auctions", h.ListAuctions)
	g.GET("/auctions/:id", h.GetAuction)
	g.GET("/auctions/:id/state", h.GetAuctionState)
	g.GET("/auctions/:id/bids", h.ListBidsByAuction)
	g.GET("/auctions/:id/winning-bid", h.GetWinningBid)
	g.PUT("/auctions/:id", h.UpdateAuction)
	g.DELETE("/auctions/:id", h.DeleteAuction)
	g.POST("/auctions/:id/close", h.CloseAuction)

	g.POST("/bids", h.PlaceBid)
	g.GET("/bids", h.ListBids)
	g.GET("/bids/:id", h.GetBid)
	g.DELETE("/bids/:id", h.DeleteBid)
}

func caller(c echo.Context) domain.Caller {
	return middleware.CallerFrom(c.Request().Context())
}

func (h *EchoHandler) reply(c echo.Context, op string, status int, data any, message string, err error) error {
	if err != nil {
		resp := failure(err)
		if resp.Status == http.StatusInternalServerError {
			h.log.Error(op+" failed", "error", err, "path", c.Path())
		}
		return c.JSON(resp.Status, resp)
	}
	return c.JSON(status, success(status, data, message))
}

func (h *EchoHandler) bind(c echo.Context, dst any) bool {
	if err := c.Bind(dst); err != nil {
		h.log.Debug("Failed to bind request", "path", c.Path(), "error", err)
		_ = c.JSON(http.StatusBadRequest, badRequest(err))
		return false
	}
	return true
}

// Auth

func (h *EchoHandler) Register(c echo.Context) error {
	var req CredentialsRequest
	if !h.bind(c, &req) {
		return nil
	}
	user, err := h.svc.Register(c.Request().Context(), req.Username, req.Password)
	return h.reply(c, "Register", http.StatusCreated, user, "user registered", err)
}

func (h *EchoHandler) Login(c echo.Context) error {
	var req CredentialsRequest
	if !h.bind(c, &req) {
		return nil
	}
	user, err := h.svc.Authenticate(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return h.reply(c, "Login", 0, nil, "", err)
	}
	token, err := h.tokens.Issue(user)
	if err != nil {
		return h.reply(c, "Login", 0, nil, "", err)
	}
	return h.reply(c, "Login", http.StatusOK, TokenResponse{Token: token, User: user}, "logged in", nil)
}

// Users

func (h *EchoHandler) AddUser(c echo.Context) error {
	var req UserRequest
	if !h.bind(c, &req) {
		return nil
	}
	user, err := h.svc.AddUser(c.Request().Context(), caller(c), req.Username, req.Password, domain.Role(req.Role))
	return h.reply(c, "AddUser", http.StatusCreated, user, "user created", err)
}

func (h *EchoHandler) ListUsers(c echo.Context) error {
	users, err := h.svc.ListUsers(c.Request().Context())
	return h.reply(c, "ListUsers", http.StatusOK, users, "users retrieved", err)
}

func (h *EchoHandler) GetUser(c echo.Context) error {
	user, err := h.svc.GetUser(c.Request().Context(), c.Param("id"))
	return h.reply(c, "GetUser", http.StatusOK, user, "user retrieved", err)
}

func (h *EchoHandler) GetUserByUsername(c echo.Context) error {
	user, err := h.svc.GetUserByUsername(c.Request().Context(), c.Param("username"))
	return h.reply(c, "GetUserByUsername", http.StatusOK, user, "user retrieved", err)
}

func (h *EchoHandler) UpdateUser(c echo.Context) error {
	var req UserRequest
	if !h.bind(c, &req) {
		return nil
	}
	user, err := h.svc.UpdateUser(c.Request().Context(), caller(c), services.UserUpdate{
		ID:       c.Param("id"),
		Username: req.Username,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	})
	return h.reply(c, "UpdateUser", http.StatusOK, user, "user updated", err)
}

func (h *EchoHandler) DeleteUser(c echo.Context) error {
	err := h.svc.DeleteUser(c.Request().Context(), caller(c), c.Param("id"))
	return h.reply(c, "DeleteUser", http.StatusOK, nil, "user deleted", err)
}

// Categories

func (h *EchoHandler) AddCategory(c echo.Context) error {
	var req CategoryRequest
	if !h.bind(c, &req) {
		return nil
	}
	category, err := h.svc.AddCategory(c.Request().Context(), caller(c),
		&domain.Category{Name: req.Name, ParentID: req.ParentID})
	return h.reply(c, "AddCategory", http.StatusCreated, category, "category created", err)
}

func (h *EchoHandler) ListCategories(c echo.Context) error {
	categories, err := h.svc.ListCategories(c.Request().Context())
	return h.reply(c, "ListCategories", http.StatusOK, categories, "categories retrieved", err)
}

func (h *EchoHandler) GetCategory(c echo.Context) error {
	category, err := h.svc.GetCategory(c.Request().Context(), c.Param("id"))
	return h.reply(c, "GetCategory", http.StatusOK, category, "category retrieved", err)
}

func (h *EchoHandler) ListSubcategories(c echo.Context) error {
	children, err := h.svc.ListSubcategories(c.Request().Context(), c.Param("id"))
	return h.reply(c, "ListSubcategories", http.StatusOK, children, "subcategories retrieved", err)
}

func (h *EchoHandler) UpdateCategory(c echo.Context) error {
	var req CategoryRequest
	if !h.bind(c, &req) {
		return nil
	}
	category, err := h.svc.UpdateCategory(c.Request().Context(), caller(c),
		&domain.Category{ID: c.Param("id"), Name: req.Name, ParentID: req.ParentID})
	return h.reply(c, "UpdateCategory", http.StatusOK, category, "category updated", err)
}

func (h *EchoHandler) DeleteCategory(c echo.Context) error {
	err := h.svc.DeleteCategory(c.Request().Context(), caller(c), c.Param("id"))
	return h.reply(c, "DeleteCategory", http.StatusOK, nil, "category deleted", err)
}

// Lots

func (h *EchoHandler) AddLot(c echo.Context) error {
	var req LotRequest
	if !h.bind(c, &req) {
		return nil
	}
	lot, err := h.svc.AddLot(c.Request().Context(), caller(c), req.lot(""))
	return h.reply(c, "AddLot", http.StatusCreated, lot, "lot created", err)
}

func (h *EchoHandler) ListLots(c echo.Context) error {
	lots, err := h.svc.ListLots(c.Request().Context())
	return h.reply(c, "ListLots", http.StatusOK, lots, "lots retrieved", err)
}

func (h *EchoHandler) GetLot(c echo.Context) error {
	lot, err := h.svc.GetLot(c.Request().Context(), c.Param("id"))
	return h.reply(c, "GetLot", http.StatusOK, lot, "lot retrieved", err)
}

func (h *EchoHandler) UpdateLot(c echo.Context) error {
	var req LotRequest
	if !h.bind(c, &req) {
		return nil
	}
	lot, err := h.svc.UpdateLot(c.Request().Context(), caller(c), req.lot(c.Param("id")))
	return h.reply(c, "UpdateLot", http.StatusOK, lot, "lot updated", err)
}

func (h *EchoHandler) DeleteLot(c echo.Context) error {
	err := h.svc.DeleteLot(c.Request().Context(), caller(c), c.Param("id"))
	return h.reply(c, "DeleteLot", http.StatusOK, nil, "lot deleted", err)
}

// Auctions

func (h *EchoHandler) CreateAuction(c echo.Context) error {
	var req AuctionRequest
	if !h.bind(c, &req) {
		return nil
	}
	auction, err := h.svc.CreateAuction(c.Request().Context(), caller(c), req.auction(""))
	return h.reply(c, "CreateAuction", http.StatusCreated, auction, "auction created", err)
}

func (h *EchoHandler) ListAuctions(c echo.Context) error {
	auctions, err := h.svc.ListAuctions(c.Request().Context())
	return h.reply(c, "ListAuctions", http.StatusOK, auctions, "auctions retrieved", err)
}

func (h *EchoHandler) GetAuction(c echo.Context) error {
	auction, err := h.svc.GetAuction(c.Request().Context(), c.Param("id"))
	return h.reply(c, "GetAuction", http.StatusOK, auction, "auction retrieved", err)
}

func (h *EchoHandler) GetAuctionState(c echo.Context) error {
	state, err := h.svc.GetAuctionState(c.Request().Context(), c.Param("id"))
	return h.reply(c, "GetAuctionState", http.StatusOK, state, "auction state retrieved", err)
}

func (h *EchoHandler) UpdateAuction(c echo.Context) error {
	var req AuctionRequest
	if !h.bind(c, &req) {
		return nil
	}
	auction, err := h.svc.UpdateAuction(c.Request().Context(), caller(c), req.auction(c.Param("id")))
	return h.reply(c, "UpdateAuction", http.StatusOK, auction, "auction updated", err)
}

func (h *EchoHandler) DeleteAuction(c echo.Context) error {
	err := h.svc.DeleteAuction(c.Request().Context(), caller(c), c.Param("id"))
	return h.reply(c, "DeleteAuction", http.StatusOK, nil, "auction deleted", err)
}

func (h *EchoHandler) CloseAuction(c echo.Context) error {
	result, err := h.svc.CloseAuction(c.Request().Context(), caller(c), c.Param("id"))
	return h.reply(c, "CloseAuction", http.StatusOK, result, "close processed", err)
}

// Bids

func (h *EchoHandler) PlaceBid(c echo.Context) error {
	var req BidRequest
	if !h.bind(c, &req) {
		return nil
	}
	if err := req.validate(); err != nil {
		return c.JSON(http.StatusBadRequest, badRequest(err))
	}
	bid, err := h.svc.PlaceBid(c.Request().Context(), caller(c), req.bid())
	return h.reply(c, "PlaceBid", http.StatusCreated, bid, "bid recorded", err)
}

func (h *EchoHandler) ListBids(c echo.Context) error {
	bids, err := h.svc.ListBids(c.Request().Context())
	return h.reply(c, "ListBids", http.StatusOK, bids, "bids retrieved", err)
}

func (h *EchoHandler) GetBid(c echo.Context) error {
	bid, err := h.svc.GetBid(c.Request().Context(), c.Param("id"))
	return h.reply(c, "GetBid", http.StatusOK, bid, "bid retrieved", err)
}

func (h *EchoHandler) ListBidsByAuction(c echo.Context) error {
	bids, err := h.svc.ListBidsByAuction(c.Request().Context(), c.Param("id"))
	return h.reply(c, "ListBidsByAuction", http.StatusOK, bids, "bids retrieved", err)
}

func (h *EchoHandler) GetWinningBid(c echo.Context) error {
	bid, err := h.svc.GetWinningBid(c.Request().Context(), c.Param("id"))
	return h.reply(c, "GetWinningBid", http.StatusOK, bid, "winning bid retrieved", err)
}

func (h *EchoHandler) DeleteBid(c echo.Context) error {
	err := h.svc.DeleteBid(c.Request().Context(), caller(c), c.Param("id"))
	return h.reply(c, "DeleteBid", http.StatusOK, nil, "bid deleted", err)
}
