// Package transport exposes the registry and marketplace over HTTP/JSON.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/regionmarkets/coretime-market-backend/internal/coretime/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// MetadataRegistry is the registry surface the gateway exposes.
	MetadataRegistry interface {
		Wrap(caller model.AccountID, id model.RegionID, region model.Region) error
		Unwrap(id model.RegionID) error
		GetMetadata(id model.RegionID) (model.VersionedRegion, error)
	}

	// Marketplace is the market surface the gateway exposes.
	Marketplace interface {
		List(caller model.AccountID, id model.RegionID, bitPrice model.Balance, saleRecipient model.AccountID, payment model.Balance) error
		Purchase(buyer model.AccountID, id model.RegionID, expectedVersion model.Version, payment model.Balance) error
		UpdatePrice(caller model.AccountID, id model.RegionID, newBitPrice model.Balance) error
		Unlist(caller model.AccountID, id model.RegionID) error
		Price(id model.RegionID) (model.Balance, error)
		ListedRegions() []model.RegionID
		ListedRegion(id model.RegionID) (model.Listing, bool)
		ListingDeposit() model.Balance
	}

	// EventArchive reads the historical event store.
	EventArchive interface {
		EventsByRegion(ctx context.Context, regionID string, limit uint64) ([]model.MarketEvent, error)
	}

	// Metrics observes handled HTTP requests.
	Metrics interface {
		ObserveRequest(route, method string, code int, started time.Time)
	}
)

// MarketHandler routes HTTP requests to the registry and marketplace.
type MarketHandler struct {
	registry MetadataRegistry
	market   Marketplace
	archive  EventArchive
	metrics  Metrics
	logger   *zap.Logger
}

// NewMarketHandler builds the gateway handler. archive may be nil when the
// deployment runs without ClickHouse.
func NewMarketHandler(
	registry MetadataRegistry,
	market Marketplace,
	archive EventArchive,
	metrics Metrics,
	logger *zap.Logger,
) (*MarketHandler, error) {
	if registry == nil {
		return nil, errors.New("metadata registry is required")
	}
	if market == nil {
		return nil, errors.New("marketplace is required")
	}
	if metrics == nil {
		return nil, errors.New("gateway metrics is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	return &MarketHandler{
		registry: registry,
		market:   market,
		archive:  archive,
		metrics:  metrics,
		logger:   logger.Named("gateway"),
	}, nil
}

// Router returns the gateway's route table.
func (h *MarketHandler) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/health", h.observed("/v1/health", h.handleHealth))
	mux.HandleFunc("POST /v1/regions/wrap", h.observed("/v1/regions/wrap", h.handleWrap))
	mux.HandleFunc("POST /v1/regions/unwrap", h.observed("/v1/regions/unwrap", h.handleUnwrap))
	mux.HandleFunc("GET /v1/regions/{id}/metadata", h.observed("/v1/regions/{id}/metadata", h.handleGetMetadata))
	mux.HandleFunc("GET /v1/regions/{id}/events", h.observed("/v1/regions/{id}/events", h.handleRegionEvents))
	mux.HandleFunc("GET /v1/listings", h.observed("/v1/listings", h.handleListings))
	mux.HandleFunc("POST /v1/listings", h.observed("/v1/listings", h.handleList))
	mux.HandleFunc("GET /v1/listings/{id}", h.observed("/v1/listings/{id}", h.handleListing))
	mux.HandleFunc("POST /v1/listings/{id}/purchase", h.observed("/v1/listings/{id}/purchase", h.handlePurchase))
	mux.HandleFunc("POST /v1/listings/{id}/price", h.observed("/v1/listings/{id}/price", h.handleUpdatePrice))
	mux.HandleFunc("POST /v1/listings/{id}/unlist", h.observed("/v1/listings/{id}/unlist", h.handleUnlist))

	return mux
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func (h *MarketHandler) observed(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next(rec, r)
		h.metrics.ObserveRequest(route, r.Method, rec.code, started)
		h.logger.Debug("request handled",
			zap.String("route", route),
			zap.String("method", r.Method),
			zap.Int("code", rec.code),
			zap.Duration("duration", time.Since(started)),
		)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *MarketHandler) writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("response not written", zap.Error(err))
	}
}

func (h *MarketHandler) writeError(w http.ResponseWriter, err error) {
	h.writeJSON(w, statusCode(err), errorResponse{Error: err.Error()})
}

// statusCode maps the domain error taxonomy onto HTTP statuses.
func statusCode(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidRegionID),
		errors.Is(err, model.ErrInvalidMetadata),
		errors.Is(err, model.ErrMissingDeposit),
		errors.Is(err, model.ErrArithmetic):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrRegionNotFound),
		errors.Is(err, model.ErrMetadataNotFound),
		errors.Is(err, model.ErrVersionNotFound),
		errors.Is(err, model.ErrRegionNotListed):
		return http.StatusNotFound
	case errors.Is(err, model.ErrNotSeller):
		return http.StatusForbidden
	case errors.Is(err, model.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, model.ErrCannotInitialize),
		errors.Is(err, model.ErrRegionStillValid),
		errors.Is(err, model.ErrRegionExpired),
		errors.Is(err, model.ErrMetadataNotMatching):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *MarketHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func (h *MarketHandler) pathRegionID(w http.ResponseWriter, r *http.Request) (model.RegionID, bool) {
	id, err := model.ParseRegionID(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return model.RegionID{}, false
	}
	return id, true
}

func (h *MarketHandler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

type regionPayload struct {
	Begin uint32 `json:"begin"`
	End   uint32 `json:"end"`
	Core  uint16 `json:"core"`
	Mask  string `json:"mask"`
}

func (p regionPayload) toRegion() (model.Region, error) {
	mask, err := model.ParseCoreMask(p.Mask)
	if err != nil {
		return model.Region{}, fmt.Errorf("%w: %w", model.ErrInvalidMetadata, err)
	}
	return model.Region{
		Begin: model.Timeslice(p.Begin),
		End:   model.Timeslice(p.End),
		Core:  p.Core,
		Mask:  mask,
	}, nil
}

func regionToPayload(region model.Region) regionPayload {
	return regionPayload{
		Begin: uint32(region.Begin),
		End:   uint32(region.End),
		Core:  region.Core,
		Mask:  region.Mask.String(),
	}
}

type wrapRequest struct {
	Caller   string        `json:"caller"`
	RegionID string        `json:"region_id"`
	Region   regionPayload `json:"region"`
}

func (h *MarketHandler) handleWrap(w http.ResponseWriter, r *http.Request) {
	var req wrapRequest
	if !h.decode(w, r, &req) {
		return
	}

	id, err := model.ParseRegionID(req.RegionID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	region, err := req.Region.toRegion()
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.registry.Wrap(model.AccountID(req.Caller), id, region); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"region_id": id.String()})
}

type unwrapRequest struct {
	RegionID string `json:"region_id"`
}

func (h *MarketHandler) handleUnwrap(w http.ResponseWriter, r *http.Request) {
	var req unwrapRequest
	if !h.decode(w, r, &req) {
		return
	}

	id, err := model.ParseRegionID(req.RegionID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.registry.Unwrap(id); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"region_id": id.String()})
}

type metadataResponse struct {
	RegionID string        `json:"region_id"`
	Version  uint32        `json:"version"`
	Region   regionPayload `json:"region"`
}

func (h *MarketHandler) handleGetMetadata(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathRegionID(w, r)
	if !ok {
		return
	}

	vr, err := h.registry.GetMetadata(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, metadataResponse{
		RegionID: id.String(),
		Version:  uint32(vr.Version),
		Region:   regionToPayload(vr.Region),
	})
}

func (h *MarketHandler) handleRegionEvents(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "event archive is not configured"})
		return
	}

	id, ok := h.pathRegionID(w, r)
	if !ok {
		return
	}

	limit := uint64(100)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || parsed == 0 {
			h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	events, err := h.archive.EventsByRegion(r.Context(), id.String(), limit)
	if err != nil {
		h.logger.Error("archive query failed", zap.Error(err))
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "event archive query failed"})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

type listingResponse struct {
	RegionID        string `json:"region_id"`
	Seller          string `json:"seller"`
	BitPrice        uint64 `json:"bit_price"`
	SaleRecipient   string `json:"sale_recipient"`
	MetadataVersion uint32 `json:"metadata_version"`
	ListedAt        uint32 `json:"listed_at"`
	CurrentPrice    uint64 `json:"current_price,omitempty"`
}

func (h *MarketHandler) listingResponse(id model.RegionID, listing model.Listing) listingResponse {
	resp := listingResponse{
		RegionID:        id.String(),
		Seller:          string(listing.Seller),
		BitPrice:        uint64(listing.BitPrice),
		SaleRecipient:   string(listing.SaleRecipient),
		MetadataVersion: uint32(listing.MetadataVersion),
		ListedAt:        uint32(listing.ListedAt),
	}
	if price, err := h.market.Price(id); err == nil {
		resp.CurrentPrice = uint64(price)
	}
	return resp
}

func (h *MarketHandler) handleListings(w http.ResponseWriter, _ *http.Request) {
	listings := make([]listingResponse, 0)
	for _, id := range h.market.ListedRegions() {
		listing, ok := h.market.ListedRegion(id)
		if !ok {
			continue
		}
		listings = append(listings, h.listingResponse(id, listing))
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"deposit":  uint64(h.market.ListingDeposit()),
		"listings": listings,
	})
}

func (h *MarketHandler) handleListing(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathRegionID(w, r)
	if !ok {
		return
	}

	listing, ok := h.market.ListedRegion(id)
	if !ok {
		h.writeError(w, model.ErrRegionNotListed)
		return
	}
	h.writeJSON(w, http.StatusOK, h.listingResponse(id, listing))
}

type listRequest struct {
	Caller        string `json:"caller"`
	RegionID      string `json:"region_id"`
	BitPrice      uint64 `json:"bit_price"`
	SaleRecipient string `json:"sale_recipient"`
	Payment       uint64 `json:"payment"`
}

func (h *MarketHandler) handleList(w http.ResponseWriter, r *http.Request) {
	var req listRequest
	if !h.decode(w, r, &req) {
		return
	}

	id, err := model.ParseRegionID(req.RegionID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.market.List(
		model.AccountID(req.Caller),
		id,
		model.Balance(req.BitPrice),
		model.AccountID(req.SaleRecipient),
		model.Balance(req.Payment),
	); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"region_id": id.String()})
}

type purchaseRequest struct {
	Buyer           string `json:"buyer"`
	ExpectedVersion uint32 `json:"expected_version"`
	Payment         uint64 `json:"payment"`
}

func (h *MarketHandler) handlePurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathRegionID(w, r)
	if !ok {
		return
	}

	var req purchaseRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.market.Purchase(
		model.AccountID(req.Buyer),
		id,
		model.Version(req.ExpectedVersion),
		model.Balance(req.Payment),
	); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"region_id": id.String()})
}

type updatePriceRequest struct {
	Caller   string `json:"caller"`
	BitPrice uint64 `json:"bit_price"`
}

func (h *MarketHandler) handleUpdatePrice(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathRegionID(w, r)
	if !ok {
		return
	}

	var req updatePriceRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.market.UpdatePrice(model.AccountID(req.Caller), id, model.Balance(req.BitPrice)); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"region_id": id.String()})
}

type unlistRequest struct {
	Caller string `json:"caller"`
}

func (h *MarketHandler) handleUnlist(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathRegionID(w, r)
	if !ok {
		return
	}

	var req unlistRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.market.Unlist(model.AccountID(req.Caller), id); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"region_id": id.String()})
}
