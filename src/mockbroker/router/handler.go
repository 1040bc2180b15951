package router

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jiaming2012/mockbroker/src/eventpubsub"
	"github.com/jiaming2012/mockbroker/src/mockbroker/models"
	"github.com/jiaming2012/mockbroker/src/mockbroker/services"
)

type Handler struct {
	registry *services.AccountRegistry
	decoder  *schema.Decoder
	upgrader websocket.Upgrader
	streams  *streamHub
}

// NewHandler subscribes to fill events on bus so open streams can forward
// them. A nil bus disables fill forwarding.
func NewHandler(registry *services.AccountRegistry, bus *eventpubsub.Bus) (*Handler, error) {
	h := &Handler{
		registry: registry,
		decoder:  newQueryDecoder(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		streams: newStreamHub(),
	}

	if bus != nil {
		if err := bus.Subscribe(eventpubsub.OrderFilledEvent, h.streams.onFill); err != nil {
			return nil, err
		}
	}

	return h, nil
}

// handleFunc registers the handler with the route pattern attached to its
// HTTP instrumentation.
func handleFunc(router *mux.Router, pattern string, f func(http.ResponseWriter, *http.Request)) {
	router.Handle(pattern, otelhttp.WithRouteTag(pattern, http.HandlerFunc(f)))
}

// NewRouter mounts the account routes under /accounts and wraps them in the
// otelhttp handler that starts the server spans the route tags label.
func NewRouter(h *Handler) http.Handler {
	r := mux.NewRouter()
	SetupHandler(r.PathPrefix("/accounts").Subrouter(), h)

	return otelhttp.NewHandler(r, "/")
}

func SetupHandler(router *mux.Router, h *Handler) {
	handleFunc(router, "", h.handleAccounts)
	handleFunc(router, "/{id}", h.handleAccount)
	handleFunc(router, "/{id}/clock", h.handleClock)
	handleFunc(router, "/{id}/playback-speed", h.handlePlaybackSpeed)
	handleFunc(router, "/{id}/snapshots", h.handleSnapshots)
	handleFunc(router, "/{id}/kbars", h.handleKBars)
	handleFunc(router, "/{id}/positions", h.handlePositions)
	handleFunc(router, "/{id}/trades", h.handleTrades)
	handleFunc(router, "/{id}/fills", h.handleFills)
	handleFunc(router, "/{id}/match", h.handleMatch)
	handleFunc(router, "/{id}/orders", h.handleOrders)
	handleFunc(router, "/{id}/orders/{orderId}", h.handleOrder)
	handleFunc(router, "/{id}/orders/{orderId}/commit", h.handleCommitOrder)
	handleFunc(router, "/{id}/stream", h.handleStream)
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("failed to decode request body: %v", err)
	}

	return nil
}

func (h *Handler) decodeQuery(r *http.Request, v interface{}) error {
	if err := h.decoder.Decode(v, r.URL.Query()); err != nil {
		return badRequest("invalid query: %v", err)
	}

	return nil
}

func (h *Handler) handleAccounts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		respond("handleAccounts", h.registry.IDs(), nil, w)

	case "POST":
		var req services.CreateAccountRequest
		if r.ContentLength != 0 {
			if err := decodeJSON(r, &req); err != nil {
				setErrorResponse("handleAccounts: failed to decode request", err, w)
				return
			}
		}

		id, err := h.registry.Open(r.Context(), req)
		if err != nil {
			setErrorResponse("handleAccounts: failed to open account", err, w)
			return
		}

		var summary *models.AccountSummary
		err = h.registry.Do(id, func(account *models.MockAccount) (err error) {
			summary, err = account.Summary(r.Context())
			return
		})

		respond("handleAccounts", &CreateAccountResponse{ID: id, Summary: summary}, err, w)

	default:
		w.WriteHeader(404)
	}
}

func (h *Handler) handleAccount(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	switch r.Method {
	case "GET":
		var summary *models.AccountSummary
		err := h.registry.Do(id, func(account *models.MockAccount) (err error) {
			summary, err = account.Summary(r.Context())
			return
		})

		respond("handleAccount", summary, err, w)

	case "DELETE":
		err := h.registry.Close(r.Context(), id)
		respond("handleAccount", map[string]string{"id": id}, err, w)

	default:
		w.WriteHeader(404)
	}
}

func (h *Handler) handleClock(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(404)
		return
	}

	var reading models.ClockReading
	err := h.registry.Do(mux.Vars(r)["id"], func(account *models.MockAccount) (err error) {
		reading, err = account.Clock()
		return
	})

	respond("handleClock", reading, err, w)
}

func (h *Handler) handlePlaybackSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != "PUT" {
		w.WriteHeader(404)
		return
	}

	var req PlaybackSpeedRequest
	if err := decodeJSON(r, &req); err != nil {
		setErrorResponse("handlePlaybackSpeed: failed to decode request", err, w)
		return
	}

	var resp PlaybackSpeedResponse
	err := h.registry.Do(mux.Vars(r)["id"], func(account *models.MockAccount) error {
		if err := account.SetPlaybackSpeed(req.Speed); err != nil {
			return err
		}

		reading, err := account.Clock()
		if err != nil {
			return err
		}

		resp = PlaybackSpeedResponse{Clock: reading, SupportedSpeeds: account.SupportedSpeeds()}
		return nil
	})

	respond("handlePlaybackSpeed", resp, err, w)
}

func (h *Handler) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(404)
		return
	}

	var query SnapshotQuery
	if err := h.decodeQuery(r, &query); err != nil {
		setErrorResponse("handleSnapshots: failed to decode query", err, w)
		return
	}

	var snapshots []*models.Snapshot
	err := h.registry.Do(mux.Vars(r)["id"], func(account *models.MockAccount) (err error) {
		snapshots, err = account.Snapshots(r.Context(), query.Symbols)
		return
	})

	respond("handleSnapshots", snapshots, err, w)
}

func (h *Handler) handleKBars(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(404)
		return
	}

	var query KBarsQuery
	if err := h.decodeQuery(r, &query); err != nil {
		setErrorResponse("handleKBars: failed to decode query", err, w)
		return
	}

	if err := query.Validate(); err != nil {
		setErrorResponse("handleKBars: invalid query", badRequest("%v", err), w)
		return
	}

	var bars []*models.Bar
	err := h.registry.Do(mux.Vars(r)["id"], func(account *models.MockAccount) (err error) {
		bars, err = account.KBars(r.Context(), query.Symbol, query.Start, query.End, query.Interval)
		return
	})

	respond("handleKBars", bars, err, w)
}

func (h *Handler) handlePositions(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(404)
		return
	}

	var positions []*models.Position
	err := h.registry.Do(mux.Vars(r)["id"], func(account *models.MockAccount) (err error) {
		positions, err = account.ListPositions(r.Context())
		return
	})

	respond("handlePositions", positions, err, w)
}

func (h *Handler) handleTrades(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(404)
		return
	}

	var orders []*models.Order
	err := h.registry.Do(mux.Vars(r)["id"], func(account *models.MockAccount) (err error) {
		orders, err = account.ListTrades(r.Context())
		return
	})

	respond("handleTrades", orders, err, w)
}

func (h *Handler) handleFills(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(404)
		return
	}

	var fills []models.FillRecord
	err := h.registry.Do(mux.Vars(r)["id"], func(account *models.MockAccount) error {
		fills = account.Fills()
		return nil
	})

	respond("handleFills", fills, err, w)
}

func (h *Handler) handleMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(404)
		return
	}

	resp := MatchResponse{Fills: make([]models.FillRecord, 0)}
	err := h.registry.Do(mux.Vars(r)["id"], func(account *models.MockAccount) error {
		matched, err := account.MatchOrders(r.Context())
		if err != nil {
			return err
		}

		for _, m := range matched {
			resp.Fills = append(resp.Fills, m.Fill)
		}

		return nil
	})

	respond("handleMatch", resp, err, w)
}

// Order endpoints answer 200 with the OrderResult even when it is REJECTED:
// a rejection is a normal outcome, not a transport error.
func (h *Handler) handleOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(404)
		return
	}

	var req models.OrderRequest
	if err := decodeJSON(r, &req); err != nil {
		setErrorResponse("handleOrders: failed to decode request", err, w)
		return
	}

	var result *models.OrderResult
	err := h.registry.Do(mux.Vars(r)["id"], func(account *models.MockAccount) (err error) {
		result, err = account.PlaceOrder(r.Context(), req)
		return
	})

	respond("handleOrders", result, err, w)
}

func (h *Handler) handleOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != "DELETE" {
		w.WriteHeader(404)
		return
	}

	vars := mux.Vars(r)

	var result *models.OrderResult
	err := h.registry.Do(vars["id"], func(account *models.MockAccount) (err error) {
		result, err = account.CancelOrder(r.Context(), vars["orderId"])
		return
	})

	respond("handleOrder", result, err, w)
}

func (h *Handler) handleCommitOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(404)
		return
	}

	vars := mux.Vars(r)

	var result *models.OrderResult
	err := h.registry.Do(vars["id"], func(account *models.MockAccount) (err error) {
		result, err = account.CommitOrder(r.Context(), vars["orderId"])
		return
	})

	respond("handleCommitOrder", result, err, w)
}
