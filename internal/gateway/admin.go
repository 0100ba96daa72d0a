package gateway

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/abdoElHodaky/tradsys-core/internal/matching"
	"github.com/abdoElHodaky/tradsys-core/internal/metrics"
	"github.com/abdoElHodaky/tradsys-core/pkg/types"
	"github.com/gorilla/mux"
)

// bookTopN is the number of levels per side returned by /bookz.
const bookTopN = 10

// bookSnapshot is the JSON body served by GET /bookz/{ticker}.
type bookSnapshot struct {
	Ticker types.TickerId     `json:"ticker"`
	BBO    types.BBO          `json:"bbo"`
	Bids   []types.PriceLevel `json:"bids"`
	Asks   []types.PriceLevel `json:"asks"`
}

// NewAdminRouter builds the exchange's admin HTTP surface (spec.md
// §4.11): liveness, Prometheus exposition, and a read-only book
// snapshot. The handlers never mutate book state — they read under the
// single-writer discipline the matching loop already provides.
func NewAdminRouter(engine *matching.Engine, reg *metrics.Registry) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", handleHealthz).Methods(http.MethodGet)
	r.Handle("/metrics", reg.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/bookz/{ticker}", handleBookz(engine)).Methods(http.MethodGet)
	return r
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func handleBookz(engine *matching.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := mux.Vars(r)["ticker"]
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			http.Error(w, "invalid ticker", http.StatusBadRequest)
			return
		}
		ticker := types.TickerId(id)
		book := engine.Book(ticker)
		if book == nil {
			http.Error(w, "unknown ticker", http.StatusNotFound)
			return
		}
		snap := bookSnapshot{
			Ticker: ticker,
			BBO:    book.BBO(),
			Bids:   book.Levels(types.Buy, bookTopN),
			Asks:   book.Levels(types.Sell, bookTopN),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(snap)
	}
}
