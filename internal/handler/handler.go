package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/dukerupert/neuri/internal/metrics"
	"github.com/dukerupert/neuri/internal/store"
	"github.com/dukerupert/neuri/internal/websocket"
)

// Deps bundles what the handlers share.
type Deps struct {
	Users      *store.UserStore
	Categories *store.CategoryStore
	Routines   *store.RoutineStore
	Missions   *store.MissionStore
	Rewards    *store.RewardStore

	Hub     *websocket.Hub
	Metrics *metrics.Metrics
	Logger  *slog.Logger

	// Location decides which calendar day "today" is.
	Location *time.Location
	// MaxDays caps schedule expansion requests.
	MaxDays int
	// Now defaults to time.Now.
	Now func() time.Time
}

type base struct {
	Deps
	logger *slog.Logger
}

func newBase(d Deps, component string) base {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.MaxDays <= 0 {
		d.MaxDays = 365
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return base{Deps: d, logger: d.Logger.With("component", component)}
}

func (b *base) now() time.Time {
	return b.Now().In(b.Location)
}

func (b *base) broadcast(msg websocket.Message) {
	if b.Hub != nil {
		b.Hub.Broadcast(msg)
	}
}

// apiError is a failure with the status code it maps to. err, when set, is
// logged but not shown to the client.
type apiError struct {
	status int
	msg    string
	err    error
}

func (e *apiError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func badRequest(msg string) *apiError {
	return &apiError{status: http.StatusBadRequest, msg: msg}
}

func notFound(what string) *apiError {
	return &apiError{status: http.StatusNotFound, msg: what + " not found"}
}

func conflict(msg string) *apiError {
	return &apiError{status: http.StatusConflict, msg: msg}
}

func internal(msg string, err error) *apiError {
	return &apiError{status: http.StatusInternalServerError, msg: msg, err: err}
}

// Column limits for free-text fields.
const (
	maxTextLen  = 255
	maxShortLen = 50
	maxRuleLen  = 100
)

func checkLen(name string, v *string, max int) *apiError {
	if v != nil && utf8.RuneCountInString(*v) > max {
		return badRequest(fmt.Sprintf("%s must be at most %d characters", name, max))
	}
	return nil
}

// fail writes e as an error body, logging server-side causes.
func (b *base) fail(w http.ResponseWriter, r *http.Request, e *apiError) {
	if e.status >= 500 {
		b.logger.Error(e.msg, "error", e.err, "method", r.Method, "path", r.URL.Path)
	}
	writeJSON(w, e.status, map[string]string{"error": e.msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeData wraps v in the {"data": ...} envelope clients expect.
func writeData(w http.ResponseWriter, status int, v any) {
	writeJSON(w, status, map[string]any{"data": v})
}

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) *apiError {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		return badRequest("invalid JSON")
	}
	return nil
}

// parseUUIDParam reads a path parameter that must be a UUID and returns it
// in canonical form.
func parseUUIDParam(r *http.Request, name string) (string, *apiError) {
	return parseUUID(r.PathValue(name), name)
}

func parseUUID(s, name string) (string, *apiError) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", badRequest("invalid " + name)
	}
	return id.String(), nil
}

func parseOptionalUUID(s *string, name string) (*string, *apiError) {
	if s == nil || *s == "" {
		return nil, nil
	}
	id, aerr := parseUUID(*s, name)
	if aerr != nil {
		return nil, aerr
	}
	return &id, nil
}
