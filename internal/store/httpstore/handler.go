package httpstore

import (
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/hanpama/usergraph/internal/store"
)

const maxRecordBytes = 1 << 20

// Handler serves s over the REST API the Client speaks.
type Handler struct {
	store  store.Store
	logger *zap.Logger
	mux    *http.ServeMux
}

// NewHandler returns a Handler for s. A nil logger discards output.
func NewHandler(s store.Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{store: s, logger: logger, mux: http.NewServeMux()}
	h.mux.HandleFunc("GET /{collection}", h.list)
	h.mux.HandleFunc("POST /{collection}", h.create)
	h.mux.HandleFunc("GET /{collection}/{id}", h.find)
	h.mux.HandleFunc("PATCH /{collection}/{id}", h.update)
	h.mux.HandleFunc("PUT /{collection}/{id}", h.update)
	h.mux.HandleFunc("DELETE /{collection}/{id}", h.delete)
	h.mux.HandleFunc("GET /{parent}/{id}/{collection}", h.nested)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) { h.mux.ServeHTTP(w, r) }

func (h *Handler) find(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.Find(r.Context(), r.PathValue("collection"), r.PathValue("id"))
	h.reply(w, r, http.StatusOK, rec, err)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := store.Filter{}
	for k, vs := range r.URL.Query() {
		if len(vs) > 0 {
			filter[k] = vs[0]
		}
	}
	recs, err := h.store.List(r.Context(), r.PathValue("collection"), nil)
	if err != nil {
		h.reply(w, r, http.StatusOK, nil, err)
		return
	}
	out := []store.Record{}
	for _, rec := range recs {
		if matchesAsStrings(rec, filter) {
			out = append(out, rec)
		}
	}
	h.reply(w, r, http.StatusOK, out, nil)
}

// nested serves /companies/2/users as the users whose companyId is 2.
func (h *Handler) nested(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSuffix(r.PathValue("parent"), "s")
	if strings.HasSuffix(key, "ie") {
		key = strings.TrimSuffix(key, "ie") + "y"
	}
	recs, err := h.store.List(r.Context(), r.PathValue("collection"), store.Filter{key + "Id": r.PathValue("id")})
	h.reply(w, r, http.StatusOK, recs, err)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	rec, err := decodeBody(r)
	if err == nil {
		rec, err = h.store.Create(r.Context(), r.PathValue("collection"), rec)
	}
	h.reply(w, r, http.StatusCreated, rec, err)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	patch, err := decodeBody(r)
	var rec store.Record
	if err == nil {
		rec, err = h.store.Update(r.Context(), r.PathValue("collection"), r.PathValue("id"), patch)
	}
	h.reply(w, r, http.StatusOK, rec, err)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	_, err := h.store.Delete(r.Context(), r.PathValue("collection"), r.PathValue("id"))
	h.reply(w, r, http.StatusOK, map[string]any{}, err)
}

var errBadBody = errors.New("request body must be a JSON object")

func decodeBody(r *http.Request) (store.Record, error) {
	b, err := io.ReadAll(io.LimitReader(r.Body, maxRecordBytes))
	if err != nil {
		return nil, errors.Wrap(errBadBody, err.Error())
	}
	rec, err := store.Decode(b)
	if err != nil || rec == nil {
		return nil, errBadBody
	}
	return rec, nil
}

func (h *Handler) reply(w http.ResponseWriter, r *http.Request, status int, body any, err error) {
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(err, store.ErrExists):
			status = http.StatusConflict
		case errors.Is(err, errBadBody):
			status = http.StatusBadRequest
		default:
			status = http.StatusInternalServerError
			h.logger.Error("store request failed",
				zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
		}
		body = map[string]any{"error": err.Error()}
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func matchesAsStrings(rec store.Record, filter store.Filter) bool {
	for k, want := range filter {
		got, err := json.MarshalToString(rec[k])
		if err != nil || strings.Trim(got, `"`) != want {
			return false
		}
	}
	return true
}
