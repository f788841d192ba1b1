package bot

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	dg "github.com/bwmarrin/discordgo"
	"github.com/glotchimo/slashbridge/internal/response"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (b *Bot) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Post(b.conf.EndpointPath, b.handleInteraction)

	return r
}

func (b *Bot) handleInteraction(w http.ResponseWriter, r *http.Request) {
	if !b.verify(r) {
		http.Error(w, "invalid request signature", http.StatusUnauthorized)
		return
	}

	var i dg.Interaction
	if err := json.NewDecoder(r.Body).Decode(&i); err != nil {
		http.Error(w, "malformed interaction", http.StatusBadRequest)
		return
	}

	switch i.Type {
	case dg.InteractionPing:
		writeResponse(w, response.Response{
			Status: http.StatusOK,
			Body:   &dg.InteractionResponse{Type: dg.InteractionResponsePong},
		})
		return
	case dg.InteractionApplicationCommand:
	default:
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	first := make(chan response.Response, 1)
	var once sync.Once
	respond := func(res response.Response) error {
		sent := false
		once.Do(func() {
			first <- res
			sent = true
		})
		if !sent {
			return b.s.InteractionRespond(&i, res.Body, dg.WithContext(b.ctx))
		}
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		b.Dispatch(b.ctx, &i, SourceWebhook, respond)
	}()

	select {
	case res := <-first:
		writeResponse(w, res)
	case <-done:
		select {
		case res := <-first:
			writeResponse(w, res)
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	case <-r.Context().Done():
	}
}

// verify checks the request signature and rejects stale timestamps.
func (b *Bot) verify(r *http.Request) bool {
	ts, err := strconv.ParseInt(r.Header.Get("X-Signature-Timestamp"), 10, 64)
	if err != nil {
		return false
	}
	if age := time.Since(time.Unix(ts, 0)); b.conf.MaxSignatureTimestamp > 0 && age > b.conf.MaxSignatureTimestamp {
		return false
	}

	return dg.VerifyInteraction(r, b.key)
}

func writeResponse(w http.ResponseWriter, res response.Response) {
	if res.Body == nil {
		w.WriteHeader(res.Status)
		return
	}

	if res.Body.Data != nil && len(res.Body.Data.Files) > 0 {
		contentType, body, err := dg.MultipartBodyWithJSON(res.Body, res.Body.Data.Files)
		if err != nil {
			http.Error(w, "error encoding response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(res.Status)
		w.Write(body)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.Status)
	json.NewEncoder(w).Encode(res.Body)
}
