package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sort"

	"github.com/automoto/twinflame/lobby"
	"github.com/automoto/twinflame/shared/store"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// SessionInfo is the public view of one session.
type SessionInfo struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Players    []string `json:"players"`
	MaxPlayers int      `json:"maxPlayers"`
	Started    bool     `json:"started"`
	Status     string   `json:"status"`
}

func sessionInfos(snap store.Snapshot) ([]SessionInfo, error) {
	var recs map[string]lobby.SessionRecord
	if err := snap.Decode(&recs); err != nil {
		return nil, err
	}
	out := make([]SessionInfo, 0, len(recs))
	for id, rec := range recs {
		names := make([]string, 0, len(rec.Players))
		for _, name := range rec.Players {
			names = append(names, name)
		}
		sort.Strings(names)
		out = append(out, SessionInfo{
			ID:         id,
			Name:       rec.Name,
			Players:    names,
			MaxPlayers: rec.Capacity(),
			Started:    rec.Start,
			Status:     lobby.StatusOf(rec).String(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func ListSessions(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")

		snap, err := st.Get(r.Context(), store.ServersRoot)
		if err != nil {
			http.Error(w, `{"error":"store unavailable"}`, http.StatusServiceUnavailable)
			return
		}
		infos, err := sessionInfos(snap)
		if err != nil {
			log.Printf("[storehost] bad sessions tree: %v", err)
			http.Error(w, `{"error":"bad sessions tree"}`, http.StatusInternalServerError)
			return
		}
		if err := json.NewEncoder(w).Encode(infos); err != nil {
			log.Printf("[storehost] list encode error: %v", err)
		}
	}
}

// Feed streams the session list over a websocket on every change.
func Feed(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			log.Printf("[storehost] ws accept failed: %v", err)
			return
		}
		defer conn.CloseNow()

		ctx := conn.CloseRead(r.Context())
		snaps, cancel, err := st.Subscribe(ctx, store.ServersRoot)
		if err != nil {
			conn.Close(websocket.StatusInternalError, "store unavailable")
			return
		}
		defer cancel()

		for snap := range snaps {
			infos, err := sessionInfos(snap)
			if err != nil {
				log.Printf("[storehost] bad sessions tree: %v", err)
				continue
			}
			wctx, done := context.WithTimeout(ctx, writeTimeout)
			err = wsjson.Write(wctx, conn, infos)
			done()
			if err != nil {
				return
			}
		}
		conn.Close(websocket.StatusNormalClosure, "")
	}
}

func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
