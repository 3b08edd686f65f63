package server

import (
	"context"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dshills/edulint/internal/catalog"
	"github.com/dshills/edulint/internal/diag"
	"github.com/dshills/edulint/internal/engine"
	"github.com/dshills/edulint/internal/marker"
)

const (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
	wsPingEvery = (wsPongWait * 9) / 10
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type wsInbound struct {
	Type         string  `json:"type"`
	Text         *string `json:"text,omitempty"`
	PatternRules *string `json:"pattern_rules,omitempty"`
	ID           string  `json:"id,omitempty"`
	Enabled      *bool   `json:"enabled,omitempty"`
}

type wsOutbound struct {
	Type    string          `json:"type"`
	RunID   uint64          `json:"run_id,omitempty"`
	Result  *diag.RunResult `json:"result,omitempty"`
	Markers []marker.Marker `json:"markers,omitempty"`
	Catalog *catalogView    `json:"catalog,omitempty"`
	Rules   []catalog.Rule  `json:"rules,omitempty"`
	Code    string          `json:"code,omitempty"`
	Message string          `json:"message,omitempty"`
}

// session is one editor connection: its buffer, its pattern-rule source
// and its own copy of the catalog flags.
type session struct {
	eng *engine.Engine
	seq engine.Sequencer

	mu    sync.Mutex
	text  string
	rules string
}

func (s *session) snapshot() engine.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return engine.Snapshot{Code: s.text, Rules: s.rules}
}

// HandleWS serves the live edit feed. Every edit, rule change or toggle
// starts a full run in the background; a run that finishes after a newer
// one has been sent is dropped.
func (h *Handler) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(wsPongWait)); err != nil {
		log.Printf("ws set read deadline failed: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	writeCh := make(chan wsOutbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(wsPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	cat := h.catalog.Clone()
	s := &session{
		eng:   engine.New(cat, h.client, h.opts),
		rules: cat.DefaultPatternSource(),
	}
	pushWS(writeCh, wsOutbound{Type: "catalog", Catalog: viewOf(cat)})

	var runs sync.WaitGroup
	defer runs.Wait()
	trigger := func() {
		snap := s.snapshot()
		id := s.seq.Next()
		runs.Add(1)
		go func() {
			defer runs.Done()
			res, markers := s.eng.RunWithMarkers(ctx, snap)
			res.RunID = id
			if !s.seq.Publish(id) {
				log.Printf("ws run %d discarded: newer result already sent", id)
				return
			}
			pushWS(writeCh, wsOutbound{Type: "result", RunID: id, Result: &res, Markers: markers})
		}()
	}

	for {
		var in wsInbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		msgType := strings.ToLower(strings.TrimSpace(in.Type))
		switch msgType {
		case "":
			pushWS(writeCh, wsOutbound{Type: "error", Code: "invalid_argument", Message: "type is required"})
		case "ping":
			pushWS(writeCh, wsOutbound{Type: "pong"})
		case "edit":
			if in.Text == nil {
				pushWS(writeCh, wsOutbound{Type: "error", Code: "invalid_argument", Message: "text is required"})
				continue
			}
			s.mu.Lock()
			s.text = *in.Text
			s.mu.Unlock()
			trigger()
		case "rules":
			if in.PatternRules == nil {
				pushWS(writeCh, wsOutbound{Type: "error", Code: "invalid_argument", Message: "pattern_rules is required"})
				continue
			}
			s.mu.Lock()
			s.rules = *in.PatternRules
			s.mu.Unlock()
			trigger()
		case "toggle":
			if in.Enabled != nil {
				cat.SetEnabled(in.ID, *in.Enabled)
			} else {
				cat.Toggle(in.ID)
			}
			pushWS(writeCh, wsOutbound{Type: "rules", Rules: cat.Rules()})
			trigger()
		case "sample":
			s.mu.Lock()
			s.text = cat.Sample
			s.mu.Unlock()
			trigger()
		case "run":
			trigger()
		default:
			pushWS(writeCh, wsOutbound{Type: "error", Code: "invalid_argument", Message: "unsupported type: " + msgType})
		}
	}
}

// pushWS queues out without blocking. When the queue is full the oldest
// message is dropped.
func pushWS(writeCh chan wsOutbound, out wsOutbound) {
	select {
	case writeCh <- out:
		return
	default:
	}
	select {
	case <-writeCh:
	default:
	}
	select {
	case writeCh <- out:
	default:
	}
}
