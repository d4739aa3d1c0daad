// Package diag serves a read-only HTTP diagnostics endpoint over a
// running node: GET /status, /peers and /models, each returning a JSON
// snapshot. Grounded on gnunet/service/zonemaster's GUI server (mux
// router + http.Server with a BaseContext tied to the node's lifetime),
// trimmed to a read-only JSON API with no admin/write surface.
package diag

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/bfix/gospel/logger"
	"github.com/gorilla/mux"

	"github.com/elien2016/p2pml/core"
	"github.com/elien2016/p2pml/inference"
)

// Node is the subset of node.Node the diagnostics server reads.
type Node interface {
	SelfID() string
	SelfEndpoint() core.Endpoint
	Peers() map[string]core.Endpoint
	Models() map[string]inference.Owner
}

// Server is the diagnostics HTTP server.
type Server struct {
	node Node
	http *http.Server
}

// NewServer builds a diagnostics server bound to addr (host:port),
// reading from node.
func NewServer(addr string, node Node) *Server {
	s := &Server{node: node}
	router := mux.NewRouter()
	router.HandleFunc("/status", s.status).Methods(http.MethodGet)
	router.HandleFunc("/peers", s.peers).Methods(http.MethodGet)
	router.HandleFunc("/models", s.models).Methods(http.MethodGet)
	s.http = &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Run starts serving and blocks until ctx is cancelled, at which point
// the HTTP server is shut down. Like the overlay server, this does not
// wait for in-flight requests beyond http.Server's own graceful window.
func (s *Server) Run(ctx context.Context) error {
	s.http.BaseContext = func(net.Listener) context.Context { return ctx }
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.http.Shutdown(shutCtx); err != nil {
			logger.Printf(logger.WARN, "[diag] shutdown: %v\n", err)
		}
	}()
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

type statusResponse struct {
	SelfID   string `json:"selfId"`
	Host     string `json:"host"`
	Port     uint16 `json:"port"`
	NumPeers int    `json:"numPeers"`
}

func (s *Server) status(w http.ResponseWriter, _ *http.Request) {
	ep := s.node.SelfEndpoint()
	writeJSON(w, statusResponse{
		SelfID:   s.node.SelfID(),
		Host:     ep.Host,
		Port:     ep.Port,
		NumPeers: len(s.node.Peers()),
	})
}

type peerEntry struct {
	ID   string `json:"id"`
	Host string `json:"host"`
	Port uint16 `json:"port"`
}

func (s *Server) peers(w http.ResponseWriter, _ *http.Request) {
	snapshot := s.node.Peers()
	out := make([]peerEntry, 0, len(snapshot))
	for id, ep := range snapshot {
		out = append(out, peerEntry{ID: id, Host: ep.Host, Port: ep.Port})
	}
	writeJSON(w, out)
}

type modelEntry struct {
	Name   string `json:"name"`
	Self   bool   `json:"self"`
	PeerID string `json:"peerId"`
	Host   string `json:"host"`
	Port   uint16 `json:"port"`
}

func (s *Server) models(w http.ResponseWriter, _ *http.Request) {
	snapshot := s.node.Models()
	out := make([]modelEntry, 0, len(snapshot))
	for name, owner := range snapshot {
		out = append(out, modelEntry{
			Name:   name,
			Self:   owner.IsSelf(),
			PeerID: owner.PeerID,
			Host:   owner.Host,
			Port:   owner.Port,
		})
	}
	writeJSON(w, out)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Printf(logger.WARN, "[diag] encode: %v\n", err)
	}
}
