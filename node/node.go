package node

import (
	"context"
	"time"

	"github.com/bfix/gospel/logger"

	"github.com/elien2016/p2pml/config"
	"github.com/elien2016/p2pml/core"
	"github.com/elien2016/p2pml/inference"
	"github.com/elien2016/p2pml/service"
)

// Node is one peer in the mesh: both server and client simultaneously.
// It owns the peer directory, the router, the model registry and
// local predictors, and the handler table that ties them to the wire.
type Node struct {
	cfg *config.Config

	selfID string
	selfEP core.Endpoint

	Dir    *core.Directory
	Router core.Router
	Infer  *inference.Module

	srv *service.Server
}

// New constructs a Node from cfg. If cfg.ServerHost is empty, the
// node's address is discovered by dialing a well-known external host;
// construction fails if that discovery fails. If cfg.MyID is empty, it
// is synthesized as "<host>:<port>".
func New(cfg *config.Config) (*Node, error) {
	host := cfg.ServerHost
	if host == "" {
		discovered, err := discoverSelfHost(defaultProbeAddr)
		if err != nil {
			return nil, err
		}
		host = discovered
	}

	selfEP := core.Endpoint{Host: host, Port: cfg.ServerPort}
	selfID := cfg.MyID
	if selfID == "" {
		selfID = core.MakePeerID(host, cfg.ServerPort)
	}

	dir := core.NewDirectory(selfID, cfg.MaxPeers)
	n := &Node{
		cfg:    cfg,
		selfID: selfID,
		selfEP: selfEP,
		Dir:    dir,
		Router: core.DirectRouter(dir),
		Infer:  inference.NewModule(dir, selfID, selfEP),
	}

	handlers := service.NewBuilder().
		Handle("NAME", n.handleName).
		Handle("LIST", n.handleList).
		Handle("JOIN", n.handleJoin).
		Handle("QUIT", n.handleQuit).
		Handle("PING", n.handlePing).
		Handle("QUER", n.Infer.HandleQuery).
		Handle("RESP", n.Infer.HandleResponse).
		Handle("INFR", n.Infer.HandleInfer).
		Build()

	n.srv = service.NewServer(selfID, handlers)
	return n, nil
}

// SelfID implements core.Prober.
func (n *Node) SelfID() string { return n.selfID }

// SelfEndpoint implements core.Prober.
func (n *Node) SelfEndpoint() core.Endpoint { return n.selfEP }

// Peers returns a snapshot of the peer directory, for diag.Node.
func (n *Node) Peers() map[string]core.Endpoint { return n.Dir.Snapshot() }

// Models returns a snapshot of the model registry, for diag.Node.
func (n *Node) Models() map[string]inference.Owner { return n.Infer.Registry.Snapshot() }

// LoadModel loads a Predictor by name, delegating to the inference
// module, so it can be auto-loaded at startup.
func (n *Node) LoadModel(name string, p inference.Predictor) {
	n.Infer.Load(name, p)
}

// Run starts the server loop, the stabilizer (if configured), and — if
// a seed is configured — the bootstrap crawl, then blocks until ctx is
// cancelled. The server loop's own blocking Start call is what this
// method blocks on; the stabilizer and crawl run in their own
// goroutines rather than a shared event loop.
func (n *Node) Run(ctx context.Context) error {
	logger.Printf(logger.INFO, "[%s] Node starting: %s (%s)\n", n.selfID, n.selfEP, n.selfID)

	if n.cfg.StabilizerDelay > 0 {
		go core.RunStabilizer(ctx, time.Duration(n.cfg.StabilizerDelay)*time.Second, n.Dir, n.Infer.Registry)
	}

	if seed := n.cfg.Seed; seed != nil {
		go core.Crawl(n.Dir, n, seed.Host, seed.Port, seed.Hops)
	}

	return n.srv.Start(ctx, n.selfEP.Port)
}
