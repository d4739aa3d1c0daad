package inference

import (
	"strconv"
	"strings"

	"github.com/bfix/gospel/logger"

	"github.com/elien2016/p2pml/core"
	"github.com/elien2016/p2pml/transport"
)

// Module wires the model registry and local predictors to the overlay
// directory, producing the QUER/RESP/INFR handlers. Grounded on
// gnunet/service/dht/module.go's pattern of a service module holding
// its own storage plus a reference to the overlay core.
type Module struct {
	Dir      *core.Directory
	Registry *Registry
	Models   *LocalModels
	selfID   string
	selfEP   core.Endpoint
}

// NewModule builds an inference module bound to dir and the node's own
// identity/endpoint (needed to rewrite the Self owner marker onto the
// wire, and to fill the origin fields of a QUERY this node originates).
func NewModule(dir *core.Directory, selfID string, selfEP core.Endpoint) *Module {
	return &Module{
		Dir:      dir,
		Registry: NewRegistry(),
		Models:   NewLocalModels(),
		selfID:   selfID,
		selfEP:   selfEP,
	}
}

// Load binds name to p locally and marks the registry entry Self,
// replacing any prior binding.
func (m *Module) Load(name string, p Predictor) {
	m.Models.Load(name, p)
	m.Registry.RegisterSelf(name, m.selfEP.Host, m.selfEP.Port)
}

// Unload removes name from both LocalModels and the registry.
func (m *Module) Unload(name string) {
	m.Models.Unload(name)
	m.Registry.Unregister(name)
}

// HandleQuery immediately ACKs on the inbound connection, then
// processes the lookup asynchronously so the inbound handler returns
// promptly without holding any lock across outbound I/O.
func (m *Module) HandleQuery(conn *transport.Conn, payload string) {
	fields := strings.Fields(payload)
	if len(fields) != 5 {
		conn.Send("ERRO", "Quer: incorrect arguments")
		return
	}
	originID, originHost, originPortS, model, ttlS := fields[0], fields[1], fields[2], fields[3], fields[4]
	originPort, err := core.ParsePort(originPortS)
	if err != nil {
		conn.Send("ERRO", "Quer: incorrect arguments")
		return
	}
	ttl, err := strconv.Atoi(ttlS)
	if err != nil {
		conn.Send("ERRO", "Quer: incorrect arguments")
		return
	}

	conn.Send("REPL", "Query ACK: "+model)

	go m.processQuery(originID, originHost, originPort, model, ttl)
}

// processQuery answers with a RESPONSE if the model is registered
// locally, else forwards a decremented-TTL QUERY to every neighbor
// except the query's origin. It is spawned on a fresh goroutine precisely so
// the inbound handler that received QUER is free to return before
// this function dials out.
func (m *Module) processQuery(originID, originHost string, originPort uint16, model string, ttl int) {
	if owner, ok := m.Registry.Lookup(model); ok {
		peerID := owner.PeerID
		if owner.IsSelf() {
			peerID = m.selfID
		}
		c, err := transport.Dial(originHost, originPort)
		if err != nil {
			logger.Printf(logger.DBG, "[infer] RESP dial %s:%d failed: %v\n", originHost, originPort, err)
			return
		}
		defer c.Close()
		payload := model + " " + peerID + " " + owner.Host + " " + strconv.Itoa(int(owner.Port))
		c.Send("RESP", payload)
		return
	}

	if ttl <= 0 {
		return
	}
	msgdata := originID + " " + originHost + " " + strconv.Itoa(int(originPort)) + " " + model + " " + strconv.Itoa(ttl-1)
	for id, ep := range m.Dir.Snapshot() {
		if id == originID {
			continue
		}
		go fireAndForget(ep, "QUER", msgdata)
	}
}

// HandleResponse inserts the model unless it is already registered, in
// which case it logs a duplicate and drops — a subsequent holder
// discovered after the first dies is never recorded this way (an
// acknowledged tradeoff, see DESIGN.md).
func (m *Module) HandleResponse(conn *transport.Conn, payload string) {
	fields := strings.Fields(payload)
	if len(fields) != 4 {
		conn.Send("ERRO", "Resp: incorrect arguments")
		return
	}
	model, peerID, host, portS := fields[0], fields[1], fields[2], fields[3]
	port, err := core.ParsePort(portS)
	if err != nil {
		conn.Send("ERRO", "Resp: incorrect arguments")
		return
	}
	if !m.Registry.RegisterRemote(model, peerID, host, port) {
		logger.Printf(logger.DBG, "[infer] can't add duplicate model %s %s\n", model, peerID)
	}
}

// HandleInfer splits the payload at the first whitespace into model
// name and JSON input, runs the predictor, and replies with the
// JSON-encoded result or an ERRO on any failure. The connection is
// never held open across an error.
func (m *Module) HandleInfer(conn *transport.Conn, payload string) {
	model, input, ok := cutFirstSpace(payload)
	if !ok {
		conn.Send("ERRO", "Infr: incorrect arguments")
		return
	}
	if _, exists := m.Models.Get(model); !exists {
		conn.Send("ERRO", "Model not found")
		return
	}
	out, err := m.Models.Run(model, []byte(input))
	if err != nil {
		conn.Send("ERRO", "Error running inference: "+errKind(err))
		return
	}
	conn.Send("REPL", string(out))
}

// cutFirstSpace splits s at its first run of whitespace, matching
// Python's str.split(maxsplit=1) used by btml.py's INFR handler.
func cutFirstSpace(s string) (head, rest string, ok bool) {
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return "", "", false
	}
	rest = strings.TrimLeft(s[i:], " \t")
	return s[:i], rest, true
}

// errKind names an error the way the original's "type(e)" does —
// a short label, not the full message, so ERRO replies stay terse.
func errKind(err error) string {
	switch {
	case err == ErrModelNotFound:
		return "ModelNotFound"
	default:
		return "InferenceError"
	}
}

// fireAndForget opens a connection to ep and sends one frame, ignoring
// the reply — used for QUERY fan-out, where replies (ACKs) are never
// awaited.
func fireAndForget(ep core.Endpoint, typ, data string) {
	c, err := transport.Dial(ep.Host, ep.Port)
	if err != nil {
		return
	}
	defer c.Close()
	c.Send(typ, data)
}
