// Package inspect is an optional debug HTTP server exposing the current
// pipeline asset for interactive poking: dump its structure, trigger a
// flatten or parameterize run, and watch progress over a websocket.
package inspect

import (
	"encoding/json"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/mogaika/gltfpipe/pipeline"
	"github.com/mogaika/gltfpipe/utils/debugdump"
	"github.com/mogaika/gltfpipe/xform"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StartServer blocks serving the inspect JSON, dump, run and websocket
// routes for p at addr.
func StartServer(addr string, p *pipeline.Pipeline) error {
	hub := newEventHub()

	r := mux.NewRouter()
	r.HandleFunc("/ws", handleWebsocket(hub))
	r.HandleFunc("/json/stats", handleStats(p))
	r.HandleFunc("/dump", handleDump(p))
	r.HandleFunc("/run/flatten", handleFlatten(p, hub)).Methods(http.MethodPost)
	r.HandleFunc("/run/parameterize", handleParameterize(p, hub)).Methods(http.MethodPost)

	h := handlers.RecoveryHandler()(r)
	h = handlers.LoggingHandler(os.Stdout, h)

	log.Printf("[inspect] starting server %v", addr)
	return http.ListenAndServe(addr, h)
}

func handleWebsocket(hub *eventHub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[inspect] ws upgrade: %v", err)
			return
		}
		hub.register(conn)
	}
}

func handleStats(p *pipeline.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(p.Stats())
	}
}

func handleDump(p *pipeline.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(debugdump.Sdump(p.Asset())))
	}
}

func handleFlatten(p *pipeline.Pipeline, hub *eventHub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hub.Progress(0, "flatten: starting")
		if err := p.Flatten(xform.FilterTriangles); err != nil {
			hub.Error("flatten: " + err.Error())
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		hub.Progress(1, "flatten: done")
		w.WriteHeader(http.StatusOK)
	}
}

func handleParameterize(p *pipeline.Pipeline, hub *eventHub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hub.Progress(0, "parameterize: starting")
		if err := p.Parameterize(xform.NewIdentityAtlasEngine()); err != nil {
			hub.Error("parameterize: " + err.Error())
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		hub.Progress(1, "parameterize: done")
		w.WriteHeader(http.StatusOK)
	}
}
