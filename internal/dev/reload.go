package dev

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ReloadMessageType represents the type of reload message.
type ReloadMessageType string

const (
	ReloadTypeFull  ReloadMessageType = "reload"
	ReloadTypeCSS   ReloadMessageType = "css"
	ReloadTypeError ReloadMessageType = "error"
	ReloadTypeClear ReloadMessageType = "clear"
)

// ReloadMessage is sent to browsers via WebSocket.
type ReloadMessage struct {
	Type  ReloadMessageType `json:"type"`
	Error string            `json:"error,omitempty"`

	// Paths are the runtime paths ("/components/a/a.css") of the changed
	// stylesheets of a css message.
	Paths []string `json:"paths,omitempty"`

	// Components is the component count of the build that triggered the
	// message.
	Components int `json:"components,omitempty"`
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 16
)

// reloadClient is one connected browser. Only its writer goroutine touches
// the connection for writes.
type reloadClient struct {
	conn *websocket.Conn
	send chan []byte
}

// ReloadServer fans build outcomes out to connected browsers. While the
// last build is failing, newly connected browsers receive its error first.
type ReloadServer struct {
	mu        sync.RWMutex
	clients   map[*reloadClient]struct{}
	lastError []byte
	closed    bool
	upgrader  websocket.Upgrader
}

// NewReloadServer creates a new reload server.
func NewReloadServer() *ReloadServer {
	return &ReloadServer{
		clients: make(map[*reloadClient]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleWebSocket upgrades the request and serves the connection until the
// browser goes away.
func (r *ReloadServer) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		return
	}

	c := &reloadClient{conn: conn, send: make(chan []byte, sendBuffer)}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		conn.Close()
		return
	}
	if r.lastError != nil {
		c.send <- r.lastError
	}
	r.clients[c] = struct{}{}
	r.mu.Unlock()

	go r.writeLoop(c)
	r.readLoop(c)
}

// readLoop consumes pongs and close frames; browsers send nothing else.
func (r *ReloadServer) readLoop(c *reloadClient) {
	defer r.drop(c)

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (r *ReloadServer) writeLoop(c *reloadClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				r.drop(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				r.drop(c)
				return
			}
		}
	}
}

// drop unregisters c and closes its queue. Safe to call more than once.
func (r *ReloadServer) drop(c *reloadClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[c]; ok {
		delete(r.clients, c)
		close(c.send)
	}
}

// NotifyReload tells clients to reload the page after a successful build.
func (r *ReloadServer) NotifyReload(components int) {
	r.clearLastError()
	r.broadcast(ReloadMessage{Type: ReloadTypeFull, Components: components})
}

// NotifyCSS tells clients to refetch the stylesheets served at paths
// without reloading the page.
func (r *ReloadServer) NotifyCSS(paths []string, components int) {
	r.clearLastError()
	r.broadcast(ReloadMessage{Type: ReloadTypeCSS, Paths: paths, Components: components})
}

// NotifyError shows msg in an overlay and keeps it for browsers that
// connect before the next successful build.
func (r *ReloadServer) NotifyError(msg string) {
	data, err := json.Marshal(ReloadMessage{Type: ReloadTypeError, Error: msg})
	if err != nil {
		return
	}
	r.mu.Lock()
	r.lastError = data
	r.mu.Unlock()
	r.send(data)
}

// ClearError removes the error overlay on all clients.
func (r *ReloadServer) ClearError() {
	if r.clearLastError() {
		r.broadcast(ReloadMessage{Type: ReloadTypeClear})
	}
}

// clearLastError forgets the stored error and reports whether there was one.
func (r *ReloadServer) clearLastError() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	had := r.lastError != nil
	r.lastError = nil
	return had
}

func (r *ReloadServer) broadcast(msg ReloadMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	r.send(data)
}

// send queues data for every client. A client whose queue is full is too
// slow to follow rebuilds and is disconnected; its browser reconnects.
func (r *ReloadServer) send(data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for c := range r.clients {
		select {
		case c.send <- data:
		default:
			delete(r.clients, c)
			close(c.send)
		}
	}
}

// ClientCount returns the number of connected clients.
func (r *ReloadServer) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Close disconnects every client and refuses new ones.
func (r *ReloadServer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	for c := range r.clients {
		delete(r.clients, c)
		close(c.send)
	}
}

// ReloadPath is the WebSocket endpoint of the reload server.
const ReloadPath = "/_bricks/reload"

// ReloadScriptPath serves ReloadScript.
const ReloadScriptPath = "/_bricks/reload.js"

// ReloadScript is the browser side of live reload. Pages opt in with
// <script src="/_bricks/reload.js"></script>. A css message refetches only
// the stylesheets whose path matches a changed component, shadow roots
// included; when none match, the page reloads.
const ReloadScript = `(function() {
    'use strict';

    var reconnectDelay = 1000;
    var maxReconnectDelay = 30000;

    function connect() {
        var protocol = location.protocol === 'https:' ? 'wss:' : 'ws:';
        var ws = new WebSocket(protocol + '//' + location.host + '` + ReloadPath + `');

        ws.onopen = function() {
            reconnectDelay = 1000;
        };

        ws.onmessage = function(e) {
            var msg;
            try {
                msg = JSON.parse(e.data);
            } catch (err) {
                return;
            }

            switch (msg.type) {
                case 'reload':
                    location.reload();
                    break;
                case 'css':
                    clearErrorOverlay();
                    if (refetchStyles(msg.paths || []) === 0) {
                        location.reload();
                    }
                    break;
                case 'error':
                    console.error('[bricks] build error:', msg.error);
                    showErrorOverlay(msg.error);
                    break;
                case 'clear':
                    clearErrorOverlay();
                    break;
            }
        };

        ws.onclose = function() {
            setTimeout(function() {
                reconnectDelay = Math.min(reconnectDelay * 2, maxReconnectDelay);
                connect();
            }, reconnectDelay);
        };

        ws.onerror = function() {
            ws.close();
        };
    }

    function stylesheetLinks(root, out) {
        root.querySelectorAll('link[rel="stylesheet"]').forEach(function(link) {
            out.push(link);
        });
        root.querySelectorAll('*').forEach(function(el) {
            if (el.shadowRoot) {
                stylesheetLinks(el.shadowRoot, out);
            }
        });
        return out;
    }

    function refetchStyles(paths) {
        var count = 0;
        stylesheetLinks(document, []).forEach(function(link) {
            var url = new URL(link.href, location.href);
            var matched = paths.some(function(p) {
                return url.pathname === p || url.pathname.endsWith(p);
            });
            if (!matched) {
                return;
            }
            url.searchParams.set('_bricks', Date.now());
            link.href = url.toString();
            count++;
        });
        return count;
    }

    function showErrorOverlay(error) {
        clearErrorOverlay();

        var overlay = document.createElement('div');
        overlay.id = 'bricks-error-overlay';
        overlay.style.cssText = 'position:fixed;top:0;left:0;right:0;bottom:0;background:rgba(0,0,0,0.9);color:#fff;font-family:monospace;font-size:14px;padding:20px;overflow:auto;z-index:999999;';

        var pre = document.createElement('pre');
        pre.style.cssText = 'white-space:pre-wrap;word-wrap:break-word;max-width:800px;margin:0 auto;';
        pre.textContent = error;

        overlay.appendChild(pre);
        document.body.appendChild(overlay);
    }

    function clearErrorOverlay() {
        var overlay = document.getElementById('bricks-error-overlay');
        if (overlay) {
            overlay.remove();
        }
    }

    if (document.readyState === 'loading') {
        document.addEventListener('DOMContentLoaded', connect);
    } else {
        connect();
    }
})();
`
