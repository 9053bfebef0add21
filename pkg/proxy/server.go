// Package proxy is the relay between displays and controllers. It routes
// events between named websocket connections and groups, relays NTP queries
// and serves the player and control pages.
package proxy

import (
	"context"
	"crypto/tls"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"emperror.dev/errors"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/je4/utils/v2/pkg/zLogger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/work6189/PoPlayers/pkg/event"
)

const (
	pingInterval    = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

func NewSocketServer(addr string, numWorkers int, ntpServer string, staticFS fs.FS, templateFS fs.FS, debug bool, allowInsecure bool, logger zLogger.ZLogger) (*SocketServer, error) {
	if numWorkers < 1 {
		return nil, errors.Errorf("invalid number of workers %d", numWorkers)
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := newMetrics(registry)
	ss := &SocketServer{
		Addr:              addr,
		upgrader:          websocket.Upgrader{},
		logger:            logger,
		templates:         make(map[string]*template.Template),
		debug:             debug,
		allowInsecure:     allowInsecure,
		registry:          registry,
		connectionManager: newConnectionManager(debug, m, logger),
		numWorkers:        numWorkers,
		ntpServer:         ntpServer,
		ntpFunc:           NewNTPConnection(ntpServer, "", "", "", 0, 0),
		templateFS:        templateFS,
		staticFS:          staticFS,
	}
	ss.router = ss.newRouter()
	return ss, nil
}

type SocketServer struct {
	Addr              string
	upgrader          websocket.Upgrader
	router            *gin.Engine
	srv               *http.Server
	logger            zLogger.ZLogger
	wg                sync.WaitGroup
	templatesMu       sync.Mutex
	templates         map[string]*template.Template
	debug             bool
	allowInsecure     bool
	registry          *prometheus.Registry
	connectionManager *connectionManager
	numWorkers        int
	ntpServer         string
	ntpFunc           func(data []byte) ([]byte, error)
	templateFS        fs.FS
	staticFS          fs.FS
}

// getTemplate caches parsed templates unless the server runs in debug mode.
func (srv *SocketServer) getTemplate(name string) (*template.Template, error) {
	srv.templatesMu.Lock()
	defer srv.templatesMu.Unlock()
	if tmpl, ok := srv.templates[name]; ok {
		return tmpl, nil
	}
	tmpl, err := template.New(name).ParseFS(srv.templateFS, name)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse template %s", name)
	}
	if !srv.debug {
		srv.templates[name] = tmpl
	}
	return tmpl, nil
}

type pageData struct {
	Name        string
	Addr        string
	Group       string
	ContainerID string
}

func (srv *SocketServer) page(templateName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var name = c.Param("name")
		if name == "" {
			name = "noname"
		}
		scheme := "ws://"
		if c.Request.TLS != nil {
			scheme = "wss://"
		}
		tmpl, err := srv.getTemplate(templateName)
		if err != nil {
			srv.logger.Error().Err(err).Msgf("Failed to get template %s", templateName)
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Header("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.Execute(c.Writer, pageData{
			Name:        name,
			Addr:        scheme + c.Request.Host + "/ws/",
			Group:       event.ControlGroup(name),
			ContainerID: "player",
		}); err != nil {
			srv.logger.Error().Err(err).Msg("Failed to execute template")
		}
	}
}

func (srv *SocketServer) newRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if srv.debug {
		router.Use(gin.Logger())
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"*"},
		AllowHeaders:     []string{"*"},
		AllowCredentials: true,
		AllowWebSockets:  true,
	}))
	router.StaticFS("/static", http.FS(srv.staticFS))
	router.GET("/player/:name", srv.page("player.gohtml"))
	router.GET("/control/:name", srv.page("control.gohtml"))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(srv.registry, promhttp.HandlerOpts{})))
	router.GET("/echo", srv.echo)
	router.GET("/ws/:name", srv.ws)
	return router
}

func (srv *SocketServer) Start(tlsConfig *tls.Config) error {
	if srv.srv != nil {
		return errors.New("server already started")
	}
	srv.connectionManager.start(srv.numWorkers)
	srv.srv = &http.Server{
		Addr:      srv.Addr,
		Handler:   srv.router,
		TLSConfig: tlsConfig,
	}
	srv.wg.Add(1)
	go func() {
		defer srv.wg.Done()
		var err error
		if tlsConfig == nil {
			srv.logger.Info().Msgf("Starting server on http://%s", srv.Addr)
			err = srv.srv.ListenAndServe()
		} else {
			srv.logger.Info().Msgf("Starting server on https://%s", srv.Addr)
			err = srv.srv.ListenAndServeTLS("", "")
		}
		if !errors.Is(err, http.ErrServerClosed) {
			srv.logger.Error().Err(err).Msg("Server error")
		} else {
			srv.logger.Info().Msg("Server closed")
		}
	}()
	return nil
}

func (srv *SocketServer) Stop() error {
	if srv.srv == nil {
		return errors.New("server not started")
	}
	srv.logger.Info().Msg("Stopping server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.srv.Shutdown(ctx)
	srv.connectionManager.closeAll()
	srv.connectionManager.close()
	srv.wg.Wait()
	if err != nil {
		return errors.Wrap(err, "failed to shutdown server")
	}
	return nil
}

func (srv *SocketServer) upgrade(ctx *gin.Context, name string, pingInterval time.Duration) (*websocket.Conn, error) {
	conn, err := srv.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to upgrade connection")
	}
	remote := ctx.Request.RemoteAddr
	conn.SetPingHandler(func(appData string) error {
		srv.logger.Debug().Msgf("Received ping from client %s[%s]: %s", name, remote, appData)
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(time.Second))
	})
	conn.SetPongHandler(func(appData string) error {
		srv.logger.Debug().Msgf("Received pong from client %s[%s]: %s", name, remote, appData)
		return nil
	})
	done := ctx.Request.Context().Done()
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
			case <-done:
				return
			}
			if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second)); err != nil {
				srv.logger.Debug().Err(err).Msgf("stopping ping to %s[%s]", name, remote)
				return
			}
		}
	}()
	return conn, nil
}

func (srv *SocketServer) echo(ctx *gin.Context) {
	conn, err := srv.upgrade(ctx, "", pingInterval)
	if err != nil {
		srv.logger.Error().Err(err).Msg("Failed to upgrade connection")
		return
	}
	defer conn.Close()

	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(errors.Cause(err), websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				srv.logger.Debug().Err(err).Msg("connection closed by client")
			} else {
				srv.logger.Error().Err(err).Msg("Failed to read echo message")
			}
			break
		}
		srv.logger.Debug().Msgf("Received message: %s", message)
		if err = conn.WriteMessage(mt, message); err != nil {
			srv.logger.Error().Err(err).Msg("Failed to write message")
			break
		}
	}
}
