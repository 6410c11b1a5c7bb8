package experiments

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zeu5/pcl-gym/agents"
)

// StatusServer exposes live training counters over HTTP while a run is in
// progress.
type StatusServer struct {
	agent  *agents.PCL
	server *http.Server
}

func NewStatusServer(addr string, agent *agents.PCL) *StatusServer {
	gin.SetMode(gin.ReleaseMode)
	s := &StatusServer{agent: agent}

	router := gin.New()
	router.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.agent.Stats())
	})
	s.server = &http.Server{Addr: addr, Handler: router}
	return s
}

func (s *StatusServer) Start() {
	go s.server.ListenAndServe()
}

func (s *StatusServer) Stop() {
	s.server.Shutdown(context.Background())
}
