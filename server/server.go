package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/airchains-network/state-conformance/history"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RunStore is the read side of the run history.
type RunStore interface {
	List(limit int) ([]*history.Record, error)
	Get(id string) (*history.Record, error)
}

// NewRouter builds the read-only history API.
func NewRouter(store RunStore, log *logrus.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("[GIN] %s - %s %s %d\n",
				param.TimeStamp.Format("2006-01-02 15:04:05"),
				param.Method,
				param.Path,
				param.StatusCode,
			)
		},
	}))
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/runs", func(c *gin.Context) {
		handleList(c, store, log)
	})
	router.GET("/runs/:id", func(c *gin.Context) {
		handleGet(c, store, log)
	})
	return router
}

// Start serves the history API on addr until the server fails.
func Start(addr string, store RunStore, log *logrus.Logger) error {
	gin.SetMode(gin.ReleaseMode)
	router := NewRouter(store, log)
	log.Infof("Starting history server on %s", addr)
	return router.Run(addr)
}

func handleList(c *gin.Context, store RunStore, log *logrus.Logger) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	runs, err := store.List(limit)
	if err != nil {
		log.Errorf("Failed to list runs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if runs == nil {
		runs = []*history.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func handleGet(c *gin.Context, store RunStore, log *logrus.Logger) {
	id := c.Param("id")
	run, err := store.Get(id)
	if err != nil {
		log.Errorf("Failed to fetch run %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("run %s not found", id)})
		return
	}
	c.JSON(http.StatusOK, run)
}
