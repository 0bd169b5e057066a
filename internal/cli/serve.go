package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/law-makers/uniscrape/internal/app"
	"github.com/law-makers/uniscrape/internal/institutions"
	"github.com/law-makers/uniscrape/internal/pipeline"
	"github.com/law-makers/uniscrape/internal/report"
)

var addr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve statistics and scrape triggers over HTTP",
	Long: `Starts an HTTP server with these routes:

GET /stats                institution overview (HTML)
GET /scrape/:slug         run a scrape and show the programs page (HTML)
GET /api/scrape/:slug     run a scrape and return the report (JSON)`,
	Example: `  uniscrape serve --addr :8080`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := GetAppFromCmd(cmd)
		if a == nil {
			return fmt.Errorf("application not initialized")
		}
		return serve(cmd.Context(), a, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
}

func serve(ctx context.Context, a *app.Application, addr string) error {
	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(a),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info().Msg("Shutting down server")
	return srv.Shutdown(shutdownCtx)
}

type scrapeServer struct {
	app *app.Application
	// one scrape at a time; runs share the store and the rate limiter
	mu sync.Mutex
}

// newRouter configures the gin engine with the stats and scrape routes
func newRouter(a *app.Application) *gin.Engine {
	s := &scrapeServer{app: a}

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/stats", s.handleStats)
	router.GET("/scrape/:slug", s.handleScrapeHTML)
	router.GET("/api/scrape/:slug", s.handleScrapeJSON)
	return router
}

// requestLogger logs each request through zerolog
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("Request served")
	}
}

func (s *scrapeServer) scrape(c *gin.Context) (*pipeline.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.app.Scrape(c.Request.Context(), c.Param("slug"))
}

// handleStats handles GET /stats
func (s *scrapeServer) handleStats(c *gin.Context) {
	stats, err := s.app.Store.Stats(c.Request.Context())
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := report.StatsHTML(c.Writer, stats); err != nil {
		log.Error().Err(err).Msg("Failed to render stats")
	}
}

// handleScrapeHTML handles GET /scrape/:slug
func (s *scrapeServer) handleScrapeHTML(c *gin.Context) {
	rep, err := s.scrape(c)
	if errors.Is(err, institutions.ErrUnknownInstitution) {
		c.String(http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := report.HTML(c.Writer, rep); err != nil {
		log.Error().Err(err).Str("institution", c.Param("slug")).Msg("Failed to render report")
	}
}

// handleScrapeJSON handles GET /api/scrape/:slug
func (s *scrapeServer) handleScrapeJSON(c *gin.Context) {
	slug := c.Param("slug")
	rep, err := s.scrape(c)

	switch {
	case errors.Is(err, institutions.ErrUnknownInstitution):
		c.JSON(http.StatusNotFound, gin.H{"message": "Unknown institution", "error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "An error occurred while scraping " + slug, "error": err.Error()})
	case rep.Fatal:
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "An error occurred while scraping " + rep.Institution.Name,
			"error":   rep.Errors[0],
		})
	default:
		c.JSON(http.StatusOK, rep)
	}
}
