package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

const docsPrefix = "/docs"

// mountDocs serves the API documentation directory and redirects / to it.
// Unknown /api/ paths always answer with a JSON 404.
func (s *Server) mountDocs() {
	s.engine.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			respondDetail(c, http.StatusNotFound, "Not Found")
			return
		}
		c.String(http.StatusNotFound, "404 page not found")
	})

	if s.docsDir == "" {
		s.logger.Info("docs directory not configured; API only mode")
		return
	}

	info, err := os.Stat(s.docsDir)
	if err != nil || !info.IsDir() {
		s.logger.Warn("docs directory missing", "path", s.docsDir, "error", err)
		return
	}

	indexPath := filepath.Join(s.docsDir, "index.html")
	if _, err := os.Stat(indexPath); err != nil {
		s.logger.Warn("index.html not found", "path", indexPath, "error", err)
	}

	s.engine.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusTemporaryRedirect, docsPrefix+"/")
	})
	s.engine.StaticFS(docsPrefix, gin.Dir(s.docsDir, false))

	favicon := filepath.Join(s.docsDir, "favicon.ico")
	if _, err := os.Stat(favicon); err == nil {
		s.engine.StaticFile("/favicon.ico", favicon)
	}
}
