package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sigilproject/sigil/internal/api/handler"
	"github.com/sigilproject/sigil/internal/api/middleware"
	"github.com/sigilproject/sigil/internal/config"
	"github.com/sigilproject/sigil/internal/service"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	fingerprints *service.FingerprintService,
	signatures *service.SignatureService,
	serverCfg *config.ServerConfig,
) *gin.Engine {
	// Set Gin mode
	switch serverCfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  serverCfg.CORS.AllowedOrigins,
		AllowAllOrigins: serverCfg.CORS.AllowAllOrigins,
	}))

	// Create handlers
	healthHandler := handler.NewHealthHandler()
	fingerprintHandler := handler.NewFingerprintHandler(fingerprints)
	signatureHandler := handler.NewSignatureHandler(signatures)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Fingerprint store
		v1.POST("/fingerprints", fingerprintHandler.Store)
		v1.DELETE("/fingerprints/:id", fingerprintHandler.Delete)

		// Similarity search
		v1.POST("/search", fingerprintHandler.Search)

		// Signing
		v1.POST("/sign", signatureHandler.Sign)
		v1.POST("/verify", signatureHandler.Verify)

		// Stats
		v1.GET("/stats", fingerprintHandler.Stats)
	}

	return r
}
