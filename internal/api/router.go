package api

import (
	"github.com/gin-gonic/gin"

	"github.com/kevinluu/screenline/internal/api/handler"
	"github.com/kevinluu/screenline/internal/api/middleware"
	"github.com/kevinluu/screenline/internal/pipeline"
	"github.com/kevinluu/screenline/internal/repository"
	"github.com/kevinluu/screenline/internal/storage"
)

// RouterDeps bundles what the HTTP surface needs.
type RouterDeps struct {
	Candidates *repository.CandidateRepository
	Activity   *repository.ActivityLogRepository
	Storage    storage.ObjectStorage
	Runtime    *pipeline.Runtime

	Mode           string
	AllowedOrigins []string
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(deps RouterDeps) *gin.Engine {
	switch deps.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  deps.AllowedOrigins,
		AllowAllOrigins: len(deps.AllowedOrigins) == 0,
	}))

	healthHandler := handler.NewHealthHandler(deps.Runtime)
	uploadHandler := handler.NewUploadHandler(deps.Storage)
	candidateHandler := handler.NewCandidateHandler(deps.Candidates, deps.Activity, deps.Runtime)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// CV uploads
		v1.POST("/uploads/sign", uploadHandler.SignUpload)

		// Candidates
		v1.GET("/candidates/:id", candidateHandler.GetCandidate)
		v1.GET("/candidates/:id/activity", candidateHandler.ListActivity)
		v1.POST("/candidates/:id/analyze", candidateHandler.Analyze)

		// Tasks
		v1.GET("/tasks/:id", candidateHandler.GetTask)
	}

	return r
}
