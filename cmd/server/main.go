package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/Vishwas721/Prism/handlers"
	"github.com/Vishwas721/Prism/service"
	"github.com/Vishwas721/Prism/storage"
	"github.com/Vishwas721/Prism/store"

	"github.com/gin-gonic/gin"
	"github.com/google/generative-ai-go/genai"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

func main() {
	// Load .env file from project root (relative to cmd/server/)
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			log.Warn().Msg("No .env file found, using environment variables")
		}
	}

	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	if os.Getenv("LOG_PRETTY") != "" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "./data"
	}

	policyStore := store.NewPolicyStore(filepath.Join(dataDir, "policies.json"))
	patientStore := store.NewPatientStore(filepath.Join(dataDir, "patients.json"))
	providerStore := store.NewProviderStore(filepath.Join(dataDir, "providers.json"))

	fileStorage, err := storage.NewStorageFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize storage")
	}
	log.Info().Msg("Storage initialized")

	geminiClient, err := initGemini()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Gemini")
	}

	ocrEndpoint := os.Getenv("AZURE_DOC_INTEL_ENDPOINT")
	ocrKey := os.Getenv("AZURE_DOC_INTEL_KEY")
	languageEndpoint := os.Getenv("AZURE_LANGUAGE_ENDPOINT")
	languageKey := os.Getenv("AZURE_LANGUAGE_KEY")

	ocrService := service.NewOCRService(ocrEndpoint, ocrKey)
	entityService := service.NewEntityService(languageEndpoint, languageKey)

	decisionService := service.NewDecisionService(
		service.DecisionWithGeminiClient(geminiClient, os.Getenv("GEMINI_MODEL")),
	)

	caseService := service.NewCaseService(
		service.CaseWithPatientStore(patientStore),
		service.CaseWithPolicyStore(policyStore),
		service.CaseWithProviderStore(providerStore),
		service.CaseWithDocumentStorage(fileStorage),
		service.CaseWithTextExtractor(ocrService),
		service.CaseWithEntityExtractor(entityService),
		service.CaseWithDecisionEvaluator(decisionService),
	)

	policyHandler := handlers.NewPolicyHandler(policyStore)
	caseHandler := handlers.NewCaseHandler(patientStore, caseService)
	analyzeHandler := handlers.NewAnalyzeHandler(caseService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(handlers.RequestLogger(log.Logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
			"services": gin.H{
				"gemini":                os.Getenv("GEMINI_API_KEY") != "",
				"document_intelligence": ocrEndpoint != "" && ocrKey != "",
				"language":              languageEndpoint != "" && languageKey != "",
			},
		})
	})

	api := r.Group("/api")
	{
		api.GET("/policies", policyHandler.ListPolicies)
		api.GET("/policies/:id", policyHandler.GetPolicy)
		api.POST("/policies", policyHandler.AddPolicy)

		api.GET("/patients", caseHandler.ListCases)
		api.GET("/patients/:id", caseHandler.GetCase)
		api.POST("/patients/:id/send-rfi", caseHandler.SendRFI)

		api.POST("/upload", caseHandler.UploadCase)
		api.POST("/analyze", analyzeHandler.Analyze)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Info().Str("port", port).Msg("Server starting")
	if err := r.Run(":" + port); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}
}

func initGemini() (*genai.Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY not set")
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	log.Info().Msg("Gemini client initialized")
	return client, nil
}
