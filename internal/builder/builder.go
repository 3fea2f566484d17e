package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/futig/docqa-backend/internal/api"
	documentapi "github.com/futig/docqa-backend/internal/api/document"
	"github.com/futig/docqa-backend/internal/chunker"
	"github.com/futig/docqa-backend/internal/config"
	"github.com/futig/docqa-backend/internal/extractor"
	"github.com/futig/docqa-backend/internal/generator"
	"github.com/futig/docqa-backend/internal/indexer"
	"github.com/futig/docqa-backend/internal/integration/embedding"
	"github.com/futig/docqa-backend/internal/integration/llm"
	ocrconn "github.com/futig/docqa-backend/internal/integration/ocr"
	"github.com/futig/docqa-backend/internal/integration/reranker"
	"github.com/futig/docqa-backend/internal/ocr"
	"github.com/futig/docqa-backend/internal/pkg/formatter"
	"github.com/futig/docqa-backend/internal/pkg/validator"
	"github.com/futig/docqa-backend/internal/rerank"
	"github.com/futig/docqa-backend/internal/retriever"
	"github.com/futig/docqa-backend/internal/store"
	"github.com/futig/docqa-backend/internal/telegram"
	"github.com/futig/docqa-backend/internal/usecase/ingestion"
	"github.com/futig/docqa-backend/internal/usecase/query"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/unidoc/unioffice/common/license"
	"go.uber.org/zap"
)

const (
	serverReadTimeout = time.Minute
	serverIdleTimeout = time.Minute
)

// embeddingService embeds both passages and questions
type embeddingService interface {
	indexer.Embedder
	query.QueryEmbedder
}

type connectors struct {
	embedding embeddingService
	reranker  rerank.Scorer
	ocr       ocr.Recognizer
	llm       generator.LLMConnector
}

func Build() (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
		zap.String("version", cfg.Version),
	)

	ctx := ctxzap.ToContext(context.Background(), logger)
	conns := setupConnectors(cfg, logger)

	// Document pipeline
	ocrEngine := ocr.Disabled()
	if cfg.OCRConnectorCfg.Enabled {
		ocrEngine = ocr.NewEngine(conns.ocr, cfg.PipelineCfg.OCRMinConfidence, cfg.OCRConnectorCfg.Retry)
	} else {
		logger.Info("OCR disabled, scanned pages and images will yield no text")
	}

	docExtractor := extractor.New(ocrEngine, extractor.NewRasterizer(), extractor.Config{
		MinNativeChars: cfg.PipelineCfg.PDFMinNativeChars,
		RenderDPI:      cfg.PipelineCfg.PDFRenderDPI,
	})
	textChunker := chunker.New(cfg.PipelineCfg.ChunkSize, cfg.PipelineCfg.ChunkOverlap)
	vectorStore := store.NewMemoryStore(cfg.StoreCfg.SessionTTL, cfg.StoreCfg.CleanupInterval)
	chunkIndexer := indexer.New(conns.embedding, vectorStore, cfg.PipelineCfg.EmbedBatchSize)
	chunkRetriever := retriever.New(vectorStore, cfg.PipelineCfg.RetrieveTopK)
	ranker := rerank.Init(ctx, conns.reranker, cfg.RerankerConnectorCfg.Retry, cfg.PipelineCfg.RerankCandidates, cfg.PipelineCfg.RerankTopK)
	answerGenerator := generator.New(conns.llm, cfg.Messages.NoResponse)
	logger.Info("document pipeline initialized",
		zap.String("rerank_outcome", string(ranker.Outcome())),
		zap.Bool("ocr_enabled", cfg.OCRConnectorCfg.Enabled),
	)

	// Use cases
	ingestionUC := ingestion.NewUsecase(docExtractor, textChunker, chunkIndexer, vectorStore, logger)
	queryUC := query.NewUsecase(
		conns.embedding,
		chunkRetriever,
		ranker,
		answerGenerator,
		cfg.Messages,
		cfg.PipelineCfg.SnippetLength,
		logger,
	)
	logger.Info("use cases initialized")

	// HTTP API
	fileValidator := validator.NewFileValidator(cfg.FileUploadCfg)
	documentHandler := documentapi.NewHandler(
		ingestionUC,
		queryUC,
		formatter.NewFactory(formatter.WithDOCX(setupOfficeLicense(cfg.OfficeLicenseKey, logger))),
		fileValidator,
		cfg.FileUploadCfg,
		cfg.Messages,
	)

	router := api.SetupRouter(documentHandler, api.RouterConfig{
		Version:        cfg.Version,
		RequestTimeout: cfg.RequestTimeout,
	}, logger)
	logger.Info("HTTP router configured")

	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  serverIdleTimeout,
	}

	app := &App{
		server: server,
		logger: logger,
	}

	if cfg.TelegramCfg.Enabled {
		bot, err := telegram.NewBot(&cfg.TelegramCfg, ingestionUC, queryUC, logger)
		if err != nil {
			return nil, fmt.Errorf("initialize telegram bot: %w", err)
		}
		app.bot = bot
	}

	logger.Info("application built successfully",
		zap.String("environment", cfg.Environment),
		zap.Bool("telegram_enabled", cfg.TelegramCfg.Enabled),
	)

	return app, nil
}

func setupConnectors(cfg *config.Config, logger *zap.Logger) connectors {
	if cfg.EnableMocks {
		logger.Info("using mock connectors for external services")
		return connectors{
			embedding: embedding.NewMockConnector(logger),
			reranker:  reranker.NewMockConnector(logger),
			ocr:       ocrconn.NewMockConnector(logger),
			llm:       llm.NewMockConnector(logger),
		}
	}

	logger.Info("using real connectors for external services")
	return connectors{
		embedding: embedding.NewConnector(cfg.EmbeddingConnectorCfg, logger),
		reranker:  reranker.NewConnector(cfg.RerankerConnectorCfg, logger),
		ocr:       ocrconn.NewConnector(cfg.OCRConnectorCfg, logger),
		llm:       llm.NewConnector(cfg.LLMConnectorCfg, logger),
	}
}

// setupOfficeLicense installs the unioffice key and reports whether Word
// documents can be written
func setupOfficeLicense(key string, logger *zap.Logger) bool {
	if key == "" {
		logger.Info("no unioffice license key, docx export disabled")
		return false
	}
	if err := license.SetMeteredKey(key); err != nil {
		logger.Warn("unioffice license key rejected, docx export disabled", zap.Error(err))
		return false
	}
	return true
}
