package di

import (
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"retrieval-engine/internal/adapter/convstore"
	"retrieval-engine/internal/adapter/httpapi"
	"retrieval-engine/internal/adapter/lexical"
	"retrieval-engine/internal/adapter/modelgw"
	"retrieval-engine/internal/adapter/vectorrepo"
	"retrieval-engine/internal/infra/config"
	"retrieval-engine/internal/infra/httpclient"
	"retrieval-engine/internal/usecase"
)

// ApplicationComponents holds all wired dependencies for the application.
// Model handles and clients are constructed once here and shared read-only
// across concurrent requests.
type ApplicationComponents struct {
	RetrieveUsecase usecase.RetrievePassagesUsecase
	Handler         *httpapi.Handler
	PipelineConfig  usecase.PipelineConfig
}

// NewApplicationComponents wires all dependencies from config, the database
// pool, and the redis client.
func NewApplicationComponents(cfg *config.Config, pool *pgxpool.Pool, redisClient *redis.Client, log *slog.Logger) (*ApplicationComponents, error) {
	// Shared HTTP clients with connection pooling
	embedHTTP := httpclient.NewPooledClient(time.Duration(cfg.EmbedTimeout) * time.Second)
	generateHTTP := httpclient.NewPooledClient(time.Duration(cfg.GenerateTimeout) * time.Second)
	rerankHTTP := httpclient.NewPooledClient(time.Duration(cfg.RerankTimeout) * time.Second)

	// Adapters
	vectorSearcher := vectorrepo.NewPassageRepository(pool)
	lexicalSearcher := lexical.NewBM25Client(
		cfg.LexicalSearchURL,
		time.Duration(cfg.LexicalSearchTimeout)*time.Second,
		nil,
	)
	embedder := modelgw.NewEmbedder(
		cfg.ModelGatewayURL, cfg.EmbeddingModel, embedHTTP,
		cfg.EmbedCacheSize, time.Duration(cfg.EmbedCacheTTL)*time.Minute,
	)
	generator := modelgw.NewGenerator(
		cfg.ModelGatewayURL, cfg.GenerationModel, generateHTTP,
		cfg.GenerateRPS, cfg.GenerateBurst, log,
	)

	// Pipeline config from environment, validated at startup
	pipelineCfg := usecase.DefaultPipelineConfig()
	pipelineCfg.KDense = cfg.KDense
	pipelineCfg.KLexical = cfg.KLexical
	pipelineCfg.MMR.K = cfg.FinalK
	pipelineCfg.MMR.Lambda = cfg.MMRLambda
	pipelineCfg.Weights.Dense = cfg.DenseWeight
	pipelineCfg.Weights.Lexical = cfg.LexicalWeight
	pipelineCfg.Weights.Boost = cfg.BoostWeight
	pipelineCfg.Rerank.Enabled = cfg.RerankEnabled
	pipelineCfg.Rerank.Alpha = cfg.RerankAlpha
	pipelineCfg.Rerank.Timeout = time.Duration(cfg.RerankTimeout) * time.Second
	pipelineCfg.Compress.BudgetChars = cfg.ContextBudget
	pipelineCfg.Filter.Enabled = cfg.FilterEnabled
	if err := pipelineCfg.Validate(); err != nil {
		return nil, err
	}

	// Optional components
	var opts []usecase.RetrievePassagesOption
	if cfg.RerankEnabled {
		rerankerClient := modelgw.NewRerankerClient(
			cfg.ModelGatewayURL, cfg.RerankModel, rerankHTTP, log,
		)
		opts = append(opts, usecase.WithReranker(rerankerClient))
		log.Info("reranker_enabled",
			slog.String("url", cfg.ModelGatewayURL),
			slog.String("model", cfg.RerankModel))
	}
	if redisClient != nil {
		opts = append(opts, usecase.WithConversationStore(convstore.NewRedisStore(redisClient)))
	}

	retrieveUsecase := usecase.NewRetrievePassagesUsecase(
		embedder, vectorSearcher, lexicalSearcher, generator,
		pipelineCfg, log, opts...,
	)

	return &ApplicationComponents{
		RetrieveUsecase: retrieveUsecase,
		Handler:         httpapi.NewHandler(retrieveUsecase),
		PipelineConfig:  pipelineCfg,
	}, nil
}
