package graphql

import (
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"
	gql "github.com/graphql-go/graphql"

	"github.com/mo-amir99/training-portal/internal/middleware"
	"github.com/mo-amir99/training-portal/pkg/response"
)

// Handler executes GraphQL requests.
type Handler struct {
	schema gql.Schema
	logger *slog.Logger
}

// NewHandler builds the schema over resolver.
func NewHandler(resolver *Resolver, logger *slog.Logger) (*Handler, error) {
	schema, err := NewSchema(resolver)
	if err != nil {
		return nil, err
	}
	return &Handler{schema: schema, logger: logger}, nil
}

type requestBody struct {
	Query         string                 `json:"query" binding:"required"`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName"`
}

// Serve handles POST /graphql. The Authorization header, when present and valid,
// has already been resolved by the optional auth middleware.
func (h *Handler) Serve(c *gin.Context) {
	var body requestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid GraphQL request", err)
		return
	}

	ctx := c.Request.Context()
	if claims, ok := middleware.ClaimsFromContext(c); ok {
		ctx = WithClaims(ctx, claims)
	}

	result := gql.Do(gql.Params{
		Schema:         h.schema,
		RequestString:  body.Query,
		VariableValues: body.Variables,
		OperationName:  body.OperationName,
		Context:        ctx,
	})

	if result.HasErrors() {
		for _, e := range result.Errors {
			h.logger.Debug("graphql error", slog.String("message", e.Message), slog.String("path", c.Request.URL.Path))
		}
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, result)
}

// RegisterRoutes mounts the GraphQL endpoint.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, authMw *middleware.AuthMiddleware) {
	router.POST("/graphql", authMw.OptionalAuth(), handler.Serve)
}
