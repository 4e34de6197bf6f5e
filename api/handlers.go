// Package api exposes item reads as API Gateway Lambda handlers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/smithy-go"

	"github.com/jacentio/itemcache/store"
)

// ItemReader is the subset of store.Items the handlers use.
type ItemReader interface {
	Get(ctx context.Context, id string, opts store.GetOptions) (*store.Item, error)
	List(ctx context.Context) ([]*store.Item, error)
}

// Handlers serves item reads.
type Handlers struct {
	items  ItemReader
	logger *slog.Logger
}

// NewHandlers creates API handlers over items.
func NewHandlers(items ItemReader, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		items:  items,
		logger: logger,
	}
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// GetItem returns the item named by the "id" path parameter. The query
// parameter consistent=true requests a strongly consistent read.
func (h *Handlers) GetItem(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	id := req.PathParameters["id"]
	if id == "" {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusBadRequest,
			Body:       "Error: You are missing the path parameter id",
		}, nil
	}

	consistent, _ := strconv.ParseBool(req.QueryStringParameters["consistent"])
	item, err := h.items.Get(ctx, id, store.GetOptions{ConsistentRead: consistent})
	if errors.Is(err, store.ErrNotFound) {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusNotFound}, nil
	}
	if err != nil {
		return h.storeError(err, "id", id), nil
	}

	doc, err := item.Document()
	if err != nil {
		return h.storeError(err, "id", id), nil
	}
	return jsonResponse(http.StatusOK, doc), nil
}

// ListItems returns every live item in the table.
func (h *Handlers) ListItems(ctx context.Context, _ events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	items, err := h.items.List(ctx)
	if err != nil {
		return h.storeError(err), nil
	}

	docs := make([]map[string]any, 0, len(items))
	for _, item := range items {
		doc, err := item.Document()
		if err != nil {
			return h.storeError(err, "id", item.ID), nil
		}
		docs = append(docs, doc)
	}
	return jsonResponse(http.StatusOK, docs), nil
}

func (h *Handlers) storeError(err error, attrs ...any) events.APIGatewayProxyResponse {
	body := errorBody{Error: err.Error()}

	var ae smithy.APIError
	if errors.As(err, &ae) {
		body.Code = ae.ErrorCode()
		body.Error = ae.ErrorMessage()
	}

	h.logger.Error("store request failed", append(attrs, "code", body.Code, "error", err)...)
	return jsonResponse(http.StatusInternalServerError, body)
}

func jsonResponse(status int, v any) events.APIGatewayProxyResponse {
	b, err := json.Marshal(v)
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Body:       `{"error":"encode response"}`,
			Headers:    map[string]string{"Content-Type": "application/json"},
		}
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Body:       string(b),
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}
