package client

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/NoduleAdvisor/pkg/types/nodule"
)

const apiPrefix = "/api/v1"

// NodulesClient wraps the classification endpoints.
type NodulesClient struct {
	client *Client
}

// Classification is one classified sentence.  ID is uuid.Nil when the server
// runs without an audit store.
type Classification struct {
	ID     uuid.UUID
	Cached bool
	Result nodule.Result
}

// BatchItemError describes a rejected batch entry.
type BatchItemError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BatchItem is one batch outcome; exactly one of Result and Error is set.
type BatchItem struct {
	Index  int             `json:"index"`
	ID     string          `json:"id,omitempty"`
	Result *nodule.Result  `json:"result,omitempty"`
	Error  *BatchItemError `json:"error,omitempty"`
}

// CategoryRecommendation is one row of the recommendation table.
type CategoryRecommendation struct {
	Category       nodule.Category `json:"category"`
	Recommendation string          `json:"recommendation"`
}

// ClassificationRecord is a stored audit record.
type ClassificationRecord struct {
	ID        uuid.UUID     `json:"id"`
	RequestID string        `json:"request_id,omitempty"`
	Source    string        `json:"source"`
	Sentence  string        `json:"sentence"`
	Result    nodule.Result `json:"result"`
	CreatedAt time.Time     `json:"created_at"`
}

// Classify posts one sentence.  A sentence the server cannot read returns an
// *APIError for which IsClassificationFailure is true.
func (n *NodulesClient) Classify(ctx context.Context, text string) (*Classification, error) {
	var res nodule.Result
	hdr, err := n.client.post(ctx, apiPrefix+"/classify", map[string]string{"text": text}, &res)
	if err != nil {
		return nil, err
	}
	out := &Classification{Result: res, Cached: hdr.Get("X-Cache") == "HIT"}
	if id := hdr.Get("X-Classification-ID"); id != "" {
		if parsed, perr := uuid.Parse(id); perr == nil {
			out.ID = parsed
		}
	}
	return out, nil
}

// ClassifyBatch posts several sentences; per-item failures are in the items.
func (n *NodulesClient) ClassifyBatch(ctx context.Context, texts []string) ([]BatchItem, error) {
	var resp struct {
		Items []BatchItem `json:"items"`
	}
	if _, err := n.client.post(ctx, apiPrefix+"/classify/batch", map[string][]string{"texts": texts}, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// Categories fetches the recommendation table.
func (n *NodulesClient) Categories(ctx context.Context) ([]CategoryRecommendation, error) {
	var resp struct {
		Categories []CategoryRecommendation `json:"categories"`
	}
	if _, err := n.client.get(ctx, apiPrefix+"/categories", &resp); err != nil {
		return nil, err
	}
	return resp.Categories, nil
}

func (n *NodulesClient) GetClassification(ctx context.Context, id uuid.UUID) (*ClassificationRecord, error) {
	var rec ClassificationRecord
	if _, err := n.client.get(ctx, apiPrefix+"/classifications/"+url.PathEscape(id.String()), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListClassifications returns up to limit records, newest first.  limit <= 0
// uses the server default.
func (n *NodulesClient) ListClassifications(ctx context.Context, limit int) ([]ClassificationRecord, error) {
	path := apiPrefix + "/classifications"
	if limit > 0 {
		path += fmt.Sprintf("?limit=%d", limit)
	}
	var resp struct {
		Items []ClassificationRecord `json:"items"`
	}
	if _, err := n.client.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

//Personal.AI order the ending
