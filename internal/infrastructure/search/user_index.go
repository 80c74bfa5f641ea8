// Package search keeps the admin user directory in Elasticsearch.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/storefront-auth/internal/domain/entity"
)

const (
	DefaultSize = 10
	MaxSize     = 50

	requestTimeout = 3 * time.Second
)

// UserDocument is what the directory stores per user. Digests are never
// indexed.
type UserDocument struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func NewUserDocument(u *entity.User) UserDocument {
	return UserDocument{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Phone:     u.Phone,
		Role:      u.Role.String(),
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: u.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

type UserIndex struct {
	es    *elasticsearch.Client
	index string
}

// NewUserIndex returns nil when es is nil or index is empty; a nil
// *UserIndex indexes nothing and finds nothing.
func NewUserIndex(es *elasticsearch.Client, index string) *UserIndex {
	if es == nil || index == "" {
		return nil
	}
	return &UserIndex{es: es, index: index}
}

func (x *UserIndex) IndexUser(ctx context.Context, u *entity.User) error {
	if x == nil {
		return nil
	}
	b, err := json.Marshal(NewUserDocument(u))
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: x.index, DocumentID: u.ID, Body: bytes.NewReader(b), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, x.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("es index: %s", res.Status())
	}
	return nil
}

// Search runs a multi_match over email and name. size outside 1..MaxSize
// falls back to DefaultSize.
func (x *UserIndex) Search(ctx context.Context, q string, size int) ([]UserDocument, error) {
	if x == nil {
		return []UserDocument{}, nil
	}
	if size <= 0 || size > MaxSize {
		size = DefaultSize
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"email^2", "name"},
			},
		},
		"size": size,
	}
	b, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := x.es.Search(
		x.es.Search.WithContext(c),
		x.es.Search.WithIndex(x.index),
		x.es.Search.WithBody(bytes.NewReader(b)),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("es search: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source UserDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]UserDocument, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
