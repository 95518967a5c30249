package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/enterprise/user-service/internal/domain/entity"
)

var ErrSearchUnavailable = errors.New("search is not configured")

const (
	defaultSearchSize = 10
	maxSearchSize     = 50
	searchTimeout     = 3 * time.Second
)

// SearchService keeps an Elasticsearch index of users in step with user events
// and answers free-text queries over name and email.
type SearchService struct {
	ES     *elasticsearch.Client
	Index  string
	Logger *logrus.Logger
}

func NewSearchService(es *elasticsearch.Client, index string, logger *logrus.Logger) *SearchService {
	return &SearchService{ES: es, Index: index, Logger: logger}
}

func (s *SearchService) enabled() bool {
	return s != nil && s.ES != nil && s.Index != ""
}

// IndexUser upserts the search document for the user in ev.
func (s *SearchService) IndexUser(ctx context.Context, ev entity.UserEvent) error {
	if !s.enabled() {
		return ErrSearchUnavailable
	}
	doc := map[string]any{
		"id":                 ev.UserID,
		"name":               ev.Name,
		"email":              ev.Email,
		"active":             ev.Active,
		"created_date":       ev.CreatedAt.Format(time.RFC3339Nano),
		"last_modified_date": ev.UpdatedAt.Format(time.RFC3339Nano),
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{
		Index:      s.Index,
		DocumentID: strconv.FormatInt(ev.UserID, 10),
		Body:       strings.NewReader(string(b)),
		Refresh:    "false",
	}
	c, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		return fmt.Errorf("index user %d: %w", ev.UserID, err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("index user %d: %s", ev.UserID, res.Status())
	}
	return nil
}

// DeleteUser removes the user's document; a missing document is not an error.
func (s *SearchService) DeleteUser(ctx context.Context, id int64) error {
	if !s.enabled() {
		return ErrSearchUnavailable
	}
	req := esapi.DeleteRequest{Index: s.Index, DocumentID: strconv.FormatInt(id, 10)}
	c, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		return fmt.Errorf("delete user %d from index: %w", id, err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete user %d from index: %s", id, res.Status())
	}
	return nil
}

// Search runs a multi_match over email and name. size is clamped to 1..50.
func (s *SearchService) Search(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if !s.enabled() {
		return nil, ErrSearchUnavailable
	}
	if size <= 0 || size > maxSearchSize {
		size = defaultSearchSize
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

	c, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	res, err := s.ES.Search(
		s.ES.Search.WithContext(c),
		s.ES.Search.WithIndex(s.Index),
		s.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		if s.Logger != nil {
			s.Logger.WithField("status", res.Status()).Warn("es search response error")
		}
		return nil, fmt.Errorf("search users: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
