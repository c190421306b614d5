package cms

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/internal/model"
)

// Query describes one objects lookup. Filters are matched by the CMS against
// object fields, e.g. "slug" or "metadata.categories".
type Query struct {
	Type    model.ObjectType
	Filters map[string]any
	Props   []string
	Depth   int
	Sort    string
	Limit   int
}

// FindResult is the decoded body of a successful find.
type FindResult struct {
	Objects []json.RawMessage `json:"objects"`
	Total   int               `json:"total"`
}

// InsertRequest is the body of an insert-one call.
type InsertRequest struct {
	Title    string           `json:"title"`
	Type     model.ObjectType `json:"type"`
	Status   string           `json:"status,omitempty"`
	Metadata any              `json:"metadata"`
}

// encode renders q as URL parameters. The filter JSON is built from a map so
// keys are sorted and identical queries produce identical URLs.
func (q Query) encode(readKey, status string) (url.Values, error) {
	filter := make(map[string]any, len(q.Filters)+1)
	for k, v := range q.Filters {
		filter[k] = v
	}
	filter["type"] = string(q.Type)
	raw, err := json.Marshal(filter)
	if err != nil {
		return nil, fmt.Errorf("encoding query filter: %w", err)
	}

	v := url.Values{}
	v.Set("read_key", readKey)
	v.Set("query", string(raw))
	if len(q.Props) > 0 {
		v.Set("props", strings.Join(q.Props, ","))
	}
	if q.Depth > 0 {
		v.Set("depth", strconv.Itoa(q.Depth))
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if status != "" {
		v.Set("status", status)
	}
	return v, nil
}

// Decode unmarshals raw CMS objects into T.
func Decode[T any](objects []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(objects))
	for i, raw := range objects {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decoding object %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}
