package goalstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/rparkin1/wealthNavigator-sub000/internal/goal"
)

// Client reads goals from the goal service over HTTP:
//
//	GET {BaseURL}/goals?ids=a,b,c
//
// The response may be a bare array or an object wrapping the array in
// "goals" or "data". Field names are accepted in snake_case or camelCase.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient creates a Client with the given per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Goals(ctx context.Context, ids []string) ([]goal.Goal, error) {
	if len(ids) == 0 {
		return []goal.Goal{}, nil
	}
	body, err := c.get(ctx, "/goals", url.Values{"ids": {strings.Join(ids, ",")}})
	if err != nil {
		return nil, err
	}

	byID, err := parseGoals(body)
	if err != nil {
		return nil, err
	}
	out := make([]goal.Goal, 0, len(ids))
	for _, id := range ids {
		g, ok := byID[id]
		if !ok {
			return nil, unknownGoal(id)
		}
		out = append(out, g)
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("goal service request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("goal service %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read goal service response: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("goal service %s: %w", path, goal.ErrNotFound)
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("goal service %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

func parseGoals(body []byte) (map[string]goal.Goal, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("goal service returned invalid JSON")
	}
	root := gjson.ParseBytes(body)
	list := root
	if !root.IsArray() {
		list = field(root, "goals", "data")
	}
	if !list.IsArray() {
		return nil, fmt.Errorf("goal service response has no goal list")
	}

	out := make(map[string]goal.Goal)
	var parseErr error
	list.ForEach(func(_, item gjson.Result) bool {
		g, err := parseGoal(item)
		if err != nil {
			parseErr = err
			return false
		}
		out[g.ID] = g
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return out, nil
}

func parseGoal(item gjson.Result) (goal.Goal, error) {
	g := goal.Goal{
		ID:    field(item, "id", "goal_id", "goalId").String(),
		Title: field(item, "title", "name").String(),
	}
	if g.ID == "" {
		return g, &goal.SemanticError{Kind: goal.KindInvalidGoal, Detail: "goal record without id"}
	}

	date := field(item, "target_date", "targetDate")
	if !date.Exists() {
		return g, &goal.SemanticError{Kind: goal.KindInvalidGoal, GoalID: g.ID, Detail: fmt.Sprintf("goal %q has no target date", g.ID)}
	}
	d, err := goal.ParseDate(date.String())
	if err != nil {
		return g, &goal.SemanticError{Kind: goal.KindInvalidGoal, GoalID: g.ID, Detail: fmt.Sprintf("goal %q: %v", g.ID, err)}
	}
	g.TargetDate = d

	p, err := goal.ParsePriority(field(item, "priority").String())
	if err != nil {
		return g, &goal.SemanticError{Kind: goal.KindInvalidGoal, GoalID: g.ID, Detail: fmt.Sprintf("goal %q: %v", g.ID, err)}
	}
	g.Priority = p

	dur := field(item, "duration_months", "durationMonths")
	if !dur.Exists() {
		return g, &goal.SemanticError{
			Kind:   goal.KindInvalidDuration,
			GoalID: g.ID,
			Detail: fmt.Sprintf("goal %q has no duration_months", g.ID),
		}
	}
	g.DurationMonths = int(dur.Int())
	return g, nil
}

// field returns the first of keys present on r.
func field(r gjson.Result, keys ...string) gjson.Result {
	for _, k := range keys {
		if v := r.Get(k); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}
