// Package bgg reads game metadata from the BoardGameGeek XML API2.
package bgg

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"

	apperrors "github.com/louisbranch/playlog/internal/platform/errors"
	"github.com/louisbranch/playlog/internal/platform/timeouts"
)

// DefaultBaseURL is the public XML API2 root.
const DefaultBaseURL = "https://boardgamegeek.com/xmlapi2"

// MinQueryLength is the shortest query sent to the search endpoint.
const MinQueryLength = 3

const maxResponseBytes = 4 << 20

// SearchResult is one ranked search hit.
type SearchResult struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Year int    `json:"year,omitempty"`
}

// Link is a named reference to another BoardGameGeek record.
type Link struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Detail is the metadata of one game.
type Detail struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Image       string   `json:"image,omitempty"`
	Thumbnail   string   `json:"thumbnail,omitempty"`
	Year        int      `json:"year,omitempty"`
	MinPlayers  int      `json:"minPlayers"`
	MaxPlayers  int      `json:"maxPlayers"`
	MinPlayTime int      `json:"minPlayTime"`
	MaxPlayTime int      `json:"maxPlayTime"`
	Categories  []string `json:"categories"`
	Mechanics   []string `json:"mechanics"`
	Expansions  []Link   `json:"expansions"`
	// Characters is the playable roster. XML API2 publishes none, so
	// fetched records leave it empty; callers may fill it before import.
	Characters  []string `json:"characters"`
	Rating      float64  `json:"rating"`
	Complexity  float64  `json:"complexity"`
}

// Client calls the metadata API. Concurrent identical searches share one
// upstream request.
type Client struct {
	baseURL    string
	httpClient *http.Client
	searches   singleflight.Group
}

// NewClient builds a client for baseURL. A nil httpClient gets a traced
// client bounded by the metadata request timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   timeouts.MetadataRequest,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

// Search returns games matching query, exact name matches first, then
// prefix matches, then the rest in upstream order. Queries shorter than
// MinQueryLength return no results without calling the API.
func (c *Client) Search(ctx context.Context, query string) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinQueryLength {
		return []SearchResult{}, nil
	}
	key := strings.ToLower(query)
	value, err, _ := c.searches.Do(key, func() (any, error) {
		// The shared call outlives any single caller's cancellation.
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.MetadataRequest)
		defer cancel()
		return c.search(callCtx, query)
	})
	if err != nil {
		return nil, err
	}
	shared := value.([]SearchResult)
	return append([]SearchResult(nil), shared...), nil
}

func (c *Client) search(ctx context.Context, query string) ([]SearchResult, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("type", "boardgame")
	var doc searchDocument
	if err := c.get(ctx, "/search", params, &doc); err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(doc.Items))
	seen := make(map[string]struct{}, len(doc.Items))
	for _, item := range doc.Items {
		if _, dup := seen[item.ID]; dup || item.ID == "" {
			continue
		}
		seen[item.ID] = struct{}{}
		results = append(results, SearchResult{ID: item.ID, Name: item.Name.Value, Year: atoi(item.Year.Value)})
	}
	rankResults(results, query)
	return results, nil
}

// Thing returns the detail record for a numeric game id.
func (c *Client) Thing(ctx context.Context, gameID string) (Detail, error) {
	gameID = strings.TrimSpace(gameID)
	if _, err := strconv.ParseUint(gameID, 10, 64); err != nil {
		return Detail{}, apperrors.WithMetadata(apperrors.CodeMetadataInvalidID,
			fmt.Sprintf("invalid metadata id %q", gameID), map[string]string{"ID": gameID})
	}
	params := url.Values{}
	params.Set("id", gameID)
	params.Set("stats", "1")
	var doc thingDocument
	if err := c.get(ctx, "/thing", params, &doc); err != nil {
		return Detail{}, err
	}
	if len(doc.Items) == 0 {
		return Detail{}, apperrors.WithMetadata(apperrors.CodeNotFound,
			fmt.Sprintf("metadata id %s not found", gameID), map[string]string{"ID": gameID})
	}
	return doc.Items[0].detail(), nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, target any) error {
	endpoint := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build metadata request: %w", err)
	}
	req.Header.Set("Accept", "application/xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeMetadataUnavailable, "call metadata api", err)
	}
	defer resp.Body.Close()

	// 202 means the request was queued upstream; callers retry later.
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return apperrors.New(apperrors.CodeMetadataUnavailable, fmt.Sprintf("metadata api %s returned %s", path, resp.Status))
	}
	if err := xml.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(target); err != nil {
		return apperrors.Wrap(apperrors.CodeMetadataUnavailable, "decode metadata response", err)
	}
	return nil
}

func rankResults(results []SearchResult, query string) {
	query = strings.ToLower(query)
	rank := func(name string) int {
		name = strings.ToLower(name)
		switch {
		case name == query:
			return 0
		case strings.HasPrefix(name, query):
			return 1
		}
		return 2
	}
	sort.SliceStable(results, func(i, j int) bool {
		return rank(results[i].Name) < rank(results[j].Name)
	})
}

type valueAttr struct {
	Value string `xml:"value,attr"`
}

type nameElement struct {
	Type  string `xml:"type,attr"`
	Value string `xml:"value,attr"`
}

type searchDocument struct {
	Items []struct {
		ID   string      `xml:"id,attr"`
		Name nameElement `xml:"name"`
		Year valueAttr   `xml:"yearpublished"`
	} `xml:"item"`
}

type thingDocument struct {
	Items []thingItem `xml:"item"`
}

type thingItem struct {
	ID          string        `xml:"id,attr"`
	Thumbnail   string        `xml:"thumbnail"`
	Image       string        `xml:"image"`
	Names       []nameElement `xml:"name"`
	Description string        `xml:"description"`
	Year        valueAttr     `xml:"yearpublished"`
	MinPlayers  valueAttr     `xml:"minplayers"`
	MaxPlayers  valueAttr     `xml:"maxplayers"`
	MinPlayTime valueAttr     `xml:"minplaytime"`
	MaxPlayTime valueAttr     `xml:"maxplaytime"`
	Links       []struct {
		Type    string `xml:"type,attr"`
		ID      string `xml:"id,attr"`
		Value   string `xml:"value,attr"`
		Inbound bool   `xml:"inbound,attr"`
	} `xml:"link"`
	Ratings struct {
		Average       valueAttr `xml:"average"`
		AverageWeight valueAttr `xml:"averageweight"`
	} `xml:"statistics>ratings"`
}

func (item thingItem) detail() Detail {
	d := Detail{
		ID:          item.ID,
		Description: strings.TrimSpace(item.Description),
		Image:       strings.TrimSpace(item.Image),
		Thumbnail:   strings.TrimSpace(item.Thumbnail),
		Year:        atoi(item.Year.Value),
		MinPlayers:  atoi(item.MinPlayers.Value),
		MaxPlayers:  atoi(item.MaxPlayers.Value),
		MinPlayTime: atoi(item.MinPlayTime.Value),
		MaxPlayTime: atoi(item.MaxPlayTime.Value),
		Categories:  []string{},
		Mechanics:   []string{},
		Expansions:  []Link{},
		Characters:  []string{},
		Rating:      atof(item.Ratings.Average.Value),
		Complexity:  atof(item.Ratings.AverageWeight.Value),
	}
	for _, name := range item.Names {
		if name.Type == "primary" || d.Name == "" {
			d.Name = strings.TrimSpace(name.Value)
		}
		if name.Type == "primary" {
			break
		}
	}
	for _, link := range item.Links {
		switch link.Type {
		case "boardgamecategory":
			d.Categories = append(d.Categories, link.Value)
		case "boardgamemechanic":
			d.Mechanics = append(d.Mechanics, link.Value)
		case "boardgameexpansion":
			// Inbound links point at the base game of an expansion.
			if !link.Inbound {
				d.Expansions = append(d.Expansions, Link{ID: link.ID, Name: strings.TrimSpace(link.Value)})
			}
		}
	}
	return d
}

func atoi(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return n
}

func atof(value string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return f
}
