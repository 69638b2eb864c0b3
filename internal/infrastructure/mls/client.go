// Package mls implements the HTTP transport onto the external listings
// service: a streamed bounding-box listing query for high-zoom viewports and
// a single-response cluster query for the rest.
package mls

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"mlsmap/internal/domain/model"
	"mlsmap/internal/domain/repository"
)

const (
	streamPath   = "/api/mls-listings/stream"
	clustersPath = "/api/map-clusters"

	maxFrameBytes = 4 << 20
)

// Client talks to the listings service. It implements
// repository.MarkerRepository.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			// No overall client timeout: streamed responses stay open as
			// long as batches keep arriving; the request context bounds it.
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// streamFrame is one NDJSON message of the streamed listing response.
type streamFrame struct {
	Type       string            `json:"type"`
	TotalCount *model.TotalCount `json:"totalCount,omitempty"`
	Listings   []model.Listing   `json:"listings,omitempty"`
}

// StreamListings opens the server-streamed listing query and decodes frames
// as they arrive. Each decoded batch is delivered immediately; malformed
// frames are logged and skipped without aborting the stream. The returned
// channel closes after the terminal frame or a transport error.
func (c *Client) StreamListings(ctx context.Context, q repository.BoundsQuery) (<-chan repository.ListingBatch, error) {
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, streamPath, buildQuery(q).Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating stream request: %w", err)
	}
	req.Header.Set("Accept", "application/x-ndjson")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing stream request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	events := make(chan repository.ListingBatch)
	go func() {
		defer close(events)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 64*1024), maxFrameBytes)

		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			var frame streamFrame
			if err := json.Unmarshal(line, &frame); err != nil {
				log.Printf("⚠️ skipping malformed stream frame: %v", err)
				continue
			}

			switch frame.Type {
			case "meta":
				if frame.TotalCount != nil {
					events <- repository.ListingBatch{Total: frame.TotalCount}
				}
			case "batch":
				events <- repository.ListingBatch{Listings: frame.Listings}
			case "done":
				return
			default:
				log.Printf("⚠️ skipping unknown stream frame type %q", frame.Type)
			}
		}

		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			events <- repository.ListingBatch{Err: fmt.Errorf("reading stream: %w", err)}
		}
	}()

	return events, nil
}

// clustersResponse is the single-shot cluster payload.
type clustersResponse struct {
	Clusters   []model.ServerCluster `json:"clusters"`
	Listings   []model.Listing       `json:"listings"`
	TotalCount model.TotalCount      `json:"totalCount"`
}

// FetchClusters loads the pre-aggregated clusters for a viewport.
func (c *Client) FetchClusters(ctx context.Context, q repository.BoundsQuery) (*repository.ClusterPage, error) {
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, clustersPath, buildQuery(q).Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating cluster request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing cluster request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var payload clustersResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding cluster response: %w", err)
	}

	return &repository.ClusterPage{
		Clusters: payload.Clusters,
		Listings: payload.Listings,
		Total:    payload.TotalCount,
	}, nil
}

// buildQuery flattens the viewport and active filters into query parameters.
func buildQuery(q repository.BoundsQuery) url.Values {
	vp, f := q.Viewport, q.Filters
	params := url.Values{}
	params.Set("north", strconv.FormatFloat(vp.North, 'f', -1, 64))
	params.Set("south", strconv.FormatFloat(vp.South, 'f', -1, 64))
	params.Set("east", strconv.FormatFloat(vp.East, 'f', -1, 64))
	params.Set("west", strconv.FormatFloat(vp.West, 'f', -1, 64))
	params.Set("zoom", strconv.Itoa(vp.Zoom))

	setIf := func(key, value string) {
		if value != "" {
			params.Set(key, value)
		}
	}
	setIf("listingType", f.ListingType)
	setIf("minPrice", f.MinPrice)
	setIf("maxPrice", f.MaxPrice)
	setIf("beds", f.Beds)
	setIf("baths", f.Baths)
	setIf("minSqft", f.MinSqft)
	setIf("maxSqft", f.MaxSqft)
	setIf("minLotSize", f.MinLotSize)
	setIf("maxLotSize", f.MaxLotSize)
	setIf("minYear", f.MinYear)
	setIf("maxYear", f.MaxYear)
	setIf("propertyType", f.PropertyType)
	setIf("propertySubType", f.PropertySubType)
	setIf("minGarages", f.MinGarages)
	setIf("hoa", f.HOA)
	setIf("landType", f.LandType)
	setIf("city", f.City)
	setIf("subdivision", f.Subdivision)

	setFlag := func(key string, value bool) {
		if value {
			params.Set(key, "true")
		}
	}
	setFlag("poolYn", f.PoolYn)
	setFlag("spaYn", f.SpaYn)
	setFlag("viewYn", f.ViewYn)
	setFlag("garageYn", f.GarageYn)
	setFlag("associationYN", f.AssociationYN)
	setFlag("gatedCommunity", f.GatedCommunity)
	setFlag("seniorCommunity", f.SeniorCommunity)

	return params
}
