// Package replication copies bookings to the remote booking backend.
package replication

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/go-querystring/query"

	"github.com/mahyar-jbr/dog-wash-booking/internal/domain"
)

// RemoteBooking is the record shape the remote backend accepts and returns.
type RemoteBooking struct {
	ID              string `json:"_id,omitempty"`
	CustomerName    string `json:"customer_name"`
	CustomerContact string `json:"customer_contact"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	Duration        int    `json:"duration"`
	NumberOfDogs    int    `json:"number_of_dogs"`
	TubsUsed        []int  `json:"tubs_used"`
	Status          string `json:"status"`
}

func FromBooking(b *domain.Booking) RemoteBooking {
	return RemoteBooking{
		CustomerName:    b.CustomerName,
		CustomerContact: b.CustomerContact,
		Date:            b.Date,
		Time:            b.Time,
		Duration:        b.Duration,
		NumberOfDogs:    b.NumberOfDogs,
		TubsUsed:        b.TubsUsed,
		Status:          string(b.Status),
	}
}

// Same reports whether r describes the same wash as b.
func (r RemoteBooking) Same(b *domain.Booking) bool {
	return r.Date == b.Date && r.Time == b.Time &&
		strings.EqualFold(r.CustomerName, b.CustomerName) &&
		strings.EqualFold(r.CustomerContact, b.CustomerContact)
}

type ListOptions struct {
	Date string `url:"date,omitempty"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Push creates b on the remote backend.
func (c *Client) Push(ctx context.Context, b *domain.Booking) error {
	body, err := json.Marshal(FromBooking(b))
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/bookings", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("replicate booking %s: %w", b.ID, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("replicate booking %s: status=%d body=%s", b.ID, res.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}

// List fetches the remote records, optionally for one date.
func (c *Client) List(ctx context.Context, opts ListOptions) ([]RemoteBooking, error) {
	v, err := query.Values(opts)
	if err != nil {
		return nil, err
	}
	u := c.baseURL + "/api/bookings"
	if qs := v.Encode(); qs != "" {
		u += "?" + qs
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list remote bookings: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list remote bookings: status=%d", res.StatusCode)
	}
	var out []RemoteBooking
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode remote bookings: %w", err)
	}
	return out, nil
}
