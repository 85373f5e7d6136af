package browse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"

	"github.com/trezcool/admissions/core/catalog"
	"github.com/trezcool/admissions/core/listview"
)

// fetchPageSize is the page size requested while walking a whole collection.
const fetchPageSize = 100

// Client reads catalog collections from the public API.
type Client struct {
	baseURL string
	http    *retryablehttp.Client
}

func NewClient(baseURL string) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.HTTPClient.Timeout = 10 * time.Second
	rc.Logger = nil // would draw over the terminal UI

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    rc,
	}
}

// FetchAll walks every page of the kind's collection, in API order.
func FetchAll[E catalog.Entity[E]](ctx context.Context, c *Client, kind catalog.Kind[E]) ([]E, error) {
	var items []E
	for page := 1; ; page++ {
		win, err := fetchPage[E](ctx, c, kind, page)
		if err != nil {
			return nil, err
		}
		items = append(items, win.Items...)
		if win.CurrentPage >= win.TotalPages || len(win.Items) == 0 {
			return items, nil
		}
	}
}

func fetchPage[E catalog.Entity[E]](ctx context.Context, c *Client, kind catalog.Kind[E], page int) (listview.PageWindow[E], error) {
	var win listview.PageWindow[E]

	q := make(url.Values)
	q.Set("sort", string(listview.SortOldest))
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(fetchPageSize))
	endpoint := fmt.Sprintf("%s/v1/%s?%s", c.baseURL, strings.ReplaceAll(kind.Name, "_", "-"), q.Encode())

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return win, errors.Wrap(err, "creating request")
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return win, errors.Wrapf(err, "fetching %s", kind.Name)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return win, fmt.Errorf("API responded %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(res.Body).Decode(&win); err != nil {
		return win, errors.Wrapf(err, "decoding %s", kind.Name)
	}
	return win, nil
}
