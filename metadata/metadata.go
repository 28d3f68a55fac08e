// Package metadata is the out-of-scope-contract collaborator of §1: it
// retrieves the instrument catalog over HTTP and applies the filter
// predicate of §6, returning an ordered list of instrument identifiers.
// Grounded on cashengine's symbol.rs/htx_symbol.rs filter chain and the
// REST call + error check in lib.rs's run().
package metadata

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
)

// CatalogPath is the instrument catalog endpoint appended to rest_base_url.
const CatalogPath = "/v1/settings/common/symbols"

// FetchFiltered retrieves the instrument catalog from baseURL and returns,
// in catalog order, the instruments that pass every predicate in §6:
// state == "online", trade_enabled, cancel_enabled, visible, not delisted,
// not country-disabled.
func FetchFiltered(ctx context.Context, httpClient *http.Client, baseURL string) ([]string, error) {
	body, err := fetchBody(ctx, httpClient, baseURL+CatalogPath)
	if err != nil {
		return nil, err
	}

	root := gjson.ParseBytes(body)
	if status := root.Get("status"); status.Exists() && status.String() != "ok" {
		return nil, fmt.Errorf("metadata: exchange reported error status %q: %s", status.String(), root.Get("err-msg").String())
	}

	var out []string
	root.Get("data").ForEach(func(_, item gjson.Result) bool {
		if passesFilter(item) {
			out = append(out, item.Get("symbol").String())
		}
		return true
	})

	if len(out) == 0 {
		return nil, fmt.Errorf("metadata: zero instruments after filtering")
	}
	return out, nil
}

func passesFilter(item gjson.Result) bool {
	return item.Get("state").String() == "online" &&
		item.Get("trade_enabled").Bool() &&
		item.Get("cancel_enabled").Bool() &&
		item.Get("visible").Bool() &&
		!item.Get("delist").Bool() &&
		!item.Get("country_disabled").Bool()
}

func fetchBody(ctx context.Context, httpClient *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("metadata: build request for %s: %w", url, err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("metadata: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metadata: %s returned HTTP %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("metadata: read response body: %w", err)
	}
	return body, nil
}
