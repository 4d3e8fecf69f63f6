package upstream

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/conn-castle/wpsync/internal/messages"
	"github.com/conn-castle/wpsync/internal/syncerr"
)

// LicenseRequest identifies one licensed installation to a license server. Basename is the
// plugin basename, e.g. "funnel-builder-pro/funnel-builder-pro.php".
type LicenseRequest struct {
	APIURL      string
	LicenseKey  string
	Basename    string
	ProductName string
	Email       string
	Domain      string
	Instance    string
}

func (r LicenseRequest) validate() error {
	for _, field := range []struct{ name, value string }{
		{"api_url", r.APIURL},
		{"license_key", r.LicenseKey},
		{"basename", r.Basename},
	} {
		if strings.TrimSpace(field.value) == "" {
			return syncerr.Configf(messages.UpstreamMissingFieldFmt, field.name)
		}
	}
	return nil
}

// PluginKey returns the per-plugin key of the update form: the hex SHA-1 of the basename.
func PluginKey(basename string) string {
	sum := sha1.Sum([]byte(basename))
	return hex.EncodeToString(sum[:])
}

// form builds the update-check form. Every field is nested under plugins[<key>].
func (r LicenseRequest) form() url.Values {
	key := PluginKey(r.Basename)
	field := func(name string) string {
		return "plugins[" + key + "][" + name + "]"
	}
	values := url.Values{}
	values.Set(field("plugin_slug"), r.Basename)
	values.Set(field("email"), r.Email)
	values.Set(field("license_key"), r.LicenseKey)
	values.Set(field("product_id"), r.ProductName)
	values.Set(field("api_key"), r.LicenseKey)
	values.Set(field("version"), "1.0.0")
	values.Set(field("activation_email"), r.Email)
	values.Set(field("domain"), r.Domain)
	values.Set(field("instance"), r.Instance)
	return values
}

type licenseEntry struct {
	NewVersion string `json:"new_version"`
	Package    string `json:"package"`
}

// CheckLicense posts the update-check form and returns the first entry, in key order,
// that carries both a new version and a package URL.
func (c *Client) CheckLicense(ctx context.Context, lr LicenseRequest) (VersionInfo, error) {
	if err := lr.validate(); err != nil {
		return VersionInfo{}, err
	}
	source := fmt.Sprintf(messages.UpstreamLicenseSourceFmt, redactURL(lr.APIURL))
	req, err := newRequest(ctx, http.MethodPost, lr.APIURL, strings.NewReader(lr.form().Encode()))
	if err != nil {
		return VersionInfo{}, &syncerr.UpstreamError{Source: source, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", LicenseUserAgent)
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req)
	if err != nil {
		return VersionInfo{}, &syncerr.UpstreamError{Source: source, Err: err}
	}
	if isEmptyJSON(body) {
		return VersionInfo{}, &syncerr.UpstreamError{Source: source, Err: syncerr.ErrNoUpdateAvailable}
	}
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(body, &entries); err != nil {
		return VersionInfo{}, &syncerr.UpstreamError{Source: source, Err: fmt.Errorf(messages.UpstreamDecodeFmt, err)}
	}
	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		var entry licenseEntry
		if err := json.Unmarshal(entries[key], &entry); err != nil {
			continue
		}
		if strings.TrimSpace(entry.NewVersion) != "" && strings.TrimSpace(entry.Package) != "" {
			return VersionInfo{Version: strings.TrimSpace(entry.NewVersion), DownloadURL: entry.Package}, nil
		}
	}
	return VersionInfo{}, &syncerr.UpstreamError{Source: source, Err: fmt.Errorf(messages.UpstreamAPIErrorFmt, syncerr.ErrNoUpdateAvailable, messages.UpstreamNoPackage)}
}

// redactURL drops query strings and credentials, which often carry secrets.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.User = nil
	u.RawQuery = ""
	return u.String()
}
