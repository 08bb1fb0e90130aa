package har

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/devnull-http/devnull/internal/config"
)

// passthroughHeaders are the only response headers copied into the emitted
// ResponseTemplate, per spec §4.8 step 3.
var passthroughHeaders = map[string]bool{
	"content-type":                true,
	"access-control-allow-origin": true,
}

// group accumulates the response templates observed for one distinct
// matcher across the HAR entries, preserving entry order so the group's
// responses list length always equals the number of source entries it
// absorbed (spec §8's round-trip invariant).
type group struct {
	rule      config.MatchRule
	bodies    []string
	responses []config.ResponseTemplate
}

// Convert reads the HAR file at harPath and writes one matcher YAML file
// plus its response body assets into destDir. It returns the number of
// matcher YAML files written.
func Convert(harPath, destDir string) (int, error) {
	data, err := os.ReadFile(harPath)
	if err != nil {
		return 0, fmt.Errorf("har: read %s: %w", harPath, err)
	}

	var doc File
	if err := json.Unmarshal(data, &doc); err != nil {
		return 0, fmt.Errorf("har: parse %s: %w", harPath, err)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return 0, fmt.Errorf("har: create destination %s: %w", destDir, err)
	}

	groups := map[string]*group{}
	var order []string

	for _, entry := range doc.Log.Entries {
		rule, _, err := buildMatchRule(entry.Request)
		if err != nil {
			return 0, fmt.Errorf("har: entry with url %q: %w", entry.Request.URL, err)
		}

		key := matchKey(rule)
		g, ok := groups[key]
		if !ok {
			g = &group{rule: rule}
			groups[key] = g
			order = append(order, key)
		}

		tmpl, body := buildResponseTemplate(entry.Response)
		g.bodies = append(g.bodies, body)
		g.responses = append(g.responses, tmpl)
	}

	for _, key := range order {
		g := groups[key]
		if err := writeGroup(g, destDir); err != nil {
			return 0, err
		}
	}

	return len(order), nil
}

// buildMatchRule converts a HAR request into a MatchRule: path and query
// values become literal-regex matches (regexp.QuoteMeta), and method
// becomes the rule's sole method entry, per spec §4.8 step 2.
func buildMatchRule(req Request) (config.MatchRule, string, error) {
	parsed, err := url.Parse(req.URL)
	if err != nil {
		return config.MatchRule{}, "", err
	}

	query := map[string]string{}
	for _, qs := range req.QueryString {
		query[qs.Name] = regexp.QuoteMeta(qs.Value)
	}

	rule := config.MatchRule{
		Methods: []string{strings.ToUpper(req.Method)},
		Path:    regexp.QuoteMeta(parsed.Path),
	}
	if len(query) > 0 {
		rule.Query = query
	}

	return rule, parsed.Path, nil
}

// matchKey produces a deterministic grouping key: method, path, and sorted
// query pairs. Headers and graphql are left default by buildMatchRule, so
// they don't participate, matching step 2's "Headers and graphql left
// default."
func matchKey(rule config.MatchRule) string {
	var b strings.Builder
	b.WriteString(strings.Join(rule.Methods, ","))
	b.WriteByte('|')
	b.WriteString(rule.Path)
	b.WriteByte('|')

	names := make([]string, 0, len(rule.Query))
	for name := range rule.Query {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(rule.Query[name])
		b.WriteByte(';')
	}

	return b.String()
}

// buildResponseTemplate converts a HAR response into a ResponseTemplate
// stub (status, weight 1, a filtered header set, body kind by mimetype)
// plus the raw body text to be externalized by writeGroup, per spec §4.8
// step 3.
func buildResponseTemplate(resp Response) (config.ResponseTemplate, string) {
	headers := map[string]string{}
	for _, h := range resp.Headers {
		if passthroughHeaders[strings.ToLower(h.Name)] {
			headers[h.Name] = h.Value
		}
	}

	tmpl := config.ResponseTemplate{
		Status:  resp.Status,
		Headers: headers,
	}

	return tmpl, resp.Content.Text
}

// writeGroup externalizes each response body in g to an asset file
// (deduplicated by content hash), sets each ResponseTemplate's body to
// Raw(File(filename)), and serializes the resulting StaticHTTPConfig to a
// deterministically-named YAML file under destDir, per spec §4.8 steps
// 5-6.
func writeGroup(g *group, destDir string) error {
	requestPath := rulePathForFilenames(g.rule)

	for i := range g.responses {
		body := g.bodies[i]
		if body == "" {
			g.responses[i].Body = config.ResponseBody{Kind: config.BodyEmpty}
			continue
		}

		method := ""
		if len(g.rule.Methods) > 0 {
			method = g.rule.Methods[0]
		}

		isJSON := strings.Contains(strings.ToLower(g.responses[i].Headers["Content-Type"]), "application/json") ||
			strings.Contains(strings.ToLower(g.responses[i].Headers["content-type"]), "application/json")

		payload := body
		if isJSON {
			if pretty, ok := prettyPrintJSON(body); ok {
				payload = pretty
			}
		}

		filename := assetFilename(method, requestPath, payload, isJSON)
		if err := os.WriteFile(filepath.Join(destDir, filename), []byte(payload), 0o644); err != nil {
			return fmt.Errorf("har: write asset %s: %w", filename, err)
		}

		g.responses[i].Body = config.ResponseBody{
			Kind: config.BodyRaw,
			Data: config.ResponseData{File: filename},
		}
	}

	doc := struct {
		Type      config.ResponseConfigKind `yaml:"type"`
		ID        string                    `yaml:"id,omitempty"`
		Matches   []config.MatchRule        `yaml:"matches"`
		Responses []config.ResponseTemplate `yaml:"responses"`
	}{
		Type:      config.KindStaticHTTP,
		ID:        uuid.New().String(),
		Matches:   []config.MatchRule{g.rule},
		Responses: g.responses,
	}

	yamlBytes, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("har: marshal matcher config: %w", err)
	}

	method := ""
	if len(g.rule.Methods) > 0 {
		method = g.rule.Methods[0]
	}
	hash := md5Hex(yamlBytes)[:6]
	filename := fmt.Sprintf("%s_%s_%s.yaml", method, sanitizeForFilename(requestPath), hash)

	if err := os.WriteFile(filepath.Join(destDir, filename), yamlBytes, 0o644); err != nil {
		return fmt.Errorf("har: write matcher config %s: %w", filename, err)
	}

	return nil
}

// rulePathForFilenames recovers the plain request path from a
// regexp.QuoteMeta-escaped MatchRule.Path, for use in filenames.
func rulePathForFilenames(rule config.MatchRule) string {
	return unescapeQuoteMeta(rule.Path)
}

var quoteMetaEscape = regexp.MustCompile(`\\([.\\+*?()|\[\]{}^$])`)

func unescapeQuoteMeta(s string) string {
	return quoteMetaEscape.ReplaceAllString(s, "$1")
}

// sanitizeForFilename implements spec §4.8 step 6/§6's filename mapping:
// "/" replaces path separators with "__", strips leading/trailing "__",
// and the root path "/" becomes "root.html" for filename purposes only.
func sanitizeForFilename(path string) string {
	if path == "" || path == "/" {
		return "root.html"
	}
	s := strings.ReplaceAll(path, "/", "__")
	s = strings.Trim(s, "_")
	return s
}

// assetFilename implements spec §4.8 step 5's naming rule.
func assetFilename(method, requestPath, body string, isJSON bool) string {
	ext := filepath.Ext(requestPath)
	if ext == "" && isJSON {
		ext = ".json"
	}
	hash := md5Hex([]byte(body))[:6]
	return fmt.Sprintf("%s_%s_%s%s", method, sanitizeForFilename(requestPath), hash, ext)
}

func md5Hex(b []byte) string {
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}

// prettyPrintJSON re-indents body if it parses as JSON; ok is false (and
// body is written verbatim) otherwise, per spec §4.8 step 5.
func prettyPrintJSON(body string) (string, bool) {
	var v interface{}
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return body, false
	}
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return body, false
	}
	return string(pretty), true
}
