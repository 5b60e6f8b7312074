// Package scrape bootstraps a tenant's configuration from its public website.
package scrape

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/dialcoach/dialcoach/internal/analysis"
	"github.com/dialcoach/dialcoach/internal/domain"
)

const (
	primaryTimeout  = 15 * time.Second
	servicesTimeout = 10 * time.Second
	aboutTimeout    = 5 * time.Second

	mainTextCap = 15000
	subPageCap  = 5000

	browserUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// Content containers tried in priority order when extracting visible text.
var contentSelectors = []string{"main", "[role=main]", "#content", ".content", "article", "body"}

var defaultColors = domain.BrandColors{Primary: "#1f2937", Secondary: "#f9fafb", Accent: "#2563eb"}

// Extractor turns unstructured text into structured company facts. Satisfied
// by analysis.Analyzer.
type Extractor interface {
	Analyze(ctx context.Context, text, kind string, callCtx analysis.CallContext) (map[string]any, error)
}

// Metadata is the page-level metadata pulled from the primary page.
type Metadata struct {
	Title         string `json:"title,omitempty"`
	Description   string `json:"description,omitempty"`
	OGTitle       string `json:"ogTitle,omitempty"`
	OGDescription string `json:"ogDescription,omitempty"`
}

// CompanyData is everything mined from a company website.
type CompanyData struct {
	SourceURL    string             `json:"sourceUrl"`
	LogoURL      string             `json:"logoUrl,omitempty"`
	Colors       domain.BrandColors `json:"colors"`
	Text         string             `json:"text,omitempty"`
	Metadata     Metadata           `json:"metadata"`
	Intelligence map[string]any     `json:"intelligence,omitempty"`
}

// Scraper fetches a company site and extracts branding, text and structured
// facts.
type Scraper struct {
	extractor Extractor
	http      *http.Client
}

// NewScraper creates a scraper that feeds extracted text through extractor.
func NewScraper(extractor Extractor) *Scraper {
	return &Scraper{
		extractor: extractor,
		// Per-request deadlines come from contexts; the client cap is a backstop.
		http: &http.Client{Timeout: primaryTimeout},
	}
}

// Scrape fetches the primary page plus best-effort services/about sub-pages
// and extracts logo, brand colors, visible text, metadata and structured
// intelligence. Sub-page failures are swallowed; a primary-page failure
// propagates since without it there is nothing to extract.
func (s *Scraper) Scrape(ctx context.Context, rawURL string) (*CompanyData, error) {
	pageURL := NormalizeURL(rawURL)
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid url %q", domain.ErrValidation, rawURL)
	}

	html, err := s.fetch(ctx, pageURL, primaryTimeout)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	data := &CompanyData{
		SourceURL: pageURL,
		LogoURL:   extractLogo(doc, base),
		Colors:    extractColors(html),
		Text:      truncate(extractText(doc), mainTextCap),
		Metadata:  extractMetadata(doc),
	}

	for _, sub := range []struct {
		keyword string
		paths   []string
		timeout time.Duration
	}{
		{"service", []string{"/services", "/our-services", "/pest-control-services"}, servicesTimeout},
		{"about", []string{"/about", "/about-us"}, aboutTimeout},
	} {
		if text := s.fetchSubPage(ctx, doc, base, sub.keyword, sub.paths, sub.timeout); text != "" {
			data.Text += "\n\n" + truncate(text, subPageCap)
		}
	}

	if s.extractor != nil && strings.TrimSpace(data.Text) != "" {
		facts, err := s.extractor.Analyze(ctx, data.Text, analysis.KindExtract, analysis.CallContext{})
		if err != nil {
			// Enrichment only; the scrape itself already succeeded.
			slog.Warn("Intelligence extraction failed", "url", pageURL, "error", err)
		} else {
			data.Intelligence = facts
		}
	}
	return data, nil
}

// NormalizeURL prepends https:// when the scheme is missing.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return "https://" + raw
	}
	return raw
}

func (s *Scraper) fetch(ctx context.Context, pageURL string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", browserUA)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// fetchSubPage tries guessed URL paths first, then links whose href or text
// matches keyword. All failures are swallowed: sub-pages are optional
// enrichment.
func (s *Scraper) fetchSubPage(ctx context.Context, doc *goquery.Document, base *url.URL, keyword string, guesses []string, timeout time.Duration) string {
	candidates := make([]string, 0, len(guesses)+2)
	for _, p := range guesses {
		candidates = append(candidates, base.ResolveReference(&url.URL{Path: p}).String())
	}
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if strings.Contains(strings.ToLower(href), keyword) || strings.Contains(strings.ToLower(a.Text()), keyword) {
			if ref, err := url.Parse(href); err == nil && (ref.Host == "" || ref.Host == base.Host) {
				candidates = append(candidates, base.ResolveReference(ref).String())
				return false
			}
		}
		return true
	})

	for _, candidate := range candidates {
		html, err := s.fetch(ctx, candidate, timeout)
		if err != nil {
			slog.Debug("Sub-page fetch skipped", "url", candidate, "error", err)
			continue
		}
		sub, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			continue
		}
		if text := extractText(sub); strings.TrimSpace(text) != "" {
			return text
		}
	}
	return ""
}

// extractLogo walks the candidate priority order: header images, images named
// "logo", the favicon, then og:image.
func extractLogo(doc *goquery.Document, base *url.URL) string {
	if src, ok := doc.Find("header img, .header img, nav img").First().Attr("src"); ok && src != "" {
		return absolute(base, src)
	}
	logo := doc.Find("img").FilterFunction(func(_ int, img *goquery.Selection) bool {
		src, _ := img.Attr("src")
		alt, _ := img.Attr("alt")
		class, _ := img.Attr("class")
		haystack := strings.ToLower(src + " " + alt + " " + class)
		return strings.Contains(haystack, "logo")
	})
	if src, ok := logo.First().Attr("src"); ok && src != "" {
		return absolute(base, src)
	}
	if href, ok := doc.Find(`link[rel="icon"], link[rel="shortcut icon"], link[rel="apple-touch-icon"]`).First().Attr("href"); ok && href != "" {
		return absolute(base, href)
	}
	if content, ok := doc.Find(`meta[property="og:image"]`).First().Attr("content"); ok && content != "" {
		return absolute(base, content)
	}
	return ""
}

var (
	cssVarRes = map[string]*regexp.Regexp{
		"primary":   regexp.MustCompile(`--(?:primary|brand)[\w-]*:\s*(#[0-9a-fA-F]{3,8}|rgba?\([^)]*\))`),
		"secondary": regexp.MustCompile(`--secondary[\w-]*:\s*(#[0-9a-fA-F]{3,8}|rgba?\([^)]*\))`),
		"accent":    regexp.MustCompile(`--accent[\w-]*:\s*(#[0-9a-fA-F]{3,8}|rgba?\([^)]*\))`),
	}
	colorRe = regexp.MustCompile(`#[0-9a-fA-F]{6}\b|#[0-9a-fA-F]{3}\b|rgba?\(\s*\d+\s*,\s*\d+\s*,\s*\d+[^)]*\)`)

	// Near-white/near-black values dominate raw frequency counts and are
	// useless as brand colors.
	boringColors = map[string]bool{
		"#fff": true, "#ffffff": true, "#000": true, "#000000": true,
		"rgb(255, 255, 255)": true, "rgb(0, 0, 0)": true,
	}
)

// extractColors looks for CSS custom properties first, then falls back to a
// frequency count of every color literal in the raw HTML, then to defaults.
func extractColors(html string) domain.BrandColors {
	colors := domain.BrandColors{}
	if m := cssVarRes["primary"].FindStringSubmatch(html); m != nil {
		colors.Primary = m[1]
	}
	if m := cssVarRes["secondary"].FindStringSubmatch(html); m != nil {
		colors.Secondary = m[1]
	}
	if m := cssVarRes["accent"].FindStringSubmatch(html); m != nil {
		colors.Accent = m[1]
	}
	if colors.Primary != "" {
		fillColorDefaults(&colors)
		return colors
	}

	counts := make(map[string]int)
	for _, c := range colorRe.FindAllString(html, -1) {
		c = strings.ToLower(c)
		if !boringColors[c] {
			counts[c]++
		}
	}
	ranked := make([]string, 0, len(counts))
	for c := range counts {
		ranked = append(ranked, c)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if counts[ranked[i]] != counts[ranked[j]] {
			return counts[ranked[i]] > counts[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})
	if len(ranked) > 0 {
		colors.Primary = ranked[0]
	}
	if len(ranked) > 1 {
		colors.Secondary = ranked[1]
	}
	if len(ranked) > 2 {
		colors.Accent = ranked[2]
	}
	fillColorDefaults(&colors)
	return colors
}

func fillColorDefaults(c *domain.BrandColors) {
	if c.Primary == "" {
		c.Primary = defaultColors.Primary
	}
	if c.Secondary == "" {
		c.Secondary = defaultColors.Secondary
	}
	if c.Accent == "" {
		c.Accent = defaultColors.Accent
	}
}

// extractText strips non-content elements and walks the content-container
// selectors in priority order.
func extractText(doc *goquery.Document) string {
	doc.Find("script, style, noscript, nav, footer").Remove()
	for _, sel := range contentSelectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		text := collapseWhitespace(node.Text())
		if len(text) > 100 || sel == "body" {
			return text
		}
	}
	return collapseWhitespace(doc.Text())
}

func extractMetadata(doc *goquery.Document) Metadata {
	md := Metadata{Title: strings.TrimSpace(doc.Find("title").First().Text())}
	if v, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		md.Description = strings.TrimSpace(v)
	}
	if v, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		md.OGTitle = strings.TrimSpace(v)
	}
	if v, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok {
		md.OGDescription = strings.TrimSpace(v)
	}
	return md
}

var whitespaceRe = regexp.MustCompile(`\s+`)

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

func absolute(base *url.URL, ref string) string {
	parsed, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(parsed).String()
}

// truncate caps s at n bytes without splitting a UTF-8 rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
