package build

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"gazeta/internal/app"
	domainbuild "gazeta/internal/domain/build"
	"gazeta/internal/domain/config"
	"gazeta/internal/domain/site"
	"gazeta/internal/feed"
	"gazeta/internal/logging"
	"gazeta/internal/store"
)

const (
	sitemapFile     = "sitemap.xml"
	robotsFile      = "robots.txt"
	fingerprintFile = ".sitemap.fingerprint"
	// formatVersion changes whenever the generated bytes change for the same input.
	formatVersion = "sitemap/1"
	sitemapXMLNS  = "http://www.sitemaps.org/schemas/sitemap/0.9"
)

// ArticleSource is the part of the store the builder reads.
type ArticleSource interface {
	Snapshot(c store.Collection) (store.Snapshot, error)
}

// Builder writes sitemap.xml and robots.txt into the public directory.
type Builder struct {
	Cfg    config.Config
	Store  ArticleSource
	Log    *zap.Logger
	Routes app.RouteBuilder
}

type Result struct {
	URLs        int
	Skipped     bool
	Fingerprint string
}

// Run regenerates the files unless the published articles and the site
// address are unchanged since the last run.
func (b *Builder) Run(ctx context.Context) (*Result, error) {
	log := logging.OrNop(b.Log)

	snap, err := b.Store.Snapshot(store.Articles)
	if err != nil {
		return nil, fmt.Errorf("read articles: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base := BaseURL(b.Cfg)
	fp := domainbuild.Fingerprint{
		ContentHash: snap.Fingerprint,
		ConfigHash:  domainbuild.HashStrings(base),
		FormatHash:  formatVersion,
	}
	fp.ComputeRenderHash()

	outDir := b.Cfg.Build.PublicDir
	if b.upToDate(outDir, fp.RenderHash) {
		log.Debug("sitemap unchanged", zap.String("fingerprint", fp.RenderHash))
		return &Result{Skipped: true, Fingerprint: fp.RenderHash}, nil
	}

	routes := b.Routes.BuildSitemapRoutes(feed.Published(snap.Map()))
	data, err := Sitemap(base, routes)
	if err != nil {
		return nil, fmt.Errorf("encode sitemap: %w", err)
	}
	if err := writeFile(outDir, sitemapFile, data); err != nil {
		return nil, err
	}
	if err := writeFile(outDir, robotsFile, Robots(base)); err != nil {
		return nil, err
	}
	if err := writeFile(outDir, fingerprintFile, []byte(fp.RenderHash+"\n")); err != nil {
		return nil, err
	}

	log.Info("sitemap written",
		zap.String("path", filepath.Join(outDir, sitemapFile)),
		zap.Int("urls", len(routes)),
	)
	return &Result{URLs: len(routes), Fingerprint: fp.RenderHash}, nil
}

func (b *Builder) upToDate(outDir, hash string) bool {
	prev, err := os.ReadFile(filepath.Join(outDir, fingerprintFile))
	if err != nil || string(bytes.TrimSpace(prev)) != hash {
		return false
	}
	_, err = os.Stat(filepath.Join(outDir, sitemapFile))
	return err == nil
}

// BaseURL is the absolute site address without a trailing slash.
func BaseURL(cfg config.Config) string {
	return strings.TrimRight(cfg.Site.SiteURL, "/") + cfg.Build.BasePath
}

type urlset struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// Sitemap encodes routes as a sitemaps.org urlset.
func Sitemap(base string, routes []site.Route) ([]byte, error) {
	set := urlset{XMLNS: sitemapXMLNS, URLs: make([]sitemapURL, 0, len(routes))}
	for _, r := range routes {
		u := sitemapURL{
			Loc:        base + r.Path,
			LastMod:    r.LastMod,
			ChangeFreq: r.ChangeFreq,
		}
		if r.Priority > 0 {
			u.Priority = strconv.FormatFloat(r.Priority, 'f', 1, 64)
		}
		set.URLs = append(set.URLs, u)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Robots keeps crawlers out of the admin area and points them at the sitemap.
func Robots(base string) []byte {
	var b strings.Builder
	b.WriteString("User-agent: *\n")
	b.WriteString("Disallow: /admin\n")
	b.WriteString("Sitemap: " + base + "/" + sitemapFile + "\n")
	return []byte(b.String())
}

func writeFile(root, rel string, data []byte) error {
	full := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, full)
}
