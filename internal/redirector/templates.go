package redirector

import (
	"crypto/sha256"
	"embed"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

// page is a loaded HTML template plus the CSP `style-src` value computed
// from the sha256 hashes of each `<style>` element it contains
// (SPEC_FULL.md §4.13: "style-src <sha256 hashes of each style element>").
type page struct {
	body        string
	cspStyleSrc string
}

var styleTagRe = regexp.MustCompile(`(?is)<style[^>]*>(.*?)</style>`)

func loadPage(name string) page {
	data, err := templateFS.ReadFile("templates/" + name)
	if err != nil {
		panic(fmt.Sprintf("redirector: missing embedded template %q: %v", name, err))
	}
	body := string(data)

	var hashes []string
	for _, m := range styleTagRe.FindAllStringSubmatch(body, -1) {
		sum := sha256.Sum256([]byte(m[1]))
		hashes = append(hashes, "'sha256-"+base64.StdEncoding.EncodeToString(sum[:])+"'")
	}

	return page{body: body, cspStyleSrc: strings.Join(hashes, " ")}
}

var (
	redirectPage      = loadPage("redirect.html")
	notFoundPage      = loadPage("not-found.html")
	httpsRedirectPage = loadPage("https-redirect.html")
	badRequestPage    = loadPage("bad-request.html")
)

func cspHeader(styleSrc string) string {
	return "default-src 'none'; style-src " + styleSrc + "; sandbox allow-top-navigation"
}
