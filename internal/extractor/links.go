package extractor

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/Almahr1/seoaudit/internal/frontier"
	"github.com/PuerkitoBio/goquery"
)

// censusAnchors counts anchors and collects crawlable link targets
func (h *HTMLExtractor) censusAnchors(doc *goquery.Document, base *url.URL, facts *PageFacts) {
	seen := make(map[string]bool)

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		facts.Anchors.Total++
		href := strings.TrimSpace(s.AttrOr("href", ""))
		lower := strings.ToLower(href)

		if strings.HasPrefix(lower, "javascript:") {
			facts.Anchors.Javascript++
			return
		}

		text := strings.ToLower(CleanText(s.Text()))
		if text != "" && h.genericAnchor[text] {
			facts.Anchors.Generic++
			facts.Anchors.GenericSamples = h.sample(facts.Anchors.GenericSamples, text)
		}

		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "tel:") || strings.HasPrefix(lower, "data:") {
			return
		}

		link, err := frontier.Resolve(base, href)
		if err != nil || (link.Scheme != "http" && link.Scheme != "https") || link.Host == "" {
			return
		}
		link.Fragment = ""
		link.RawFragment = ""

		if frontier.SameSite(link.Host, base.Host) {
			facts.Anchors.Internal++
		}
		target := link.String()
		if !seen[target] {
			seen[target] = true
			facts.Links = append(facts.Links, target)
		}
	})
}

// censusImages counts images lacking alt text, with poor alt text, or without dimensions.
// An empty alt counts as missing.
func (h *HTMLExtractor) censusImages(doc *goquery.Document, facts *PageFacts) {
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		facts.Images.Total++

		alt := CleanText(s.AttrOr("alt", ""))
		switch {
		case alt == "":
			facts.Images.MissingAlt++
		case utf8.RuneCountInString(alt) < h.Config.MinAltLength || h.genericAlt[strings.ToLower(alt)]:
			facts.Images.PoorAlt++
			facts.Images.PoorAltSamples = h.sample(facts.Images.PoorAltSamples, alt)
		}

		_, hasWidth := s.Attr("width")
		_, hasHeight := s.Attr("height")
		if !hasWidth && !hasHeight {
			facts.Images.MissingDimensions++
		}
	})
}

func (h *HTMLExtractor) sample(samples []string, v string) []string {
	if len(samples) >= h.Config.MaxSamples {
		return samples
	}
	for _, s := range samples {
		if s == v {
			return samples
		}
	}
	return append(samples, v)
}
