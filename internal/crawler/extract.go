package crawler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/asaskevich/govalidator"
	"github.com/pantrypilot/pantrypilot-api/internal/models"
)

// Selectors for the recipe source's page structure.
const (
	titleSelector          = "h1.article-heading"
	detailItemSelector     = "div.mm-recipes-details__item"
	detailLabelSelector    = "div.mm-recipes-details__label"
	detailValueSelector    = "div.mm-recipes-details__value"
	ingredientItemSelector = "li.mm-recipes-structured-ingredients__list-item"
	imageSelector          = "img.primary-image__image"
)

// pageExtract is what selector-based extraction pulls from one recipe page.
type pageExtract struct {
	Title       string
	PrepTime    string
	CookTime    string
	ImageURL    string
	Ingredients models.Ingredients
}

// parseRecipePage extracts the recipe fields from rendered page HTML.
func parseRecipePage(html string) (*pageExtract, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	extract := &pageExtract{
		Title: strings.TrimSpace(doc.Find(titleSelector).First().Text()),
	}

	doc.Find(detailItemSelector).Each(func(_ int, item *goquery.Selection) {
		label := strings.ToLower(strings.TrimSpace(item.Find(detailLabelSelector).Text()))
		value := strings.TrimSpace(item.Find(detailValueSelector).Text())
		switch {
		case strings.Contains(label, "prep time"):
			extract.PrepTime = value
		case strings.Contains(label, "cook time"):
			extract.CookTime = value
		}
	})

	doc.Find(ingredientItemSelector).Each(func(_ int, item *goquery.Selection) {
		extract.Ingredients = append(extract.Ingredients, models.Ingredient{
			Name:     strings.TrimSpace(item.Find("span[data-ingredient-name]").Text()),
			Unit:     strings.TrimSpace(item.Find("span[data-ingredient-unit]").Text()),
			Quantity: strings.TrimSpace(item.Find("span[data-ingredient-quantity]").Text()),
		})
	})

	if src, ok := doc.Find(imageSelector).First().Attr("src"); ok {
		extract.ImageURL = strings.TrimSpace(src)
	}

	return extract, nil
}

// extractCardURLs collects up to max absolute candidate URLs from the result
// cards matching selector. Malformed and relative hrefs are skipped.
func extractCardURLs(html, selector string, max int) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var urls []string
	doc.Find(selector).EachWithBreak(func(_ int, card *goquery.Selection) bool {
		if len(urls) >= max {
			return false
		}

		href, ok := card.Attr("href")
		if !ok {
			// Fallback cards are containers; the link sits inside.
			href, _ = card.Find("a").First().Attr("href")
		}
		if isCandidateURL(href) {
			urls = append(urls, href)
		}
		return true
	})

	return urls, nil
}

// isCandidateURL accepts only well-formed absolute http(s) URLs.
func isCandidateURL(href string) bool {
	return strings.HasPrefix(href, "http") && govalidator.IsURL(href)
}
