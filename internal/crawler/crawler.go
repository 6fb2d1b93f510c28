package crawler

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pantrypilot/pantrypilot-api/internal/ai"
	"github.com/pantrypilot/pantrypilot-api/internal/logger"
	"github.com/pantrypilot/pantrypilot-api/internal/models"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	searchURLBase     = "https://www.allrecipes.com/search?q="
	navigationTimeout = 60 * time.Second
	selectorTimeout   = 15 * time.Second

	// Detail pages are scraped by a fixed-size worker pool; each worker owns
	// its own page so navigation state is never shared.
	maxScrapeWorkers = 3

	primaryCardSelector  = "a.card"
	fallbackCardSelector = "div.card__content"

	defaultSource = "allrecipes"
)

// RecipeCrawler finds and scrapes candidate recipes for a free-text query.
type RecipeCrawler struct {
	Browser Browser
	Text    ai.TextProvider
	Retry   RetryPolicy
	Limiter *rate.Limiter
}

// NewRecipeCrawler creates a crawler with the default retry budget and a
// politeness limiter shared across the scrape workers.
func NewRecipeCrawler(browser Browser, text ai.TextProvider) *RecipeCrawler {
	return &RecipeCrawler{
		Browser: browser,
		Text:    text,
		Retry:   DefaultRetryPolicy,
		Limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), maxScrapeWorkers),
	}
}

// scrapeOutcome is the per-URL result collected from a worker. Either recipe
// or err is set; failures never abort the batch.
type scrapeOutcome struct {
	url    string
	recipe *models.Recipe
	err    error
}

// Crawl searches the source site and scrapes up to maxResults candidate
// recipes. Partial results are expected; a failed search yields an empty
// slice, which callers treat as a normal miss.
func (c *RecipeCrawler) Crawl(ctx context.Context, query string, maxResults int) []models.Recipe {
	log := logger.Get()

	page, err := c.Browser.NewPage()
	if err != nil {
		log.Error("failed to open search page", zap.Error(err))
		return nil
	}
	defer page.Close()

	searchURL := buildSearchURL(query)
	log.Info("navigating to search page", zap.String("url", searchURL))
	if err := page.Navigate(searchURL, navigationTimeout); err != nil {
		log.Warn("search page load failed", zap.String("url", searchURL), zap.Error(err))
		return nil
	}

	selector, err := c.determineCardSelector(page)
	if err != nil {
		log.Warn("no recipe cards found", zap.String("query", query), zap.Error(err))
		return nil
	}

	html, err := page.HTML()
	if err != nil {
		log.Warn("failed to read search page", zap.Error(err))
		return nil
	}

	urls, err := extractCardURLs(html, selector, maxResults)
	if err != nil || len(urls) == 0 {
		return nil
	}

	recipes := make([]models.Recipe, 0, len(urls))
	for _, outcome := range c.scrapeAll(ctx, urls) {
		if outcome.err != nil {
			log.Warn("dropping recipe URL",
				zap.String("url", outcome.url),
				zap.Error(outcome.err),
			)
			continue
		}
		recipes = append(recipes, *outcome.recipe)
	}

	log.Info("crawl finished",
		zap.String("query", query),
		zap.Int("candidates", len(urls)),
		zap.Int("recipes", len(recipes)),
	)
	return recipes
}

// buildSearchURL URL-encodes the whitespace-joined query terms.
func buildSearchURL(query string) string {
	return searchURLBase + url.QueryEscape(strings.Join(strings.Fields(query), " "))
}

// determineCardSelector waits for the primary result-card selector and falls
// back to the secondary one when it never appears.
func (c *RecipeCrawler) determineCardSelector(page Page) (string, error) {
	err := page.WaitVisible(primaryCardSelector, selectorTimeout)
	if err == nil {
		return primaryCardSelector, nil
	}
	if !IsRecoverable(err) {
		return "", err
	}

	if err := page.WaitVisible(fallbackCardSelector, selectorTimeout); err != nil {
		return "", err
	}
	return fallbackCardSelector, nil
}

// scrapeAll fans the candidate URLs out to the worker pool and merges the
// per-task outcomes after completion. No ordering is guaranteed.
func (c *RecipeCrawler) scrapeAll(ctx context.Context, urls []string) []scrapeOutcome {
	workers := maxScrapeWorkers
	if len(urls) < workers {
		workers = len(urls)
	}

	jobs := make(chan string)
	results := make(chan scrapeOutcome)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			page, err := c.Browser.NewPage()
			if err != nil {
				for u := range jobs {
					results <- scrapeOutcome{url: u, err: err}
				}
				return
			}
			defer page.Close()

			for u := range jobs {
				recipe, err := c.scrapeWithRetry(ctx, page, u)
				results <- scrapeOutcome{url: u, recipe: recipe, err: err}
			}
		}()
	}

	go func() {
		for _, u := range urls {
			jobs <- u
		}
		close(jobs)
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	outcomes := make([]scrapeOutcome, 0, len(urls))
	for outcome := range results {
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// ScrapePage scrapes a single known recipe URL on the given page, with the
// crawler's usual retry budget. Used for refreshing stored recipes.
func (c *RecipeCrawler) ScrapePage(ctx context.Context, page Page, pageURL string) (*models.Recipe, error) {
	return c.scrapeWithRetry(ctx, page, pageURL)
}

// scrapeWithRetry wraps a single scrape attempt in the crawler's retry
// policy. Only recoverable fetch errors are retried.
func (c *RecipeCrawler) scrapeWithRetry(ctx context.Context, page Page, pageURL string) (*models.Recipe, error) {
	var recipe *models.Recipe
	err := c.Retry.Do(ctx, func() error {
		r, err := c.scrapeRecipe(ctx, page, pageURL)
		if err != nil {
			return err
		}
		recipe = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return recipe, nil
}

// scrapeRecipe loads one candidate page and extracts a recipe from it. When
// selector-based ingredient extraction comes up empty, the raw HTML goes
// through the LLM fallback. A page only becomes a recipe if both a title and
// at least one ingredient were found.
func (c *RecipeCrawler) scrapeRecipe(ctx context.Context, page Page, pageURL string) (*models.Recipe, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	logger.Get().Info("scraping recipe", zap.String("url", pageURL))
	if err := page.Navigate(pageURL, navigationTimeout); err != nil {
		return nil, err
	}

	html, err := page.HTML()
	if err != nil {
		return nil, err
	}

	extract, err := parseRecipePage(html)
	if err != nil {
		return nil, err
	}

	ingredients := extract.Ingredients
	if len(ingredients) == 0 {
		logger.Get().Warn("structured extraction came up empty, trying LLM fallback",
			zap.String("url", pageURL))
		fallback, err := c.Text.ExtractIngredients(ctx, html)
		if err != nil {
			logger.Get().Warn("LLM fallback extraction failed",
				zap.String("url", pageURL), zap.Error(err))
		}
		for _, ing := range fallback {
			ingredients = append(ingredients, models.Ingredient{
				Name:     ing.Name,
				Unit:     ing.Unit,
				Quantity: ing.Quantity,
			})
		}
	}

	if extract.Title == "" || len(ingredients) == 0 {
		return nil, ErrNoRecipe
	}

	return &models.Recipe{
		Title:       extract.Title,
		Ingredients: ingredients,
		PrepTime:    extract.PrepTime,
		CookTime:    extract.CookTime,
		ImageURL:    extract.ImageURL,
		SourceURL:   pageURL,
		Source:      defaultSource,
	}, nil
}
