package crawler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pantrypilot/pantrypilot-api/internal/ai"
	"github.com/pantrypilot/pantrypilot-api/internal/testutil"
)

// pageScript holds the per-URL navigation results and page HTML shared by
// all pages a fake browser hands out.
type pageScript struct {
	mu      sync.Mutex
	navErrs map[string][]error
	html    map[string]string
	waitErr error
}

// consumeNavErr pops the next scripted navigation error for a URL.
func (s *pageScript) consumeNavErr(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if errs := s.navErrs[url]; len(errs) > 0 {
		err := errs[0]
		s.navErrs[url] = errs[1:]
		return err
	}
	return nil
}

// fakePage is one scripted tab. Each page tracks its own current URL so
// concurrent workers do not cross-read each other's pages.
type fakePage struct {
	script  *pageScript
	current string
}

func (p *fakePage) Navigate(url string, _ time.Duration) error {
	p.current = url
	return p.script.consumeNavErr(url)
}

func (p *fakePage) WaitVisible(selector string, _ time.Duration) error {
	return p.script.waitErr
}

func (p *fakePage) HTML() (string, error) {
	p.script.mu.Lock()
	defer p.script.mu.Unlock()
	return p.script.html[p.current], nil
}

func (p *fakePage) Close() {}

// fakeBrowser hands out fresh pages over a shared script.
type fakeBrowser struct {
	script *pageScript
	err    error
}

func (b *fakeBrowser) NewPage() (Page, error) {
	if b.err != nil {
		return nil, b.err
	}
	return &fakePage{script: b.script}, nil
}

func fastRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Delay: time.Millisecond}
}

func newTestCrawler(browser Browser, text *testutil.MockTextProvider) *RecipeCrawler {
	c := NewRecipeCrawler(browser, text)
	c.Retry = fastRetry()
	c.Limiter = nil
	return c
}

func TestBuildSearchURL(t *testing.T) {
	got := buildSearchURL("chicken  pasta")
	want := searchURLBase + "chicken+pasta"
	if got != want {
		t.Errorf("buildSearchURL = %q, want %q", got, want)
	}
}

func TestCrawlHappyPath(t *testing.T) {
	searchURL := buildSearchURL("margherita pizza")
	script := &pageScript{
		html: map[string]string{
			searchURL: `<html><body>
<a class="card" href="https://www.allrecipes.com/recipe/one"></a>
</body></html>`,
			"https://www.allrecipes.com/recipe/one": testutil.TestRecipePageHTML,
		},
	}
	c := newTestCrawler(&fakeBrowser{script: script}, &testutil.MockTextProvider{})

	recipes := c.Crawl(context.Background(), "margherita pizza", 10)
	if len(recipes) != 1 {
		t.Fatalf("got %d recipes, want 1", len(recipes))
	}
	r := recipes[0]
	if r.Title != "Classic Margherita Pizza" {
		t.Errorf("Title = %q", r.Title)
	}
	if r.SourceURL != "https://www.allrecipes.com/recipe/one" {
		t.Errorf("SourceURL = %q", r.SourceURL)
	}
	if r.Source != defaultSource {
		t.Errorf("Source = %q, want %q", r.Source, defaultSource)
	}
	if len(r.Ingredients) != 2 {
		t.Errorf("got %d ingredients", len(r.Ingredients))
	}
}

func TestCrawlNoCards(t *testing.T) {
	script := &pageScript{
		html:    map[string]string{},
		waitErr: ErrSelectorTimeout,
	}
	c := newTestCrawler(&fakeBrowser{script: script}, &testutil.MockTextProvider{})

	recipes := c.Crawl(context.Background(), "nothing", 10)
	if len(recipes) != 0 {
		t.Errorf("got %d recipes, want 0", len(recipes))
	}
}

func TestCrawlSearchNavigationFailure(t *testing.T) {
	searchURL := buildSearchURL("pizza")
	script := &pageScript{
		navErrs: map[string][]error{
			searchURL: {ErrNavigationTimeout},
		},
		html: map[string]string{},
	}
	c := newTestCrawler(&fakeBrowser{script: script}, &testutil.MockTextProvider{})

	if recipes := c.Crawl(context.Background(), "pizza", 10); len(recipes) != 0 {
		t.Errorf("failed search returned %d recipes, want 0", len(recipes))
	}
}

func TestCrawlDropsFailingURL(t *testing.T) {
	searchURL := buildSearchURL("pizza")
	badURL := "https://www.allrecipes.com/recipe/bad"
	goodURL := "https://www.allrecipes.com/recipe/good"
	script := &pageScript{
		navErrs: map[string][]error{
			badURL: {ErrNavigationTimeout, ErrNavigationTimeout, ErrNavigationTimeout},
		},
		html: map[string]string{
			searchURL: `<html><body>
<a class="card" href="` + badURL + `"></a>
<a class="card" href="` + goodURL + `"></a>
</body></html>`,
			goodURL: testutil.TestRecipePageHTML,
		},
	}
	c := newTestCrawler(&fakeBrowser{script: script}, &testutil.MockTextProvider{})

	recipes := c.Crawl(context.Background(), "pizza", 10)
	if len(recipes) != 1 {
		t.Fatalf("got %d recipes, want the good one only", len(recipes))
	}
	if recipes[0].SourceURL != goodURL {
		t.Errorf("kept %q", recipes[0].SourceURL)
	}
}

func TestCrawlRetriesThenSucceeds(t *testing.T) {
	searchURL := buildSearchURL("pizza")
	flakyURL := "https://www.allrecipes.com/recipe/flaky"
	script := &pageScript{
		navErrs: map[string][]error{
			flakyURL: {ErrNavigationTimeout, ErrNavigationTimeout},
		},
		html: map[string]string{
			searchURL: `<html><body>
<a class="card" href="` + flakyURL + `"></a>
</body></html>`,
			flakyURL: testutil.TestRecipePageHTML,
		},
	}
	c := newTestCrawler(&fakeBrowser{script: script}, &testutil.MockTextProvider{})

	recipes := c.Crawl(context.Background(), "pizza", 10)
	if len(recipes) != 1 {
		t.Fatalf("got %d recipes, want the third attempt to succeed", len(recipes))
	}
	if recipes[0].SourceURL != flakyURL {
		t.Errorf("kept %q", recipes[0].SourceURL)
	}
}

func TestRetryBudgetIsThreeAttempts(t *testing.T) {
	calls := 0
	policy := fastRetry()
	err := policy.Do(context.Background(), func() error {
		calls++
		return ErrNavigationTimeout
	})
	if calls != 3 {
		t.Errorf("made %d attempts, want exactly 3", calls)
	}
	if !errors.Is(err, ErrNavigationTimeout) {
		t.Errorf("err = %v, want last attempt's error", err)
	}
}

func TestRetryStopsOnNonRecoverable(t *testing.T) {
	calls := 0
	policy := fastRetry()
	err := policy.Do(context.Background(), func() error {
		calls++
		return ErrNoRecipe
	})
	if calls != 1 {
		t.Errorf("non-recoverable error retried %d times", calls)
	}
	if !errors.Is(err, ErrNoRecipe) {
		t.Errorf("err = %v", err)
	}
}

func TestScrapeFallsBackToLLM(t *testing.T) {
	pageURL := "https://www.allrecipes.com/recipe/unstructured"
	html := `<html><body><h1 class="article-heading">Mystery Stew</h1><p>2 cups broth</p></body></html>`
	page := &fakePage{script: &pageScript{html: map[string]string{pageURL: html}}}

	text := &testutil.MockTextProvider{
		ExtractIngredientsFunc: func(_ context.Context, gotHTML string) ([]ai.IngredientResult, error) {
			if gotHTML != html {
				t.Errorf("fallback received unexpected HTML")
			}
			return []ai.IngredientResult{
				{Name: "broth", Quantity: "2", Unit: "cups"},
			}, nil
		},
	}
	c := newTestCrawler(&fakeBrowser{script: page.script}, text)

	recipe, err := c.scrapeRecipe(context.Background(), page, pageURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recipe.Title != "Mystery Stew" {
		t.Errorf("Title = %q", recipe.Title)
	}
	if len(recipe.Ingredients) != 1 || recipe.Ingredients[0].Name != "broth" {
		t.Errorf("Ingredients = %+v", recipe.Ingredients)
	}
}

func TestScrapeNoRecipeWhenFallbackFails(t *testing.T) {
	pageURL := "https://www.allrecipes.com/recipe/unstructured"
	html := `<html><body><h1 class="article-heading">Mystery Stew</h1></body></html>`
	page := &fakePage{script: &pageScript{html: map[string]string{pageURL: html}}}

	text := &testutil.MockTextProvider{
		ExtractIngredientsFunc: func(context.Context, string) ([]ai.IngredientResult, error) {
			return nil, errors.New("model unavailable")
		},
	}
	c := newTestCrawler(&fakeBrowser{script: page.script}, text)

	recipe, err := c.scrapeRecipe(context.Background(), page, pageURL)
	if recipe != nil {
		t.Errorf("expected no recipe when fallback fails, got %+v", recipe)
	}
	if !errors.Is(err, ErrNoRecipe) {
		t.Errorf("err = %v, want ErrNoRecipe", err)
	}
}
