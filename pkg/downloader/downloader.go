// Package downloader fetches pending article bodies, stores them as
// markdown and runs the LLM analysis that decides whether an article is
// worth notifying about.
package downloader

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tico-news/newsmonitor/pkg/agents"
	"github.com/tico-news/newsmonitor/pkg/config"
	"github.com/tico-news/newsmonitor/pkg/crhoy"
	"github.com/tico-news/newsmonitor/pkg/models"
	"github.com/tico-news/newsmonitor/pkg/storage"
	"github.com/tico-news/newsmonitor/pkg/store"
	"github.com/tico-news/newsmonitor/pkg/trigger"
)

// Summary languages: the primary summary is written in English, plus one
// translation for the channel audience.
const (
	primaryLang         = "en"
	translatedLang      = "ru"
	translationLanguage = "Russian"
)

// Downloader is the article download and analysis worker.
type Downloader struct {
	store    *store.Store
	client   *crhoy.Client
	files    *storage.Store
	pipeline *agents.Pipeline
	triggers *trigger.Service
	cfg      config.DownloaderConfig
	logger   *slog.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu        sync.Mutex
	lastCycle time.Time
}

// New builds a Downloader.
func New(st *store.Store, client *crhoy.Client, files *storage.Store,
	pipeline *agents.Pipeline, triggers *trigger.Service,
	cfg config.DownloaderConfig, logger *slog.Logger) *Downloader {
	return &Downloader{
		store:    st,
		client:   client,
		files:    files,
		pipeline: pipeline,
		triggers: triggers,
		cfg:      cfg,
		logger:   logger.With("component", "downloader"),
		stopCh:   make(chan struct{}),
	}
}

// Start begins the download loop in a goroutine.
func (d *Downloader) Start(ctx context.Context) {
	d.wg.Add(1)
	go d.run(ctx)
}

// Stop signals the worker to stop and waits for it to finish.
// It is safe to call Stop multiple times.
func (d *Downloader) Stop() {
	d.stopOnce.Do(func() { close(d.stopCh) })
	d.wg.Wait()
}

func (d *Downloader) run(ctx context.Context) {
	defer d.wg.Done()
	d.logger.Info("downloader started", "interval", d.cfg.DownloadInterval)

	for {
		if err := d.RunOnce(ctx); err != nil {
			d.logger.Error("download cycle failed", "error", err)
		}
		d.markCycle()
		select {
		case <-d.stopCh:
			d.logger.Info("downloader shutting down")
			return
		case <-ctx.Done():
			d.logger.Info("context cancelled, downloader shutting down")
			return
		case <-time.After(d.cfg.DownloadInterval):
		}
	}
}

// Name identifies the worker on the status API.
func (d *Downloader) Name() string { return "downloader" }

// LastCycle reports when the worker last completed a cycle.
func (d *Downloader) LastCycle() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastCycle
}

func (d *Downloader) markCycle() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastCycle = time.Now()
}

// RunOnce processes one batch of pending articles. Articles inside the
// current notification window come first so fresh news reaches the channel
// with minimal delay; the backlog fills whatever capacity remains.
func (d *Downloader) RunOnce(ctx context.Context) error {
	info := d.triggers.Now()
	batch, err := d.store.DownloadBatch(ctx, info.ShiftedPrevious, d.cfg.DownloadsChunkSize)
	if err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}
	d.logger.Info("processing download batch", "articles", len(batch))

	for _, article := range batch {
		select {
		case <-d.stopCh:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := d.process(ctx, article, info); err != nil {
			d.logger.Error("failed to process article",
				"article_id", article.ID, "url", article.URL, "error", err)
		}
	}
	return nil
}

// process downloads one article body and, when it succeeds, runs the
// analysis. A fetch or parse failure marks the article permanently failed
// instead of erroring, so the batch keeps moving.
func (d *Downloader) process(ctx context.Context, article models.Article, info trigger.Info) error {
	categories, err := d.store.ArticleCategories(ctx, article.ID)
	if err != nil {
		return err
	}
	for _, category := range categories {
		if _, ignored := d.cfg.IgnoreCategories[category]; ignored {
			d.logger.Info("skipping article in ignored category",
				"article_id", article.ID, "category", category)
			return d.store.MarkArticleSkipped(ctx, article.ID)
		}
	}

	raw, err := d.client.FetchArticlePage(ctx, article.URL)
	if err != nil {
		d.logger.Warn("marking article failed",
			"article_id", article.ID, "url", article.URL, "error", err)
		return d.store.MarkArticleFailed(ctx, article.ID)
	}
	title, markdown, err := crhoy.ParseArticle(raw)
	if err != nil {
		d.logger.Warn("marking unparseable article failed",
			"article_id", article.ID, "url", article.URL, "error", err)
		return d.store.MarkArticleFailed(ctx, article.ID)
	}

	path, err := d.files.SaveArticle(article.Timestamp, article.ID, title, markdown)
	if err != nil {
		return err
	}
	if err := d.store.SetArticleBody(ctx, article.ID, path); err != nil {
		return err
	}
	d.logger.Info("article downloaded", "article_id", article.ID, "path", path)

	body, err := d.files.LoadArticle(path)
	if err != nil {
		return err
	}
	return d.analyze(ctx, article, body, info)
}

// analyze categorizes an article and, unless it is skipped, writes its
// summaries. The verdict and the summary records land in one transaction so
// the notifier never sees a verdict without its summary files.
func (d *Downloader) analyze(ctx context.Context, article models.Article, body string, info trigger.Info) error {
	// Articles older than the previous trigger can never be notified, so
	// analyzing them would only burn LLM quota.
	if article.Timestamp.Before(info.Previous) {
		d.logger.Debug("article predates notification window, skipping analysis",
			"article_id", article.ID)
		return nil
	}

	existing, err := d.store.GetVerdict(ctx, article.ID)
	if err != nil {
		return err
	}
	if existing != nil && !existing.Failed {
		return nil
	}

	sessionID := uuid.New().String()
	log := d.logger.With("article_id", article.ID, "session_id", sessionID)

	catalog, err := d.store.SmartCatalog(ctx)
	if err != nil {
		return err
	}
	categorization, err := d.pipeline.Categorize(ctx, body, catalog, sessionID)
	if err != nil {
		log.Error("categorization failed", "error", err)
		return d.recordFailure(ctx, article)
	}

	// A newly invented category is persisted outside the verdict transaction:
	// the catalog knowledge is valuable even if the rest of this analysis
	// fails.
	if categorization.IsNew {
		log.Info("new smart category", "category", categorization.Category)
		if err := d.store.AddSmartCategory(ctx, models.SmartCategory{
			Name:        categorization.Category,
			Description: categorization.Description,
		}); err != nil {
			return err
		}
	}

	ignored, err := d.store.IgnoredSmartCategories(ctx)
	if err != nil {
		return err
	}
	_, categoryIgnored := ignored[categorization.Category]

	verdict := models.Verdict{
		ArticleID: article.ID,
		Timestamp: article.Timestamp,
		Relation:  categorization.Relation,
		Category:  categorization.Category,
	}

	if categorization.Relation == models.RelationNA || categoryIgnored {
		verdict.Skipped = true
		log.Info("article skipped",
			"relation", categorization.Relation, "category", categorization.Category)
		return d.store.SaveVerdict(ctx, verdict)
	}

	summary, err := d.pipeline.Summarize(ctx, body, translationLanguage, sessionID)
	if err != nil {
		log.Error("summarization failed", "error", err)
		return d.recordFailure(ctx, article)
	}
	primaryPath, err := d.files.SaveSummary(article.Timestamp, article.ID, primaryLang, summary.Text)
	if err != nil {
		return err
	}
	translatedPath, err := d.files.SaveSummary(article.Timestamp, article.ID, translatedLang, summary.Translated)
	if err != nil {
		return err
	}

	err = d.store.WithTx(ctx, func(tx *store.Store) error {
		if err := tx.SaveVerdict(ctx, verdict); err != nil {
			return err
		}
		if err := tx.SaveSummary(ctx, models.Summary{
			ArticleID: article.ID, Lang: primaryLang, Path: primaryPath,
		}); err != nil {
			return err
		}
		return tx.SaveSummary(ctx, models.Summary{
			ArticleID: article.ID, Lang: translatedLang, Path: translatedPath,
		})
	})
	if err != nil {
		return fmt.Errorf("failed to save analysis of article %d: %w", article.ID, err)
	}
	log.Info("article analyzed", "category", categorization.Category)
	return nil
}

// recordFailure writes a failed verdict. Failed verdicts are excluded from
// notification and replaced wholesale if the article is ever analyzed again.
func (d *Downloader) recordFailure(ctx context.Context, article models.Article) error {
	return d.store.SaveVerdict(ctx, models.Verdict{
		ArticleID: article.ID,
		Timestamp: article.Timestamp,
		Relation:  models.RelationNA,
		Category:  models.UnknownCategory,
		Failed:    true,
	})
}
