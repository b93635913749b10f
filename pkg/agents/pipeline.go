// Package agents implements the LLM analysis pipeline: relation
// classification, category selection, summarization, verification and
// translation of news articles.
package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/tico-news/newsmonitor/pkg/llm"
	"github.com/tico-news/newsmonitor/pkg/models"
)

// Agent temperature and token settings. Categorization agents run cold for
// determinism; the summarizer and verifier run at full creativity.
const (
	categorizerTemperature = 0.2
	summarizerTemperature  = 1.0
	verifierTemperature    = 1.0
	translatorTemperature  = 0.2

	agentMaxTokens = 8192

	// acceptRank is the labeler suitability rank above which an existing
	// category is accepted outright, without consulting the namer.
	acceptRank = 95
)

// Categorization is the outcome of the category pipeline for one article.
type Categorization struct {
	Relation models.Relation
	Category string
	// Description is set only when IsNew is true.
	Description string
	IsNew       bool
}

// Summary is the outcome of the summarization pipeline for one article.
type Summary struct {
	Text       string // English
	Translated string // target language
}

// Pipeline runs the agents against a shared engine.
type Pipeline struct {
	engine *llm.Engine
	logger *slog.Logger
}

// New builds a Pipeline.
func New(engine *llm.Engine, logger *slog.Logger) *Pipeline {
	return &Pipeline{engine: engine, logger: logger.With("component", "agents")}
}

// looseBool accepts true, "true", "True" and friends; the models do not
// reliably distinguish JSON booleans from their string forms.
type looseBool bool

func (b *looseBool) UnmarshalJSON(data []byte) error {
	s := strings.ToLower(strings.Trim(strings.TrimSpace(string(data)), `"`))
	v, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("invalid boolean %q", string(data))
	}
	*b = looseBool(v)
	return nil
}

// looseInt accepts both 42 and "42".
type looseInt int

func (i *looseInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid integer %q", string(data))
	}
	*i = looseInt(v)
	return nil
}

// Categorize determines the article's relation to Costa Rica and its
// category. existing maps category name to description and must not contain
// the sentinel. Protocol failures surface as *llm.ResponseError.
func (p *Pipeline) Categorize(ctx context.Context, article string, existing map[string]string, sessionID string) (*Categorization, error) {
	relation, err := p.classify(ctx, article, sessionID)
	if err != nil {
		return nil, err
	}
	if relation == models.RelationNA {
		// Unrelated articles never earn a real category.
		return &Categorization{Relation: relation, Category: models.UnknownCategory}, nil
	}

	category, confident, err := p.label(ctx, article, existing, sessionID)
	if err != nil {
		return nil, err
	}
	if confident {
		return &Categorization{Relation: relation, Category: category}, nil
	}

	newCategory, newDescription, err := p.name(ctx, article, sessionID)
	if err != nil {
		return nil, err
	}
	if _, ok := existing[newCategory]; ok {
		// The "new" name already exists; nothing to arbitrate.
		return &Categorization{Relation: relation, Category: newCategory}, nil
	}

	final, isNew, err := p.finalize(ctx, article, existing, newCategory, newDescription, sessionID)
	if err != nil {
		return nil, err
	}
	c := &Categorization{Relation: relation, Category: final, IsNew: isNew}
	if isNew {
		c.Description = newDescription
	}
	return c, nil
}

func (p *Pipeline) classify(ctx context.Context, article, sessionID string) (models.Relation, error) {
	chat := p.engine.NewChat(llm.ChatConfig{
		SessionID:    sessionID,
		AgentID:      "classifier",
		Model:        p.engine.Basic(),
		Temperature:  categorizerTemperature,
		MaxTokens:    agentMaxTokens,
		SystemPrompt: classifierPrompt,
		SchemaName:   "article_relation",
		Schema:       classifierSchema,
	})

	var resp struct {
		ChainOfThought string `json:"a_chain_of_thought"`
		Related        string `json:"b_related"`
	}
	if err := chat.GenerateStructured(ctx, article, &resp); err != nil {
		return "", err
	}
	relation := models.Relation(strings.ToLower(strings.TrimSpace(resp.Related)))
	if !relation.Valid() {
		return "", &llm.ResponseError{Kind: "schema", Detail: fmt.Sprintf("invalid relation %q", resp.Related)}
	}
	p.logger.Info("article classified", "session", sessionID, "relation", relation)
	return relation, nil
}

// label asks for up to three existing-category suggestions. It returns the
// best suggestion and whether its rank clears acceptRank.
func (p *Pipeline) label(ctx context.Context, article string, existing map[string]string, sessionID string) (string, bool, error) {
	chat := p.engine.NewChat(llm.ChatConfig{
		SessionID:    sessionID,
		AgentID:      "labeler",
		Model:        p.engine.Basic(),
		Temperature:  categorizerTemperature,
		MaxTokens:    agentMaxTokens,
		SystemPrompt: fmt.Sprintf(labelerPromptFmt, categoriesJSON(existing)),
		SchemaName:   "article_labels",
		Schema:       labelerSchema,
	})

	var resp struct {
		ChainOfThought string    `json:"a_chain_of_thought"`
		NoCategory     looseBool `json:"b_no_category"`
		Suggestions    []struct {
			Category string   `json:"a_category"`
			Rank     looseInt `json:"b_rank"`
		} `json:"c_existing_categories_list"`
	}
	if err := chat.GenerateStructured(ctx, article, &resp); err != nil {
		return "", false, err
	}
	if bool(resp.NoCategory) || len(resp.Suggestions) == 0 {
		return "", false, nil
	}

	best, bestRank := "", -1
	for _, s := range resp.Suggestions {
		// Suggestions outside the catalog are hallucinations; drop them.
		if _, ok := existing[s.Category]; !ok {
			p.logger.Warn("labeler suggested unknown category", "session", sessionID, "category", s.Category)
			continue
		}
		if int(s.Rank) > bestRank {
			best, bestRank = s.Category, int(s.Rank)
		}
	}
	if best == "" {
		return "", false, nil
	}
	p.logger.Info("labeler suggestion", "session", sessionID, "category", best, "rank", bestRank)
	return best, bestRank > acceptRank, nil
}

func (p *Pipeline) name(ctx context.Context, article, sessionID string) (string, string, error) {
	chat := p.engine.NewChat(llm.ChatConfig{
		SessionID:    sessionID,
		AgentID:      "namer",
		Model:        p.engine.Basic(),
		Temperature:  categorizerTemperature,
		MaxTokens:    agentMaxTokens,
		SystemPrompt: namerPrompt,
		SchemaName:   "new_category",
		Schema:       namerSchema,
	})

	var resp struct {
		ChainOfThought string `json:"a_chain_of_thought"`
		Category       string `json:"b_category"`
		Description    string `json:"d_category_description"`
	}
	if err := chat.GenerateStructured(ctx, article, &resp); err != nil {
		return "", "", err
	}
	category := strings.TrimSpace(resp.Category)
	if category == "" || strings.Count(category, "/") > 1 || strings.ContainsAny(category, " \t") {
		return "", "", &llm.ResponseError{Kind: "schema", Detail: fmt.Sprintf("invalid category name %q", resp.Category)}
	}
	p.logger.Info("namer suggestion", "session", sessionID, "category", category)
	return category, strings.TrimSpace(resp.Description), nil
}

// finalize arbitrates between the existing catalog and the namer's proposal
// under obfuscated names, then maps the winner back.
func (p *Pipeline) finalize(ctx context.Context, article string, existing map[string]string, newCategory, newDescription, sessionID string) (string, bool, error) {
	obf := obfuscate(existing, newCategory)

	chat := p.engine.NewChat(llm.ChatConfig{
		SessionID:    sessionID,
		AgentID:      "label_finalizer",
		Model:        p.engine.Basic(),
		Temperature:  categorizerTemperature,
		MaxTokens:    agentMaxTokens,
		SystemPrompt: fmt.Sprintf(finalizerPromptFmt, categoriesJSON(obf.listing), obf.newName, newDescription),
		SchemaName:   "final_category",
		Schema:       finalizerSchema,
	})

	var resp struct {
		ChainOfThought string    `json:"a_chain_of_thought"`
		NewChosen      looseBool `json:"b_new_chosen"`
		Category       string    `json:"c_category"`
	}
	if err := chat.GenerateStructured(ctx, article, &resp); err != nil {
		return "", false, err
	}

	placeholder := strings.TrimSpace(resp.Category)
	real, ok := obf.real(placeholder)
	if !ok {
		return "", false, &llm.ResponseError{Kind: "schema", Detail: fmt.Sprintf("unknown obfuscated category %q", placeholder)}
	}
	isNew := real == newCategory
	p.logger.Info("category finalized", "session", sessionID, "category", real, "new", isNew)
	return real, isNew, nil
}

// Summarize produces the English summary, verifies it against the original
// and translates it into targetLanguage.
func (p *Pipeline) Summarize(ctx context.Context, article, targetLanguage, sessionID string) (*Summary, error) {
	text, err := p.summarize(ctx, article, sessionID)
	if err != nil {
		return nil, err
	}

	text, err = p.verify(ctx, article, text, sessionID)
	if err != nil {
		return nil, err
	}

	translated, err := p.translate(ctx, article, text, targetLanguage, sessionID)
	if err != nil {
		return nil, err
	}
	return &Summary{Text: text, Translated: translated}, nil
}

func (p *Pipeline) summarize(ctx context.Context, article, sessionID string) (string, error) {
	chat := p.engine.NewChat(llm.ChatConfig{
		SessionID:    sessionID,
		AgentID:      "summarizer",
		Model:        p.engine.Light(),
		Temperature:  summarizerTemperature,
		MaxTokens:    agentMaxTokens,
		SystemPrompt: summarizerPrompt,
		SchemaName:   "news_summary",
		Schema:       summarizerSchema,
	})

	var resp struct {
		ChainOfThought string `json:"a_chain_of_thought"`
		NewsSummary    string `json:"b_news_summary"`
	}
	if err := chat.GenerateStructured(ctx, article, &resp); err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.NewsSummary) == "" {
		return "", &llm.ResponseError{Kind: "schema", Detail: "empty summary"}
	}
	return resp.NewsSummary, nil
}

// verify double-checks the summary against the original article and may
// replace it with an adjusted version.
func (p *Pipeline) verify(ctx context.Context, article, summary, sessionID string) (string, error) {
	chat := p.engine.NewChat(llm.ChatConfig{
		SessionID:    sessionID,
		AgentID:      "summary_verifier",
		Model:        p.engine.Light(),
		Temperature:  verifierTemperature,
		MaxTokens:    agentMaxTokens,
		SystemPrompt: verifierPrompt,
		SchemaName:   "summary_verification",
		Schema:       verifierSchema,
	})

	var resp struct {
		ChainOfThought      string    `json:"a_chain_of_thought"`
		AdjustmentsRequired looseBool `json:"b_adjustments_required"`
		NewsSummary         string    `json:"c_news_summary"`
	}
	if err := chat.GenerateStructured(ctx, workItemJSON(article, summary), &resp); err != nil {
		return "", err
	}
	if bool(resp.AdjustmentsRequired) && strings.TrimSpace(resp.NewsSummary) != "" {
		p.logger.Info("summary adjusted by verifier", "session", sessionID)
		return resp.NewsSummary, nil
	}
	return summary, nil
}

func (p *Pipeline) translate(ctx context.Context, article, summary, targetLanguage, sessionID string) (string, error) {
	chat := p.engine.NewChat(llm.ChatConfig{
		SessionID:    sessionID,
		AgentID:      "translator",
		Model:        p.engine.Light(),
		Temperature:  translatorTemperature,
		MaxTokens:    agentMaxTokens,
		SystemPrompt: fmt.Sprintf(translatorPromptFmt, targetLanguage),
		SchemaName:   "summary_translation",
		Schema:       translatorSchema,
	})

	var resp struct {
		TranslatedSummary string `json:"translated_summary"`
	}
	if err := chat.GenerateStructured(ctx, workItemJSON(article, summary), &resp); err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.TranslatedSummary) == "" {
		return "", &llm.ResponseError{Kind: "schema", Detail: "empty translation"}
	}
	return resp.TranslatedSummary, nil
}

// categoriesJSON renders a name-to-description map as stable, indented JSON
// for prompt interpolation.
func categoriesJSON(categories map[string]string) string {
	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("{\n")
	for i, name := range names {
		key, _ := json.Marshal(name)
		val, _ := json.Marshal(categories[name])
		fmt.Fprintf(&b, "  %s: %s", key, val)
		if i < len(names)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("}")
	return b.String()
}

func workItemJSON(article, summary string) string {
	item, _ := json.Marshal(struct {
		OriginalArticle string `json:"original_article"`
		Summary         string `json:"summary"`
	}{article, summary})
	return string(item)
}
