package stub

import "councilchat/internal/api"

type template struct {
	api.Template
	Prompt string
}

type starter struct {
	api.StarterQuestion
	Prompt string
}

var defaultTemplates = []template{
	{
		Template: api.Template{ID: "blank", Name: "Blank", Description: "No system prompt, raw council mode."},
	},
	{
		Template: api.Template{ID: "architecture", Name: "Architecture Review", Description: "System design and architecture evaluation. Trade-off analysis, scalability, maintainability."},
		Prompt: "You are a senior systems architect on a review council. Evaluate all proposals through these lenses:\n" +
			"1. SCALABILITY - Will it handle 10x/100x growth?\n" +
			"2. MAINTAINABILITY - Can a new engineer understand this in a day?\n" +
			"3. COST - What are the infrastructure and operational costs?\n" +
			"4. SECURITY - What attack surface does this create?\n" +
			"5. TRADE-OFFS - Explicitly state what you're sacrificing for each gain.",
	},
	{
		Template: api.Template{ID: "pivot", Name: "Strategic Pivot Analysis", Description: "Product strategy and pivot evaluation. Market fit, risk, execution feasibility."},
		Prompt: "You are a strategic advisor on a product council. Evaluate market fit, competitive moat, " +
			"execution risk, unit economics and team fit. Quantify where possible.",
	},
	{
		Template: api.Template{ID: "code_review", Name: "Code Review", Description: "Deep code review with focus on correctness, performance, and security."},
		Prompt: "You are a principal engineer conducting a code review. Check correctness, performance, security, " +
			"readability, testing and idiom. Suggest concrete fixes.",
	},
	{
		Template: api.Template{ID: "data_pipeline", Name: "Data Pipeline Review", Description: "ETL/ELT pipeline design and reliability analysis."},
		Prompt: "You are a data engineering lead reviewing pipeline designs. Cover reliability, latency, schema " +
			"evolution, observability, cost and recovery.",
	},
}

var defaultStarters = []starter{
	{
		StarterQuestion: api.StarterQuestion{
			ID: "payments-latency", TemplateID: "architecture", Severity: "P0-FIRE", Domain: "payments",
			Title: "Checkout p99 tripled after deploy", Preview: "Payment confirmation latency jumped from 400ms to 1.3s...",
		},
		Prompt: "Checkout p99 latency tripled right after yesterday's deploy. The payment confirmation call now " +
			"takes 1.3s instead of 400ms. What should we check first, and how do we roll forward safely?",
	},
	{
		StarterQuestion: api.StarterQuestion{
			ID: "queue-backlog", TemplateID: "data_pipeline", Severity: "P1-URGENT", Domain: "messaging",
			Title: "Notification queue backlog", Preview: "Consumers fall behind every evening peak...",
		},
		Prompt: "Our notification consumers fall behind every evening peak and the backlog takes hours to drain. " +
			"How should we scale or redesign the pipeline?",
	},
	{
		StarterQuestion: api.StarterQuestion{
			ID: "review-retry", TemplateID: "code_review", Severity: "P2-NORMAL", Domain: "platform",
			Title: "Review a retry helper", Preview: "Is exponential backoff with jitter implemented correctly?",
		},
		Prompt: "Review our retry helper: exponential backoff capped at 30s with full jitter, retrying on any error. " +
			"What would you change?",
	},
	{
		StarterQuestion: api.StarterQuestion{
			ID: "pivot-creator-tools", TemplateID: "pivot", Severity: "P3-LOW", Domain: "product",
			Title: "Creator analytics as a product", Preview: "Should internal analytics become a paid tier?",
		},
		Prompt: "Should we turn our internal creator analytics dashboard into a paid product tier?",
	},
}

// councilMembers and chairman name the fake models whose answers the stub
// streams back.
var councilMembers = []struct {
	Alias string
	Slug  string
}{
	{Alias: "Atlas", Slug: "stub/atlas-1"},
	{Alias: "Beacon", Slug: "stub/beacon-2"},
	{Alias: "Cipher", Slug: "stub/cipher-3"},
}

var chairman = struct {
	Alias string
	Slug  string
}{Alias: "Chair", Slug: "stub/chair-1"}
