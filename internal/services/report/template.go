package report

import "html/template"

// reportTemplate renders the self-contained report artifact. Everything
// is inline: no external stylesheets, scripts, or images, so the stored
// HTML stays readable years later without the app running.
var reportTemplate = template.Must(template.New("report").Parse(reportTemplateHTML))

const reportTemplateHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Market}} calendar report {{.Date}}</title>
<style>
  body { font-family: -apple-system, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; margin: 0; padding: 24px; background: #f5f6f8; color: #1f2430; }
  .report { max-width: 860px; margin: 0 auto; }
  header h1 { margin: 0 0 4px; font-size: 22px; }
  header .meta { color: #5b6472; font-size: 14px; margin-bottom: 20px; }
  .summary { display: flex; flex-wrap: wrap; gap: 12px; margin-bottom: 24px; }
  .stat { background: #fff; border: 1px solid #e3e6eb; border-radius: 8px; padding: 12px 16px; min-width: 120px; }
  .stat .value { font-size: 20px; font-weight: 600; }
  .stat .label { font-size: 12px; color: #5b6472; text-transform: uppercase; letter-spacing: 0.04em; }
  .event { background: #fff; border: 1px solid #e3e6eb; border-left: 4px solid #9aa3af; border-radius: 8px; padding: 16px; margin-bottom: 14px; }
  .event.importance-high { border-left-color: #d64545; }
  .event.importance-medium { border-left-color: #e8a13c; }
  .event-head { display: flex; align-items: baseline; gap: 10px; flex-wrap: wrap; }
  .event-head h2 { margin: 0; font-size: 16px; }
  .time { font-variant-numeric: tabular-nums; color: #5b6472; font-size: 14px; }
  .currency { font-weight: 600; font-size: 13px; }
  .badge { font-size: 11px; padding: 2px 8px; border-radius: 10px; background: #eceef2; color: #444c59; }
  .values { margin: 10px 0 0; border-collapse: collapse; font-size: 13px; }
  .values th { text-align: left; color: #5b6472; font-weight: 500; padding: 2px 18px 2px 0; }
  .values td { padding: 2px 18px 2px 0; font-variant-numeric: tabular-nums; }
  .analysis { margin-top: 12px; padding-top: 12px; border-top: 1px dashed #e3e6eb; font-size: 14px; }
  .verdict { display: flex; gap: 8px; align-items: center; margin-bottom: 8px; }
  .score { font-weight: 700; }
  .sentiment-bullish { color: #1e7b3c; }
  .sentiment-bearish { color: #c23030; }
  .sentiment-neutral { color: #5b6472; }
  .analysis p { margin: 6px 0; line-height: 1.5; }
  .analysis .description { color: #444c59; font-style: italic; }
  .factors { margin: 6px 0 0 0; padding-left: 20px; }
  .factors li { margin: 2px 0; }
  blockquote { margin: 10px 0 0; padding: 8px 12px; border-left: 3px solid #c9cfd8; background: #f8f9fb; color: #444c59; }
  .unanalyzed { margin-top: 10px; font-size: 13px; color: #9aa3af; }
  footer { margin-top: 28px; color: #9aa3af; font-size: 12px; text-align: center; }
</style>
</head>
<body>
<div class="report">
  <header>
    <h1>Economic Calendar Report</h1>
    <div class="meta">{{.Market}} &middot; {{.Date}}</div>
  </header>

  <section class="summary">
    <div class="stat"><div class="value">{{.TotalEvents}}</div><div class="label">Events</div></div>
    <div class="stat"><div class="value">{{.HighImpact}}</div><div class="label">High impact</div></div>
    <div class="stat"><div class="value">{{.AnalyzedEvents}}</div><div class="label">Analyzed</div></div>
    <div class="stat"><div class="value sentiment-bullish">{{.Bullish}}</div><div class="label">Bullish</div></div>
    <div class="stat"><div class="value sentiment-bearish">{{.Bearish}}</div><div class="label">Bearish</div></div>
    <div class="stat"><div class="value sentiment-neutral">{{.Neutral}}</div><div class="label">Neutral</div></div>
  </section>

  <section class="events">
    {{range .Events}}
    <article class="event {{.ImportanceClass}}">
      <div class="event-head">
        <span class="time">{{.TimeLabel}}</span>
        <span class="currency">{{.Currency}}</span>
        <h2>{{.Name}}</h2>
        <span class="badge">{{.Importance}}</span>
      </div>
      {{if .HasValues}}
      <table class="values">
        <tr><th>Actual</th><th>Forecast</th><th>Previous</th></tr>
        <tr><td>{{.Actual}}</td><td>{{.Forecast}}</td><td>{{.Previous}}</td></tr>
      </table>
      {{end}}
      {{with .Analysis}}
      <div class="analysis">
        <div class="verdict">
          <span class="score">Impact {{.ImpactScore}}/10</span>
          <span class="badge sentiment-{{.Sentiment}}">{{.Sentiment}}</span>
        </div>
        {{if .EventDescription}}<p class="description">{{.EventDescription}}</p>{{end}}
        {{if .AnalysisText}}<p>{{.AnalysisText}}</p>{{end}}
        {{if .KeyFactors}}
        <ul class="factors">
          {{range .KeyFactors}}<li>{{.}}</li>{{end}}
        </ul>
        {{end}}
        {{if .ExpertCommentary}}<blockquote>{{.ExpertCommentary}}</blockquote>{{end}}
      </div>
      {{else}}
      <div class="unanalyzed">Not analyzed for this market</div>
      {{end}}
    </article>
    {{end}}
  </section>

  <footer>Generated {{.GeneratedAt}} &middot; auspex {{.Version}}</footer>
</div>
</body>
</html>
`
