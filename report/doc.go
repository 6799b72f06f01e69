// Package report turns [metrics.AnalysisMetrics] into something a person or
// another tool can read: a one-line overlay summary, a localized text block,
// JSON or YAML.
package report
