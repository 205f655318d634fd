// Package app provides the application service layer.
//
// Orchestrates use cases: client onboarding, feedback ingestion, portfolio
// sync, trend queries, AI content drafts. Sits between HTTP handlers and
// domain repositories and owns the commit-then-notify ordering: change
// events go out only after the database write succeeded.
package app
