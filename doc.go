// Package backend provides the Buzzboard API server.

// This package contains the main application entry point. The actual API
// documentation is organized into subpackages:

// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/models: Data models and database schemas
// - internal/auth: Authentication and authorization services
// - internal/ratelimit: Sliding-window rate limiter
// - internal/feed: Cursor-based feed pagination
// - internal/storage: File storage (S3) operations
// - internal/database: Database connection and migrations
// - internal/middleware: HTTP middleware (rate limiting, logging, metrics)
// - internal/cache: Redis client wrapper
// - internal/seed: Development data seeding

// See the individual package documentation for detailed API reference.
package backend
