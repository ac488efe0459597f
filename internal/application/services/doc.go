// Package services provides the business logic layer of the pipeline engine.
//
// This package contains the service implementations that handle:
//   - Pipeline structure and placement mutations under a per-pipeline lock
//     and versioned writes (PipelineService)
//   - Kanban board assembly with joined entity records (BoardService)
//   - Organization-wide placement analytics (DashboardService)
//   - Entity CRUD with custom field merging and delete cascades (EntityService)
//   - Group and view bootstrapping (CatalogService)
//   - Periodic removal of dangling references (SweepService)
//
// ServiceManager wires them from a database connection and a Locker.
package services
