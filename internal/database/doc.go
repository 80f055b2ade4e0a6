// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations
//	└── users/           # Credential store operations
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	// Initialize database connection
//	db, err := database.NewDatabase("./authcore.db")
//
//	// Create domain-specific repositories
//	userRepo := users.NewRepository(db.DB)
//
//	// Use repositories
//	user, err := userRepo.FindByEmail("jane@example.com")
//
// The underlying *sql.DB is shared with the SQLite session store via SQLDB().
//
// # Adding a New Domain
//
// To add a new domain (e.g., audit):
//
//  1. Create a new sub-package: internal/database/audit/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Register its entities in NewDatabase's AutoMigrate call
package database
