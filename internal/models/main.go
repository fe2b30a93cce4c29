package models

// ModelRegistry lists every model handed to AutoMigrate. New models must be
// registered here or schema changes will silently be skipped.
var ModelRegistry = []interface{}{
	&WaitlistEntry{},
}
