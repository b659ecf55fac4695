// Package repository builds and runs dialect-specific SQL for generic
// entities: listing, lookups, counting, paging, inserts, updates, saves and
// deletes over any ConnectionSource.
package repository
