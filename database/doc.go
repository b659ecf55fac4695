// Package database loads connection configuration and opens DataSources,
// the connection sources repositories run on. Connections go through
// database/sql; bun supplies health checks, statistics and the query log.
package database
